package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/corvidlabs/marsha/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testGrammar = `
start = "S"
terminals = ["a"]

[[rule]]
lhs = "S"
rhs = [["a", "S"], ["a"]]
`

func newTestAPI(t *testing.T) (*API, *httptest.Server) {
	t.Helper()
	st, err := store.NewDatastore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	api, err := New(st, "test-api-key", []byte("test-signing-secret"), time.Minute)
	require.NoError(t, err)

	srv := httptest.NewServer(api.Router())
	t.Cleanup(srv.Close)
	return api, srv
}

func issueToken(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	body, _ := json.Marshal(tokenRequest{APIKey: "test-api-key"})
	resp, err := http.Post(srv.URL+PathPrefix+"/token", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var tr tokenResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&tr))
	return tr.Token
}

func Test_PostToken_WrongKeyIsUnauthorized(t *testing.T) {
	_, srv := newTestAPI(t)
	body, _ := json.Marshal(tokenRequest{APIKey: "wrong-key"})
	resp, err := http.Post(srv.URL+PathPrefix+"/token", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func Test_PutGrammar_RequiresAuth(t *testing.T) {
	_, srv := newTestAPI(t)
	req, _ := http.NewRequest(http.MethodPost, srv.URL+PathPrefix+"/grammars/S", bytes.NewReader([]byte(testGrammar)))
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func Test_PutGrammar_MalformedBodyIsBadRequest(t *testing.T) {
	_, srv := newTestAPI(t)
	tok := issueToken(t, srv)

	req, _ := http.NewRequest(http.MethodPost, srv.URL+PathPrefix+"/grammars/S", bytes.NewReader([]byte("not valid toml [[[")))
	req.Header.Set("Authorization", "Bearer "+tok)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func Test_RecognizeEndToEnd(t *testing.T) {
	_, srv := newTestAPI(t)
	tok := issueToken(t, srv)

	req, _ := http.NewRequest(http.MethodPost, srv.URL+PathPrefix+"/grammars/rightrec", bytes.NewReader([]byte(testGrammar)))
	req.Header.Set("Authorization", "Bearer "+tok)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	input, _ := json.Marshal([]string{"a", "a", "a"})
	resp, err = http.Post(srv.URL+PathPrefix+"/grammars/rightrec/recognize", "application/json", bytes.NewReader(input))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var rr recognizeResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rr))
	assert.True(t, rr.Accepted)
	assert.NotEqual(t, rr.ID.String(), "")

	getResp, err := http.Get(srv.URL + PathPrefix + "/grammars/rightrec/recognitions/" + rr.ID.String())
	require.NoError(t, err)
	defer getResp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, getResp.StatusCode)

	authedReq, _ := http.NewRequest(http.MethodGet, srv.URL+PathPrefix+"/grammars/rightrec/recognitions/"+rr.ID.String(), nil)
	authedReq.Header.Set("Authorization", "Bearer "+tok)
	authedResp, err := http.DefaultClient.Do(authedReq)
	require.NoError(t, err)
	defer authedResp.Body.Close()
	assert.Equal(t, http.StatusOK, authedResp.StatusCode)

	var fetched recognitionResponse
	require.NoError(t, json.NewDecoder(authedResp.Body).Decode(&fetched))
	assert.NotEmpty(t, fetched.ChartDump)
}

func Test_Recognize_UnknownGrammarIsNotFound(t *testing.T) {
	_, srv := newTestAPI(t)
	input, _ := json.Marshal([]string{"a"})
	resp, err := http.Post(srv.URL+PathPrefix+"/grammars/nope/recognize", "application/json", bytes.NewReader(input))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

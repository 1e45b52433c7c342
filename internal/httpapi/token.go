package httpapi

import (
	"encoding/json"
	"net/http"

	"golang.org/x/crypto/bcrypt"
)

// tokenRequest is the body of POST /token: the configured API key, proven
// rather than transmitted bare on every subsequent request.
type tokenRequest struct {
	APIKey string `json:"api_key"`
}

type tokenResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

// postToken exchanges a valid API key for a short-lived bearer token,
// mirroring server/api/token.go's role but against the single static
// credential this service has instead of a user table.
func (api *API) postToken(req *http.Request) result {
	var body tokenRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return badRequest("request body must be JSON with an api_key field", "decoding token request: %s", err)
	}
	defer req.Body.Close()

	if err := bcrypt.CompareHashAndPassword(api.apiKeyHash, []byte(body.APIKey)); err != nil {
		return unauthorized("api key did not match configured hash: %s", err)
	}

	tok, exp := api.generateToken()
	return created(tokenResponse{
		Token:     tok,
		ExpiresAt: exp.Format("2006-01-02T15:04:05Z07:00"),
	}, "issued token expiring %s", exp)
}

package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/corvidlabs/marsha/internal/earley"
	"github.com/corvidlabs/marsha/internal/grammar"
	"github.com/corvidlabs/marsha/internal/rerrors"
	"github.com/corvidlabs/marsha/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// putGrammar stores or replaces the named grammar. The request body is the
// TOML document described in SPEC_FULL.md §11.2; it is compiled before
// being accepted, so a malformed grammar never makes it into the store.
func (api *API) putGrammar(req *http.Request) result {
	name := chi.URLParam(req, "name")
	if name == "" {
		return badRequest("grammar name may not be empty", "empty name path param")
	}

	body, err := io.ReadAll(req.Body)
	if err != nil {
		return badRequest("could not read request body", "reading body: %s", err)
	}
	defer req.Body.Close()

	g, err := grammar.Load(bytes.NewReader(body))
	if err != nil {
		return badRequest(err.Error(), "grammar %q failed to compile: %s", name, err)
	}

	if _, err := api.Store.Grammars().GetByName(req.Context(), name); err == nil {
		if err := api.Store.Grammars().Delete(req.Context(), name); err != nil {
			return internalError("replacing grammar %q: could not delete prior version: %s", name, err)
		}
	}

	stored, err := api.Store.Grammars().Create(req.Context(), name, body)
	if err != nil {
		return internalError("storing grammar %q: %s", name, err)
	}

	return created(struct {
		Name  string `json:"name"`
		Start string `json:"start"`
	}{Name: stored.Name, Start: string(g.Start())}, "stored grammar %q", name)
}

// deleteGrammar removes a previously stored grammar.
func (api *API) deleteGrammar(req *http.Request) result {
	name := chi.URLParam(req, "name")
	if err := api.Store.Grammars().Delete(req.Context(), name); err != nil {
		if errors.Is(err, rerrors.ErrNotFound) {
			return notFound("grammar %q", name)
		}
		return internalError("deleting grammar %q: %s", name, err)
	}
	return noContent("deleted grammar %q", name)
}

// recognizeResponse is the body of a successful POST .../recognize call.
type recognizeResponse struct {
	Accepted bool      `json:"accepted"`
	Earlemes int       `json:"earlemes"`
	ID       uuid.UUID `json:"id"`
}

// postRecognize loads the named grammar, runs Recognize against the JSON
// array of input symbols in the request body, logs the attempt, and
// reports the verdict. Unauthenticated: this is a read-only operation over
// an already-stored grammar, mirroring the teacher's unauthenticated info
// endpoints.
func (api *API) postRecognize(req *http.Request) result {
	name := chi.URLParam(req, "name")

	stored, err := api.Store.Grammars().GetByName(req.Context(), name)
	if err != nil {
		if errors.Is(err, rerrors.ErrNotFound) {
			return notFound("grammar %q", name)
		}
		return internalError("loading grammar %q: %s", name, err)
	}

	g, err := grammar.Load(bytes.NewReader(stored.Source))
	if err != nil {
		return internalError("stored grammar %q no longer compiles: %s", name, err)
	}

	var input []string
	if err := json.NewDecoder(req.Body).Decode(&input); err != nil {
		return badRequest("request body must be a JSON array of input symbols", "decoding input: %s", err)
	}
	defer req.Body.Close()

	source := make([]grammar.Symbol, len(input))
	for i, s := range input {
		source[i] = grammar.Symbol(s)
	}

	rec := earley.New(g)
	start := time.Now()
	accepted := rec.Recognize(source, g.Start())
	duration := time.Since(start)

	saved, err := api.Store.Recognitions().Create(req.Context(), store.Recognition{
		GrammarName: name,
		Input:       input,
		Accepted:    accepted,
		Earlemes:    rec.Chart().EarlemeCount(),
		Snapshot:    store.SnapshotChart(rec),
	})
	if err != nil {
		return internalError("logging recognition of grammar %q (took %s): %s", name, duration, err)
	}

	return ok(recognizeResponse{
		Accepted: accepted,
		Earlemes: saved.Earlemes,
		ID:       saved.ID,
	}, "grammar %q recognize(%d symbols) = %t in %s", name, len(input), accepted, duration)
}

// recognitionResponse is the body of a successful GET .../recognitions/{id}
// call: the summary counts plus the rosed-formatted chart dump captured at
// recognize time (earley.Recognizer.Dump), the same text cmd/marsharec's
// --verbose flag prints.
type recognitionResponse struct {
	ID                uuid.UUID `json:"id"`
	GrammarName       string    `json:"grammar_name"`
	Input             []string  `json:"input"`
	Accepted          bool      `json:"accepted"`
	EarlemeCount      int       `json:"earleme_count"`
	PartialParseCount int       `json:"partial_parse_count"`
	LeoItemCount      int       `json:"leo_item_count"`
	ChartDump         string    `json:"chart_dump"`
}

func (api *API) getRecognition(req *http.Request) result {
	idStr := chi.URLParam(req, "id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		return badRequest("id must be a UUID", "parsing recognition id %q: %s", idStr, err)
	}

	rec, err := api.Store.Recognitions().GetByID(req.Context(), id)
	if err != nil {
		if errors.Is(err, rerrors.ErrNotFound) {
			return notFound("recognition %s", id)
		}
		return internalError("loading recognition %s: %s", id, err)
	}

	return ok(recognitionResponse{
		ID:                rec.ID,
		GrammarName:       rec.GrammarName,
		Input:             rec.Input,
		Accepted:          rec.Accepted,
		EarlemeCount:      rec.Snapshot.EarlemeCount,
		PartialParseCount: rec.Snapshot.PartialParseCount,
		LeoItemCount:      rec.Snapshot.LeoItemCount,
		ChartDump:         rec.Snapshot.Dump,
	}, "fetched recognition %s", id)
}

// Package httpapi exposes marsha's HTTP surface: storing and recognizing
// against named grammars, gated by a bearer-token scheme minted from a
// single configured API key. It is the transport collaborator around
// internal/earley and internal/grammar, following server/api.API's
// router/struct shape from the teacher.
package httpapi

import (
	"net/http"
	"time"

	"github.com/corvidlabs/marsha/internal/rerrors"
	"github.com/corvidlabs/marsha/internal/store"
	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"
)

// PathPrefix is the prefix every marsha HTTP route is mounted under,
// mirroring server/api.PathPrefix.
const PathPrefix = "/api/v1"

// API holds the dependencies every handler needs: the persistence layer and
// the auth parameters for minting/validating bearer tokens.
type API struct {
	Store store.Store

	jwtSecret     []byte
	apiKeyHash    []byte
	tokenLifetime time.Duration
}

// New returns an API backed by st, authenticating token requests against
// apiKey (hashed with bcrypt the way the teacher hashes user passwords in
// server/server.go) and signing issued JWTs with jwtSecret.
func New(st store.Store, apiKey string, jwtSecret []byte, tokenLifetime time.Duration) (*API, error) {
	if len(jwtSecret) == 0 {
		return nil, rerrors.New("JWT signing secret must not be empty", rerrors.ErrBadArgument)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(apiKey), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	if tokenLifetime <= 0 {
		tokenLifetime = time.Hour
	}
	return &API{
		Store:         st,
		jwtSecret:     jwtSecret,
		apiKeyHash:    hash,
		tokenLifetime: tokenLifetime,
	}, nil
}

// Router builds the chi.Mux serving every route under PathPrefix.
func (api *API) Router() http.Handler {
	r := chi.NewRouter()

	r.Route(PathPrefix, func(r chi.Router) {
		r.Post("/token", wrap(api.postToken))

		r.Route("/grammars/{name}", func(r chi.Router) {
			r.With(api.requireAuth).Post("/", wrap(api.putGrammar))
			r.With(api.requireAuth).Delete("/", wrap(api.deleteGrammar))
			r.Post("/recognize", wrap(api.postRecognize))
			r.With(api.requireAuth).Get("/recognitions/{id}", wrap(api.getRecognition))
		})
	})

	return r
}

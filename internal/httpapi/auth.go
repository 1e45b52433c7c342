package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	errNoAuthHeader = errors.New("no authorization header present")
	errNotBearer    = errors.New("authorization header not in Bearer format")
)

const jwtIssuer = "marshad"

// generateToken mints a short-lived bearer token for the single configured
// API key, the single-tenant analogue of the teacher's per-user JWT
// (server/token.go's generateJWT): there are no user accounts here, only one
// static credential gating the grammar-management endpoints.
func (api *API) generateToken() (string, time.Time) {
	exp := time.Now().Add(api.tokenLifetime)
	claims := jwt.MapClaims{
		"iss": jwtIssuer,
		"sub": "marsha-api-key",
		"exp": exp.Unix(),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	signed, err := tok.SignedString(api.jwtSecret)
	if err != nil {
		// api.jwtSecret is validated non-empty at construction; HS512 signing
		// a well-formed claim set with a non-empty key cannot fail.
		panic("httpapi: signing a freshly minted JWT failed: " + err.Error())
	}
	return signed, exp
}

func (api *API) validateToken(tokStr string) error {
	_, err := jwt.Parse(tokStr, func(t *jwt.Token) (interface{}, error) {
		return api.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}), jwt.WithIssuer(jwtIssuer), jwt.WithLeeway(time.Minute))
	return err
}

type authedKey int

const authedCtxKey authedKey = 0

// requireAuth is middleware gating the mutating grammar endpoints behind a
// valid bearer token, following server/token.go's AuthHandler shape but
// simplified to a single static credential: there is no per-request user
// lookup, since validateToken itself is the whole authorization decision.
func (api *API) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		tok, err := bearerToken(req)
		if err != nil {
			unauthorized(err.Error()).write(w, req)
			return
		}
		if err := api.validateToken(tok); err != nil {
			unauthorized("token validation failed: %s", err.Error()).write(w, req)
			return
		}
		ctx := context.WithValue(req.Context(), authedCtxKey, true)
		next.ServeHTTP(w, req.WithContext(ctx))
	})
}

func bearerToken(req *http.Request) (string, error) {
	hdr := strings.TrimSpace(req.Header.Get("Authorization"))
	if hdr == "" {
		return "", errNoAuthHeader
	}
	parts := strings.SplitN(hdr, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(strings.TrimSpace(parts[0]), "bearer") {
		return "", errNotBearer
	}
	return strings.TrimSpace(parts[1]), nil
}

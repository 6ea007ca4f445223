package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/MKhiriev/go-audio-vault/internal/logger"
	"github.com/MKhiriev/go-audio-vault/internal/utils"
	"github.com/MKhiriev/go-audio-vault/models"
)

// auth enforces bearer-session authentication.
//
// It extracts the token from the "Authorization" header, validates it
// against the session registry (which also extends the idle deadline), and
// stores the authenticated principal and the raw token in the request
// context under [utils.PrincipalCtxKey] and [utils.SessionTokenCtxKey].
//
// Every rejection — missing header, malformed header, unknown, expired or
// revoked token — produces the same generic 401 body so callers learn
// nothing about why they were refused.
func (h *Handler) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromRequest(r)

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			log.Err(ErrEmptyAuthorizationHeader).Send()
			writeUnauthorized(w)
			return
		}

		token, err := getTokenFromAuthHeader(authHeader)
		if err != nil {
			log.Err(err).Send()
			writeUnauthorized(w)
			return
		}

		s, err := h.sessions.Validate(token)
		if err != nil {
			log.Err(err).Msg("session validation failed")
			writeUnauthorized(w)
			return
		}

		ctx := r.Context()
		ctx = context.WithValue(ctx, utils.PrincipalCtxKey, s.Principal)
		ctx = context.WithValue(ctx, utils.SessionTokenCtxKey, token)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func writeUnauthorized(w http.ResponseWriter) {
	utils.WriteJSON(w, models.ErrorResponse{Error: genericAuthMessage}, http.StatusUnauthorized)
}

// getTokenFromAuthHeader extracts the bearer token string from a raw
// "Authorization" HTTP header value.
//
// The header is expected to follow the standard format:
//
//	Authorization: <scheme> <token>
//
// It returns the following sentinel errors:
//   - [ErrInvalidAuthorizationHeader] — if the header contains fewer than
//     two space-separated parts (i.e. the token is missing entirely).
//   - [ErrEmptyToken] — if the second part exists but is an empty string.
func getTokenFromAuthHeader(authHeader string) (string, error) {
	parts := strings.Split(authHeader, " ")
	if len(parts) < 2 {
		return "", ErrInvalidAuthorizationHeader
	}

	tokenString := parts[1]
	if tokenString == "" {
		return "", ErrEmptyToken
	}

	return tokenString, nil
}

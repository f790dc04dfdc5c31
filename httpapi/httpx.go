// Package httpapi exposes the messaging pipelines over HTTP. Every route
// except health and metrics requires a resolvable caller identity.
package httpapi

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strings"

	"spill/auth"
	"spill/errors"
)

type HandlerFunc func(http.ResponseWriter, *http.Request) error

// Wrap converts a handler's error into the status code mandated by the
// error taxonomy: unauthenticated 401, invalid request 400, channel
// violations 403, everything else 500.
func Wrap(fn HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err := fn(w, r)
		if err == nil {
			return
		}
		WriteJSON(w, map[string]any{"error": err.Error()}, statusOf(err))
	})
}

func statusOf(err error) int {
	switch {
	case stderrors.Is(err, errors.ErrUnauthenticated):
		return http.StatusUnauthorized
	case stderrors.Is(err, errors.ErrInvalidChannel),
		stderrors.Is(err, errors.ErrNotParticipant):
		return http.StatusForbidden
	case stderrors.Is(err, errors.ErrInvalidRequest),
		stderrors.Is(err, errors.ErrEmptyContent),
		stderrors.Is(err, errors.ErrHyphenIdentifier):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func WriteJSON(w http.ResponseWriter, v any, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type ctxKey string

const identityKey ctxKey = "identity"

func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// AuthMiddleware resolves the bearer token into an identity and rejects
// the request before any handler runs when resolution fails.
func AuthMiddleware(tokens *auth.Tokens, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := BearerToken(r)
		if token == "" {
			WriteJSON(w, map[string]string{"error": "missing token"}, http.StatusUnauthorized)
			return
		}
		identity, err := tokens.Resolve(token)
		if err != nil || identity.ID == "" {
			WriteJSON(w, map[string]string{"error": "invalid token"}, http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), identityKey, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func IdentityFromCtx(r *http.Request) (auth.Identity, error) {
	identity, _ := r.Context().Value(identityKey).(auth.Identity)
	if identity.ID == "" {
		return auth.Identity{}, errors.ErrUnauthenticated
	}
	return identity, nil
}

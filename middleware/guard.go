package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	wellness "github.com/Dinesh17-Dev/wellness-session-app"
)

// Authenticator verifies bearer tokens. *wellness.Engine implements it.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*wellness.Identity, error)
}

// RequireAuth rejects requests without a valid bearer token with 401
// {"error":"Invalid Token"}.
func RequireAuth(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if auth == nil {
				writeUnauthorized(w)
				return
			}

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				writeUnauthorized(w)
				return
			}

			id, err := auth.Authenticate(r.Context(), token)
			if err != nil || id == nil || id.Email == "" {
				writeUnauthorized(w)
				return
			}

			ctx := wellness.WithIdentity(r.Context(), *id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": wellness.MsgInvalidToken})
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := strings.TrimSpace(value[len(bearer):])
	if token == "" {
		return "", false
	}

	return token, true
}

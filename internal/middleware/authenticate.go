package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/oyt/backend/internal/access"
	"github.com/oyt/backend/internal/auth"
	"github.com/oyt/backend/internal/logging"
)

// TokenResolver maps an access token to the id of the user it was issued to.
type TokenResolver interface {
	Resolve(ctx context.Context, accessToken string) (string, error)
}

// Authenticate resolves the bearer token of each request into the acting user. Requests
// without an Authorization header continue as the anonymous actor; a malformed, unknown or
// expired token is rejected with 401.
func Authenticate(resolver TokenResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := strings.TrimSpace(r.Header.Get("Authorization"))
			if header == "" {
				next.ServeHTTP(w, r.WithContext(access.WithActor(r.Context(), access.Anonymous())))
				return
			}

			ctx := r.Context()
			logger := logging.FromContext(ctx)

			scheme, token, ok := strings.Cut(header, " ")
			token = strings.TrimSpace(token)
			if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
				logger.Warn("malformed authorization header")
				writeError(w, http.StatusUnauthorized, "invalid authorization header")
				return
			}

			userID, err := resolver.Resolve(ctx, token)
			if err != nil {
				if errors.Is(err, auth.ErrSessionNotFound) || errors.Is(err, auth.ErrAccessTokenExpired) {
					logger.Warn("rejected access token", "error", err)
					writeError(w, http.StatusUnauthorized, "invalid or expired access token")
					return
				}
				logger.Error("resolve access token", "error", err)
				writeError(w, http.StatusInternalServerError, "unable to verify credentials")
				return
			}

			ctx = access.WithActor(ctx, access.User(userID))
			ctx = logging.With(ctx, "user_id", userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ayush/car-catalog/backend/internal/apperror"
	"github.com/ayush/car-catalog/backend/internal/auth"
	"github.com/ayush/car-catalog/backend/internal/respond"
)

// TokenVerifier verifies a bearer token and returns its claims.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// Denylist reports whether a token id has been revoked.
type Denylist interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// RequireAuth is middleware that validates the bearer token and injects the
// verified claims into the request context. It does not check ownership of
// any record.
func RequireAuth(tokens TokenVerifier, denylist Denylist, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				respond.Error(w, r, log, apperror.NewUnauthenticated("not authenticated", nil))
				return
			}

			claims, err := tokens.Verify(raw)
			if err != nil {
				respond.Error(w, r, log, apperror.NewUnauthenticated("invalid or expired token", err))
				return
			}

			revoked, err := denylist.IsRevoked(r.Context(), claims.ID)
			if err != nil {
				respond.Error(w, r, log, apperror.NewInternal("token denylist", err))
				return
			}
			if revoked {
				respond.Error(w, r, log, apperror.NewUnauthenticated("token revoked", nil))
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.NewContext(r.Context(), claims)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

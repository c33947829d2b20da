package middleware

import (
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/jobboard/pkg/apperr"
	"github.com/platinummonkey/jobboard/pkg/auth"
	"github.com/platinummonkey/jobboard/pkg/contextkeys"
	"github.com/platinummonkey/jobboard/pkg/httputil"
	"github.com/platinummonkey/jobboard/pkg/observability"
)

// TokenValidator validates bearer tokens
type TokenValidator interface {
	Validate(token string) (*auth.Claims, error)
}

// AuthMiddleware provides authentication middleware
type AuthMiddleware struct {
	tokens TokenValidator
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(tokens TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Handler wraps an HTTP handler with authentication. A missing
// Authorization header means an anonymous caller; a malformed or invalid
// token is rejected with 401.
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			next.ServeHTTP(w, r)
			return
		}

		logger := observability.FromContext(r.Context())

		// Format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			httputil.WriteAppError(w, logger, apperr.New(apperr.KindUnauthenticated, "invalid authorization header format"))
			return
		}

		claims, err := m.tokens.Validate(parts[1])
		if err != nil {
			logger.WithError(err).Debug("Rejected bearer token")
			httputil.WriteAppError(w, logger, err)
			return
		}

		ctx := contextkeys.WithUserID(r.Context(), claims.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// logFields is shared by the middlewares' debug logging
func logFields(r *http.Request) logrus.Fields {
	return logrus.Fields{"method": r.Method, "path": r.URL.Path}
}

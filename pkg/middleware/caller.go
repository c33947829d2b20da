package middleware

import (
	"context"
	"net/http"

	"github.com/platinummonkey/jobboard/pkg/contextkeys"
	"github.com/platinummonkey/jobboard/pkg/httputil"
	"github.com/platinummonkey/jobboard/pkg/observability"
	"github.com/platinummonkey/jobboard/pkg/rbac"
)

// MembershipSource reads a user's memberships
type MembershipSource interface {
	MembershipsOf(ctx context.Context, userID int64) (rbac.MembershipSet, error)
}

// CallerMiddleware resolves the authenticated user ID into an rbac.Caller.
// Memberships are read on every request, never cached, so a role change is
// visible to the next request.
func CallerMiddleware(memberships MembershipSource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := contextkeys.GetUserID(r.Context())
			if userID == 0 {
				ctx := contextkeys.WithCaller(r.Context(), rbac.AnonymousCaller())
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			set, err := memberships.MembershipsOf(r.Context(), userID)
			if err != nil {
				httputil.WriteAppError(w, observability.FromContext(r.Context()), err)
				return
			}

			ctx := contextkeys.WithCaller(r.Context(), rbac.NewCaller(userID, set))
			observability.FromContext(ctx).WithFields(logFields(r)).
				WithField("memberships", len(set)).Debug("Caller resolved")
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CallerFrom returns the request's caller, anonymous when none was resolved
func CallerFrom(ctx context.Context) rbac.Caller {
	if caller, ok := ctx.Value(contextkeys.CallerKey).(rbac.Caller); ok {
		return caller
	}
	return rbac.AnonymousCaller()
}

// internal/acl/middleware.go
//
// Chi middleware helpers that enforce capabilities.

package acl

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/yanizio/plubo/internal/auth"
)

// Checker answers capability questions; *Store implements it.
type Checker interface {
	Can(ctx context.Context, userID int64, capability string) (bool, error)
}

// RequireCapability admits the request when the current user holds
// capability.  Anonymous requests get 401, unauthorised ones 403.  An empty
// capability admits everyone.
func RequireCapability(c Checker, capability string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if capability == "" {
				next.ServeHTTP(w, r)
				return
			}
			uid, ok := auth.UserID(r.Context())
			if !ok {
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}

			allowed, err := c.Can(r.Context(), uid, capability)
			if err != nil {
				zap.L().Error("acl capability check", zap.Int64("user", uid),
					zap.String("capability", capability), zap.Error(err))
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			if !allowed {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

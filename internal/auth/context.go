// internal/auth/context.go
//
// Request identity helpers.
//
// Context
// -------
// plubo does not log users in.  It runs behind the host, which has already
// authenticated the request and forwards the user id in a trusted header
// (`http.user_header`, default X-Plubo-User).  FromHeader copies that id
// into the request context; downstream code reads it back with UserID.
//
// Usage
// -----
//     r.Use(auth.FromHeader(cfg.HTTP.UserHeader))
//
//     id, ok := auth.UserID(r.Context())   // 123, true
//
// Notes
// -----
// • Only expose the listener to the host; the header is trusted blindly.
// • Oxford commas, two spaces after periods.
package auth

import (
	"context"
	"net/http"
	"strconv"
)

// DefaultHeader carries the host's user id.
const DefaultHeader = "X-Plubo-User"

// userKey is unexported to avoid context-key collisions.
type userKey struct{}

// WithUser returns a new context carrying the given userID.
func WithUser(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userKey{}, userID)
}

// UserID extracts the userID from ctx.  It returns (0, false) if no user is set
// or if the stored value is not an int64.
func UserID(ctx context.Context) (int64, bool) {
	v := ctx.Value(userKey{})
	id, ok := v.(int64)
	return id, ok
}

// FromHeader attaches the user id found in header.  Requests without a
// valid positive id pass through anonymous.
func FromHeader(header string) func(http.Handler) http.Handler {
	if header == "" {
		header = DefaultHeader
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if raw := r.Header.Get(header); raw != "" {
				if id, err := strconv.ParseInt(raw, 10, 64); err == nil && id > 0 {
					r = r.WithContext(WithUser(r.Context(), id))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// internal/middleware/security.go
//
// Security-header middleware.
//
// Sets a conservative header set on every response:
//
//   • Strict-Transport-Security  (only when ForceHTTPS is on)
//   • Content-Security-Policy    (self-only; admin pages load no CDN assets)
//   • X-Frame-Options
//   • X-Content-Type-Options
//   • Referrer-Policy
//
// Notes
// -----
// • Headers are written *before* next.ServeHTTP, because anything added
//   after WriteHeader is dropped.  Handlers may still override a value with
//   w.Header().Set.
// • Oxford commas, two spaces after periods.

package middleware

import "net/http"

const hsts = "max-age=63072000; includeSubDomains"

var baseHeaders = [][2]string{
	{"Content-Security-Policy", "default-src 'self'; img-src 'self' data:; object-src 'none'; " +
		"base-uri 'self'; frame-ancestors 'self'"},
	{"X-Frame-Options", "SAMEORIGIN"},
	{"X-Content-Type-Options", "nosniff"},
	{"Referrer-Policy", "strict-origin-when-cross-origin"},
}

// Security returns the header middleware.  hstsOn adds HSTS, which only
// makes sense when every request is already forced onto HTTPS.
func Security(hstsOn bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			for _, kv := range baseHeaders {
				h.Set(kv[0], kv[1])
			}
			if hstsOn {
				h.Set("Strict-Transport-Security", hsts)
			}
			next.ServeHTTP(w, r)
		})
	}
}

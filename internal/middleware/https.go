// internal/middleware/https.go
//
// HTTPS redirect middleware.
//
// Context
// -------
// Enabled by `http.force_https`.  A plain-HTTP request is answered with a
// 308 to the same URL on https://, unless:
//
//   • the connection is already TLS,
//   • a trusted proxy reports `X-Forwarded-Proto: https`, or
//   • the host is a loopback name (localhost, 127.0.0.1, ::1).
//
// Notes
// -----
// • 308 keeps the method and body, so API POSTs survive the redirect.
// • Oxford commas, two spaces after periods.
package middleware

import (
	"net"
	"net/http"
	"strings"
)

// ForceHTTPS returns a middleware that redirects plain HTTP when enabled.
// Disabled, it returns next unchanged.
func ForceHTTPS(enabled bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !enabled {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secure(r) || loopback(stripPort(r.Host)) {
				next.ServeHTTP(w, r)
				return
			}
			http.Redirect(w, r, "https://"+r.Host+r.URL.RequestURI(), http.StatusPermanentRedirect)
		})
	}
}

func secure(r *http.Request) bool {
	return r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}

func loopback(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// stripPort removes the :port suffix from Host when present.
func stripPort(h string) string {
	if host, _, err := net.SplitHostPort(h); err == nil {
		return strings.Trim(host, "[]")
	}
	return strings.Trim(h, "[]")
}

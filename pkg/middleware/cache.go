package middleware

import (
	"fmt"
	"net/http"
)

// CacheControl sets a public Cache-Control header with the given max-age on
// GET responses. Non-GET requests pass through untouched.
func CacheControl(maxAge int) func(http.Handler) http.Handler {
	header := fmt.Sprintf("public, max-age=%d", maxAge)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet {
				w.Header().Set("Cache-Control", header)
			}
			next.ServeHTTP(w, r)
		})
	}
}

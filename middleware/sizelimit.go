package middleware

import "net/http"

// LimitBodySize returns a middleware that limits the size of the request body
// to maxBytes. If maxBytes <= 0, it is a no-op and does not wrap the body.
//
// This service never reads a request body, but the router always wires this
// guard regardless, as cheap defense against future routes that do.
func LimitBodySize(maxBytes int64) func(next http.Handler) http.Handler {
	if maxBytes <= 0 {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

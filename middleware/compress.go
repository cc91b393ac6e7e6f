package middleware

import (
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// defaultCompressionLevel balances speed and ratio for PAC bodies,
// which are small plain-JS text files.
const defaultCompressionLevel = 5

// compressibleTypes are the response content types that get
// compressed: PAC bodies, the plain-text debug view and JSON error
// bodies.
var compressibleTypes = []string{
	"application/x-ns-proxy-autoconfig",
	"text/plain",
	"application/json",
}

// CompressResponse gzip/deflate-compresses responses based on the
// client's Accept-Encoding header.
func CompressResponse(next http.Handler) http.Handler {
	return chimw.Compress(defaultCompressionLevel, compressibleTypes...)(next)
}

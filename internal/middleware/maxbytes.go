package middleware

import (
	"net/http"
)

// DefaultMaxBodyBytes is the default maximum request body size (4 MiB).
// Completion sign-offs carry the signature as a base64 data URL.
const DefaultMaxBodyBytes = 4 << 20

// MaxBytes caps request bodies. A declared Content-Length over the limit is
// answered with 413 before the handler runs. Otherwise the body reader fails
// once the limit is crossed and the JSON decode in the handler reports it.
func MaxBytes(maxBytes int64) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodyBytes
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusRequestEntityTooLarge)
				w.Write([]byte(`{"error":"request body too large"}`))
				return
			}
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}

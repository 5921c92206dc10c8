package middleware

import (
	"net/http"
)

const (
	apiMethods        = "GET, POST, PUT, DELETE, OPTIONS"
	apiRequestHeaders = "Accept, Content-Type, X-Request-Id"
)

// HeaderPolicy configures Headers.
type HeaderPolicy struct {
	// AllowedOrigins may call the API from a browser, typically the ticket
	// board front end. Empty means same-origin only.
	AllowedOrigins []string
	// HSTS is set when the server terminates TLS itself.
	HSTS bool
}

// Headers stamps the response headers every API reply carries and handles
// cross-origin access. Replies are never cached since tickets hold reporter
// contact details and signature images. A preflight from an origin outside
// the policy is refused with 403; a plain request from one is served without
// CORS headers and the browser blocks the read.
func Headers(p HeaderPolicy) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(p.AllowedOrigins))
	for _, o := range p.AllowedOrigins {
		allowed[o] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
			h.Set("Referrer-Policy", "no-referrer")
			h.Set("Cache-Control", "no-store")
			if p.HSTS {
				h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}

			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}
			h.Add("Vary", "Origin")

			if !allowed[origin] {
				if isPreflight(r) {
					h.Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusForbidden)
					w.Write([]byte(`{"error":"origin not allowed"}`))
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Expose-Headers", "X-Request-Id, Retry-After")
			if isPreflight(r) {
				h.Set("Access-Control-Allow-Methods", apiMethods)
				h.Set("Access-Control-Allow-Headers", apiRequestHeaders)
				h.Set("Access-Control-Max-Age", "86400")
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func isPreflight(r *http.Request) bool {
	return r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != ""
}

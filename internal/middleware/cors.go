package middleware

import (
	"net/http"
	"strings"
)

// CORSMiddleware gates which browser origins may call the gateway.
//
// The allow-list comes from CORS_ORIGIN. An empty list permits any origin,
// which is the development default and documented as unfit for production.
type CORSMiddleware struct {
	origins  []string
	allowAll bool
}

// NewCORSMiddleware creates a CORS middleware for the given origin
// allow-list. Origins are compared case-insensitively with trailing
// slashes ignored; an entry of "*" (or an empty list) allows everything.
func NewCORSMiddleware(origins []string) *CORSMiddleware {
	m := &CORSMiddleware{allowAll: len(origins) == 0}
	for _, o := range origins {
		trimmed := normalizeOrigin(o)
		if trimmed == "*" {
			m.allowAll = true
			continue
		}
		if trimmed != "" {
			m.origins = append(m.origins, trimmed)
		}
	}
	return m
}

// Handler returns middleware that applies the origin policy to every
// request, preflights included, before routing happens.
func (m *CORSMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := normalizeOrigin(r.Header.Get("Origin"))

		// Vary headers so caches key on the preflight inputs
		w.Header().Add("Vary", "Origin")
		w.Header().Add("Vary", "Access-Control-Request-Method")
		w.Header().Add("Vary", "Access-Control-Request-Headers")

		if origin != "" && m.allowed(origin) {
			h := w.Header()
			if m.allowAll {
				h.Set("Access-Control-Allow-Origin", "*")
			} else {
				h.Set("Access-Control-Allow-Origin", r.Header.Get("Origin"))
			}
			h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type, Accept")
			h.Set("Access-Control-Max-Age", "600")
		}

		// Preflight request
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (m *CORSMiddleware) allowed(origin string) bool {
	if m.allowAll {
		return true
	}
	for _, a := range m.origins {
		if strings.EqualFold(origin, a) {
			return true
		}
	}
	return false
}

func normalizeOrigin(s string) string {
	return strings.TrimRight(strings.TrimSpace(s), "/")
}

package auth

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
)

// APIKey returns middleware that enforces API key authentication on every
// request passed to next.
//
// Behaviour:
//   - If mode != "apikey" or key == "", all requests are allowed (pass-through).
//   - Otherwise the middleware reads header from the request and compares it
//     to key in constant time.
//   - A missing or incorrect key gets 401 with a JSON error body.
//
// Paths listed in open skip the check, for liveness probes and scrapers.
func APIKey(mode, header, key string, open ...string) func(http.Handler) http.Handler {
	skip := make(map[string]struct{}, len(open))
	for _, p := range open {
		skip[p] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		if mode != "apikey" || key == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := skip[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}
			got := r.Header.Get(header)
			if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]string{"error": "invalid api key"}) //nolint:errcheck
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

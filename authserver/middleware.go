// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package authserver

import (
	"encoding/json"
	"net/http"
)

// oauthError writes an OAuth error response per RFC 6749 section 5.2: a
// JSON body with "error" and optional "error_description", never a
// JSON-RPC frame.
func oauthError(w http.ResponseWriter, status int, code, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	body := map[string]string{"error": code}
	if description != "" {
		body["error_description"] = description
	}
	json.NewEncoder(w).Encode(body)
}

// withCORS allows cross-origin requests from any origin, answering
// preflight OPTIONS requests directly. Browser-based MCP clients
// typically run on a different origin than the authorization server.
func withCORS(methods string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", methods)
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// withMethods rejects requests whose method is not in allowed.
func withMethods(next http.HandlerFunc, allowed ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		for _, m := range allowed {
			if r.Method == m {
				next(w, r)
				return
			}
		}
		w.Header().Set("Allow", joinMethods(allowed))
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func joinMethods(methods []string) string {
	out := ""
	for i, m := range methods {
		if i > 0 {
			out += ", "
		}
		out += m
	}
	return out
}

// withRateLimit rejects requests once the server's shared token bucket is
// exhausted, per the OAuth TooManyRequests behavior.
func (s *Server) withRateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			oauthError(w, http.StatusTooManyRequests, "temporarily_unavailable", "rate limit exceeded")
			return
		}
		next(w, r)
	}
}

// wrap composes the standard CORS, method-allow-list, and rate-limit
// middleware around an endpoint handler.
func (s *Server) wrap(h http.HandlerFunc, methods ...string) http.Handler {
	return withCORS(joinMethods(methods))(s.withRateLimit(withMethods(h, methods...)))
}

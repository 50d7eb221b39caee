// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package authserver

import "net/http"

// RevokeHandler serves the token revocation endpoint, POST /revoke, per
// RFC 7009. Only refresh tokens are tracked server-side; revoking an
// access token JWT is a no-op here since it is self-contained and simply
// expires on its own, but the request is still reported as successful
// per RFC 7009 section 2.2 ("the server responds with HTTP status 200").
func (s *Server) RevokeHandler() http.Handler {
	return s.wrap(s.handleRevoke, http.MethodPost)
}

func (s *Server) handleRevoke(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		oauthError(w, http.StatusBadRequest, "invalid_request", "malformed form body")
		return
	}
	clientID, clientSecret, ok := clientCredentialsFromRequest(r)
	if !ok {
		oauthError(w, http.StatusBadRequest, "invalid_request", "missing client credentials")
		return
	}
	client, ok := s.client(clientID)
	if !ok || (client.Secret != "" && client.Secret != clientSecret) {
		oauthError(w, http.StatusUnauthorized, "invalid_client", "unknown client or bad secret")
		return
	}

	token := r.Form.Get("token")
	s.mu.Lock()
	if info, ok := s.refreshTokens[token]; ok && info.clientID == client.ID {
		delete(s.refreshTokens, token)
	}
	s.mu.Unlock()

	w.WriteHeader(http.StatusOK)
}

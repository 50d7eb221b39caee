// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package authserver

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/mcp-toolkit/go-engine/oauthex"
)

// RegisterHandler serves the Dynamic Client Registration endpoint,
// POST /register, per RFC 7591.
func (s *Server) RegisterHandler() http.Handler {
	return s.wrap(s.handleRegister, http.MethodPost)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var meta oauthex.ClientRegistrationMetadata
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&meta); err != nil {
		oauthError(w, http.StatusBadRequest, "invalid_client_metadata", err.Error())
		return
	}
	if len(meta.RedirectURIs) == 0 {
		oauthError(w, http.StatusBadRequest, "invalid_client_metadata", "redirect_uris is required")
		return
	}

	authMethod := meta.TokenEndpointAuthMethod
	if authMethod == "" {
		authMethod = "client_secret_post"
	}
	grantTypes := meta.GrantTypes
	if len(grantTypes) == 0 {
		grantTypes = []string{"authorization_code", "refresh_token"}
	}

	client := &ClientInfo{
		ID:                      newRandomID(16),
		RedirectURIs:            meta.RedirectURIs,
		GrantTypes:              grantTypes,
		TokenEndpointAuthMethod: authMethod,
	}
	if authMethod != "none" {
		client.Secret = newRandomID(24)
	}
	s.RegisterClient(client)

	resp := oauthex.ClientRegistrationResponse{
		ClientID:                   client.ID,
		ClientSecret:               client.Secret,
		ClientIDIssuedAt:           time.Now().Unix(),
		ClientRegistrationMetadata: meta,
	}
	resp.TokenEndpointAuthMethod = authMethod
	resp.GrantTypes = grantTypes

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(resp)
}

// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package authserver

import (
	"encoding/json"
	"net/http"

	"github.com/mcp-toolkit/go-engine/oauthex"
)

// AuthServerMetadataHandler serves this server's RFC 8414 Authorization
// Server Metadata document at GET /.well-known/oauth-authorization-server.
func (s *Server) AuthServerMetadataHandler() http.Handler {
	meta := &oauthex.AuthServerMeta{
		Issuer:                            s.cfg.Issuer,
		AuthorizationEndpoint:             s.cfg.Issuer + "/authorize",
		TokenEndpoint:                     s.cfg.Issuer + "/token",
		RegistrationEndpoint:              s.cfg.Issuer + "/register",
		RevocationEndpoint:                s.cfg.Issuer + "/revoke",
		ScopesSupported:                   s.cfg.ScopesSupported,
		ResponseTypesSupported:            []string{"code"},
		GrantTypesSupported:               []string{"authorization_code", "refresh_token", "client_credentials"},
		TokenEndpointAuthMethodsSupported: []string{"client_secret_post", "client_secret_basic", "none"},
		CodeChallengeMethodsSupported:     []string{"S256"},
	}
	return s.wrap(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(meta)
	}, http.MethodGet)
}

// ProtectedResourceMetadataHandler serves protected resource metadata
// identifying this server as the authorization server for resource, at
// GET /.well-known/oauth-protected-resource.
func (s *Server) ProtectedResourceMetadataHandler(resource string, scopes []string) http.Handler {
	meta := &oauthex.ProtectedResourceMetadata{
		Resource:             resource,
		AuthorizationServers: []string{s.cfg.Issuer},
		ScopesSupported:      scopes,
		BearerMethodsSupported: []string{"header"},
	}
	return s.wrap(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(meta)
	}, http.MethodGet)
}

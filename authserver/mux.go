// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package authserver

import "net/http"

// Mux returns an http.ServeMux with the authorization server's standard
// endpoints mounted at the paths conventionally expected by MCP clients:
// /authorize, /token, /register, /revoke, and
// /.well-known/oauth-authorization-server. Protected resource metadata is
// resource-specific and is not mounted here; serve it separately with
// [Server.ProtectedResourceMetadataHandler].
func (s *Server) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/.well-known/oauth-authorization-server", s.AuthServerMetadataHandler())
	mux.Handle("/authorize", s.AuthorizeHandler())
	mux.Handle("/token", s.TokenHandler())
	mux.Handle("/register", s.RegisterHandler())
	mux.Handle("/revoke", s.RevokeHandler())
	return mux
}

// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package testing holds test doubles shared across this module's own
// test suites; it is not itself a test package.
package testing

import (
	"log"
	"net/http"
	"net/http/httptest"

	"github.com/mcp-toolkit/go-engine/authserver"
)

// FakeClientID and FakeRedirectURI identify the public client that
// FakeAuthServer preregisters for its callers: a client-side OAuth
// test only needs to know these two values (plus the server's base
// URL) to drive a PKCE authorization-code flow end to end.
const (
	FakeClientID    = "fake-client-id"
	FakeRedirectURI = "http://localhost/callback"
)

// FakeAuthServer is a minimal OAuth 2.1 authorization server for use in
// tests of client-side discovery and token-exchange code: an
// httptest.Server fronting an [authserver.Server] with a single
// preregistered public client. Unlike a hand-rolled stand-in, it
// exercises the same authorize/token/metadata handlers, PKCE
// verification, and JWT issuance that a real deployment would use.
type FakeAuthServer struct {
	httpServer *httptest.Server
	authServer *authserver.Server
}

// NewFakeAuthServer starts an authorization server listening on an
// OS-assigned loopback port. Callers should defer Stop.
func NewFakeAuthServer() *FakeAuthServer {
	f := &FakeAuthServer{}
	f.httpServer = httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.authServer.Mux().ServeHTTP(w, r)
	}))
	// The issuer depends on the port the listener picks, so start the
	// listener first and construct the Config from its address.
	f.httpServer.Start()
	as, err := authserver.New(authserver.Config{
		Issuer:     f.httpServer.URL,
		SigningKey: []byte("fake-secret-key"),
	})
	if err != nil {
		log.Fatalf("authserver.New: %v", err)
	}
	as.RegisterClient(&authserver.ClientInfo{
		ID:                      FakeClientID,
		RedirectURIs:            []string{FakeRedirectURI},
		GrantTypes:              []string{"authorization_code", "refresh_token"},
		TokenEndpointAuthMethod: "none",
	})
	f.authServer = as
	return f
}

// URL returns the base URL of the running authorization server.
func (f *FakeAuthServer) URL() string { return f.httpServer.URL }

// Stop shuts down the underlying test server.
func (f *FakeAuthServer) Stop() { f.httpServer.Close() }

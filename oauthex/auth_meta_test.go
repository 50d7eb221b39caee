// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

//go:build mcp_go_client_oauth

package oauthex_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	itesting "github.com/mcp-toolkit/go-engine/internal/testing"
	"github.com/mcp-toolkit/go-engine/oauthex"
)

func TestAuthMetaParse(t *testing.T) {
	// Verify that we parse Google's auth server metadata.
	data, err := os.ReadFile(filepath.FromSlash("testdata/google-auth-meta.json"))
	if err != nil {
		t.Fatal(err)
	}
	var a oauthex.AuthServerMeta
	if err := json.Unmarshal(data, &a); err != nil {
		t.Fatal(err)
	}
	// Spot check.
	if g, w := a.Issuer, "https://accounts.google.com"; g != w {
		t.Errorf("got %q, want %q", g, w)
	}
}

func TestGetAuthServerMetaRequirePKCE(t *testing.T) {
	ctx := context.Background()

	// Start a fake OAuth 2.1 authorization server that advertises PKCE
	// (S256) at its well-known metadata endpoint.
	srv := itesting.NewFakeAuthServer()
	defer srv.Stop()

	meta, err := oauthex.GetAuthServerMeta(ctx, srv.URL(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if meta == nil {
		t.Fatal("GetAuthServerMeta returned nil metadata")
	}
	var hasS256 bool
	for _, m := range meta.CodeChallengeMethodsSupported {
		if m == "S256" {
			hasS256 = true
		}
	}
	if !hasS256 {
		t.Errorf("code_challenge_methods_supported = %v, want S256 present", meta.CodeChallengeMethodsSupported)
	}
}

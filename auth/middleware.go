// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// This file implements the resource-server half of MCP authorization:
// bearer token verification middleware, per
// https://modelcontextprotocol.io/specification/2025-06-18/basic/authorization
// and the protected resource metadata handler from RFC 9728.

package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/mcp-toolkit/go-engine/oauthex"
)

// ErrInvalidToken is returned by a [TokenVerifier] when the presented
// token is malformed, unknown, or otherwise unacceptable.
var ErrInvalidToken = errors.New("invalid token")

// ErrOAuth is returned by a [TokenVerifier] to indicate that token
// verification itself failed as an OAuth protocol error (for example, the
// introspection endpoint rejected the request), as distinct from the
// token being invalid. It is reported to the client as 400 Bad Request
// rather than 401 Unauthorized.
var ErrOAuth = errors.New("oauth error")

// TokenInfo describes a verified bearer token.
type TokenInfo struct {
	// Scopes granted to the token.
	Scopes []string
	// Expiration is when the token expires. The zero value is treated as
	// "never presented an expiration", which [RequireBearerToken] rejects.
	Expiration time.Time
	// UserID identifies the resource owner the token was issued to, if
	// known.
	UserID string
}

// TokenVerifier validates a bearer token extracted from an incoming
// request and returns the information it carries. Implementations
// typically call a remote introspection endpoint or validate a JWT
// locally against the authorization server's JWKS.
type TokenVerifier func(ctx context.Context, token string, req *http.Request) (*TokenInfo, error)

// RequireBearerTokenOptions are options to [RequireBearerToken].
type RequireBearerTokenOptions struct {
	// Scopes that must all be present on the token for the request to be
	// allowed through. If empty, any valid token is accepted.
	Scopes []string

	// ResourceMetadataURL, if set, is advertised in the WWW-Authenticate
	// header of 401 and 403 responses as the resource_metadata parameter,
	// per RFC 9728 section 5.1, so that clients can discover how to
	// obtain a token for this resource.
	ResourceMetadataURL string
}

// RequireBearerToken returns middleware that verifies the Authorization
// header of incoming requests using verifier, rejecting requests that
// lack a valid bearer token or the required scopes.
func RequireBearerToken(verifier TokenVerifier, opts *RequireBearerTokenOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, msg, code := verify(r, verifier, opts)
			if code != 0 {
				if opts != nil && opts.ResourceMetadataURL != "" && (code == http.StatusUnauthorized || code == http.StatusForbidden) {
					w.Header().Set("WWW-Authenticate", "Bearer resource_metadata="+opts.ResourceMetadataURL)
				}
				http.Error(w, msg, code)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// verify extracts and validates the bearer token from r, returning the
// verified token info, or a non-empty message and non-zero HTTP status
// code on failure.
func verify(r *http.Request, verifier TokenVerifier, opts *RequireBearerTokenOptions) (*TokenInfo, string, int) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return nil, "no bearer token", http.StatusUnauthorized
	}

	info, err := verifier(r.Context(), token, r)
	if err != nil {
		if errors.Is(err, ErrOAuth) {
			return nil, "oauth error", http.StatusBadRequest
		}
		return nil, "invalid token", http.StatusUnauthorized
	}
	if info.Expiration.IsZero() {
		return nil, "token missing expiration", http.StatusUnauthorized
	}
	if info.Expiration.Before(time.Now()) {
		return nil, "token expired", http.StatusUnauthorized
	}
	if opts != nil {
		for _, want := range opts.Scopes {
			if !hasScope(info.Scopes, want) {
				return nil, "insufficient scope", http.StatusForbidden
			}
		}
	}
	return info, "", 0
}

func hasScope(scopes []string, want string) bool {
	for _, s := range scopes {
		if s == want {
			return true
		}
	}
	return false
}

// ProtectedResourceMetadataHandler returns an http.Handler that serves
// metadata as an RFC 9728 protected resource metadata document, for
// mounting at /.well-known/oauth-protected-resource.
func ProtectedResourceMetadataHandler(metadata *oauthex.ProtectedResourceMetadata) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		if err := json.NewEncoder(w).Encode(metadata); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
}

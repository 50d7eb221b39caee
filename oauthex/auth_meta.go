// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// This file implements discovery of OAuth 2.0 Authorization Server
// Metadata (RFC 8414) and Dynamic Client Registration (RFC 7591), plus
// parsing of WWW-Authenticate challenges (RFC 7235/7231 Bearer usage),
// as required by the MCP authorization specification.

//go:build mcp_go_client_oauth

package oauthex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"path"
	"slices"
	"strings"

	"github.com/mcp-toolkit/go-engine/internal/util"
)

// wellKnownAuthServerPaths are tried in order, the first per RFC 8414 and
// the second as an OpenID Connect discovery fallback used by some
// authorization servers that predate RFC 8414.
var wellKnownAuthServerPaths = []string{
	"/.well-known/oauth-authorization-server",
	"/.well-known/openid-configuration",
}

// GetAuthServerMeta retrieves the authorization server metadata for the
// server identified by issuer. It returns (nil, nil), not an error, if no
// well-known metadata document could be found, so that callers can fall
// back to the predefined endpoints described in the 2025-03-26 version of
// the MCP authorization spec.
//
// If metadata is found but does not advertise PKCE with S256, an error is
// returned: MCP requires PKCE for all authorization code flows.
func GetAuthServerMeta(ctx context.Context, issuer string, c *http.Client) (_ *AuthServerMeta, err error) {
	defer util.Wrapf(&err, "GetAuthServerMeta(%q)", issuer)

	if err := checkURLScheme(issuer); err != nil {
		return nil, err
	}
	u, err := url.Parse(issuer)
	if err != nil {
		return nil, err
	}

	for _, wellKnown := range wellKnownAuthServerPaths {
		metaURL := *u
		metaURL.Path = path.Join(wellKnown, u.Path)
		asm, err := getJSON[AuthServerMeta](ctx, c, metaURL.String(), 1<<20)
		if err != nil {
			log.Printf("fetching auth server metadata from %q: %v", metaURL.String(), err)
			continue
		}
		if asm.Issuer == "" {
			asm.Issuer = issuer
		}
		if !slices.Contains(asm.CodeChallengeMethodsSupported, "S256") {
			return nil, fmt.Errorf("authorization server %q does not support PKCE with S256", issuer)
		}
		return asm, nil
	}
	return nil, nil
}

// RegisterClient performs Dynamic Client Registration against endpoint,
// per RFC 7591.
func RegisterClient(ctx context.Context, endpoint string, meta *ClientRegistrationMetadata, c *http.Client) (_ *ClientRegistrationResponse, err error) {
	defer util.Wrapf(&err, "RegisterClient(%q)", endpoint)
	if c == nil {
		c = http.DefaultClient
	}
	body, err := json.Marshal(meta)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
		return nil, fmt.Errorf("registration failed with status %s: %s", resp.Status, data)
	}
	var out ClientRegistrationResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding registration response: %w", err)
	}
	return &out, nil
}

// getJSON issues a GET request to url and decodes the JSON response body
// as a T, reading no more than maxBytes.
func getJSON[T any](ctx context.Context, c *http.Client, url string, maxBytes int64) (*T, error) {
	if c == nil {
		c = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	var v T
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBytes)).Decode(&v); err != nil {
		return nil, fmt.Errorf("decoding %q: %w", url, err)
	}
	return &v, nil
}

// checkURLScheme requires rawURL to use HTTPS, except for loopback
// addresses used in local development and testing.
func checkURLScheme(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}
	if u.Scheme == "https" {
		return nil
	}
	if u.Scheme == "http" && util.IsLoopback(u.Host) {
		return nil
	}
	return fmt.Errorf("URL %q must use HTTPS", rawURL)
}

// A challenge is one parsed WWW-Authenticate challenge, per RFC 7235
// section 2.1.
type challenge struct {
	Scheme string
	Params map[string]string
}

// ParseWWWAuthenticate parses one or more WWW-Authenticate header values
// into a list of challenges. Each element of headers is expected to hold
// a single challenge, which is how Go's net/http exposes repeated
// headers; that is sufficient for the Bearer challenges MCP servers send.
func ParseWWWAuthenticate(headers []string) ([]challenge, error) {
	var cs []challenge
	for _, h := range headers {
		c, err := parseChallenge(h)
		if err != nil {
			return nil, err
		}
		cs = append(cs, c)
	}
	return cs, nil
}

func parseChallenge(h string) (challenge, error) {
	h = strings.TrimSpace(h)
	if h == "" {
		return challenge{}, fmt.Errorf("empty WWW-Authenticate header")
	}
	scheme, rest, ok := strings.Cut(h, " ")
	c := challenge{Scheme: strings.ToLower(scheme), Params: map[string]string{}}
	if !ok {
		return c, nil
	}
	for _, part := range splitChallengeParams(rest) {
		k, v, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		k = strings.TrimSpace(k)
		v = strings.Trim(strings.TrimSpace(v), `"`)
		c.Params[k] = v
	}
	return c, nil
}

// splitChallengeParams splits a comma-separated auth-param list, respecting
// commas inside quoted strings.
func splitChallengeParams(s string) []string {
	var parts []string
	var cur strings.Builder
	inQuotes := false
	for _, r := range s {
		switch {
		case r == '"':
			inQuotes = !inQuotes
			cur.WriteRune(r)
		case r == ',' && !inQuotes:
			parts = append(parts, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	if cur.Len() > 0 {
		parts = append(parts, cur.String())
	}
	return parts
}

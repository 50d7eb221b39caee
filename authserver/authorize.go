// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package authserver

import (
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"
)

// AuthorizeHandler serves the authorization endpoint, GET /authorize. On
// success it redirects the user agent to the client's redirect_uri with
// an authorization code; on failure, to the same URI with an OAuth error,
// per RFC 6749 section 4.1.2.1, or directly as an HTTP error if the
// redirect_uri itself could not be validated.
//
// Since this package has no notion of an authenticated end user, the
// authorization is granted immediately: callers that need a consent
// screen should put one in front of this handler and supply the
// resulting user id via r.URL.Query().Get("user_id"), or wrap the
// handler to inject it into the request.
func (s *Server) AuthorizeHandler() http.Handler {
	return s.wrap(s.handleAuthorize, http.MethodGet)
}

func (s *Server) handleAuthorize(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	clientID := q.Get("client_id")
	redirectURI := q.Get("redirect_uri")

	client, ok := s.client(clientID)
	if !ok {
		http.Error(w, "unknown client_id", http.StatusBadRequest)
		return
	}
	if redirectURI == "" || !client.allowsRedirect(redirectURI) {
		http.Error(w, "invalid or unregistered redirect_uri", http.StatusBadRequest)
		return
	}
	redirect, err := url.Parse(redirectURI)
	if err != nil {
		http.Error(w, "invalid redirect_uri", http.StatusBadRequest)
		return
	}

	fail := func(code, desc string) {
		rv := *redirect
		vals := rv.Query()
		vals.Set("error", code)
		if desc != "" {
			vals.Set("error_description", desc)
		}
		if state := q.Get("state"); state != "" {
			vals.Set("state", state)
		}
		rv.RawQuery = vals.Encode()
		http.Redirect(w, r, rv.String(), http.StatusFound)
	}

	if q.Get("response_type") != "code" {
		fail("unsupported_response_type", "only the code response type is supported")
		return
	}
	if !client.supportsGrant("authorization_code") {
		fail("unauthorized_client", "client is not authorized to use the authorization_code grant")
		return
	}

	codeChallenge := q.Get("code_challenge")
	if codeChallenge == "" || q.Get("code_challenge_method") != "S256" {
		fail("invalid_request", "PKCE with S256 is required")
		return
	}

	resource := q.Get("resource")
	if err := s.checkResource(resource); err != nil {
		fail("invalid_target", err.Error())
		return
	}

	code := newRandomID(32)
	s.mu.Lock()
	s.codes[code] = &authCode{
		clientID:      clientID,
		redirectURI:   redirectURI,
		codeChallenge: codeChallenge,
		scope:         q.Get("scope"),
		resource:      resource,
		userID:        cmpOr(q.Get("user_id"), "anonymous"),
		expiresAt:     time.Now().Add(s.cfg.AuthCodeTTL),
	}
	s.mu.Unlock()

	rv := *redirect
	vals := rv.Query()
	vals.Set("code", code)
	if state := q.Get("state"); state != "" {
		vals.Set("state", state)
	}
	rv.RawQuery = vals.Encode()
	http.Redirect(w, r, rv.String(), http.StatusFound)
}

// checkResource validates an RFC 8707 resource indicator against the
// server's configuration. An empty resource is an error only when
// RequireResourceIndicator is set.
func (s *Server) checkResource(resource string) error {
	if resource == "" {
		if s.cfg.RequireResourceIndicator {
			return fmt.Errorf("a resource parameter is required")
		}
		return nil
	}
	u, err := url.Parse(resource)
	if err != nil || u.Scheme == "" || u.Fragment != "" {
		return fmt.Errorf("resource must be an absolute URI with no fragment")
	}
	if len(s.cfg.AllowedResources) > 0 && !slices.Contains(s.cfg.AllowedResources, resource) {
		return fmt.Errorf("resource %q is not permitted", resource)
	}
	return nil
}

func cmpOr(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

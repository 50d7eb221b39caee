// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package authserver

import (
	"encoding/json"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

// TokenHandler serves the token endpoint, POST /token, supporting the
// authorization_code, refresh_token, and client_credentials grants.
func (s *Server) TokenHandler() http.Handler {
	return s.wrap(s.handleToken, http.MethodPost)
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
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

	switch grant := r.Form.Get("grant_type"); grant {
	case "authorization_code":
		s.exchangeAuthorizationCode(w, r, client)
	case "refresh_token":
		s.exchangeRefreshToken(w, r, client)
	case "client_credentials":
		s.exchangeClientCredentials(w, r, client)
	default:
		oauthError(w, http.StatusBadRequest, "unsupported_grant_type", grant)
	}
}

func clientCredentialsFromRequest(r *http.Request) (id, secret string, ok bool) {
	if id, secret, ok := r.BasicAuth(); ok {
		return id, secret, true
	}
	id = r.Form.Get("client_id")
	if id == "" {
		return "", "", false
	}
	return id, r.Form.Get("client_secret"), true
}

func (s *Server) exchangeAuthorizationCode(w http.ResponseWriter, r *http.Request, client *ClientInfo) {
	code := r.Form.Get("code")
	verifier := r.Form.Get("code_verifier")
	redirectURI := r.Form.Get("redirect_uri")

	s.mu.Lock()
	ac, ok := s.codes[code]
	if ok {
		delete(s.codes, code) // codes are single-use
	}
	s.mu.Unlock()

	if !ok || ac.clientID != client.ID {
		oauthError(w, http.StatusBadRequest, "invalid_grant", "unknown or already-used authorization code")
		return
	}
	if time.Now().After(ac.expiresAt) {
		oauthError(w, http.StatusBadRequest, "invalid_grant", "authorization code expired")
		return
	}
	if ac.redirectURI != redirectURI {
		oauthError(w, http.StatusBadRequest, "invalid_grant", "redirect_uri does not match the authorization request")
		return
	}
	if verifier == "" || oauth2.S256ChallengeFromVerifier(verifier) != ac.codeChallenge {
		oauthError(w, http.StatusBadRequest, "invalid_grant", "PKCE verification failed")
		return
	}

	resource := r.Form.Get("resource")
	if resource == "" {
		resource = ac.resource
	} else if resource != ac.resource {
		oauthError(w, http.StatusBadRequest, "invalid_target", "resource does not match the authorization request")
		return
	}

	s.issueTokens(w, client.ID, ac.userID, ac.scope, resource)
}

func (s *Server) exchangeRefreshToken(w http.ResponseWriter, r *http.Request, client *ClientInfo) {
	rt := r.Form.Get("refresh_token")

	s.mu.Lock()
	info, ok := s.refreshTokens[rt]
	s.mu.Unlock()

	if !ok || info.clientID != client.ID {
		oauthError(w, http.StatusBadRequest, "invalid_grant", "unknown refresh token")
		return
	}
	if time.Now().After(info.expiresAt) {
		s.mu.Lock()
		delete(s.refreshTokens, rt)
		s.mu.Unlock()
		oauthError(w, http.StatusBadRequest, "invalid_grant", "refresh token expired")
		return
	}

	resource := r.Form.Get("resource")
	if resource == "" {
		resource = info.resource
	} else if resource != info.resource {
		oauthError(w, http.StatusBadRequest, "invalid_target", "resource does not match the original grant")
		return
	}

	s.issueTokens(w, client.ID, info.userID, info.scope, resource)
}

func (s *Server) exchangeClientCredentials(w http.ResponseWriter, r *http.Request, client *ClientInfo) {
	if !client.supportsGrant("client_credentials") {
		oauthError(w, http.StatusBadRequest, "unauthorized_client", "client is not authorized to use the client_credentials grant")
		return
	}
	resource := r.Form.Get("resource")
	if err := s.checkResource(resource); err != nil {
		oauthError(w, http.StatusBadRequest, "invalid_target", err.Error())
		return
	}
	scope := r.Form.Get("scope")
	access, exp, err := s.signAccessToken(client.ID, client.ID, scope, resource)
	if err != nil {
		oauthError(w, http.StatusInternalServerError, "server_error", "")
		return
	}
	// RFC 6749 section 4.4.3: refresh tokens should not be issued for the
	// client_credentials grant, since the client can simply request a new
	// access token using its own credentials.
	writeTokenResponse(w, access, "", exp, scope)
}

// issueTokens signs a new access token and mints an opaque refresh token
// bound to the same grant.
func (s *Server) issueTokens(w http.ResponseWriter, clientID, userID, scope, resource string) {
	access, exp, err := s.signAccessToken(clientID, userID, scope, resource)
	if err != nil {
		oauthError(w, http.StatusInternalServerError, "server_error", "")
		return
	}
	refresh := newRandomID(32)
	s.mu.Lock()
	s.refreshTokens[refresh] = &refreshTokenInfo{
		clientID:  clientID,
		scope:     scope,
		resource:  resource,
		userID:    userID,
		expiresAt: time.Now().Add(s.cfg.RefreshTokenTTL),
	}
	s.mu.Unlock()
	writeTokenResponse(w, access, refresh, exp, scope)
}

func writeTokenResponse(w http.ResponseWriter, accessToken, refreshToken string, exp time.Time, scope string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	resp := map[string]any{
		"access_token": accessToken,
		"token_type":   "Bearer",
		"expires_in":   int(time.Until(exp).Seconds()),
	}
	if refreshToken != "" {
		resp["refresh_token"] = refreshToken
	}
	if scope != "" {
		resp["scope"] = scope
	}
	json.NewEncoder(w).Encode(resp)
}

// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package authserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"golang.org/x/oauth2"
)

func newTestServer(t *testing.T) (*Server, *ClientInfo) {
	t.Helper()
	s, err := New(Config{
		Issuer:          "https://auth.example",
		SigningKey:      []byte("test-signing-key"),
		ScopesSupported: []string{"read", "write"},
	})
	if err != nil {
		t.Fatal(err)
	}
	client := &ClientInfo{
		ID:           "client-1",
		Secret:       "client-1-secret",
		RedirectURIs: []string{"https://app.example/callback"},
		GrantTypes:   []string{"authorization_code", "refresh_token", "client_credentials"},
	}
	s.RegisterClient(client)
	return s, client
}

// authorize drives the /authorize endpoint and returns the issued code.
func authorize(t *testing.T, s *Server, client *ClientInfo, codeChallenge, resource string) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/authorize?"+url.Values{
		"response_type":         {"code"},
		"client_id":             {client.ID},
		"redirect_uri":          {client.RedirectURIs[0]},
		"code_challenge":        {codeChallenge},
		"code_challenge_method": {"S256"},
		"resource":              {resource},
		"state":                 {"xyz"},
	}.Encode(), nil)
	rw := httptest.NewRecorder()
	s.AuthorizeHandler().ServeHTTP(rw, req)

	if rw.Code != http.StatusFound {
		t.Fatalf("authorize: got status %d, body %q", rw.Code, rw.Body.String())
	}
	loc, err := url.Parse(rw.Header().Get("Location"))
	if err != nil {
		t.Fatalf("authorize: bad Location: %v", err)
	}
	if got := loc.Query().Get("state"); got != "xyz" {
		t.Fatalf("authorize: state = %q, want xyz", got)
	}
	code := loc.Query().Get("code")
	if code == "" {
		t.Fatalf("authorize: no code in redirect %q", rw.Header().Get("Location"))
	}
	return code
}

func TestAuthorizationCodeFlow(t *testing.T) {
	s, client := newTestServer(t)
	const resource = "https://mcp.example/server"

	verifier := oauth2.GenerateVerifier()
	challenge := oauth2.S256ChallengeFromVerifier(verifier)
	code := authorize(t, s, client, challenge, resource)

	form := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"redirect_uri":  {client.RedirectURIs[0]},
		"code_verifier": {verifier},
		"resource":      {resource},
	}
	req := httptest.NewRequest(http.MethodPost, "/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(client.ID, client.Secret)
	rw := httptest.NewRecorder()
	s.TokenHandler().ServeHTTP(rw, req)

	if rw.Code != http.StatusOK {
		t.Fatalf("token: got status %d, body %q", rw.Code, rw.Body.String())
	}
	var tokResp struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		TokenType    string `json:"token_type"`
	}
	if err := json.Unmarshal(rw.Body.Bytes(), &tokResp); err != nil {
		t.Fatal(err)
	}
	if tokResp.AccessToken == "" || tokResp.RefreshToken == "" {
		t.Fatalf("token response missing tokens: %+v", tokResp)
	}
	if tokResp.TokenType != "Bearer" {
		t.Fatalf("token_type = %q, want Bearer", tokResp.TokenType)
	}

	claims, err := s.VerifyAccessToken(tokResp.AccessToken)
	if err != nil {
		t.Fatalf("VerifyAccessToken: %v", err)
	}
	if aud, _ := claims["aud"].(string); aud != resource {
		t.Fatalf("aud claim = %q, want %q", aud, resource)
	}

	// Reusing the same code must fail: codes are single-use.
	rw2 := httptest.NewRecorder()
	req2 := httptest.NewRequest(http.MethodPost, "/token", strings.NewReader(form.Encode()))
	req2.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req2.SetBasicAuth(client.ID, client.Secret)
	s.TokenHandler().ServeHTTP(rw2, req2)
	if rw2.Code != http.StatusBadRequest {
		t.Fatalf("reused code: got status %d, want 400", rw2.Code)
	}

	// The refresh token should mint a fresh access token bound to the
	// same resource.
	refreshForm := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {tokResp.RefreshToken},
	}
	rw3 := httptest.NewRecorder()
	req3 := httptest.NewRequest(http.MethodPost, "/token", strings.NewReader(refreshForm.Encode()))
	req3.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req3.SetBasicAuth(client.ID, client.Secret)
	s.TokenHandler().ServeHTTP(rw3, req3)
	if rw3.Code != http.StatusOK {
		t.Fatalf("refresh: got status %d, body %q", rw3.Code, rw3.Body.String())
	}
}

func TestAuthorizeRequiresPKCE(t *testing.T) {
	s, client := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/authorize?"+url.Values{
		"response_type": {"code"},
		"client_id":     {client.ID},
		"redirect_uri":  {client.RedirectURIs[0]},
	}.Encode(), nil)
	rw := httptest.NewRecorder()
	s.AuthorizeHandler().ServeHTTP(rw, req)

	if rw.Code != http.StatusFound {
		t.Fatalf("got status %d, want 302", rw.Code)
	}
	loc, _ := url.Parse(rw.Header().Get("Location"))
	if got := loc.Query().Get("error"); got != "invalid_request" {
		t.Fatalf("error = %q, want invalid_request", got)
	}
}

func TestTokenWrongPKCEVerifier(t *testing.T) {
	s, client := newTestServer(t)
	verifier := oauth2.GenerateVerifier()
	challenge := oauth2.S256ChallengeFromVerifier(verifier)
	code := authorize(t, s, client, challenge, "")

	form := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"redirect_uri":  {client.RedirectURIs[0]},
		"code_verifier": {"not-the-right-verifier-not-the-right-verifier"},
	}
	req := httptest.NewRequest(http.MethodPost, "/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(client.ID, client.Secret)
	rw := httptest.NewRecorder()
	s.TokenHandler().ServeHTTP(rw, req)

	if rw.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want 400", rw.Code)
	}
	var body struct{ Error string `json:"error"` }
	json.Unmarshal(rw.Body.Bytes(), &body)
	if body.Error != "invalid_grant" {
		t.Fatalf("error = %q, want invalid_grant", body.Error)
	}
}

func TestClientCredentialsGrant(t *testing.T) {
	s, client := newTestServer(t)
	form := url.Values{
		"grant_type": {"client_credentials"},
		"scope":      {"read"},
	}
	req := httptest.NewRequest(http.MethodPost, "/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(client.ID, client.Secret)
	rw := httptest.NewRecorder()
	s.TokenHandler().ServeHTTP(rw, req)

	if rw.Code != http.StatusOK {
		t.Fatalf("got status %d, body %q", rw.Code, rw.Body.String())
	}
	var tokResp struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	json.Unmarshal(rw.Body.Bytes(), &tokResp)
	if tokResp.AccessToken == "" {
		t.Fatal("missing access_token")
	}
	if tokResp.RefreshToken != "" {
		t.Fatal("client_credentials grant must not issue a refresh token")
	}
}

func TestDynamicClientRegistration(t *testing.T) {
	s, _ := newTestServer(t)
	body := `{"redirect_uris":["https://new-app.example/cb"],"client_name":"New App"}`
	req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(body))
	rw := httptest.NewRecorder()
	s.RegisterHandler().ServeHTTP(rw, req)

	if rw.Code != http.StatusCreated {
		t.Fatalf("got status %d, body %q", rw.Code, rw.Body.String())
	}
	var resp struct {
		ClientID     string `json:"client_id"`
		ClientSecret string `json:"client_secret"`
	}
	json.Unmarshal(rw.Body.Bytes(), &resp)
	if resp.ClientID == "" || resp.ClientSecret == "" {
		t.Fatalf("missing credentials in response: %s", rw.Body.String())
	}
	if _, ok := s.client(resp.ClientID); !ok {
		t.Fatal("registered client not found in server")
	}
}

func TestRevoke(t *testing.T) {
	s, client := newTestServer(t)
	verifier := oauth2.GenerateVerifier()
	challenge := oauth2.S256ChallengeFromVerifier(verifier)
	code := authorize(t, s, client, challenge, "")

	form := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"redirect_uri":  {client.RedirectURIs[0]},
		"code_verifier": {verifier},
	}
	req := httptest.NewRequest(http.MethodPost, "/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(client.ID, client.Secret)
	rw := httptest.NewRecorder()
	s.TokenHandler().ServeHTTP(rw, req)
	var tokResp struct {
		RefreshToken string `json:"refresh_token"`
	}
	json.Unmarshal(rw.Body.Bytes(), &tokResp)

	revokeForm := url.Values{"token": {tokResp.RefreshToken}}
	rreq := httptest.NewRequest(http.MethodPost, "/revoke", strings.NewReader(revokeForm.Encode()))
	rreq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rreq.SetBasicAuth(client.ID, client.Secret)
	rrw := httptest.NewRecorder()
	s.RevokeHandler().ServeHTTP(rrw, rreq)
	if rrw.Code != http.StatusOK {
		t.Fatalf("revoke: got status %d", rrw.Code)
	}

	s.mu.Lock()
	_, stillThere := s.refreshTokens[tokResp.RefreshToken]
	s.mu.Unlock()
	if stillThere {
		t.Fatal("refresh token was not revoked")
	}
}

func TestResourceIndicatorMismatchRejected(t *testing.T) {
	s, client := newTestServer(t)
	verifier := oauth2.GenerateVerifier()
	challenge := oauth2.S256ChallengeFromVerifier(verifier)
	code := authorize(t, s, client, challenge, "https://mcp.example/server-a")

	form := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"redirect_uri":  {client.RedirectURIs[0]},
		"code_verifier": {verifier},
		"resource":      {"https://mcp.example/server-b"},
	}
	req := httptest.NewRequest(http.MethodPost, "/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(client.ID, client.Secret)
	rw := httptest.NewRecorder()
	s.TokenHandler().ServeHTTP(rw, req)

	if rw.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want 400", rw.Code)
	}
	var body struct{ Error string `json:"error"` }
	json.Unmarshal(rw.Body.Bytes(), &body)
	if body.Error != "invalid_target" {
		t.Fatalf("error = %q, want invalid_target", body.Error)
	}
}

func TestMetadataEndpoints(t *testing.T) {
	s, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/.well-known/oauth-authorization-server", nil)
	rw := httptest.NewRecorder()
	s.AuthServerMetadataHandler().ServeHTTP(rw, req)
	if rw.Code != http.StatusOK {
		t.Fatalf("got status %d", rw.Code)
	}
	var meta struct {
		Issuer                        string   `json:"issuer"`
		CodeChallengeMethodsSupported []string `json:"code_challenge_methods_supported"`
	}
	json.Unmarshal(rw.Body.Bytes(), &meta)
	if meta.Issuer != "https://auth.example" {
		t.Fatalf("issuer = %q", meta.Issuer)
	}
	if len(meta.CodeChallengeMethodsSupported) != 1 || meta.CodeChallengeMethodsSupported[0] != "S256" {
		t.Fatalf("code_challenge_methods_supported = %v, want [S256]", meta.CodeChallengeMethodsSupported)
	}

	req2 := httptest.NewRequest(http.MethodGet, "/.well-known/oauth-protected-resource", nil)
	rw2 := httptest.NewRecorder()
	s.ProtectedResourceMetadataHandler("https://mcp.example/server", []string{"read"}).ServeHTTP(rw2, req2)
	if rw2.Code != http.StatusOK {
		t.Fatalf("got status %d", rw2.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/token", nil)
	rw := httptest.NewRecorder()
	s.TokenHandler().ServeHTTP(rw, req)
	if rw.Code != http.StatusNoContent {
		t.Fatalf("got status %d, want 204", rw.Code)
	}
	if rw.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatal("missing CORS header")
	}
}

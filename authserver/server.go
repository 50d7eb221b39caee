// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package authserver implements a minimal OAuth 2.1 authorization server
// for gating access to MCP servers over HTTP: authorization code (with
// mandatory PKCE), refresh token, and client credentials grants; dynamic
// client registration (RFC 7591); token revocation (RFC 7009); and the
// metadata documents described by RFC 8414 and RFC 9728.
//
// State is held in memory behind a single mutex, matching the reference
// implementations the rest of this module uses for sessions and tasks;
// there is no pluggable storage backend, and state does not survive a
// restart.
package authserver

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/time/rate"
)

// ClientInfo describes a registered OAuth client.
type ClientInfo struct {
	ID                      string
	Secret                  string // empty for public clients
	RedirectURIs            []string
	GrantTypes              []string
	TokenEndpointAuthMethod string
}

func (c *ClientInfo) supportsGrant(grant string) bool {
	if len(c.GrantTypes) == 0 {
		return grant == "authorization_code" || grant == "refresh_token"
	}
	for _, g := range c.GrantTypes {
		if g == grant {
			return true
		}
	}
	return false
}

func (c *ClientInfo) allowsRedirect(uri string) bool {
	for _, u := range c.RedirectURIs {
		if u == uri {
			return true
		}
	}
	return false
}

type authCode struct {
	clientID      string
	redirectURI   string
	codeChallenge string
	scope         string
	resource      string
	userID        string
	expiresAt     time.Time
}

type refreshTokenInfo struct {
	clientID  string
	scope     string
	resource  string
	userID    string
	expiresAt time.Time
}

// Config configures a Server.
type Config struct {
	// Issuer is this server's issuer URL, used both as the "iss" claim of
	// issued tokens and to compute the well-known metadata endpoint URLs.
	Issuer string

	// SigningKey signs issued JWTs with HS256. Required.
	SigningKey []byte

	// AccessTokenTTL is the lifetime of issued access tokens. Defaults to
	// one hour.
	AccessTokenTTL time.Duration
	// RefreshTokenTTL is the lifetime of issued refresh tokens. Defaults
	// to 30 days.
	RefreshTokenTTL time.Duration
	// AuthCodeTTL is the lifetime of an unredeemed authorization code.
	// Defaults to one minute, per RFC 6749 section 4.1.2 guidance.
	AuthCodeTTL time.Duration

	// ScopesSupported lists the scopes this server is willing to grant.
	ScopesSupported []string

	// RequireResourceIndicator rejects authorize requests and
	// client_credentials token requests that omit the "resource" parameter
	// (RFC 8707). MCP requires it. Authorization code and refresh token
	// exchanges that omit it reuse the resource bound to the original grant.
	RequireResourceIndicator bool
	// AllowedResources, if non-empty, restricts the resource indicator to
	// this set (exact match). An empty list accepts any resource value
	// syntactically valid as an absolute URI.
	AllowedResources []string

	// RateLimit and RateBurst configure the token-bucket rate limiter
	// shared across all endpoints. Defaults to 10 req/s, burst 20.
	RateLimit rate.Limit
	RateBurst int
}

func (c *Config) setDefaults() {
	if c.AccessTokenTTL == 0 {
		c.AccessTokenTTL = time.Hour
	}
	if c.RefreshTokenTTL == 0 {
		c.RefreshTokenTTL = 30 * 24 * time.Hour
	}
	if c.AuthCodeTTL == 0 {
		c.AuthCodeTTL = time.Minute
	}
	if c.RateLimit == 0 {
		c.RateLimit = 10
	}
	if c.RateBurst == 0 {
		c.RateBurst = 20
	}
}

// Server is an in-memory OAuth 2.1 authorization server.
type Server struct {
	cfg Config

	mu            sync.Mutex
	clients       map[string]*ClientInfo
	codes         map[string]*authCode
	refreshTokens map[string]*refreshTokenInfo

	limiter *rate.Limiter
}

// New creates a Server from cfg. Issuer and SigningKey are required.
func New(cfg Config) (*Server, error) {
	if cfg.Issuer == "" {
		return nil, errors.New("authserver: Issuer is required")
	}
	if len(cfg.SigningKey) == 0 {
		return nil, errors.New("authserver: SigningKey is required")
	}
	cfg.setDefaults()
	return &Server{
		cfg:           cfg,
		clients:       make(map[string]*ClientInfo),
		codes:         make(map[string]*authCode),
		refreshTokens: make(map[string]*refreshTokenInfo),
		limiter:       rate.NewLimiter(cfg.RateLimit, cfg.RateBurst),
	}, nil
}

// RegisterClient adds a preregistered client, for deployments that do not
// use the dynamic client registration endpoint.
func (s *Server) RegisterClient(c *ClientInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[c.ID] = c
}

func (s *Server) client(id string) (*ClientInfo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.clients[id]
	return c, ok
}

func newRandomID(nbytes int) string {
	b := make([]byte, nbytes)
	if _, err := rand.Read(b); err != nil {
		panic(err) // crypto/rand.Read only fails if the OS entropy source is broken
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

func (s *Server) signAccessToken(clientID, userID, scope, resource string) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(s.cfg.AccessTokenTTL)
	claims := jwt.MapClaims{
		"iss":       s.cfg.Issuer,
		"sub":       userID,
		"client_id": clientID,
		"scope":     scope,
		"iat":       now.Unix(),
		"exp":       exp.Unix(),
	}
	if resource != "" {
		claims["aud"] = resource
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.cfg.SigningKey)
	return tok, exp, err
}

// VerifyAccessToken parses and validates an access token issued by this
// server, returning its claims. It is suitable for use as the core of an
// [github.com/mcp-toolkit/go-engine/auth.TokenVerifier].
func (s *Server) VerifyAccessToken(tokenString string) (jwt.MapClaims, error) {
	tok, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.cfg.SigningKey, nil
	}, jwt.WithIssuer(s.cfg.Issuer), jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, err
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok || !tok.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

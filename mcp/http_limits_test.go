// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package mcp

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestStreamableHTTPHandlerMaxBodyBytes(t *testing.T) {
	s := NewServer(&Implementation{Name: "limits-server", Version: "v1.0.0"}, nil)
	handler := NewStreamableHTTPHandler(func(*http.Request) *Server { return s }, &StreamableHTTPOptions{MaxBodyBytes: 16})
	defer handler.Close()
	httpServer := httptest.NewServer(handler)
	defer httpServer.Close()

	req, err := http.NewRequest(http.MethodPost, httpServer.URL, bytes.NewReader(bytes.Repeat([]byte("a"), 17)))
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	req.Header.Set("Accept", "application/json, text/event-stream")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	defer resp.Body.Close()
	if got, want := resp.StatusCode, http.StatusRequestEntityTooLarge; got != want {
		t.Fatalf("status code = %d, want %d", got, want)
	}
}

func TestStreamableHTTPHandlerMaxBodyBytesDefault(t *testing.T) {
	s := NewServer(&Implementation{Name: "limits-server", Version: "v1.0.0"}, nil)
	handler := NewStreamableHTTPHandler(func(*http.Request) *Server { return s }, nil)
	defer handler.Close()
	httpServer := httptest.NewServer(handler)
	defer httpServer.Close()

	req, err := http.NewRequest(http.MethodPost, httpServer.URL, bytes.NewReader(bytes.Repeat([]byte("a"), int(DefaultMaxBodyBytes)+1)))
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	req.Header.Set("Accept", "application/json, text/event-stream")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	defer resp.Body.Close()
	if got, want := resp.StatusCode, http.StatusRequestEntityTooLarge; got != want {
		t.Fatalf("status code = %d, want %d", got, want)
	}
}

func TestStreamableHTTPHandlerMaxBodyBytesUnlimited(t *testing.T) {
	s := NewServer(&Implementation{Name: "limits-server", Version: "v1.0.0"}, nil)
	handler := NewStreamableHTTPHandler(func(*http.Request) *Server { return s }, &StreamableHTTPOptions{MaxBodyBytes: -1})
	defer handler.Close()
	httpServer := httptest.NewServer(handler)
	defer httpServer.Close()

	// A malformed-but-large body should fail on parsing, not on size, once
	// the limit is disabled.
	req, err := http.NewRequest(http.MethodPost, httpServer.URL, bytes.NewReader(bytes.Repeat([]byte("a"), int(DefaultMaxBodyBytes)+1)))
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	req.Header.Set("Accept", "application/json, text/event-stream")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusRequestEntityTooLarge {
		t.Errorf("status code = %d, want anything but %d when MaxBodyBytes is disabled", resp.StatusCode, http.StatusRequestEntityTooLarge)
	}
}

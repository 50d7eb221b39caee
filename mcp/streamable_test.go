// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package mcp

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mcp-toolkit/go-engine/jsonrpc"
)

// streamableRoundTrip drives a single raw JSON-RPC call through a
// StreamableHTTPHandler, as a client would: encode the call, POST it
// with the Accept headers the handler requires, and return the
// response along with whatever SSE events came back on the stream.
func streamableRoundTrip(t *testing.T, url, sessionID string, id jsonrpc.ID, method string, params any) (*http.Response, []event) {
	t.Helper()
	req, err := jsonrpc.NewCall(id, method, params)
	if err != nil {
		t.Fatalf("NewCall: %v", err)
	}
	data, err := jsonrpc.EncodeMessage(req)
	if err != nil {
		t.Fatalf("EncodeMessage: %v", err)
	}
	httpReq, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json, text/event-stream")
	if sessionID != "" {
		httpReq.Header.Set("Mcp-Session-Id", sessionID)
	}
	resp, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		t.Fatalf("POST %s: %v", method, err)
	}
	defer resp.Body.Close()

	var events []event
	if resp.StatusCode == http.StatusOK {
		for evt, err := range scanEvents(resp.Body) {
			if err != nil {
				break
			}
			events = append(events, evt)
		}
	}
	return resp, events
}

// progressArgs and progressTool give the task progress notifications to
// emit before returning, so a test can observe more than one SSE event
// on a single logical stream.
type progressArgs struct {
	Text string `json:"text" mcp:"the text to echo back after reporting progress"`
}

func progressTool(ctx context.Context, req *ServerRequest[*CallToolParams], args progressArgs) (*CallToolResult, struct{}, error) {
	for i := 1; i <= 2; i++ {
		if err := req.Progress(ctx, "working", float64(i), 2); err != nil && err != ErrNoProgressToken {
			return nil, struct{}{}, err
		}
	}
	return &CallToolResult{Content: []Content{&TextContent{Text: args.Text}}}, struct{}{}, nil
}

func newStreamableTestServer(t *testing.T, opts *StreamableHTTPOptions) (*httptest.Server, *StreamableHTTPHandler) {
	t.Helper()
	s := NewServer(&Implementation{Name: "streamable-server", Version: "v1.0.0"}, nil)
	if err := AddTool(s, &Tool{Name: "progress-echo", Description: "echo with progress"}, progressTool); err != nil {
		t.Fatalf("AddTool: %v", err)
	}
	h := NewStreamableHTTPHandler(func(*http.Request) *Server { return s }, opts)
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	t.Cleanup(h.Close)
	return srv, h
}

// TestStreamableSessionExpiry404 checks that a session which goes idle
// past its timeout is evicted, and that subsequent requests carrying
// its Mcp-Session-Id are rejected with 404, per the transport's
// session-recovery contract.
func TestStreamableSessionExpiry404(t *testing.T) {
	srv, _ := newStreamableTestServer(t, &StreamableHTTPOptions{SessionTimeout: 20 * time.Millisecond})

	resp, _ := streamableRoundTrip(t, srv.URL, "", jsonrpc.Int64ID(1), methodInitialize, &InitializeParams{
		Capabilities:    &ClientCapabilities{},
		ClientInfo:      &Implementation{Name: "streamable-client", Version: "v1.0.0"},
		ProtocolVersion: latestProtocolVersion,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("initialize status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	sessionID := resp.Header.Get("Mcp-Session-Id")
	if sessionID == "" {
		t.Fatal("initialize response carried no Mcp-Session-Id")
	}

	time.Sleep(60 * time.Millisecond)

	getReq, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	getReq.Header.Set("Accept", "text/event-stream")
	getReq.Header.Set("Mcp-Session-Id", sessionID)
	resp, err = http.DefaultClient.Do(getReq)
	if err != nil {
		t.Fatalf("GET after expiry: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("GET after expiry status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}

// TestStreamableResumableSSE drives a tools/call that emits progress
// notifications before its result, captures the event IDs on that
// logical stream, then reconnects with Last-Event-ID set to a middle
// event and checks that only the messages strictly after it replay.
func TestStreamableResumableSSE(t *testing.T) {
	srv, _ := newStreamableTestServer(t, nil)

	resp, _ := streamableRoundTrip(t, srv.URL, "", jsonrpc.Int64ID(1), methodInitialize, &InitializeParams{
		Capabilities:    &ClientCapabilities{},
		ClientInfo:      &Implementation{Name: "streamable-client", Version: "v1.0.0"},
		ProtocolVersion: latestProtocolVersion,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("initialize status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	sessionID := resp.Header.Get("Mcp-Session-Id")
	if sessionID == "" {
		t.Fatal("initialize response carried no Mcp-Session-Id")
	}

	callParams := &CallToolParams{Name: "progress-echo", Arguments: map[string]any{"text": "hello"}}
	callParams.SetProgressToken("tok-1")
	resp, events := streamableRoundTrip(t, srv.URL, sessionID, jsonrpc.Int64ID(2), methodCallTool, callParams)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("tools/call status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	// Two progress notifications, then the call's own response.
	if len(events) != 3 {
		t.Fatalf("got %d events on initial stream, want 3: %+v", len(events), events)
	}
	for _, evt := range events {
		if evt.id == "" {
			t.Fatalf("event missing id: %+v", evt)
		}
	}
	resumeFrom := events[0].id // resume after the first progress notification

	getReq, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	getReq.Header.Set("Accept", "text/event-stream")
	getReq.Header.Set("Mcp-Session-Id", sessionID)
	getReq.Header.Set("Last-Event-ID", resumeFrom)
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	getReq = getReq.WithContext(ctx)

	resp, err = http.DefaultClient.Do(getReq)
	if err != nil {
		t.Fatalf("resumed GET: %v", err)
	}
	defer resp.Body.Close()

	var replayed []event
	for evt, err := range scanEvents(resp.Body) {
		if err != nil {
			break
		}
		replayed = append(replayed, evt)
	}
	if len(replayed) != 2 {
		t.Fatalf("got %d replayed events, want 2 (the events after %q): %+v", len(replayed), resumeFrom, replayed)
	}
	if replayed[0].id == resumeFrom {
		t.Errorf("replay included the resume point itself (id %q), want strictly after", resumeFrom)
	}
}

// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package mcp

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mcp-toolkit/go-engine/jsonrpc"
	"golang.org/x/tools/txtar"
)

// A conformance fixture drives a single tools/call round trip against a
// real in-process server and checks the text content that comes back.
// Fixtures are txtar archives under testdata/conformance, each holding an
// "args" section (the raw JSON arguments to send) and a "want" section
// (the expected echoed text). A call that fails, or that returns an error
// result, fails the fixture.
type conformanceFixture struct {
	name string
	args string
	want string
}

func loadConformanceFixtures(t *testing.T, dir string) []conformanceFixture {
	t.Helper()
	var fixtures []conformanceFixture
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".txtar") {
			return nil
		}
		arch, err := txtar.ParseFile(path)
		if err != nil {
			return err
		}
		f := conformanceFixture{name: strings.TrimSuffix(filepath.Base(path), ".txtar")}
		for _, file := range arch.Files {
			switch file.Name {
			case "args":
				f.args = strings.TrimRight(string(file.Data), "\n")
			case "want":
				f.want = strings.TrimRight(string(file.Data), "\n")
			}
		}
		fixtures = append(fixtures, f)
		return nil
	})
	if err != nil {
		t.Fatalf("loading conformance fixtures from %s: %v", dir, err)
	}
	if len(fixtures) == 0 {
		t.Fatalf("no conformance fixtures found in %s", dir)
	}
	return fixtures
}

// echoArgs and echoTool give the conformance fixtures something
// deterministic to call: the server hands back exactly the text it
// was given, so a mismatch can only come from the transport, codec, or
// protocol engine, not from tool-specific logic.
type echoArgs struct {
	Text string `json:"text" mcp:"the text to echo back"`
}

func echoTool(_ context.Context, _ *ServerRequest[*CallToolParams], args echoArgs) (*CallToolResult, struct{}, error) {
	return &CallToolResult{Content: []Content{&TextContent{Text: args.Text}}}, struct{}{}, nil
}

func TestToolCallConformance(t *testing.T) {
	fixtures := loadConformanceFixtures(t, filepath.Join("testdata", "conformance"))

	ctx := context.Background()
	s := NewServer(&Implementation{Name: "conformance-server", Version: "v1.0.0"}, nil)
	if err := AddTool(s, &Tool{Name: "echo", Description: "echo the given text"}, echoTool); err != nil {
		t.Fatalf("AddTool: %v", err)
	}

	cTransport, sTransport := NewInMemoryTransports()
	if _, err := s.Connect(ctx, sTransport); err != nil {
		t.Fatalf("server Connect: %v", err)
	}
	cs, err := NewClient(&Implementation{Name: "conformance-client", Version: "v1.0.0"}, nil).Connect(ctx, cTransport)
	if err != nil {
		t.Fatalf("client Connect: %v", err)
	}
	defer cs.Close()

	for _, f := range fixtures {
		t.Run(f.name, func(t *testing.T) {
			res, err := cs.CallTool(ctx, &CallToolParams{
				Name:      "echo",
				Arguments: jsonRawMessage(f.args),
			})
			if err != nil {
				t.Fatalf("CallTool: %v", err)
			}
			if res.IsError {
				t.Fatalf("unexpected tool error result: %v", res.Content)
			}
			var got string
			if len(res.Content) > 0 {
				if tc, ok := res.Content[0].(*TextContent); ok {
					got = tc.Text
				}
			}
			if got != f.want {
				t.Errorf("got %q, want %q", got, f.want)
			}
		})
	}
}

// TestUnknownToolConformance exercises the seed scenario where a client
// calls a tool the server never registered: the failure must surface as
// a JSON-RPC InvalidParams error, not as a CallToolResult with IsError set.
func TestUnknownToolConformance(t *testing.T) {
	ctx := context.Background()
	s := NewServer(&Implementation{Name: "conformance-server", Version: "v1.0.0"}, nil)

	cTransport, sTransport := NewInMemoryTransports()
	if _, err := s.Connect(ctx, sTransport); err != nil {
		t.Fatalf("server Connect: %v", err)
	}
	cs, err := NewClient(&Implementation{Name: "conformance-client", Version: "v1.0.0"}, nil).Connect(ctx, cTransport)
	if err != nil {
		t.Fatalf("client Connect: %v", err)
	}
	defer cs.Close()

	_, err = cs.CallTool(ctx, &CallToolParams{Name: "does-not-exist"})
	if err == nil {
		t.Fatal("CallTool succeeded, want InvalidParams error")
	}
	var rpcErr *jsonrpc.Error
	if !errors.As(err, &rpcErr) {
		t.Fatalf("error %v is not a *jsonrpc.Error", err)
	}
	if rpcErr.Code != jsonrpc.CodeInvalidParams {
		t.Errorf("error code = %d, want %d", rpcErr.Code, jsonrpc.CodeInvalidParams)
	}
}

func jsonRawMessage(s string) any {
	if s == "" {
		return nil
	}
	return rawJSON(s)
}

// rawJSON lets a fixture's literal JSON text pass through as Arguments
// without a second marshal/unmarshal round trip changing its shape.
type rawJSON string

func (r rawJSON) MarshalJSON() ([]byte, error) { return []byte(r), nil }

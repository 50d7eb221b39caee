// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package mcp

import (
	"context"

	"github.com/mcp-toolkit/go-engine/jsonrpc"
)

// A Transport connects to a peer and returns a [Connection] that can
// exchange JSON-RPC messages with it.
//
// Implementations: [StdioTransport] (client), [CommandTransport]
// (client, spawns a subprocess), [InMemoryTransport] (both ends, used
// for testing and in-process composition), [StreamableClientTransport]
// / [StreamableServerTransport] (HTTP, client and server side), and
// [WebSocketClientTransport] / [WebSocketServerTransport].
type Transport interface {
	// Connect establishes the connection and returns it.
	//
	// Connect must be idempotent with respect to any resources it
	// allocates: calling it more than once on the same Transport value
	// is a programming error for client transports that dial out, but
	// server-bound transports (like StreamableServerTransport) may be
	// connected once per incoming session.
	Connect(ctx context.Context) (Connection, error)
}

// Connection is a logical bidirectional JSON-RPC connection: a single
// peer relationship over which requests, responses and notifications
// flow.
//
// Read and Write may be called concurrently with each other. Read is
// called by a single goroutine at a time; Write may be called from
// several goroutines at once.
type Connection interface {
	// Read reads the next message from the connection. It blocks until a
	// message arrives, the context is cancelled, or the connection is
	// closed, in which case it returns io.EOF. A streamable HTTP client
	// connection that was closed by a transport failure returns that
	// failure instead.
	Read(ctx context.Context) (jsonrpc.Message, error)

	// Write sends a message over the connection. Writing to a closed
	// connection returns an error; it never panics.
	Write(ctx context.Context, msg jsonrpc.Message) error

	// Close closes the connection. It is idempotent: calling Close more
	// than once returns the result of the first call and has no further
	// effect. After Close returns, Read returns io.EOF and Write returns
	// an error.
	Close() error

	// SessionID returns an opaque, transport-assigned identifier for this
	// connection, or "" if the transport does not assign one (e.g.
	// stdio, where there is exactly one connection).
	SessionID() string
}

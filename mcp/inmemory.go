// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package mcp

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/mcp-toolkit/go-engine/jsonrpc"
)

// InMemoryTransport connects a client directly to a server within the
// same process, with no serialization overhead. Messages sent before
// the peer end calls Connect are queued rather than dropped, matching
// the semantics of the out-of-process transports where a peer may
// start writing before the other side has finished establishing its
// connection.
//
// Use NewInMemoryTransports to obtain a connected pair.
type InMemoryTransport struct {
	conn *inMemoryConn
}

// NewInMemoryTransports returns two Transports, each connected to the
// other: messages written on one are read from the other.
func NewInMemoryTransports() (*InMemoryTransport, *InMemoryTransport) {
	c1 := newInMemoryConn()
	c2 := newInMemoryConn()
	c1.peer, c2.peer = c2, c1
	return &InMemoryTransport{conn: c1}, &InMemoryTransport{conn: c2}
}

func (t *InMemoryTransport) Connect(ctx context.Context) (Connection, error) {
	return t.conn, nil
}

// inMemoryConn implements Connection by delivering writes directly
// into its peer's inbox channel.
type inMemoryConn struct {
	peer *inMemoryConn

	inbox chan jsonrpc.Message

	closeOnce sync.Once
	closed    chan struct{}
}

func newInMemoryConn() *inMemoryConn {
	return &inMemoryConn{
		inbox:  make(chan jsonrpc.Message, 64),
		closed: make(chan struct{}),
	}
}

func (c *inMemoryConn) Read(ctx context.Context) (jsonrpc.Message, error) {
	select {
	case msg, ok := <-c.inbox:
		if !ok {
			return nil, io.EOF
		}
		return msg, nil
	case <-c.closed:
		return nil, io.EOF
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *inMemoryConn) Write(ctx context.Context, msg jsonrpc.Message) error {
	select {
	case <-c.closed:
		return errors.New("write on closed connection")
	default:
	}
	select {
	case c.peer.inbox <- msg:
		return nil
	case <-c.closed:
		return errors.New("write on closed connection")
	case <-c.peer.closed:
		return errors.New("peer connection closed")
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *inMemoryConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

func (c *inMemoryConn) SessionID() string { return "" }

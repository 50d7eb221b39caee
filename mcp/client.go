// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// This file implements the client half of the protocol engine: a
// Client that connects to a server over any Transport, performs the
// initialize handshake, and issues tools/prompts/resources requests.

package mcp

import (
	"context"
	"fmt"
	"log/slog"
)

// A SamplingHandler services sampling/createMessage requests from a
// connected server, asking the embedding application's LLM to
// generate a message.
type SamplingHandler func(ctx context.Context, req *CreateMessageRequest) (*CreateMessageResult, error)

// An ElicitationHandler services elicitation/create requests from a
// connected server, collecting structured input from the user.
type ElicitationHandler func(ctx context.Context, req *ElicitRequest) (*ElicitResult, error)

// A RootsListHandler returns the client's current list of filesystem
// roots in response to roots/list.
type RootsListHandler func(ctx context.Context, req *ListRootsRequest) (*ListRootsResult, error)

// ClientOptions configure a Client.
type ClientOptions struct {
	// CreateMessageHandler services sampling requests from the server.
	// If nil, sampling/createMessage is rejected with methodNotFound.
	CreateMessageHandler SamplingHandler
	// ElicitationHandler services elicitation requests from the server.
	ElicitationHandler ElicitationHandler
	// RootsListHandler supplies the client's filesystem roots.
	RootsListHandler RootsListHandler
	// LoggingMessageHandler receives notifications/message entries sent
	// by the server once SetLevel has been called.
	LoggingMessageHandler func(ctx context.Context, params *LoggingMessageParams)
	// ToolListChangedHandler, PromptListChangedHandler and
	// ResourceListChangedHandler are invoked when the server announces a
	// change to its primitive lists.
	ToolListChangedHandler     func(ctx context.Context)
	PromptListChangedHandler   func(ctx context.Context)
	ResourceListChangedHandler func(ctx context.Context)
	// ResourceUpdatedHandler is invoked when a subscribed resource changes.
	ResourceUpdatedHandler func(ctx context.Context, uri string)
	// Logger receives structured diagnostics. If nil, slog.Default() is used.
	Logger *slog.Logger
}

func (o *ClientOptions) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

// Client is an MCP client: it connects to a single server over a
// Transport and exchanges requests and notifications with it.
type Client struct {
	impl *Implementation
	opts ClientOptions
}

// NewClient creates a Client with the given implementation identity.
// If opts is nil, defaults are used.
func NewClient(impl *Implementation, opts *ClientOptions) *Client {
	if opts == nil {
		opts = &ClientOptions{}
	}
	return &Client{impl: impl, opts: *opts}
}

func (c *Client) capabilities() *ClientCapabilities {
	caps := &ClientCapabilities{}
	if c.opts.CreateMessageHandler != nil {
		caps.Sampling = &SamplingCapabilities{}
	}
	if c.opts.ElicitationHandler != nil {
		caps.Elicitation = &ElicitationCapabilities{}
	}
	if c.opts.RootsListHandler != nil {
		caps.RootsV2 = &RootCapabilities{}
	}
	caps.Tasks = &TaskCapabilities{List: &struct{}{}, Cancel: &struct{}{}}
	return caps
}

// Connect establishes a connection over t and performs the initialize
// handshake, returning a ready-to-use ClientSession.
func (c *Client) Connect(ctx context.Context, t Transport) (*ClientSession, error) {
	conn, err := t.Connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("connecting transport: %w", err)
	}
	sess := newClientSession(c, conn)
	go sess.run(ctx)

	res := &InitializeResult{}
	params := &InitializeParams{
		Capabilities:    c.capabilities(),
		ClientInfo:      c.impl,
		ProtocolVersion: latestProtocolVersion,
	}
	if err := sess.call(ctx, methodInitialize, params, res); err != nil {
		sess.Close()
		return nil, fmt.Errorf("initialize: %w", err)
	}
	sess.serverCap = res.Capabilities
	sess.serverImp = res.ServerInfo
	if err := sess.sendNotification(ctx, notificationInitialized, &InitializedParams{}); err != nil {
		sess.Close()
		return nil, fmt.Errorf("notifications/initialized: %w", err)
	}
	return sess, nil
}

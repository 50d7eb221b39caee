// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// This file holds the core request/result vocabulary shared by every
// method: the _meta bag, the Params/Result marker interfaces, and the
// generic request wrappers that carry a live session alongside typed
// parameters.

package mcp

import "github.com/mcp-toolkit/go-engine/jsonrpc"

// Meta holds the protocol's reserved "_meta" field: free-form,
// protocol-level metadata attached to any request or result.
//
// Meta is embedded anonymously in every Params and Result type, which
// promotes GetMeta and SetMeta onto them without per-type boilerplate.
type Meta map[string]any

// GetMeta returns the metadata map, which may be nil.
func (m Meta) GetMeta() Meta { return m }

// SetMeta replaces the metadata map.
func (m *Meta) SetMeta(v Meta) { *m = v }

// progressTokenKey is the well-known _meta key used to correlate
// progress notifications with the request that requested them.
const progressTokenKey = "progressToken"

// hasMeta is satisfied by any Params or Result through the promoted
// Meta methods.
type hasMeta interface {
	GetMeta() Meta
	SetMeta(Meta)
}

func getProgressToken(p hasMeta) any {
	return p.GetMeta()[progressTokenKey]
}

func setProgressToken(p hasMeta, t any) {
	m := p.GetMeta()
	if m == nil {
		m = Meta{}
	}
	m[progressTokenKey] = t
	p.SetMeta(m)
}

// Params is implemented by every request and notification parameter
// type. The isParams marker prevents arbitrary types outside this
// package from satisfying the interface.
type Params interface {
	isParams()
	GetMeta() Meta
	SetMeta(Meta)
}

// Result is implemented by every result type returned from a request.
type Result interface {
	isResult()
	GetMeta() Meta
	SetMeta(Meta)
}

// ServerRequest wraps the parameters of a request received by a
// server, together with the session it arrived on. Handlers for
// client-to-server methods are registered as
// func(context.Context, *ServerRequest[P]) (Result, error).
type ServerRequest[P Params] struct {
	// Session is the session the request arrived on.
	Session *ServerSession
	// Params holds the typed request parameters.
	Params P

	// relatedID is the JSON-RPC id of the underlying request, used to
	// correlate progress notifications and cancellation.
	relatedID jsonrpc.ID
}

func newServerRequest[P Params](session *ServerSession, params P) *ServerRequest[P] {
	return &ServerRequest[P]{Session: session, Params: params}
}

// ClientRequest wraps the parameters of a request received by a
// client, together with the session (connection to a single server)
// it arrived on.
type ClientRequest[P Params] struct {
	// Session is the session the request arrived on.
	Session *ClientSession
	// Params holds the typed request parameters.
	Params P

	relatedID jsonrpc.ID
}

func newClientRequest[P Params](session *ClientSession, params P) *ClientRequest[P] {
	return &ClientRequest[P]{Session: session, Params: params}
}

// JSONRPCMessage, JSONRPCID, JSONRPCRequest and JSONRPCResponse alias
// the wire types of the jsonrpc package, so that transports and the
// protocol engine can refer to them without an explicit import.
type (
	JSONRPCMessage  = jsonrpc.Message
	JSONRPCID       = jsonrpc.ID
	JSONRPCRequest  = jsonrpc.Request
	JSONRPCResponse = jsonrpc.Response
)

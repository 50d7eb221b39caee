// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package jsonrpc2

import "errors"

// Sentinel errors for the standard JSON-RPC 2.0 error conditions.
// Handlers and transports wrap these with fmt.Errorf("%w: ...", ...) so
// that callers can classify failures with errors.Is while still getting
// a specific message; the protocol engine maps them back to the
// corresponding numeric code when writing a response.
var (
	ErrParse          = errors.New("parse error")
	ErrInvalidRequest = errors.New("invalid request")
	ErrMethodNotFound = errors.New("method not found")
	ErrInvalidParams  = errors.New("invalid params")
	ErrInternal       = errors.New("internal error")
)

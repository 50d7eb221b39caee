// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package jsonrpc implements the JSON-RPC 2.0 message envelope used by
// the Model Context Protocol: typed request/response/notification
// values, strict-mode decoding, and a line-delimited read buffer for
// stream transports.
package jsonrpc

import (
	"errors"
	"fmt"

	json "github.com/segmentio/encoding/json"

	"github.com/mcp-toolkit/go-engine/internal/jsonrpc2"
)

const protocolVersion = "2.0"

// ID is a JSON-RPC request identifier: a string, an integer, or absent
// (the zero value). It is comparable, so IDs can be used as map keys.
type ID struct {
	value any
}

// StringID creates a string-valued request ID.
func StringID(s string) ID { return ID{value: s} }

// Int64ID creates an integer-valued request ID.
func Int64ID(i int64) ID { return ID{value: i} }

// MakeID coerces a value decoded from JSON (nil, float64 or string)
// into an ID.
func MakeID(v any) (ID, error) {
	switch v := v.(type) {
	case nil:
		return ID{}, nil
	case float64:
		return Int64ID(int64(v)), nil
	case string:
		return StringID(v), nil
	case int64:
		return Int64ID(v), nil
	}
	return ID{}, fmt.Errorf("invalid request ID type %T", v)
}

// IsValid reports whether the ID was set; the zero ID is invalid and
// denotes a notification.
func (id ID) IsValid() bool { return id.value != nil }

// Raw returns the underlying string, int64, or nil value.
func (id ID) Raw() any { return id.value }

// String renders the ID for logging.
func (id ID) String() string {
	if id.value == nil {
		return "<nil>"
	}
	return fmt.Sprint(id.value)
}

func (id ID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.value)
}

func (id *ID) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	made, err := MakeID(v)
	if err != nil {
		return err
	}
	*id = made
	return nil
}

// Message is the closed set of values that can appear on the wire:
// *Request and *Response.
type Message interface {
	marshal(to *wireEnvelope)
}

// Request is either a call (ID.IsValid()) or a notification.
type Request struct {
	ID     ID
	Method string
	Params json.RawMessage
}

// IsCall reports whether the request expects a response.
func (r *Request) IsCall() bool { return r.ID.IsValid() }

func (r *Request) marshal(to *wireEnvelope) {
	to.ID = r.ID
	to.Method = r.Method
	to.Params = r.Params
}

// Response replies to a call Request with the same ID.
type Response struct {
	ID     ID
	Result json.RawMessage
	Error  error
}

func (r *Response) marshal(to *wireEnvelope) {
	to.ID = r.ID
	to.Result = r.Result
	to.Error = asError(r.Error)
}

// NewCall builds a *Request for a call with the given id, method and
// params (marshaled to JSON).
func NewCall(id ID, method string, params any) (*Request, error) {
	raw, err := marshalParams(params)
	if err != nil {
		return nil, err
	}
	return &Request{ID: id, Method: method, Params: raw}, nil
}

// NewNotification builds a *Request with no ID.
func NewNotification(method string, params any) (*Request, error) {
	raw, err := marshalParams(params)
	if err != nil {
		return nil, err
	}
	return &Request{Method: method, Params: raw}, nil
}

// NewResponse builds a *Response to the call with the given id.
func NewResponse(id ID, result any, rerr error) (*Response, error) {
	if rerr != nil {
		return &Response{ID: id, Error: rerr}, nil
	}
	raw, err := marshalParams(result)
	if err != nil {
		return nil, err
	}
	return &Response{ID: id, Result: raw}, nil
}

func marshalParams(v any) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(data), nil
}

// wireEnvelope is the single on-the-wire struct shared by requests and
// responses, following the JSON-RPC 2.0 spec's flat message shape.
type wireEnvelope struct {
	VersionTag string          `json:"jsonrpc"`
	ID         ID              `json:"id,omitempty"`
	Method     string          `json:"method,omitempty"`
	Params     json.RawMessage `json:"params,omitempty"`
	Result     json.RawMessage `json:"result,omitempty"`
	Error      *Error          `json:"error,omitempty"`
}

// EncodeMessage renders a Message to its wire bytes.
func EncodeMessage(msg Message) ([]byte, error) {
	env := wireEnvelope{VersionTag: protocolVersion}
	msg.marshal(&env)
	data, err := json.Marshal(&env)
	if err != nil {
		return nil, fmt.Errorf("encoding jsonrpc message: %w", err)
	}
	return data, nil
}

// DecodeMessage parses wire bytes into a *Request or *Response,
// applying strict field-case and duplicate-key validation.
func DecodeMessage(data []byte) (Message, error) {
	var env wireEnvelope
	if err := jsonrpc2.StrictUnmarshal(data, &env); err != nil {
		return nil, &Error{Code: CodeParseError, Message: err.Error()}
	}
	if env.VersionTag != "" && env.VersionTag != protocolVersion {
		return nil, &Error{Code: CodeInvalidRequest, Message: fmt.Sprintf("unsupported jsonrpc version %q", env.VersionTag)}
	}
	if env.Method != "" {
		return &Request{ID: env.ID, Method: env.Method, Params: env.Params}, nil
	}
	if !env.ID.IsValid() {
		return nil, &Error{Code: CodeInvalidRequest, Message: "message is neither a request nor a response"}
	}
	resp := &Response{ID: env.ID, Result: env.Result}
	if env.Error != nil {
		resp.Error = env.Error
	}
	return resp, nil
}

func asError(err error) *Error {
	if err == nil {
		return nil
	}
	if e, ok := err.(*Error); ok {
		return e
	}
	code := int64(CodeInternalError)
	switch {
	case errors.Is(err, jsonrpc2.ErrParse):
		code = CodeParseError
	case errors.Is(err, jsonrpc2.ErrInvalidRequest):
		code = CodeInvalidRequest
	case errors.Is(err, jsonrpc2.ErrMethodNotFound):
		code = CodeMethodNotFound
	case errors.Is(err, jsonrpc2.ErrInvalidParams):
		code = CodeInvalidParams
	}
	return &Error{Code: code, Message: err.Error()}
}

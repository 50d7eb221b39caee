// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// This file implements the server half of the protocol engine: the
// Server type that holds registered primitives and accepts
// connections, and the method table that routes an incoming
// client-to-server request or notification to its handler.

package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	internaljson "github.com/mcp-toolkit/go-engine/internal/json"
	"github.com/mcp-toolkit/go-engine/internal/jsonrpc2"
	"github.com/mcp-toolkit/go-engine/jsonrpc"
)

const latestProtocolVersion = "2025-06-18"

// ServerOptions configure a Server.
type ServerOptions struct {
	// Instructions are advertised to clients during initialization.
	Instructions string
	// PageSize bounds the number of items returned from a single
	// list call; callers paginate with the returned cursor.
	PageSize int
	// SessionTimeout is not read by Server or by any transport; the idle
	// timeout of streamable HTTP sessions is set by
	// StreamableHTTPOptions.SessionTimeout.
	SessionTimeout time.Duration
	// SessionStateStore persists session state so that a session can be
	// resumed by a different server process, e.g. behind a load balancer.
	// If nil, an in-memory store is used and sessions cannot survive a
	// restart.
	SessionStateStore ServerSessionStateStore
	// Logger receives structured diagnostics. If nil, slog.Default() is used.
	Logger *slog.Logger
	// Capabilities, if non-nil, overrides the capabilities computed from
	// registered primitives. Most callers should leave this nil.
	Capabilities *ServerCapabilities
}

func (o *ServerOptions) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

// Server is an MCP server: a set of registered tools, prompts,
// resources and resource templates, servable over any Transport.
type Server struct {
	impl *Implementation
	opts ServerOptions

	mu                sync.Mutex
	tools             *registry[*serverTool]
	prompts           *registry[*registeredPrompt]
	resources         *registry[*registeredResource]
	resourceTemplates *registry[*registeredResourceTemplate]
	resourceSubs      *resourceSubscriptions
	tasks             *serverTasks

	sessionsMu sync.Mutex
	sessions   map[*ServerSession]struct{}
}

// NewServer creates a Server with the given implementation identity.
// If opts is nil, defaults are used.
func NewServer(impl *Implementation, opts *ServerOptions) *Server {
	if opts == nil {
		opts = &ServerOptions{}
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 1000
	}
	if opts.SessionStateStore == nil {
		opts.SessionStateStore = NewMemoryServerSessionStateStore()
	}
	s := &Server{
		impl:     impl,
		opts:     *opts,
		tasks:    newServerTasks(),
		sessions: make(map[*ServerSession]struct{}),
	}
	s.tools = newRegistry[*serverTool](s.notifyToolListChanged)
	s.prompts = newRegistry[*registeredPrompt](s.notifyPromptListChanged)
	s.resources = newRegistry[*registeredResource](s.notifyResourceListChanged)
	s.resourceTemplates = newRegistry[*registeredResourceTemplate](s.notifyResourceListChanged)
	return s
}

// capabilities computes the server's advertised capabilities from its
// registered primitives, unless ServerOptions.Capabilities was set
// explicitly.
func (s *Server) capabilities() *ServerCapabilities {
	if s.opts.Capabilities != nil {
		return s.opts.Capabilities
	}
	caps := &ServerCapabilities{
		Logging:   &LoggingCapabilities{},
		Tools:     &ToolCapabilities{ListChanged: true},
		Prompts:   &PromptCapabilities{ListChanged: true},
		Resources: &ResourceCapabilities{ListChanged: true, Subscribe: true},
	}
	caps.Tasks = &TaskCapabilities{
		Requests: &TaskRequestCapabilities{
			Tools: &TaskToolsCapabilities{Call: &struct{}{}},
		},
		List:   &struct{}{},
		Cancel: &struct{}{},
	}
	return caps
}

// AddTool registers a tool built from a raw JSON Schema and a handler
// that receives already-validated arguments.
func (s *Server) AddTool(t *Tool, h ToolHandler) error {
	st, err := newServerTool(t, h)
	if err != nil {
		return fmt.Errorf("adding tool %q: %w", t.Name, err)
	}
	s.tools.add(t.Name, st)
	return nil
}

// AddTool registers a tool whose input and output schemas are
// inferred from the Go types In and Out.
func AddTool[In, Out any](s *Server, t *Tool, h TypedToolHandler[In, Out]) error {
	st, err := newTypedServerTool(t, h)
	if err != nil {
		return fmt.Errorf("adding tool %q: %w", t.Name, err)
	}
	s.tools.add(t.Name, st)
	return nil
}

// RemoveTools unregisters the named tools. Unknown names are ignored.
func (s *Server) RemoveTools(names ...string) { s.tools.remove(names...) }

// SetToolEnabled enables or disables a registered tool without
// removing it from the registry.
func (s *Server) SetToolEnabled(name string, enabled bool) bool {
	return s.tools.setEnabled(name, enabled)
}

func (s *Server) notifyToolListChanged() {
	s.broadcast(context.Background(), notificationToolListChanged, &ToolListChangedParams{})
}

func (s *Server) notifyPromptListChanged() {
	s.broadcast(context.Background(), notificationPromptListChanged, &PromptListChangedParams{})
}

func (s *Server) notifyResourceListChanged() {
	s.broadcast(context.Background(), notificationResourceListChanged, &ResourceListChangedParams{})
}

// broadcast sends a notification to every currently connected session.
func (s *Server) broadcast(ctx context.Context, method string, params Params) {
	s.sessionsMu.Lock()
	sessions := make([]*ServerSession, 0, len(s.sessions))
	for sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.sessionsMu.Unlock()
	for _, sess := range sessions {
		_ = sess.sendNotification(ctx, method, params)
	}
}

// Connect accepts a connection from transport, negotiates
// capabilities, and serves requests on it until the connection is
// closed or ctx is done. The returned ServerSession can be used to
// send server-initiated requests and notifications; Connect continues
// serving in the background until the session ends.
func (s *Server) Connect(ctx context.Context, t Transport) (*ServerSession, error) {
	conn, err := t.Connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("connecting transport: %w", err)
	}
	sess := newServerSession(s, conn)
	s.sessionsMu.Lock()
	s.sessions[sess] = struct{}{}
	s.sessionsMu.Unlock()

	go func() {
		sess.run(ctx)
		s.sessionsMu.Lock()
		delete(s.sessions, sess)
		s.sessionsMu.Unlock()
		s.subscriptions().removeSession(sess)
		if s.opts.SessionStateStore != nil {
			_ = s.opts.SessionStateStore.Delete(context.Background(), sess.id)
		}
	}()
	return sess, nil
}

// Run is a convenience that calls Connect and then blocks until the
// session's connection is closed, as is typical for a single-client
// transport like stdio.
func (s *Server) Run(ctx context.Context, t Transport) error {
	sess, err := s.Connect(ctx, t)
	if err != nil {
		return err
	}
	<-sess.done
	return sess.closeErr
}

// handleRequest dispatches a single incoming client-to-server request
// and returns its result, or an error to be reported as a JSON-RPC
// error response.
func (s *Server) handleRequest(ctx context.Context, sess *ServerSession, method string, raw json.RawMessage) (Result, error) {
	switch method {
	case methodInitialize:
		return serverHandleCtx(ctx, sess, raw, func() *InitializeParams { return &InitializeParams{} }, sess.handleInitialize)
	case methodPing:
		return serverHandleCtx(ctx, sess, raw, func() *PingParams { return &PingParams{} }, func(_ context.Context, _ *ServerRequest[*PingParams]) (*EmptyResult, error) {
			return &EmptyResult{}, nil
		})
	case methodListTools:
		return serverHandleCtx(ctx, sess, raw, func() *ListToolsParams { return &ListToolsParams{} }, s.listTools)
	case methodCallTool:
		return serverHandleCtx(ctx, sess, raw, func() *CallToolParamsRaw { return &CallToolParamsRaw{} }, s.callToolAny)
	case methodListPrompts:
		return serverHandleCtx(ctx, sess, raw, func() *ListPromptsParams { return &ListPromptsParams{} }, s.listPrompts)
	case methodGetPrompt:
		return serverHandleCtx(ctx, sess, raw, func() *GetPromptParams { return &GetPromptParams{} }, s.getPrompt)
	case methodListResources:
		return serverHandleCtx(ctx, sess, raw, func() *ListResourcesParams { return &ListResourcesParams{} }, s.listResources)
	case methodListResourceTemplates:
		return serverHandleCtx(ctx, sess, raw, func() *ListResourceTemplatesParams { return &ListResourceTemplatesParams{} }, s.listResourceTemplates)
	case methodReadResource:
		return serverHandleCtx(ctx, sess, raw, func() *ReadResourceParams { return &ReadResourceParams{} }, s.readResource)
	case methodSubscribe:
		return serverHandleCtx(ctx, sess, raw, func() *SubscribeParams { return &SubscribeParams{} }, s.subscribe)
	case methodUnsubscribe:
		return serverHandleCtx(ctx, sess, raw, func() *UnsubscribeParams { return &UnsubscribeParams{} }, s.unsubscribe)
	case methodComplete:
		return serverHandleCtx(ctx, sess, raw, func() *CompleteParams { return &CompleteParams{} }, s.complete)
	case methodSetLevel:
		return serverHandleCtx(ctx, sess, raw, func() *SetLoggingLevelParams { return &SetLoggingLevelParams{} }, s.setLevel)
	case methodGetTask:
		return serverHandleCtx(ctx, sess, raw, func() *GetTaskParams { return &GetTaskParams{} }, s.getTask)
	case methodListTasks:
		return serverHandleCtx(ctx, sess, raw, func() *ListTasksParams { return &ListTasksParams{} }, s.listTasks)
	case methodCancelTask:
		return serverHandleCtx(ctx, sess, raw, func() *CancelTaskParams { return &CancelTaskParams{} }, s.cancelTask)
	case methodTaskResult:
		return serverHandleCtx(ctx, sess, raw, func() *TaskResultParams { return &TaskResultParams{} }, s.taskResult)
	default:
		return nil, fmt.Errorf("%w: %q", jsonrpc2.ErrMethodNotFound, method)
	}
}

// handleNotification dispatches a single incoming client-to-server
// notification. Errors are logged, never sent to the peer (a
// notification has no response).
func (s *Server) handleNotification(ctx context.Context, sess *ServerSession, method string, raw json.RawMessage) {
	switch method {
	case notificationInitialized:
		sess.setInitialized()
	case notificationCancelled:
		var p CancelledParams
		if err := internaljson.Unmarshal(raw, &p); err == nil {
			sess.cancelRequest(p.RequestID)
		}
	case notificationRootsListChanged, notificationProgress:
		// No server-side action required beyond acknowledging receipt.
	default:
		s.opts.logger().DebugContext(ctx, "unhandled notification", "method", method)
	}
}

// EmptyResult is returned by methods (like ping) that succeed without
// producing any data.
type EmptyResult struct {
	Meta `json:"_meta,omitempty"`
}

func (*EmptyResult) isResult() {}

// serverHandleCtx adapts a typed handler into the engine's dispatch
// signature, decoding raw into a fresh P and wrapping it in a
// ServerRequest before calling fn.
func serverHandleCtx[P Params, R Result](ctx context.Context, sess *ServerSession, raw json.RawMessage, newParams func() P, fn func(context.Context, *ServerRequest[P]) (R, error)) (Result, error) {
	p := newParams()
	if len(raw) > 0 {
		if err := internaljson.Unmarshal(raw, p); err != nil {
			return nil, &jsonrpc.Error{Code: jsonrpc.CodeInvalidParams, Message: err.Error()}
		}
	}
	res, err := fn(ctx, &ServerRequest[P]{Session: sess, Params: p})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// handleNotify sends req.Params as a notification named method over
// req.Session. It is used both for server-initiated notifications
// (like notifications/tasks/status) built with newServerRequest, and
// is the generic hook tasks_server.go relies on.
func handleNotify[P Params](ctx context.Context, method string, req *ServerRequest[P]) error {
	return req.Session.sendNotification(ctx, method, req.Params)
}

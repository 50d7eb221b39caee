// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// This file implements ServerSession: the server-side half of a live
// connection, responsible for reading client messages off the wire,
// dispatching them, and sending server-initiated requests and
// notifications back to the client.

package mcp

import (
	"context"
	"sync"

	internaljson "github.com/mcp-toolkit/go-engine/internal/json"
	"github.com/mcp-toolkit/go-engine/jsonrpc"
)

// ServerSession represents one connected client, from the server's
// point of view. It is passed to every tool, prompt and resource
// handler as Session, and is the handle used to send
// server-initiated requests (sampling, elicitation, roots/list) and
// notifications (progress, logging, list-changed) back to that client.
type ServerSession struct {
	server *Server
	conn   Connection
	id     string

	initOnce  sync.Once
	initDone  chan struct{}
	initErr   error
	clientCap *ClientCapabilities
	clientImp *Implementation

	logMu    sync.Mutex
	logLevel LoggingLevel

	reqMu    sync.Mutex
	nextID   int64
	pending  map[string]chan *jsonrpc.Response
	inflight map[string]context.CancelFunc

	done     chan struct{}
	closeErr error
}

func newServerSession(s *Server, conn Connection) *ServerSession {
	return &ServerSession{
		server:   s,
		conn:     conn,
		id:       conn.SessionID(),
		initDone: make(chan struct{}),
		pending:  make(map[string]chan *jsonrpc.Response),
		inflight: make(map[string]context.CancelFunc),
		done:     make(chan struct{}),
	}
}

// ID returns the transport-assigned session identifier, or "" for
// transports (like stdio) that don't assign one.
func (sess *ServerSession) ID() string { return sess.id }

// run reads and dispatches messages from the connection until it is
// closed or ctx is done.
func (sess *ServerSession) run(ctx context.Context) {
	defer close(sess.done)
	defer sess.conn.Close()
	for {
		msg, err := sess.conn.Read(ctx)
		if err != nil {
			sess.closeErr = err
			return
		}
		switch m := msg.(type) {
		case *jsonrpc.Request:
			sess.handleIncoming(ctx, m)
		case *jsonrpc.Response:
			sess.handleResponse(m)
		}
	}
}

func (sess *ServerSession) handleIncoming(ctx context.Context, req *jsonrpc.Request) {
	if req.IsCall() {
		reqCtx, cancel := context.WithCancel(ctx)
		reqCtx = context.WithValue(reqCtx, idContextKey{}, req.ID)
		idKey := req.ID.String()
		sess.reqMu.Lock()
		sess.inflight[idKey] = cancel
		sess.reqMu.Unlock()
		go func() {
			defer func() {
				sess.reqMu.Lock()
				delete(sess.inflight, idKey)
				sess.reqMu.Unlock()
				cancel()
			}()
			res, err := sess.server.handleRequest(reqCtx, sess, req.Method, req.Params)
			resp, rerr := jsonrpc.NewResponse(req.ID, res, err)
			if rerr != nil {
				sess.server.opts.logger().Error("encoding response", "error", rerr)
				return
			}
			if werr := sess.conn.Write(ctx, resp); werr != nil {
				sess.server.opts.logger().Error("writing response", "error", werr)
			}
		}()
		return
	}
	sess.server.handleNotification(ctx, sess, req.Method, req.Params)
}

func (sess *ServerSession) handleResponse(resp *jsonrpc.Response) {
	key := resp.ID.String()
	sess.reqMu.Lock()
	ch, ok := sess.pending[key]
	if ok {
		delete(sess.pending, key)
	}
	sess.reqMu.Unlock()
	if ok {
		ch <- resp
	}
}

// cancelRequest cancels the context of the in-flight request with the
// given wire ID, invoked when a notifications/cancelled arrives.
func (sess *ServerSession) cancelRequest(rawID any) {
	id, err := jsonrpc.MakeID(rawID)
	if err != nil {
		return
	}
	key := id.String()
	sess.reqMu.Lock()
	cancel, ok := sess.inflight[key]
	sess.reqMu.Unlock()
	if ok {
		cancel()
	}
}

// setInitialized marks the session ready after notifications/initialized.
func (sess *ServerSession) setInitialized() {
	sess.initOnce.Do(func() { close(sess.initDone) })
}

func (sess *ServerSession) handleInitialize(ctx context.Context, req *InitializeRequest) (*InitializeResult, error) {
	sess.clientCap = req.Params.Capabilities
	sess.clientImp = req.Params.ClientInfo

	if sess.server.opts.SessionStateStore != nil {
		_ = sess.server.opts.SessionStateStore.Save(ctx, sess.id, &ServerSessionState{
			InitializeParams: req.Params,
		})
	}

	return &InitializeResult{
		Capabilities:    sess.server.capabilities(),
		Instructions:    sess.server.opts.Instructions,
		ProtocolVersion: latestProtocolVersion,
		ServerInfo:      sess.server.impl,
	}, nil
}

// sendNotification sends a server-to-client notification. It never
// waits for or expects a response.
func (sess *ServerSession) sendNotification(ctx context.Context, method string, params Params) error {
	n, err := jsonrpc.NewNotification(method, params)
	if err != nil {
		return err
	}
	return sess.conn.Write(ctx, n)
}

// call issues a server-to-client request and blocks for the response.
func (sess *ServerSession) call(ctx context.Context, method string, params Params, result Result) error {
	sess.reqMu.Lock()
	sess.nextID++
	id := jsonrpc.Int64ID(sess.nextID)
	ch := make(chan *jsonrpc.Response, 1)
	sess.pending[id.String()] = ch
	sess.reqMu.Unlock()

	call, err := jsonrpc.NewCall(id, method, params)
	if err != nil {
		return err
	}
	if err := sess.conn.Write(ctx, call); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case resp := <-ch:
		if resp.Error != nil {
			return resp.Error
		}
		if result == nil || len(resp.Result) == 0 {
			return nil
		}
		return internaljson.Unmarshal(resp.Result, result)
	}
}

// NotifyProgress sends a notifications/progress message to the client
// associated with this session.
func (sess *ServerSession) NotifyProgress(ctx context.Context, params *ProgressNotificationParams) error {
	return sess.sendNotification(ctx, notificationProgress, params)
}

// Log sends a notifications/message log entry to the client, if the
// client's requested logging level permits it.
func (sess *ServerSession) Log(ctx context.Context, params *LoggingMessageParams) error {
	sess.logMu.Lock()
	level := sess.logLevel
	sess.logMu.Unlock()
	if level != "" && logLevelRank(params.Level) < logLevelRank(level) {
		return nil
	}
	return sess.sendNotification(ctx, notificationLoggingMessage, params)
}

var logLevels = []LoggingLevel{"debug", "info", "notice", "warning", "error", "critical", "alert", "emergency"}

func logLevelRank(l LoggingLevel) int {
	for i, v := range logLevels {
		if v == l {
			return i
		}
	}
	return 0
}

func (s *Server) setLevel(_ context.Context, req *ServerRequest[*SetLoggingLevelParams]) (*EmptyResult, error) {
	req.Session.logMu.Lock()
	req.Session.logLevel = req.Params.Level
	req.Session.logMu.Unlock()
	if s.opts.SessionStateStore != nil {
		state, _ := s.opts.SessionStateStore.Load(context.Background(), req.Session.id)
		if state == nil {
			state = &ServerSessionState{}
		}
		state.LogLevel = req.Params.Level
		_ = s.opts.SessionStateStore.Save(context.Background(), req.Session.id, state)
	}
	return &EmptyResult{}, nil
}

func (s *Server) listTools(_ context.Context, req *ListToolsRequest) (*ListToolsResult, error) {
	tools := s.tools.list()
	start, end, next, err := paginate(len(tools), req.Params.Cursor, s.opts.PageSize)
	if err != nil {
		return nil, err
	}
	res := &ListToolsResult{Tools: []*Tool{}, NextCursor: next}
	for _, t := range tools[start:end] {
		res.Tools = append(res.Tools, t.tool)
	}
	return res, nil
}

// CreateMessage asks the client to sample from its LLM, returning the
// generated message.
func (sess *ServerSession) CreateMessage(ctx context.Context, params *CreateMessageParams) (*CreateMessageResult, error) {
	res := &CreateMessageResult{}
	if err := sess.call(ctx, methodCreateMessage, params, res); err != nil {
		return nil, err
	}
	return res, nil
}

// Elicit asks the client to collect structured input from its user.
func (sess *ServerSession) Elicit(ctx context.Context, params *ElicitParams) (*ElicitResult, error) {
	if params != nil && params.Mode == "" {
		p := *params
		p.Mode = "form"
		if p.URL != "" {
			p.Mode = "url"
		}
		params = &p
	}
	res := &ElicitResult{}
	if err := sess.call(ctx, methodElicit, params, res); err != nil {
		return nil, err
	}
	return res, nil
}

// ListRoots asks the client for its current list of filesystem roots.
func (sess *ServerSession) ListRoots(ctx context.Context) (*ListRootsResult, error) {
	res := &ListRootsResult{}
	if err := sess.call(ctx, methodListRoots, &ListRootsParams{}, res); err != nil {
		return nil, err
	}
	return res, nil
}

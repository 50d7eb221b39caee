// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// This file implements ClientSession: the client-side half of a live
// connection. It mirrors ServerSession's read loop and request
// correlation, but dispatches the server-to-client method set
// (sampling, elicitation, roots/list, logging, list-changed,
// resource-updated) instead of the client-to-server one.

package mcp

import (
	"context"
	"errors"
	"sync"

	internaljson "github.com/mcp-toolkit/go-engine/internal/json"
	"github.com/mcp-toolkit/go-engine/internal/jsonrpc2"
	"github.com/mcp-toolkit/go-engine/jsonrpc"
)

// ClientSession represents a client's live connection to one server.
// It is the handle used to call tools, fetch prompts and resources,
// and manage subscriptions on that server.
type ClientSession struct {
	client *Client
	conn   Connection

	serverCap *ServerCapabilities
	serverImp *Implementation

	reqMu    sync.Mutex
	nextID   int64
	pending  map[string]chan *jsonrpc.Response
	inflight map[string]context.CancelFunc

	done     chan struct{}
	closeErr error
}

func newClientSession(c *Client, conn Connection) *ClientSession {
	return &ClientSession{
		client:   c,
		conn:     conn,
		pending:  make(map[string]chan *jsonrpc.Response),
		inflight: make(map[string]context.CancelFunc),
		done:     make(chan struct{}),
	}
}

// ServerCapabilities returns the capabilities negotiated during
// initialize. It is nil until Connect has returned.
func (sess *ClientSession) ServerCapabilities() *ServerCapabilities { return sess.serverCap }

// ServerInfo returns the server's self-reported implementation identity.
func (sess *ClientSession) ServerInfo() *Implementation { return sess.serverImp }

// Close closes the underlying connection.
func (sess *ClientSession) Close() error { return sess.conn.Close() }

// Wait blocks until the session's connection is closed and returns the
// error, if any, that ended it.
func (sess *ClientSession) Wait() error {
	<-sess.done
	return sess.closeErr
}

func (sess *ClientSession) run(ctx context.Context) {
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

func (sess *ClientSession) handleIncoming(ctx context.Context, req *jsonrpc.Request) {
	if !req.IsCall() {
		sess.handleNotification(ctx, req.Method, req.Params)
		return
	}
	reqCtx, cancel := context.WithCancel(ctx)
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
		res, err := sess.handleRequest(reqCtx, req.Method, req.Params)
		resp, rerr := jsonrpc.NewResponse(req.ID, res, err)
		if rerr != nil {
			sess.client.opts.logger().Error("encoding response", "error", rerr)
			return
		}
		if werr := sess.conn.Write(ctx, resp); werr != nil {
			sess.client.opts.logger().Error("writing response", "error", werr)
		}
	}()
}

func (sess *ClientSession) handleRequest(ctx context.Context, method string, raw []byte) (Result, error) {
	switch method {
	case methodPing:
		return &EmptyResult{}, nil
	case methodCreateMessage:
		if sess.client.opts.CreateMessageHandler == nil {
			return nil, jsonrpc2.ErrMethodNotFound
		}
		var p CreateMessageParams
		if err := internaljson.Unmarshal(raw, &p); err != nil {
			return nil, &jsonrpc.Error{Code: jsonrpc.CodeInvalidParams, Message: err.Error()}
		}
		return sess.client.opts.CreateMessageHandler(ctx, &ClientRequest[*CreateMessageParams]{Session: sess, Params: &p})
	case methodElicit:
		if sess.client.opts.ElicitationHandler == nil {
			return nil, jsonrpc2.ErrMethodNotFound
		}
		var p ElicitParams
		if err := internaljson.Unmarshal(raw, &p); err != nil {
			return nil, &jsonrpc.Error{Code: jsonrpc.CodeInvalidParams, Message: err.Error()}
		}
		return sess.client.opts.ElicitationHandler(ctx, &ClientRequest[*ElicitParams]{Session: sess, Params: &p})
	case methodListRoots:
		if sess.client.opts.RootsListHandler == nil {
			return nil, jsonrpc2.ErrMethodNotFound
		}
		var p ListRootsParams
		if err := internaljson.Unmarshal(raw, &p); err != nil {
			return nil, &jsonrpc.Error{Code: jsonrpc.CodeInvalidParams, Message: err.Error()}
		}
		return sess.client.opts.RootsListHandler(ctx, &ClientRequest[*ListRootsParams]{Session: sess, Params: &p})
	default:
		return nil, jsonrpc2.ErrMethodNotFound
	}
}

func (sess *ClientSession) handleNotification(ctx context.Context, method string, raw []byte) {
	opts := &sess.client.opts
	switch method {
	case notificationLoggingMessage:
		if opts.LoggingMessageHandler == nil {
			return
		}
		var p LoggingMessageParams
		if internaljson.Unmarshal(raw, &p) == nil {
			opts.LoggingMessageHandler(ctx, &p)
		}
	case notificationToolListChanged:
		if opts.ToolListChangedHandler != nil {
			opts.ToolListChangedHandler(ctx)
		}
	case notificationPromptListChanged:
		if opts.PromptListChangedHandler != nil {
			opts.PromptListChangedHandler(ctx)
		}
	case notificationResourceListChanged:
		if opts.ResourceListChangedHandler != nil {
			opts.ResourceListChangedHandler(ctx)
		}
	case notificationResourceUpdated:
		if opts.ResourceUpdatedHandler != nil {
			var p ResourceUpdatedNotificationParams
			if internaljson.Unmarshal(raw, &p) == nil {
				opts.ResourceUpdatedHandler(ctx, p.URI)
			}
		}
	case notificationTaskStatus, notificationProgress:
		// Handled by request-specific correlation in a future extension;
		// no default action required here.
	}
}

func (sess *ClientSession) handleResponse(resp *jsonrpc.Response) {
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

func (sess *ClientSession) sendNotification(ctx context.Context, method string, params Params) error {
	n, err := jsonrpc.NewNotification(method, params)
	if err != nil {
		return err
	}
	return sess.conn.Write(ctx, n)
}

func (sess *ClientSession) call(ctx context.Context, method string, params Params, result Result) error {
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

// CallTool invokes a tool by name with the given arguments, returning
// its result.
func (sess *ClientSession) CallTool(ctx context.Context, params *CallToolParams) (*CallToolResult, error) {
	if params != nil && params.Task != nil && (sess.serverCap == nil || sess.serverCap.Tasks == nil) {
		return nil, errors.New("tools/call with a task: server does not declare the tasks capability")
	}
	res := &CallToolResult{}
	if err := sess.call(ctx, methodCallTool, params, res); err != nil {
		return nil, err
	}
	return res, nil
}

// ListTools lists the tools the server currently exposes.
func (sess *ClientSession) ListTools(ctx context.Context, params *ListToolsParams) (*ListToolsResult, error) {
	res := &ListToolsResult{}
	if err := sess.call(ctx, methodListTools, params, res); err != nil {
		return nil, err
	}
	return res, nil
}

// GetPrompt fetches a prompt's rendered messages.
func (sess *ClientSession) GetPrompt(ctx context.Context, params *GetPromptParams) (*GetPromptResult, error) {
	res := &GetPromptResult{}
	if err := sess.call(ctx, methodGetPrompt, params, res); err != nil {
		return nil, err
	}
	return res, nil
}

// ListPrompts lists the prompts the server currently exposes.
func (sess *ClientSession) ListPrompts(ctx context.Context, params *ListPromptsParams) (*ListPromptsResult, error) {
	res := &ListPromptsResult{}
	if err := sess.call(ctx, methodListPrompts, params, res); err != nil {
		return nil, err
	}
	return res, nil
}

// ReadResource fetches the current contents of a resource.
func (sess *ClientSession) ReadResource(ctx context.Context, params *ReadResourceParams) (*ReadResourceResult, error) {
	res := &ReadResourceResult{}
	if err := sess.call(ctx, methodReadResource, params, res); err != nil {
		return nil, err
	}
	return res, nil
}

// ListResources lists the resources the server currently exposes.
func (sess *ClientSession) ListResources(ctx context.Context, params *ListResourcesParams) (*ListResourcesResult, error) {
	res := &ListResourcesResult{}
	if err := sess.call(ctx, methodListResources, params, res); err != nil {
		return nil, err
	}
	return res, nil
}

// Subscribe requests resources/updated notifications for uri.
func (sess *ClientSession) Subscribe(ctx context.Context, uri string) error {
	return sess.call(ctx, methodSubscribe, &SubscribeParams{URI: uri}, &EmptyResult{})
}

// Unsubscribe cancels a prior Subscribe.
func (sess *ClientSession) Unsubscribe(ctx context.Context, uri string) error {
	return sess.call(ctx, methodUnsubscribe, &UnsubscribeParams{URI: uri}, &EmptyResult{})
}

// SetLevel requests the server send log messages at level or above.
func (sess *ClientSession) SetLevel(ctx context.Context, level LoggingLevel) error {
	return sess.call(ctx, methodSetLevel, &SetLoggingLevelParams{Level: level}, &EmptyResult{})
}

// GetTask fetches the current status of a server-side task.
func (sess *ClientSession) GetTask(ctx context.Context, taskID string) (*GetTaskResult, error) {
	res := &GetTaskResult{}
	if err := sess.call(ctx, methodGetTask, &GetTaskParams{TaskID: taskID}, res); err != nil {
		return nil, err
	}
	return res, nil
}

// CancelTask requests cancellation of a server-side task.
func (sess *ClientSession) CancelTask(ctx context.Context, taskID string) (*CancelTaskResult, error) {
	res := &CancelTaskResult{}
	if err := sess.call(ctx, methodCancelTask, &CancelTaskParams{TaskID: taskID}, res); err != nil {
		return nil, err
	}
	return res, nil
}

// TaskResult blocks until the named task reaches a terminal status and
// returns its tool-call result.
func (sess *ClientSession) TaskResult(ctx context.Context, taskID string) (*CallToolResult, error) {
	res := &CallToolResult{}
	if err := sess.call(ctx, methodTaskResult, &TaskResultParams{TaskID: taskID}, res); err != nil {
		return nil, err
	}
	return res, nil
}

// cancel sends notifications/cancelled for the request identified by
// relatedID, best-effort.
func (sess *ClientSession) cancel(ctx context.Context, relatedID jsonrpc.ID, reason string) error {
	return sess.sendNotification(ctx, notificationCancelled, &CancelledParams{
		RequestID: relatedID.Raw(),
		Reason:    reason,
	})
}

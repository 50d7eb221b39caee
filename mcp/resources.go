// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// This file implements the resources/list, resources/read,
// resources/subscribe and resources/unsubscribe methods for
// statically registered (non-templated) resources. Template-backed
// resources are handled by resource_templates.go.

package mcp

import (
	"context"
	"fmt"
	"sync"

	"github.com/mcp-toolkit/go-engine/jsonrpc"
)

// A ResourceHandler reads the contents of a registered resource.
type ResourceHandler func(ctx context.Context, req *ReadResourceRequest) (*ReadResourceResult, error)

type registeredResource struct {
	resource *Resource
	handler  ResourceHandler
}

// AddResource registers a concrete resource and its read handler.
func (s *Server) AddResource(r *Resource, h ResourceHandler) {
	s.resources.add(r.URI, &registeredResource{resource: r, handler: h})
}

// RemoveResources unregisters the named resources. Unknown URIs are ignored.
func (s *Server) RemoveResources(uris ...string) { s.resources.remove(uris...) }

func (s *Server) listResources(_ context.Context, req *ListResourcesRequest) (*ListResourcesResult, error) {
	resources := s.resources.list()
	start, end, next, err := paginate(len(resources), req.Params.Cursor, s.opts.PageSize)
	if err != nil {
		return nil, err
	}
	res := &ListResourcesResult{Resources: []*Resource{}, NextCursor: next}
	for _, r := range resources[start:end] {
		res.Resources = append(res.Resources, r.resource)
	}
	return res, nil
}

func (s *Server) readResource(ctx context.Context, req *ReadResourceRequest) (*ReadResourceResult, error) {
	if rr, ok := s.resources.get(req.Params.URI); ok {
		return rr.handler(ctx, req)
	}
	if rt, args, ok := matchResourceTemplate(s.resourceTemplates, req.Params.URI); ok {
		return rt.handler(ctx, req, args)
	}
	return nil, &jsonrpc.Error{Code: jsonrpc.CodeResourceNotFound, Message: fmt.Sprintf("unknown resource %q", req.Params.URI)}
}

// resourceSubscriptions tracks which sessions are subscribed to which
// resource URIs, so that NotifyResourceUpdated only reaches interested
// clients.
type resourceSubscriptions struct {
	mu   sync.Mutex
	subs map[string]map[*ServerSession]bool
}

func newResourceSubscriptions() *resourceSubscriptions {
	return &resourceSubscriptions{subs: make(map[string]map[*ServerSession]bool)}
}

func (r *resourceSubscriptions) add(uri string, sess *ServerSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.subs[uri] == nil {
		r.subs[uri] = make(map[*ServerSession]bool)
	}
	r.subs[uri][sess] = true
}

func (r *resourceSubscriptions) remove(uri string, sess *ServerSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.subs[uri], sess)
}

func (r *resourceSubscriptions) removeSession(sess *ServerSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.subs {
		delete(m, sess)
	}
}

func (r *resourceSubscriptions) subscribers(uri string) []*ServerSession {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*ServerSession, 0, len(r.subs[uri]))
	for sess := range r.subs[uri] {
		out = append(out, sess)
	}
	return out
}

func (s *Server) subscribe(_ context.Context, req *SubscribeRequest) (*EmptyResult, error) {
	s.subscriptions().add(req.Params.URI, req.Session)
	return &EmptyResult{}, nil
}

func (s *Server) unsubscribe(_ context.Context, req *UnsubscribeRequest) (*EmptyResult, error) {
	s.subscriptions().remove(req.Params.URI, req.Session)
	return &EmptyResult{}, nil
}

func (s *Server) subscriptions() *resourceSubscriptions {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.resourceSubs == nil {
		s.resourceSubs = newResourceSubscriptions()
	}
	return s.resourceSubs
}

// NotifyResourceUpdated tells every session subscribed to uri that its
// contents have changed.
func (s *Server) NotifyResourceUpdated(ctx context.Context, uri string) {
	params := &ResourceUpdatedNotificationParams{URI: uri}
	for _, sess := range s.subscriptions().subscribers(uri) {
		_ = sess.sendNotification(ctx, notificationResourceUpdated, params)
	}
}

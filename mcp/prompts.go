// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// This file implements the prompts/list and prompts/get methods: a
// registry of named, optionally argument-templated prompts.

package mcp

import (
	"context"
	"fmt"
)

// A PromptHandler produces a prompt's messages for a given set of
// arguments, already validated against the prompt's declared
// arguments.
type PromptHandler func(ctx context.Context, req *GetPromptRequest) (*GetPromptResult, error)

type registeredPrompt struct {
	prompt  *Prompt
	handler PromptHandler
}

// AddPrompt registers a prompt definition and its handler.
func (s *Server) AddPrompt(p *Prompt, h PromptHandler) {
	s.prompts.add(p.Name, &registeredPrompt{prompt: p, handler: h})
}

// RemovePrompts unregisters the named prompts. Unknown names are ignored.
func (s *Server) RemovePrompts(names ...string) { s.prompts.remove(names...) }

func (s *Server) listPrompts(_ context.Context, req *ListPromptsRequest) (*ListPromptsResult, error) {
	prompts := s.prompts.list()
	start, end, next, err := paginate(len(prompts), req.Params.Cursor, s.opts.PageSize)
	if err != nil {
		return nil, err
	}
	res := &ListPromptsResult{Prompts: []*Prompt{}, NextCursor: next}
	for _, p := range prompts[start:end] {
		res.Prompts = append(res.Prompts, p.prompt)
	}
	return res, nil
}

func (s *Server) getPrompt(ctx context.Context, req *GetPromptRequest) (*GetPromptResult, error) {
	rp, ok := s.prompts.get(req.Params.Name)
	if !ok {
		return nil, fmt.Errorf("unknown prompt %q", req.Params.Name)
	}
	for _, arg := range rp.prompt.Arguments {
		if arg.Required {
			if _, ok := req.Params.Arguments[arg.Name]; !ok {
				return nil, fmt.Errorf("missing required argument %q", arg.Name)
			}
		}
	}
	return rp.handler(ctx, req)
}

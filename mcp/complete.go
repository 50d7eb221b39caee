// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// This file implements completion/complete: argument autocompletion
// for a prompt argument or a resource template variable.

package mcp

import (
	"context"
	"fmt"
	"strings"
)

func (s *Server) complete(_ context.Context, req *CompleteRequest) (*CompleteResult, error) {
	ref := req.Params.Ref
	if ref == nil {
		return nil, fmt.Errorf("missing completion reference")
	}
	var candidates []string
	switch ref.Type {
	case "ref/prompt":
		rp, ok := s.prompts.get(ref.Name)
		if !ok {
			return nil, fmt.Errorf("unknown prompt %q", ref.Name)
		}
		for _, arg := range rp.prompt.Arguments {
			if arg.Name == req.Params.Argument.Name {
				candidates = []string{arg.Name}
			}
		}
	case "ref/resource":
		if rt, _, ok := matchResourceTemplate(s.resourceTemplates, ref.URI); ok {
			candidates = rt.varNames
		}
	default:
		return nil, fmt.Errorf("unrecognized completion reference type %q", ref.Type)
	}

	var values []string
	for _, c := range candidates {
		if strings.HasPrefix(c, req.Params.Argument.Value) {
			values = append(values, c)
		}
	}
	return &CompleteResult{
		Completion: CompletionResultDetails{
			Values: values,
			Total:  len(values),
		},
	}, nil
}

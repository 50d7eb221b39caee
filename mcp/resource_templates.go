// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// This file implements resources/templates/list and the RFC 6570
// URI-template matching used to dispatch resources/read requests that
// don't name a statically registered resource.

package mcp

import (
	"context"
	"regexp"
	"strings"

	"github.com/yosida95/uritemplate/v3"
)

// A ResourceTemplateHandler reads the contents of a resource whose URI
// matched a registered template, given the variables extracted from
// the match.
type ResourceTemplateHandler func(ctx context.Context, req *ReadResourceRequest, args map[string]string) (*ReadResourceResult, error)

type registeredResourceTemplate struct {
	template *ResourceTemplate
	tmpl     *uritemplate.Template
	matcher  *regexp.Regexp
	varNames []string
	handler  ResourceTemplateHandler
}

// AddResourceTemplate registers a URI-templated resource family and
// its read handler. The template's URITemplate field must be a valid
// RFC 6570 template, as checked by [uritemplate.New]. Inbound URIs are
// matched against a regexp derived from its simple {var} expressions
// only; other RFC 6570 operators are not matched.
func (s *Server) AddResourceTemplate(rt *ResourceTemplate, h ResourceTemplateHandler) error {
	tmpl, err := uritemplate.New(rt.URITemplate)
	if err != nil {
		return err
	}
	matcher, names := compileTemplateMatcher(rt.URITemplate)
	s.resourceTemplates.add(rt.URITemplate, &registeredResourceTemplate{
		template: rt,
		tmpl:     tmpl,
		matcher:  matcher,
		varNames: names,
		handler:  h,
	})
	return nil
}

// RemoveResourceTemplates unregisters the named templates. Unknown
// templates are ignored.
func (s *Server) RemoveResourceTemplates(uriTemplates ...string) {
	s.resourceTemplates.remove(uriTemplates...)
}

func (s *Server) listResourceTemplates(_ context.Context, req *ListResourceTemplatesRequest) (*ListResourceTemplatesResult, error) {
	templates := s.resourceTemplates.list()
	start, end, next, err := paginate(len(templates), req.Params.Cursor, s.opts.PageSize)
	if err != nil {
		return nil, err
	}
	res := &ListResourceTemplatesResult{ResourceTemplates: []*ResourceTemplate{}, NextCursor: next}
	for _, t := range templates[start:end] {
		res.ResourceTemplates = append(res.ResourceTemplates, t.template)
	}
	return res, nil
}

// matchResourceTemplate finds the first template in r whose pattern
// matches uri, returning the extracted variable bindings.
func matchResourceTemplate(r *registry[*registeredResourceTemplate], uri string) (*registeredResourceTemplate, map[string]string, bool) {
	for _, rt := range r.list() {
		m := rt.matcher.FindStringSubmatch(uri)
		if m == nil {
			continue
		}
		args := make(map[string]string, len(rt.varNames))
		for i, name := range rt.varNames {
			args[name] = m[i+1]
		}
		return rt, args, true
	}
	return nil, nil, false
}

var templateVarPattern = regexp.MustCompile(`\{([a-zA-Z0-9_]+)\}`)

// compileTemplateMatcher turns a simple-expansion RFC 6570 URI
// template ("http://host/{owner}/{repo}") into an anchored regexp
// that captures each variable, plus the variable names in order.
func compileTemplateMatcher(raw string) (*regexp.Regexp, []string) {
	var b strings.Builder
	b.WriteByte('^')
	var names []string
	last := 0
	for _, loc := range templateVarPattern.FindAllStringSubmatchIndex(raw, -1) {
		b.WriteString(regexp.QuoteMeta(raw[last:loc[0]]))
		b.WriteString("([^/]+)")
		names = append(names, raw[loc[2]:loc[3]])
		last = loc[1]
	}
	b.WriteString(regexp.QuoteMeta(raw[last:]))
	b.WriteByte('$')
	return regexp.MustCompile(b.String()), names
}

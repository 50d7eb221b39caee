// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// This file implements the low-level server-sent event framing shared
// by the streamable HTTP transport's server and client halves.

package mcp

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"iter"
	"net/http"
	"strings"
)

// An event is a single server-sent event.
type event struct {
	name string
	id   string
	data []byte
}

// writeEvent writes evt to w as one SSE record and flushes, so readers
// on a hanging GET see it immediately.
func writeEvent(w io.Writer, evt event) (int, error) {
	var b bytes.Buffer
	if evt.name != "" {
		fmt.Fprintf(&b, "event: %s\n", evt.name)
	}
	if evt.id != "" {
		fmt.Fprintf(&b, "id: %s\n", evt.id)
	}
	fmt.Fprintf(&b, "data: %s\n\n", evt.data)
	n, err := w.Write(b.Bytes())
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	return n, err
}

// scanEvents returns an iterator over the SSE events read from r,
// following the record syntax described at
// https://developer.mozilla.org/en-US/docs/Web/API/Server-sent_events/Using_server-sent_events#fields.
//
// Consecutive "data:" fields are joined with newlines; unrecognized
// field names are ignored; a record ends at a blank line. The final
// yielded pair carries io.EOF once the reader is exhausted.
func scanEvents(r io.Reader) iter.Seq2[event, error] {
	return func(yield func(event, error) bool) {
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

		var evt event
		var lastWasData bool
		hasRecord := func() bool { return evt.name != "" || evt.id != "" || len(evt.data) > 0 }

		for scanner.Scan() {
			line := scanner.Bytes()
			if len(line) == 0 {
				if hasRecord() {
					cur := evt
					evt = event{}
					lastWasData = false
					if !yield(cur, nil) {
						return
					}
				}
				continue
			}
			before, after, found := bytes.Cut(line, []byte{':'})
			if !found {
				yield(event{}, fmt.Errorf("malformed line in SSE stream: %q", string(line)))
				return
			}
			value := strings.TrimPrefix(string(after), " ")
			switch string(before) {
			case "event":
				evt.name = value
			case "id":
				evt.id = value
			case "data":
				if lastWasData {
					evt.data = append(evt.data, '\n')
					evt.data = append(evt.data, value...)
				} else {
					evt.data = []byte(value)
				}
				lastWasData = true
			}
		}
		if err := scanner.Err(); err != nil {
			yield(event{}, err)
			return
		}
		if hasRecord() {
			if !yield(evt, nil) {
				return
			}
		}
		yield(event{}, io.EOF)
	}
}

// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package jsonrpc

import "bytes"

// ReadBuffer accumulates bytes from a stream and splits them into
// newline-delimited JSON-RPC messages, the framing used by the stdio
// transport.
//
// It is not safe for concurrent use. Appending is associative: calling
// Append(x) followed by Append(y) yields the same stream of Messages as
// a single Append(concat(x, y)).
type ReadBuffer struct {
	buf []byte
}

// Append adds data to the buffer and returns any complete lines that
// are now ready to be parsed, leaving a trailing partial line (if any)
// buffered for the next call.
func (b *ReadBuffer) Append(data []byte) [][]byte {
	b.buf = append(b.buf, data...)

	var lines [][]byte
	for {
		i := bytes.IndexByte(b.buf, '\n')
		if i < 0 {
			break
		}
		line := b.buf[:i]
		b.buf = b.buf[i+1:]
		lines = append(lines, bytes.TrimRight(line, "\r"))
	}
	return lines
}

// Messages is a convenience wrapper around Append that decodes each
// complete line as a Message, silently dropping blank and malformed
// lines rather than failing the whole batch.
func (b *ReadBuffer) Messages(data []byte) []Message {
	var out []Message
	for _, line := range b.Append(data) {
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		msg, err := DecodeMessage(line)
		if err != nil {
			continue
		}
		out = append(out, msg)
	}
	return out
}

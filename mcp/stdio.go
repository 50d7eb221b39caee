// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"github.com/mcp-toolkit/go-engine/jsonrpc"
)

// rwc pairs an independent reader and writer (as with a subprocess's
// stdout and stdin, or the two ends of os.Stdin/os.Stdout) into a
// single logical stream.
type rwc struct {
	rc io.ReadCloser
	wc io.Writer
}

// StdioTransport connects to a peer over the process's own standard
// input and output. There is exactly one connection; it has no
// session ID.
type StdioTransport struct{}

func (StdioTransport) Connect(ctx context.Context) (Connection, error) {
	return newIOConn(rwc{rc: os.Stdin, wc: os.Stdout}), nil
}

// CommandTransport spawns a subprocess and connects to it over its
// standard input and output, the transport used to run an MCP server
// as a local child process.
type CommandTransport struct {
	Command *exec.Cmd
}

func (t *CommandTransport) Connect(ctx context.Context) (Connection, error) {
	stdin, err := t.Command.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := t.Command.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	if err := t.Command.Start(); err != nil {
		return nil, fmt.Errorf("starting command: %w", err)
	}
	return newIOConn(rwc{rc: stdout, wc: stdin}), nil
}

// ioConn implements Connection over a newline-delimited JSON stream.
type ioConn struct {
	rwc rwc
	dec *json.Decoder

	mu sync.Mutex

	closeOnce sync.Once
	closeErr  error
}

func newIOConn(rwc rwc) *ioConn {
	return &ioConn{
		rwc: rwc,
		dec: json.NewDecoder(bufio.NewReader(rwc.rc)),
	}
}

func (c *ioConn) Read(ctx context.Context) (jsonrpc.Message, error) {
	type result struct {
		msg jsonrpc.Message
		err error
	}
	done := make(chan result, 1)
	go func() {
		var raw json.RawMessage
		if err := c.dec.Decode(&raw); err != nil {
			if err == io.EOF {
				done <- result{nil, io.EOF}
				return
			}
			done <- result{nil, fmt.Errorf("decoding message: %w", err)}
			return
		}
		msg, err := jsonrpc.DecodeMessage(raw)
		done <- result{msg, err}
	}()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		return r.msg, r.err
	}
}

func (c *ioConn) Write(ctx context.Context, msg jsonrpc.Message) error {
	data, err := jsonrpc.EncodeMessage(msg)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	c.mu.Lock()
	defer c.mu.Unlock()

	if ctx.Err() != nil {
		return ctx.Err()
	}
	_, err = c.rwc.wc.Write(data)
	return err
}

func (c *ioConn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.rwc.rc.Close()
		if closer, ok := c.rwc.wc.(io.Closer); ok {
			if err := closer.Close(); err != nil && c.closeErr == nil {
				c.closeErr = err
			}
		}
	})
	return c.closeErr
}

func (c *ioConn) SessionID() string { return "" }

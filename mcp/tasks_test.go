// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package mcp

import (
	"context"
	"testing"
	"time"
)

type slowArgs struct {
	Text string `json:"text" mcp:"the text to echo back once the task completes"`
}

func slowEchoTool(_ context.Context, _ *ServerRequest[*CallToolParams], args slowArgs) (*CallToolResult, struct{}, error) {
	time.Sleep(200 * time.Millisecond)
	return &CallToolResult{Content: []Content{&TextContent{Text: args.Text}}}, struct{}{}, nil
}

func newTaskTestSession(t *testing.T) (*ClientSession, func()) {
	t.Helper()
	ctx := context.Background()
	s := NewServer(&Implementation{Name: "task-server", Version: "v1.0.0"}, nil)
	if err := AddTool(s, &Tool{
		Name:        "slow-echo",
		Description: "echo the given text after a delay",
		Execution:   &ToolExecution{TaskSupport: "optional"},
	}, slowEchoTool); err != nil {
		t.Fatalf("AddTool: %v", err)
	}

	cTransport, sTransport := NewInMemoryTransports()
	if _, err := s.Connect(ctx, sTransport); err != nil {
		t.Fatalf("server Connect: %v", err)
	}
	cs, err := NewClient(&Implementation{Name: "task-client", Version: "v1.0.0"}, nil).Connect(ctx, cTransport)
	if err != nil {
		t.Fatalf("client Connect: %v", err)
	}
	return cs, func() { cs.Close() }
}

// TestTaskCreateThenPoll drives the full task lifecycle: a tools/call
// with Task set returns a task handle immediately, tasks/get reports
// "working" while the tool is still running, and tasks/result blocks
// until the tool finishes and returns its inline result.
func TestTaskCreateThenPoll(t *testing.T) {
	cs, cleanup := newTaskTestSession(t)
	defer cleanup()
	ctx := context.Background()

	var created CreateTaskResult
	if err := cs.call(ctx, methodCallTool, &CallToolParams{
		Name:      "slow-echo",
		Arguments: map[string]any{"text": "hello"},
		Task:      &TaskParams{},
	}, &created); err != nil {
		t.Fatalf("tools/call with Task: %v", err)
	}
	if created.Task == nil || created.Task.TaskID == "" {
		t.Fatalf("expected a task handle, got %+v", created)
	}
	if created.Task.Status != TaskStatusWorking {
		t.Errorf("initial task status = %q, want %q", created.Task.Status, TaskStatusWorking)
	}

	got, err := cs.GetTask(ctx, created.Task.TaskID)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if got.Status != TaskStatusWorking && got.Status != TaskStatusCompleted {
		t.Errorf("GetTask status = %q, want working or completed", got.Status)
	}

	res, err := cs.TaskResult(ctx, created.Task.TaskID)
	if err != nil {
		t.Fatalf("TaskResult: %v", err)
	}
	if len(res.Content) != 1 {
		t.Fatalf("TaskResult content = %v, want 1 item", res.Content)
	}
	tc, ok := res.Content[0].(*TextContent)
	if !ok || tc.Text != "hello" {
		t.Errorf("TaskResult content = %+v, want echoed %q", res.Content, "hello")
	}

	final, err := cs.GetTask(ctx, created.Task.TaskID)
	if err != nil {
		t.Fatalf("GetTask after TaskResult: %v", err)
	}
	if final.Status != TaskStatusCompleted {
		t.Errorf("final task status = %q, want %q", final.Status, TaskStatusCompleted)
	}
}

// TestTaskCancel requests cancellation of a still-running task and
// checks that tasks/cancel reports a terminal, cancelled status.
func TestTaskCancel(t *testing.T) {
	cs, cleanup := newTaskTestSession(t)
	defer cleanup()
	ctx := context.Background()

	var created CreateTaskResult
	if err := cs.call(ctx, methodCallTool, &CallToolParams{
		Name:      "slow-echo",
		Arguments: map[string]any{"text": "cancel-me"},
		Task:      &TaskParams{},
	}, &created); err != nil {
		t.Fatalf("tools/call with Task: %v", err)
	}

	cancelled, err := cs.CancelTask(ctx, created.Task.TaskID)
	if err != nil {
		// The tool sleeps 200ms, so it is still running when the cancel
		// request arrives; any error here fails the test.
		t.Fatalf("CancelTask: %v (tool sleeps 200ms, should still be running)", err)
	}
	if cancelled.Status != TaskStatusCancelled {
		t.Errorf("CancelTask status = %q, want %q", cancelled.Status, TaskStatusCancelled)
	}
}

// TestUnknownTaskConformance checks that polling a task ID the server
// never created fails instead of hanging or returning a zero value.
func TestUnknownTaskConformance(t *testing.T) {
	cs, cleanup := newTaskTestSession(t)
	defer cleanup()
	ctx := context.Background()

	if _, err := cs.GetTask(ctx, "does-not-exist"); err == nil {
		t.Fatal("GetTask on unknown task ID succeeded, want error")
	}
}

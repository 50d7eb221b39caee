// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// This file defines the wire types of the task augmentation extension:
// long-running requests that return a task handle instead of blocking
// for an inline result. The runtime logic lives in tasks_server.go.

package mcp

// TaskStatus is the status of a task, forming a small forward-progress
// DAG: working and input_required may alternate, and the task moves to
// exactly one terminal status (completed, failed, cancelled), from
// which it never transitions again.
type TaskStatus string

const (
	TaskStatusWorking       TaskStatus = "working"
	TaskStatusInputRequired TaskStatus = "input_required"
	TaskStatusCompleted     TaskStatus = "completed"
	TaskStatusFailed        TaskStatus = "failed"
	TaskStatusCancelled     TaskStatus = "cancelled"
)

// Task describes the current state of a long-running operation.
type Task struct {
	Meta `json:"_meta,omitempty"`
	// TaskID uniquely identifies the task within its session.
	TaskID string `json:"taskId"`
	// Status is the task's current status.
	Status TaskStatus `json:"status"`
	// StatusMessage is an optional human-readable description of Status.
	StatusMessage string `json:"statusMessage,omitempty"`
	// CreatedAt is an RFC 3339 timestamp of task creation.
	CreatedAt string `json:"createdAt"`
	// LastUpdatedAt is an RFC 3339 timestamp of the most recent status change.
	LastUpdatedAt string `json:"lastUpdatedAt"`
	// TTL is the number of milliseconds after LastUpdatedAt the task may be
	// reaped if not polled, or nil if the task does not expire.
	TTL *int64 `json:"ttl"`
}

// TaskParams augments a request to request task-based execution.
type TaskParams struct {
	// TTL is the requested number of milliseconds the task's result
	// remains available after it stops being actively updated.
	TTL *int64 `json:"ttl,omitempty"`
}

// CreateTaskResult is returned in place of a request's normal result
// when the request was accepted for task-based execution.
type CreateTaskResult struct {
	Meta `json:"_meta,omitempty"`
	Task *Task `json:"task"`
}

func (*CreateTaskResult) isResult() {}

// GetTaskParams are the parameters of a tasks/get request.
type GetTaskParams struct {
	Meta   `json:"_meta,omitempty"`
	TaskID string `json:"taskId"`
}

func (*GetTaskParams) isParams() {}

// GetTaskResult is the result of a tasks/get request: the current
// state of the task.
type GetTaskResult Task

func (*GetTaskResult) isResult() {}

// ListTasksParams are the parameters of a tasks/list request.
type ListTasksParams struct {
	Meta   `json:"_meta,omitempty"`
	Cursor string `json:"cursor,omitempty"`
}

func (*ListTasksParams) isParams()          {}
func (x *ListTasksParams) cursorPtr() *string { return &x.Cursor }

// ListTasksResult is the result of a tasks/list request.
type ListTasksResult struct {
	Meta       `json:"_meta,omitempty"`
	Tasks      []*Task `json:"tasks"`
	NextCursor string  `json:"nextCursor,omitempty"`
}

func (*ListTasksResult) isResult()              {}
func (x *ListTasksResult) nextCursorPtr() *string { return &x.NextCursor }

// CancelTaskParams are the parameters of a tasks/cancel request.
type CancelTaskParams struct {
	Meta   `json:"_meta,omitempty"`
	TaskID string `json:"taskId"`
}

func (*CancelTaskParams) isParams() {}

// CancelTaskResult is the result of a tasks/cancel request: the task's
// state immediately after cancellation was requested.
type CancelTaskResult Task

func (*CancelTaskResult) isResult() {}

// TaskResultParams are the parameters of a tasks/result request, which
// blocks until the task reaches a terminal status and then returns its
// result as if the originating request had completed inline.
type TaskResultParams struct {
	Meta   `json:"_meta,omitempty"`
	TaskID string `json:"taskId"`
}

func (*TaskResultParams) isParams() {}

// TaskStatusNotificationParams is sent (as notifications/tasks/status)
// whenever a task's status changes. Its shape mirrors Task exactly, so
// that a Task value can be reinterpreted as notification params without
// copying fields by hand.
type TaskStatusNotificationParams Task

func (*TaskStatusNotificationParams) isParams() {}

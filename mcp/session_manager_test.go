// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package mcp

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestSessionManagerLifecycle(t *testing.T) {
	m := newSessionManager(time.Hour, nil)

	if err := m.validateSessionID("missing"); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("validateSessionID(missing) = %v, want ErrInvalidSession", err)
	}

	m.create("s1")
	if err := m.validateSessionID("s1"); err != nil {
		t.Fatalf("validateSessionID(s1) = %v, want nil", err)
	}

	m.close("s1")
	if err := m.validateSessionID("s1"); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("validateSessionID(s1) after close = %v, want ErrInvalidSession", err)
	}
}

func TestSessionManagerExpiry(t *testing.T) {
	var closed []string
	m := newSessionManager(10*time.Millisecond, func(id string) {
		closed = append(closed, id)
	})

	m.create("s1")
	time.Sleep(25 * time.Millisecond)

	if err := m.validateSessionID("s1"); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("validateSessionID(s1) after timeout = %v, want ErrInvalidSession", err)
	}
	if len(closed) != 1 || closed[0] != "s1" {
		t.Errorf("onSessionClosed callbacks = %v, want [s1]", closed)
	}
}

func TestSessionManagerUpdateActivityResetsTimeout(t *testing.T) {
	m := newSessionManager(30*time.Millisecond, nil)
	m.create("s1")

	// Touch the session partway through its timeout window; this should
	// push the deadline out rather than let it lapse.
	time.Sleep(20 * time.Millisecond)
	m.updateActivity("s1")
	time.Sleep(20 * time.Millisecond)

	if err := m.validateSessionID("s1"); err != nil {
		t.Fatalf("validateSessionID(s1) after refresh = %v, want nil", err)
	}
}

func TestSessionManagerSweepExpired(t *testing.T) {
	var mu sync.Mutex
	var closed []string
	m := newSessionManager(10*time.Millisecond, func(id string) {
		mu.Lock()
		closed = append(closed, id)
		mu.Unlock()
	})
	m.create("s1")
	m.create("s2")
	time.Sleep(25 * time.Millisecond)

	m.sweepExpired()

	if len(m.sessions) != 0 {
		t.Errorf("sessions remaining after sweep = %d, want 0", len(m.sessions))
	}
	mu.Lock()
	defer mu.Unlock()
	if len(closed) != 2 {
		t.Errorf("closed sessions = %v, want 2 entries", closed)
	}
}

func TestSessionManagerRunExpirySweeper(t *testing.T) {
	m := newSessionManager(10*time.Millisecond, nil)
	m.create("s1")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.runExpirySweeper(ctx, 5*time.Millisecond)

	deadline := time.Now().Add(500 * time.Millisecond)
	for time.Now().Before(deadline) {
		m.mu.Lock()
		n := len(m.sessions)
		m.mu.Unlock()
		if n == 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("runExpirySweeper did not reap the expired session in time")
}

// Copyright 2025 The Go MCP SDK Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// This file implements session liveness tracking: the bookkeeping a
// stateful HTTP-facing transport needs to validate the Mcp-Session-Id
// header on every request and expire sessions that have gone idle.
// This is a distinct concern from ServerSessionStateStore
// (session_store.go), which persists resumable protocol state; a
// sessionManager tracks only whether a session ID is still alive.

package mcp

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrInvalidSession is returned when an operation references a session
// ID that is unknown or has expired.
var ErrInvalidSession = errors.New("invalid or expired session")

// DefaultSessionTimeout is used when a sessionManager is created
// without an explicit timeout.
const DefaultSessionTimeout = 30 * time.Minute

type liveSession struct {
	createdAt    time.Time
	lastActivity time.Time
}

// sessionManager tracks the liveness of server sessions by ID. It is
// safe for concurrent use, including from multiple goroutines serving
// different HTTP requests for the same session.
type sessionManager struct {
	mu             sync.Mutex
	timeout        time.Duration
	sessions       map[string]*liveSession
	onSessionClosed func(sessionID string)
}

func newSessionManager(timeout time.Duration, onSessionClosed func(string)) *sessionManager {
	if timeout <= 0 {
		timeout = DefaultSessionTimeout
	}
	return &sessionManager{
		timeout:         timeout,
		sessions:        make(map[string]*liveSession),
		onSessionClosed: onSessionClosed,
	}
}

// create registers sessionID as a new live session.
func (m *sessionManager) create(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	m.sessions[sessionID] = &liveSession{createdAt: now, lastActivity: now}
}

// validateSessionID reports whether sessionID refers to a live,
// unexpired session, sweeping it out if its timeout has passed.
func (m *sessionManager) validateSessionID(sessionID string) error {
	m.mu.Lock()
	s, ok := m.sessions[sessionID]
	if !ok {
		m.mu.Unlock()
		return ErrInvalidSession
	}
	expired := time.Since(s.lastActivity) > m.timeout
	if expired {
		delete(m.sessions, sessionID)
	}
	m.mu.Unlock()
	if expired {
		m.notifyClosed(sessionID)
		return ErrInvalidSession
	}
	return nil
}

// updateActivity bumps the last-activity timestamp for sessionID. It
// is a no-op if the session is not known.
func (m *sessionManager) updateActivity(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[sessionID]; ok {
		s.lastActivity = time.Now()
	}
}

// close removes sessionID, invoking onSessionClosed if it was present.
func (m *sessionManager) close(sessionID string) {
	m.mu.Lock()
	_, ok := m.sessions[sessionID]
	delete(m.sessions, sessionID)
	m.mu.Unlock()
	if ok {
		m.notifyClosed(sessionID)
	}
}

func (m *sessionManager) notifyClosed(sessionID string) {
	if m.onSessionClosed != nil {
		m.onSessionClosed(sessionID)
	}
}

// sweepExpired runs one pass of idle-session expiry, invoked
// periodically by runExpirySweeper.
func (m *sessionManager) sweepExpired() {
	m.mu.Lock()
	var expired []string
	now := time.Now()
	for id, s := range m.sessions {
		if now.Sub(s.lastActivity) > m.timeout {
			expired = append(expired, id)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()
	for _, id := range expired {
		m.notifyClosed(id)
	}
}

// runExpirySweeper periodically sweeps expired sessions until ctx is
// done. Callers typically run it in its own goroutine.
func (m *sessionManager) runExpirySweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = m.timeout / 4
		if interval <= 0 {
			interval = time.Minute
		}
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			m.sweepExpired()
		}
	}
}

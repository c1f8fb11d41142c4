package store

import (
	"context"
	"time"
)

// Transport names the listener a session arrived on.
type Transport string

const (
	TransportTCP       Transport = "tcp"
	TransportWebSocket Transport = "websocket"
)

// LeaveReason explains how a session ended.
type LeaveReason string

const (
	ReasonLeave      LeaveReason = "leave"
	ReasonPeerClosed LeaveReason = "peer_closed"
	ReasonError      LeaveReason = "error"
	ReasonShutdown   LeaveReason = "shutdown"
)

// Session is one registered connection. Message text is never recorded.
type Session struct {
	ID         string
	Username   string
	RemoteAddr string
	Transport  Transport
	JoinedAt   time.Time
	LeftAt     *time.Time
	Reason     LeaveReason
}

// SessionStore journals session lifetimes.
type SessionStore interface {
	// OpenSession records a session that just completed registration.
	OpenSession(ctx context.Context, s *Session) error
	// CloseSession stamps the end of a session. Closing twice keeps the first stamp.
	CloseSession(ctx context.Context, id string, reason LeaveReason, at time.Time) error
	// ListSessions returns the most recent sessions first.
	ListSessions(ctx context.Context, limit int) ([]Session, error)
}

// Store combines all storage interfaces.
type Store interface {
	SessionStore
	Close() error
}

// Nop is a Store that records nothing.
type Nop struct{}

func (Nop) OpenSession(context.Context, *Session) error { return nil }

func (Nop) CloseSession(context.Context, string, LeaveReason, time.Time) error { return nil }

func (Nop) ListSessions(context.Context, int) ([]Session, error) { return []Session{}, nil }

func (Nop) Close() error { return nil }

package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/linechat/internal/store"
)

// Server accepts connections and runs one handler goroutine per connection.
// There is no cap on concurrent connections.
type Server struct {
	handler *Handler
	log     *zerolog.Logger

	mu     sync.Mutex
	conns  map[net.Conn]struct{}
	closed bool
	wg     sync.WaitGroup
}

// New creates a server around handler.
func New(handler *Handler, logger *zerolog.Logger) *Server {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Server{
		handler: handler,
		log:     logger,
		conns:   make(map[net.Conn]struct{}),
	}
}

// Serve accepts on ln until ctx is cancelled or the listener is closed.
// Transient accept errors are logged and the loop continues.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			ln.Close()
		case <-stop:
		}
	}()

	s.log.Info().Str("addr", ln.Addr().String()).Msg("chat listener started")
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.log.Warn().Err(err).Msg("failed to accept connection")
			time.Sleep(10 * time.Millisecond)
			continue
		}

		s.log.Debug().Str("remote", conn.RemoteAddr().String()).Msg("connection accepted")
		go func() {
			if err := s.ServeConn(ctx, conn, store.TransportTCP); err != nil {
				s.log.Debug().Err(err).Msg("connection ended with error")
			}
		}()
	}
}

// ServeConn runs the handler on conn in the calling goroutine. Other transports
// (the WebSocket bridge) enter here so shutdown covers them too.
func (s *Server) ServeConn(ctx context.Context, conn net.Conn, transport store.Transport) error {
	if !s.track(conn) {
		conn.Close()
		return fmt.Errorf("server is shutting down")
	}
	defer s.untrack(conn)

	return s.handler.Serve(ctx, conn, transport)
}

// Shutdown closes every live connection and waits for their handlers to finish
// registry cleanup. It returns the time spent, never much more than timeout.
func (s *Server) Shutdown(timeout time.Duration) time.Duration {
	from := time.Now()

	s.mu.Lock()
	s.closed = true
	for conn := range s.conns {
		conn.Close()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
		s.log.Warn().Dur("timeout", timeout).Msg("handlers still running after shutdown timeout")
	}
	return time.Since(from)
}

// Active returns the number of open connections, registered or not.
func (s *Server) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

func (s *Server) track(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.conns[conn] = struct{}{}
	s.wg.Add(1)
	return true
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
	s.wg.Done()
}

package server

import (
	"bufio"
	"context"
	"errors"
	"net"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/vovakirdan/linechat/internal/core"
	"github.com/vovakirdan/linechat/internal/store"
)

type testServer struct {
	addr     string
	registry *core.Registry
	srv      *Server
	cancel   context.CancelFunc
}

func startTestServer(t *testing.T, journal store.SessionStore) *testServer {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	registry := core.NewRegistry()
	dispatcher := core.NewDispatcher(registry, nil)
	handler := NewHandler(dispatcher, journal, Options{WriteTimeout: time.Second}, nil)
	srv := New(handler, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = srv.Serve(ctx, ln)
	}()

	t.Cleanup(func() {
		cancel()
		srv.Shutdown(time.Second)
		<-done
	})

	return &testServer{addr: ln.Addr().String(), registry: registry, srv: srv, cancel: cancel}
}

type testClient struct {
	conn net.Conn
	r    *bufio.Reader
}

func dial(t *testing.T, addr string) *testClient {
	t.Helper()

	conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return &testClient{conn: conn, r: bufio.NewReader(conn)}
}

// join dials and waits until name is registered.
func (ts *testServer) join(t *testing.T, name string) *testClient {
	t.Helper()

	c := dial(t, ts.addr)
	c.send(t, name)
	waitFor(t, func() bool { return ts.registry.Contains(name) })
	return c
}

func (c *testClient) send(t *testing.T, line string) {
	t.Helper()

	if _, err := c.conn.Write([]byte(line + "\n")); err != nil {
		t.Fatalf("write %q: %v", line, err)
	}
}

func (c *testClient) mustReadLine(t *testing.T) string {
	t.Helper()

	_ = c.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	line, err := c.r.ReadString('\n')
	if err != nil {
		t.Fatalf("read line: %v", err)
	}
	return line
}

func (c *testClient) mustReadNothing(t *testing.T, wait time.Duration) {
	t.Helper()

	_ = c.conn.SetReadDeadline(time.Now().Add(wait))
	line, err := c.r.ReadString('\n')
	if err == nil {
		t.Fatalf("expected no data, got %q", line)
	}
	if !errors.Is(err, os.ErrDeadlineExceeded) {
		t.Fatalf("expected read timeout, got %v", err)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met before deadline")
}

func trimLine(s string) string {
	return strings.TrimRight(s, "\r\n")
}

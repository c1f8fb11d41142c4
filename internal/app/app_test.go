package app

import (
	"bufio"
	"context"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/linechat/internal/config"
)

func TestAppServesChatAndStops(t *testing.T) {
	cfg := config.Default()
	cfg.AuditDBPath = filepath.Join(t.TempDir(), "audit.db")
	logger := zerolog.Nop()

	application, err := New(&cfg, &logger)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- application.Serve(ctx, ln) }()

	connA, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("dial A: %v", err)
	}
	defer connA.Close()
	connB, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("dial B: %v", err)
	}
	defer connB.Close()

	_, _ = connA.Write([]byte("A\n"))
	_, _ = connB.Write([]byte("B\n"))
	waitRegistered(t, application, 2)

	_, _ = connA.Write([]byte("hello\n"))
	_ = connB.SetReadDeadline(time.Now().Add(2 * time.Second))
	line, err := bufio.NewReader(connB).ReadString('\n')
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if line != "[A]: hello\n" {
		t.Fatalf("unexpected line %q", line)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve returned %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("app did not stop")
	}
	if n := application.Registry().Len(); n != 0 {
		t.Fatalf("registry not empty after stop: %d", n)
	}
}

func waitRegistered(t *testing.T, a *App, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if a.Registry().Len() == n {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected %d registered users, got %d", n, a.Registry().Len())
}

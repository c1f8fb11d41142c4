package http

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/linechat/internal/config"
	"github.com/vovakirdan/linechat/internal/core"
	"github.com/vovakirdan/linechat/internal/server"
	"github.com/vovakirdan/linechat/internal/store"
)

type testEnv struct {
	ts       *httptest.Server
	registry *core.Registry
	chat     *server.Server
}

// startTestServer runs the admin router over an isolated registry.
func startTestServer(t *testing.T, st store.SessionStore) *testEnv {
	t.Helper()

	disabledLogger := zerolog.Nop()
	cfg := config.Default()
	cfg.AdminAddr = ":0"

	registry := core.NewRegistry()
	dispatcher := core.NewDispatcher(registry, &disabledLogger)
	handler := server.NewHandler(dispatcher, st, server.Options{WriteTimeout: time.Second}, &disabledLogger)
	chat := server.New(handler, &disabledLogger)

	srv := NewServer(chat, registry, st, &cfg, &disabledLogger)
	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(func() {
		chat.Shutdown(time.Second)
		ts.Close()
	})

	return &testEnv{ts: ts, registry: registry, chat: chat}
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

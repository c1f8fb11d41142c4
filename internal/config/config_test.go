package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadWritesDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "linechat.yaml")

	cfg, resolved, err := Load(nil, path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if resolved != path {
		t.Fatalf("unexpected path %q", resolved)
	}
	if cfg.Addr != Default().Addr || cfg.NameMaxLen != 32 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default config not written: %v", err)
	}
}

func TestLoadFileAndEnvPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "linechat.yaml")
	data := "addr: 127.0.0.1:9000\nwrite_timeout: 3s\naudit_db_path: /tmp/audit.db\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("LINECHAT_ADDR", "127.0.0.1:9100")

	cfg, _, err := Load(nil, path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != "127.0.0.1:9100" {
		t.Fatalf("env should win over file, got %q", cfg.Addr)
	}
	if cfg.WriteTimeout != 3*time.Second {
		t.Fatalf("expected write_timeout from file, got %v", cfg.WriteTimeout)
	}
	if cfg.AuditDBPath != "/tmp/audit.db" {
		t.Fatalf("expected audit path from file, got %q", cfg.AuditDBPath)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "linechat.yaml")
	if err := os.WriteFile(path, []byte("line_max_bytes: 4\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, err := Load(nil, path); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestResolveClientPositionalArgs(t *testing.T) {
	v := NewClientViper()
	cfg, err := ResolveClient(v, []string{"10.0.0.1", "4000", "alice"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.Address() != "10.0.0.1:4000" || cfg.Username != "alice" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestResolveClientEnvFallback(t *testing.T) {
	t.Setenv("CHAT_HOST", "chat.local")
	t.Setenv("CHAT_USERNAME", "bob")

	cfg, err := ResolveClient(NewClientViper(), nil)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.Host != "chat.local" || cfg.Port != 12345 || cfg.Username != "bob" {
		t.Fatalf("unexpected config: %+v", cfg)
	}

	// Positional args still win over env.
	cfg, err = ResolveClient(NewClientViper(), []string{"127.0.0.1", "5000"})
	if err != nil {
		t.Fatalf("resolve with args: %v", err)
	}
	if cfg.Host != "127.0.0.1" || cfg.Port != 5000 || cfg.Username != "bob" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestResolveClientErrors(t *testing.T) {
	t.Setenv("CHAT_USERNAME", "")

	if _, err := ResolveClient(NewClientViper(), []string{"h", "1"}); !errors.Is(err, ErrMissingUsername) {
		t.Fatalf("expected ErrMissingUsername, got %v", err)
	}
	if _, err := ResolveClient(NewClientViper(), []string{"h", "70000", "u"}); err == nil {
		t.Fatalf("expected port error")
	}
	if _, err := ResolveClient(NewClientViper(), []string{"a", "b", "c", "d"}); err == nil {
		t.Fatalf("expected too many arguments error")
	}
}

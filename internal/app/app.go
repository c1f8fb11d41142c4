package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/linechat/internal/config"
	"github.com/vovakirdan/linechat/internal/core"
	"github.com/vovakirdan/linechat/internal/server"
	"github.com/vovakirdan/linechat/internal/store"
	"github.com/vovakirdan/linechat/internal/store/sqlite"
	transporthttp "github.com/vovakirdan/linechat/internal/transport/http"
)

// App wires together core, chat server and admin transport.
type App struct {
	cfg             *config.Config
	registry        *core.Registry
	chat            *server.Server
	admin           *stdhttp.Server
	shutdownTimeout time.Duration
	store           store.Store
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	var st store.Store = store.Nop{}
	if cfg.AuditDBPath != "" {
		sqliteStore, err := sqlite.New(cfg.AuditDBPath)
		if err != nil {
			return nil, fmt.Errorf("init store: %w", err)
		}
		st = sqliteStore
		logger.Info().Str("db_path", cfg.AuditDBPath).Msg("session journal initialized")
	}

	registry := core.NewRegistry()
	dispatcher := core.NewDispatcher(registry, logger)
	handler := server.NewHandler(dispatcher, st, server.Options{
		NameMaxLen:   cfg.NameMaxLen,
		LineMaxBytes: cfg.LineMaxBytes,
		WriteTimeout: cfg.WriteTimeout,
	}, logger)
	chat := server.New(handler, logger)

	var admin *stdhttp.Server
	if cfg.AdminAddr != "" {
		admin = transporthttp.NewServer(chat, registry, st, cfg, logger)
	}

	return &App{
		cfg:             cfg,
		registry:        registry,
		chat:            chat,
		admin:           admin,
		shutdownTimeout: cfg.ShutdownTimeout,
		store:           st,
		log:             logger,
	}, nil
}

// Registry exposes the live connection registry.
func (a *App) Registry() *core.Registry {
	return a.registry
}

// Run listens on the configured address and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.cfg.Addr)
	if err != nil {
		a.cleanup()
		return fmt.Errorf("listen %s: %w", a.cfg.Addr, err)
	}
	return a.Serve(ctx, ln)
}

// Serve runs the chat server on ln, plus the admin server when configured.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	serverErr := make(chan error, 2)

	go func() {
		serverErr <- a.chat.Serve(ctx, ln)
	}()

	if a.admin != nil {
		a.log.Info().Str("addr", a.admin.Addr).Msg("starting admin http server")
		go func() {
			if err := a.admin.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
				serverErr <- fmt.Errorf("admin http: %w", err)
				return
			}
		}()
	}

	var runErr error
	select {
	case runErr = <-serverErr:
	case <-ctx.Done():
	}
	cancel()

	a.log.Info().Msg("shutting down chat server")
	took := a.chat.Shutdown(a.shutdownTimeout)
	a.log.Info().Dur("took", took).Msg("chat server stopped")

	if a.admin != nil {
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancelShutdown()
		a.log.Info().Msg("shutting down admin http server")
		if err := a.admin.Shutdown(shutdownCtx); err != nil && runErr == nil {
			runErr = err
		}
	}

	a.cleanup()
	return runErr
}

// cleanup closes database and other resources.
func (a *App) cleanup() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
}

package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/linechat/internal/core"
	"github.com/vovakirdan/linechat/internal/proto"
	"github.com/vovakirdan/linechat/internal/store"
	"github.com/vovakirdan/linechat/internal/utils"
)

// Options tunes connection handling.
type Options struct {
	NameMaxLen   int
	LineMaxBytes int
	WriteTimeout time.Duration
}

// Handler runs the registration handshake and the relay loop for one connection at a time.
// A single Handler is shared by every connection; it holds no per-connection state.
type Handler struct {
	dispatcher *core.Dispatcher
	registry   *core.Registry
	journal    store.SessionStore
	opts       Options
	log        *zerolog.Logger
}

// NewHandler builds a handler. journal may be nil.
func NewHandler(dispatcher *core.Dispatcher, journal store.SessionStore, opts Options, logger *zerolog.Logger) *Handler {
	if journal == nil {
		journal = store.Nop{}
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	if opts.NameMaxLen <= 0 {
		opts.NameMaxLen = proto.DefaultNameMax
	}
	if opts.LineMaxBytes <= 0 {
		opts.LineMaxBytes = proto.DefaultLineMax
	}
	return &Handler{
		dispatcher: dispatcher,
		registry:   dispatcher.Registry(),
		journal:    journal,
		opts:       opts,
		log:        logger,
	}
}

// Serve owns conn until the session ends and closes it before returning.
// The returned error is nil for /leave and peer close.
func (h *Handler) Serve(ctx context.Context, conn net.Conn, transport store.Transport) error {
	defer conn.Close()

	id := utils.NewID()
	addr := remoteAddr(conn)
	log := h.log.With().Str("session_id", id).Str("remote", addr).Str("transport", string(transport)).Logger()

	lines := proto.NewLineReader(conn, h.opts.LineMaxBytes)
	peer := core.NewPeer(id, addr, conn, h.opts.WriteTimeout)

	name, err := h.register(lines, peer, &log)
	if err != nil {
		if errors.Is(err, io.EOF) || ctx.Err() != nil {
			log.Debug().Err(err).Msg("connection closed during registration")
			return nil
		}
		log.Warn().Err(err).Msg("registration aborted")
		return fmt.Errorf("register: %w", err)
	}

	reason := store.ReasonError
	defer func() {
		h.registry.Remove(name)
		h.closeJournal(id, reason, &log)
		log.Info().Str("user", name).Str("reason", string(reason)).Msg("user has left")
	}()

	h.openJournal(ctx, &store.Session{
		ID:         id,
		Username:   name,
		RemoteAddr: addr,
		Transport:  transport,
		JoinedAt:   time.Now().UTC(),
	}, &log)
	log.Info().Str("user", name).Msg("user has joined")

	reason, err = h.relay(ctx, lines, name)
	if err != nil {
		log.Warn().Err(err).Str("user", name).Msg("connection read failed")
		return fmt.Errorf("relay %s: %w", name, err)
	}
	return nil
}

// register loops until a valid, free username is claimed.
func (h *Handler) register(lines *proto.LineReader, peer *core.Peer, log *zerolog.Logger) (string, error) {
	for {
		raw, err := lines.ReadLine()
		if err != nil {
			return "", err
		}
		if lines.Truncated() {
			// An over-long name is one rejected attempt, however many pieces it spans.
			if err := lines.SkipRest(); err != nil {
				return "", err
			}
			log.Debug().Int("max", h.opts.LineMaxBytes).Msg("username line over cap")
			if werr := peer.WriteLine(proto.RejectInvalid + "\n"); werr != nil {
				return "", werr
			}
			continue
		}

		name, verr := proto.ValidateUsername(raw, h.opts.NameMaxLen)
		switch {
		case verr != nil:
			log.Debug().Err(verr).Str("raw", raw).Msg("invalid username")
			if werr := peer.WriteLine(proto.RejectInvalid + "\n"); werr != nil {
				return "", werr
			}
		default:
			rerr := h.registry.Register(name, peer)
			if rerr == nil {
				return name, nil
			}
			if !errors.Is(rerr, core.ErrNameTaken) {
				return "", rerr
			}
			log.Debug().Str("user", name).Msg("username already taken")
			if werr := peer.WriteLine(proto.RejectTaken + "\n"); werr != nil {
				return "", werr
			}
		}
	}
}

// relay forwards chat lines until /leave, peer close, cancellation or a read error.
func (h *Handler) relay(ctx context.Context, lines *proto.LineReader, name string) (store.LeaveReason, error) {
	for {
		line, err := lines.ReadLine()
		if line != "" || err == nil {
			if proto.IsLeave(line) {
				return store.ReasonLeave, nil
			}
			h.dispatcher.Dispatch(core.Message{From: name, Text: line})
		}
		if err == nil {
			continue
		}

		switch {
		case errors.Is(err, io.EOF):
			return store.ReasonPeerClosed, nil
		case ctx.Err() != nil:
			return store.ReasonShutdown, nil
		default:
			return store.ReasonError, err
		}
	}
}

func (h *Handler) openJournal(ctx context.Context, sess *store.Session, log *zerolog.Logger) {
	if err := h.journal.OpenSession(ctx, sess); err != nil {
		log.Warn().Err(err).Msg("failed to journal session start")
	}
}

func (h *Handler) closeJournal(id string, reason store.LeaveReason, log *zerolog.Logger) {
	// The serving context may already be cancelled; the end stamp must still land.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := h.journal.CloseSession(ctx, id, reason, time.Now().UTC()); err != nil {
		log.Warn().Err(err).Msg("failed to journal session end")
	}
}

func remoteAddr(conn net.Conn) string {
	if a := conn.RemoteAddr(); a != nil {
		return a.String()
	}
	return ""
}

package http

import (
	stdhttp "net/http"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/linechat/internal/server"
	"github.com/vovakirdan/linechat/internal/store"
)

// WSHandler upgrades HTTP connections and hands them to the chat server.
// Text frames carry protocol lines, each terminated by a newline.
type WSHandler struct {
	chat *server.Server
	log  *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(chat *server.Server, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{chat: chat, log: logger}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	ctx := r.Context()

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}

	// NetConn closes the websocket with a normal closure when the handler is done with it.
	netConn := websocket.NetConn(ctx, conn, websocket.MessageText)
	if err := h.chat.ServeConn(ctx, netConn, store.TransportWebSocket); err != nil {
		h.log.Warn().Err(err).Msg("ws session ended with error")
	}
}

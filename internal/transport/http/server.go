package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/linechat/internal/config"
	"github.com/vovakirdan/linechat/internal/core"
	"github.com/vovakirdan/linechat/internal/server"
	"github.com/vovakirdan/linechat/internal/store"
)

// NewServer builds the admin HTTP server: health, live users, session journal
// and the WebSocket bridge into the chat server.
func NewServer(chat *server.Server, registry *core.Registry, st store.SessionStore, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))

	admin := NewAdminHandlers(registry, st, logger)
	router.GET("/health", healthHandler)
	router.GET("/api/users", admin.ListUsers)
	router.GET("/api/sessions", admin.ListSessions)
	router.GET("/ws", gin.WrapH(NewWSHandler(chat, logger)))

	return &stdhttp.Server{
		Addr:              cfg.AdminAddr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}

package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/linechat/internal/core"
	"github.com/vovakirdan/linechat/internal/store"
)

const maxSessionsLimit = 500

// AdminHandlers exposes read-only views of the chat server.
type AdminHandlers struct {
	registry *core.Registry
	store    store.SessionStore
	log      *zerolog.Logger
}

// NewAdminHandlers creates a new admin handlers instance.
func NewAdminHandlers(registry *core.Registry, st store.SessionStore, logger *zerolog.Logger) *AdminHandlers {
	if st == nil {
		st = store.Nop{}
	}
	return &AdminHandlers{
		registry: registry,
		store:    st,
		log:      logger,
	}
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// UsersResponse lists connected usernames.
type UsersResponse struct {
	Count int      `json:"count"`
	Users []string `json:"users"`
}

// SessionResponse represents a journaled session in API responses.
type SessionResponse struct {
	ID         string  `json:"id"`
	Username   string  `json:"username"`
	RemoteAddr string  `json:"remote_addr"`
	Transport  string  `json:"transport"`
	JoinedAt   string  `json:"joined_at"`
	LeftAt     *string `json:"left_at,omitempty"`
	Reason     string  `json:"reason,omitempty"`
}

// ListUsers returns the currently registered usernames.
// GET /api/users
func (h *AdminHandlers) ListUsers(c *gin.Context) {
	names := h.registry.Names()
	c.JSON(http.StatusOK, UsersResponse{Count: len(names), Users: names})
}

// ListSessions returns recent sessions from the journal.
// GET /api/sessions?limit=N
func (h *AdminHandlers) ListSessions(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxSessionsLimit {
			ce := core.AsCoreError(core.ErrBadRequest)
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit", Code: ce.Code})
			return
		}
		limit = n
	}

	sessions, err := h.store.ListSessions(c.Request.Context(), limit)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list sessions")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	resp := make([]SessionResponse, 0, len(sessions))
	for _, s := range sessions {
		resp = append(resp, sessionToResponse(s))
	}
	c.JSON(http.StatusOK, resp)
}

func sessionToResponse(s store.Session) SessionResponse {
	out := SessionResponse{
		ID:         s.ID,
		Username:   s.Username,
		RemoteAddr: s.RemoteAddr,
		Transport:  string(s.Transport),
		JoinedAt:   s.JoinedAt.UTC().Format(time.RFC3339),
		Reason:     string(s.Reason),
	}
	if s.LeftAt != nil {
		left := s.LeftAt.UTC().Format(time.RFC3339)
		out.LeftAt = &left
	}
	return out
}

package ws

import (
	"net/http"
	"slices"
	"time"

	"ai-board-of-directors/backend/pkg/errors"
	"ai-board-of-directors/backend/pkg/logger"
	"ai-board-of-directors/backend/pkg/middleware"
	pkgws "ai-board-of-directors/backend/pkg/ws"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 512 * 1024 // 512KB
)

// NewUpgrader accepts any origin when allowed contains "*", otherwise only the listed ones
func NewUpgrader(allowed []string) *websocket.Upgrader {
	return &websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || slices.Contains(allowed, "*") || slices.Contains(allowed, origin)
		},
		HandshakeTimeout: 10 * time.Second,
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
	}
}

// Handler upgrades authenticated requests and hands the socket to the hub
type Handler struct {
	hub      *Hub
	upgrader *websocket.Upgrader
}

func NewHandler(hub *Hub, upgrader *websocket.Upgrader) *Handler {
	return &Handler{hub: hub, upgrader: upgrader}
}

// ServeWs must run behind middleware.JWTAuthMiddleware
func (h *Handler) ServeWs(c *gin.Context) {
	userID := c.GetUint(middleware.UserIDKey)
	if userID == 0 {
		_ = c.Error(errors.NewUnauthorizedError("AUTH_REQUIRED", "Authentication required"))
		return
	}

	log := logger.FromGin(c).WithUserID(userID)

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the handshake error
		log.Warn("WebSocket upgrade failed", "error", err.Error())
		return
	}

	client := newClient(h.hub, conn, userID, log)
	if !h.hub.enqueue(client) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(writeWait))
		_ = conn.Close()
		return
	}

	client.push(pkgws.Connected())

	go client.WritePump()
	go client.ReadPump()
}

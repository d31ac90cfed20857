package websocket

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/relaychat/relay/internal/chat"
)

// upgrader upgrades HTTP connections to WebSocket
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Allow connections from any origin (CORS handled by middleware)
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler handles WebSocket upgrade requests.
type Handler struct {
	server         *chat.Server
	log            zerolog.Logger
	maxMessageSize int64
}

// NewHandler creates a new WebSocket handler.
func NewHandler(server *chat.Server, log zerolog.Logger, maxMessageSize int64) *Handler {
	return &Handler{server: server, log: log, maxMessageSize: maxMessageSize}
}

// ServeWS handles WebSocket upgrade requests at /ws. Each connection gets
// a fresh connection id; a session only comes into being once the client
// sends its join event.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	connID := uuid.New().String()
	h.log.Info().Str("conn", connID).Str("remote", r.RemoteAddr).Msg("websocket connected")

	client := NewClient(connID, conn, h.server, h.log, h.maxMessageSize)
	go client.WritePump()
	go client.ReadPump()
}

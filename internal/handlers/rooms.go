package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/relaychat/relay/internal/chat"
)

// ChatHandler contains the read-only HTTP accessors over chat state.
// Every response is a point-in-time snapshot with no side effects.
type ChatHandler struct {
	server *chat.Server
}

// NewChatHandler creates a new ChatHandler instance.
func NewChatHandler(server *chat.Server) *ChatHandler {
	return &ChatHandler{server: server}
}

// ListRooms handles GET /api/rooms
// Returns the room catalog in declaration order.
func (h *ChatHandler) ListRooms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.server.Catalog())
}

// GetRoomMessages handles GET /api/rooms/{id}/messages
// Returns the room's history snapshot, oldest first.
func (h *ChatHandler) GetRoomMessages(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "id")

	history, err := h.server.History(roomID)
	if err != nil {
		if errors.Is(err, chat.ErrRoomNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "Room not found"})
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

// ListUsers handles GET /api/users
// Returns the current presence list.
func (h *ChatHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.server.Presence())
}

// ListMessages handles GET /api/messages
// Returns the global feed of recent room messages across all rooms.
func (h *ChatHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.server.Recent())
}

// writeJSON is a helper to write JSON responses with proper headers
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

package chat

import (
	"github.com/relaychat/relay/internal/models"
)

// Room is a named channel owning a bounded, ordered message history and
// the set of member connection ids.
type Room struct {
	ID   string
	Name string

	members map[string]struct{}
	history []*models.Message
}

// RoomDirectory holds the fixed room catalog. Like the Registry it is
// owned state of the chat Server and relies on the Server for
// serialization.
type RoomDirectory struct {
	rooms        map[string]*Room
	order        []string
	historyLimit int
}

// NewRoomDirectory builds a directory from a catalog. Catalog order is
// preserved so clients render a deterministic room list.
func NewRoomDirectory(catalog []models.RoomInfo, historyLimit int) *RoomDirectory {
	d := &RoomDirectory{
		rooms:        make(map[string]*Room, len(catalog)),
		historyLimit: historyLimit,
	}
	for _, info := range catalog {
		d.rooms[info.ID] = &Room{
			ID:      info.ID,
			Name:    info.Name,
			members: make(map[string]struct{}),
		}
		d.order = append(d.order, info.ID)
	}
	return d
}

// Get returns the room for an id, or nil if it is not in the catalog.
func (d *RoomDirectory) Get(roomID string) *Room {
	return d.rooms[roomID]
}

// DefaultRoomID returns the first room of the catalog, which new sessions
// are placed into on join.
func (d *RoomDirectory) DefaultRoomID() string {
	if len(d.order) == 0 {
		return ""
	}
	return d.order[0]
}

// Catalog lists the rooms in declaration order.
func (d *RoomDirectory) Catalog() []models.RoomInfo {
	out := make([]models.RoomInfo, 0, len(d.order))
	for _, id := range d.order {
		out = append(out, models.RoomInfo{ID: id, Name: d.rooms[id].Name})
	}
	return out
}

// Switch moves a connection's membership from one room to another. The
// removal from fromRoomID is a no-op if the connection is absent or the
// room unknown; the add fails with ErrRoomNotFound if toRoomID is not in
// the catalog, leaving membership unchanged. The caller updates the
// session's current room in the same critical section, keeping the
// "exactly one room" invariant.
func (d *RoomDirectory) Switch(connID, fromRoomID, toRoomID string) error {
	to, ok := d.rooms[toRoomID]
	if !ok {
		return ErrRoomNotFound
	}
	if from, ok := d.rooms[fromRoomID]; ok {
		delete(from.members, connID)
	}
	to.members[connID] = struct{}{}
	return nil
}

// Leave removes a connection from a room's member set. Unknown rooms and
// absent members are no-ops.
func (d *RoomDirectory) Leave(connID, roomID string) {
	if room, ok := d.rooms[roomID]; ok {
		delete(room.members, connID)
	}
}

// Members returns the connection ids currently in a room.
func (d *RoomDirectory) Members(roomID string) []string {
	room, ok := d.rooms[roomID]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(room.members))
	for id := range room.members {
		out = append(out, id)
	}
	return out
}

// Append stores a message in its room's history, evicting the oldest
// entry once the history limit is exceeded. This is the sole mutation
// path for room history. Returns false if the room is unknown.
func (d *RoomDirectory) Append(roomID string, msg *models.Message) bool {
	room, ok := d.rooms[roomID]
	if !ok {
		return false
	}
	room.history = append(room.history, msg)
	if len(room.history) > d.historyLimit {
		room.history = room.history[1:]
	}
	return true
}

// Snapshot returns a copy of a room's history, oldest first. Reaction
// maps are copied too, since stored messages keep being mutated by
// toggles after the snapshot is handed out.
func (d *RoomDirectory) Snapshot(roomID string) ([]models.Message, error) {
	room, ok := d.rooms[roomID]
	if !ok {
		return nil, ErrRoomNotFound
	}
	out := make([]models.Message, 0, len(room.history))
	for _, msg := range room.history {
		copied := *msg
		copied.Reactions = copyReactions(msg.Reactions)
		out = append(out, copied)
	}
	return out, nil
}

func copyReactions(reactions map[string][]string) map[string][]string {
	if reactions == nil {
		return nil
	}
	out := make(map[string][]string, len(reactions))
	for emoji, users := range reactions {
		out[emoji] = append([]string(nil), users...)
	}
	return out
}

// ToggleReaction flips username's reaction with emoji on a stored message.
// If the user already reacted with that emoji the entry is removed (and
// the emoji key dropped when its last user leaves); otherwise it is added.
// Returns a copy of the updated mapping and true, or nil and false when
// the message is not in the room's history. Messages that have already
// been evicted silently swallow the toggle.
func (d *RoomDirectory) ToggleReaction(roomID, messageID, emoji, username string) (map[string][]string, bool) {
	room, ok := d.rooms[roomID]
	if !ok {
		return nil, false
	}
	var msg *models.Message
	for _, m := range room.history {
		if m.ID == messageID {
			msg = m
			break
		}
	}
	if msg == nil {
		return nil, false
	}

	if msg.Reactions == nil {
		msg.Reactions = make(map[string][]string)
	}
	users := msg.Reactions[emoji]
	removed := false
	for i, u := range users {
		if u == username {
			users = append(users[:i], users[i+1:]...)
			removed = true
			break
		}
	}
	switch {
	case removed && len(users) == 0:
		delete(msg.Reactions, emoji)
	case removed:
		msg.Reactions[emoji] = users
	default:
		msg.Reactions[emoji] = append(users, username)
	}
	return copyReactions(msg.Reactions), true
}

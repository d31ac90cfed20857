// Package chat implements the session and room coordinator: it tracks
// which connection belongs to which user and room, routes messages to the
// right audience, maintains bounded per-room history, toggles reactions,
// tracks typing state, and acknowledges delivery to senders.
package chat

import (
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/relaychat/relay/internal/models"
)

// Server coordinates all chat state. The registry, room directory, typing
// map and recent feed are owned state reachable only through Server
// methods; a single mutex serializes every mutation so the invariants
// hold under concurrent connections. Outbound delivery goes through
// non-blocking sinks, so no operation waits on another connection.
type Server struct {
	log zerolog.Logger

	mu       sync.RWMutex
	registry *Registry
	rooms    *RoomDirectory
	typing   map[string]string // connID -> username
	recent   []models.Message  // global feed across rooms, same cap as rooms
	limit    int
}

// NewServer creates a coordinator over a fixed room catalog.
func NewServer(log zerolog.Logger, catalog []models.RoomInfo, historyLimit int) *Server {
	return &Server{
		log:      log,
		registry: NewRegistry(),
		rooms:    NewRoomDirectory(catalog, historyLimit),
		typing:   make(map[string]string),
		limit:    historyLimit,
	}
}

// Join registers a session for connID and places it in the default room.
// The joining client receives its confirmation, the room catalog and the
// default room's history; everyone receives the refreshed presence list
// and the rest of the room a join notice. A duplicate join on the same
// connection is a silent no-op so client retries stay harmless.
func (s *Server) Join(connID string, sink Sink, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.registry.Get(connID) != nil {
		s.log.Debug().Str("conn", connID).Msg("duplicate join ignored")
		droppedEventsTotal.WithLabelValues("duplicate_join").Inc()
		return nil
	}

	roomID := s.rooms.DefaultRoomID()
	sess := &Session{
		ID:       connID,
		Username: username,
		RoomID:   roomID,
		JoinedAt: time.Now().UTC(),
		sink:     sink,
	}
	if err := s.registry.Add(sess); err != nil {
		return err
	}
	if err := s.rooms.Switch(connID, "", roomID); err != nil {
		s.registry.Remove(connID)
		return err
	}

	s.send(sess, models.EventJoinConfirmed, models.JoinConfirmed{Username: username, ID: connID})
	s.send(sess, models.EventRoomsList, s.rooms.Catalog())
	if history, err := s.rooms.Snapshot(roomID); err == nil {
		s.send(sess, models.EventRoomHistory, history)
	}

	s.publishPresence()
	s.deliverToRoom(roomID, connID, models.EventUserJoined, models.UserNotice{ID: connID, Username: username})

	joinsTotal.Inc()
	connectedClients.Set(float64(s.registry.Len()))
	s.log.Info().Str("conn", connID).Str("username", username).Str("room", roomID).Msg("user joined")
	return nil
}

// SendMessage broadcasts a text message from connID to its current room,
// appends it to the room history and the global feed, and acknowledges
// delivery to the sender. Any pending typing state for the sender is
// cleared first, with a stop notice to the room, so typing indicators
// never outlive the message they preceded.
func (s *Server) SendMessage(connID, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.broadcastLocked(connID, func(msg *models.Message) {
		msg.Kind = models.KindText
		msg.Content = content
	})
}

// SendFile broadcasts a file message. The payload is trusted as-is:
// size and type gating is delegated to the accepting edge.
func (s *Server) SendFile(connID, fileName, fileType, fileData string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.broadcastLocked(connID, func(msg *models.Message) {
		msg.Kind = models.KindFile
		msg.FileName = fileName
		msg.FileType = fileType
		msg.FileData = fileData
	})
}

func (s *Server) broadcastLocked(connID string, fill func(*models.Message)) error {
	sess := s.registry.Get(connID)
	if sess == nil {
		droppedEventsTotal.WithLabelValues("not_joined").Inc()
		return ErrNotJoined
	}

	if _, ok := s.typing[connID]; ok {
		delete(s.typing, connID)
		s.deliverToRoom(sess.RoomID, connID, models.EventTypingChanged,
			models.TypingNotice{Username: sess.Username, IsTyping: false})
	}

	msg := &models.Message{
		ID:        ulid.Make().String(),
		Sender:    sess.Username,
		SenderID:  sess.ID,
		Room:      sess.RoomID,
		Timestamp: time.Now().UTC(),
		Reactions: make(map[string][]string),
		Delivered: true,
	}
	fill(msg)

	s.rooms.Append(sess.RoomID, msg)
	s.recent = append(s.recent, *msg)
	if len(s.recent) > s.limit {
		s.recent = s.recent[1:]
	}

	// Audience is every current room member, sender included: the self
	// echo re-renders the sender's own message through the same pipeline
	// as everyone else's.
	s.deliverToRoom(sess.RoomID, "", models.EventMessage, msg)
	s.send(sess, models.EventMessageDelivered, models.DeliveryAck{MessageID: msg.ID})

	messagesTotal.WithLabelValues(string(msg.Kind)).Inc()
	return nil
}

// SendPrivate routes a direct message to a single recipient connection,
// delivering an identical copy to both ends. The recipient is resolved by
// live connection id; if it has gone away nothing is delivered or echoed
// and ErrRecipientUnavailable is signaled back.
func (s *Server) SendPrivate(connID, toConnID, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.registry.Get(connID)
	if sess == nil {
		droppedEventsTotal.WithLabelValues("not_joined").Inc()
		return ErrNotJoined
	}
	recipient := s.registry.Get(toConnID)
	if recipient == nil {
		droppedEventsTotal.WithLabelValues("recipient_unavailable").Inc()
		s.send(sess, models.EventError, models.ErrorNotice{
			Code:    "recipient_unavailable",
			Message: "recipient is no longer connected",
		})
		return ErrRecipientUnavailable
	}

	msg := &models.Message{
		ID:        ulid.Make().String(),
		Sender:    sess.Username,
		SenderID:  sess.ID,
		To:        recipient.Username,
		ToID:      recipient.ID,
		Kind:      models.KindText,
		Content:   content,
		Timestamp: time.Now().UTC(),
		Private:   true,
	}

	// Private audience is exactly {sender, recipient}; the message is
	// never stored, so an offline recipient means it is simply lost.
	s.send(recipient, models.EventPrivateDelivery, msg)
	s.send(sess, models.EventPrivateDelivery, msg)

	privateMessagesTotal.Inc()
	return nil
}

// SetTyping records or clears the typing state for connID and forwards
// the change to the rest of the room, never back to the sender. Repeated
// signals are idempotent; no debounce is applied server-side.
func (s *Server) SetTyping(connID string, isTyping bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.registry.Get(connID)
	if sess == nil {
		droppedEventsTotal.WithLabelValues("not_joined").Inc()
		return ErrNotJoined
	}

	if isTyping {
		s.typing[connID] = sess.Username
	} else {
		delete(s.typing, connID)
	}
	s.deliverToRoom(sess.RoomID, connID, models.EventTypingChanged,
		models.TypingNotice{Username: sess.Username, IsTyping: isTyping})

	typingSignalsTotal.Inc()
	return nil
}

// SwitchRoom atomically moves connID's membership to roomID and then
// sends that room's history snapshot and a switch confirmation to the
// requesting connection only. Other members learn about it from the
// global presence list, not an explicit notice.
func (s *Server) SwitchRoom(connID, roomID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.registry.Get(connID)
	if sess == nil {
		droppedEventsTotal.WithLabelValues("not_joined").Inc()
		return ErrNotJoined
	}
	if err := s.rooms.Switch(connID, sess.RoomID, roomID); err != nil {
		droppedEventsTotal.WithLabelValues("room_not_found").Inc()
		s.send(sess, models.EventError, models.ErrorNotice{
			Code:    "room_not_found",
			Message: "room " + roomID + " does not exist",
		})
		return err
	}
	from := sess.RoomID
	sess.RoomID = roomID

	if history, err := s.rooms.Snapshot(roomID); err == nil {
		s.send(sess, models.EventRoomHistory, history)
	}
	s.send(sess, models.EventRoomChanged, models.RoomChanged{
		RoomID: roomID,
		Name:   s.rooms.Get(roomID).Name,
	})

	roomSwitchesTotal.Inc()
	s.log.Info().Str("conn", connID).Str("from", from).Str("to", roomID).Msg("room switched")
	return nil
}

// ToggleReaction flips the sender's reaction on a message in the current
// room's history and rebroadcasts the full updated reaction mapping to
// the room. A message id not found in the current room — evicted, from
// another room, or private — makes the toggle a silent no-op.
func (s *Server) ToggleReaction(connID, messageID, emoji string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.registry.Get(connID)
	if sess == nil {
		droppedEventsTotal.WithLabelValues("not_joined").Inc()
		return ErrNotJoined
	}

	reactions, ok := s.rooms.ToggleReaction(sess.RoomID, messageID, emoji, sess.Username)
	if !ok {
		droppedEventsTotal.WithLabelValues("unknown_message").Inc()
		s.log.Debug().Str("conn", connID).Str("message", messageID).Msg("reaction on unknown message ignored")
		return nil
	}

	s.deliverToRoom(sess.RoomID, "", models.EventReactionsUpdated,
		models.ReactionsUpdated{MessageID: messageID, Reactions: reactions})

	reactionTogglesTotal.Inc()
	return nil
}

// Disconnect tears down the session for connID: membership, typing state
// and registry entry go away, the former room gets a leave notice and
// everyone a refreshed presence list. Unknown connection ids are a no-op,
// so a disconnect racing any other operation stays harmless.
func (s *Server) Disconnect(connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.registry.Remove(connID)
	if sess == nil {
		return
	}
	s.rooms.Leave(connID, sess.RoomID)
	delete(s.typing, connID)

	s.deliverToRoom(sess.RoomID, connID, models.EventUserLeft,
		models.UserNotice{ID: connID, Username: sess.Username})
	s.publishPresence()

	connectedClients.Set(float64(s.registry.Len()))
	s.log.Info().Str("conn", connID).Str("username", sess.Username).Msg("user left")
}

// Catalog returns the room list in declaration order.
func (s *Server) Catalog() []models.RoomInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rooms.Catalog()
}

// History returns a point-in-time snapshot of a room's history.
func (s *Server) History(roomID string) ([]models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rooms.Snapshot(roomID)
}

// Recent returns the global feed of the most recent room messages.
func (s *Server) Recent() []models.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Message, 0, len(s.recent))
	for _, msg := range s.recent {
		msg.Reactions = copyReactions(msg.Reactions)
		out = append(out, msg)
	}
	return out
}

// Presence returns the current presence list.
func (s *Server) Presence() []models.UserInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.presenceLocked()
}

func (s *Server) presenceLocked() []models.UserInfo {
	out := make([]models.UserInfo, 0, s.registry.Len())
	for _, sess := range s.registry.Active() {
		out = append(out, models.UserInfo{
			ID:          sess.ID,
			Username:    sess.Username,
			CurrentRoom: sess.RoomID,
		})
	}
	return out
}

// publishPresence sends the full presence list to every session. Full
// lists, not deltas: simpler, and clients converge even after a miss.
func (s *Server) publishPresence() {
	list := s.presenceLocked()
	for _, sess := range s.registry.Active() {
		s.send(sess, models.EventUserList, list)
	}
}

// deliverToRoom sends an event to every member of a room, skipping
// excludeConnID when set. Members whose session has vanished from the
// registry are skipped silently.
func (s *Server) deliverToRoom(roomID, excludeConnID, eventType string, payload any) {
	for _, connID := range s.rooms.Members(roomID) {
		if connID == excludeConnID {
			continue
		}
		if sess := s.registry.Get(connID); sess != nil {
			s.send(sess, eventType, payload)
		}
	}
}

// send encodes and hands one event to a session's sink. A full sink means
// the connection cannot keep up; the payload is dropped here and the
// transport is expected to close the laggard.
func (s *Server) send(sess *Session, eventType string, payload any) {
	data, err := models.EncodeEvent(eventType, payload)
	if err != nil {
		s.log.Error().Err(err).Str("event", eventType).Msg("event encode failed")
		return
	}
	if !sess.sink.Send(data) {
		s.log.Warn().Str("conn", sess.ID).Str("event", eventType).Msg("send buffer full, event dropped")
	}
}

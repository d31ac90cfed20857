package chat

import "time"

// Sink delivers an encoded event to a single connection without blocking.
// Send reports false when the connection's outbound buffer is full or the
// connection is gone; the coordinator drops such clients.
type Sink interface {
	Send(payload []byte) bool
}

// Session is the live binding between a connection and a user identity
// plus current room. Created on join, mutated on room switch, destroyed
// on disconnect.
type Session struct {
	ID       string
	Username string
	RoomID   string
	JoinedAt time.Time

	sink Sink
}

// Registry maps connection ids to their sessions. It is owned state of the
// chat Server and is not safe for concurrent use on its own; the Server
// serializes all access.
type Registry struct {
	sessions map[string]*Session
}

// NewRegistry creates an empty connection registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Add registers a session for its connection id. A connection id maps to
// at most one session; adding a duplicate returns ErrAlreadyJoined.
func (r *Registry) Add(sess *Session) error {
	if _, ok := r.sessions[sess.ID]; ok {
		return ErrAlreadyJoined
	}
	r.sessions[sess.ID] = sess
	return nil
}

// Get looks up the session for a connection id, or nil if none exists.
func (r *Registry) Get(connID string) *Session {
	return r.sessions[connID]
}

// Remove deletes and returns the session for a connection id. Removing an
// unknown id is a no-op and returns nil.
func (r *Registry) Remove(connID string) *Session {
	sess, ok := r.sessions[connID]
	if !ok {
		return nil
	}
	delete(r.sessions, connID)
	return sess
}

// Active returns every registered session. Order is unspecified.
func (r *Registry) Active() []*Session {
	out := make([]*Session, 0, len(r.sessions))
	for _, sess := range r.sessions {
		out = append(out, sess)
	}
	return out
}

// Len returns the number of active sessions.
func (r *Registry) Len() int {
	return len(r.sessions)
}

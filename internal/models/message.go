package models

import "time"

// MessageKind distinguishes the payload carried by a Message.
type MessageKind string

const (
	// KindText is a plain chat message.
	KindText MessageKind = "text"

	// KindFile is a shared file with inline content.
	KindFile MessageKind = "file"
)

// Message represents a chat message routed through the server.
// Room messages are stored in bounded per-room history; private messages
// exist only as a one-time routed event and are never stored anywhere.
type Message struct {
	// ID is a ULID: a millisecond timestamp prefix plus a random suffix,
	// so ids sort by send time and cannot collide within the same ms
	ID string `json:"id"`

	// Sender is the sending user's display name
	Sender string `json:"sender"`

	// SenderID is the sending connection's id
	SenderID string `json:"senderId"`

	// Room is the room this message was broadcast to (empty for private)
	Room string `json:"room,omitempty"`

	// To and ToID identify the recipient of a private message
	To   string `json:"to,omitempty"`
	ToID string `json:"toId,omitempty"`

	// Kind is text or file
	Kind MessageKind `json:"kind"`

	// Content is the text body (empty for file messages)
	Content string `json:"content,omitempty"`

	// File fields carry an inline file payload. The content is produced by
	// the client and passed through untouched; size/type gating is the
	// accepting edge's job, not the router's.
	FileName string `json:"fileName,omitempty"`
	FileType string `json:"fileType,omitempty"`
	FileData string `json:"fileData,omitempty"`

	// Timestamp is the server receive time
	Timestamp time.Time `json:"timestamp"`

	// Private marks a direct message between two connections
	Private bool `json:"private,omitempty"`

	// Reactions maps an emoji to the usernames who reacted with it.
	// Mutated in place by reaction toggles; an emoji whose user list
	// empties out is removed rather than left dangling.
	Reactions map[string][]string `json:"reactions,omitempty"`

	// Delivered is set once the message has been accepted and stored
	Delivered bool `json:"delivered"`
}

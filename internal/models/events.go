package models

import "encoding/json"

// Envelope is the wire format for every event in both directions:
// a type tag plus a type-specific JSON payload.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Inbound event types sent by clients.
const (
	EventJoin           = "join"
	EventSendMessage    = "send_message"
	EventSendFile       = "send_file"
	EventPrivateMessage = "private_message"
	EventTyping         = "typing"
	EventJoinRoom       = "join_room"
	EventToggleReaction = "toggle_reaction"
)

// Outbound event types sent by the server.
const (
	EventJoinConfirmed    = "join_confirmed"
	EventRoomsList        = "rooms_list"
	EventRoomHistory      = "room_history"
	EventRoomChanged      = "room_changed"
	EventMessage          = "message"
	EventPrivateDelivery  = "private_message"
	EventUserList         = "user_list"
	EventUserJoined       = "user_joined"
	EventUserLeft         = "user_left"
	EventTypingChanged    = "typing"
	EventReactionsUpdated = "reactions_updated"
	EventMessageDelivered = "message_delivered"
	EventError            = "error"
)

// JoinRequest is the payload for a join event.
type JoinRequest struct {
	Username string `json:"username"`
}

// SendMessageRequest is the payload for a broadcast text message.
type SendMessageRequest struct {
	Content string `json:"content"`
}

// SendFileRequest is the payload for a broadcast file message.
// FileData is the inline content as encoded by the client.
type SendFileRequest struct {
	FileName string `json:"fileName"`
	FileType string `json:"fileType"`
	FileData string `json:"fileData"`
}

// PrivateMessageRequest is the payload for a direct message. To is the
// recipient's connection id as shown in the presence list.
type PrivateMessageRequest struct {
	To      string `json:"to"`
	Content string `json:"content"`
}

// TypingRequest is the payload for a typing signal.
type TypingRequest struct {
	IsTyping bool `json:"isTyping"`
}

// JoinRoomRequest is the payload for a room switch.
type JoinRoomRequest struct {
	RoomID string `json:"roomId"`
}

// ToggleReactionRequest is the payload for a reaction toggle.
type ToggleReactionRequest struct {
	MessageID string `json:"messageId"`
	Emoji     string `json:"emoji"`
}

// JoinConfirmed tells the joining client its identity.
type JoinConfirmed struct {
	Username string `json:"username"`
	ID       string `json:"id"`
}

// RoomChanged confirms a completed room switch to the requester.
type RoomChanged struct {
	RoomID string `json:"roomId"`
	Name   string `json:"roomName"`
}

// UserNotice announces a user joining or leaving.
type UserNotice struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// TypingNotice reports a typing state change to the rest of the room.
type TypingNotice struct {
	Username string `json:"username"`
	IsTyping bool   `json:"isTyping"`
}

// ReactionsUpdated carries the full reaction mapping for a message after a
// toggle. The whole map is sent, not a delta, so clients that missed
// intermediate toggles cannot diverge.
type ReactionsUpdated struct {
	MessageID string              `json:"messageId"`
	Reactions map[string][]string `json:"reactions"`
}

// DeliveryAck confirms to the sender that a message was accepted and
// stored. It is not a receipt of recipient consumption.
type DeliveryAck struct {
	MessageID string `json:"messageId"`
}

// ErrorNotice signals a per-operation failure back to the caller.
type ErrorNotice struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// EncodeEvent marshals a typed payload into a wire envelope.
func EncodeEvent(eventType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: eventType, Payload: raw})
}

package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/relaychat/relay/internal/chat"
	"github.com/relaychat/relay/internal/models"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Outbound buffer size per connection
	sendBufferSize = 256
)

// Client represents a single WebSocket connection. It parses inbound
// event envelopes into coordinator calls and implements chat.Sink for
// outbound delivery.
type Client struct {
	id     string
	conn   *websocket.Conn
	send   chan []byte
	server *chat.Server
	log    zerolog.Logger

	maxMessageSize int64
	closeOnce      sync.Once
}

// NewClient creates a Client for an upgraded connection.
func NewClient(id string, conn *websocket.Conn, server *chat.Server, log zerolog.Logger, maxMessageSize int64) *Client {
	return &Client{
		id:             id,
		conn:           conn,
		send:           make(chan []byte, sendBufferSize),
		server:         server,
		log:            log.With().Str("conn", id).Logger(),
		maxMessageSize: maxMessageSize,
	}
}

// Send queues an encoded event for delivery without blocking. A full
// buffer means the peer cannot keep up: the connection is closed so the
// read pump unwinds and the session is torn down.
func (c *Client) Send(payload []byte) bool {
	select {
	case c.send <- payload:
		return true
	default:
		c.closeOnce.Do(func() { c.conn.Close() })
		return false
	}
}

// ReadPump pumps events from the WebSocket connection into the
// coordinator. It runs in its own goroutine per client and tears the
// session down on exit, whatever the reason for disconnection.
func (c *Client) ReadPump() {
	defer func() {
		c.server.Disconnect(c.id)
		c.closeOnce.Do(func() { c.conn.Close() })
	}()

	c.conn.SetReadLimit(c.maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.log.Warn().Err(err).Msg("read error")
			}
			return
		}
		c.dispatch(raw)
	}
}

// dispatch decodes one inbound envelope and routes it to the coordinator.
// Malformed envelopes and per-operation failures are logged and dropped;
// neither ever ends the connection.
func (c *Client) dispatch(raw []byte) {
	var env models.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.log.Debug().Err(err).Msg("malformed event envelope")
		return
	}

	var err error
	switch env.Type {
	case models.EventJoin:
		var req models.JoinRequest
		if err = json.Unmarshal(env.Payload, &req); err == nil {
			err = c.server.Join(c.id, c, req.Username)
		}
	case models.EventSendMessage:
		var req models.SendMessageRequest
		if err = json.Unmarshal(env.Payload, &req); err == nil {
			err = c.server.SendMessage(c.id, req.Content)
		}
	case models.EventSendFile:
		var req models.SendFileRequest
		if err = json.Unmarshal(env.Payload, &req); err == nil {
			err = c.server.SendFile(c.id, req.FileName, req.FileType, req.FileData)
		}
	case models.EventPrivateMessage:
		var req models.PrivateMessageRequest
		if err = json.Unmarshal(env.Payload, &req); err == nil {
			err = c.server.SendPrivate(c.id, req.To, req.Content)
		}
	case models.EventTyping:
		var req models.TypingRequest
		if err = json.Unmarshal(env.Payload, &req); err == nil {
			err = c.server.SetTyping(c.id, req.IsTyping)
		}
	case models.EventJoinRoom:
		var req models.JoinRoomRequest
		if err = json.Unmarshal(env.Payload, &req); err == nil {
			err = c.server.SwitchRoom(c.id, req.RoomID)
		}
	case models.EventToggleReaction:
		var req models.ToggleReactionRequest
		if err = json.Unmarshal(env.Payload, &req); err == nil {
			err = c.server.ToggleReaction(c.id, req.MessageID, req.Emoji)
		}
	default:
		c.log.Debug().Str("type", env.Type).Msg("unknown event type")
		return
	}

	if err != nil {
		c.log.Debug().Err(err).Str("type", env.Type).Msg("event dropped")
	}
}

// WritePump pumps queued events to the WebSocket connection and keeps the
// peer alive with pings. It runs in its own goroutine per client.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.closeOnce.Do(func() { c.conn.Close() })
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			// Each event goes out as its own frame; concatenating would
			// break JSON parsing on the client.
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
			n := len(c.send)
			for i := 0; i < n; i++ {
				if err := c.conn.WriteMessage(websocket.TextMessage, <-c.send); err != nil {
					return
				}
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

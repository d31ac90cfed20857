package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaychat/relay/internal/chat"
	"github.com/relaychat/relay/internal/models"
)

func newTestServer(t *testing.T) (*httptest.Server, *chat.Server) {
	t.Helper()
	chatServer := chat.NewServer(zerolog.Nop(), []models.RoomInfo{
		{ID: "general", Name: "General"},
		{ID: "random", Name: "Random"},
	}, 100)
	handler := NewHandler(chatServer, zerolog.Nop(), 64*1024)

	srv := httptest.NewServer(http.HandlerFunc(handler.ServeWS))
	t.Cleanup(srv.Close)
	return srv, chatServer
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func sendEvent(t *testing.T, conn *websocket.Conn, eventType string, payload any) {
	t.Helper()
	data, err := models.EncodeEvent(eventType, payload)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))
}

// awaitEvent reads frames until one of the wanted type arrives, failing
// the test if it does not show up in time.
func awaitEvent(t *testing.T, conn *websocket.Conn, eventType string, payload any) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	require.NoError(t, conn.SetReadDeadline(deadline))
	for {
		_, raw, err := conn.ReadMessage()
		require.NoError(t, err, "waiting for %q", eventType)

		var env models.Envelope
		require.NoError(t, json.Unmarshal(raw, &env))
		if env.Type != eventType {
			continue
		}
		if payload != nil {
			require.NoError(t, json.Unmarshal(env.Payload, payload))
		}
		return
	}
}

func TestJoinOverWebSocket(t *testing.T) {
	srv, _ := newTestServer(t)
	conn := dial(t, srv)

	sendEvent(t, conn, models.EventJoin, models.JoinRequest{Username: "alice"})

	var confirmed models.JoinConfirmed
	awaitEvent(t, conn, models.EventJoinConfirmed, &confirmed)
	assert.Equal(t, "alice", confirmed.Username)
	assert.NotEmpty(t, confirmed.ID)

	var catalog []models.RoomInfo
	awaitEvent(t, conn, models.EventRoomsList, &catalog)
	assert.Len(t, catalog, 2)

	var presence []models.UserInfo
	awaitEvent(t, conn, models.EventUserList, &presence)
	require.Len(t, presence, 1)
	assert.Equal(t, "alice", presence[0].Username)
}

func TestBroadcastRoundTrip(t *testing.T) {
	srv, _ := newTestServer(t)
	alice := dial(t, srv)
	bob := dial(t, srv)

	sendEvent(t, alice, models.EventJoin, models.JoinRequest{Username: "alice"})
	awaitEvent(t, alice, models.EventJoinConfirmed, nil)
	sendEvent(t, bob, models.EventJoin, models.JoinRequest{Username: "bob"})
	awaitEvent(t, bob, models.EventJoinConfirmed, nil)

	sendEvent(t, alice, models.EventSendMessage, models.SendMessageRequest{Content: "hi room"})

	var got models.Message
	awaitEvent(t, bob, models.EventMessage, &got)
	assert.Equal(t, "alice", got.Sender)
	assert.Equal(t, "hi room", got.Content)
	assert.Equal(t, "general", got.Room)

	// sender sees its own message and the delivery ack
	var echo models.Message
	awaitEvent(t, alice, models.EventMessage, &echo)
	assert.Equal(t, got.ID, echo.ID)
	var ack models.DeliveryAck
	awaitEvent(t, alice, models.EventMessageDelivered, &ack)
	assert.Equal(t, got.ID, ack.MessageID)
}

func TestDisconnectTearsDownSession(t *testing.T) {
	srv, chatServer := newTestServer(t)
	conn := dial(t, srv)

	sendEvent(t, conn, models.EventJoin, models.JoinRequest{Username: "alice"})
	awaitEvent(t, conn, models.EventJoinConfirmed, nil)

	require.Eventually(t, func() bool {
		return len(chatServer.Presence()) == 1
	}, time.Second, 10*time.Millisecond)

	conn.Close()

	require.Eventually(t, func() bool {
		return len(chatServer.Presence()) == 0
	}, 2*time.Second, 10*time.Millisecond, "session must vanish after disconnect")
}

func TestMalformedEventsAreIgnored(t *testing.T) {
	srv, chatServer := newTestServer(t)
	conn := dial(t, srv)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	sendEvent(t, conn, "bogus_type", map[string]string{"x": "y"})
	sendEvent(t, conn, models.EventJoin, models.JoinRequest{Username: "alice"})

	var confirmed models.JoinConfirmed
	awaitEvent(t, conn, models.EventJoinConfirmed, &confirmed)
	assert.Equal(t, "alice", confirmed.Username)
	assert.Len(t, chatServer.Presence(), 1)
}

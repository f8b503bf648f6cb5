package ws

import (
	"encoding/json"
	"testing"
	"time"

	"aurumstore/backend/chat/models"
	"aurumstore/backend/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHub() *Hub {
	return NewHub(logger.New(logger.Config{Level: "error", JSON: false}))
}

func newTestClient(hub *Hub, senderID string) *Client {
	c := &Client{
		ID:       senderID + "-conn",
		SenderID: senderID,
		Send:     make(chan []byte, sendBufferSize),
		Hub:      hub,
	}
	hub.Register(c)
	return c
}

func recvEnvelope(t *testing.T, c *Client) Envelope {
	t.Helper()
	select {
	case raw := <-c.Send:
		var env Envelope
		require.NoError(t, json.Unmarshal(raw, &env))
		return env
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for envelope")
		return Envelope{}
	}
}

func assertNothingQueued(t *testing.T, c *Client) {
	t.Helper()
	select {
	case raw := <-c.Send:
		t.Fatalf("unexpected payload: %s", raw)
	default:
	}
}

func TestPublishMessageReachesChatRoomMembers(t *testing.T) {
	hub := newTestHub()
	customer := newTestClient(hub, "cust-1")
	owner := newTestClient(hub, "owner-1")
	bystander := newTestClient(hub, "cust-2")

	hub.JoinChatRoom(customer, "conv-1")
	hub.JoinChatRoom(owner, "conv-1")
	// bystander never joins conv-1

	sent := &models.Message{
		ConversationID: "conv-1",
		SenderID:       "cust-1",
		SenderRole:     models.RoleCustomer,
		Text:           "is this ring in stock?",
		CreatedAt:      time.Now().UTC().Truncate(time.Millisecond),
	}
	hub.PublishMessage("conv-1", "store-a", sent, nil)

	for _, member := range []*Client{customer, owner} {
		env := recvEnvelope(t, member)
		assert.Equal(t, EventNewMessage, env.Event)

		raw, err := json.Marshal(env.Data)
		require.NoError(t, err)
		var got models.Message
		require.NoError(t, json.Unmarshal(raw, &got))
		assert.Equal(t, sent.Text, got.Text)
		assert.Equal(t, sent.SenderID, got.SenderID)
		assert.True(t, sent.CreatedAt.Equal(got.CreatedAt))
	}
	assertNothingQueued(t, bystander)
}

func TestPublishMessageNotifiesStoreRoom(t *testing.T) {
	hub := newTestHub()
	dashboard := newTestClient(hub, "owner-1")
	hub.JoinStoreRoom(dashboard, "store-a")

	msg := &models.Message{ConversationID: "conv-1", SenderID: "cust-1", SenderRole: models.RoleCustomer, Text: "hi"}
	hub.PublishMessage("conv-1", "store-a", msg, nil)

	env := recvEnvelope(t, dashboard)
	assert.Equal(t, EventChatUpdate, env.Event)

	raw, err := json.Marshal(env.Data)
	require.NoError(t, err)
	var update ChatUpdate
	require.NoError(t, json.Unmarshal(raw, &update))
	assert.Equal(t, "conv-1", update.ConversationID)
	assert.Equal(t, "hi", update.Message.Text)
}

func TestPublishExcludesSender(t *testing.T) {
	hub := newTestHub()
	sender := newTestClient(hub, "cust-1")
	other := newTestClient(hub, "owner-1")
	hub.JoinChatRoom(sender, "conv-1")
	hub.JoinChatRoom(other, "conv-1")

	msg := &models.Message{ConversationID: "conv-1", SenderID: "cust-1", Text: "hello"}
	hub.PublishMessage("conv-1", "store-a", msg, sender)

	env := recvEnvelope(t, other)
	assert.Equal(t, EventNewMessage, env.Event)
	assertNothingQueued(t, sender)
}

func TestPublishToEmptyRoomIsSilentlyDropped(t *testing.T) {
	hub := newTestHub()
	msg := &models.Message{ConversationID: "conv-1", Text: "anyone?"}
	// Must not panic or error; polling is the fallback.
	hub.PublishMessage("conv-1", "store-a", msg, nil)
}

func TestTypingIsEphemeralRelay(t *testing.T) {
	hub := newTestHub()
	sender := newTestClient(hub, "cust-1")
	other := newTestClient(hub, "owner-1")
	hub.JoinChatRoom(sender, "conv-1")
	hub.JoinChatRoom(other, "conv-1")

	hub.PublishTyping("conv-1", "cust-1", true, sender)

	env := recvEnvelope(t, other)
	assert.Equal(t, EventUserTyping, env.Event)

	raw, err := json.Marshal(env.Data)
	require.NoError(t, err)
	var typing TypingEvent
	require.NoError(t, json.Unmarshal(raw, &typing))
	assert.Equal(t, "cust-1", typing.SenderID)
	assert.True(t, typing.IsTyping)
	assertNothingQueued(t, sender)
}

func TestUnregisterTearsDownAllMemberships(t *testing.T) {
	hub := newTestHub()
	client := newTestClient(hub, "cust-1")
	hub.JoinChatRoom(client, "conv-1")
	hub.JoinStoreRoom(client, "store-a")
	require.Equal(t, 1, hub.RoomSize(ChatRoom("conv-1")))
	require.Equal(t, 1, hub.RoomSize(StoreRoom("store-a")))

	hub.Unregister(client)

	assert.Equal(t, 0, hub.RoomSize(ChatRoom("conv-1")))
	assert.Equal(t, 0, hub.RoomSize(StoreRoom("store-a")))

	// Publishing after teardown must not panic or deliver.
	hub.PublishMessage("conv-1", "store-a", &models.Message{Text: "late"}, nil)
}

func TestJoinAfterPublishSeesOnlyFutureMessages(t *testing.T) {
	hub := newTestHub()
	late := newTestClient(hub, "cust-late")

	hub.PublishMessage("conv-1", "store-a", &models.Message{Text: "before join"}, nil)
	hub.JoinChatRoom(late, "conv-1")
	assertNothingQueued(t, late)

	hub.PublishMessage("conv-1", "store-a", &models.Message{Text: "after join"}, nil)
	env := recvEnvelope(t, late)
	assert.Equal(t, EventNewMessage, env.Event)
}

func TestConcurrentJoinAndPublish(t *testing.T) {
	hub := newTestHub()
	done := make(chan struct{})

	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			c := newTestClient(hub, "churn")
			hub.JoinChatRoom(c, "conv-1")
			hub.Unregister(c)
		}
	}()

	for i := 0; i < 50; i++ {
		hub.PublishMessage("conv-1", "store-a", &models.Message{Text: "ping"}, nil)
	}
	<-done
}

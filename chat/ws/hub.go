// Package ws is the realtime fan-out layer. It relays persisted chat
// messages to connected participants through two kinds of rooms: a store
// room ("store-{storeId}") joined by the owner dashboard, and a chat room
// ("chat-{conversationId}") joined by whoever has that conversation open.
//
// Delivery is at-most-once and best-effort. A connection that is offline at
// publish time receives nothing and reconciles through the polling read
// path; joining a room only affects future publishes.
package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"aurumstore/backend/chat/models"
	"aurumstore/backend/pkg/logger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// Event names mirror the dashboard and storefront socket protocol.
const (
	EventNewMessage = "new-message"
	EventChatUpdate = "chat-update"
	EventUserTyping = "user-typing"
	EventUserOnline = "user-online"
)

// Envelope is the wire frame for every event sent over a socket.
type Envelope struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// ChatUpdate is the summary pushed to the store room so the owner's
// conversation list refreshes without the chat room being open.
type ChatUpdate struct {
	ConversationID string          `json:"conversation_id"`
	Message        *models.Message `json:"message"`
}

// TypingEvent is ephemeral: never persisted, no delivery guarantee.
type TypingEvent struct {
	ConversationID string `json:"conversation_id"`
	SenderID       string `json:"sender_id"`
	IsTyping       bool   `json:"is_typing"`
}

func StoreRoom(storeID string) string       { return "store-" + storeID }
func ChatRoom(conversationID string) string { return "chat-" + conversationID }

// Hub is the process-wide pub/sub broker. It is created once at startup and
// torn down at shutdown; scaling beyond one process means swapping in an
// external backend behind the same publish methods.
type Hub struct {
	mu          sync.RWMutex
	clients     map[*Client]bool
	rooms       map[string]map[*Client]struct{}
	clientRooms map[*Client]map[string]struct{}

	log *logger.Logger

	publishCounter metric.Int64Counter
	connGauge      metric.Int64UpDownCounter
}

var bgCtx = context.Background()

func NewHub(log *logger.Logger) *Hub {
	meter := otel.Meter("aurumstore/chat/ws")
	publishCounter, _ := meter.Int64Counter("chat_messages_published_total")
	connGauge, _ := meter.Int64UpDownCounter("chat_ws_connections")

	return &Hub{
		clients:        make(map[*Client]bool),
		rooms:          make(map[string]map[*Client]struct{}),
		clientRooms:    make(map[*Client]map[string]struct{}),
		log:            log,
		publishCounter: publishCounter,
		connGauge:      connGauge,
	}
}

// Register tracks a new connection. It must run before the client's pumps
// start so that joins arriving on the read pump see the membership tables.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	h.clientRooms[client] = make(map[string]struct{})
	h.mu.Unlock()
	h.connGauge.Add(bgCtx, 1)
	h.log.Debug("ws client registered", "client_id", client.ID)
}

// Unregister tears down a connection and all of its room memberships.
func (h *Hub) Unregister(client *Client) {
	h.removeClient(client)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client)
	for room := range h.clientRooms[client] {
		h.leaveLocked(room, client)
	}
	delete(h.clientRooms, client)
	close(client.Send)
	h.mu.Unlock()

	h.connGauge.Add(bgCtx, -1)
	h.log.Debug("ws client unregistered", "client_id", client.ID)
}

// Join adds the client to a room. Membership is additive: a connection may
// sit in its store room and any number of chat rooms at once. There is no
// explicit leave; membership dies with the connection.
func (h *Hub) Join(room string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	members := h.rooms[room]
	if members == nil {
		members = make(map[*Client]struct{})
		h.rooms[room] = members
	}
	members[client] = struct{}{}
	h.clientRooms[client][room] = struct{}{}
}

func (h *Hub) JoinStoreRoom(client *Client, storeID string) {
	h.Join(StoreRoom(storeID), client)
}

func (h *Hub) JoinChatRoom(client *Client, conversationID string) {
	h.Join(ChatRoom(conversationID), client)
}

// PublishMessage fans a persisted message out to the conversation's chat
// room and pushes a summary to the store room. exclude, when non-nil, skips
// the originating connection (loopback suppression for socket senders).
func (h *Hub) PublishMessage(conversationID, storeID string, msg *models.Message, exclude *Client) {
	h.broadcast(ChatRoom(conversationID), Envelope{Event: EventNewMessage, Data: msg}, exclude)
	h.broadcast(StoreRoom(storeID), Envelope{
		Event: EventChatUpdate,
		Data:  ChatUpdate{ConversationID: conversationID, Message: msg},
	}, exclude)
	h.publishCounter.Add(bgCtx, 1)
}

// PublishTyping relays a typing indicator to the conversation's chat room.
func (h *Hub) PublishTyping(conversationID, senderID string, isTyping bool, exclude *Client) {
	h.broadcast(ChatRoom(conversationID), Envelope{
		Event: EventUserTyping,
		Data:  TypingEvent{ConversationID: conversationID, SenderID: senderID, IsTyping: isTyping},
	}, exclude)
}

// PublishOnline announces presence to the store room.
func (h *Hub) PublishOnline(storeID, userID string, exclude *Client) {
	h.broadcast(StoreRoom(storeID), Envelope{Event: EventUserOnline, Data: userID}, exclude)
}

// broadcast delivers the envelope to every room member. Sends never block:
// a member whose buffer is full is dropped and left to reconcile by polling.
func (h *Hub) broadcast(room string, env Envelope, exclude *Client) {
	payload, err := json.Marshal(env)
	if err != nil {
		h.log.LogError(err, "ws envelope marshal failed", "event", env.Event)
		return
	}

	// Sends stay under the read lock: they never block, and holding it keeps
	// an Unregister (which closes Send under the write lock) from racing the
	// fan-out.
	h.mu.RLock()
	var stalled []*Client
	for client := range h.rooms[room] {
		if client == exclude {
			continue
		}
		select {
		case client.Send <- payload:
		default:
			stalled = append(stalled, client)
		}
	}
	h.mu.RUnlock()
	for _, client := range stalled {
		h.log.Warn("ws client dropped, send buffer full", "client_id", client.ID, "room", room)
		h.removeClient(client)
		client.CloseConn()
	}
}

func (h *Hub) leaveLocked(room string, client *Client) {
	members := h.rooms[room]
	if members == nil {
		return
	}
	delete(members, client)
	if len(members) == 0 {
		delete(h.rooms, room)
	}
}

// RoomSize reports current membership, used by tests and the health surface.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// ConnectionCount reports how many sockets are currently registered.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) String() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return fmt.Sprintf("hub{clients=%d rooms=%d}", len(h.clients), len(h.rooms))
}

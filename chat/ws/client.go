package ws

import (
	"encoding/json"
	"net/http"
	"time"

	"aurumstore/backend/chat/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 32 * 1024 // 32KB

	// Outbound buffer per connection; overflow drops the connection
	sendBufferSize = 256
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // storefront and dashboard run on separate origins
	},
	HandshakeTimeout: 10 * time.Second,
	ReadBufferSize:   1024,
	WriteBufferSize:  1024,
}

// Client is one websocket connection tracked by the hub. SenderID is the
// participant's correlation key: an anonymous customer token or an owner
// account id, never verified here.
type Client struct {
	ID       string
	SenderID string
	Conn     *websocket.Conn
	Send     chan []byte
	Hub      *Hub
}

// inboundFrame is a client-originated event; Data is decoded per event.
type inboundFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type sendMessageFrame struct {
	ConversationID string          `json:"conversation_id"`
	StoreID        string          `json:"store_id"`
	Message        *models.Message `json:"message"`
}

type typingFrame struct {
	ConversationID string `json:"conversation_id"`
	IsTyping       bool   `json:"is_typing"`
}

type onlineFrame struct {
	StoreID string `json:"store_id"`
	UserID  string `json:"user_id"`
}

func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.log.Warn("ws read error", "client_id", c.ID, "error", err.Error())
			}
			break
		}

		var frame inboundFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			c.Hub.log.Warn("ws malformed frame", "client_id", c.ID, "error", err.Error())
			continue
		}
		c.handleFrame(frame)
	}
}

func (c *Client) handleFrame(frame inboundFrame) {
	switch frame.Event {
	case "join-store":
		var storeID string
		if err := json.Unmarshal(frame.Data, &storeID); err == nil && storeID != "" {
			c.Hub.JoinStoreRoom(c, storeID)
		}

	case "join-chat":
		var conversationID string
		if err := json.Unmarshal(frame.Data, &conversationID); err == nil && conversationID != "" {
			c.Hub.JoinChatRoom(c, conversationID)
		}

	case "send-message":
		// Relay of an already-persisted message: the sender POSTs it to the
		// gateway first and then fans it out to the other participants.
		var data sendMessageFrame
		if err := json.Unmarshal(frame.Data, &data); err != nil || data.Message == nil {
			return
		}
		c.Hub.PublishMessage(data.ConversationID, data.StoreID, data.Message, c)

	case "typing":
		var data typingFrame
		if err := json.Unmarshal(frame.Data, &data); err != nil {
			return
		}
		c.Hub.PublishTyping(data.ConversationID, c.SenderID, data.IsTyping, c)

	case "online":
		var data onlineFrame
		if err := json.Unmarshal(frame.Data, &data); err != nil {
			return
		}
		if data.UserID == "" {
			data.UserID = c.SenderID
		}
		c.Hub.PublishOnline(data.StoreID, data.UserID, c)

	case "ping":
		c.enqueue(Envelope{Event: "pong"})

	default:
		c.Hub.log.Debug("ws unknown event", "client_id", c.ID, "event", frame.Event)
	}
}

func (c *Client) enqueue(env Envelope) {
	payload, err := json.Marshal(env)
	if err != nil {
		return
	}
	select {
	case c.Send <- payload:
	default:
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

			// Drain anything queued behind the first frame.
			n := len(c.Send)
			for i := 0; i < n; i++ {
				if err := c.Conn.WriteMessage(websocket.TextMessage, <-c.Send); err != nil {
					return
				}
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// CloseConn force-closes the underlying socket, used when the hub evicts a
// stalled subscriber.
func (c *Client) CloseConn() {
	if c.Conn != nil {
		c.Conn.Close()
	}
}

// ServeWs upgrades the HTTP request and wires the connection into the hub.
// Query params: clientId (required), storeId and conversationId (optional
// initial room joins, the client may also join later via events).
func ServeWs(hub *Hub, c *gin.Context) {
	senderID := c.Query("clientId")
	if senderID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "clientId is required"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		hub.log.Warn("ws upgrade failed", "error", err.Error())
		return
	}

	client := &Client{
		ID:       uuid.NewString(),
		SenderID: senderID,
		Conn:     conn,
		Send:     make(chan []byte, sendBufferSize),
		Hub:      hub,
	}
	hub.Register(client)

	if storeID := c.Query("storeId"); storeID != "" {
		hub.JoinStoreRoom(client, storeID)
	}
	if conversationID := c.Query("conversationId"); conversationID != "" {
		hub.JoinChatRoom(client, conversationID)
	}

	go client.WritePump()
	go client.ReadPump()
}

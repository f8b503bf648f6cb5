package api

import (
	"net/http"

	"aurumstore/backend/chat/models"
	"aurumstore/backend/chat/service"
	"aurumstore/backend/pkg/errors"
	"aurumstore/backend/pkg/middleware"

	"github.com/gin-gonic/gin"
)

type ChatHandler struct {
	service *service.ChatService
}

func NewChatHandler(svc *service.ChatService) *ChatHandler {
	return &ChatHandler{service: svc}
}

type sendMessageRequest struct {
	CustomerID   string            `json:"customerId"`
	CustomerName string            `json:"customerName"`
	Text         string            `json:"text"`
	SenderRole   models.SenderRole `json:"senderRole"`
}

type sendMessageResponse struct {
	Message  *models.Message `json:"message"`
	BotReply *string         `json:"botReply"`
}

// SendMessage handles POST /stores/:storeId/chat.
func (h *ChatHandler) SendMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewBadRequestError("VALIDATION_ERROR", "malformed request body"))
		return
	}

	result, err := h.service.SendMessage(service.SendMessageInput{
		StoreID:      c.Param("storeId"),
		CustomerID:   req.CustomerID,
		CustomerName: req.CustomerName,
		Text:         req.Text,
		SenderRole:   req.SenderRole,
	})
	if err != nil {
		c.Error(err)
		return
	}

	resp := sendMessageResponse{Message: result.Message}
	if result.BotReplied {
		resp.BotReply = &result.BotReply
	}
	c.JSON(http.StatusCreated, resp)
}

// GetChats handles GET /stores/:storeId/chat and serves three read shapes,
// mirroring the storefront and dashboard polling clients:
//
//	?chatId=...     message history of one conversation
//	?customerId=... the customer's conversation + messages (may be absent)
//	(neither)       all of the store's conversations, owner token required
func (h *ChatHandler) GetChats(c *gin.Context) {
	storeID := c.Param("storeId")

	if chatID := c.Query("chatId"); chatID != "" {
		messages, err := h.service.Messages(chatID)
		if err != nil {
			c.Error(err)
			return
		}
		if messages == nil {
			messages = []models.Message{}
		}
		c.JSON(http.StatusOK, gin.H{"messages": messages})
		return
	}

	if customerID := c.Query("customerId"); customerID != "" {
		conv, messages, err := h.service.HistoryByCustomer(storeID, customerID)
		if err != nil {
			c.Error(err)
			return
		}
		if conv == nil {
			c.JSON(http.StatusOK, gin.H{"conversation": nil, "messages": []models.Message{}})
			return
		}
		c.JSON(http.StatusOK, gin.H{"conversation": conv, "messages": messages})
		return
	}

	// Owner view: the full conversation list.
	claims, ok := middleware.ClaimsFromContext(c)
	if !ok || !claims.CanAccessStore(storeID) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	conversations, err := h.service.ConversationsForStore(storeID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": conversations})
}

package models

import (
	"time"
)

// SenderRole identifies which kind of participant authored a message.
type SenderRole string

const (
	RoleCustomer   SenderRole = "customer"
	RoleStoreOwner SenderRole = "storeOwner"
	RoleAdmin      SenderRole = "admin"
)

// BotSenderID is the reserved sender id used when the auto-reply engine
// speaks on behalf of the store.
const BotSenderID = "chatbot"

// Valid reports whether the role is one of the known sender roles.
func (r SenderRole) Valid() bool {
	switch r {
	case RoleCustomer, RoleStoreOwner, RoleAdmin:
		return true
	}
	return false
}

// Conversation is the persistent thread between one customer and one store.
// Customers are anonymous: CustomerID is an opaque client-generated token,
// stable across visits but never an authenticated principal.
type Conversation struct {
	ID            string     `json:"id" gorm:"primaryKey;type:uuid"`
	StoreID       string     `json:"store_id" gorm:"index:idx_conversations_store_customer,unique;index"`
	CustomerID    string     `json:"customer_id" gorm:"index:idx_conversations_store_customer,unique"`
	CustomerName  string     `json:"customer_name"`
	LastMessage   string     `json:"last_message"`
	LastMessageAt *time.Time `json:"last_message_at" gorm:"index"`
	IsActive      bool       `json:"is_active" gorm:"default:true"`
	CreatedAt     time.Time  `json:"created_at"`
}

// Message is one immutable utterance within a conversation. There is no
// update or delete path; rows cascade away only with their conversation.
type Message struct {
	ID             uint       `json:"id" gorm:"primaryKey"`
	ConversationID string     `json:"conversation_id" gorm:"index:idx_messages_conversation_created;type:uuid"`
	SenderID       string     `json:"sender_id"`
	SenderRole     SenderRole `json:"sender_role"`
	Text           string     `json:"text"`
	CreatedAt      time.Time  `json:"created_at" gorm:"index:idx_messages_conversation_created"`
}

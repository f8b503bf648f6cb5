package repository

import (
	"errors"
	"time"

	"aurumstore/backend/chat/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ConversationRepository persists conversations and their messages.
type ConversationRepository interface {
	// FindOrCreate returns the conversation for the (store, customer) pair,
	// creating it on first contact. Safe under concurrent first messages: the
	// unique index on (store_id, customer_id) guarantees a single row.
	FindOrCreate(storeID, customerID, customerName string) (*models.Conversation, error)

	// Find is the non-creating lookup used by read-only polling. Returns
	// (nil, nil) when no conversation exists yet.
	Find(storeID, customerID string) (*models.Conversation, error)

	// AppendMessage inserts a message and refreshes the parent conversation's
	// last-message snapshot in a single transaction.
	AppendMessage(conversationID, senderID string, role models.SenderRole, text string) (*models.Message, error)

	// ListMessages returns all messages of a conversation ordered by creation
	// time ascending, insertion order breaking ties. Unbounded for now; large
	// conversations will need pagination eventually.
	ListMessages(conversationID string) ([]models.Message, error)

	// ListByStore returns a store's conversations, most recently active first.
	ListByStore(storeID string) ([]models.Conversation, error)
}

type GormConversationRepository struct {
	db *gorm.DB
}

func NewGormConversationRepository(db *gorm.DB) *GormConversationRepository {
	return &GormConversationRepository{db: db}
}

func (r *GormConversationRepository) FindOrCreate(storeID, customerID, customerName string) (*models.Conversation, error) {
	existing, err := r.Find(storeID, customerID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	if customerName == "" {
		customerName = "Customer"
	}
	conv := &models.Conversation{
		ID:           uuid.NewString(),
		StoreID:      storeID,
		CustomerID:   customerID,
		CustomerName: customerName,
		IsActive:     true,
	}
	if err := r.db.Create(conv).Error; err != nil {
		// A concurrent first message may have won the race on the unique
		// index; the row it created is the conversation we want.
		if winner, findErr := r.Find(storeID, customerID); findErr == nil && winner != nil {
			return winner, nil
		}
		return nil, err
	}
	return conv, nil
}

func (r *GormConversationRepository) Find(storeID, customerID string) (*models.Conversation, error) {
	var conv models.Conversation
	err := r.db.Where("store_id = ? AND customer_id = ?", storeID, customerID).First(&conv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *GormConversationRepository) AppendMessage(conversationID, senderID string, role models.SenderRole, text string) (*models.Message, error) {
	msg := &models.Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		SenderRole:     role,
		Text:           text,
		CreatedAt:      time.Now(),
	}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(msg).Error; err != nil {
			return err
		}
		return tx.Model(&models.Conversation{}).
			Where("id = ?", conversationID).
			Updates(map[string]interface{}{
				"last_message":    msg.Text,
				"last_message_at": msg.CreatedAt,
			}).Error
	})
	if err != nil {
		return nil, err
	}
	return msg, nil
}

func (r *GormConversationRepository) ListMessages(conversationID string) ([]models.Message, error) {
	var messages []models.Message
	err := r.db.Where("conversation_id = ?", conversationID).
		Order("created_at ASC, id ASC").
		Find(&messages).Error
	return messages, err
}

func (r *GormConversationRepository) ListByStore(storeID string) ([]models.Conversation, error) {
	var conversations []models.Conversation
	err := r.db.Where("store_id = ?", storeID).
		Order("last_message_at DESC").
		Find(&conversations).Error
	return conversations, err
}

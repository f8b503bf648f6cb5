package service

import (
	"time"

	"aurumstore/backend/chat/models"
	"aurumstore/backend/chat/repository"
	"aurumstore/backend/chatbot/engine"
	botmodels "aurumstore/backend/chatbot/models"
	"aurumstore/backend/pkg/errors"
	"aurumstore/backend/pkg/logger"
)

// ConfigProvider loads a store's auto-reply configuration. Returning
// (nil, nil) means the store has no config and the bot stays silent.
type ConfigProvider interface {
	GetByStore(storeID string) (*botmodels.AutoReplyConfig, error)
}

// Publisher fans a persisted message out to realtime subscribers. Publishing
// is best-effort; implementations must never block or fail the caller.
type Publisher interface {
	PublishMessage(conversationID, storeID string, msg *models.Message)
}

// StoreChecker verifies the target store exists before anything is written
// on its behalf.
type StoreChecker interface {
	Exists(storeID string) (bool, error)
}

// SendMessageInput is one inbound human message.
type SendMessageInput struct {
	StoreID      string
	CustomerID   string
	CustomerName string
	Text         string
	SenderRole   models.SenderRole
}

// SendMessageResult carries the persisted message and, when the rule engine
// fired, the bot's reply text. The bot reply is persisted as its own Message
// before the result is returned.
type SendMessageResult struct {
	Conversation *models.Conversation
	Message      *models.Message
	BotReply     string
	BotReplied   bool
}

// ChatService is the gateway between inbound requests and the conversation
// store, the rule engine, and the fan-out hub.
type ChatService struct {
	conversations repository.ConversationRepository
	stores        StoreChecker
	configs       ConfigProvider
	publisher     Publisher
	log           *logger.Logger
	now           func() time.Time
}

func NewChatService(conversations repository.ConversationRepository, stores StoreChecker, configs ConfigProvider, publisher Publisher, log *logger.Logger) *ChatService {
	return &ChatService{
		conversations: conversations,
		stores:        stores,
		configs:       configs,
		publisher:     publisher,
		log:           log,
		now:           time.Now,
	}
}

// SendMessage runs the inbound-message flow: validate, persist, evaluate the
// bot, persist any reply, publish. A persistence failure aborts before any
// publish; a publish failure never surfaces because the message is already
// durably stored and polling clients will pick it up.
func (s *ChatService) SendMessage(in SendMessageInput) (*SendMessageResult, error) {
	if in.CustomerID == "" || in.Text == "" {
		return nil, errors.NewBadRequestError("VALIDATION_ERROR", "customerId and text are required")
	}
	role := in.SenderRole
	if role == "" {
		role = models.RoleCustomer
	}
	if !role.Valid() {
		return nil, errors.NewBadRequestError("VALIDATION_ERROR", "unknown sender role")
	}

	exists, err := s.stores.Exists(in.StoreID)
	if err != nil {
		return nil, storageError(err)
	}
	if !exists {
		return nil, errors.NewNotFoundError("STORE_NOT_FOUND", "store does not exist")
	}

	conv, err := s.conversations.FindOrCreate(in.StoreID, in.CustomerID, in.CustomerName)
	if err != nil {
		return nil, storageError(err)
	}

	msg, err := s.conversations.AppendMessage(conv.ID, in.CustomerID, role, in.Text)
	if err != nil {
		return nil, storageError(err)
	}

	result := &SendMessageResult{Conversation: conv, Message: msg}

	// Only customer messages are evaluated; owner and admin messages, and
	// the bot's own output, never re-trigger the engine.
	var botMsg *models.Message
	if role == models.RoleCustomer {
		botMsg, err = s.evaluateBot(conv, in.StoreID, in.Text)
		if err != nil {
			return nil, err
		}
	}

	// Publishing happens only after everything is durably stored, and in
	// conversation order: the customer's message, then the bot's reply.
	s.publisher.PublishMessage(conv.ID, in.StoreID, msg)
	if botMsg != nil {
		result.BotReply = botMsg.Text
		result.BotReplied = true
		s.publisher.PublishMessage(conv.ID, in.StoreID, botMsg)
	}
	return result, nil
}

func (s *ChatService) evaluateBot(conv *models.Conversation, storeID, text string) (*models.Message, error) {
	cfg, err := s.configs.GetByStore(storeID)
	if err != nil {
		// The human message is already saved; a config read failure only
		// silences the bot for this message.
		s.log.LogError(err, "chatbot config load failed", "store_id", storeID)
		return nil, nil
	}

	reply, ok := engine.DecideReply(cfg, text, s.now())
	if !ok {
		return nil, nil
	}

	botMsg, err := s.conversations.AppendMessage(conv.ID, models.BotSenderID, models.RoleStoreOwner, reply)
	if err != nil {
		return nil, storageError(err)
	}
	return botMsg, nil
}

// HistoryByCustomer serves the polling read path before and after a realtime
// connection exists. A missing conversation is an empty result, not an error.
func (s *ChatService) HistoryByCustomer(storeID, customerID string) (*models.Conversation, []models.Message, error) {
	if customerID == "" {
		return nil, nil, errors.NewBadRequestError("VALIDATION_ERROR", "customerId is required")
	}
	conv, err := s.conversations.Find(storeID, customerID)
	if err != nil {
		return nil, nil, storageError(err)
	}
	if conv == nil {
		return nil, []models.Message{}, nil
	}
	messages, err := s.conversations.ListMessages(conv.ID)
	if err != nil {
		return nil, nil, storageError(err)
	}
	return conv, messages, nil
}

// Messages returns a conversation's messages oldest first.
func (s *ChatService) Messages(conversationID string) ([]models.Message, error) {
	messages, err := s.conversations.ListMessages(conversationID)
	if err != nil {
		return nil, storageError(err)
	}
	return messages, nil
}

// ConversationsForStore returns the owner's conversation list, most recently
// active first.
func (s *ChatService) ConversationsForStore(storeID string) ([]models.Conversation, error) {
	conversations, err := s.conversations.ListByStore(storeID)
	if err != nil {
		return nil, storageError(err)
	}
	return conversations, nil
}

func storageError(err error) error {
	if _, ok := err.(*errors.AppError); ok {
		return err
	}
	return errors.NewServiceUnavailableError("STORAGE_UNAVAILABLE", "storage is temporarily unavailable")
}

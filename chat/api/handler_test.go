package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	chatmodels "aurumstore/backend/chat/models"
	chatrepo "aurumstore/backend/chat/repository"
	chatservice "aurumstore/backend/chat/service"
	botmodels "aurumstore/backend/chatbot/models"
	botrepo "aurumstore/backend/chatbot/repository"
	botservice "aurumstore/backend/chatbot/service"
	apperrors "aurumstore/backend/pkg/errors"
	"aurumstore/backend/pkg/jwt"
	applogger "aurumstore/backend/pkg/logger"
	storemodels "aurumstore/backend/store/models"
	storerepo "aurumstore/backend/store/repository"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const testStoreID = "2f0c7f6e-9d33-4a07-b7e2-0d6c1f6f9a01"

type capturingPublisher struct {
	mu       sync.Mutex
	messages []*chatmodels.Message
}

func (p *capturingPublisher) PublishMessage(conversationID, storeID string, msg *chatmodels.Message) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, msg)
}

func (p *capturingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.messages)
}

type chatTestEnv struct {
	engine    *gin.Engine
	db        *gorm.DB
	configSvc *botservice.ConfigService
	publisher *capturingPublisher
	jwt       *jwt.Service
}

func newChatTestEnv(t *testing.T) *chatTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := filepath.Join(t.TempDir(), "chat.db") + "?_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&storemodels.Store{},
		&chatmodels.Conversation{},
		&chatmodels.Message{},
		&botmodels.AutoReplyConfig{},
		&botmodels.AutoReply{},
	))
	require.NoError(t, db.Create(&storemodels.Store{
		ID:       testStoreID,
		OwnerID:  "owner-1",
		Name:     "Golden Lotus Jewelry",
		Slug:     "golden-lotus",
		IsActive: true,
	}).Error)

	log := applogger.New(applogger.Config{Level: "error", JSON: false})
	publisher := &capturingPublisher{}
	configSvc := botservice.NewConfigService(botrepo.NewGormConfigRepository(db), nil, log)
	chatSvc := chatservice.NewChatService(
		chatrepo.NewGormConversationRepository(db),
		storerepo.NewGormStoreRepository(db, nil),
		configSvc,
		publisher,
		log,
	)

	jwtService := jwt.NewService("test-secret", time.Hour)

	engine := gin.New()
	engine.Use(apperrors.ErrorHandler())
	v1 := engine.Group("/api/v1")
	RegisterChatRoutes(v1, NewChatHandler(chatSvc), jwtService)

	return &chatTestEnv{engine: engine, db: db, configSvc: configSvc, publisher: publisher, jwt: jwtService}
}

func (env *chatTestEnv) send(t *testing.T, storeID string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req, _ := http.NewRequest(http.MethodPost, fmt.Sprintf("/api/v1/stores/%s/chat", storeID), bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	env.engine.ServeHTTP(w, req)
	return w
}

func (env *chatTestEnv) get(t *testing.T, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req, _ := http.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	env.engine.ServeHTTP(w, req)
	return w
}

// seedAlwaysOnConfig installs a config whose hours never parse, so keyword
// matching is active regardless of the wall clock the test runs under.
func seedAlwaysOnConfig(t *testing.T, env *chatTestEnv, replies ...botmodels.AutoReply) {
	t.Helper()
	cfg := botmodels.NewDefaultConfig(testStoreID)
	cfg.HoursStart = ""
	cfg.HoursEnd = ""
	cfg.AutoReplies = replies
	require.NoError(t, env.configSvc.Update(cfg))
}

func TestSendMessageCreated(t *testing.T) {
	env := newChatTestEnv(t)

	w := env.send(t, testStoreID, gin.H{
		"customerId":   "cust-1",
		"customerName": "Linh",
		"text":         "Is the 24k bracelet in stock?",
	}, "")

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Message  *chatmodels.Message `json:"message"`
		BotReply *string             `json:"botReply"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Message)
	assert.Equal(t, "Is the 24k bracelet in stock?", resp.Message.Text)
	assert.Equal(t, "cust-1", resp.Message.SenderID)
	assert.Nil(t, resp.BotReply)
	assert.Equal(t, 1, env.publisher.count())
}

func TestSendMessageKeywordReply(t *testing.T) {
	env := newChatTestEnv(t)
	seedAlwaysOnConfig(t, env, botmodels.AutoReply{Keyword: "price", Response: "Gold prices update daily, see our price board."})

	w := env.send(t, testStoreID, gin.H{
		"customerId": "cust-1",
		"text":       "What is the PRICE of this ring?",
	}, "")

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		BotReply *string `json:"botReply"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.BotReply)
	assert.Equal(t, "Gold prices update daily, see our price board.", *resp.BotReply)

	// Both the customer message and the bot reply were persisted and published.
	var count int64
	require.NoError(t, env.db.Model(&chatmodels.Message{}).Count(&count).Error)
	assert.EqualValues(t, 2, count)
	assert.Equal(t, 2, env.publisher.count())
}

func TestSendMessageUnknownStore(t *testing.T) {
	env := newChatTestEnv(t)

	w := env.send(t, "no-such-store", gin.H{
		"customerId": "cust-1",
		"text":       "hello",
	}, "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "STORE_NOT_FOUND")
	assert.Equal(t, 0, env.publisher.count())
}

func TestSendMessageMalformedBody(t *testing.T) {
	env := newChatTestEnv(t)

	req, _ := http.NewRequest(http.MethodPost, "/api/v1/stores/"+testStoreID+"/chat", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	env.engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "VALIDATION_ERROR")
}

func TestGetChatsByCustomerAbsent(t *testing.T) {
	env := newChatTestEnv(t)

	w := env.get(t, "/api/v1/stores/"+testStoreID+"/chat?customerId=ghost", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"conversation":null`)
	assert.Contains(t, w.Body.String(), `"messages":[]`)
}

func TestGetChatsByCustomer(t *testing.T) {
	env := newChatTestEnv(t)
	env.send(t, testStoreID, gin.H{"customerId": "cust-1", "text": "first"}, "")
	env.send(t, testStoreID, gin.H{"customerId": "cust-1", "text": "second"}, "")

	w := env.get(t, "/api/v1/stores/"+testStoreID+"/chat?customerId=cust-1", "")

	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Conversation *chatmodels.Conversation `json:"conversation"`
		Messages     []chatmodels.Message     `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Conversation)
	require.Len(t, resp.Messages, 2)
	assert.Equal(t, "first", resp.Messages[0].Text)
	assert.Equal(t, "second", resp.Messages[1].Text)
	assert.Equal(t, "second", resp.Conversation.LastMessage)
}

func TestGetChatsByChatID(t *testing.T) {
	env := newChatTestEnv(t)
	env.send(t, testStoreID, gin.H{"customerId": "cust-1", "text": "hello"}, "")

	var conv chatmodels.Conversation
	require.NoError(t, env.db.First(&conv).Error)

	w := env.get(t, "/api/v1/stores/"+testStoreID+"/chat?chatId="+conv.ID, "")

	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Messages []chatmodels.Message `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Messages, 1)
	assert.Equal(t, "hello", resp.Messages[0].Text)
}

func TestGetChatsByChatIDUnknownIsEmptyList(t *testing.T) {
	env := newChatTestEnv(t)

	w := env.get(t, "/api/v1/stores/"+testStoreID+"/chat?chatId=no-such-conversation", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"messages":[]`)
}

func TestGetChatsOwnerListRequiresToken(t *testing.T) {
	env := newChatTestEnv(t)

	w := env.get(t, "/api/v1/stores/"+testStoreID+"/chat", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGetChatsOwnerListWrongStoreRejected(t *testing.T) {
	env := newChatTestEnv(t)
	token, err := env.jwt.GenerateToken("owner-2", "other@example.com", "another-store", jwt.RoleStoreOwner)
	require.NoError(t, err)

	w := env.get(t, "/api/v1/stores/"+testStoreID+"/chat", token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGetChatsOwnerList(t *testing.T) {
	env := newChatTestEnv(t)
	env.send(t, testStoreID, gin.H{"customerId": "cust-1", "text": "one"}, "")
	env.send(t, testStoreID, gin.H{"customerId": "cust-2", "text": "two"}, "")

	token, err := env.jwt.GenerateToken("owner-1", "owner@example.com", testStoreID, jwt.RoleStoreOwner)
	require.NoError(t, err)

	w := env.get(t, "/api/v1/stores/"+testStoreID+"/chat", token)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Conversations []chatmodels.Conversation `json:"conversations"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Conversations, 2)
}

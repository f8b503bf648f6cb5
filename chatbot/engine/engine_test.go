package engine

import (
	"testing"
	"time"

	"aurumstore/backend/chatbot/models"

	"github.com/stretchr/testify/assert"
)

func testConfig() *models.AutoReplyConfig {
	return &models.AutoReplyConfig{
		StoreID:        "store-1",
		HoursStart:     "09:00",
		HoursEnd:       "18:00",
		OutsideMessage: "We're closed, back at 9am!",
		IsActive:       true,
		AutoReplies: []models.AutoReply{
			{Keyword: "Ship", Response: "A"},
			{Keyword: "shipping", Response: "B"},
			{Keyword: "return", Response: "Returns accepted within 14 days."},
		},
	}
}

func at(hour int) time.Time {
	return time.Date(2025, 6, 15, hour, 30, 0, 0, time.Local)
}

func TestDecideReplyNilConfig(t *testing.T) {
	reply, ok := DecideReply(nil, "hello", at(12))
	assert.False(t, ok)
	assert.Empty(t, reply)
}

func TestDecideReplyInactiveConfig(t *testing.T) {
	cfg := testConfig()
	cfg.IsActive = false

	_, ok := DecideReply(cfg, "shipping?", at(12))
	assert.False(t, ok)
}

func TestDecideReplyOutsideHours(t *testing.T) {
	cfg := testConfig()

	reply, ok := DecideReply(cfg, "hello", at(20))
	assert.True(t, ok)
	assert.Equal(t, cfg.OutsideMessage, reply)
}

func TestDecideReplyOutsideHoursDominatesKeyword(t *testing.T) {
	cfg := testConfig()

	// Text matches a keyword, but the outside-hours message still wins.
	reply, ok := DecideReply(cfg, "what about shipping?", at(20))
	assert.True(t, ok)
	assert.Equal(t, cfg.OutsideMessage, reply)
}

func TestDecideReplyHourBoundaries(t *testing.T) {
	cfg := testConfig()

	// Exactly the start hour is inside the window.
	_, ok := DecideReply(cfg, "no keyword here", at(9))
	assert.False(t, ok)

	// Exactly the end hour is already outside.
	reply, ok := DecideReply(cfg, "no keyword here", at(18))
	assert.True(t, ok)
	assert.Equal(t, cfg.OutsideMessage, reply)

	// Just before the start hour is outside.
	reply, ok = DecideReply(cfg, "no keyword here", at(8))
	assert.True(t, ok)
	assert.Equal(t, cfg.OutsideMessage, reply)
}

func TestDecideReplyFirstMatchWins(t *testing.T) {
	cfg := testConfig()

	// "Ship" is listed before "shipping", so it wins even though the longer
	// keyword also matches.
	reply, ok := DecideReply(cfg, "What about SHIPPING?", at(12))
	assert.True(t, ok)
	assert.Equal(t, "A", reply)
}

func TestDecideReplyCaseInsensitive(t *testing.T) {
	cfg := testConfig()

	reply, ok := DecideReply(cfg, "CAN I RETURN THIS?", at(12))
	assert.True(t, ok)
	assert.Equal(t, "Returns accepted within 14 days.", reply)
}

func TestDecideReplyNoMatch(t *testing.T) {
	cfg := testConfig()

	_, ok := DecideReply(cfg, "do you sell earrings?", at(12))
	assert.False(t, ok)
}

func TestDecideReplyEmptyKeywordList(t *testing.T) {
	cfg := testConfig()
	cfg.AutoReplies = nil

	_, ok := DecideReply(cfg, "hello", at(12))
	assert.False(t, ok)
}

func TestDecideReplyEmptyKeywordSkipped(t *testing.T) {
	cfg := testConfig()
	cfg.AutoReplies = []models.AutoReply{
		{Keyword: "", Response: "never"},
		{Keyword: "gold", Response: "24 karat"},
	}

	reply, ok := DecideReply(cfg, "is this gold?", at(12))
	assert.True(t, ok)
	assert.Equal(t, "24 karat", reply)
}

func TestDecideReplyMalformedHoursSkipsWindowCheck(t *testing.T) {
	cfg := testConfig()
	cfg.HoursStart = "whenever"

	reply, ok := DecideReply(cfg, "shipping cost?", at(3))
	assert.True(t, ok)
	assert.Equal(t, "A", reply)
}

func TestDecideReplyIsDeterministic(t *testing.T) {
	cfg := testConfig()
	now := at(12)

	first, okFirst := DecideReply(cfg, "What about SHIPPING?", now)
	for i := 0; i < 10; i++ {
		reply, ok := DecideReply(cfg, "What about SHIPPING?", now)
		assert.Equal(t, okFirst, ok)
		assert.Equal(t, first, reply)
	}
}

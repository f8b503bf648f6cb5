package models

import (
	"encoding/json"
	"time"
)

// AutoReply pairs a trigger keyword with the canned response the bot sends
// when the keyword appears in a customer message. Position is the match
// priority: the first matching entry wins.
type AutoReply struct {
	ID       uint   `json:"-" gorm:"primaryKey"`
	ConfigID uint   `json:"-" gorm:"index"`
	Position int    `json:"-"`
	Keyword  string `json:"keyword"`
	Response string `json:"response"`
}

// WorkingHours is the daily window during which keyword replies are active.
// Start and End are "HH:MM" strings; only the hour component participates in
// the comparison (parity with the original platform behavior).
type WorkingHours struct {
	Start          string `json:"start"`
	End            string `json:"end"`
	Timezone       string `json:"timezone"`
	OutsideMessage string `json:"outsideMessage"`
}

// AutoReplyConfig is the per-store chatbot configuration. A store owns at
// most one config; a missing config means the bot is disabled.
type AutoReplyConfig struct {
	ID              uint        `json:"-" gorm:"primaryKey"`
	StoreID         string      `json:"store_id" gorm:"uniqueIndex"`
	GreetingMessage string      `json:"greeting_message"`
	AutoReplies     []AutoReply `json:"auto_replies" gorm:"foreignKey:ConfigID;constraint:OnDelete:CASCADE"`
	HoursStart      string      `json:"-"`
	HoursEnd        string      `json:"-"`
	HoursTimezone   string      `json:"-"`
	OutsideMessage  string      `json:"-"`
	IsActive        bool        `json:"is_active"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// WorkingHours assembles the flattened hour columns into the wire shape.
func (c *AutoReplyConfig) WorkingHours() WorkingHours {
	return WorkingHours{
		Start:          c.HoursStart,
		End:            c.HoursEnd,
		Timezone:       c.HoursTimezone,
		OutsideMessage: c.OutsideMessage,
	}
}

// SetWorkingHours writes the wire shape back into the flattened columns.
func (c *AutoReplyConfig) SetWorkingHours(h WorkingHours) {
	c.HoursStart = h.Start
	c.HoursEnd = h.End
	c.HoursTimezone = h.Timezone
	c.OutsideMessage = h.OutsideMessage
}

type configJSON struct {
	StoreID         string       `json:"store_id"`
	GreetingMessage string       `json:"greeting_message"`
	AutoReplies     []AutoReply  `json:"auto_replies"`
	WorkingHours    WorkingHours `json:"working_hours"`
	IsActive        bool         `json:"is_active"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

// MarshalJSON presents the flattened hour columns as a nested working_hours
// object, the shape both the dashboard and the config cache rely on.
func (c AutoReplyConfig) MarshalJSON() ([]byte, error) {
	return json.Marshal(configJSON{
		StoreID:         c.StoreID,
		GreetingMessage: c.GreetingMessage,
		AutoReplies:     c.AutoReplies,
		WorkingHours:    c.WorkingHours(),
		IsActive:        c.IsActive,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	})
}

func (c *AutoReplyConfig) UnmarshalJSON(data []byte) error {
	var raw configJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	c.StoreID = raw.StoreID
	c.GreetingMessage = raw.GreetingMessage
	c.AutoReplies = raw.AutoReplies
	c.SetWorkingHours(raw.WorkingHours)
	c.IsActive = raw.IsActive
	c.CreatedAt = raw.CreatedAt
	c.UpdatedAt = raw.UpdatedAt
	return nil
}

// Defaults used when a store is created without explicit chatbot settings.
const (
	DefaultGreeting       = "Welcome! How can I help you today?"
	DefaultHoursStart     = "09:00"
	DefaultHoursEnd       = "18:00"
	DefaultTimezone       = "UTC"
	DefaultOutsideMessage = "We're currently offline. We'll get back to you during business hours!"
)

// NewDefaultConfig returns the config seeded for a freshly created store.
func NewDefaultConfig(storeID string) *AutoReplyConfig {
	return &AutoReplyConfig{
		StoreID:         storeID,
		GreetingMessage: DefaultGreeting,
		HoursStart:      DefaultHoursStart,
		HoursEnd:        DefaultHoursEnd,
		HoursTimezone:   DefaultTimezone,
		OutsideMessage:  DefaultOutsideMessage,
		IsActive:        true,
	}
}

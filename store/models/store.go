package models

import (
	"time"
)

// Store is the tenant record. Full store management (registration, products,
// orders) lives outside the chat core; the chat layer only needs existence
// and identity.
type Store struct {
	ID          string    `json:"id" gorm:"primaryKey;type:uuid"`
	OwnerID     string    `json:"owner_id" gorm:"index;type:uuid"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug" gorm:"uniqueIndex"`
	Description string    `json:"description"`
	IsActive    bool      `json:"is_active" gorm:"default:true"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

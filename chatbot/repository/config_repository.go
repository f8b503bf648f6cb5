package repository

import (
	"errors"

	"aurumstore/backend/chatbot/models"

	"gorm.io/gorm"
)

// ConfigRepository persists per-store chatbot configuration.
type ConfigRepository interface {
	// GetByStore returns (nil, nil) when the store has no config yet; an
	// absent config means the bot is disabled.
	GetByStore(storeID string) (*models.AutoReplyConfig, error)

	// Upsert replaces the store's config, creating it if absent.
	Upsert(config *models.AutoReplyConfig) error

	// SeedDefaults creates the default config for a new store. No-op when a
	// config already exists.
	SeedDefaults(storeID string) (*models.AutoReplyConfig, error)
}

type GormConfigRepository struct {
	db *gorm.DB
}

func NewGormConfigRepository(db *gorm.DB) *GormConfigRepository {
	return &GormConfigRepository{db: db}
}

func (r *GormConfigRepository) GetByStore(storeID string) (*models.AutoReplyConfig, error) {
	var cfg models.AutoReplyConfig
	err := r.db.Preload("AutoReplies", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC, id ASC")
	}).Where("store_id = ?", storeID).First(&cfg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (r *GormConfigRepository) Upsert(config *models.AutoReplyConfig) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var existing models.AutoReplyConfig
		err := tx.Where("store_id = ?", config.StoreID).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			// fresh config, fall through to create
		case err != nil:
			return err
		default:
			config.ID = existing.ID
			config.CreatedAt = existing.CreatedAt
			// Keyword list is replaced wholesale; positions encode priority.
			if err := tx.Where("config_id = ?", existing.ID).Delete(&models.AutoReply{}).Error; err != nil {
				return err
			}
		}

		for i := range config.AutoReplies {
			config.AutoReplies[i].ID = 0
			config.AutoReplies[i].ConfigID = config.ID
			config.AutoReplies[i].Position = i
		}
		return tx.Save(config).Error
	})
}

func (r *GormConfigRepository) SeedDefaults(storeID string) (*models.AutoReplyConfig, error) {
	existing, err := r.GetByStore(storeID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	cfg := models.NewDefaultConfig(storeID)
	if err := r.db.Create(cfg).Error; err != nil {
		return nil, err
	}
	return cfg, nil
}

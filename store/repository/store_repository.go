package repository

import (
	"errors"

	"aurumstore/backend/pkg/cache"
	"aurumstore/backend/store/models"

	"gorm.io/gorm"
)

// StoreRepository is the chat core's view of the tenant table.
type StoreRepository interface {
	GetByID(storeID string) (*models.Store, error)
	// Exists reports whether the store is present and active. Results are
	// memoized in-process: the check runs on every inbound chat message.
	Exists(storeID string) (bool, error)
}

type GormStoreRepository struct {
	db    *gorm.DB
	cache *cache.Cache
}

func NewGormStoreRepository(db *gorm.DB, c *cache.Cache) *GormStoreRepository {
	return &GormStoreRepository{db: db, cache: c}
}

func (r *GormStoreRepository) GetByID(storeID string) (*models.Store, error) {
	var store models.Store
	err := r.db.Where("id = ?", storeID).First(&store).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &store, nil
}

func (r *GormStoreRepository) Exists(storeID string) (bool, error) {
	key := "store:exists:" + storeID
	if r.cache != nil {
		if v, ok := r.cache.Get(key); ok {
			if exists, ok := v.(bool); ok {
				return exists, nil
			}
		}
	}

	var count int64
	err := r.db.Model(&models.Store{}).
		Where("id = ? AND is_active = ?", storeID, true).
		Count(&count).Error
	if err != nil {
		return false, err
	}

	exists := count > 0
	if r.cache != nil && exists {
		// Only positive results are cached; a store created moments ago
		// must become visible without waiting out a TTL.
		r.cache.Set(key, true)
	}
	return exists, nil
}

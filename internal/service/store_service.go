package service

import (
	"context"
	"errors"
	"time"

	"github.com/SamuelMMedeiros/BV-Celular-sub002/internal/model"
	"github.com/SamuelMMedeiros/BV-Celular-sub002/prometheus"

	"gorm.io/gorm"
)

// StoreService persists stores
type StoreService struct {
	db *gorm.DB
}

// NewStoreService creates a new store service
func NewStoreService(db *gorm.DB) *StoreService {
	return &StoreService{db: db}
}

// List returns stores ordered by name
func (s *StoreService) List(ctx context.Context, activeOnly bool) ([]model.Store, error) {
	defer prometheus.TrackDBOperation("store_list")(time.Now())

	query := s.db.WithContext(ctx).Order("name ASC")
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}

	var stores []model.Store
	if err := query.Find(&stores).Error; err != nil {
		return nil, err
	}
	return stores, nil
}

// Get returns a single store
func (s *StoreService) Get(ctx context.Context, id uint) (*model.Store, error) {
	var store model.Store
	err := s.db.WithContext(ctx).First(&store, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &store, nil
}

// Create inserts a store
func (s *StoreService) Create(ctx context.Context, in model.StoreInsert) (*model.Store, error) {
	defer prometheus.TrackDBOperation("store_create")(time.Now())

	store := in.ToStore()
	if err := s.db.WithContext(ctx).Create(&store).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

// Update applies a partial update
func (s *StoreService) Update(ctx context.Context, id uint, up model.StoreUpdate) (*model.Store, error) {
	defer prometheus.TrackDBOperation("store_update")(time.Now())

	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if changes := up.Changes(); len(changes) > 0 {
		if err := s.db.WithContext(ctx).Model(&model.Store{}).Where("id = ?", id).Updates(changes).Error; err != nil {
			return nil, err
		}
	}
	return s.Get(ctx, id)
}

// Delete soft-deletes a store
func (s *StoreService) Delete(ctx context.Context, id uint) error {
	defer prometheus.TrackDBOperation("store_delete")(time.Now())

	result := s.db.WithContext(ctx).Delete(&model.Store{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

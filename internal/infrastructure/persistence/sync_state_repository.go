package persistence

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/parcelscan/backend/internal/domain/orders"
	"github.com/parcelscan/backend/internal/infrastructure/persistence/models"
)

// GormSyncStateRepository implements orders.SyncStateRepository using GORM
type GormSyncStateRepository struct {
	db *gorm.DB
}

// NewGormSyncStateRepository creates a new GormSyncStateRepository
func NewGormSyncStateRepository(db *gorm.DB) *GormSyncStateRepository {
	return &GormSyncStateRepository{db: db}
}

var _ orders.SyncStateRepository = (*GormSyncStateRepository)(nil)

// Get returns the state row for a sync type.
func (r *GormSyncStateRepository) Get(ctx context.Context, syncType string) (*orders.SyncJobState, error) {
	var model models.OrderSyncStatusModel
	if err := r.db.WithContext(ctx).
		Where("sync_type = ?", syncType).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, orders.ErrSyncStateNotFound
		}
		return nil, err
	}
	return model.ToDomain()
}

// Save upserts the state row.
func (r *GormSyncStateRepository) Save(ctx context.Context, state *orders.SyncJobState) error {
	var model models.OrderSyncStatusModel
	if err := model.FromDomain(state); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Save(&model).Error
}

// EnsureExists creates the state row in idle status if it is missing.
func (r *GormSyncStateRepository) EnsureExists(ctx context.Context, syncType string) error {
	model := models.OrderSyncStatusModel{
		SyncType:  syncType,
		Status:    orders.SyncStatusIdle.String(),
		UpdatedAt: time.Now().UTC(),
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model).Error
}

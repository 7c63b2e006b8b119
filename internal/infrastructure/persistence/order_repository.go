package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/parcelscan/backend/internal/domain/orders"
	"github.com/parcelscan/backend/internal/infrastructure/persistence/models"
)

// GormOrderRepository implements orders.OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

var _ orders.OrderRepository = (*GormOrderRepository)(nil)

// FindByRemoteID finds an order by its remote identifier, items included.
func (r *GormOrderRepository) FindByRemoteID(ctx context.Context, remoteOrderID string) (*orders.Order, error) {
	var model models.OrderModel
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Items.Options").
		Where("remote_order_id = ?", remoteOrderID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, orders.ErrOrderNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save upserts the order header keyed by the remote identifier. Line items
// are written separately through ReplaceLineItems.
func (r *GormOrderRepository) Save(ctx context.Context, order *orders.Order) error {
	model := models.OrderModelFromDomain(order)
	return r.db.WithContext(ctx).
		Omit(clause.Associations).
		Save(model).Error
}

// ReplaceLineItems deletes the order's line items and options, then inserts
// the given set. Options are removed explicitly rather than relying on the
// foreign key cascade.
func (r *GormOrderRepository) ReplaceLineItems(ctx context.Context, orderID uuid.UUID, items []orders.LineItem) error {
	db := r.db.WithContext(ctx)

	itemIDs := db.Model(&models.OrderLineItemModel{}).
		Select("id").
		Where("order_id = ?", orderID)
	if err := db.
		Where("line_item_id IN (?)", itemIDs).
		Delete(&models.OrderLineItemOptionModel{}).Error; err != nil {
		return err
	}
	if err := db.
		Where("order_id = ?", orderID).
		Delete(&models.OrderLineItemModel{}).Error; err != nil {
		return err
	}

	if len(items) == 0 {
		return nil
	}
	itemModels := make([]models.OrderLineItemModel, len(items))
	for i := range items {
		itemModels[i] = *models.OrderLineItemModelFromDomain(&items[i])
	}
	return db.Create(&itemModels).Error
}

// MarkScanned flags an order as scanned by its tracking number.
func (r *GormOrderRepository) MarkScanned(ctx context.Context, trackingNumber string, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&models.OrderModel{}).
		Where("tracking_number = ?", trackingNumber).
		Updates(map[string]interface{}{
			"scanned_status": true,
			"scanned_at":     at,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return orders.ErrOrderNotFound
	}
	return nil
}

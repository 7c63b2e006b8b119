package persistence

import (
	"context"

	"gorm.io/gorm"

	"github.com/parcelscan/backend/internal/domain/orders"
)

// GormStore implements orders.Store. Repositories obtained from a store
// share its gorm handle, so repositories from the store passed to an
// Atomically callback run on the callback's transaction.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GormStore
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

var _ orders.Store = (*GormStore)(nil)

// Orders returns the order repository bound to this store's handle.
func (s *GormStore) Orders() orders.OrderRepository {
	return NewGormOrderRepository(s.db)
}

// SyncStates returns the sync-state repository bound to this store's handle.
func (s *GormStore) SyncStates() orders.SyncStateRepository {
	return NewGormSyncStateRepository(s.db)
}

// Atomically runs fn inside a transaction. An error from fn rolls back.
func (s *GormStore) Atomically(ctx context.Context, fn func(orders.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewGormStore(tx))
	})
}

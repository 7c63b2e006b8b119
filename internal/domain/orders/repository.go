package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// OrderRepository persists mirrored orders and their line items.
type OrderRepository interface {
	// FindByRemoteID looks up an order by its remote identifier.
	// Returns ErrOrderNotFound when no order matches.
	FindByRemoteID(ctx context.Context, remoteOrderID string) (*Order, error)

	// Save inserts or updates the order header. Line items are managed
	// separately through ReplaceLineItems.
	Save(ctx context.Context, order *Order) error

	// ReplaceLineItems removes every line item (and option) attached to
	// the order and inserts the given set in their place.
	ReplaceLineItems(ctx context.Context, orderID uuid.UUID, items []LineItem) error

	// MarkScanned flags the order carrying the given tracking number as
	// physically scanned at the given time. Scanners read the tracking
	// barcode off the shipping label, so the lookup is keyed on it.
	// Returns ErrOrderNotFound when no order matches.
	MarkScanned(ctx context.Context, trackingNumber string, at time.Time) error
}

// SyncStateRepository persists per-job sync state rows.
type SyncStateRepository interface {
	// Get returns the state row for a sync type.
	// Returns ErrSyncStateNotFound when the row does not exist.
	Get(ctx context.Context, syncType string) (*SyncJobState, error)

	// Save upserts the state row.
	Save(ctx context.Context, state *SyncJobState) error

	// EnsureExists creates the state row in idle status if it is missing.
	EnsureExists(ctx context.Context, syncType string) error
}

// Store groups the repositories behind a shared transaction boundary.
type Store interface {
	Orders() OrderRepository
	SyncStates() SyncStateRepository

	// Atomically runs fn inside a transaction. Every repository obtained
	// from the Store passed to fn operates on that transaction. An error
	// from fn rolls the transaction back.
	Atomically(ctx context.Context, fn func(Store) error) error
}

package orders

import "errors"

var (
	// ErrOrderNotFound indicates no local order exists for the given identifier.
	ErrOrderNotFound = errors.New("orders: order not found")

	// ErrSyncStateNotFound indicates the sync status row has not been initialized.
	ErrSyncStateNotFound = errors.New("orders: sync state not found")

	// ErrMalformedRecord indicates a remote order record with an unusable shape
	// (missing identifier, unparseable monetary value). Recoverable: the caller
	// skips the record and continues with the rest of the page.
	ErrMalformedRecord = errors.New("orders: malformed remote order record")

	// Source errors, surfaced by the order source client after its internal
	// retries are exhausted.
	ErrSourceUnavailable     = errors.New("orders: order source unavailable")
	ErrSourceRequestFailed   = errors.New("orders: order source request failed")
	ErrSourceRateLimited     = errors.New("orders: order source rate limited")
	ErrSourceInvalidResponse = errors.New("orders: invalid order source response")
)

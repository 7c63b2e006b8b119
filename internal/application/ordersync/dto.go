package ordersync

import (
	"errors"
	"time"

	"github.com/parcelscan/backend/internal/domain/orders"
)

// Status is the read model of the sync job, polled by external consumers.
// CanResume is informational; the service re-derives it on invocation.
type Status struct {
	Status          orders.SyncJobStatus `json:"status"`
	LastSyncAt      *time.Time           `json:"last_sync_at,omitempty"`
	LastSyncCount   int                  `json:"last_sync_count"`
	CurrentPage     int                  `json:"current_page"`
	SyncedSoFar     int                  `json:"synced_so_far"`
	ProgressMessage string               `json:"progress_message"`
	ErrorMessage    string               `json:"error_message,omitempty"`
	CanResume       bool                 `json:"can_resume"`
	UpdatedAt       time.Time            `json:"updated_at"`
}

func newStatus(state *orders.SyncJobState, staleAfter time.Duration, now time.Time) *Status {
	return &Status{
		Status:          state.Status,
		LastSyncAt:      state.LastSyncAt,
		LastSyncCount:   state.LastSyncCount,
		CurrentPage:     state.CurrentPage,
		SyncedSoFar:     state.SyncedCount,
		ProgressMessage: state.ProgressMessage,
		ErrorMessage:    state.ErrorMessage,
		CanResume:       state.CanResume(staleAfter, now),
		UpdatedAt:       state.UpdatedAt,
	}
}

// isRecordError reports whether an error is a per-record data problem that
// should be skipped rather than rolling back the page.
func isRecordError(err error) bool {
	return errors.Is(err, orders.ErrMalformedRecord)
}

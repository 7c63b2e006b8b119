package ordersync

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/parcelscan/backend/internal/domain/orders"
)

// StateTracker owns the persisted sync-state row for one sync type. It
// performs every status transition and heartbeats progress so that an
// interrupted run can be detected and resumed.
type StateTracker struct {
	states   orders.SyncStateRepository
	syncType string
	logger   *zap.Logger
	now      func() time.Time
}

// NewStateTracker creates a new StateTracker
func NewStateTracker(states orders.SyncStateRepository, syncType string, logger *zap.Logger) *StateTracker {
	return &StateTracker{
		states:   states,
		syncType: syncType,
		logger:   logger,
		now:      time.Now,
	}
}

// SyncType returns the sync type key this tracker owns.
func (t *StateTracker) SyncType() string {
	return t.syncType
}

// EnsureExists creates the state row in idle status if missing.
func (t *StateTracker) EnsureExists(ctx context.Context) error {
	return t.states.EnsureExists(ctx, t.syncType)
}

// Get loads the current state row.
func (t *StateTracker) Get(ctx context.Context) (*orders.SyncJobState, error) {
	return t.states.Get(ctx, t.syncType)
}

// Checkpoint describes the durable progress of a run after one committed
// page: how far the scan got and where the next page starts.
type Checkpoint struct {
	Page        int
	SyncedCount int
	NextCursor  string
	Message     string
}

// SetRunning transitions the row to running and stores the run parameters.
// When resuming, from carries the checkpoint counters to continue at.
func (t *StateTracker) SetRunning(ctx context.Context, params *orders.RunParams, from Checkpoint) error {
	state, err := t.states.Get(ctx, t.syncType)
	if err != nil {
		return err
	}
	state.Status = orders.SyncStatusRunning
	state.RunParams = params
	state.CurrentPage = from.Page
	state.SyncedCount = from.SyncedCount
	state.ResumeCursor = from.NextCursor
	state.ProgressMessage = from.Message
	state.ErrorMessage = ""
	state.UpdatedAt = t.now().UTC()
	return t.states.Save(ctx, state)
}

// RecordCheckpoint persists progress after a committed page. The write is
// best effort: a failure loses at most one checkpoint, so a later resume
// replays one extra page.
func (t *StateTracker) RecordCheckpoint(ctx context.Context, cp Checkpoint) {
	state, err := t.states.Get(ctx, t.syncType)
	if err == nil {
		state.CurrentPage = cp.Page
		state.SyncedCount = cp.SyncedCount
		state.ResumeCursor = cp.NextCursor
		state.ProgressMessage = cp.Message
		state.UpdatedAt = t.now().UTC()
		err = t.states.Save(ctx, state)
	}
	if err != nil {
		t.logger.Warn("failed to record sync checkpoint",
			zap.String("sync_type", t.syncType),
			zap.Int("page", cp.Page),
			zap.Error(err))
	}
}

// SetCompleted transitions the row to completed and records the outcome.
// lastSyncAt becomes the lower bound of the next incremental window.
func (t *StateTracker) SetCompleted(ctx context.Context, total int, lastSyncAt time.Time, message string) error {
	return t.saveFinal(ctx, func(state *orders.SyncJobState) {
		state.Status = orders.SyncStatusCompleted
		state.LastSyncAt = &lastSyncAt
		state.LastSyncCount = total
		state.SyncedCount = total
		state.ProgressMessage = message
		state.ResumeCursor = ""
		state.RunParams = nil
		state.ErrorMessage = ""
	})
}

// SetError transitions the row to error. The last recorded checkpoint is
// left untouched so the next invocation can resume instead of starting over.
func (t *StateTracker) SetError(ctx context.Context, errMsg string) error {
	return t.saveFinal(ctx, func(state *orders.SyncJobState) {
		state.Status = orders.SyncStatusError
		state.ErrorMessage = errMsg
	})
}

// saveFinal applies a terminal transition, retrying once on a write error.
func (t *StateTracker) saveFinal(ctx context.Context, apply func(*orders.SyncJobState)) error {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		state, err := t.states.Get(ctx, t.syncType)
		if err != nil {
			lastErr = err
			continue
		}
		apply(state)
		state.UpdatedAt = t.now().UTC()
		if err := t.states.Save(ctx, state); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	t.logger.Error("failed to persist final sync state",
		zap.String("sync_type", t.syncType),
		zap.Error(lastErr))
	return lastErr
}

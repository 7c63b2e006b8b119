package orders

import "time"

// SyncTypeShopifyOrders is the key of the singleton order-sync state row.
const SyncTypeShopifyOrders = "shopify_orders"

// SyncJobStatus is the lifecycle status of a sync job.
type SyncJobStatus string

const (
	SyncStatusIdle      SyncJobStatus = "idle"
	SyncStatusRunning   SyncJobStatus = "running"
	SyncStatusCompleted SyncJobStatus = "completed"
	SyncStatusError     SyncJobStatus = "error"
)

// IsValid reports whether the status is one of the defined values.
func (s SyncJobStatus) IsValid() bool {
	switch s {
	case SyncStatusIdle, SyncStatusRunning, SyncStatusCompleted, SyncStatusError:
		return true
	}
	return false
}

func (s SyncJobStatus) String() string {
	return string(s)
}

// WindowMode selects how the sync window start is computed.
type WindowMode string

const (
	// WindowFull scans everything updated within the configured lookback.
	WindowFull WindowMode = "full"
	// WindowIncremental scans from the last successful sync time.
	WindowIncremental WindowMode = "incremental"
)

// RunParams records the parameters a run started with, so an interrupted
// run can be resumed under the same window. Persisted as JSON alongside
// the checkpoint cursor.
type RunParams struct {
	Mode         WindowMode `json:"mode"`
	LookbackDays int        `json:"lookback_days,omitempty"`
	WindowStart  time.Time  `json:"window_start"`
}

// SyncJobState is the persisted state of one sync job type. A single row
// per SyncType tracks both the live progress of a running job and the
// outcome of the last finished one.
type SyncJobState struct {
	SyncType        string
	Status          SyncJobStatus
	LastSyncAt      *time.Time
	LastSyncCount   int
	CurrentPage     int
	SyncedCount     int
	ProgressMessage string
	ResumeCursor    string
	RunParams       *RunParams
	ErrorMessage    string
	UpdatedAt       time.Time
}

// IsRunning reports whether the job claims to be in progress.
func (s *SyncJobState) IsRunning() bool {
	return s.Status == SyncStatusRunning
}

// IsLive reports whether a running job heartbeated within staleAfter,
// meaning another worker still owns it.
func (s *SyncJobState) IsLive(staleAfter time.Duration, now time.Time) bool {
	return s.IsRunning() && now.Sub(s.UpdatedAt) < staleAfter
}

// CanResume reports whether the job was interrupted mid-run and left a
// usable checkpoint. Requires the run to be stale, not merely running.
func (s *SyncJobState) CanResume(staleAfter time.Duration, now time.Time) bool {
	return s.IsRunning() &&
		!s.IsLive(staleAfter, now) &&
		s.ResumeCursor != "" &&
		s.RunParams != nil
}

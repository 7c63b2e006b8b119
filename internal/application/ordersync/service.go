package ordersync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/parcelscan/backend/internal/domain/orders"
	"github.com/parcelscan/backend/internal/infrastructure/telemetry"
)

// Config holds the tunables of the sync service.
type Config struct {
	// PageSize is the number of records requested per page.
	PageSize int
	// DefaultLookbackDays bounds the incremental window when no successful
	// run exists yet.
	DefaultLookbackDays int
	// FullLookbackDays bounds the window of a full sync when the caller
	// does not override it.
	FullLookbackDays int
	// StaleAfter is the liveness threshold: a running row older than this
	// is treated as an interrupted run rather than a concurrent one.
	StaleAfter time.Duration
}

// DefaultConfig returns the standard sync tunables.
func DefaultConfig() Config {
	return Config{
		PageSize:            250,
		DefaultLookbackDays: 30,
		FullLookbackDays:    90,
		StaleAfter:          2 * time.Minute,
	}
}

// RunOptions selects the window of one sync invocation.
type RunOptions struct {
	// Full selects a bounded historical window instead of an incremental
	// one.
	Full bool
	// LookbackDays overrides the full-window depth. Only honored when
	// Full is set.
	LookbackDays int
	// AllowResume permits continuing an interrupted run from its
	// checkpoint.
	AllowResume bool
}

// Summary is the terminal outcome of one sync invocation. The run loop
// never propagates errors to the trigger surface; failures surface here
// and in the persisted state row.
type Summary struct {
	Synced  int
	Failed  int
	Pages   int
	Message string
}

// Service drives the end-to-end order sync: window selection, resume
// detection, paging, per-record reconciliation, checkpointing, and state
// finalization. It is not reentrant; a mutex rejects overlapping in-process
// invocations and the liveness heuristic covers runs of dead processes.
type Service struct {
	store      orders.Store
	source     orders.OrderSource
	tracker    *StateTracker
	reconciler *Reconciler
	cfg        Config
	logger     *zap.Logger
	now        func() time.Time

	mu sync.Mutex
}

// NewService creates a new sync Service
func NewService(store orders.Store, source orders.OrderSource, tracker *StateTracker, cfg Config, logger *zap.Logger) *Service {
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultConfig().PageSize
	}
	if cfg.DefaultLookbackDays <= 0 {
		cfg.DefaultLookbackDays = DefaultConfig().DefaultLookbackDays
	}
	if cfg.FullLookbackDays <= 0 {
		cfg.FullLookbackDays = DefaultConfig().FullLookbackDays
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = DefaultConfig().StaleAfter
	}
	return &Service{
		store:      store,
		source:     source,
		tracker:    tracker,
		reconciler: NewReconciler(),
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
	}
}

// RunSync executes one sync run and returns its terminal summary. A run
// already live in another process, a state-row failure, or a page-fetch
// failure all end the call with a summary; nothing is raised to the caller.
func (s *Service) RunSync(ctx context.Context, opts RunOptions) Summary {
	ctx, span := telemetry.StartServiceSpan(ctx, "order_sync", "run")
	defer span.End()

	if !s.mu.TryLock() {
		return Summary{Message: "sync already running in this process"}
	}
	defer s.mu.Unlock()

	if err := s.tracker.EnsureExists(ctx); err != nil {
		return Summary{Message: fmt.Sprintf("sync state unavailable: %v", err)}
	}
	state, err := s.tracker.Get(ctx)
	if err != nil {
		return Summary{Message: fmt.Sprintf("sync state unavailable: %v", err)}
	}

	startedAt := s.now().UTC()
	if state.IsLive(s.cfg.StaleAfter, startedAt) {
		return Summary{Message: "sync already running"}
	}

	params, cp, resumed := s.plan(state, opts, startedAt)
	if err := s.tracker.SetRunning(ctx, params, cp); err != nil {
		return Summary{Message: fmt.Sprintf("failed to start sync: %v", err)}
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrSyncType, s.tracker.SyncType(),
		telemetry.SpanAttrWindowMode, string(params.Mode),
		telemetry.SpanAttrPage, cp.Page,
	)

	s.logger.Info("order sync started",
		zap.String("mode", string(params.Mode)),
		zap.Time("window_start", params.WindowStart),
		zap.Bool("resumed", resumed),
		zap.Int("from_page", cp.Page))

	summary := s.runLoop(ctx, params, cp)

	telemetry.SetAttributes(span, telemetry.SpanAttrSyncedCount, summary.Synced)

	s.logger.Info("order sync finished",
		zap.Int("synced", summary.Synced),
		zap.Int("failed", summary.Failed),
		zap.Int("pages", summary.Pages),
		zap.String("message", summary.Message))
	return summary
}

// plan decides between resuming an interrupted run and starting fresh.
// A stale running row or an error row with an intact cursor resumes under
// its original window; anything else starts a new run at page zero.
func (s *Service) plan(state *orders.SyncJobState, opts RunOptions, now time.Time) (*orders.RunParams, Checkpoint, bool) {
	if opts.AllowResume && state.ResumeCursor != "" && state.RunParams != nil {
		interrupted := state.CanResume(s.cfg.StaleAfter, now) || state.Status == orders.SyncStatusError
		if interrupted {
			return state.RunParams, Checkpoint{
				Page:        state.CurrentPage,
				SyncedCount: state.SyncedCount,
				NextCursor:  state.ResumeCursor,
				Message:     fmt.Sprintf("resuming from page %d", state.CurrentPage),
			}, true
		}
	}

	params := &orders.RunParams{Mode: orders.WindowIncremental}
	switch {
	case opts.Full:
		params.Mode = orders.WindowFull
		params.LookbackDays = opts.LookbackDays
		if params.LookbackDays <= 0 {
			params.LookbackDays = s.cfg.FullLookbackDays
		}
		params.WindowStart = now.AddDate(0, 0, -params.LookbackDays)
	case state.LastSyncAt != nil:
		params.WindowStart = *state.LastSyncAt
	default:
		params.LookbackDays = s.cfg.DefaultLookbackDays
		params.WindowStart = now.AddDate(0, 0, -s.cfg.DefaultLookbackDays)
	}
	return params, Checkpoint{Message: "starting sync"}, false
}

// runLoop pages through the source until it returns no next cursor,
// reconciling each page inside one transaction and checkpointing after
// every commit.
func (s *Service) runLoop(ctx context.Context, params *orders.RunParams, cp Checkpoint) Summary {
	startedAt := s.now().UTC()
	synced := cp.SyncedCount
	failed := 0
	pages := 0
	cursor := cp.NextCursor
	page := cp.Page

	for {
		if err := ctx.Err(); err != nil {
			return s.fail(ctx, synced, failed, pages, fmt.Sprintf("sync cancelled: %v", err))
		}

		fetched, err := s.source.FetchPage(ctx, orders.PageQuery{
			Cursor:       cursor,
			UpdatedAtMin: params.WindowStart,
			PageSize:     s.cfg.PageSize,
		})
		if err != nil {
			s.logger.Error("page fetch failed",
				zap.Int("page", page+1),
				zap.Error(err))
			return s.fail(ctx, synced, failed, pages, fmt.Sprintf("page %d fetch failed: %v", page+1, err))
		}

		pageOK, pageFailed, err := s.reconcilePage(ctx, fetched.Records)
		if err != nil {
			s.logger.Error("page commit failed",
				zap.Int("page", page+1),
				zap.Error(err))
			return s.fail(ctx, synced, failed, pages, fmt.Sprintf("page %d commit failed: %v", page+1, err))
		}

		page++
		pages++
		synced += pageOK
		failed += pageFailed
		cursor = fetched.NextCursor

		s.tracker.RecordCheckpoint(ctx, Checkpoint{
			Page:        page,
			SyncedCount: synced,
			NextCursor:  cursor,
			Message:     fmt.Sprintf("synced %d orders (%d pages)", synced, page),
		})

		telemetry.AddEvent(telemetry.SpanFromContext(ctx), "page_committed",
			telemetry.SpanAttrPage, page,
			telemetry.SpanAttrSyncedCount, synced,
		)

		if cursor == "" {
			break
		}
	}

	message := fmt.Sprintf("synced %d orders", synced)
	if failed > 0 {
		message = fmt.Sprintf("synced %d orders, %d failed", synced, failed)
	}
	if err := s.tracker.SetCompleted(ctx, synced, startedAt, message); err != nil {
		message = fmt.Sprintf("%s (completion not recorded: %v)", message, err)
	}
	telemetry.SetOK(telemetry.SpanFromContext(ctx))
	return Summary{Synced: synced, Failed: failed, Pages: pages, Message: message}
}

// reconcilePage applies one page of records inside a single transaction.
// Malformed records are skipped and counted; any storage error rolls the
// whole page back.
func (s *Service) reconcilePage(ctx context.Context, records []orders.RemoteOrder) (ok, failed int, err error) {
	err = s.store.Atomically(ctx, func(tx orders.Store) error {
		repo := tx.Orders()
		for i := range records {
			record := &records[i]
			if _, rerr := s.reconciler.Reconcile(ctx, repo, record); rerr != nil {
				if isRecordError(rerr) {
					s.logger.Warn("skipping malformed order record",
						zap.String("remote_order_id", record.ID),
						zap.Error(rerr))
					failed++
					continue
				}
				return rerr
			}
			ok++
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	return ok, failed, nil
}

func (s *Service) fail(ctx context.Context, synced, failed, pages int, message string) Summary {
	telemetry.RecordError(telemetry.SpanFromContext(ctx), fmt.Errorf("%s", message))
	if err := s.tracker.SetError(ctx, message); err != nil {
		message = fmt.Sprintf("%s (error not recorded: %v)", message, err)
	}
	return Summary{Synced: synced, Failed: failed, Pages: pages, Message: message}
}

// GetStatus returns the current sync state together with the derived
// resumability flag, for polling consumers.
func (s *Service) GetStatus(ctx context.Context) (*Status, error) {
	state, err := s.tracker.Get(ctx)
	if err != nil {
		return nil, err
	}
	return newStatus(state, s.cfg.StaleAfter, s.now().UTC()), nil
}

// MarkScanned flags the order carrying the given tracking number as
// physically scanned. The scanner reads the tracking barcode off the label.
func (s *Service) MarkScanned(ctx context.Context, trackingNumber string) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "order_sync", "mark_scanned",
		telemetry.WithAttribute(telemetry.SpanAttrTrackingNumber, trackingNumber))
	defer span.End()

	if err := s.store.Orders().MarkScanned(ctx, trackingNumber, s.now().UTC()); err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	return nil
}

package janitor

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"msgvault/internal/config"
	"msgvault/internal/layout"
	"msgvault/internal/lifecycle"
	"msgvault/internal/logging"
	"msgvault/internal/store"
)

// ToolVersion is recorded in the store after every successful commit run.
// Bump it when reference collection or processing semantics change so the
// next run can tell that prior cleanups used older rules.
const ToolVersion = "1"

// Metadata keys persisted after a successful commit run, and only then. A
// dry run, an aborted run, and an exhausted run all leave them untouched.
const (
	LastCleaningVersionKey = "cleanup.last_version"
	LastCleaningDateKey    = "cleanup.last_date"
)

// Coordinator is the single entry point for a cleanup run. It assembles the
// collector, finder, and processor, guards against concurrent runs, and
// persists the completion metadata.
type Coordinator struct {
	cfg        *config.Config
	store      *store.Store
	layout     *layout.Layout
	gate       lifecycle.Gate
	logger     *slog.Logger
	now        func() time.Time
	inProgress atomic.Bool
}

// CoordinatorOption customizes a Coordinator.
type CoordinatorOption func(*coordinatorOptions)

type coordinatorOptions struct {
	transferActive func() bool
	now            func() time.Time
}

// WithTransferActive supplies the device-transfer probe. While it reports
// true the transfer staging directory is treated as protected.
func WithTransferActive(probe func() bool) CoordinatorOption {
	return func(o *coordinatorOptions) { o.transferActive = probe }
}

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) CoordinatorOption {
	return func(o *coordinatorOptions) { o.now = now }
}

// NewCoordinator wires a Coordinator. The store, gate, and config must be
// non-nil; handing in a partially constructed coordinator is a programming
// error, not a runtime condition, so it panics.
func NewCoordinator(cfg *config.Config, st *store.Store, gate lifecycle.Gate, logger *slog.Logger, opts ...CoordinatorOption) *Coordinator {
	if cfg == nil {
		panic("janitor: nil config")
	}
	if st == nil {
		panic("janitor: nil store")
	}
	if gate == nil {
		panic("janitor: nil gate")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	options := coordinatorOptions{now: time.Now}
	for _, opt := range opts {
		opt(&options)
	}

	var layoutOpts []layout.Option
	if options.transferActive != nil {
		layoutOpts = append(layoutOpts, layout.WithTransferActive(options.transferActive))
	}

	return &Coordinator{
		cfg:    cfg,
		store:  st,
		layout: layout.New(cfg, layoutOpts...),
		gate:   gate,
		logger: logging.NewComponentLogger(logger, "janitor"),
		now:    options.now,
	}
}

// Run performs one cleanup run: discovery, then a dry-run or commit pass,
// retried within the configured budget. Exactly one run may be active at a
// time; a second caller gets ErrInProgress. Completion metadata is written
// only after a commit run finishes without error.
func (c *Coordinator) Run(ctx context.Context, commit bool) (*Outcome, error) {
	if !c.inProgress.CompareAndSwap(false, true) {
		return nil, ErrInProgress
	}
	defer c.inProgress.Store(false)

	runID := uuid.NewString()
	logger := c.logger.With(logging.String(logging.FieldRunID, runID))
	logger.Info("cleanup run starting",
		logging.String(logging.FieldEventType, "run_start"),
		logging.Bool("commit", commit),
		logging.Int("retry_budget", c.cfg.Cleanup.RetryBudget),
	)

	budget := c.cfg.Cleanup.RetryBudget
	collector := NewCollector(c.store, c.layout, c.gate, logger, c.cfg.Cleanup.ScanBatchRows, c.recencyCutoff())
	processor := NewProcessor(c.store, c.gate, logger, c.cfg.Cleanup.DeleteBatchSize, budget)

	// A fresh finder per pass resets the state machine, so a processing
	// retry re-derives its snapshot from scratch.
	find := func(ctx context.Context) (*Snapshot, error) {
		return NewFinder(collector, c.gate, budget, logger).Find(ctx)
	}

	outcome, err := processor.Run(ctx, find, commit)
	if err != nil {
		logger.Warn("cleanup run failed",
			logging.String(logging.FieldEventType, "run_failed"),
			logging.Error(err),
		)
		return nil, err
	}

	if commit {
		if err := c.store.SetValues(ctx, map[string]string{
			LastCleaningVersionKey: ToolVersion,
			LastCleaningDateKey:    c.now().UTC().Format(time.RFC3339),
		}); err != nil {
			logger.Warn("cleanup run failed",
				logging.String(logging.FieldEventType, "run_failed"),
				logging.Error(err),
			)
			return nil, err
		}
	}

	logger.Info("cleanup run finished",
		logging.String(logging.FieldEventType, "run_finished"),
		logging.Bool("commit", commit),
	)
	return outcome, nil
}

// Audit runs discovery only and hands back the snapshot for reporting.
// Nothing is deleted and no metadata is written.
func (c *Coordinator) Audit(ctx context.Context) (*Snapshot, error) {
	if !c.inProgress.CompareAndSwap(false, true) {
		return nil, ErrInProgress
	}
	defer c.inProgress.Store(false)

	runID := uuid.NewString()
	logger := c.logger.With(logging.String(logging.FieldRunID, runID))
	logger.Info("audit starting",
		logging.String(logging.FieldEventType, "audit_start"),
	)

	collector := NewCollector(c.store, c.layout, c.gate, logger, c.cfg.Cleanup.ScanBatchRows, c.recencyCutoff())
	finder := NewFinder(collector, c.gate, c.cfg.Cleanup.RetryBudget, logger)
	return finder.Find(ctx)
}

// recencyCutoff fixes the in-flight-write shield at run start: anything
// written after it is invisible to this run. Zero when the window is
// disabled.
func (c *Coordinator) recencyCutoff() time.Time {
	window := c.cfg.Cleanup.RecencyWindowMinutes
	if window <= 0 {
		return time.Time{}
	}
	return c.now().Add(-time.Duration(window) * time.Minute)
}

// RunAsync runs Run on its own goroutine and invokes onDone exactly once
// with its result.
func (c *Coordinator) RunAsync(ctx context.Context, commit bool, onDone func(*Outcome, error)) {
	go func() {
		outcome, err := c.Run(ctx, commit)
		if onDone != nil {
			onDone(outcome, err)
		}
	}()
}

// LastCleaning is the completion metadata of the most recent successful
// commit run.
type LastCleaning struct {
	Version string
	Date    time.Time
}

// LastCleaning reads the completion metadata. ok is false when no commit run
// has ever completed.
func (c *Coordinator) LastCleaning(ctx context.Context) (LastCleaning, bool, error) {
	version, haveVersion, err := c.store.GetValue(ctx, LastCleaningVersionKey)
	if err != nil {
		return LastCleaning{}, false, err
	}
	raw, haveDate, err := c.store.GetValue(ctx, LastCleaningDateKey)
	if err != nil {
		return LastCleaning{}, false, err
	}
	if !haveVersion || !haveDate {
		return LastCleaning{}, false, nil
	}
	date, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return LastCleaning{}, false, err
	}
	return LastCleaning{Version: version, Date: date}, true, nil
}

package janitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"msgvault/internal/lifecycle"
	"msgvault/internal/logging"
	"msgvault/internal/scan"
)

// SnapshotSource produces one discovery attempt.
type SnapshotSource interface {
	Collect(ctx context.Context) (*Snapshot, error)
}

// CollectFunc adapts a function to SnapshotSource.
type CollectFunc func(ctx context.Context) (*Snapshot, error)

func (f CollectFunc) Collect(ctx context.Context) (*Snapshot, error) { return f(ctx) }

// FindState is the Finder's position in its retry state machine.
type FindState int32

const (
	StateIdle FindState = iota
	StateWaitingForActive
	StateCollecting
	StateSucceeded
	StateFailed
)

func (s FindState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateWaitingForActive:
		return "waiting_for_active"
	case StateCollecting:
		return "collecting"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Finder drives discovery attempts through an explicit state machine.
// Each attempt starts only once the gate reports active; an abort or a
// listing failure consumes one attempt from the budget. Collection work runs
// on its own goroutine and reports through a result channel, never through
// nested callbacks.
type Finder struct {
	source SnapshotSource
	gate   lifecycle.Gate
	budget int
	logger *slog.Logger
	state  atomic.Int32
}

// NewFinder wires a Finder with the given attempt budget (values below 1
// fall back to 1).
func NewFinder(source SnapshotSource, gate lifecycle.Gate, budget int, logger *slog.Logger) *Finder {
	if budget < 1 {
		budget = 1
	}
	return &Finder{
		source: source,
		gate:   gate,
		budget: budget,
		logger: logging.NewComponentLogger(logger, "finder"),
	}
}

// State returns the current state machine position.
func (f *Finder) State() FindState {
	return FindState(f.state.Load())
}

func (f *Finder) setState(s FindState) {
	f.state.Store(int32(s))
}

type findResult struct {
	snap *Snapshot
	err  error
}

// Find runs discovery attempts until one succeeds, the budget is exhausted,
// or the context ends. On exhaustion the last attempt's error is wrapped
// under ErrExhausted.
func (f *Finder) Find(ctx context.Context) (*Snapshot, error) {
	var lastErr error

	for attempt := 1; attempt <= f.budget; attempt++ {
		f.setState(StateWaitingForActive)
		if err := f.waitActive(ctx); err != nil {
			f.setState(StateFailed)
			return nil, err
		}

		f.setState(StateCollecting)
		results := make(chan findResult, 1)
		go func() {
			snap, err := f.source.Collect(ctx)
			results <- findResult{snap: snap, err: err}
		}()

		var res findResult
		select {
		case <-ctx.Done():
			f.setState(StateFailed)
			return nil, ctx.Err()
		case res = <-results:
		}

		if res.err == nil {
			f.setState(StateSucceeded)
			return res.snap, nil
		}
		if !retryable(res.err) {
			f.setState(StateFailed)
			return nil, res.err
		}
		lastErr = res.err
		f.logger.Info("discovery attempt abandoned",
			logging.String(logging.FieldEventType, "find_attempt_abandoned"),
			logging.Int("attempt", attempt),
			logging.Int("budget", f.budget),
			logging.Error(res.err),
		)
	}

	f.setState(StateFailed)
	return nil, fmt.Errorf("%w: last attempt: %v", ErrExhausted, lastErr)
}

// Start runs Find on its own goroutine and invokes exactly one of the two
// continuations exactly once.
func (f *Finder) Start(ctx context.Context, onSuccess func(*Snapshot), onFailure func(error)) {
	go func() {
		snap, err := f.Find(ctx)
		if err != nil {
			if onFailure != nil {
				onFailure(err)
			}
			return
		}
		if onSuccess != nil {
			onSuccess(snap)
		}
	}()
}

func (f *Finder) waitActive(ctx context.Context) error {
	if f.gate.Active() {
		return nil
	}
	ready := make(chan struct{})
	f.gate.RunWhenActive(func() { close(ready) })
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-ready:
		return nil
	}
}

// retryable reports whether an attempt failure should consume budget and be
// retried. Liveness aborts obviously are; listing failures are treated the
// same way because a transient cause cannot be told apart from a persistent
// one at this layer.
func retryable(err error) bool {
	if errors.Is(err, ErrAborted) {
		return true
	}
	var listErr *scan.ListError
	return errors.As(err, &listErr)
}

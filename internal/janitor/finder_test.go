package janitor_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"msgvault/internal/janitor"
	"msgvault/internal/lifecycle"
	"msgvault/internal/logging"
	"msgvault/internal/scan"
)

func TestFinderSucceedsFirstAttempt(t *testing.T) {
	want := &janitor.Snapshot{}
	source := janitor.CollectFunc(func(context.Context) (*janitor.Snapshot, error) {
		return want, nil
	})

	finder := janitor.NewFinder(source, lifecycle.Always(), 3, logging.NewNop())
	snap, err := finder.Find(context.Background())
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if snap != want {
		t.Error("Find returned a different snapshot")
	}
	if state := finder.State(); state != janitor.StateSucceeded {
		t.Errorf("state = %v, want succeeded", state)
	}
}

func TestFinderRetriesAfterAbort(t *testing.T) {
	want := &janitor.Snapshot{}
	var attempts atomic.Int32
	source := janitor.CollectFunc(func(context.Context) (*janitor.Snapshot, error) {
		if attempts.Add(1) < 3 {
			return nil, janitor.ErrAborted
		}
		return want, nil
	})

	finder := janitor.NewFinder(source, lifecycle.Always(), 3, logging.NewNop())
	snap, err := finder.Find(context.Background())
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if snap != want {
		t.Error("Find returned a different snapshot")
	}
	if got := attempts.Load(); got != 3 {
		t.Errorf("attempts = %d, want 3", got)
	}
}

func TestFinderRetriesListingFailures(t *testing.T) {
	var attempts atomic.Int32
	source := janitor.CollectFunc(func(context.Context) (*janitor.Snapshot, error) {
		if attempts.Add(1) == 1 {
			return nil, &scan.ListError{Root: "/nope", Err: errors.New("io error")}
		}
		return &janitor.Snapshot{}, nil
	})

	finder := janitor.NewFinder(source, lifecycle.Always(), 3, logging.NewNop())
	if _, err := finder.Find(context.Background()); err != nil {
		t.Fatalf("Find: %v", err)
	}
	if got := attempts.Load(); got != 2 {
		t.Errorf("attempts = %d, want 2", got)
	}
}

func TestFinderExhaustsBudget(t *testing.T) {
	var attempts atomic.Int32
	source := janitor.CollectFunc(func(context.Context) (*janitor.Snapshot, error) {
		attempts.Add(1)
		return nil, janitor.ErrAborted
	})

	finder := janitor.NewFinder(source, lifecycle.Always(), 3, logging.NewNop())
	_, err := finder.Find(context.Background())
	if !errors.Is(err, janitor.ErrExhausted) {
		t.Fatalf("Find error = %v, want ErrExhausted", err)
	}
	if got := attempts.Load(); got != 3 {
		t.Errorf("attempts = %d, want exactly the budget of 3", got)
	}
	if state := finder.State(); state != janitor.StateFailed {
		t.Errorf("state = %v, want failed", state)
	}
}

func TestFinderStopsOnNonRetryableError(t *testing.T) {
	boom := errors.New("database corrupt")
	var attempts atomic.Int32
	source := janitor.CollectFunc(func(context.Context) (*janitor.Snapshot, error) {
		attempts.Add(1)
		return nil, boom
	})

	finder := janitor.NewFinder(source, lifecycle.Always(), 3, logging.NewNop())
	_, err := finder.Find(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("Find error = %v, want the source error", err)
	}
	if got := attempts.Load(); got != 1 {
		t.Errorf("attempts = %d, want 1", got)
	}
}

func TestFinderWaitsForGate(t *testing.T) {
	started := make(chan struct{})
	source := janitor.CollectFunc(func(context.Context) (*janitor.Snapshot, error) {
		close(started)
		return &janitor.Snapshot{}, nil
	})

	gate := lifecycle.NewSwitch(false)
	finder := janitor.NewFinder(source, gate, 1, logging.NewNop())

	done := make(chan error, 1)
	go func() {
		_, err := finder.Find(context.Background())
		done <- err
	}()

	select {
	case <-started:
		t.Fatal("collection started while gate inactive")
	case <-time.After(50 * time.Millisecond):
	}
	if state := finder.State(); state != janitor.StateWaitingForActive {
		t.Errorf("state = %v, want waiting_for_active", state)
	}

	gate.SetActive(true)
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Find: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Find did not finish after gate activation")
	}
}

func TestFinderHonorsContextWhileWaiting(t *testing.T) {
	source := janitor.CollectFunc(func(context.Context) (*janitor.Snapshot, error) {
		t.Error("collection must not start")
		return nil, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	finder := janitor.NewFinder(source, lifecycle.NewSwitch(false), 1, logging.NewNop())

	done := make(chan error, 1)
	go func() {
		_, err := finder.Find(ctx)
		done <- err
	}()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Find error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Find did not observe cancellation")
	}
}

func TestFinderStartInvokesExactlyOneContinuation(t *testing.T) {
	source := janitor.CollectFunc(func(context.Context) (*janitor.Snapshot, error) {
		return &janitor.Snapshot{}, nil
	})

	finder := janitor.NewFinder(source, lifecycle.Always(), 1, logging.NewNop())

	succeeded := make(chan *janitor.Snapshot, 1)
	failed := make(chan error, 1)
	finder.Start(context.Background(),
		func(snap *janitor.Snapshot) { succeeded <- snap },
		func(err error) { failed <- err },
	)

	select {
	case <-succeeded:
	case err := <-failed:
		t.Fatalf("failure continuation invoked: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("no continuation invoked")
	}

	select {
	case <-succeeded:
		t.Fatal("success continuation invoked twice")
	case err := <-failed:
		t.Fatalf("both continuations invoked: %v", err)
	case <-time.After(50 * time.Millisecond):
	}
}

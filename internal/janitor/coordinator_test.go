package janitor_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"msgvault/internal/janitor"
	"msgvault/internal/lifecycle"
	"msgvault/internal/logging"
)

func TestCoordinatorCommitRunRecordsMetadata(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	frozen := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	coordinator := janitor.NewCoordinator(f.cfg, f.store, lifecycle.Always(), logging.NewNop(),
		janitor.WithClock(func() time.Time { return frozen }))

	outcome, err := coordinator.Run(ctx, true)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if outcome.DryRun {
		t.Error("commit run marked as dry run")
	}
	if outcome.FilesDeleted == 0 {
		t.Error("commit run deleted no files")
	}

	last, ok, err := coordinator.LastCleaning(ctx)
	if err != nil {
		t.Fatalf("LastCleaning: %v", err)
	}
	if !ok {
		t.Fatal("no completion metadata after successful commit run")
	}
	if last.Version != janitor.ToolVersion {
		t.Errorf("version = %q, want %q", last.Version, janitor.ToolVersion)
	}
	if !last.Date.Equal(frozen) {
		t.Errorf("date = %v, want %v", last.Date, frozen)
	}
}

func TestCoordinatorDryRunLeavesMetadataAndDataAlone(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	coordinator := janitor.NewCoordinator(f.cfg, f.store, lifecycle.Always(), logging.NewNop())
	outcome, err := coordinator.Run(ctx, false)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !outcome.DryRun {
		t.Error("dry run not marked as such")
	}

	if _, ok, err := coordinator.LastCleaning(ctx); err != nil {
		t.Fatalf("LastCleaning: %v", err)
	} else if ok {
		t.Error("dry run recorded completion metadata")
	}
	if !fileExists(t, f.orphanBlob) {
		t.Error("dry run deleted a file")
	}
}

func TestCoordinatorFailedRunLeavesMetadataAlone(t *testing.T) {
	f := newFixture(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	coordinator := janitor.NewCoordinator(f.cfg, f.store, lifecycle.Always(), logging.NewNop())
	if _, err := coordinator.Run(ctx, true); err == nil {
		t.Fatal("Run succeeded with a canceled context")
	}

	if _, ok, err := coordinator.LastCleaning(context.Background()); err != nil {
		t.Fatalf("LastCleaning: %v", err)
	} else if ok {
		t.Error("failed run recorded completion metadata")
	}
}

func TestCoordinatorRejectsConcurrentRuns(t *testing.T) {
	f := newFixture(t)

	gate := lifecycle.NewSwitch(false)
	coordinator := janitor.NewCoordinator(f.cfg, f.store, gate, logging.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	coordinator.RunAsync(ctx, true, func(_ *janitor.Outcome, err error) {
		done <- err
	})

	// The first run is parked waiting for the gate; a second entry must be
	// turned away rather than queued.
	deadline := time.After(2 * time.Second)
	for {
		_, err := coordinator.Run(context.Background(), true)
		if errors.Is(err, janitor.ErrInProgress) {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("second run never saw ErrInProgress, last error: %v", err)
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("first run error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("first run did not finish after cancellation")
	}
}

func TestCoordinatorRecencyWindowShieldsFreshData(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.cfg.Cleanup.RecencyWindowMinutes = 120

	coordinator := janitor.NewCoordinator(f.cfg, f.store, lifecycle.Always(), logging.NewNop())
	outcome, err := coordinator.Run(ctx, true)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// Everything in the fixture was written moments ago, so a two-hour window
	// shields all of it from this run.
	if outcome.FilesDeleted != 0 {
		t.Errorf("FilesDeleted = %d, want 0", outcome.FilesDeleted)
	}
	if outcome.MessagesDeleted != 0 || outcome.AttachmentsDeleted != 0 ||
		outcome.ReactionsDeleted != 0 || outcome.MentionsDeleted != 0 {
		t.Errorf("fresh records deleted: %+v", outcome)
	}
	for _, path := range []string{f.orphanBlob, f.strayFile, f.orphanSticker, f.draftFile} {
		if !fileExists(t, path) {
			t.Errorf("fresh file deleted: %s", path)
		}
	}
}

func TestCoordinatorEndToEndRepeatRunFindsNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	coordinator := janitor.NewCoordinator(f.cfg, f.store, lifecycle.Always(), logging.NewNop())
	if _, err := coordinator.Run(ctx, true); err != nil {
		t.Fatalf("first Run: %v", err)
	}

	outcome, err := coordinator.Run(ctx, true)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if outcome.FilesDeleted != 0 || outcome.MessagesDeleted != 0 || outcome.StickerRowsDeleted != 0 {
		t.Errorf("second run found leftovers: %+v", outcome)
	}
}

func TestCoordinatorPanicsOnNilDependencies(t *testing.T) {
	f := newFixture(t)

	assertPanics := func(name string, fn func()) {
		t.Helper()
		defer func() {
			if recover() == nil {
				t.Errorf("%s: expected panic", name)
			}
		}()
		fn()
	}

	assertPanics("nil config", func() {
		janitor.NewCoordinator(nil, f.store, lifecycle.Always(), logging.NewNop())
	})
	assertPanics("nil store", func() {
		janitor.NewCoordinator(f.cfg, nil, lifecycle.Always(), logging.NewNop())
	})
	assertPanics("nil gate", func() {
		janitor.NewCoordinator(f.cfg, f.store, nil, logging.NewNop())
	})
}

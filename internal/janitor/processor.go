package janitor

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"msgvault/internal/fileutil"
	"msgvault/internal/lifecycle"
	"msgvault/internal/logging"
	"msgvault/internal/reconcile"
	"msgvault/internal/store"
)

// Outcome summarizes one processing pass.
type Outcome struct {
	DryRun             bool
	FilesDeleted       int
	FileDeleteFailures int
	MessagesDeleted    int64
	AttachmentsDeleted int64
	ReactionsDeleted   int64
	MentionsDeleted    int64
	StickerRowsDeleted int64
	MissingReferences  int
}

// Processor consumes a snapshot: a dry run only counts and logs, a commit
// run deletes orphan files then orphan records. Deletion re-checks the gate
// between batches and abandons the remainder the moment it drops; missing
// references are never touched.
type Processor struct {
	store     *store.Store
	gate      lifecycle.Gate
	logger    *slog.Logger
	batchSize int
	budget    int
}

// NewProcessor wires a Processor. batchSize bounds each delete statement and
// each burst of file removals; budget bounds Run's retry loop.
func NewProcessor(st *store.Store, gate lifecycle.Gate, logger *slog.Logger, batchSize, budget int) *Processor {
	if batchSize < 1 {
		batchSize = 1
	}
	if budget < 1 {
		budget = 1
	}
	return &Processor{
		store:     st,
		gate:      gate,
		logger:    logging.NewComponentLogger(logger, "processor"),
		batchSize: batchSize,
		budget:    budget,
	}
}

// Run retries processing within the budget, deriving a fresh snapshot from
// find before every pass so a retry never trusts results from before an
// abort. The find callback is expected to block until discovery succeeds or
// fails terminally.
func (p *Processor) Run(ctx context.Context, find func(context.Context) (*Snapshot, error), commit bool) (*Outcome, error) {
	var lastErr error
	for attempt := 1; attempt <= p.budget; attempt++ {
		snap, err := find(ctx)
		if err != nil {
			return nil, err
		}
		outcome, err := p.Process(ctx, snap, commit)
		if err == nil {
			return outcome, nil
		}
		if !retryable(err) {
			return nil, err
		}
		lastErr = err
		p.logger.Info("processing pass abandoned",
			logging.String(logging.FieldEventType, "process_attempt_abandoned"),
			logging.Int("attempt", attempt),
			logging.Int("budget", p.budget),
			logging.Error(err),
		)
	}
	return nil, fmt.Errorf("%w: last attempt: %v", ErrExhausted, lastErr)
}

// Process performs one pass over the snapshot. With commit false nothing is
// mutated; counts are returned for reporting either way.
func (p *Processor) Process(ctx context.Context, snap *Snapshot, commit bool) (*Outcome, error) {
	outcome := &Outcome{
		DryRun:            !commit,
		MissingReferences: snap.Missing.Total(),
	}

	if !p.gate.Active() {
		return nil, ErrAborted
	}

	if !commit {
		outcome.FilesDeleted = len(snap.OrphanFilePaths) + len(snap.WholesalePaths)
		outcome.MessagesDeleted = int64(len(snap.OrphanMessageIDs))
		outcome.AttachmentsDeleted = int64(len(snap.OrphanAttachmentIDs))
		outcome.ReactionsDeleted = int64(len(snap.OrphanReactionIDs))
		outcome.MentionsDeleted = int64(len(snap.OrphanMentionIDs))
		p.logger.Info("dry run: orphan data found",
			logging.String(logging.FieldEventType, "audit_complete"),
			logging.Int("orphan_files", outcome.FilesDeleted),
			logging.Int64("orphan_messages", outcome.MessagesDeleted),
			logging.Int64("orphan_attachments", outcome.AttachmentsDeleted),
			logging.Int64("orphan_reactions", outcome.ReactionsDeleted),
			logging.Int64("orphan_mentions", outcome.MentionsDeleted),
			logging.Bool("sticker_cleanup_needed", snap.HasOrphanedStickerData),
			logging.Int("missing_references", outcome.MissingReferences),
		)
		return outcome, nil
	}

	if err := p.deleteFiles(snap.OrphanFilePaths, outcome); err != nil {
		return nil, err
	}
	if err := p.deleteFiles(snap.WholesalePaths, outcome); err != nil {
		return nil, err
	}
	if err := p.pruneWholesaleDirs(snap.WholesaleRoots); err != nil {
		return nil, err
	}

	records := []struct {
		ids     reconcile.Set[int64]
		deleter func(context.Context, []int64, int) (int64, error)
		counter *int64
	}{
		{snap.OrphanReactionIDs, p.store.DeleteReactions, &outcome.ReactionsDeleted},
		{snap.OrphanMentionIDs, p.store.DeleteMentions, &outcome.MentionsDeleted},
		{snap.OrphanAttachmentIDs, p.store.DeleteAttachments, &outcome.AttachmentsDeleted},
		{snap.OrphanMessageIDs, p.store.DeleteMessages, &outcome.MessagesDeleted},
	}
	for _, rec := range records {
		deleted, err := p.deleteRecords(ctx, rec.ids, rec.deleter)
		*rec.counter += deleted
		if err != nil {
			return nil, err
		}
	}

	if snap.HasOrphanedStickerData {
		if !p.gate.Active() {
			return nil, ErrAborted
		}
		removed, err := p.store.DeleteOrphanStickerData(ctx)
		outcome.StickerRowsDeleted = removed
		if err != nil {
			return nil, err
		}
	}

	p.logger.Info("cleanup pass complete",
		logging.String(logging.FieldEventType, "cleanup_complete"),
		logging.Int("files_deleted", outcome.FilesDeleted),
		logging.Int("file_delete_failures", outcome.FileDeleteFailures),
		logging.Int64("messages_deleted", outcome.MessagesDeleted),
		logging.Int64("attachments_deleted", outcome.AttachmentsDeleted),
		logging.Int64("reactions_deleted", outcome.ReactionsDeleted),
		logging.Int64("mentions_deleted", outcome.MentionsDeleted),
		logging.Int64("sticker_rows_deleted", outcome.StickerRowsDeleted),
		logging.Int("missing_references", outcome.MissingReferences),
	)
	return outcome, nil
}

func (p *Processor) deleteFiles(paths reconcile.Set[string], outcome *Outcome) error {
	sorted := paths.Values()
	sort.Strings(sorted)

	for i, path := range sorted {
		if i%p.batchSize == 0 && !p.gate.Active() {
			return ErrAborted
		}
		if err := fileutil.RemoveIfExists(path); err != nil {
			// A single stubborn file should not wedge the whole run.
			outcome.FileDeleteFailures++
			p.logger.Warn("failed to delete orphan file",
				logging.String("path", path),
				logging.Error(err),
			)
			continue
		}
		outcome.FilesDeleted++
	}
	return nil
}

// pruneWholesaleDirs drops subdirectories the file pass left empty under the
// wholesale roots. The roots themselves stay; a prune failure is logged and
// skipped like a stubborn file.
func (p *Processor) pruneWholesaleDirs(roots []string) error {
	if !p.gate.Active() {
		return ErrAborted
	}
	for _, root := range roots {
		removed, err := fileutil.PruneEmptyDirs(root)
		if err != nil {
			p.logger.Warn("failed to prune emptied directories",
				logging.String("root", root),
				logging.Error(err),
			)
			continue
		}
		if removed > 0 {
			p.logger.Info("pruned emptied directories",
				logging.String("root", root),
				logging.Int("directories", removed),
			)
		}
	}
	return nil
}

func (p *Processor) deleteRecords(ctx context.Context, ids reconcile.Set[int64], deleter func(context.Context, []int64, int) (int64, error)) (int64, error) {
	sorted := ids.Values()
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var total int64
	for start := 0; start < len(sorted); start += p.batchSize {
		if !p.gate.Active() {
			return total, ErrAborted
		}
		end := start + p.batchSize
		if end > len(sorted) {
			end = len(sorted)
		}
		deleted, err := deleter(ctx, sorted[start:end], p.batchSize)
		total += deleted
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

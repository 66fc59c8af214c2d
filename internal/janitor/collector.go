package janitor

import (
	"context"
	"log/slog"
	"time"

	"msgvault/internal/layout"
	"msgvault/internal/lifecycle"
	"msgvault/internal/logging"
	"msgvault/internal/reconcile"
	"msgvault/internal/scan"
	"msgvault/internal/store"
)

// Collector builds one consistent view of both stores: a listing pass over
// the blob directories and a single read transaction over every tracked
// record kind. The gate is re-checked between directories, between kinds,
// and every checkEvery rows; one drop anywhere abandons the whole attempt.
type Collector struct {
	store      *store.Store
	layout     *layout.Layout
	gate       lifecycle.Gate
	logger     *slog.Logger
	checkEvery int
	cutoff     time.Time
}

// NewCollector wires a Collector. checkEvery bounds the rows enumerated
// between liveness checks; values below 1 fall back to 1. Files and records
// written after cutoff are invisible to reconciliation, so an in-flight write
// (blob on disk first, row committed after) is never mistaken for an orphan;
// a zero cutoff disables the guard.
func NewCollector(st *store.Store, lay *layout.Layout, gate lifecycle.Gate, logger *slog.Logger, checkEvery int, cutoff time.Time) *Collector {
	if checkEvery < 1 {
		checkEvery = 1
	}
	return &Collector{
		store:      st,
		layout:     lay,
		gate:       gate,
		logger:     logging.NewComponentLogger(logger, "collector"),
		checkEvery: checkEvery,
		cutoff:     cutoff,
	}
}

// recent reports whether ts falls after the cutoff. Zero record timestamps
// are never recent; corrupt rows stay eligible rather than immortal.
func (c *Collector) recent(ts time.Time) bool {
	return !c.cutoff.IsZero() && !ts.IsZero() && ts.After(c.cutoff)
}

// referenceSets is the raw accumulation from one read transaction. It is
// discarded wholesale when an attempt aborts.
type referenceSets struct {
	threadIDs           reconcile.Set[int64]
	messageIDs          reconcile.Set[int64]
	messagesWithThread  reconcile.Set[int64]
	reactionIDs         reconcile.Set[int64]
	reactionsWithOwner  reconcile.Set[int64]
	mentionIDs          reconcile.Set[int64]
	mentionsWithOwner   reconcile.Set[int64]
	attachmentIDs       reconcile.Set[int64]
	recentAttachmentIDs reconcile.Set[int64]
	attachmentMessage   map[int64]int64
	attachmentFiles     map[int64][]string
	storyAttachmentIDs  reconcile.Set[int64]
	jobAttachmentIDs    reconcile.Set[int64]
	avatarFiles         reconcile.Set[string]
	installedStickers   reconcile.Set[string]
	orphanedStickerRows bool
}

func newReferenceSets() *referenceSets {
	return &referenceSets{
		threadIDs:           make(reconcile.Set[int64]),
		messageIDs:          make(reconcile.Set[int64]),
		messagesWithThread:  make(reconcile.Set[int64]),
		reactionIDs:         make(reconcile.Set[int64]),
		reactionsWithOwner:  make(reconcile.Set[int64]),
		mentionIDs:          make(reconcile.Set[int64]),
		mentionsWithOwner:   make(reconcile.Set[int64]),
		attachmentIDs:       make(reconcile.Set[int64]),
		recentAttachmentIDs: make(reconcile.Set[int64]),
		attachmentMessage:   make(map[int64]int64),
		attachmentFiles:     make(map[int64][]string),
		storyAttachmentIDs:  make(reconcile.Set[int64]),
		jobAttachmentIDs:    make(reconcile.Set[int64]),
		avatarFiles:         make(reconcile.Set[string]),
		installedStickers:   make(reconcile.Set[string]),
	}
}

// Collect runs one discovery attempt. It returns ErrAborted the moment the
// gate drops, discarding all partial accumulation; a directory-listing
// failure is returned as a scan.ListError for the Finder to retry.
func (c *Collector) Collect(ctx context.Context) (*Snapshot, error) {
	if !c.gate.Active() {
		return nil, ErrAborted
	}

	listing, err := c.listRoots(c.layout.ReferenceRoots())
	if err != nil {
		return nil, err
	}
	wholesaleListing, err := c.listRoots(c.layout.WholesaleRoots())
	if err != nil {
		return nil, err
	}

	refs, err := c.collectReferences(ctx)
	if err != nil {
		return nil, err
	}
	if !c.gate.Active() {
		return nil, ErrAborted
	}

	// Hard safety floor: protected prefixes never enter any candidate set,
	// independent of what the reference sets say.
	for path := range listing {
		if c.layout.IsProtected(path) {
			delete(listing, path)
		}
	}
	for path := range wholesaleListing {
		if c.layout.IsProtected(path) {
			delete(wholesaleListing, path)
		}
	}

	// Orphan candidacy excludes anything written after the cutoff; the full
	// listing still backs the missing-reference diagnostics so an in-flight
	// blob is not reported absent.
	present := make(reconcile.Set[string], len(listing))
	universe := make(reconcile.Set[string], len(listing))
	for path, mtime := range listing {
		present.Add(path)
		if !c.recent(mtime) {
			universe.Add(path)
		}
	}
	wholesale := make(reconcile.Set[string], len(wholesaleListing))
	for path, mtime := range wholesaleListing {
		if !c.recent(mtime) {
			wholesale.Add(path)
		}
	}

	snap := c.reconcileSets(universe, present, wholesale, refs)

	if snap.Missing.Total() > 0 {
		c.logger.Warn("live records reference files missing from disk; preserved, not repaired",
			logging.String(logging.FieldEventType, "missing_references"),
			logging.Int("attachment_files", len(snap.Missing.AttachmentFiles)),
			logging.Int("avatar_files", len(snap.Missing.AvatarFiles)),
			logging.Int("sticker_files", len(snap.Missing.StickerFiles)),
		)
	}
	return snap, nil
}

func (c *Collector) listRoots(roots []string) (map[string]time.Time, error) {
	merged := make(map[string]time.Time)
	for _, root := range roots {
		if !c.gate.Active() {
			return nil, ErrAborted
		}
		files, err := scan.ListFiles(root)
		if err != nil {
			c.logger.Warn("directory listing failed; attempt will be retried",
				logging.String("root", root),
				logging.Error(err),
			)
			return nil, err
		}
		for path, mtime := range files {
			merged[path] = mtime
		}
	}
	if !c.gate.Active() {
		return nil, ErrAborted
	}
	return merged, nil
}

func (c *Collector) collectReferences(ctx context.Context) (*referenceSets, error) {
	refs := newReferenceSets()
	rows := 0
	tick := func() error {
		rows++
		if rows%c.checkEvery == 0 && !c.gate.Active() {
			return ErrAborted
		}
		return nil
	}
	boundary := func() error {
		if !c.gate.Active() {
			return ErrAborted
		}
		return nil
	}

	err := c.store.View(ctx, func(sn *store.Snapshot) error {
		if err := sn.ForEachThread(func(t store.Thread) error {
			if err := tick(); err != nil {
				return err
			}
			refs.threadIDs.Add(t.ID)
			if t.AvatarPath != "" {
				refs.avatarFiles.Add(t.AvatarPath)
			}
			return nil
		}); err != nil {
			return err
		}
		if err := boundary(); err != nil {
			return err
		}

		if err := sn.ForEachProfile(func(p store.Profile) error {
			if err := tick(); err != nil {
				return err
			}
			if p.AvatarPath != "" {
				refs.avatarFiles.Add(p.AvatarPath)
			}
			return nil
		}); err != nil {
			return err
		}
		if err := boundary(); err != nil {
			return err
		}

		if err := sn.ForEachMessage(func(m store.Message) error {
			if err := tick(); err != nil {
				return err
			}
			refs.messageIDs.Add(m.ID)
			// A freshly written message may precede its thread row; treat it
			// as live until a later run can see the settled state.
			if refs.threadIDs.Contains(m.ThreadID) || c.recent(m.SentAt) {
				refs.messagesWithThread.Add(m.ID)
			}
			return nil
		}); err != nil {
			return err
		}
		if err := boundary(); err != nil {
			return err
		}

		if err := sn.ForEachAttachment(func(a store.Attachment) error {
			if err := tick(); err != nil {
				return err
			}
			refs.attachmentIDs.Add(a.ID)
			if c.recent(a.CreatedAt) {
				refs.recentAttachmentIDs.Add(a.ID)
			}
			if a.MessageID != nil {
				refs.attachmentMessage[a.ID] = *a.MessageID
			}
			// Pointer attachments have no on-disk payload; only stream
			// variants contribute to the file universe.
			if a.Kind == store.AttachmentStream {
				if a.BlobPath != "" {
					refs.attachmentFiles[a.ID] = append(refs.attachmentFiles[a.ID], a.BlobPath)
				}
				if a.ThumbPath != "" {
					refs.attachmentFiles[a.ID] = append(refs.attachmentFiles[a.ID], a.ThumbPath)
				}
			}
			return nil
		}); err != nil {
			return err
		}
		if err := boundary(); err != nil {
			return err
		}

		if err := sn.ForEachReaction(func(r store.Reaction) error {
			if err := tick(); err != nil {
				return err
			}
			refs.reactionIDs.Add(r.ID)
			if refs.messageIDs.Contains(r.MessageID) || c.recent(r.CreatedAt) {
				refs.reactionsWithOwner.Add(r.ID)
			}
			return nil
		}); err != nil {
			return err
		}
		if err := boundary(); err != nil {
			return err
		}

		if err := sn.ForEachMention(func(m store.Mention) error {
			if err := tick(); err != nil {
				return err
			}
			refs.mentionIDs.Add(m.ID)
			if refs.messageIDs.Contains(m.MessageID) || c.recent(m.CreatedAt) {
				refs.mentionsWithOwner.Add(m.ID)
			}
			return nil
		}); err != nil {
			return err
		}
		if err := boundary(); err != nil {
			return err
		}

		if err := sn.ForEachStoryPost(func(p store.StoryPost) error {
			if err := tick(); err != nil {
				return err
			}
			refs.storyAttachmentIDs.Add(p.AttachmentID)
			return nil
		}); err != nil {
			return err
		}
		if err := boundary(); err != nil {
			return err
		}

		if err := sn.ForEachJob(func(j store.Job) error {
			if err := tick(); err != nil {
				return err
			}
			for _, id := range j.AttachmentIDs {
				refs.jobAttachmentIDs.Add(id)
			}
			return nil
		}); err != nil {
			return err
		}
		if err := boundary(); err != nil {
			return err
		}

		installedPacks := make(reconcile.Set[int64])
		uninstalledPacks := make(reconcile.Set[int64])
		if err := sn.ForEachStickerPack(func(p store.StickerPack) error {
			if err := tick(); err != nil {
				return err
			}
			if p.Installed {
				installedPacks.Add(p.ID)
			} else {
				uninstalledPacks.Add(p.ID)
				refs.orphanedStickerRows = true
			}
			return nil
		}); err != nil {
			return err
		}
		if err := boundary(); err != nil {
			return err
		}

		return sn.ForEachSticker(func(s store.Sticker) error {
			if err := tick(); err != nil {
				return err
			}
			switch {
			case installedPacks.Contains(s.PackID):
				if s.BlobPath != "" {
					refs.installedStickers.Add(s.BlobPath)
				}
			default:
				// Pack missing or uninstalled; delegate to the coarse
				// sticker cleanup.
				refs.orphanedStickerRows = true
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return refs, nil
}

func (c *Collector) reconcileSets(universe, present, wholesale reconcile.Set[string], refs *referenceSets) *Snapshot {
	orphanMessages, _ := reconcile.Diff(refs.messageIDs, refs.messagesWithThread)
	orphanReactions, _ := reconcile.Diff(refs.reactionIDs, refs.reactionsWithOwner)
	orphanMentions, _ := reconcile.Diff(refs.mentionIDs, refs.mentionsWithOwner)

	// An attachment survives when a surviving message, any story post, or
	// any in-flight job reaches it.
	referencedAttachments := make(reconcile.Set[int64])
	for id, messageID := range refs.attachmentMessage {
		if refs.messagesWithThread.Contains(messageID) {
			referencedAttachments.Add(id)
		}
	}
	for id := range refs.storyAttachmentIDs {
		if refs.attachmentIDs.Contains(id) {
			referencedAttachments.Add(id)
		}
	}
	for id := range refs.jobAttachmentIDs {
		if refs.attachmentIDs.Contains(id) {
			referencedAttachments.Add(id)
		}
	}
	// Rows younger than the cutoff may still be waiting on their referrer.
	referencedAttachments.AddAll(refs.recentAttachmentIDs)
	orphanAttachments, _ := reconcile.Diff(refs.attachmentIDs, referencedAttachments)

	// Only surviving attachments keep their files; files of orphaned
	// records fall out of the reference set and are swept with them.
	attachmentFiles := make(reconcile.Set[string])
	for id := range referencedAttachments {
		for _, path := range refs.attachmentFiles[id] {
			attachmentFiles.Add(path)
		}
	}

	referencedFiles := make(reconcile.Set[string])
	referencedFiles.AddAll(attachmentFiles)
	referencedFiles.AddAll(refs.avatarFiles)
	referencedFiles.AddAll(refs.installedStickers)

	orphanFiles, _ := reconcile.Diff(universe, referencedFiles)

	_, missingAttachments := reconcile.Diff(present, attachmentFiles)
	_, missingAvatars := reconcile.Diff(present, refs.avatarFiles)
	_, missingStickers := reconcile.Diff(present, refs.installedStickers)

	return &Snapshot{
		OrphanMessageIDs:       orphanMessages,
		OrphanAttachmentIDs:    orphanAttachments,
		OrphanFilePaths:        orphanFiles,
		OrphanReactionIDs:      orphanReactions,
		OrphanMentionIDs:       orphanMentions,
		WholesalePaths:         wholesale,
		WholesaleRoots:         c.layout.WholesaleRoots(),
		HasOrphanedStickerData: refs.orphanedStickerRows,
		Missing: MissingReport{
			AttachmentFiles: missingAttachments,
			AvatarFiles:     missingAvatars,
			StickerFiles:    missingStickers,
		},
	}
}

package janitor

import "msgvault/internal/reconcile"

// Snapshot is the immutable result of one discovery attempt. It is consumed
// by exactly one processing pass and then discarded; nothing here is
// persisted or reused across attempts.
type Snapshot struct {
	// OrphanMessageIDs are messages whose parent thread no longer exists.
	OrphanMessageIDs reconcile.Set[int64]
	// OrphanAttachmentIDs are attachment records reachable from no surviving
	// message, story post, or in-flight job.
	OrphanAttachmentIDs reconcile.Set[int64]
	// OrphanFilePaths are on-disk files referenced by no surviving stream
	// attachment, avatar, or installed sticker. Protected prefixes are
	// filtered out before this set is computed.
	OrphanFilePaths reconcile.Set[string]
	// OrphanReactionIDs and OrphanMentionIDs are child rows whose owning
	// message no longer exists.
	OrphanReactionIDs reconcile.Set[int64]
	OrphanMentionIDs  reconcile.Set[int64]
	// WholesalePaths are files under roots with their own expiry rules
	// (voice-note drafts, wallpaper caches), reclaimed in full.
	WholesalePaths reconcile.Set[string]
	// WholesaleRoots are those roots themselves; a commit pass prunes
	// subdirectories the file deletions left empty. The roots stay.
	WholesaleRoots []string
	// HasOrphanedStickerData requests the coarser store-level sticker
	// cleanup; the janitor delegates it rather than performing it per row.
	HasOrphanedStickerData bool
	// Missing holds the referenced-but-absent diagnostics. Never remediated.
	Missing MissingReport
}

// MissingReport lists files a live record references that do not exist on
// disk, per category. Surfaced for diagnostics only.
type MissingReport struct {
	AttachmentFiles reconcile.Set[string]
	AvatarFiles     reconcile.Set[string]
	StickerFiles    reconcile.Set[string]
}

// Total returns the number of missing references across categories.
func (m MissingReport) Total() int {
	return len(m.AttachmentFiles) + len(m.AvatarFiles) + len(m.StickerFiles)
}

// HasWork reports whether any orphan set is non-empty.
func (s *Snapshot) HasWork() bool {
	return len(s.OrphanMessageIDs) > 0 ||
		len(s.OrphanAttachmentIDs) > 0 ||
		len(s.OrphanFilePaths) > 0 ||
		len(s.OrphanReactionIDs) > 0 ||
		len(s.OrphanMentionIDs) > 0 ||
		len(s.WholesalePaths) > 0 ||
		s.HasOrphanedStickerData
}

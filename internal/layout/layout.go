package layout

import (
	"msgvault/internal/config"
	"msgvault/internal/fileutil"
)

// Layout resolves directory roles for one vault.
type Layout struct {
	cfg *config.Config
	// transferActive reports whether a device-to-device transfer is staging
	// data right now; while it is, the staging directory is protected too.
	transferActive func() bool
}

// Option customizes a Layout.
type Option func(*Layout)

// WithTransferActive supplies the transfer-in-progress probe. Without it the
// transfer staging directory is never considered protected.
func WithTransferActive(probe func() bool) Option {
	return func(l *Layout) {
		l.transferActive = probe
	}
}

// New builds a Layout over the configured paths.
func New(cfg *config.Config, opts ...Option) *Layout {
	l := &Layout{cfg: cfg}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// ReferenceRoots are the directories whose files are candidates for orphan
// detection via record references: attachment payloads (current and legacy),
// avatars (current and legacy), group avatars, and sticker blobs.
func (l *Layout) ReferenceRoots() []string {
	p := l.cfg.Paths
	return []string{
		p.AttachmentsDir,
		p.LegacyAttachmentsDir,
		p.AvatarsDir,
		p.LegacyAvatarsDir,
		p.GroupAvatarsDir,
		p.StickersDir,
	}
}

// WholesaleRoots are directories whose contents follow their own expiry rules
// and are reclaimed in full: voice-note drafts and wallpaper caches.
func (l *Layout) WholesaleRoots() []string {
	p := l.cfg.Paths
	return []string{
		p.VoiceNoteDraftsDir,
		p.WallpapersDir,
	}
}

// ProtectedPrefixes returns directory prefixes that must never surface as
// orphan files, regardless of reference status. The database directories are
// always protected; the transfer staging directory only while a transfer is
// in progress.
func (l *Layout) ProtectedPrefixes() []string {
	prefixes := []string{
		l.cfg.DatabaseDir(),
		l.cfg.LegacyDatabaseDir(),
	}
	if l.transferActive != nil && l.transferActive() {
		prefixes = append(prefixes, l.cfg.Paths.TransferStagingDir)
	}
	return prefixes
}

// IsProtected reports whether path falls under any protected prefix.
func (l *Layout) IsProtected(path string) bool {
	for _, prefix := range l.ProtectedPrefixes() {
		if fileutil.WithinDir(prefix, path) {
			return true
		}
	}
	return false
}

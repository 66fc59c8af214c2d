package testsupport

import (
	"path/filepath"
	"testing"

	"msgvault/internal/config"
)

// NewConfig produces a config rooted in a unique temp directory per test.
// Every blob directory lives under the data root the way a default install
// lays them out.
func NewConfig(t testing.TB) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.AttachmentsDir = filepath.Join(cfg.Paths.DataDir, "attachments")
	cfg.Paths.LegacyAttachmentsDir = filepath.Join(cfg.Paths.DataDir, "attachments-legacy")
	cfg.Paths.AvatarsDir = filepath.Join(cfg.Paths.DataDir, "avatars")
	cfg.Paths.LegacyAvatarsDir = filepath.Join(cfg.Paths.DataDir, "avatars-legacy")
	cfg.Paths.GroupAvatarsDir = filepath.Join(cfg.Paths.DataDir, "group-avatars")
	cfg.Paths.StickersDir = filepath.Join(cfg.Paths.DataDir, "stickers")
	cfg.Paths.VoiceNoteDraftsDir = filepath.Join(cfg.Paths.DataDir, "voice-drafts")
	cfg.Paths.WallpapersDir = filepath.Join(cfg.Paths.DataDir, "wallpapers")
	cfg.Paths.TransferStagingDir = filepath.Join(cfg.Paths.DataDir, "transfer")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	// Fixtures are seeded moments before the code under test runs; the
	// in-flight-write shield would hide all of them. Tests that exercise the
	// shield set the window explicitly.
	cfg.Cleanup.RecencyWindowMinutes = 0
	return &cfg
}

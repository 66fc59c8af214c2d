package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeCleanup()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}

	blobDirs := []struct {
		name   string
		field  *string
		subdir string
	}{
		{"paths.attachments_dir", &c.Paths.AttachmentsDir, "attachments"},
		{"paths.legacy_attachments_dir", &c.Paths.LegacyAttachmentsDir, "attachments-legacy"},
		{"paths.avatars_dir", &c.Paths.AvatarsDir, "avatars"},
		{"paths.legacy_avatars_dir", &c.Paths.LegacyAvatarsDir, "avatars-legacy"},
		{"paths.group_avatars_dir", &c.Paths.GroupAvatarsDir, "group-avatars"},
		{"paths.stickers_dir", &c.Paths.StickersDir, "stickers"},
		{"paths.voice_note_drafts_dir", &c.Paths.VoiceNoteDraftsDir, "voice-drafts"},
		{"paths.wallpapers_dir", &c.Paths.WallpapersDir, "wallpapers"},
		{"paths.transfer_staging_dir", &c.Paths.TransferStagingDir, "transfer"},
	}
	for _, dir := range blobDirs {
		if strings.TrimSpace(*dir.field) == "" {
			*dir.field = filepath.Join(c.Paths.DataDir, dir.subdir)
			continue
		}
		expanded, err := expandPath(*dir.field)
		if err != nil {
			return fmt.Errorf("%s: %w", dir.name, err)
		}
		*dir.field = expanded
	}
	return nil
}

func (c *Config) normalizeCleanup() {
	if c.Cleanup.RetryBudget <= 0 {
		c.Cleanup.RetryBudget = defaultCleanupRetryBudget
	}
	if c.Cleanup.ScanBatchRows <= 0 {
		c.Cleanup.ScanBatchRows = defaultCleanupScanRows
	}
	if c.Cleanup.DeleteBatchSize <= 0 {
		c.Cleanup.DeleteBatchSize = defaultCleanupDeleteBatch
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

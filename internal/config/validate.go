package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateCleanup(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return errors.New("paths.data_dir must be set")
	}
	// A blob directory layered over the database directory would put the
	// database inside the orphan-scan universe. Protected prefixes would
	// still exclude it, but the layout is almost certainly a mistake.
	dbDir := c.DatabaseDir()
	scanDirs := map[string]string{
		"paths.attachments_dir":        c.Paths.AttachmentsDir,
		"paths.legacy_attachments_dir": c.Paths.LegacyAttachmentsDir,
		"paths.avatars_dir":            c.Paths.AvatarsDir,
		"paths.legacy_avatars_dir":     c.Paths.LegacyAvatarsDir,
		"paths.group_avatars_dir":      c.Paths.GroupAvatarsDir,
		"paths.stickers_dir":           c.Paths.StickersDir,
		"paths.voice_note_drafts_dir":  c.Paths.VoiceNoteDraftsDir,
		"paths.wallpapers_dir":         c.Paths.WallpapersDir,
	}
	for name, dir := range scanDirs {
		if dir == dbDir {
			return fmt.Errorf("%s overlaps the database directory %q", name, dbDir)
		}
	}
	return nil
}

func (c *Config) validateCleanup() error {
	if c.Cleanup.RetryBudget < 1 {
		return errors.New("cleanup.retry_budget must be at least 1")
	}
	if c.Cleanup.ScanBatchRows < 1 {
		return errors.New("cleanup.scan_batch_rows must be at least 1")
	}
	if c.Cleanup.DeleteBatchSize < 1 {
		return errors.New("cleanup.delete_batch_size must be at least 1")
	}
	if c.Cleanup.RecencyWindowMinutes < 0 {
		return errors.New("cleanup.recency_window_minutes must not be negative")
	}
	return nil
}

package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration for the vault.
//
// DataDir is the root of the hybrid store. Blob directories default to
// subdirectories of DataDir but may be relocated independently, which is how
// legacy installs end up with split layouts.
type Paths struct {
	DataDir              string `toml:"data_dir"`
	AttachmentsDir       string `toml:"attachments_dir"`
	LegacyAttachmentsDir string `toml:"legacy_attachments_dir"`
	AvatarsDir           string `toml:"avatars_dir"`
	LegacyAvatarsDir     string `toml:"legacy_avatars_dir"`
	GroupAvatarsDir      string `toml:"group_avatars_dir"`
	StickersDir          string `toml:"stickers_dir"`
	VoiceNoteDraftsDir   string `toml:"voice_note_drafts_dir"`
	WallpapersDir        string `toml:"wallpapers_dir"`
	TransferStagingDir   string `toml:"transfer_staging_dir"`
	LogDir               string `toml:"log_dir"`
}

// Cleanup contains tuning for the orphan-data cleanup engine.
type Cleanup struct {
	// RetryBudget is how many discovery or deletion attempts are made before
	// the run is reported as failed.
	RetryBudget int `toml:"retry_budget"`
	// ScanBatchRows is how many rows are enumerated between liveness checks
	// during snapshot collection.
	ScanBatchRows int `toml:"scan_batch_rows"`
	// DeleteBatchSize bounds each delete statement and each burst of file
	// removals between liveness checks.
	DeleteBatchSize int `toml:"delete_batch_size"`
	// RecencyWindowMinutes shields anything written within this many minutes
	// of a run from reconciliation, so a blob whose record has not committed
	// yet is never swept. Zero disables the guard.
	RecencyWindowMinutes int `toml:"recency_window_minutes"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for msgvault.
//
// Configuration sections by subsystem:
//   - Paths: data root, blob directories, and log directory
//   - Cleanup: retry budget and batch sizes for the cleanup engine
//   - Logging: log format and level
type Config struct {
	Paths   Paths   `toml:"paths"`
	Cleanup Cleanup `toml:"cleanup"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/msgvault/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. When no file exists at
// the resolved location the repository defaults are returned.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		info, err := os.Stat(expanded)
		if err != nil {
			if os.IsNotExist(err) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config %q: %w", expanded, err)
		}
		if info.IsDir() {
			return "", false, fmt.Errorf("config path %q is a directory", expanded)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	return defaultPath, false, nil
}

// DatabaseDir returns the directory holding the live SQLite database. It is
// always excluded from orphan-file consideration.
func (c *Config) DatabaseDir() string {
	return filepath.Join(c.Paths.DataDir, "db")
}

// LegacyDatabaseDir returns the hotswap database location kept from older
// installs. Also always protected.
func (c *Config) LegacyDatabaseDir() string {
	return filepath.Join(c.Paths.DataDir, "db-hotswap")
}

// DatabasePath returns the vault database file path.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DatabaseDir(), "vault.db")
}

// LockPath returns the path of the flock file guarding mutating runs.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "msgvault.lock")
}

// EnsureDirectories creates the directories a vault needs before the store or
// the cleanup engine touch disk.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Paths.DataDir,
		c.DatabaseDir(),
		c.Paths.AttachmentsDir,
		c.Paths.AvatarsDir,
		c.Paths.GroupAvatarsDir,
		c.Paths.StickersDir,
		c.Paths.VoiceNoteDraftsDir,
		c.Paths.WallpapersDir,
		c.Paths.LogDir,
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

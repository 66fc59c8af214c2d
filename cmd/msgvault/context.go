package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gofrs/flock"

	"msgvault/internal/config"
	"msgvault/internal/logging"
	"msgvault/internal/store"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// withStore opens the vault database for the duration of fn.
func (c *commandContext) withStore(fn func(*config.Config, *store.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	st, err := store.Open(cfg)
	if err != nil {
		return fmt.Errorf("open vault: %w", err)
	}
	defer st.Close()
	return fn(cfg, st)
}

// fileLogger builds a logger writing only to the vault log file, keeping
// stdout free for command output.
func fileLogger(cfg *config.Config) (*slog.Logger, error) {
	if cfg.Paths.LogDir == "" {
		return logging.NewNop(), nil
	}
	if err := os.MkdirAll(cfg.Paths.LogDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure log directory: %w", err)
	}
	return logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      "json",
		OutputPaths: []string{filepath.Join(cfg.Paths.LogDir, "msgvault.log")},
	})
}

// withLock runs fn while holding the vault's instance lock. Two msgvault
// processes reconciling the same vault at once would race each other's
// snapshots, so a held lock is a hard refusal, not a wait.
func (c *commandContext) withLock(fn func(*config.Config, *store.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}

	lock := flock.New(cfg.LockPath())
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire vault lock: %w", err)
	}
	if !ok {
		return errors.New("another msgvault instance is already working on this vault")
	}
	defer func() {
		_ = lock.Unlock()
	}()

	return c.withStore(fn)
}

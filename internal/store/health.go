package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"
)

// DatabaseHealth reports diagnostic information about the vault database.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	Counts           map[string]int64
	Error            string
}

var healthTables = []string{
	"threads", "profiles", "messages", "attachments",
	"reactions", "mentions", "story_posts", "jobs",
	"sticker_packs", "stickers",
}

// CheckHealth returns diagnostic information about the vault database.
func (s *Store) CheckHealth(ctx context.Context) (DatabaseHealth, error) {
	health := DatabaseHealth{DBPath: s.path, Counts: make(map[string]int64)}

	if s.path == "" {
		return health, errors.New("vault database path is unknown")
	}

	info, err := os.Stat(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return health, nil
		}
		return health, fmt.Errorf("stat vault database: %w", err)
	}
	if info.IsDir() {
		return health, fmt.Errorf("vault database path %q is a directory", s.path)
	}
	health.DatabaseExists = true

	if s.db == nil {
		return health, errors.New("vault database connection unavailable")
	}

	connCtx, cancel := context.WithTimeout(ensureContext(ctx), 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(connCtx); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("ping vault database: %w", err)
	}
	health.DatabaseReadable = true

	for _, table := range healthTables {
		var count int64
		if err := s.db.QueryRowContext(connCtx, "SELECT COUNT(1) FROM "+table).Scan(&count); err != nil {
			health.Error = err.Error()
			return health, fmt.Errorf("count %s: %w", table, err)
		}
		health.Counts[table] = count
	}

	return health, nil
}

// Package fileutil provides small filesystem helpers shared across msgvault.
package fileutil

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// RemoveIfExists deletes path, treating "already gone" as success.
func RemoveIfExists(path string) error {
	err := os.Remove(path)
	if err == nil || errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// PruneEmptyDirs removes directories beneath root that are empty, deepest
// first so emptied parents fall too. root itself is kept. A missing root is
// not an error. Returns the number of directories removed.
func PruneEmptyDirs(root string) (int, error) {
	var dirs []string
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() && path != root {
			dirs = append(dirs, path)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}

	// A parent is always a strict prefix of its children, so longest-first
	// visits children before parents.
	sort.Slice(dirs, func(i, j int) bool { return len(dirs[i]) > len(dirs[j]) })

	removed := 0
	for _, dir := range dirs {
		// Remove refuses non-empty directories; that is the emptiness check.
		if err := os.Remove(dir); err == nil {
			removed++
		}
	}
	return removed, nil
}

// WithinDir reports whether path is dir itself or lies beneath it. Both
// arguments are cleaned before comparison; no symlink resolution happens.
func WithinDir(dir, path string) bool {
	dir = filepath.Clean(dir)
	path = filepath.Clean(path)
	if dir == "" || dir == "." {
		return false
	}
	if path == dir {
		return true
	}
	return strings.HasPrefix(path, dir+string(filepath.Separator))
}

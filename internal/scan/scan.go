package scan

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// ListError wraps a failed directory enumeration. Callers treat it as
// "could not determine", distinct from an empty listing.
type ListError struct {
	Root string
	Err  error
}

func (e *ListError) Error() string {
	return fmt.Sprintf("list %s: %v", e.Root, e.Err)
}

func (e *ListError) Unwrap() error { return e.Err }

// ListFiles returns the non-directory entries recursively enumerable beneath
// root, keyed by absolute path, with each entry's modification time. A
// missing root yields an empty map; any other failure yields a ListError and
// no map.
func ListFiles(root string) (map[string]time.Time, error) {
	files := make(map[string]time.Time)
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() {
			return nil
		}
		info, err := entry.Info()
		if err != nil {
			// Vanished mid-walk; nothing left to reconcile.
			if errors.Is(err, os.ErrNotExist) {
				return nil
			}
			return err
		}
		absolute, err := filepath.Abs(path)
		if err != nil {
			return err
		}
		files[absolute] = info.ModTime()
		return nil
	})
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]time.Time{}, nil
		}
		return nil, &ListError{Root: root, Err: err}
	}
	return files, nil
}

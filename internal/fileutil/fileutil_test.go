package fileutil_test

import (
	"os"
	"path/filepath"
	"testing"

	"msgvault/internal/fileutil"
	"msgvault/internal/testsupport"
)

func TestRemoveIfExists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.bin")
	testsupport.WriteFile(t, path, 8)

	if err := fileutil.RemoveIfExists(path); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("expected file to be gone")
	}
	if err := fileutil.RemoveIfExists(path); err != nil {
		t.Fatalf("second remove should succeed: %v", err)
	}
}

func TestPruneEmptyDirs(t *testing.T) {
	root := t.TempDir()
	keep := filepath.Join(root, "keep", "file.bin")
	testsupport.WriteFile(t, keep, 4)
	if err := os.MkdirAll(filepath.Join(root, "a", "b", "c"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	removed, err := fileutil.PruneEmptyDirs(root)
	if err != nil {
		t.Fatalf("PruneEmptyDirs: %v", err)
	}
	if removed != 3 {
		t.Errorf("removed = %d, want 3", removed)
	}
	if _, err := os.Stat(filepath.Join(root, "a")); !os.IsNotExist(err) {
		t.Error("empty tree not removed")
	}
	if _, err := os.Stat(keep); err != nil {
		t.Errorf("occupied directory lost its file: %v", err)
	}
	if _, err := os.Stat(root); err != nil {
		t.Errorf("root itself removed: %v", err)
	}

	if removed, err := fileutil.PruneEmptyDirs(filepath.Join(root, "gone")); err != nil || removed != 0 {
		t.Errorf("missing root: removed=%d err=%v", removed, err)
	}
}

func TestWithinDir(t *testing.T) {
	cases := []struct {
		dir, path string
		want      bool
	}{
		{"/data/db", "/data/db/vault.db", true},
		{"/data/db", "/data/db", true},
		{"/data/db", "/data/db-hotswap/vault.db", false},
		{"/data/db", "/data/attachments/a.bin", false},
		{"/data/db", "/data/db/../attachments/a.bin", false},
		{"", "/data/db", false},
	}
	for _, tc := range cases {
		if got := fileutil.WithinDir(tc.dir, tc.path); got != tc.want {
			t.Errorf("WithinDir(%q, %q) = %v, want %v", tc.dir, tc.path, got, tc.want)
		}
	}
}

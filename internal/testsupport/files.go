package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
)

// WriteFile fills the target path with the requested number of bytes using a
// simple repeating pattern. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	const chunkSize = 32 * 1024
	buf := make([]byte, chunkSize)
	for i := range buf {
		buf[i] = 0x42
	}

	remaining := size
	for remaining > 0 {
		toWrite := int64(chunkSize)
		if remaining < toWrite {
			toWrite = remaining
		}
		if _, err := f.Write(buf[:toWrite]); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
		remaining -= toWrite
	}
}

// NewBlob writes a small blob with a random name under dir and returns its
// path, mirroring how the vault names attachment payloads.
func NewBlob(t testing.TB, dir, ext string) string {
	t.Helper()

	name := uuid.NewString()
	if ext != "" {
		name += ext
	}
	path := filepath.Join(dir, name)
	WriteFile(t, path, 64)
	return path
}

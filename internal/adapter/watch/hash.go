package watch

import (
	"crypto/md5"
	"os"
	"sync"
)

// hashTracker remembers per-file content hashes so touch and chmod events
// that leave bytes unchanged do not trigger re-lints.
type hashTracker struct {
	mu     sync.Mutex
	hashes map[string][md5.Size]byte
}

func newHashTracker() *hashTracker {
	return &hashTracker{hashes: make(map[string][md5.Size]byte)}
}

// HasChanged reports whether the file's content differs from the last time
// it was seen, and records the new hash. Unreadable files count as changed;
// the lint cycle will surface the real error.
func (t *hashTracker) HasChanged(path string) bool {
	content, err := os.ReadFile(path)
	if err != nil {
		t.Remove(path)
		return true
	}
	sum := md5.Sum(content)

	t.mu.Lock()
	defer t.mu.Unlock()
	previous, seen := t.hashes[path]
	t.hashes[path] = sum
	return !seen || previous != sum
}

// Remove forgets a file, so a re-created file always counts as changed.
func (t *hashTracker) Remove(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.hashes, path)
}

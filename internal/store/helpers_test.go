package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/algot/internal/testutil"
)

// createTestStore opens a fresh store whose replay ids are replay-1,
// replay-2, and so on.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, WithIDGenerator(testutil.NewCountingIDGenerator("replay", 16)))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

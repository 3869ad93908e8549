package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/tea/middleware"
)

// createTestStore creates a new file-backed store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

var testTime = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

// createTestEntry creates a journal entry with a JSON payload.
func createTestEntry(run string, seq int64, kind, payload string) middleware.Entry {
	return middleware.Entry{
		Run:     run,
		Seq:     seq,
		Kind:    kind,
		Payload: []byte(payload),
		At:      testTime.Add(time.Duration(seq) * time.Second),
	}
}

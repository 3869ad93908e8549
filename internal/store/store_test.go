package store

import (
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	assert.FileExists(t, path)
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	var count int
	require.NoError(t, s2.DB().QueryRow("SELECT COUNT(*) FROM messages").Scan(&count))
	assert.Equal(t, 0, count)
}

func TestOpen_Pragmas(t *testing.T) {
	s := createTestStore(t)

	for name, want := range map[string]string{
		"journal_mode": "wal",
		"synchronous":  "1",
		"busy_timeout": "5000",
		"user_version": strconv.Itoa(currentSchemaVersion),
	} {
		got, err := s.pragma(name)
		require.NoError(t, err)
		assert.Equal(t, want, got, name)
	}
}

func TestOpen_Memory(t *testing.T) {
	s, err := Open(":memory:")
	require.NoError(t, err)
	defer s.Close()

	_, err = s.DB().Exec("SELECT 1 FROM snapshots")
	assert.NoError(t, err)
}

func TestClose_NilDB(t *testing.T) {
	var s Store
	assert.NoError(t, s.Close())
}

func TestOpen_MigratesOlderDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.db")

	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.DB().Exec("DROP INDEX idx_messages_run_kind")
	require.NoError(t, err)
	_, err = s.DB().Exec("PRAGMA user_version = 0")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	var n int
	require.NoError(t, s.DB().QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'index' AND name = 'idx_messages_run_kind'",
	).Scan(&n))
	assert.Equal(t, 1, n)
}

// ABOUTME: Tests for SQLite store implementation
// ABOUTME: Covers creation, key/value round trips, overwrite and delete semantics

package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewSQLiteStore_CreatesDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "subdir", "nested", "test.db")

	s, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer s.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("database file was not created in nested directory")
	}
}

func TestSQLiteStore_GetMissing(t *testing.T) {
	s := newTestStore(t)

	v, ok, err := s.Get(context.Background(), ThreadIDKey)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, v)
}

func TestSQLiteStore_SetOverwriteDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, ThreadIDKey, "T1"))
	v, ok, err := s.Get(ctx, ThreadIDKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "T1", v)

	require.NoError(t, s.Set(ctx, ThreadIDKey, "T2"))
	v, _, err = s.Get(ctx, ThreadIDKey)
	require.NoError(t, err)
	assert.Equal(t, "T2", v)

	require.NoError(t, s.Delete(ctx, ThreadIDKey))
	_, ok, err = s.Get(ctx, ThreadIDKey)
	require.NoError(t, err)
	assert.False(t, ok)

	// deleting again is fine
	require.NoError(t, s.Delete(ctx, ThreadIDKey))
}

func TestSQLiteStore_SurvivesReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "chat.db")
	ctx := context.Background()

	s1, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, s1.Set(ctx, ThreadIDKey, "thread-persisted"))
	require.NoError(t, s1.Close())

	s2, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer s2.Close()

	v, ok, err := s2.Get(ctx, ThreadIDKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "thread-persisted", v)
}

func TestMockStore_ClosedReturnsError(t *testing.T) {
	m := NewMockStoreWith(map[string]string{ThreadIDKey: "T0"})
	ctx := context.Background()

	assert.Equal(t, "T0", m.Value(ThreadIDKey))
	require.NoError(t, m.Close())

	_, _, err := m.Get(ctx, ThreadIDKey)
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, m.Set(ctx, ThreadIDKey, "x"), ErrClosed)
}

package kvdb

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/sumitmalik51/gitsecureops/config"
	"github.com/sumitmalik51/gitsecureops/logger"
)

func newTestLogger() logger.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func newTestDB(t *testing.T) *BoltDB {
	t.Helper()

	t.Setenv("ENV", "test")
	t.Setenv("KVDB_PATH", filepath.Join(t.TempDir(), "kv.db"))

	cfg, err := config.Load()
	require.NoError(t, err)

	db, err := New(newTestLogger(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return db
}

func TestSetAndGet(t *testing.T) {
	assert := require.New(t)
	db := newTestDB(t)

	assert.NoError(db.Set("audit/entry-1", `{"action":"remove_collaborator"}`))

	value, err := db.Get("audit/entry-1")
	assert.NoError(err)
	assert.Equal(`{"action":"remove_collaborator"}`, value)
}

func TestSetOverwritesValue(t *testing.T) {
	assert := require.New(t)
	db := newTestDB(t)

	assert.NoError(db.Set("key", "first"))
	assert.NoError(db.Set("key", "second"))

	value, err := db.Get("key")
	assert.NoError(err)
	assert.Equal("second", value)
}

func TestEmptyKeyRejected(t *testing.T) {
	assert := require.New(t)
	db := newTestDB(t)

	assert.ErrorIs(db.Set("", "value"), ErrInvalidKey)

	_, err := db.Get("")
	assert.ErrorIs(err, ErrInvalidKey)
}

func TestGetMissingKey(t *testing.T) {
	assert := require.New(t)
	db := newTestDB(t)

	_, err := db.Get("missing")
	assert.ErrorIs(err, ErrNotFound)
}

func TestListReturnsNewestFirst(t *testing.T) {
	assert := require.New(t)
	db := newTestDB(t)

	// Keys embed a sortable timestamp, so byte order is age order.
	assert.NoError(db.Set("audit/2025-01-01T00:00:00Z-a", "oldest"))
	assert.NoError(db.Set("audit/2025-02-01T00:00:00Z-b", "middle"))
	assert.NoError(db.Set("audit/2025-03-01T00:00:00Z-c", "newest"))
	assert.NoError(db.Set("other/2025-04-01T00:00:00Z-d", "unrelated"))

	entries, err := db.List("audit/", 0)
	assert.NoError(err)
	assert.Len(entries, 3)
	assert.Equal("newest", entries[0].Value)
	assert.Equal("middle", entries[1].Value)
	assert.Equal("oldest", entries[2].Value)
}

func TestListHonorsLimit(t *testing.T) {
	assert := require.New(t)
	db := newTestDB(t)

	assert.NoError(db.Set("audit/1", "a"))
	assert.NoError(db.Set("audit/2", "b"))
	assert.NoError(db.Set("audit/3", "c"))

	entries, err := db.List("audit/", 2)
	assert.NoError(err)
	assert.Len(entries, 2)
	assert.Equal("audit/3", entries[0].Key)
	assert.Equal("audit/2", entries[1].Key)
}

func TestListStopsAtPrefixBoundary(t *testing.T) {
	assert := require.New(t)
	db := newTestDB(t)

	// Neighbors sorting immediately before and after the prefix region
	// must not leak into the listing.
	assert.NoError(db.Set("audis/1", "below"))
	assert.NoError(db.Set("audit/1", "inside-old"))
	assert.NoError(db.Set("audit/2", "inside-new"))
	assert.NoError(db.Set("audiu/1", "above"))

	entries, err := db.List("audit/", 0)
	assert.NoError(err)
	assert.Len(entries, 2)
	assert.Equal("inside-new", entries[0].Value)
	assert.Equal("inside-old", entries[1].Value)
}

func TestListEmptyPrefixReturnsEverything(t *testing.T) {
	assert := require.New(t)
	db := newTestDB(t)

	assert.NoError(db.Set("a/1", "first"))
	assert.NoError(db.Set("b/1", "second"))
	assert.NoError(db.Set("c/1", "third"))

	entries, err := db.List("", 0)
	assert.NoError(err)
	assert.Len(entries, 3)
	assert.Equal("c/1", entries[0].Key)
	assert.Equal("a/1", entries[2].Key)
}

func TestPrefixUpperBound(t *testing.T) {
	assert := require.New(t)

	assert.Equal([]byte("audit0"), prefixUpperBound([]byte("audit/")))
	assert.Equal([]byte("b"), prefixUpperBound([]byte("a\xff")))
	assert.Nil(prefixUpperBound([]byte("\xff\xff")))
	assert.Nil(prefixUpperBound(nil))
}

func TestListWithoutMatches(t *testing.T) {
	assert := require.New(t)
	db := newTestDB(t)

	assert.NoError(db.Set("other/1", "a"))

	entries, err := db.List("audit/", 0)
	assert.NoError(err)
	assert.Empty(entries)
}

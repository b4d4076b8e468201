package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func testStoreReadWrite(t *testing.T, store ArtifactStore) {
	t.Helper()
	ctx := context.Background()

	_, err := store.Get(ctx, "high_quality_average.json")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Put(ctx, "high_quality_average.json", []byte(`{"high_average_quality":7.5}`), ContentTypeJSON))
	got, err := store.Get(ctx, "high_quality_average.json")
	require.NoError(t, err)
	require.Equal(t, `{"high_average_quality":7.5}`, string(got))

	// Overwrite in place, no versioning.
	require.NoError(t, store.Put(ctx, "high_quality_average.json", []byte(`{"high_average_quality":8}`), ContentTypeJSON))
	got, err = store.Get(ctx, "high_quality_average.json")
	require.NoError(t, err)
	require.Equal(t, `{"high_average_quality":8}`, string(got))
}

func TestMemoryStore_ReadWrite(t *testing.T) {
	store := NewMemoryStore()
	testStoreReadWrite(t, store)

	contentType, ok := store.ContentType("high_quality_average.json")
	require.True(t, ok)
	require.Equal(t, ContentTypeJSON, contentType)
	require.Equal(t, 1, store.Len())
}

func TestMemoryStore_GetReturnsCopy(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "k", []byte("abc"), "text/plain"))

	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	got[0] = 'z'

	again, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "abc", string(again))
}

func TestFileSystemStore_ReadWrite(t *testing.T) {
	store := NewFileSystemStore(t.TempDir())
	testStoreReadWrite(t, store)
	require.NoError(t, store.Ping(context.Background()))
}

func TestFileSystemStore_ReadsExistingFiles(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "winequality-red.csv"), []byte("quality\n5\n"), 0o644))

	got, err := NewFileSystemStore(root).Get(context.Background(), "winequality-red.csv")
	require.NoError(t, err)
	require.Equal(t, "quality\n5\n", string(got))
}

func TestFileSystemStore_KeysStayUnderRoot(t *testing.T) {
	root := t.TempDir()
	store := NewFileSystemStore(filepath.Join(root, "data"))
	require.NoError(t, store.Put(context.Background(), "../../escape.json", []byte("{}"), ContentTypeJSON))

	_, err := os.Stat(filepath.Join(root, "escape.json"))
	require.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(root, "data", "escape.json"))
	require.NoError(t, err)
}

func TestFileSystemStore_PingMissingRoot(t *testing.T) {
	store := NewFileSystemStore(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, store.Ping(context.Background()))
}

type scopedStore struct {
	*MemoryStore
	bucket string
}

func (s *scopedStore) WithBucket(bucket string) ArtifactStore {
	return &scopedStore{MemoryStore: s.MemoryStore, bucket: bucket}
}

func TestForBucket(t *testing.T) {
	plain := NewMemoryStore()
	require.Same(t, plain, ForBucket(plain, "other"))

	scoped := &scopedStore{MemoryStore: NewMemoryStore(), bucket: "dataka"}
	require.Same(t, scoped, ForBucket(scoped, ""))

	got, ok := ForBucket(scoped, "other").(*scopedStore)
	require.True(t, ok)
	require.Equal(t, "other", got.bucket)
}

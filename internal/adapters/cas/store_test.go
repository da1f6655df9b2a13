package cas_test

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/shade/internal/adapters/cas"
	"go.trai.ch/shade/internal/core/domain"
)

func TestStore_PutGet(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	store := cas.NewStore()

	record := domain.BuildRecord{
		Key:         "program/sprite/none/0123456789abcdef",
		Kind:        "program",
		Identifier:  "sprite",
		Digest:      "abc",
		BuiltAt:     time.Now().UTC().Truncate(time.Second),
		EntryPoints: []domain.EntryPoint{{Name: "vs_main", Stage: domain.StageVertex}},
	}

	t.Run("put and get", func(t *testing.T) {
		t.Parallel()
		require.NoError(t, store.Put(root, record))

		got, err := store.Get(root, "sprite")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, record, *got)
	})

	t.Run("get missing", func(t *testing.T) {
		t.Parallel()
		got, err := store.Get(root, "missing")
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestStore_PutReplaces(t *testing.T) {
	root := t.TempDir()
	store := cas.NewStore()

	require.NoError(t, store.Put(root, domain.BuildRecord{Identifier: "sprite", Digest: "one"}))
	require.NoError(t, store.Put(root, domain.BuildRecord{Identifier: "sprite", Digest: "two"}))

	got, err := store.Get(root, "sprite")
	require.NoError(t, err)
	assert.Equal(t, "two", got.Digest)

	entries, err := os.ReadDir(filepath.Join(root, domain.DefaultStorePath()))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files are cleaned up")
}

func TestStore_GetCorrupt(t *testing.T) {
	root := t.TempDir()
	store := cas.NewStore()

	require.NoError(t, store.Put(root, domain.BuildRecord{Identifier: "sprite"}))

	dir := filepath.Join(root, domain.DefaultStorePath())
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	require.NoError(t, os.WriteFile(filepath.Join(dir, entries[0].Name()), []byte("{ invalid json"), 0o600))

	_, err = store.Get(root, "sprite")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStoreUnmarshalFailed)
}

func TestStore_PutUnwritableRoot(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0o600))

	err := cas.NewStore().Put(file, domain.BuildRecord{Identifier: "sprite"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStoreCreateFailed)
}

func TestStore_List(t *testing.T) {
	root := t.TempDir()
	store := cas.NewStore()

	records, err := store.List(root)
	require.NoError(t, err)
	assert.Empty(t, records)

	for _, id := range []string{"tree", "sprite", "water"} {
		require.NoError(t, store.Put(root, domain.BuildRecord{Identifier: id}))
	}

	records, err = store.List(root)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "sprite", records[0].Identifier)
	assert.Equal(t, "tree", records[1].Identifier)
	assert.Equal(t, "water", records[2].Identifier)
}

func TestStore_ConcurrentPut(t *testing.T) {
	root := t.TempDir()
	store := cas.NewStore()

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Go(func() {
			assert.NoError(t, store.Put(root, domain.BuildRecord{Identifier: "sprite", Digest: string(rune('a' + i))}))
		})
	}
	wg.Wait()

	got, err := store.Get(root, "sprite")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Len(t, got.Digest, 1)
}

package burrow

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/pebble"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/burrowdb/burrow/utils"
)

func testConfig() Config {
	return Config{Logger: utils.NopLogger{}}
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenStore(filepath.Join(t.TempDir(), "collection"), testConfig())
	require.NoError(t, err)
	t.Cleanup(func() {
		if store.db != nil {
			_ = store.Close()
		}
	})
	return store
}

func TestStoreSetGetDelete(t *testing.T) {
	store := openTestStore(t)

	val, found, err := store.Get([]byte("missing"))
	assert.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, val)

	require.NoError(t, store.Set([]byte("k"), []byte("v")))
	val, found, err = store.Get([]byte("k"))
	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("v"), val)

	require.NoError(t, store.Delete([]byte("k")))
	_, found, err = store.Get([]byte("k"))
	assert.NoError(t, err)
	assert.False(t, found)
}

func TestStoreBatchAppliesAtomically(t *testing.T) {
	store := openTestStore(t)
	require.NoError(t, store.Set([]byte("stale"), []byte("x")))

	batch := pebble.Batch{}
	require.NoError(t, batch.Set([]byte("a"), []byte("1"), nil))
	require.NoError(t, batch.Set([]byte("b"), []byte("2"), nil))
	require.NoError(t, batch.Delete([]byte("stale"), nil))
	require.NoError(t, store.Apply(&batch))

	_, found, _ := store.Get([]byte("a"))
	assert.True(t, found)
	_, found, _ = store.Get([]byte("b"))
	assert.True(t, found)
	_, found, _ = store.Get([]byte("stale"))
	assert.False(t, found)
}

func TestStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "collection")
	store, err := OpenStore(path, testConfig())
	require.NoError(t, err)
	require.NoError(t, store.Set([]byte("k"), []byte("v")))
	require.NoError(t, store.Close())

	store, err = OpenStore(path, testConfig())
	require.NoError(t, err)
	defer store.Close()

	val, found, err := store.Get([]byte("k"))
	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("v"), val)
}

func TestStoreOpenFailureSurfaces(t *testing.T) {
	// a regular file where the db directory should be
	path := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	_, err := OpenStore(path, testConfig())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "open kv store")
}

func TestStoreScanPrefix(t *testing.T) {
	store := openTestStore(t)
	require.NoError(t, store.Set([]byte("p:a"), []byte("1")))
	require.NoError(t, store.Set([]byte("p:b"), []byte("2")))
	require.NoError(t, store.Set([]byte("q:c"), []byte("3")))

	var keys []string
	err := store.scanPrefix([]byte("p:"), func(key, value []byte) error {
		keys = append(keys, string(key))
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, []string{"p:a", "p:b"}, keys)
}

func TestStoreClosedOperationsFail(t *testing.T) {
	store := openTestStore(t)
	require.NoError(t, store.Close())

	_, _, err := store.Get([]byte("k"))
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, store.Set([]byte("k"), nil), ErrClosed)
	assert.ErrorIs(t, store.Delete([]byte("k")), ErrClosed)
	assert.ErrorIs(t, store.Close(), ErrClosed)
}

func TestStoreConfigDefaults(t *testing.T) {
	cfg := Config{}
	cfg.SetDefaults()
	assert.Equal(t, 2, cfg.Parallelism)
	assert.Equal(t, 512, cfg.MaxOpenFiles)
	assert.Equal(t, 1, cfg.MaxBackgroundCompactions)
	assert.Equal(t, 1, cfg.MaxBackgroundFlushes)
	assert.NotNil(t, cfg.Logger)
}

package burrow

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/burrowdb/burrow/utils"
)

func TestPoolSharesOneHandlePerCollection(t *testing.T) {
	pool := NewPool(Config{Path: t.TempDir(), Logger: utils.NopLogger{}})
	defer pool.Close()

	s1, release1, err := pool.Acquire("conversations")
	require.NoError(t, err)
	s2, release2, err := pool.Acquire("conversations")
	require.NoError(t, err)
	assert.Same(t, s1, s2)

	other, release3, err := pool.Acquire("messages")
	require.NoError(t, err)
	assert.NotSame(t, s1, other)

	release1()
	release2()
	release3()
}

func TestPoolIdleCloseAndReopen(t *testing.T) {
	pool := NewPool(Config{
		Path:        t.TempDir(),
		IdleTimeout: 20 * time.Millisecond,
		Logger:      utils.NopLogger{},
	})
	defer pool.Close()

	store, release, err := pool.Acquire("c")
	require.NoError(t, err)
	require.NoError(t, store.Set([]byte("k"), []byte("v")))
	release()

	assert.Eventually(t, func() bool {
		entry, ok := pool.entries.Load("c")
		if !ok {
			return false
		}
		entry.mu.Lock()
		defer entry.mu.Unlock()
		return entry.store == nil
	}, time.Second, 5*time.Millisecond, "idle handle should close")

	// reopens transparently, with prior writes intact
	store, release, err = pool.Acquire("c")
	require.NoError(t, err)
	defer release()
	val, found, err := store.Get([]byte("k"))
	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("v"), val)
}

func TestPoolHoldsHandleWhileReferenced(t *testing.T) {
	pool := NewPool(Config{
		Path:        t.TempDir(),
		IdleTimeout: 20 * time.Millisecond,
		Logger:      utils.NopLogger{},
	})
	defer pool.Close()

	store, release, err := pool.Acquire("c")
	require.NoError(t, err)
	defer release()

	time.Sleep(100 * time.Millisecond)
	assert.NoError(t, store.Set([]byte("k"), []byte("v")))
}

func TestPoolClose(t *testing.T) {
	pool := NewPool(Config{Path: t.TempDir(), Logger: utils.NopLogger{}})

	_, release, err := pool.Acquire("c")
	require.NoError(t, err)
	release()

	require.NoError(t, pool.Close())

	_, _, err = pool.Acquire("c")
	assert.ErrorIs(t, err, ErrPoolClosed)
	assert.ErrorIs(t, pool.Close(), ErrPoolClosed)
}

func TestPoolAcquireOpenFailure(t *testing.T) {
	// Path is a file, so opening any collection under it fails and the
	// failure surfaces instead of being masked.
	dir := t.TempDir()
	pool := NewPool(Config{Path: dir + "/file", Logger: utils.NopLogger{}})
	defer pool.Close()

	require.NoError(t, os.WriteFile(dir+"/file", []byte("x"), 0o644))
	_, _, err := pool.Acquire("c")
	assert.Error(t, err)
}

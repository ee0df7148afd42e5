package burrow

import (
	"sync"

	"github.com/cockroachdb/pebble"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/burrowdb/burrow/utils"
)

// The engine's own log provides crash consistency; per-write fsync would
// only slow the small point writes this workload is made of.
var writeOptions = pebble.WriteOptions{Sync: false}

const hydrationCacheSize = 100_000

// Store owns the open engine handle for one collection. One Store is meant
// to be shared by every concurrent caller touching that collection; the
// engine synchronizes single-key access internally, and Store adds the
// per-bucket serialization needed for multi-key sequences.
type Store struct {
	db   *pebble.DB
	path string
	log  utils.Logger

	// one mutex per bucket, held across read-then-batch sequences
	locks *xsync.MapOf[string, *sync.Mutex]

	// IIDToOID is the hottest read path (result hydration), so decoded
	// OIDs are cached by physical key.
	hydration *lru.Cache[string, string]

	allocs *xsync.MapOf[string, *bucketAlloc]
}

// OpenStore opens (creating if missing) the engine database at path. Failure
// here is fatal for the collection: a held lock, an I/O error or corruption
// must surface at startup, not be retried blindly.
func OpenStore(path string, cfg Config) (*Store, error) {
	cfg.SetDefaults()
	db, err := pebble.Open(path, storeOptions(cfg))
	if err != nil {
		return nil, errors.Wrapf(err, "open kv store at %s", path)
	}
	cfg.Logger.Debug("opened kv store", "path", path)
	hydration, _ := lru.New[string, string](hydrationCacheSize)
	return &Store{
		db:        db,
		path:      path,
		log:       cfg.Logger,
		locks:     xsync.NewMapOf[string, *sync.Mutex](),
		hydration: hydration,
		allocs:    xsync.NewMapOf[string, *bucketAlloc](),
	}, nil
}

func storeOptions(cfg Config) *pebble.Options {
	compactions := cfg.MaxBackgroundCompactions
	if cfg.Parallelism > compactions {
		compactions = cfg.Parallelism
	}
	opts := &pebble.Options{
		MaxOpenFiles:                cfg.MaxOpenFiles,
		MaxConcurrentCompactions:    func() int { return compactions },
		MemTableStopWritesThreshold: cfg.MaxBackgroundFlushes + 1,
	}
	compression := pebble.NoCompression
	if cfg.Compression {
		compression = pebble.SnappyCompression
	}
	opts.Levels = []pebble.LevelOptions{{Compression: compression}}
	return opts
}

// Get returns the value for key, whether it exists, and any I/O error.
// Absence is a normal outcome, never folded into the error.
func (s *Store) Get(key []byte) ([]byte, bool, error) {
	if s.db == nil {
		return nil, false, ErrClosed
	}
	val, closer, err := s.db.Get(key)
	if err == pebble.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	out := make([]byte, len(val))
	copy(out, val)
	_ = closer.Close()
	return out, true, nil
}

func (s *Store) Set(key, value []byte) error {
	if s.db == nil {
		return ErrClosed
	}
	return s.db.Set(key, value, &writeOptions)
}

func (s *Store) Delete(key []byte) error {
	if s.db == nil {
		return ErrClosed
	}
	return s.db.Delete(key, &writeOptions)
}

// Apply commits a batch of mutations atomically: all of them become durable
// together or none do.
func (s *Store) Apply(batch *pebble.Batch) error {
	if s.db == nil {
		return ErrClosed
	}
	return s.db.Apply(batch, &writeOptions)
}

// scanPrefix calls fn for every key under prefix. Key and value slices are
// only valid for the duration of the call.
func (s *Store) scanPrefix(prefix []byte, fn func(key, value []byte) error) error {
	if s.db == nil {
		return ErrClosed
	}
	it := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: prefixUpperBound(prefix),
	})
	defer it.Close()
	for valid := it.First(); valid; valid = it.Next() {
		if err := fn(it.Key(), it.Value()); err != nil {
			return err
		}
	}
	return it.Error()
}

func (s *Store) bucketLock(bucket string) *sync.Mutex {
	lock, _ := s.locks.LoadOrStore(bucket, &sync.Mutex{})
	return lock
}

// Metrics exposes the engine's internal metrics snapshot.
func (s *Store) Metrics() *pebble.Metrics {
	if s.db == nil {
		return nil
	}
	return s.db.Metrics()
}

// DiskUsage reports the bytes the collection occupies on disk.
func (s *Store) DiskUsage() uint64 {
	if s.db == nil {
		return 0
	}
	return s.db.Metrics().DiskSpaceUsage()
}

func (s *Store) Close() error {
	if s.db == nil {
		return ErrClosed
	}
	err := s.db.Close()
	s.db = nil
	s.hydration.Purge()
	return err
}

package burrow

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/burrowdb/burrow/utils"
)

// Pool shares one Store per collection. Handles open lazily on first
// Acquire and are reference-counted across concurrent callers. When the
// config sets an IdleTimeout, handles close after sitting unreferenced for
// that long and reopen transparently on the next Acquire. Opening a fresh engine
// handle per operation would defeat the engine's caches and leak file
// descriptors; this is the one resource that must be shared, not duplicated.
type Pool struct {
	cfg Config
	log utils.Logger

	entries *xsync.MapOf[string, *poolEntry]

	closed bool
	mu     sync.Mutex
	stop   context.CancelFunc
	done   chan struct{}
}

type poolEntry struct {
	mu        sync.Mutex
	path      string
	store     *Store
	refs      int
	idleSince time.Time
}

func NewPool(cfg Config) *Pool {
	cfg.SetDefaults()
	p := &Pool{
		cfg:     cfg,
		log:     cfg.Logger,
		entries: xsync.NewMapOf[string, *poolEntry](),
	}
	if cfg.IdleTimeout > 0 {
		ctx, cancel := context.WithCancel(context.Background())
		p.stop = cancel
		p.done = make(chan struct{})
		go p.janitor(ctx)
	}
	return p
}

// Acquire returns the shared Store for collection plus a release func. The
// caller must invoke release exactly once when done; the handle stays open
// for other holders and becomes eligible for idle close only when every
// reference is released.
func (p *Pool) Acquire(collection string) (*Store, func(), error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, nil, ErrPoolClosed
	}
	p.mu.Unlock()

	entry, _ := p.entries.LoadOrStore(collection, &poolEntry{
		path: filepath.Join(p.cfg.Path, collection),
	})

	entry.mu.Lock()
	defer entry.mu.Unlock()
	if entry.store == nil {
		store, err := OpenStore(entry.path, p.cfg)
		if err != nil {
			PoolAcquires.WithLabelValues("error").Inc()
			return nil, nil, err
		}
		entry.store = store
		PoolOpenHandles.Inc()
	}
	entry.refs++
	PoolAcquires.WithLabelValues("ok").Inc()

	var once sync.Once
	release := func() {
		once.Do(func() {
			entry.mu.Lock()
			entry.refs--
			entry.idleSince = time.Now()
			entry.mu.Unlock()
		})
	}
	return entry.store, release, nil
}

func (p *Pool) janitor(ctx context.Context) {
	defer close(p.done)
	interval := p.cfg.IdleTimeout / 2
	if interval < time.Second {
		interval = p.cfg.IdleTimeout
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.closeIdle()
		}
	}
}

func (p *Pool) closeIdle() {
	now := time.Now()
	p.entries.Range(func(collection string, entry *poolEntry) bool {
		entry.mu.Lock()
		if entry.store != nil && entry.refs == 0 && now.Sub(entry.idleSince) >= p.cfg.IdleTimeout {
			if err := entry.store.Close(); err != nil {
				p.log.Warn("failed to close idle store", "collection", collection, "error", err)
			} else {
				p.log.Debug("closed idle store", "collection", collection)
			}
			entry.store = nil
			PoolOpenHandles.Dec()
		}
		entry.mu.Unlock()
		return true
	})
}

// Close shuts the pool down, closing every open handle. Outstanding
// references become invalid; Close is for process shutdown.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrPoolClosed
	}
	p.closed = true
	p.mu.Unlock()

	if p.stop != nil {
		p.stop()
		<-p.done
	}

	var firstErr error
	p.entries.Range(func(collection string, entry *poolEntry) bool {
		entry.mu.Lock()
		if entry.store != nil {
			if entry.refs > 0 {
				p.log.Warn("closing store with live references", "collection", collection, "refs", entry.refs)
			}
			if err := entry.store.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
			entry.store = nil
			PoolOpenHandles.Dec()
		}
		entry.mu.Unlock()
		return true
	})
	return firstErr
}

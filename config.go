package burrow

import (
	"log/slog"
	"time"

	"github.com/burrowdb/burrow/utils"
)

// Config carries every recognized store option. It is read once at handle
// construction and never re-read; there is no ambient process-wide state.
type Config struct {
	// Path is the directory holding one engine database per collection.
	Path string

	// Compression enables fast block compression (Snappy) inside the
	// engine. Off means none. Values here are tiny point writes, so this
	// mostly trades CPU for SST size.
	Compression bool

	// Parallelism bounds engine background concurrency alongside
	// MaxBackgroundCompactions; the larger of the two wins.
	Parallelism int

	MaxOpenFiles             int
	MaxBackgroundCompactions int

	// MaxBackgroundFlushes maps onto the engine's memtable backpressure
	// threshold: how many flushable memtables may queue before writes
	// stall.
	MaxBackgroundFlushes int

	// IdleTimeout is how long a pooled handle may sit unreferenced before
	// the pool closes it. Zero keeps handles open for the process
	// lifetime.
	IdleTimeout time.Duration

	Logger utils.Logger
}

func (c *Config) SetDefaults() {
	if c.Parallelism == 0 {
		c.Parallelism = 2
	}
	if c.MaxOpenFiles == 0 {
		c.MaxOpenFiles = 512
	}
	if c.MaxBackgroundCompactions == 0 {
		c.MaxBackgroundCompactions = 1
	}
	if c.MaxBackgroundFlushes == 0 {
		c.MaxBackgroundFlushes = 1
	}
	if c.Logger == nil {
		c.Logger = utils.NewLogger(slog.LevelInfo)
	}
}

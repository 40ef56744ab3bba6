package annotator

import (
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
)

const (
	// Selector marks the feed elements that carry classifiable text
	Selector = `[data-testid="tweetText"]`

	// MinTextLength is the shortest normalized text (in characters) treated as a real item
	MinTextLength = 10

	// BatchCap is the maximum number of items submitted in one classification batch
	BatchCap = 3

	// SettleTime is the quiet period required after the last mutation before a scan cycle runs
	SettleTime = 2000 * time.Millisecond

	// InitialScanDelay is the delay before the one unconditional scan after start-up
	InitialScanDelay = 500 * time.Millisecond

	// DefaultCacheCapacity bounds the number of classified texts kept in memory
	DefaultCacheCapacity = 10000
)

// Config holds configuration for the Annotator
type Config struct {
	// Document is the watched feed. Required.
	Document Document

	// Classifier delegates batches to the classification engine. Required.
	Classifier Classifier

	// Store receives the aggregate snapshot after every successful batch. If nil, snapshots are dropped.
	Store SnapshotStore

	// Sink optionally receives every successfully classified item after the batch completes
	Sink Sink

	// Clock drives the settle and start-up timers. If nil, uses the real clock.
	Clock clockwork.Clock

	// Logger receives diagnostics. If nil, uses slog.Default().
	Logger *slog.Logger

	// CacheCapacity bounds the classification cache. If 0, uses DefaultCacheCapacity.
	CacheCapacity int
}

// applyDefaults fills in default values for unset config fields
func (c *Config) applyDefaults() {
	if c.Clock == nil {
		c.Clock = clockwork.NewRealClock()
	}

	if c.Logger == nil {
		c.Logger = slog.Default()
	}

	if c.CacheCapacity <= 0 {
		c.CacheCapacity = DefaultCacheCapacity
	}

	if c.Store == nil {
		c.Store = discardStore{}
	}
}

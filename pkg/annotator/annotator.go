package annotator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jonboulle/clockwork"
)

// State is the pipeline state
type State int

const (
	StateIdle State = iota
	StateDebouncing
	StateInFlight
)

func (s State) String() string {
	switch s {
	case StateDebouncing:
		return "debouncing"
	case StateInFlight:
		return "in_flight"
	default:
		return "idle"
	}
}

// ErrBatchInFlight is returned by Cycle when a batch is still awaiting its outcome
var ErrBatchInFlight = errors.New("annotator: batch in flight")

// Stats provides counters about the pipeline
type Stats struct {
	State       State
	Cycles      int
	Batches     int
	Classified  int
	RateLimited int
	Failures    int
	Suppressed  int
	Rerendered  int
	CacheSize   int
}

// Annotator watches a feed document and annotates new items with delegated classifications
type Annotator struct {
	doc        Document
	cache      *Cache
	renderer   *TagRenderer
	client     *Client
	aggregator *Aggregator
	sink       Sink
	clock      clockwork.Clock
	logger     *slog.Logger
	debounce   *Debouncer
	changes    chan struct{}

	// Owned by the event loop; mirrored into stats for readers
	state State

	statsLock sync.RWMutex
	stats     Stats

	// Background sink work tracked for graceful shutdown
	backgroundTasks sync.WaitGroup
	shutdownOnce    sync.Once
	closing         bool
	closeLock       sync.RWMutex
}

// New creates an Annotator with the given configuration
func New(cfg Config) (*Annotator, error) {
	if cfg.Document == nil {
		return nil, fmt.Errorf("annotator: document is required")
	}
	if cfg.Classifier == nil {
		return nil, fmt.Errorf("annotator: classifier is required")
	}
	cfg.applyDefaults()

	cache, err := NewCache(cfg.CacheCapacity)
	if err != nil {
		return nil, err
	}

	renderer := &TagRenderer{}

	return &Annotator{
		doc:        cfg.Document,
		cache:      cache,
		renderer:   renderer,
		client:     newClient(cfg.Classifier, cache, renderer, cfg.Clock, cfg.Logger),
		aggregator: NewAggregator(cfg.Store, cfg.Clock),
		sink:       cfg.Sink,
		clock:      cfg.Clock,
		logger:     cfg.Logger,
		debounce:   NewDebouncer(cfg.Clock, SettleTime),
		changes:    make(chan struct{}, 1),
	}, nil
}

// Cache returns the classification cache
func (a *Annotator) Cache() *Cache {
	return a.cache
}

// Run drives the pipeline until ctx is done. It subscribes to document changes, runs one
// scan after InitialScanDelay and then one scan per settled burst of changes.
func (a *Annotator) Run(ctx context.Context) error {
	unsubscribe := a.doc.OnChange(a.notify)
	defer unsubscribe()

	initial := a.clock.NewTimer(InitialScanDelay)
	defer initial.Stop()

	a.logger.Info("annotator: watching feed", "selector", Selector, "settle", SettleTime)

	for {
		select {
		case <-ctx.Done():
			a.debounce.Stop()
			return ctx.Err()

		case <-a.changes:
			a.handleChange(ctx)

		case <-initial.Chan():
			a.scan(ctx)

		case <-a.debounce.C():
			a.debounce.Fired()
			a.scan(ctx)

		case res := <-a.client.Results():
			a.complete(ctx, res)
		}
	}
}

// Cycle runs one synchronous scan and, if a batch was submitted, waits for and handles its outcome.
// It returns nil when nothing was eligible. Cycle must not be called while Run is active.
func (a *Annotator) Cycle(ctx context.Context) (*Outcome, error) {
	if a.client.InFlight() {
		return nil, ErrBatchInFlight
	}

	if !a.scan(ctx) {
		return nil, nil
	}

	select {
	case res := <-a.client.Results():
		out := a.complete(ctx, res)
		return &out, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// notify is the document change callback. A burst of changes collapses into one pending signal.
func (a *Annotator) notify() {
	select {
	case a.changes <- struct{}{}:
	default:
	}
}

// handleChange re-renders cached items, then restarts the settle window unless a batch is in flight
func (a *Annotator) handleChange(ctx context.Context) {
	a.rerenderCached(ctx)

	if a.state == StateInFlight {
		return
	}

	a.debounce.Touch()
	a.setState(StateDebouncing)
}

// scan selects the next batch and submits it. It reports whether a batch was submitted.
func (a *Annotator) scan(ctx context.Context) bool {
	a.updateStats(func(s *Stats) { s.Cycles++ })

	if a.client.InFlight() {
		a.updateStats(func(s *Stats) { s.Suppressed++ })
		return false
	}

	a.rerenderCached(ctx)

	candidates, err := Extract(ctx, a.doc)
	if err != nil {
		a.logger.Error("annotator: scan failed", "error", err)
		a.settleState()
		return false
	}

	batch := SelectBatch(candidates, a.cache, BatchCap)
	if len(batch) == 0 {
		a.logger.Debug("annotator: nothing to classify", "candidates", len(candidates))
		a.settleState()
		return false
	}

	if _, ok := a.client.Submit(ctx, batch); !ok {
		a.settleState()
		return false
	}

	a.debounce.Stop()
	a.setState(StateInFlight)
	a.updateStats(func(s *Stats) { s.Batches++ })
	return true
}

// complete handles a batch response fully (cache, render, aggregate, persist) before releasing the gate
func (a *Annotator) complete(ctx context.Context, res BatchResult) Outcome {
	out := a.client.Complete(res)

	switch out.Kind {
	case OutcomeSuccess:
		if _, err := a.aggregator.Persist(ctx, out.Analysis, a.cache); err != nil {
			a.logger.Error("annotator: aggregate not persisted", "batch_id", out.BatchID, "error", err)
		}
		a.updateStats(func(s *Stats) { s.Classified += len(out.Entries) })
	case OutcomeRateLimited:
		a.updateStats(func(s *Stats) { s.RateLimited++ })
	default:
		a.updateStats(func(s *Stats) { s.Failures++ })
	}

	a.client.Release()
	a.setState(StateIdle)

	if out.Kind == OutcomeSuccess {
		a.dispatch(ctx, out.Entries)
	}

	return out
}

// rerenderCached attaches cached results to items that are neither annotated nor pending
func (a *Annotator) rerenderCached(ctx context.Context) {
	candidates, err := Extract(ctx, a.doc)
	if err != nil {
		a.logger.Warn("annotator: cached re-render skipped", "error", err)
		return
	}

	rendered := 0
	for _, c := range candidates {
		if c.Item.Annotated() || c.Item.Pending() {
			continue
		}
		result, ok := a.cache.Get(c.Text)
		if !ok {
			continue
		}
		attached, err := a.renderer.Render(c.Item, result)
		if err != nil {
			a.logger.Warn("annotator: cached re-render failed", "error", err)
			continue
		}
		if attached {
			rendered++
		}
	}

	if rendered > 0 {
		a.updateStats(func(s *Stats) { s.Rerendered += rendered })
	}
}

// dispatch hands newly classified items to the sink in the background
func (a *Annotator) dispatch(ctx context.Context, entries []Entry) {
	if a.sink == nil || len(entries) == 0 {
		return
	}

	a.closeLock.RLock()
	if a.closing {
		a.closeLock.RUnlock()
		return
	}
	a.backgroundTasks.Add(1)
	a.closeLock.RUnlock()

	go func() {
		defer a.backgroundTasks.Done()
		if err := a.sink.Index(ctx, entries); err != nil {
			a.logger.Warn("annotator: sink indexing failed", "entries", len(entries), "error", err)
		}
	}()
}

// Close waits for background sink work to finish
func (a *Annotator) Close() error {
	a.shutdownOnce.Do(func() {
		a.closeLock.Lock()
		a.closing = true
		a.closeLock.Unlock()

		a.backgroundTasks.Wait()
	})
	return nil
}

// Stats returns a copy of the pipeline counters. It is safe to call from any goroutine.
func (a *Annotator) Stats() Stats {
	a.statsLock.RLock()
	defer a.statsLock.RUnlock()

	stats := a.stats
	stats.CacheSize = a.cache.Len()
	return stats
}

func (a *Annotator) settleState() {
	if a.debounce.Armed() {
		a.setState(StateDebouncing)
		return
	}
	a.setState(StateIdle)
}

func (a *Annotator) setState(state State) {
	a.state = state
	a.updateStats(func(s *Stats) { s.State = state })
}

func (a *Annotator) updateStats(fn func(s *Stats)) {
	a.statsLock.Lock()
	fn(&a.stats)
	a.statsLock.Unlock()
}

package annotator

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/FrenchMajesty/veracious/pkg/types"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// OutcomeKind is how a submitted batch resolved
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeRateLimited
	OutcomeFailed
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeRateLimited:
		return "rate_limited"
	default:
		return "failed"
	}
}

// errEmptyResponse is reported when the boundary returns neither a result nor an error
var errEmptyResponse = errors.New("classification boundary returned an empty response")

// PendingBatch is the set of items submitted and awaiting a response
type PendingBatch struct {
	ID          string
	Items       []Candidate
	SubmittedAt time.Time
}

// Texts returns the submitted texts in batch order
func (b *PendingBatch) Texts() []string {
	texts := make([]string, len(b.Items))
	for i, c := range b.Items {
		texts[i] = c.Text
	}
	return texts
}

// BatchResult is the raw response of the classification boundary for one batch
type BatchResult struct {
	Batch    *PendingBatch
	Analysis *types.FeedAnalysis
	Err      error
}

// Outcome is the interpreted result of a batch
type Outcome struct {
	Kind     OutcomeKind
	BatchID  string
	Analysis *types.FeedAnalysis

	// Entries holds the pairs newly written to the cache
	Entries []Entry

	// Annotated counts items that received a permanent tag
	Annotated int

	// Unmatched counts submitted items the response had no result for
	Unmatched int

	// Detail is the rate-limit detail string, if any
	Detail string
	Err    error
}

// Client submits batches to the classification boundary, one at a time
type Client struct {
	classifier Classifier
	cache      *Cache
	renderer   *TagRenderer
	clock      clockwork.Clock
	logger     *slog.Logger

	results chan BatchResult
	pending *PendingBatch
}

func newClient(classifier Classifier, cache *Cache, renderer *TagRenderer, clock clockwork.Clock, logger *slog.Logger) *Client {
	return &Client{
		classifier: classifier,
		cache:      cache,
		renderer:   renderer,
		clock:      clock,
		logger:     logger,
		// One slot is enough: at most one batch is ever in flight
		results: make(chan BatchResult, 1),
	}
}

// InFlight reports whether a batch is awaiting its outcome
func (c *Client) InFlight() bool {
	return c.pending != nil
}

// Pending returns the in-flight batch, or nil
func (c *Client) Pending() *PendingBatch {
	return c.pending
}

// Results delivers the response of the in-flight batch
func (c *Client) Results() <-chan BatchResult {
	return c.results
}

// Submit marks every item pending and sends the batch in the background.
// It returns false without side effects if a batch is already in flight or the batch is empty.
func (c *Client) Submit(ctx context.Context, batch []Candidate) (*PendingBatch, bool) {
	if c.pending != nil {
		c.logger.Debug("annotator: submit suppressed, batch in flight", "batch_id", c.pending.ID)
		return nil, false
	}
	if len(batch) == 0 {
		return nil, false
	}

	pb := &PendingBatch{
		ID:          uuid.NewString(),
		Items:       batch,
		SubmittedAt: c.clock.Now(),
	}

	for _, cand := range batch {
		if err := c.renderer.MarkPending(cand.Item); err != nil {
			c.logger.Warn("annotator: pending mark failed", "batch_id", pb.ID, "error", err)
		}
	}

	c.pending = pb
	texts := pb.Texts()
	c.logger.Info("annotator: submitting batch", "batch_id", pb.ID, "size", len(texts))

	go func() {
		analysis, err := c.classifier.Classify(ctx, texts)
		c.results <- BatchResult{Batch: pb, Analysis: analysis, Err: err}
	}()

	return pb, true
}

// Complete interprets a batch response: it always clears the placeholders, and on success
// caches and renders every order-aligned result. It does not release the gate.
func (c *Client) Complete(res BatchResult) Outcome {
	batch := res.Batch
	out := Outcome{BatchID: batch.ID}

	for _, cand := range batch.Items {
		if err := c.renderer.ClearPending(cand.Item); err != nil {
			c.logger.Warn("annotator: pending clear failed", "batch_id", batch.ID, "error", err)
		}
	}

	latency := c.clock.Since(batch.SubmittedAt)

	if res.Err != nil {
		out.Err = res.Err
		if errors.Is(res.Err, types.ErrRateLimited) {
			out.Kind = OutcomeRateLimited
			var rl *types.RateLimitError
			if errors.As(res.Err, &rl) {
				out.Detail = rl.Detail
			}
			c.logger.Warn("annotator: rate limited", "batch_id", batch.ID, "detail", out.Detail, "latency", latency)
			return out
		}
		out.Kind = OutcomeFailed
		c.logger.Error("annotator: batch failed", "batch_id", batch.ID, "error", res.Err, "latency", latency)
		return out
	}

	if res.Analysis == nil {
		out.Kind = OutcomeFailed
		out.Err = errEmptyResponse
		c.logger.Error("annotator: batch failed", "batch_id", batch.ID, "error", out.Err, "latency", latency)
		return out
	}

	out.Kind = OutcomeSuccess
	out.Analysis = res.Analysis

	results := res.Analysis.PerTweet
	n := min(len(results), len(batch.Items))
	for i := 0; i < n; i++ {
		cand := batch.Items[i]
		result := results[i]

		if c.cache.Put(cand.Text, result) {
			out.Entries = append(out.Entries, Entry{Text: cand.Text, Result: result})
		}

		attached, err := c.renderer.Render(cand.Item, result)
		if err != nil {
			c.logger.Warn("annotator: render failed", "batch_id", batch.ID, "error", err)
			continue
		}
		if attached {
			out.Annotated++
		}
	}

	out.Unmatched = len(batch.Items) - n
	if len(results) != len(batch.Items) {
		c.logger.Warn("annotator: result count mismatch",
			"batch_id", batch.ID,
			"submitted", len(batch.Items),
			"received", len(results),
		)
	}

	c.logger.Info("annotator: batch classified",
		"batch_id", batch.ID,
		"annotated", out.Annotated,
		"cache_size", c.cache.Len(),
		"latency", latency,
	)

	return out
}

// Release opens the single-flight gate
func (c *Client) Release() {
	c.pending = nil
}

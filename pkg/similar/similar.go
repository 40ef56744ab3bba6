// Package similar keeps a vector index of classified feed items for similarity lookups.
package similar

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/FrenchMajesty/veracious/internal/retry"
	"github.com/FrenchMajesty/veracious/pkg/annotator"
	"github.com/FrenchMajesty/veracious/pkg/types"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// DefaultTopK is the number of matches returned when none is requested
const DefaultTopK = 5

// EmbeddingClient generates one embedding per text, in input order
type EmbeddingClient interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorClient stores and searches vectors
type VectorClient interface {
	Search(ctx context.Context, vector []float32, topK int) ([]types.VectorMatch, error)
	Upsert(ctx context.Context, id string, vector []float32, metadata map[string]any) error
}

// Match is a previously indexed item similar to a query
type Match struct {
	ID                string
	Score             float32
	Text              string
	PoliticalLean     types.Lean
	ManipulationScore types.Score
}

// Index embeds classified items and serves similarity queries. It implements annotator.Sink.
type Index struct {
	embedder EmbeddingClient
	vectors  VectorClient
	logger   *slog.Logger
	policy   retry.Policy
	clock    clockwork.Clock
}

// NewIndex creates an index over the given clients. If logger is nil, uses slog.Default().
func NewIndex(embedder EmbeddingClient, vectors VectorClient, logger *slog.Logger) (*Index, error) {
	if embedder == nil {
		return nil, fmt.Errorf("similar: embedding client is required")
	}
	if vectors == nil {
		return nil, fmt.Errorf("similar: vector client is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Index{
		embedder: embedder,
		vectors:  vectors,
		logger:   logger,
		policy:   retry.DefaultPolicy(),
		clock:    clockwork.NewRealClock(),
	}, nil
}

// SetRetryPolicy replaces the backoff used for embedding and upsert calls
func (x *Index) SetRetryPolicy(p retry.Policy) {
	x.policy = p
}

// SetClock replaces the clock that paces retries
func (x *Index) SetClock(clock clockwork.Clock) {
	x.clock = clock
}

func (x *Index) do(ctx context.Context, op string, fn func() error) error {
	return retry.Do(ctx, retry.Options{
		Policy: x.policy,
		Op:     op,
		Clock:  x.clock,
		Logger: x.logger,
	}, func(int) error { return fn() })
}

func (x *Index) embed(ctx context.Context, texts []string) ([][]float32, error) {
	var embeddings [][]float32
	err := x.do(ctx, "embed", func() error {
		var err error
		embeddings, err = x.embedder.Embed(ctx, texts)
		return err
	})
	return embeddings, err
}

// Index embeds every entry and upserts it with its classification as metadata.
// Failed calls are retried with backoff. It stops at the first upsert that still fails.
func (x *Index) Index(ctx context.Context, entries []annotator.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	texts := make([]string, len(entries))
	for i, e := range entries {
		texts[i] = e.Text
	}

	embeddings, err := x.embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed entries: %w", err)
	}
	if len(embeddings) != len(entries) {
		return fmt.Errorf("expected %d embeddings, got %d", len(entries), len(embeddings))
	}

	for i, e := range entries {
		id := uuid.NewString()
		vector, metadata := embeddings[i], metadataFor(e)
		err := x.do(ctx, "upsert", func() error {
			return x.vectors.Upsert(ctx, id, vector, metadata)
		})
		if err != nil {
			return fmt.Errorf("failed to upsert entry %s: %w", id, err)
		}
	}

	x.logger.Debug("similar: indexed entries", "count", len(entries))
	return nil
}

// Similar returns the indexed items closest to text, best first
func (x *Index) Similar(ctx context.Context, text string, topK int) ([]Match, error) {
	text = annotator.Normalize(text)
	if text == "" {
		return nil, fmt.Errorf("similar: query text is empty")
	}
	if topK <= 0 {
		topK = DefaultTopK
	}

	embeddings, err := x.embed(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(embeddings) != 1 {
		return nil, fmt.Errorf("expected 1 embedding, got %d", len(embeddings))
	}

	results, err := x.vectors.Search(ctx, embeddings[0], topK)
	if err != nil {
		return nil, fmt.Errorf("failed to search vectors: %w", err)
	}

	matches := make([]Match, len(results))
	for i, r := range results {
		matches[i] = matchFrom(r)
	}
	return matches, nil
}

func metadataFor(e annotator.Entry) map[string]any {
	return map[string]any{
		"text":               e.Text,
		"political_lean":     string(e.Result.Lean()),
		"manipulation_score": float64(e.Result.ManipulationScore),
	}
}

func matchFrom(r types.VectorMatch) Match {
	m := Match{ID: r.ID, Score: r.Score, PoliticalLean: types.LeanUnclear}
	if text, ok := r.Metadata["text"].(string); ok {
		m.Text = text
	}
	if lean, ok := r.Metadata["political_lean"].(string); ok {
		m.PoliticalLean = types.ParseLean(lean)
	}
	if score, ok := r.Metadata["manipulation_score"].(float64); ok {
		m.ManipulationScore = types.ClampScore(score)
	}
	return m
}

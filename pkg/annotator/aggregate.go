package annotator

import (
	"context"
	"fmt"
	"math"

	"github.com/FrenchMajesty/veracious/pkg/types"
	"github.com/jonboulle/clockwork"
)

// Breakdown returns, for each lean present in results, its share as an integer percentage.
// Shares are rounded independently, so the total may differ from 100 by a few points.
func Breakdown(results []types.Classification) map[types.Lean]int {
	counts := make(map[types.Lean]int)
	for _, r := range results {
		counts[r.Lean()]++
	}

	breakdown := make(map[types.Lean]int, len(counts))
	total := len(results)
	if total == 0 {
		return breakdown
	}

	for lean, n := range counts {
		breakdown[lean] = int(math.Round(100 * float64(n) / float64(total)))
	}
	return breakdown
}

// Aggregator recomputes the feed aggregate and writes it to shared storage
type Aggregator struct {
	store SnapshotStore
	clock clockwork.Clock
}

// NewAggregator creates an aggregator writing to store
func NewAggregator(store SnapshotStore, clock clockwork.Clock) *Aggregator {
	return &Aggregator{store: store, clock: clock}
}

// Persist builds the snapshot from the latest batch summary and the full cache, then overwrites
// the stored snapshot. The snapshot is returned even if the write fails.
func (a *Aggregator) Persist(ctx context.Context, summary *types.FeedAnalysis, cache *Cache) (types.Snapshot, error) {
	var analysis types.FeedAnalysis
	if summary != nil {
		analysis = *summary
	}
	analysis.PoliticalBreakdown = Breakdown(cache.Values())

	snapshot := types.Snapshot{
		FeedAnalysis: analysis,
		TweetCount:   cache.Len(),
		LastUpdated:  a.clock.Now().UnixMilli(),
	}

	if err := a.store.Save(ctx, snapshot); err != nil {
		return snapshot, fmt.Errorf("failed to save snapshot: %w", err)
	}

	return snapshot, nil
}

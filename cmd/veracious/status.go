package main

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/FrenchMajesty/veracious/pkg/annotator"
	"github.com/FrenchMajesty/veracious/pkg/storage"
	"github.com/FrenchMajesty/veracious/pkg/types"
	"github.com/spf13/cobra"
)

const topTopicCount = 3

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the latest feed summary",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, _, err := setup(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	store, err := storage.Open(cfg.Storage.Driver, cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer store.Close()

	snapshot, err := store.Load(cmd.Context())
	if errors.Is(err, storage.ErrNotFound) {
		fmt.Fprintln(cmd.OutOrStdout(), "no feed analyzed yet")
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Fprint(cmd.OutOrStdout(), formatStatus(*snapshot, time.Now()))
	return nil
}

// bandPhrase describes a score the way the popup does
func bandPhrase(score types.Score) string {
	switch annotator.ScoreBand(score) {
	case annotator.BandHigh:
		return "high manipulation detected"
	case annotator.BandMedium:
		return "moderate signals present"
	default:
		return "feed looks relatively clean"
	}
}

type share struct {
	name string
	pct  float64
}

// breakdownShares returns the non-zero leans, largest first
func breakdownShares(breakdown map[types.Lean]int) []share {
	var shares []share
	for _, lean := range types.Leans {
		if pct := breakdown[lean]; pct > 0 {
			shares = append(shares, share{name: string(lean), pct: float64(pct)})
		}
	}
	slices.SortStableFunc(shares, func(a, b share) int {
		return int(b.pct - a.pct)
	})
	return shares
}

// topTopics returns up to n topics, largest first, ties by name
func topTopics(topics map[string]float64, n int) []share {
	shares := make([]share, 0, len(topics))
	for name, pct := range topics {
		shares = append(shares, share{name: name, pct: pct})
	}
	slices.SortFunc(shares, func(a, b share) int {
		switch {
		case a.pct > b.pct:
			return -1
		case a.pct < b.pct:
			return 1
		default:
			return strings.Compare(a.name, b.name)
		}
	})
	if len(shares) > n {
		shares = shares[:n]
	}
	return shares
}

func formatStatus(s types.Snapshot, now time.Time) string {
	var b strings.Builder
	score := s.FeedAnalysis.OverallManipulationScore
	fmt.Fprintf(&b, "manipulation score: %d (%s)\n", score, bandPhrase(score))

	if shares := breakdownShares(s.FeedAnalysis.PoliticalBreakdown); len(shares) > 0 {
		b.WriteString("\npolitical breakdown\n")
		writeShares(&b, shares)
	}
	if shares := topTopics(s.FeedAnalysis.Topics, topTopicCount); len(shares) > 0 {
		b.WriteString("\ntop topics\n")
		writeShares(&b, shares)
	}

	ago := now.Sub(time.UnixMilli(s.LastUpdated)).Round(time.Second)
	fmt.Fprintf(&b, "\nanalyzed %ds ago · %d tweets total\n", int64(ago/time.Second), s.TweetCount)
	return b.String()
}

func writeShares(b *strings.Builder, shares []share) {
	for _, s := range shares {
		fmt.Fprintf(b, "  %-16s %3.0f%%\n", s.name, s.pct)
	}
}

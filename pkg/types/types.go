package types

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
)

// Lean is the political lean assigned to a single feed item
type Lean string

const (
	LeanLeft          Lean = "left"
	LeanRight         Lean = "right"
	LeanLiberal       Lean = "liberal"
	LeanConservative  Lean = "conservative"
	LeanAuthoritarian Lean = "authoritarian"
	LeanLibertarian   Lean = "libertarian"
	LeanCentrist      Lean = "centrist"
	LeanUnclear       Lean = "unclear"
)

// Leans lists every lean category in a stable order
var Leans = []Lean{
	LeanLeft,
	LeanRight,
	LeanLiberal,
	LeanConservative,
	LeanAuthoritarian,
	LeanLibertarian,
	LeanCentrist,
	LeanUnclear,
}

// ParseLean normalizes a raw lean string. Empty or unknown values map to LeanUnclear.
func ParseLean(raw string) Lean {
	lean := Lean(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range Leans {
		if lean == known {
			return lean
		}
	}
	return LeanUnclear
}

// UnmarshalJSON implements json.Unmarshaler, normalizing the lean on the way in
func (l *Lean) UnmarshalJSON(data []byte) error {
	var raw *string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		*l = LeanUnclear
		return nil
	}
	*l = ParseLean(*raw)
	return nil
}

// Score is a manipulation score clamped to the 0-100 range
type Score int

// UnmarshalJSON accepts integer or fractional JSON numbers and clamps them to 0-100
func (s *Score) UnmarshalJSON(data []byte) error {
	var raw *float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		*s = 0
		return nil
	}
	*s = ClampScore(*raw)
	return nil
}

// ClampScore rounds a raw score and bounds it to 0-100
func ClampScore(raw float64) Score {
	v := math.Round(raw)
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return Score(v)
}

// Classification is the per-item result returned by the classification engine
type Classification struct {
	TextPreview       string             `json:"text_preview,omitempty"`
	PoliticalLean     Lean               `json:"political_lean"`
	ManipulationScore Score              `json:"manipulation_score"`
	PoliticalLeanX    float64            `json:"political_lean_x,omitempty"`
	PoliticalLeanY    float64            `json:"political_lean_y,omitempty"`
	Topics            map[string]float64 `json:"topics,omitempty"`
	EmotionalTone     map[string]float64 `json:"emotional_tone,omitempty"`
	FullText          string             `json:"full_text,omitempty"`
}

// Lean returns the normalized lean, treating the zero value as unclear
func (c Classification) Lean() Lean {
	if c.PoliticalLean == "" {
		return LeanUnclear
	}
	return c.PoliticalLean
}

// FeedAnalysis is the batch-level response of the classification engine.
// PerTweet is order-aligned with the submitted texts.
type FeedAnalysis struct {
	OverallManipulationScore Score              `json:"overall_manipulation_score"`
	Topics                   map[string]float64 `json:"topics,omitempty"`
	EmotionalTone            map[string]float64 `json:"emotional_tone,omitempty"`
	ManipulationSignals      map[string]float64 `json:"manipulation_signals,omitempty"`
	SafetySummary            string             `json:"safety_summary,omitempty"`
	FeedSummary              string             `json:"feed_summary,omitempty"`
	PerTweet                 []Classification   `json:"per_tweet"`

	// PoliticalBreakdown is filled in by the aggregator, never by the engine
	PoliticalBreakdown map[Lean]int `json:"political_breakdown,omitempty"`
}

// Snapshot is the record written to shared storage after every successful batch
type Snapshot struct {
	FeedAnalysis FeedAnalysis `json:"feedAnalysis"`
	TweetCount   int          `json:"tweetCount"`
	LastUpdated  int64        `json:"lastUpdated"` // epoch milliseconds
}

// ErrRateLimited is matched by errors.Is for any rate-limit signal from the classification boundary
var ErrRateLimited = errors.New("rate limited")

// RateLimitError signals that the classification boundary refused the batch due to rate limiting
type RateLimitError struct {
	Detail string
}

func (e *RateLimitError) Error() string {
	if e.Detail == "" {
		return "rate limited"
	}
	return "rate limited: " + e.Detail
}

// Is reports whether target is ErrRateLimited
func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimited
}

// VectorMatch represents a single match from a vector search
type VectorMatch struct {
	ID       string
	Score    float32
	Metadata map[string]any
}

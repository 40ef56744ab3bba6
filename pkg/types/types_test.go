package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
)

func TestParseLean(t *testing.T) {
	tests := []struct {
		raw  string
		want Lean
	}{
		{"left", LeanLeft},
		{"  Conservative ", LeanConservative},
		{"LIBERTARIAN", LeanLibertarian},
		{"", LeanUnclear},
		{"far-left", LeanUnclear},
	}

	for _, tt := range tests {
		if got := ParseLean(tt.raw); got != tt.want {
			t.Errorf("ParseLean(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

// TestClassification_Unmarshal tests lenient decoding of engine output
func TestClassification_Unmarshal(t *testing.T) {
	body := `{"political_lean":"Right","manipulation_score":72.6,"topics":{"economy":80}}`

	var c Classification
	if err := json.Unmarshal([]byte(body), &c); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if c.PoliticalLean != LeanRight {
		t.Errorf("Expected lean right, got %q", c.PoliticalLean)
	}
	if c.ManipulationScore != 73 {
		t.Errorf("Expected score 73, got %d", c.ManipulationScore)
	}
	if c.Topics["economy"] != 80 {
		t.Errorf("Expected economy topic weight 80, got %v", c.Topics["economy"])
	}
}

func TestClassification_UnmarshalNullsAndBounds(t *testing.T) {
	body := `{"political_lean":null,"manipulation_score":140}`

	var c Classification
	if err := json.Unmarshal([]byte(body), &c); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if c.Lean() != LeanUnclear {
		t.Errorf("Expected unclear lean for null, got %q", c.Lean())
	}
	if c.ManipulationScore != 100 {
		t.Errorf("Expected score clamped to 100, got %d", c.ManipulationScore)
	}

	var missing Classification
	if missing.Lean() != LeanUnclear {
		t.Errorf("Expected zero value lean to read as unclear, got %q", missing.Lean())
	}
}

func TestRateLimitError_Is(t *testing.T) {
	err := fmt.Errorf("relay: %w", &RateLimitError{Detail: "slow down"})

	if !errors.Is(err, ErrRateLimited) {
		t.Error("Expected wrapped RateLimitError to match ErrRateLimited")
	}

	var rl *RateLimitError
	if !errors.As(err, &rl) {
		t.Fatal("Expected errors.As to find RateLimitError")
	}
	if rl.Detail != "slow down" {
		t.Errorf("Expected detail 'slow down', got %q", rl.Detail)
	}
	if rl.Error() != "rate limited: slow down" {
		t.Errorf("Unexpected error string: %q", rl.Error())
	}
}

package annotator

import (
	"context"
	"fmt"
	"unicode/utf8"
)

// Candidate pairs a feed item with its normalized text
type Candidate struct {
	Item Item
	Text string
}

// Extract lists the document's items whose normalized text is at least MinTextLength characters long.
// It has no side effects on the document.
func Extract(ctx context.Context, doc Document) ([]Candidate, error) {
	items, err := doc.Items(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list feed items: %w", err)
	}

	candidates := make([]Candidate, 0, len(items))
	for _, item := range items {
		text := Normalize(item.Text())
		if utf8.RuneCountInString(text) < MinTextLength {
			continue
		}
		candidates = append(candidates, Candidate{Item: item, Text: text})
	}

	return candidates, nil
}

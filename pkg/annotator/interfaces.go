package annotator

import (
	"context"

	"github.com/FrenchMajesty/veracious/pkg/types"
)

// Document is a watched, mutating feed document
type Document interface {
	// Items returns every element matching Selector, in document order
	Items(ctx context.Context) ([]Item, error)

	// OnChange registers fn to be called after every structural change.
	// The returned function removes the subscription.
	OnChange(fn func()) (cancel func())
}

// Item is one element of the feed that may carry classifiable text
type Item interface {
	// ID is stable for the element's lifetime in the document
	ID() string

	// Text is the element's visible text, excluding any annotation markup
	Text() string

	// Annotated reports whether a permanent tag is attached
	Annotated() bool

	// Pending reports whether a pending placeholder is attached
	Pending() bool

	// Attach prepends a permanent tag rendered from markup
	Attach(markup string) error

	// MarkPending appends the pending placeholder
	MarkPending(markup string) error

	// ClearPending removes the pending placeholder if present
	ClearPending() error
}

// Classifier delegates a batch of texts to the classification engine.
// A *types.RateLimitError signals rate limiting; any other error is a transport failure.
type Classifier interface {
	Classify(ctx context.Context, texts []string) (*types.FeedAnalysis, error)
}

// ClassifierFunc adapts a plain function to the Classifier interface
type ClassifierFunc func(ctx context.Context, texts []string) (*types.FeedAnalysis, error)

// Classify implements Classifier
func (f ClassifierFunc) Classify(ctx context.Context, texts []string) (*types.FeedAnalysis, error) {
	return f(ctx, texts)
}

// SnapshotStore is the shared storage read by the popup and dashboard
type SnapshotStore interface {
	Save(ctx context.Context, snapshot types.Snapshot) error
	Load(ctx context.Context) (*types.Snapshot, error)
}

// Entry is one classified item handed to a Sink
type Entry struct {
	Text   string
	Result types.Classification
}

// Sink receives classified items after a batch has been fully handled
type Sink interface {
	Index(ctx context.Context, entries []Entry) error
}

type discardStore struct{}

func (discardStore) Save(context.Context, types.Snapshot) error { return nil }

func (discardStore) Load(context.Context) (*types.Snapshot, error) { return nil, nil }

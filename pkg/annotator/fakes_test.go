package annotator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
)

// fakeItem is an in-memory feed item
type fakeItem struct {
	id   string
	text string

	mu        sync.Mutex
	tags      []string
	pending   string
	attachErr error
}

func (i *fakeItem) ID() string   { return i.id }
func (i *fakeItem) Text() string { return i.text }

func (i *fakeItem) Annotated() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.tags) > 0
}

func (i *fakeItem) Pending() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.pending != ""
}

func (i *fakeItem) Attach(markup string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.attachErr != nil {
		return i.attachErr
	}
	i.tags = append(i.tags, markup)
	return nil
}

func (i *fakeItem) MarkPending(markup string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.pending = markup
	return nil
}

func (i *fakeItem) ClearPending() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.pending = ""
	return nil
}

func (i *fakeItem) tagCount() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.tags)
}

func (i *fakeItem) tag() string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return strings.Join(i.tags, "")
}

// fakeDocument is an in-memory feed that notifies subscribers on every Add
type fakeDocument struct {
	mu        sync.Mutex
	items     []*fakeItem
	listeners map[int]func()
	nextID    int
	listErr   error
}

func newFakeDocument(texts ...string) *fakeDocument {
	d := &fakeDocument{listeners: make(map[int]func())}
	for _, text := range texts {
		d.items = append(d.items, d.newItem(text))
	}
	return d
}

func (d *fakeDocument) newItem(text string) *fakeItem {
	d.nextID++
	return &fakeItem{id: fmt.Sprintf("item-%d", d.nextID), text: text}
}

func (d *fakeDocument) Items(ctx context.Context) ([]Item, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.listErr != nil {
		return nil, d.listErr
	}
	items := make([]Item, len(d.items))
	for i, item := range d.items {
		items[i] = item
	}
	return items, nil
}

func (d *fakeDocument) OnChange(fn func()) func() {
	d.mu.Lock()
	defer d.mu.Unlock()

	id := len(d.listeners) + 1
	d.listeners[id] = fn
	return func() {
		d.mu.Lock()
		delete(d.listeners, id)
		d.mu.Unlock()
	}
}

// Add appends an item and notifies subscribers
func (d *fakeDocument) Add(text string) *fakeItem {
	d.mu.Lock()
	item := d.newItem(text)
	d.items = append(d.items, item)
	listeners := make([]func(), 0, len(d.listeners))
	for _, fn := range d.listeners {
		listeners = append(listeners, fn)
	}
	d.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
	return item
}

func (d *fakeDocument) item(i int) *fakeItem {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.items[i]
}

func (d *fakeDocument) subscribers() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.listeners)
}

// recordingSink collects every entry it is handed
type recordingSink struct {
	mu      sync.Mutex
	entries []Entry
	err     error
}

func (s *recordingSink) Index(ctx context.Context, entries []Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entries...)
	return s.err
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

var errFakeTransport = errors.New("connection refused")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// feedTexts returns n distinct texts long enough to qualify as feed items
func feedTexts(n int) []string {
	texts := make([]string, n)
	for i := range texts {
		texts[i] = fmt.Sprintf("feed item number %d with enough text", i+1)
	}
	return texts
}

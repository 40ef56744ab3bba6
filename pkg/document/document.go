// Package document provides an in-memory feed document backed by goquery.
package document

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/FrenchMajesty/veracious/pkg/annotator"
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// IDAttr is the attribute that gives every feed item a stable identity
const IDAttr = "data-veracious-id"

// ErrDetached is returned when an item is no longer part of the document
var ErrDetached = errors.New("item is no longer in the document")

// Document is a parsed HTML feed. It is safe for concurrent use.
type Document struct {
	mu           sync.Mutex
	doc          *goquery.Document
	nextID       int
	listeners    map[int]func()
	nextListener int
}

// Parse reads an HTML document from r
func Parse(r io.Reader) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	return &Document{doc: doc, listeners: make(map[int]func())}, nil
}

// NewFromString parses an HTML document from a string
func NewFromString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// Items implements annotator.Document
func (d *Document) Items(ctx context.Context) ([]annotator.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	var items []annotator.Item
	d.doc.Find(annotator.Selector).Each(func(_ int, s *goquery.Selection) {
		id, ok := s.Attr(IDAttr)
		if !ok {
			d.nextID++
			id = strconv.Itoa(d.nextID)
			s.SetAttr(IDAttr, id)
		}
		items = append(items, &item{doc: d, id: id})
	})
	return items, nil
}

// OnChange implements annotator.Document
func (d *Document) OnChange(fn func()) func() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.nextListener++
	id := d.nextListener
	d.listeners[id] = fn

	return func() {
		d.mu.Lock()
		delete(d.listeners, id)
		d.mu.Unlock()
	}
}

// Append inserts markup as the last child of every element matching selector
func (d *Document) Append(selector, markup string) error {
	return d.mutate(func(doc *goquery.Document) error {
		target := doc.Find(selector)
		if target.Length() == 0 {
			return fmt.Errorf("no element matches %q", selector)
		}
		target.AppendHtml(markup)
		return nil
	})
}

// Remove deletes every element matching selector
func (d *Document) Remove(selector string) error {
	return d.mutate(func(doc *goquery.Document) error {
		doc.Find(selector).Remove()
		return nil
	})
}

// HTML renders the current document
func (d *Document) HTML() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.doc.Html()
}

// WriteTo writes the current document to w
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	out, err := d.HTML()
	if err != nil {
		return 0, fmt.Errorf("failed to render document: %w", err)
	}
	n, err := io.WriteString(w, out)
	return int64(n), err
}

// mutate applies fn under the lock and notifies listeners once it has been released
func (d *Document) mutate(fn func(doc *goquery.Document) error) error {
	d.mu.Lock()
	if err := fn(d.doc); err != nil {
		d.mu.Unlock()
		return err
	}
	listeners := make([]func(), 0, len(d.listeners))
	ids := make([]int, 0, len(d.listeners))
	for id := range d.listeners {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		listeners = append(listeners, d.listeners[id])
	}
	d.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
	return nil
}

// find returns the element for id. Callers hold d.mu.
func (d *Document) find(id string) *goquery.Selection {
	return d.doc.Find(`[` + IDAttr + `="` + id + `"]`).First()
}

// item is one feed element, addressed by its stable id
type item struct {
	doc *Document
	id  string
}

func (i *item) ID() string {
	return i.id
}

func (i *item) Text() string {
	i.doc.mu.Lock()
	defer i.doc.mu.Unlock()

	s := i.doc.find(i.id)
	if s.Length() == 0 {
		return ""
	}
	var b strings.Builder
	visibleText(s.Nodes[0], &b)
	return b.String()
}

func (i *item) Annotated() bool {
	i.doc.mu.Lock()
	defer i.doc.mu.Unlock()
	return i.doc.find(i.id).Find("." + annotator.TagClass).Not("." + annotator.PendingClass).Length() > 0
}

func (i *item) Pending() bool {
	i.doc.mu.Lock()
	defer i.doc.mu.Unlock()
	return i.doc.find(i.id).Find("." + annotator.PendingClass).Length() > 0
}

func (i *item) Attach(markup string) error {
	return i.edit(func(s *goquery.Selection) { s.PrependHtml(markup) })
}

func (i *item) MarkPending(markup string) error {
	return i.edit(func(s *goquery.Selection) { s.AppendHtml(markup) })
}

func (i *item) ClearPending() error {
	return i.edit(func(s *goquery.Selection) { s.Find("." + annotator.PendingClass).Remove() })
}

func (i *item) edit(fn func(s *goquery.Selection)) error {
	return i.doc.mutate(func(*goquery.Document) error {
		s := i.doc.find(i.id)
		if s.Length() == 0 {
			return fmt.Errorf("item %s: %w", i.id, ErrDetached)
		}
		fn(s)
		return nil
	})
}

// visibleText collects text content, skipping annotation subtrees
func visibleText(n *html.Node, b *strings.Builder) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.ElementNode:
		if hasClass(n, annotator.TagClass) {
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		visibleText(c, b)
	}
}

func hasClass(n *html.Node, class string) bool {
	for _, attr := range n.Attr {
		if attr.Key == "class" && slices.Contains(strings.Fields(attr.Val), class) {
			return true
		}
	}
	return false
}

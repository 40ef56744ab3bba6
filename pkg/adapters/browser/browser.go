// Package browser exposes a live browser page as an annotator.Document using Playwright.
package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/FrenchMajesty/veracious/pkg/annotator"
	"github.com/playwright-community/playwright-go"
)

// notifyBinding is the page function the mutation observer calls
const notifyBinding = "__veraciousNotify"

// ErrDetached is returned when an item has left the page
var ErrDetached = errors.New("item is no longer on the page")

const observeJS = `() => {
	if (window.__veraciousObserver) return false;
	window.__veraciousObserver = new MutationObserver(() => window.` + notifyBinding + `());
	window.__veraciousObserver.observe(document.body, { childList: true, subtree: true });
	return true;
}`

const itemsJS = `(selector) => {
	let next = Number(window.__veraciousNextId || 0);
	const items = Array.from(document.querySelectorAll(selector)).map((el) => {
		if (!el.dataset.veraciousId) {
			next += 1;
			el.dataset.veraciousId = String(next);
		}
		const clone = el.cloneNode(true);
		clone.querySelectorAll('.` + annotator.TagClass + `').forEach((n) => n.remove());
		return {
			id: el.dataset.veraciousId,
			text: clone.textContent || '',
			annotated: !!el.querySelector('.` + annotator.TagClass + `:not(.` + annotator.PendingClass + `)'),
			pending: !!el.querySelector('.` + annotator.PendingClass + `'),
		};
	});
	window.__veraciousNextId = next;
	return items;
}`

const editJS = `([id, op, markup]) => {
	const el = document.querySelector('[data-veracious-id="' + id + '"]');
	if (!el) return false;
	switch (op) {
	case 'attach':
		if (!el.querySelector('.` + annotator.TagClass + `:not(.` + annotator.PendingClass + `)')) el.insertAdjacentHTML('afterbegin', markup);
		break;
	case 'pending':
		if (!el.querySelector('.` + annotator.PendingClass + `')) el.insertAdjacentHTML('beforeend', markup);
		break;
	case 'clear':
		el.querySelectorAll('.` + annotator.PendingClass + `').forEach((n) => n.remove());
		break;
	}
	return true;
}`

type editOp string

const (
	opAttach  editOp = "attach"
	opPending editOp = "pending"
	opClear   editOp = "clear"
)

// evaluator is the subset of playwright.Page the document needs
type evaluator interface {
	Evaluate(expression string, arg ...interface{}) (interface{}, error)
	ExposeFunction(name string, binding playwright.ExposedFunction) error
}

// Document is a live page watched through a MutationObserver
type Document struct {
	page evaluator

	mu           sync.Mutex
	listeners    map[int]func()
	nextListener int

	// installMu serializes Install; notify takes mu from Playwright's goroutine
	installMu sync.Mutex
	installed bool
}

// NewDocument wraps page. Call Install before the first OnChange notification is expected.
func NewDocument(page evaluator) *Document {
	return &Document{page: page, listeners: make(map[int]func())}
}

// Install exposes the notification binding and starts the page's mutation observer.
// A navigation drops the observer; ReinstallOnLoad runs Install again after every load.
func (d *Document) Install() error {
	d.installMu.Lock()
	defer d.installMu.Unlock()

	if !d.installed {
		if err := d.page.ExposeFunction(notifyBinding, func(args ...interface{}) interface{} {
			d.notify()
			return nil
		}); err != nil {
			return fmt.Errorf("failed to expose notification binding: %w", err)
		}
		d.installed = true
	}

	if _, err := d.page.Evaluate(observeJS); err != nil {
		return fmt.Errorf("failed to install mutation observer: %w", err)
	}
	return nil
}

// loadNotifier is the part of playwright.Page that reports full page loads
type loadNotifier interface {
	OnLoad(fn func(playwright.Page))
}

// ReinstallOnLoad reinstalls the observer after every page load and reports a change so the
// new page gets scanned. Failures are logged.
func (d *Document) ReinstallOnLoad(page loadNotifier, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	page.OnLoad(func(playwright.Page) {
		// Handlers run on Playwright's dispatch goroutine, which Install's page calls need
		go func() {
			if err := d.Install(); err != nil {
				logger.Warn("browser: observer not reinstalled after navigation", "error", err)
				return
			}
			d.notify()
		}()
	})
}

// Items implements annotator.Document
func (d *Document) Items(ctx context.Context) ([]annotator.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := d.page.Evaluate(itemsJS, annotator.Selector)
	if err != nil {
		return nil, fmt.Errorf("failed to query feed items: %w", err)
	}

	list, ok := raw.([]interface{})
	if !ok && raw != nil {
		return nil, fmt.Errorf("unexpected item list type %T", raw)
	}

	items := make([]annotator.Item, 0, len(list))
	for _, entry := range list {
		fields, ok := entry.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("unexpected item type %T", entry)
		}
		it := &item{doc: d}
		it.id, _ = fields["id"].(string)
		it.text, _ = fields["text"].(string)
		it.annotated, _ = fields["annotated"].(bool)
		it.pending, _ = fields["pending"].(bool)
		items = append(items, it)
	}
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

// notify runs on Playwright's dispatch goroutine and must not call back into the page
func (d *Document) notify() {
	d.mu.Lock()
	listeners := make([]func(), 0, len(d.listeners))
	for _, fn := range d.listeners {
		listeners = append(listeners, fn)
	}
	d.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
}

func (d *Document) edit(id string, op editOp, markup string) error {
	raw, err := d.page.Evaluate(editJS, []interface{}{id, string(op), markup})
	if err != nil {
		return fmt.Errorf("failed to %s item %s: %w", op, id, err)
	}
	if found, _ := raw.(bool); !found {
		return fmt.Errorf("item %s: %w", id, ErrDetached)
	}
	return nil
}

// item is a snapshot of one feed element taken by Items. Its flags track the edits made through it.
type item struct {
	doc       *Document
	id        string
	text      string
	annotated bool
	pending   bool
}

func (i *item) ID() string      { return i.id }
func (i *item) Text() string    { return i.text }
func (i *item) Annotated() bool { return i.annotated }
func (i *item) Pending() bool   { return i.pending }

func (i *item) Attach(markup string) error {
	if err := i.doc.edit(i.id, opAttach, markup); err != nil {
		return err
	}
	i.annotated = true
	return nil
}

func (i *item) MarkPending(markup string) error {
	if err := i.doc.edit(i.id, opPending, markup); err != nil {
		return err
	}
	i.pending = true
	return nil
}

func (i *item) ClearPending() error {
	if err := i.doc.edit(i.id, opClear, ""); err != nil {
		return err
	}
	i.pending = false
	return nil
}

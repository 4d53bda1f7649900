// Package locatortest provides an in-memory locator.Document for tests.
package locatortest

import (
	"context"
	"sync"

	"github.com/use-agent/mcxwatch/locator"
)

// Node is a fake element keyed by the XPath that finds it.
type Node struct {
	Text     string
	TextErr  error
	ClickErr error

	// OnClick runs after a successful click, typically to swap other nodes
	// the way a page updates after a selection.
	OnClick func(d *Document)
}

// Document answers Find from a mutable XPath table. Unknown XPaths block
// until the query context expires, like a real wait timing out.
type Document struct {
	mu      sync.Mutex
	nodes   map[string]*Node
	queried []string
	closed  bool

	// Source is returned by HTML.
	Source string
}

var _ locator.Document = (*Document)(nil)

// New returns an empty document.
func New() *Document {
	return &Document{nodes: make(map[string]*Node)}
}

// Set installs or replaces the node for xpath.
func (d *Document) Set(xpath string, n *Node) *Document {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nodes[xpath] = n
	return d
}

// Queried lists every XPath passed to Find, in call order.
func (d *Document) Queried() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.queried...)
}

func (d *Document) Find(ctx context.Context, l locator.Locator) (locator.Element, error) {
	d.mu.Lock()
	d.queried = append(d.queried, l.XPath)
	n, ok := d.nodes[l.XPath]
	d.mu.Unlock()

	if !ok {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return &element{doc: d, node: n}, nil
}

// HTML returns Source.
func (d *Document) HTML(context.Context) (string, error) {
	return d.Source, nil
}

// Close marks the document released.
func (d *Document) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

// Closed reports whether Close was called.
func (d *Document) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

type element struct {
	doc  *Document
	node *Node
}

func (e *element) Text() (string, error) {
	return e.node.Text, e.node.TextErr
}

func (e *element) Click() error {
	if e.node.ClickErr != nil {
		return e.node.ClickErr
	}
	if e.node.OnClick != nil {
		e.node.OnClick(e.doc)
	}
	return nil
}

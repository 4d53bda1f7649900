package renderer

import (
	"context"
	"sync"

	"github.com/go-rod/rod"
	"github.com/use-agent/mcxwatch/locator"
)

// Session is one rendered page and the browser behind it.
type Session struct {
	page    *rod.Page
	router  *rod.HijackRouter
	release func()
	once    sync.Once

	// Strategy names the construction strategy that produced the browser.
	Strategy string
}

var _ locator.Document = (*Session)(nil)

// Find waits for the XPath to match, and for the element to become visible
// when l.Visible is set. The wait is bounded by ctx.
func (s *Session) Find(ctx context.Context, l locator.Locator) (locator.Element, error) {
	el, err := s.page.Context(ctx).ElementX(l.XPath)
	if err != nil {
		return nil, err
	}
	if l.Visible {
		if err := el.WaitVisible(); err != nil {
			return nil, err
		}
	}
	return &element{el: el}, nil
}

// HTML returns the current serialized DOM.
func (s *Session) HTML(ctx context.Context) (string, error) {
	return s.page.Context(ctx).HTML()
}

// Close stops request interception, closes the page and releases the
// browser. It is safe to call more than once.
func (s *Session) Close() error {
	var err error
	s.once.Do(func() {
		if s.router != nil {
			_ = s.router.Stop()
		}
		err = s.page.Close()
		s.release()
	})
	return err
}

type element struct {
	el *rod.Element
}

func (e *element) Text() (string, error) {
	return e.el.Text()
}

// Click uses a script click, which reaches radio inputs that custom
// controls keep out of the pointer's way.
func (e *element) Click() error {
	_, err := e.el.Eval(`() => this.click()`)
	return err
}

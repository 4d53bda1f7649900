// Package locator resolves ordered lists of alternative element queries
// against a rendered document. The first locator whose element is found
// and accepted wins; the remaining locators are never queried.
package locator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/use-agent/mcxwatch/cascade"
	"github.com/use-agent/mcxwatch/models"
)

// Locator is one candidate element query.
type Locator struct {
	// Name identifies the locator in logs. Defaults to the XPath.
	Name string

	XPath string

	// Visible waits for the element to be visible rather than merely present.
	Visible bool
}

func (l Locator) String() string {
	if l.Name != "" {
		return l.Name
	}
	return l.XPath
}

// XPaths builds locators from raw XPath expressions.
func XPaths(visible bool, exprs ...string) []Locator {
	out := make([]Locator, len(exprs))
	for i, x := range exprs {
		out[i] = Locator{XPath: x, Visible: visible}
	}
	return out
}

// Element is a matched node.
type Element interface {
	Text() (string, error)
	// Click activates the element via script, which also works for inputs
	// hidden behind custom controls.
	Click() error
}

// Document is a queryable rendered page. Find blocks until an element
// matching l exists (and is visible when l.Visible), or ctx is done.
type Document interface {
	Find(ctx context.Context, l Locator) (Element, error)
}

// Match describes the locator that won.
type Match struct {
	Locator Locator
	Index   int
	Text    string
}

// AcceptFunc inspects a found element and returns the value to report.
// Returning an error rejects the element and advances the cascade.
type AcceptFunc func(el Element) (string, error)

// Resolve tries each locator in order, waiting up to timeout per locator.
// Exhausting the list returns an error matching models.ErrLocatorNotFound.
func Resolve(ctx context.Context, doc Document, locators []Locator, timeout time.Duration, accept AcceptFunc) (Match, error) {
	steps := make([]cascade.Step[string], len(locators))
	for i, l := range locators {
		steps[i] = cascade.Step[string]{
			Name: l.String(),
			Try: func(ctx context.Context) (string, error) {
				lctx, cancel := context.WithTimeout(ctx, timeout)
				defer cancel()

				el, err := doc.Find(lctx, l)
				if err != nil {
					slog.Debug("locator miss", "locator", l.String(), "error", err)
					return "", err
				}
				v, err := accept(el)
				if err != nil {
					slog.Debug("locator rejected", "locator", l.String(), "error", err)
					return "", err
				}
				return v, nil
			},
		}
	}

	v, idx, err := cascade.First(ctx, steps)
	if err != nil {
		return Match{Index: -1}, models.NewExtractError(
			models.ErrCodeLocatorNotFound,
			fmt.Sprintf("none of %d locators matched", len(locators)),
			err,
		)
	}
	return Match{Locator: locators[idx], Index: idx, Text: v}, nil
}

var errEmptyText = errors.New("element text is empty")

// Text resolves the first locator whose element has non-empty text.
func Text(ctx context.Context, doc Document, locators []Locator, timeout time.Duration) (Match, error) {
	return Resolve(ctx, doc, locators, timeout, func(el Element) (string, error) {
		txt, err := el.Text()
		if err != nil {
			return "", err
		}
		txt = strings.TrimSpace(txt)
		if txt == "" {
			return "", errEmptyText
		}
		return txt, nil
	})
}

// Activate clicks the first locator's element that can be found and clicked.
func Activate(ctx context.Context, doc Document, locators []Locator, timeout time.Duration) (Match, error) {
	return Resolve(ctx, doc, locators, timeout, func(el Element) (string, error) {
		return "", el.Click()
	})
}

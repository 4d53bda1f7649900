package locator_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/mcxwatch/locator"
	"github.com/use-agent/mcxwatch/locator/locatortest"
	"github.com/use-agent/mcxwatch/models"
)

const timeout = 5 * time.Millisecond

func TestText_ShortCircuitsOnFirstMatch(t *testing.T) {
	doc := locatortest.New().
		Set("//b", &locatortest.Node{Text: "  from B "}).
		Set("//c", &locatortest.Node{Text: "from C"})

	m, err := locator.Text(context.Background(), doc, locator.XPaths(true, "//a", "//b", "//c"), timeout)

	require.NoError(t, err)
	assert.Equal(t, "from B", m.Text)
	assert.Equal(t, 1, m.Index)
	assert.Equal(t, "//b", m.Locator.XPath)
	assert.Equal(t, []string{"//a", "//b"}, doc.Queried(), "C must never be attempted")
}

func TestText_SkipsEmptyAndErroringElements(t *testing.T) {
	doc := locatortest.New().
		Set("//empty", &locatortest.Node{Text: "   "}).
		Set("//broken", &locatortest.Node{TextErr: errors.New("stale element")}).
		Set("//good", &locatortest.Node{Text: "As on 03 April, 2025 | 14:05"})

	m, err := locator.Text(context.Background(), doc, locator.XPaths(false, "//empty", "//broken", "//good"), timeout)

	require.NoError(t, err)
	assert.Equal(t, 2, m.Index)
	assert.Equal(t, "As on 03 April, 2025 | 14:05", m.Text)
}

func TestResolve_ExhaustedIsNotFound(t *testing.T) {
	doc := locatortest.New()

	m, err := locator.Text(context.Background(), doc, locator.XPaths(true, "//a", "//b"), timeout)

	assert.ErrorIs(t, err, models.ErrLocatorNotFound)
	assert.Equal(t, -1, m.Index)
	assert.Equal(t, []string{"//a", "//b"}, doc.Queried(), "one pass only")
}

func TestResolve_AcceptRejectionAdvances(t *testing.T) {
	doc := locatortest.New().
		Set("//a", &locatortest.Node{Text: "N/A"}).
		Set("//b", &locatortest.Node{Text: "2450"})

	reject := errors.New("not a number")
	m, err := locator.Resolve(context.Background(), doc, locator.XPaths(true, "//a", "//b"), timeout,
		func(el locator.Element) (string, error) {
			txt, _ := el.Text()
			if txt == "N/A" {
				return "", reject
			}
			return txt, nil
		})

	require.NoError(t, err)
	assert.Equal(t, "2450", m.Text)
}

func TestActivate(t *testing.T) {
	clicked := false
	doc := locatortest.New().
		Set("//fails", &locatortest.Node{ClickErr: errors.New("not clickable")}).
		Set("//ok", &locatortest.Node{OnClick: func(*locatortest.Document) { clicked = true }})

	m, err := locator.Activate(context.Background(), doc, locator.XPaths(false, "//fails", "//ok"), timeout)

	require.NoError(t, err)
	assert.Equal(t, 1, m.Index)
	assert.True(t, clicked)
}

func TestResolve_PerLocatorTimeoutIsBounded(t *testing.T) {
	doc := locatortest.New()
	start := time.Now()

	_, err := locator.Text(context.Background(), doc, locator.XPaths(true, "//a", "//b", "//c"), 20*time.Millisecond)

	assert.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
}

func TestLocatorString(t *testing.T) {
	assert.Equal(t, "//x", locator.Locator{XPath: "//x"}.String())
	assert.Equal(t, "price", locator.Locator{Name: "price", XPath: "//x"}.String())
}

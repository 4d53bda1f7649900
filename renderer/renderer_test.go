package renderer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/cdp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/mcxwatch/config"
	"github.com/use-agent/mcxwatch/models"
)

func fakeStrategy(name string, err error, calls *[]string, released *[]string) Strategy {
	return Strategy{
		Name: name,
		Launch: func(context.Context) (*rod.Browser, func(), error) {
			*calls = append(*calls, name)
			if err != nil {
				return nil, nil, err
			}
			return rod.New(), func() { *released = append(*released, name) }, nil
		},
	}
}

func TestOpen_FirstWorkingStrategyWins(t *testing.T) {
	var calls, released []string
	r := NewWithStrategies(config.BrowserConfig{}, 0, []Strategy{
		fakeStrategy("managed", errors.New("download blocked"), &calls, &released),
		fakeStrategy("explicit", nil, &calls, &released),
		fakeStrategy("system", nil, &calls, &released),
	})

	o, name, err := r.open(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "explicit", name)
	assert.NotNil(t, o.browser)
	assert.Equal(t, []string{"managed", "explicit"}, calls)

	o.release()
	assert.Equal(t, []string{"explicit"}, released)
}

func TestOpen_AllFailIsRendererUnavailable(t *testing.T) {
	var calls, released []string
	last := errors.New("no browser on PATH")
	r := NewWithStrategies(config.BrowserConfig{}, 0, []Strategy{
		fakeStrategy("managed", errors.New("download blocked"), &calls, &released),
		fakeStrategy("system", last, &calls, &released),
	})

	_, _, err := r.open(context.Background())

	assert.ErrorIs(t, err, models.ErrRendererUnavailable)
	assert.ErrorIs(t, err, last, "carries the last underlying cause")
	assert.Equal(t, []string{"managed", "system"}, calls)
	assert.Empty(t, released)
}

func TestRender_Unavailable(t *testing.T) {
	r := NewWithStrategies(config.BrowserConfig{}, 0, nil)

	s, err := r.Render(context.Background(), "https://example.com")

	assert.Nil(t, s)
	assert.ErrorIs(t, err, models.ErrRendererUnavailable)
}

func TestDefaultStrategies_Order(t *testing.T) {
	r := New(config.BrowserConfig{}, 0)
	assert.Equal(t, []string{"managed", "explicit", "system"}, r.StrategyNames())

	r = New(config.BrowserConfig{RemoteURL: "ws://127.0.0.1:9222/devtools/browser/x"}, 0)
	assert.Equal(t, []string{"remote", "managed", "explicit", "system"}, r.StrategyNames())
}

func TestExplicitBin(t *testing.T) {
	dir := t.TempDir()
	present := filepath.Join(dir, "chrome")
	require.NoError(t, os.WriteFile(present, []byte("#!/bin/sh\n"), 0o755))
	missing := filepath.Join(dir, "missing")

	bin, err := explicitBin(config.BrowserConfig{CandidateBins: []string{missing, present}})
	require.NoError(t, err)
	assert.Equal(t, present, bin)

	bin, err = explicitBin(config.BrowserConfig{BrowserBin: present, CandidateBins: []string{missing}})
	require.NoError(t, err)
	assert.Equal(t, present, bin)

	_, err = explicitBin(config.BrowserConfig{BrowserBin: missing})
	assert.Error(t, err)

	_, err = explicitBin(config.BrowserConfig{CandidateBins: []string{missing}})
	assert.ErrorIs(t, err, errNoExplicitBin)
}

func TestIsTrackerDomain(t *testing.T) {
	assert.True(t, isTrackerDomain("www.google-analytics.com"))
	assert.True(t, isTrackerDomain("googletagmanager.com"))
	assert.True(t, isTrackerDomain("A.Clarity.MS"))
	assert.False(t, isTrackerDomain("www.5paisa.com"))
	assert.False(t, isTrackerDomain(""))
}

func TestSetupHijack_NothingToBlock(t *testing.T) {
	// No router is installed, so the page is never touched.
	assert.Nil(t, setupHijack(nil, nil, false))
	assert.Nil(t, setupHijack(nil, []string{"NotAType"}, false))
}

func TestToHeadersMap(t *testing.T) {
	m := toHeadersMap(map[string]string{"Accept-Language": "en-IN"})
	require.Contains(t, m, "Accept-Language")
	assert.Equal(t, "en-IN", m["Accept-Language"].Str())
}

func TestCategorizeError(t *testing.T) {
	assert.Equal(t, models.ErrCodeTimeout, categorizeError(context.DeadlineExceeded, "x").Code)
	assert.Equal(t, models.ErrCodeNavigation, categorizeError(errors.New("net::ERR_NAME_NOT_RESOLVED"), "x").Code)
}

type offlineClient struct{}

func (offlineClient) Event() <-chan *cdp.Event { return nil }

func (offlineClient) Call(context.Context, string, string, any) ([]byte, error) {
	return nil, errors.New("offline")
}

type countingCloser struct{ closed int }

func (c *countingCloser) Close() error {
	c.closed++
	return nil
}

func TestAttach_ReleaseClosesConnection(t *testing.T) {
	conn := &countingCloser{}

	b, release, err := attach(conn, offlineClient{}, func(*rod.Browser) error { return nil })
	require.NoError(t, err)
	require.NoError(t, b.GetContext().Err())

	release()
	release()
	assert.Equal(t, 1, conn.closed)
	assert.Error(t, b.GetContext().Err())
}

func TestAttach_ConnectFailureClosesConnection(t *testing.T) {
	conn := &countingCloser{}

	b, release, err := attach(conn, offlineClient{}, func(*rod.Browser) error { return errors.New("refused") })

	assert.EqualError(t, err, "refused")
	assert.Nil(t, b)
	assert.Nil(t, release)
	assert.Equal(t, 1, conn.closed)
}

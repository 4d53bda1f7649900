// Package renderer turns a URL into a live, queryable browser page.
//
// A Renderer owns no long-lived browser: every Render builds a fresh
// session from the first construction strategy that works, so one broken
// cycle cannot poison the next. Callers must Close the returned Session.
package renderer

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/use-agent/mcxwatch/cascade"
	"github.com/use-agent/mcxwatch/config"
	"github.com/use-agent/mcxwatch/models"
	"github.com/ysmood/gson"
)

// Renderer builds browser sessions. It is safe for concurrent use; each
// Render gets its own browser.
type Renderer struct {
	strategies []Strategy
	cfg        config.BrowserConfig
	navTimeout time.Duration
}

// New creates a Renderer with DefaultStrategies.
func New(cfg config.BrowserConfig, navTimeout time.Duration) *Renderer {
	return NewWithStrategies(cfg, navTimeout, DefaultStrategies(cfg))
}

// NewWithStrategies creates a Renderer with a custom strategy list.
func NewWithStrategies(cfg config.BrowserConfig, navTimeout time.Duration, strategies []Strategy) *Renderer {
	return &Renderer{strategies: strategies, cfg: cfg, navTimeout: navTimeout}
}

// StrategyNames lists the strategies in the order they are tried.
func (r *Renderer) StrategyNames() []string {
	names := make([]string, len(r.strategies))
	for i, s := range r.strategies {
		names[i] = s.Name
	}
	return names
}

type opened struct {
	browser *rod.Browser
	release func()
}

// open returns a browser from the first strategy that yields one.
func (r *Renderer) open(ctx context.Context) (opened, string, error) {
	steps := make([]cascade.Step[opened], len(r.strategies))
	for i, s := range r.strategies {
		steps[i] = cascade.Step[opened]{
			Name: s.Name,
			Try: func(ctx context.Context) (opened, error) {
				b, release, err := s.Launch(ctx)
				if err != nil {
					slog.Warn("browser strategy failed", "strategy", s.Name, "error", err)
					return opened{}, err
				}
				return opened{browser: b, release: release}, nil
			},
		}
	}

	o, idx, err := cascade.First(ctx, steps)
	if err != nil {
		return opened{}, "", models.NewExtractError(
			models.ErrCodeRendererUnavailable,
			"every browser strategy failed",
			err,
		)
	}
	return o, r.strategies[idx].Name, nil
}

// Render opens a browser, navigates to url and waits for the page to settle.
//
// Lifecycle:
//
//  1. Open browser       – first working strategy
//  2. Create page        – released with the browser on any later failure
//  3. Stealth injection  – before navigation, so it applies to the target
//  4. Headers + hijack   – user agent, language, resource blocking
//  5. Navigate + wait    – bounded by the navigation timeout
func (r *Renderer) Render(ctx context.Context, url string) (*Session, error) {
	// ── 1. Open browser ───────────────────────────────────────────────
	o, strategy, err := r.open(ctx)
	if err != nil {
		return nil, err
	}

	// ── 2. Create page ────────────────────────────────────────────────
	page, err := o.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		o.release()
		return nil, models.NewExtractError(
			models.ErrCodeRendererUnavailable,
			"failed to create page",
			err,
		)
	}
	s := &Session{page: page, release: o.release, Strategy: strategy}

	// ── 3. Stealth injection ──────────────────────────────────────────
	if _, evalErr := page.EvalOnNewDocument(stealth.JS); evalErr != nil {
		slog.Warn("stealth injection failed, proceeding without stealth", "error", evalErr)
	}

	// ── 4. Headers + hijack ───────────────────────────────────────────
	if r.cfg.UserAgent != "" {
		if uaErr := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
			UserAgent:      r.cfg.UserAgent,
			AcceptLanguage: "en-IN,en;q=0.9",
		}); uaErr != nil {
			slog.Warn("user agent override failed", "error", uaErr)
		}
	}
	if err := (proto.NetworkSetExtraHTTPHeaders{
		Headers: toHeadersMap(map[string]string{
			"Accept-Language": "en-IN,en;q=0.9",
			"Referer":         "https://www.google.com/",
		}),
	}).Call(page); err != nil {
		slog.Debug("extra headers not applied", "url", url, "error", err)
	}
	s.router = setupHijack(page, r.cfg.BlockedResourceTypes, r.cfg.BlockTrackers)

	// ── 5. Navigate + wait ────────────────────────────────────────────
	navCtx, cancel := context.WithTimeout(ctx, r.navTimeout)
	defer cancel()
	p := page.Context(navCtx)

	if err := p.Navigate(url); err != nil {
		_ = s.Close()
		return nil, categorizeError(err, "navigation to target URL failed")
	}
	if err := p.WaitLoad(); err != nil {
		slog.Debug("load event did not fire, proceeding with current DOM", "error", err)
	}
	if err := p.WaitDOMStable(300*time.Millisecond, 0.1); err != nil {
		slog.Debug("WaitDOMStable did not converge, proceeding with current DOM", "error", err)
	}
	if r.cfg.RemoveOverlays {
		if n := removeOverlays(p); n > 0 {
			slog.Debug("overlays removed", "count", n)
		}
	}

	slog.Info("page loaded",
		"url", url,
		"strategy", strategy,
		"title", evalStringOrEmpty(p, `() => document.title`),
	)
	return s, nil
}

// evalStringOrEmpty evaluates a JS expression and returns the string result,
// swallowing any errors.
func evalStringOrEmpty(page *rod.Page, js string) string {
	res, err := page.Eval(js)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}

// categorizeError wraps navigation errors so the cycle log says whether the
// page was slow or broken.
func categorizeError(err error, msg string) *models.ExtractError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewExtractError(models.ErrCodeTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewExtractError(models.ErrCodeTimeout, "navigation canceled", err)
	default:
		return models.NewExtractError(models.ErrCodeNavigation, msg, err)
	}
}

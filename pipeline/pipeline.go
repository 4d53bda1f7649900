// Package pipeline runs one extraction cycle: render the quote page, read
// its report time, then select each contract month in turn and read its
// price and rate change.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"github.com/use-agent/mcxwatch/extractor"
	"github.com/use-agent/mcxwatch/locator"
	"github.com/use-agent/mcxwatch/models"
)

// Page is a rendered document the pipeline can query and must release.
type Page interface {
	locator.Document
	HTML(ctx context.Context) (string, error)
	Close() error
}

// Renderer produces a fresh Page per cycle.
type Renderer interface {
	Render(ctx context.Context, url string) (Page, error)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(ctx context.Context, url string) (Page, error)

func (f RendererFunc) Render(ctx context.Context, url string) (Page, error) {
	return f(ctx, url)
}

// Options tunes a cycle. Zero durations are valid and mean "do not wait".
type Options struct {
	URL            string
	LocatorTimeout time.Duration
	RateTimeout    time.Duration
	SettleDelay    time.Duration
	Location       *time.Location

	// Now is the clock used when the page carries no parseable report time.
	Now func() time.Time
}

// Pipeline runs extraction cycles. It holds no per-cycle state and may run
// several cycles concurrently, each with its own Page.
type Pipeline struct {
	renderer Renderer
	targets  []TargetItem
	labels   []string
	opts     Options
}

// New creates a Pipeline for the given targets.
func New(r Renderer, targets []TargetItem, opts Options) *Pipeline {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Pipeline{
		renderer: r,
		targets:  targets,
		labels:   Labels(targets),
		opts:     opts,
	}
}

// Labels returns the configured target labels in order.
func (p *Pipeline) Labels() []string {
	return append([]string(nil), p.labels...)
}

// RunCycle performs one full extraction. It fails only when no page could be
// rendered; every per-item problem is recorded in the snapshot instead. The
// page is released on every path.
func (p *Pipeline) RunCycle(ctx context.Context, seq uint64) (*models.Snapshot, error) {
	start := time.Now()
	log := slog.With("seq", seq)

	page, err := p.renderer.Render(ctx, p.opts.URL)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := page.Close(); cerr != nil {
			log.Warn("page release failed", "error", cerr)
		}
	}()

	ts, tsSource := p.resolveTimestamp(ctx, page)

	items := make(map[string]models.ExtractionResult, len(p.targets))
	found := 0
	for _, t := range p.targets {
		r := p.extractItem(ctx, page, t)
		if r.Status == models.StatusFound {
			found++
		}
		items[t.Label] = r
	}

	log.Info("cycle complete",
		"timestamp", ts.Format(models.TimestampLayout),
		"timestamp_source", tsSource,
		"found", found,
		"items", len(p.targets),
		"duration", time.Since(start).Round(time.Millisecond),
	)

	return &models.Snapshot{
		Seq:             seq,
		Timestamp:       ts,
		TimestampSource: tsSource,
		Labels:          p.Labels(),
		Items:           items,
	}, nil
}

// resolveTimestamp reads the page's "As on" time, falling back to the clock.
func (p *Pipeline) resolveTimestamp(ctx context.Context, page Page) (time.Time, models.TimestampSource) {
	m, err := locator.Text(ctx, page, DateLocators, p.opts.LocatorTimeout)
	if err == nil {
		ts, perr := extractor.ParseTimestamp(m.Text, p.opts.Location)
		if perr == nil {
			return ts, models.TimestampFromPage
		}
		slog.Warn("report time not parseable, using clock", "text", m.Text, "error", perr)
	} else {
		slog.Warn("report time not found, using clock", "error", err)
	}
	return p.opts.Now().In(p.opts.Location), models.TimestampFromClock
}

func (p *Pipeline) extractItem(ctx context.Context, page Page, t TargetItem) models.ExtractionResult {
	log := slog.With("item", t.Label)

	m, err := locator.Activate(ctx, page, t.Locators, p.opts.LocatorTimeout)
	if err != nil {
		log.Warn("contract control not found", "error", err)
		return models.NotFound()
	}
	log.Debug("contract selected", "locator", m.Locator.String())

	if !sleep(ctx, p.opts.SettleDelay) {
		return models.NotFound()
	}

	r := models.ExtractionResult{RateChange: models.NotAvailable, Status: models.StatusNotFound}

	if price, ok := p.directPrice(ctx, page); ok {
		r.Price, r.Source = &price, models.SourceDirect
	} else if price, ok := p.scannedPrice(ctx, page); ok {
		r.Price, r.Source = &price, models.SourcePageScan
	}

	if rm, err := locator.Text(ctx, page, RateLocators, p.opts.RateTimeout); err == nil {
		r.RateChange = rm.Text
	} else {
		log.Debug("rate change not found", "error", err)
	}

	if r.Price == nil && r.RateChange != models.NotAvailable {
		if price, err := extractor.ReconstructPriceFromChange(r.RateChange); err == nil {
			r.Price, r.Source = &price, models.SourceReconstructed
			log.Info("price reconstructed from rate change", "rate_change", r.RateChange, "price", price.String())
		} else {
			log.Debug("price reconstruction failed", "error", err)
		}
	}

	if r.Price != nil {
		r.Status = models.StatusFound
	} else {
		log.Warn("price not found")
	}
	return r
}

// directPrice runs the price cascade; an element only matches when its text
// parses as a price.
func (p *Pipeline) directPrice(ctx context.Context, page Page) (decimal.Decimal, bool) {
	var price decimal.Decimal
	_, err := locator.Resolve(ctx, page, PriceLocators, p.opts.LocatorTimeout, func(el locator.Element) (string, error) {
		txt, err := el.Text()
		if err != nil {
			return "", err
		}
		d, err := extractor.ParsePrice(txt)
		if err != nil {
			return "", err
		}
		price = d
		return txt, nil
	})
	return price, err == nil
}

func (p *Pipeline) scannedPrice(ctx context.Context, page Page) (decimal.Decimal, bool) {
	hctx, cancel := context.WithTimeout(ctx, p.opts.LocatorTimeout)
	defer cancel()

	html, err := page.HTML(hctx)
	if err != nil {
		slog.Debug("page html unavailable for currency scan", "error", err)
		return decimal.Zero, false
	}
	price, err := extractor.ScanCurrency(html)
	if err != nil {
		return decimal.Zero, false
	}
	return price, true
}

// sleep waits d or until ctx is done, reporting whether the full delay elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

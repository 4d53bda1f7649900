package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Layouts used for the flattened snapshot (API and CSV).
const (
	DateLayout      = "2006-01-02"
	TimeLayout      = "15:04:05"
	TimestampLayout = "2006-01-02 15:04:05"
)

// NotAvailable is the placeholder for values that could not be extracted.
const NotAvailable = "N/A"

// ItemStatus is the terminal outcome of extracting one target item.
type ItemStatus string

const (
	StatusFound    ItemStatus = "found"
	StatusNotFound ItemStatus = "not_found"
)

// PriceSource records how a price was obtained.
type PriceSource string

const (
	SourceDirect PriceSource = "direct"
	// SourcePageScan: the price came from a whole-page currency scan instead
	// of a price locator.
	SourcePageScan PriceSource = "page_scan"
	// SourceReconstructed: the price is the magnitude implied by the rate
	// change string, an approximation of the listed price.
	SourceReconstructed PriceSource = "reconstructed"
)

// TimestampSource records where a snapshot's timestamp came from.
type TimestampSource string

const (
	TimestampFromPage  TimestampSource = "page"
	TimestampFromClock TimestampSource = "clock"
)

// ExtractionResult is one target item's outcome in a cycle.
type ExtractionResult struct {
	// Price is nil when no price could be found or reconstructed.
	Price *decimal.Decimal

	// RateChange is the raw change text, e.g. "-5 (-2.1%)", or NotAvailable.
	RateChange string

	Status ItemStatus
	Source PriceSource
}

// NotFound is the entry recorded for an item whose contract control could
// not be activated.
func NotFound() ExtractionResult {
	return ExtractionResult{RateChange: NotAvailable, Status: StatusNotFound}
}

// PriceString renders the price for flat outputs.
func (r ExtractionResult) PriceString() string {
	if r.Price == nil {
		return NotAvailable
	}
	return r.Price.String()
}

// Snapshot is the aggregate result of one full cycle. It is never mutated
// after the pipeline returns it.
type Snapshot struct {
	// Seq orders snapshots by the start of their cycle.
	Seq uint64

	Timestamp       time.Time
	TimestampSource TimestampSource

	// Labels is the configured target order; Items has one entry per label.
	Labels []string
	Items  map[string]ExtractionResult
}

// PriceView is the API shape of an ExtractionResult.
type PriceView struct {
	Price      json.RawMessage `json:"price"`
	RateChange string          `json:"site_rate_change"`
	Status     ItemStatus      `json:"status"`
	Source     PriceSource     `json:"source,omitempty"`
}

// SnapshotView is the API shape of a Snapshot.
type SnapshotView struct {
	Seq             uint64               `json:"seq"`
	Date            string               `json:"date"`
	Time            string               `json:"time"`
	Timestamp       string               `json:"timestamp"`
	TimestampSource TimestampSource      `json:"timestamp_source"`
	Prices          map[string]PriceView `json:"prices"`

	// Stale and Error are set when a failed on-demand cycle falls back to
	// the last published snapshot.
	Stale bool   `json:"stale,omitempty"`
	Error string `json:"error,omitempty"`
}

// View flattens the snapshot into its API representation.
func (s *Snapshot) View() SnapshotView {
	prices := make(map[string]PriceView, len(s.Items))
	for label, r := range s.Items {
		price := json.RawMessage(`"` + NotAvailable + `"`)
		if r.Price != nil {
			price = json.RawMessage(r.Price.String())
		}
		prices[label] = PriceView{
			Price:      price,
			RateChange: r.RateChange,
			Status:     r.Status,
			Source:     r.Source,
		}
	}
	return SnapshotView{
		Seq:             s.Seq,
		Date:            s.Timestamp.Format(DateLayout),
		Time:            s.Timestamp.Format(TimeLayout),
		Timestamp:       s.Timestamp.Format(TimestampLayout),
		TimestampSource: s.TimestampSource,
		Prices:          prices,
	}
}

func (s *Snapshot) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.View())
}

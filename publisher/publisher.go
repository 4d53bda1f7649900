// Package publisher forwards published snapshots to external consumers.
package publisher

import (
	"context"
	"errors"

	"github.com/use-agent/mcxwatch/models"
)

// Publisher represents a sink for published snapshots.
type Publisher interface {
	// Name identifies the sink in logs.
	Name() string

	// Publish delivers one snapshot.
	Publish(ctx context.Context, snap *models.Snapshot) error

	// Close releases any connection held by the sink.
	Close() error
}

// Multi fans a snapshot out to every sink. A failing sink does not stop the
// others; all failures are joined.
type Multi []Publisher

func (m Multi) Name() string { return "multi" }

func (m Multi) Publish(ctx context.Context, snap *models.Snapshot) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, snap); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, p := range m {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

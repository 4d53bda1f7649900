// Package refresh drives extraction cycles and publishes their snapshots.
package refresh

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/use-agent/mcxwatch/history"
	"github.com/use-agent/mcxwatch/models"
	"github.com/use-agent/mcxwatch/publisher"
	"github.com/use-agent/mcxwatch/state"
)

// Cycler runs one extraction cycle.
type Cycler interface {
	RunCycle(ctx context.Context, seq uint64) (*models.Snapshot, error)
}

// Appender persists one snapshot row.
type Appender interface {
	Append(snap *models.Snapshot) error
}

// Stats summarizes cycle outcomes since start.
type Stats struct {
	Succeeded   int64
	Failed      int64
	LastSuccess time.Time
	LastError   string
}

// Service runs cycles for both the background loop and on-demand requests
// through a single publish path.
type Service struct {
	cycler    Cycler
	store     *state.Store
	history   Appender
	publisher publisher.Publisher
	interval  time.Duration

	seq       atomic.Uint64
	succeeded atomic.Int64
	failed    atomic.Int64

	mu          sync.Mutex
	lastSuccess time.Time
	lastError   string
}

// NewService creates a Service. history and pub may be nil.
func NewService(c Cycler, store *state.Store, history Appender, pub publisher.Publisher, interval time.Duration) *Service {
	return &Service{
		cycler:    c,
		store:     store,
		history:   history,
		publisher: pub,
		interval:  interval,
	}
}

// Interval returns the loop period.
func (s *Service) Interval() time.Duration {
	return s.interval
}

// RunOnce runs one cycle and publishes its snapshot. A cycle failure returns
// a nil snapshot and leaves the shared state untouched. A history failure is
// returned alongside the snapshot, which is still published.
func (s *Service) RunOnce(ctx context.Context) (*models.Snapshot, error) {
	seq := s.seq.Add(1)

	snap, err := s.cycler.RunCycle(ctx, seq)
	if err != nil {
		s.failed.Add(1)
		s.mu.Lock()
		s.lastError = err.Error()
		s.mu.Unlock()
		slog.Error("cycle failed", "seq", seq, "error", err)
		return nil, err
	}

	s.succeeded.Add(1)
	s.mu.Lock()
	s.lastSuccess = time.Now()
	s.lastError = ""
	s.mu.Unlock()

	if !s.store.Publish(snap) {
		slog.Info("newer snapshot already published, keeping it", "seq", seq)
	} else if s.publisher != nil {
		if perr := s.publisher.Publish(ctx, snap); perr != nil {
			slog.Warn("snapshot fan-out failed", "seq", seq, "error", perr)
		}
	}

	if s.history != nil {
		if herr := s.history.Append(snap); herr != nil {
			slog.Error("history append failed", "seq", seq, "error", herr, "fatal", history.IsFatal(herr))
			return snap, herr
		}
	}
	return snap, nil
}

// Run performs a cycle immediately and then one per interval until ctx is
// cancelled. Cycles never overlap. It returns a non-nil error only when
// history can no longer be written.
func (s *Service) Run(ctx context.Context) error {
	slog.Info("refresh loop started", "interval", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		start := time.Now()
		if _, err := s.RunOnce(ctx); err != nil && history.IsFatal(err) {
			return err
		}
		slog.Debug("cycle finished", "elapsed", time.Since(start).Round(time.Millisecond))

		select {
		case <-ctx.Done():
			slog.Info("refresh loop stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// Stats returns a copy of the cycle counters.
func (s *Service) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		Succeeded:   s.succeeded.Load(),
		Failed:      s.failed.Load(),
		LastSuccess: s.lastSuccess,
		LastError:   s.lastError,
	}
}

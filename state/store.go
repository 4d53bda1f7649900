// Package state holds the most recently published snapshot.
package state

import (
	"sync/atomic"

	"github.com/use-agent/mcxwatch/models"
)

// Store is a single-slot snapshot holder. Reads never block and always see
// a complete snapshot; publishes only move forward in Seq.
type Store struct {
	latest  atomic.Pointer[models.Snapshot]
	version atomic.Uint64
}

// New returns an empty Store.
func New() *Store {
	return &Store{}
}

// Latest returns the current snapshot, or false before the first publish.
func (s *Store) Latest() (*models.Snapshot, bool) {
	snap := s.latest.Load()
	return snap, snap != nil
}

// Publish installs snap if its Seq is newer than the current one. It reports
// whether snap was installed.
func (s *Store) Publish(snap *models.Snapshot) bool {
	if snap == nil {
		return false
	}
	for {
		cur := s.latest.Load()
		if cur != nil && snap.Seq <= cur.Seq {
			return false
		}
		if s.latest.CompareAndSwap(cur, snap) {
			s.version.Add(1)
			return true
		}
	}
}

// Version counts successful publishes.
func (s *Store) Version() uint64 {
	return s.version.Load()
}

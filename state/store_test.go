package state

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/mcxwatch/models"
)

func TestStore_Empty(t *testing.T) {
	s := New()

	snap, ok := s.Latest()
	assert.False(t, ok)
	assert.Nil(t, snap)
	assert.Zero(t, s.Version())
	assert.False(t, s.Publish(nil))
}

func TestStore_NeverRegresses(t *testing.T) {
	s := New()

	require.True(t, s.Publish(&models.Snapshot{Seq: 2}))
	assert.False(t, s.Publish(&models.Snapshot{Seq: 1}), "older cycle finishing late")
	assert.False(t, s.Publish(&models.Snapshot{Seq: 2}), "same cycle twice")
	require.True(t, s.Publish(&models.Snapshot{Seq: 5}))

	snap, ok := s.Latest()
	require.True(t, ok)
	assert.Equal(t, uint64(5), snap.Seq)
	assert.Equal(t, uint64(2), s.Version())
}

func TestStore_ConcurrentPublishKeepsHighestSeq(t *testing.T) {
	s := New()

	var wg sync.WaitGroup
	for i := 1; i <= 200; i++ {
		wg.Add(1)
		go func(seq uint64) {
			defer wg.Done()
			s.Publish(&models.Snapshot{Seq: seq})
		}(uint64(i))
	}

	// Readers observe a monotonic sequence while writers race.
	done := make(chan struct{})
	go func() {
		defer close(done)
		var last uint64
		for i := 0; i < 1000; i++ {
			if snap, ok := s.Latest(); ok {
				assert.GreaterOrEqual(t, snap.Seq, last)
				last = snap.Seq
			}
		}
	}()

	wg.Wait()
	<-done

	snap, ok := s.Latest()
	require.True(t, ok)
	assert.Equal(t, uint64(200), snap.Seq)
}

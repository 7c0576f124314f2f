package world

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecayTrackerTick(t *testing.T) {
	tr := NewDecayTracker()

	short := &Object{ID: 1, DecayTicks: 3}
	long := &Object{ID: 2, DecayTicks: 10}
	tr.Track(short)
	tr.Track(long)
	require.Equal(t, 2, tr.Count())

	require.Empty(t, tr.Tick(2))
	require.Equal(t, 1, short.DecayTicks)

	expired := tr.Tick(2)
	require.Len(t, expired, 1)
	require.Same(t, short, expired[0])
	require.False(t, tr.Tracked(1), "expired objects are untracked")
	require.True(t, tr.Tracked(2))
	require.Equal(t, 6, long.DecayTicks)
}

func TestDecayTrackerIgnoresNonDecaying(t *testing.T) {
	tr := NewDecayTracker()

	tr.Track(nil)
	tr.Track(&Object{ID: 1, DecayTicks: 0})
	require.Equal(t, 0, tr.Count())

	require.Empty(t, tr.Tick(0), "zero elapsed is a no-op")
}

func TestDecayTrackerUntrack(t *testing.T) {
	tr := NewDecayTracker()

	o := &Object{ID: 1, DecayTicks: 5}
	tr.Track(o)
	tr.Untrack(1)
	tr.Untrack(99) // unknown IDs are fine
	require.Empty(t, tr.Tick(10))
}

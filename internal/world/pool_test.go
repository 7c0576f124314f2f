package world

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func pooledObject(id, tpl int32) *Object {
	return &Object{ID: id, TemplateID: tpl, Pool: &PoolTracker{TemplateID: tpl}}
}

func TestPoolReleaseAcquireLIFO(t *testing.T) {
	r := NewPoolRegistry(8)

	a := pooledObject(1, 7)
	b := pooledObject(2, 7)
	require.True(t, r.TryRelease(a))
	require.True(t, r.TryRelease(b))
	require.Equal(t, 2, r.Size(7))

	// Most recently released comes out first.
	require.Same(t, b, r.TryAcquireOrCreate(7))
	require.Same(t, a, r.TryAcquireOrCreate(7))
	require.Nil(t, r.TryAcquireOrCreate(7))
}

func TestPoolReleaseRefusals(t *testing.T) {
	r := NewPoolRegistry(8)

	require.False(t, r.TryRelease(nil))
	require.False(t, r.TryRelease(&Object{ID: 1}), "no pool tracker")
	require.False(t, r.TryRelease(&Object{ID: 2, Active: true, Pool: &PoolTracker{TemplateID: 7}}))
	require.False(t, r.TryRelease(&Object{
		ID:   3,
		Pool: &PoolTracker{TemplateID: 7},
		Slot: &ContainerSlot{ContainerID: 9},
	}), "held objects never pool")

	o := pooledObject(4, 7)
	require.True(t, r.TryRelease(o))
	require.False(t, r.TryRelease(o), "double release refused")
	require.Equal(t, 1, r.Size(7))
}

func TestPoolCapacity(t *testing.T) {
	r := NewPoolRegistry(2)

	require.True(t, r.TryRelease(pooledObject(1, 7)))
	require.True(t, r.TryRelease(pooledObject(2, 7)))
	require.False(t, r.TryRelease(pooledObject(3, 7)), "at capacity")

	// Another template has its own stack.
	require.True(t, r.TryRelease(pooledObject(4, 8)))
	require.Equal(t, 3, r.TotalSize())
}

type fixedPolicy struct {
	cap  int
	veto bool
}

func (p fixedPolicy) Capacity(int32) int            { return p.cap }
func (p fixedPolicy) CanPool(*Object, int) bool     { return !p.veto }

func TestPoolPolicyOverridesCapacity(t *testing.T) {
	r := NewPoolRegistry(8)
	r.SetPolicy(fixedPolicy{cap: 1})

	require.True(t, r.TryRelease(pooledObject(1, 7)))
	require.False(t, r.TryRelease(pooledObject(2, 7)))

	// Capacity <= 0 falls back to the registry default.
	r.SetPolicy(fixedPolicy{cap: 0})
	require.True(t, r.TryRelease(pooledObject(3, 7)))
}

func TestPoolPolicyVeto(t *testing.T) {
	r := NewPoolRegistry(8)
	r.SetPolicy(fixedPolicy{cap: 8, veto: true})

	o := pooledObject(1, 7)
	require.False(t, r.TryRelease(o))
	require.False(t, o.Pool.Pooled, "vetoed object left untouched")
	require.Equal(t, uint32(0), o.Gen)
}

func TestPoolReleaseBumpsGeneration(t *testing.T) {
	r := NewPoolRegistry(8)

	o := pooledObject(1, 7)
	require.True(t, r.TryRelease(o))
	require.Equal(t, uint32(1), o.Gen)
	require.True(t, o.Pool.Pooled)
	require.True(t, r.Contains(o))

	got := r.TryAcquireOrCreate(7)
	require.Same(t, o, got)
	require.False(t, got.Pool.Pooled)
	require.False(t, r.Contains(got))

	require.True(t, r.TryRelease(got))
	require.Equal(t, uint32(2), got.Gen, "every release bumps")
}

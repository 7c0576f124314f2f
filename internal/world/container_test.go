package world

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestContainerPutAndRemove(t *testing.T) {
	c := NewContainer(100, 2)

	a := &Object{ID: 1}
	b := &Object{ID: 2}
	require.True(t, c.Put(a))
	require.True(t, c.Put(b))
	require.Equal(t, 2, c.Count())
	require.True(t, c.IsFull())

	require.Equal(t, int32(100), a.Slot.ContainerID)
	require.Equal(t, 0, a.Slot.Index)
	require.Equal(t, 1, b.Slot.Index)

	require.False(t, c.Put(&Object{ID: 3}), "full container refuses")

	require.True(t, c.Remove(a))
	require.Nil(t, a.Slot)
	require.Equal(t, 0, b.Slot.Index, "remaining slots reindex")
	require.Same(t, b, c.Get(0))
}

func TestContainerPutRefusals(t *testing.T) {
	c := NewContainer(100, 4)

	require.False(t, c.Put(nil))
	require.False(t, c.Put(&Object{ID: 1, Active: true}), "active objects cannot be stored")

	held := &Object{ID: 2, Slot: &ContainerSlot{ContainerID: 999}}
	require.False(t, c.Put(held), "already held elsewhere")
}

func TestContainerRemoveForeignObject(t *testing.T) {
	c := NewContainer(100, 4)
	other := NewContainer(200, 4)

	o := &Object{ID: 1}
	require.True(t, other.Put(o))
	require.False(t, c.Remove(o), "not held by this container")
	require.NotNil(t, o.Slot)
}

func TestContainerContentsIsACopy(t *testing.T) {
	c := NewContainer(100, 0)
	require.True(t, c.Put(&Object{ID: 1}))

	snapshot := c.Contents()
	require.Len(t, snapshot, 1)
	require.True(t, c.Remove(snapshot[0]))
	require.Len(t, snapshot, 1, "snapshot unaffected by later removal")
	require.Equal(t, 0, c.Count())
}

func TestContainerUnbounded(t *testing.T) {
	c := NewContainer(100, 0)
	for i := int32(1); i <= 50; i++ {
		require.True(t, c.Put(&Object{ID: i}))
	}
	require.False(t, c.IsFull())
	require.Equal(t, 50, c.Count())
}

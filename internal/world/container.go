package world

// Container holds objects in ordered slots. Held objects are out of
// active play (inactive, invisible) until removed and re-placed. The
// container has final authority over removal of its contents: despawns
// of a held object are delegated here first.
type Container struct {
	OwnerID  int32 // ID of the object this container belongs to
	MaxSlots int   // 0 = unbounded
	items    []*Object
}

func NewContainer(ownerID int32, maxSlots int) *Container {
	return &Container{
		OwnerID:  ownerID,
		MaxSlots: maxSlots,
		items:    make([]*Object, 0, 8),
	}
}

// Put stores an object in the next free slot. Returns false when the
// container is full, the object is still active, or it is already held
// somewhere.
func (c *Container) Put(o *Object) bool {
	if o == nil || o.Active || o.Slot != nil {
		return false
	}
	if c.IsFull() {
		return false
	}
	o.Slot = &ContainerSlot{ContainerID: c.OwnerID, Index: len(c.items)}
	c.items = append(c.items, o)
	return true
}

// Remove releases an object from its slot. Returns false when the
// object is not held by this container. The object stays inactive; the
// caller decides whether it re-enters the world or despawns.
func (c *Container) Remove(o *Object) bool {
	if o == nil || o.Slot == nil || o.Slot.ContainerID != c.OwnerID {
		return false
	}
	idx := o.Slot.Index
	if idx < 0 || idx >= len(c.items) || c.items[idx] != o {
		// Slot index drifted; fall back to a scan.
		idx = -1
		for i, held := range c.items {
			if held == o {
				idx = i
				break
			}
		}
		if idx < 0 {
			return false
		}
	}
	c.items = append(c.items[:idx], c.items[idx+1:]...)
	for i := idx; i < len(c.items); i++ {
		c.items[i].Slot.Index = i
	}
	o.Slot = nil
	return true
}

// Contents returns the held objects in slot order. The slice is a copy.
func (c *Container) Contents() []*Object {
	out := make([]*Object, len(c.items))
	copy(out, c.items)
	return out
}

// Count returns the number of held objects.
func (c *Container) Count() int {
	return len(c.items)
}

// IsFull reports whether another object fits.
func (c *Container) IsFull() bool {
	return c.MaxSlots > 0 && len(c.items) >= c.MaxSlots
}

// Get returns the object in a slot, or nil.
func (c *Container) Get(index int) *Object {
	if index < 0 || index >= len(c.items) {
		return nil
	}
	return c.items[index]
}

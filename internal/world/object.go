package world

import "sync/atomic"

// Object ID counters. Each category gets its own range so an ID's origin
// is readable in logs and collisions across categories are impossible.
// Fixtures/devices/mobs allocate from 500M, debris from 700M.
var (
	objectIDCounter atomic.Int32
	debrisIDCounter atomic.Int32
)

func init() {
	objectIDCounter.Store(500_000_000)
	debrisIDCounter.Store(700_000_000)
}

// NextObjectID returns a unique ID for a regular world object.
func NextObjectID() int32 {
	return objectIDCounter.Add(1)
}

// NextDebrisID returns a unique ID for a decaying debris object.
func NextDebrisID() int32 {
	return debrisIDCounter.Add(1)
}

// Object is one game object: identity, template identity, position, and
// the capability set the despawn decision chain inspects. Mutated only
// from the game loop goroutine.
type Object struct {
	ID         int32
	Gen        uint32 // bumped on every pool release; stale-handle guard
	TemplateID int32
	Name       string
	GfxID      int32

	X    int32
	Y    int32
	Deck int16

	Active  bool // present in the world registry
	Visible bool // consulted by spatial queries; cleared before removal

	// Despawned is set when the object leaves active play through the
	// despawn coordinator (pooled or destroyed) and cleared on spawn.
	// It distinguishes "gone" from "held in a container", which also
	// clears Active but keeps the object despawnable.
	Despawned bool

	// Capability set. A nil field means the object does not carry that
	// capability; the despawn chain branches on presence, not on type
	// switches.
	Slot *ContainerSlot
	Pool *PoolTracker
	Push *PushableTransform
	Gate *DeviceGate

	// Container-side state when this object can hold others.
	Contents *Container

	DecayTicks int // >0: remaining ticks until the decay system despawns it
}

// ContainerSlot marks an object as held inside an owning container.
// While set, the container has final authority over the object's removal.
type ContainerSlot struct {
	ContainerID int32
	Index       int
}

// PoolTracker marks an object as pool-eligible and records which pool
// key it returns to. Presence of this capability is what routes a
// despawn to the reuse pool instead of destruction.
type PoolTracker struct {
	TemplateID int32
	Pooled     bool // currently sitting in the pool
}

// PushableTransform marks an object as occupying a tile. Its visibility
// flag is cleared before network removal so same-tick spatial queries
// never see a half-removed object.
type PushableTransform struct {
	Occupies bool
}

// PoolEligible reports whether the object carries a pool tracker.
func (o *Object) PoolEligible() bool {
	return o.Pool != nil
}

// Contained reports whether the object is currently held by a container.
func (o *Object) Contained() bool {
	return o.Slot != nil
}

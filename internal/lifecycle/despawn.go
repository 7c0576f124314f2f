package lifecycle

import (
	"errors"

	"go.uber.org/zap"

	"github.com/Drabants/unitystation/internal/core/event"
	"github.com/Drabants/unitystation/internal/world"
)

// DespawnOutcome is the disposition a despawn request resolved to.
type DespawnOutcome int

const (
	OutcomeFailed    DespawnOutcome = iota // no state changed
	OutcomeDelegated                       // owning container handled the removal
	OutcomePooled                          // unspawned and parked in the reuse pool
	OutcomeDestroyed                       // removed permanently
)

func (o DespawnOutcome) String() string {
	switch o {
	case OutcomeFailed:
		return "Failed"
	case OutcomeDelegated:
		return "Delegated"
	case OutcomePooled:
		return "Pooled"
	case OutcomeDestroyed:
		return "Destroyed"
	default:
		return "Unknown"
	}
}

// Failure taxonomy. Only these reach callers; authorization denial and
// pool rejection resolve internally to alternate successful outcomes.
var (
	ErrNullRequest      = errors.New("despawn: no target object")
	ErrNotActive        = errors.New("despawn: object already out of active play")
	ErrInProgress       = errors.New("despawn: object is mid-removal")
	ErrDelegationFailed = errors.New("despawn: owning container refused removal")
)

// Despawn causes, recorded in hook info, events, and the audit trail.
const (
	CauseCommand   = "command"
	CauseDecay     = "decay"
	CauseContained = "contained"
	CauseContents  = "contents"
	CauseScript    = "script"
	CauseShutdown  = "shutdown"
)

// DespawnRequest asks the coordinator to remove one object from active
// play. SkipOwnerDelegation bypasses the owning-container check; it is
// set by callers that already hold removal authority, such as the
// container subsystem itself.
type DespawnRequest struct {
	Object              *world.Object
	SkipOwnerDelegation bool
	Cause               string
}

// Replicator pushes lifecycle transitions to every connected follower.
// PutObject announces an object, UnspawnObject hides it while the server
// keeps its copy (followers pool), DestroyObject removes it everywhere.
// All three are fire-and-forget from the coordinator's point of view.
type Replicator interface {
	PutObject(o *world.Object)
	UnspawnObject(id int32)
	DestroyObject(id int32)
}

// ContainerAuthority owns removal of contained objects. The coordinator
// delegates rather than reaching into the container itself, so a single
// subsystem decides for held objects and double-removal races cannot
// happen.
type ContainerAuthority interface {
	TryDespawnContained(o *world.Object) bool
}

// Coordinator is the authoritative despawn decision engine. It runs an
// ordered guard chain and commits exactly one disposition per request.
// Game loop goroutine only.
type Coordinator struct {
	world *world.State
	pool  *world.PoolRegistry
	hooks *HookRegistry
	repl  Replicator
	bus   *event.Bus
	log   *zap.Logger

	owner ContainerAuthority

	// inFlight guards hook re-entrancy: a hook asking to despawn the
	// object it is being fired for gets Failed instead of recursing.
	inFlight map[int32]struct{}
}

func NewCoordinator(ws *world.State, pool *world.PoolRegistry, hooks *HookRegistry, repl Replicator, bus *event.Bus, log *zap.Logger) *Coordinator {
	c := &Coordinator{
		world:    ws,
		pool:     pool,
		hooks:    hooks,
		repl:     repl,
		bus:      bus,
		log:      log,
		inFlight: make(map[int32]struct{}),
	}
	c.owner = &inventoryAuthority{world: ws, coord: c}
	return c
}

// SetContainerAuthority overrides the default owning-container handler.
func (c *Coordinator) SetContainerAuthority(a ContainerAuthority) {
	c.owner = a
}

// DespawnAuthoritative decides and applies how the object leaves active
// play. The guard chain runs in a fixed order; every step may terminate
// the procedure:
//
//  1. nil check — the sole request validation
//  2. owner delegation (unless SkipOwnerDelegation)
//  3. destroy-authorization gate — denied devices self-destruct
//  4. hooks, exactly once, before any visibility change
//  5. visibility suppression for pushables
//  6. disposition: pool when eligible and accepted, destroy otherwise
//
// The returned error is non-nil exactly when the outcome is
// OutcomeFailed, and a failed despawn has changed nothing.
func (c *Coordinator) DespawnAuthoritative(req DespawnRequest) (DespawnOutcome, error) {
	if req.Object == nil {
		return OutcomeFailed, ErrNullRequest
	}
	o := req.Object

	if _, busy := c.inFlight[o.ID]; busy {
		return OutcomeFailed, ErrInProgress
	}
	if o.Despawned {
		// Second despawn of a pooled or destroyed object: refuse
		// rather than double-firing hooks or double-inserting.
		return OutcomeFailed, ErrNotActive
	}

	if !req.SkipOwnerDelegation && o.Contained() {
		if c.owner == nil || !c.owner.TryDespawnContained(o) {
			return OutcomeFailed, ErrDelegationFailed
		}
		return OutcomeDelegated, nil
	}

	if o.Gate != nil && !o.Gate.IsAuthorizedToDestroy() {
		c.selfDestruct(o, req.Cause)
		return OutcomeDestroyed, nil
	}

	return c.dispose(o, req.Cause), nil
}

// dispose runs steps 4-6: hooks, visibility, then pool-or-destroy.
func (c *Coordinator) dispose(o *world.Object, cause string) DespawnOutcome {
	c.inFlight[o.ID] = struct{}{}
	defer delete(c.inFlight, o.ID)

	c.hooks.FireDespawnHooks(o, HookInfo{Cause: cause})

	// Clear visibility before any removal goes on the wire so spatial
	// queries issued later this tick cannot see a half-removed object.
	if o.Push != nil {
		o.Visible = false
	}

	if o.PoolEligible() {
		c.world.RemoveObject(o.ID)
		if c.pool.TryRelease(o) {
			o.Despawned = true
			c.repl.UnspawnObject(o.ID)
			c.emitDespawned(o, "pooled", cause)
			return OutcomePooled
		}
		// Pool rejected: fall through to destruction. Not a failure.
		o.Despawned = true
		c.repl.DestroyObject(o.ID)
		c.emitDespawned(o, "destroyed", cause)
		return OutcomeDestroyed
	}

	c.world.RemoveObject(o.ID)
	o.Despawned = true
	c.repl.DestroyObject(o.ID)
	c.emitDespawned(o, "destroyed", cause)
	return OutcomeDestroyed
}

// selfDestruct tears down a device that refused generic destruction:
// the power cell is ejected onto the device's tile, linked peers are
// detached, then the device is removed permanently. Generic hooks do
// not fire on this path; the device's own teardown replaces them.
func (c *Coordinator) selfDestruct(o *world.Object, cause string) {
	gate := o.Gate

	var cellID int32
	if cell := gate.EjectCell(); cell != nil {
		cellID = cell.ID
		cell.X, cell.Y, cell.Deck = o.X, o.Y, o.Deck
		cell.Despawned = false
		c.world.AddObject(cell)
		c.repl.PutObject(cell)
	}

	for _, peerID := range gate.LinkedIDs {
		if peer := c.world.Get(peerID); peer != nil && peer.Gate != nil {
			peer.Gate.Unlink(o.ID)
		}
	}
	gate.LinkedIDs = nil

	if o.Push != nil {
		o.Visible = false
	}
	c.world.RemoveObject(o.ID)
	o.Despawned = true
	c.repl.DestroyObject(o.ID)

	event.Emit(c.bus, event.DeviceSelfDestructed{ObjectID: o.ID, CellObjectID: cellID})
	c.emitDespawned(o, "destroyed", cause)

	c.log.Info("device self-destructed",
		zap.Int32("object", o.ID),
		zap.Int32("cell", cellID),
		zap.String("cause", cause),
	)
}

func (c *Coordinator) emitDespawned(o *world.Object, disposition, cause string) {
	event.Emit(c.bus, event.ObjectDespawned{
		ObjectID:    o.ID,
		TemplateID:  o.TemplateID,
		Disposition: disposition,
		Cause:       cause,
	})
}

// inventoryAuthority is the default ContainerAuthority: it resolves the
// holding container through the world registry, releases the slot, and
// routes the removal back through the coordinator with delegation
// skipped. Hooks therefore fire on the inner call, once.
type inventoryAuthority struct {
	world *world.State
	coord *Coordinator
}

func (a *inventoryAuthority) TryDespawnContained(o *world.Object) bool {
	holder := a.world.Get(o.Slot.ContainerID)
	if holder == nil || holder.Contents == nil {
		return false
	}
	if !holder.Contents.Remove(o) {
		return false
	}
	outcome, err := a.coord.DespawnAuthoritative(DespawnRequest{
		Object:              o,
		SkipOwnerDelegation: true,
		Cause:               CauseContained,
	})
	if err != nil {
		// Removal did not happen; put the object back so the failed
		// despawn leaves no partial effects.
		holder.Contents.Put(o)
		return false
	}
	return outcome == OutcomePooled || outcome == OutcomeDestroyed
}

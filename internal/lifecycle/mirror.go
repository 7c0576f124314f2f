package lifecycle

import (
	"go.uber.org/zap"

	"github.com/Drabants/unitystation/internal/world"
)

// Mirror enacts already-decided dispositions on a follower's local copy
// of the world. It runs the disposition step only, against the same
// pool abstraction the authority uses; delegation, authorization gates,
// and hooks are server decisions already baked into the replicated
// event and are never re-run here.
type Mirror struct {
	world *world.State
	pool  *world.PoolRegistry
	log   *zap.Logger
}

func NewMirror(ws *world.State, pool *world.PoolRegistry, log *zap.Logger) *Mirror {
	return &Mirror{world: ws, pool: pool, log: log}
}

// PutInfo is the local image of a replicated object announcement.
type PutInfo struct {
	ObjectID     int32
	TemplateID   int32
	Name         string
	GfxID        int32
	X, Y         int32
	Deck         int16
	Pushable     bool
	PoolEligible bool
}

// ApplyFollowerPut realizes an announced object locally, reusing a
// pooled local instance when one exists. Pool order is LIFO on both
// sides, so a reused instance normally already carries the announced
// ID; the server ID wins either way.
func (m *Mirror) ApplyFollowerPut(p PutInfo) *world.Object {
	o := m.pool.TryAcquireOrCreate(p.TemplateID)
	if o == nil {
		o = &world.Object{ID: p.ObjectID, TemplateID: p.TemplateID}
		if p.PoolEligible {
			o.Pool = &world.PoolTracker{TemplateID: p.TemplateID}
		}
	} else if o.ID != p.ObjectID {
		m.log.Debug("pooled instance id differs from announcement",
			zap.Int32("local", o.ID),
			zap.Int32("announced", p.ObjectID),
		)
	}

	o.ID = p.ObjectID
	o.Name = p.Name
	o.GfxID = p.GfxID
	o.X, o.Y, o.Deck = p.X, p.Y, p.Deck
	if p.Pushable {
		o.Push = &world.PushableTransform{Occupies: true}
	} else {
		o.Push = nil
	}
	o.Despawned = false

	m.world.AddObject(o)
	return o
}

// ApplyFollowerDespawn applies the replicated removal of one object.
// pooled carries the server's disposition signal. A local pool
// rejection falls back to local destruction, identical to the
// authoritative fallback, so visual state cannot diverge.
func (m *Mirror) ApplyFollowerDespawn(o *world.Object, pooled bool) DespawnOutcome {
	if o == nil {
		return OutcomeFailed
	}
	if o.Push != nil {
		o.Visible = false
	}
	m.world.RemoveObject(o.ID)

	if pooled && m.pool.TryRelease(o) {
		o.Despawned = true
		return OutcomePooled
	}
	o.Despawned = true
	return OutcomeDestroyed
}

// ApplyRemove resolves the object by ID and applies the removal.
// Unknown IDs return OutcomeFailed; the object was never announced or
// is already gone, and nothing changes.
func (m *Mirror) ApplyRemove(id int32, pooled bool) DespawnOutcome {
	o := m.world.Get(id)
	if o == nil {
		return OutcomeFailed
	}
	return m.ApplyFollowerDespawn(o, pooled)
}

package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Drabants/unitystation/internal/core/event"
	"github.com/Drabants/unitystation/internal/world"
)

// recordingRepl captures replication calls in order.
type recordingRepl struct {
	puts     []int32
	unspawns []int32
	destroys []int32
}

func (r *recordingRepl) PutObject(o *world.Object) { r.puts = append(r.puts, o.ID) }
func (r *recordingRepl) UnspawnObject(id int32)    { r.unspawns = append(r.unspawns, id) }
func (r *recordingRepl) DestroyObject(id int32)    { r.destroys = append(r.destroys, id) }

type despawnEnv struct {
	coord *Coordinator
	world *world.State
	pool  *world.PoolRegistry
	hooks *HookRegistry
	repl  *recordingRepl
	bus   *event.Bus
}

func newDespawnEnv() *despawnEnv {
	ws := world.NewState(20)
	pool := world.NewPoolRegistry(8)
	hooks := NewHookRegistry(zap.NewNop())
	repl := &recordingRepl{}
	bus := event.NewBus()
	return &despawnEnv{
		coord: NewCoordinator(ws, pool, hooks, repl, bus, zap.NewNop()),
		world: ws,
		pool:  pool,
		hooks: hooks,
		repl:  repl,
		bus:   bus,
	}
}

func (e *despawnEnv) despawnedEvents() []event.ObjectDespawned {
	var got []event.ObjectDespawned
	event.Subscribe(e.bus, func(ev event.ObjectDespawned) { got = append(got, ev) })
	e.bus.SwapBuffers()
	e.bus.DispatchAll()
	return got
}

func TestDespawnNilRequest(t *testing.T) {
	env := newDespawnEnv()

	outcome, err := env.coord.DespawnAuthoritative(DespawnRequest{})
	require.ErrorIs(t, err, ErrNullRequest)
	require.Equal(t, OutcomeFailed, outcome)
}

func TestDespawnPlainObjectDestroyed(t *testing.T) {
	env := newDespawnEnv()
	o := &world.Object{ID: 100, TemplateID: 7}
	env.world.AddObject(o)

	outcome, err := env.coord.DespawnAuthoritative(DespawnRequest{Object: o, Cause: CauseCommand})
	require.NoError(t, err)
	require.Equal(t, OutcomeDestroyed, outcome)

	require.Nil(t, env.world.Get(100))
	require.True(t, o.Despawned)
	require.False(t, o.Active)
	require.Equal(t, []int32{100}, env.repl.destroys)
	require.Empty(t, env.repl.unspawns)

	events := env.despawnedEvents()
	require.Len(t, events, 1)
	require.Equal(t, "destroyed", events[0].Disposition)
	require.Equal(t, CauseCommand, events[0].Cause)
}

func TestDespawnPoolEligiblePooled(t *testing.T) {
	env := newDespawnEnv()
	o := &world.Object{ID: 101, TemplateID: 7, Pool: &world.PoolTracker{TemplateID: 7}}
	env.world.AddObject(o)

	outcome, err := env.coord.DespawnAuthoritative(DespawnRequest{Object: o, Cause: CauseCommand})
	require.NoError(t, err)
	require.Equal(t, OutcomePooled, outcome)

	require.Nil(t, env.world.Get(101))
	require.True(t, o.Despawned)
	require.True(t, env.pool.Contains(o))
	require.Equal(t, uint32(1), o.Gen, "pool release bumps the generation")
	require.Equal(t, []int32{101}, env.repl.unspawns, "pooled disposition replicates as unspawn")
	require.Empty(t, env.repl.destroys)

	events := env.despawnedEvents()
	require.Len(t, events, 1)
	require.Equal(t, "pooled", events[0].Disposition)
}

func TestDespawnPoolFullFallsBackToDestroy(t *testing.T) {
	env := newDespawnEnv()
	env.pool.SetPolicy(capPolicy{cap: 1})

	first := &world.Object{ID: 102, TemplateID: 7, Pool: &world.PoolTracker{TemplateID: 7}}
	second := &world.Object{ID: 103, TemplateID: 7, Pool: &world.PoolTracker{TemplateID: 7}}
	env.world.AddObject(first)
	env.world.AddObject(second)

	outcome, err := env.coord.DespawnAuthoritative(DespawnRequest{Object: first})
	require.NoError(t, err)
	require.Equal(t, OutcomePooled, outcome)

	// Capacity reached: the second despawn still succeeds, but destroys.
	outcome, err = env.coord.DespawnAuthoritative(DespawnRequest{Object: second})
	require.NoError(t, err)
	require.Equal(t, OutcomeDestroyed, outcome)
	require.True(t, second.Despawned)
	require.False(t, env.pool.Contains(second))
	require.Equal(t, []int32{103}, env.repl.destroys)
}

func TestDespawnPolicyVetoFallsBackToDestroy(t *testing.T) {
	env := newDespawnEnv()
	env.pool.SetPolicy(vetoPolicy{})

	o := &world.Object{ID: 104, TemplateID: 7, Pool: &world.PoolTracker{TemplateID: 7}}
	env.world.AddObject(o)

	outcome, err := env.coord.DespawnAuthoritative(DespawnRequest{Object: o})
	require.NoError(t, err)
	require.Equal(t, OutcomeDestroyed, outcome)
	require.Equal(t, 0, env.pool.TotalSize())
}

func TestRedespawnRefused(t *testing.T) {
	env := newDespawnEnv()
	o := &world.Object{ID: 105, TemplateID: 7, Pool: &world.PoolTracker{TemplateID: 7}}
	env.world.AddObject(o)

	_, err := env.coord.DespawnAuthoritative(DespawnRequest{Object: o})
	require.NoError(t, err)

	outcome, err := env.coord.DespawnAuthoritative(DespawnRequest{Object: o})
	require.ErrorIs(t, err, ErrNotActive)
	require.Equal(t, OutcomeFailed, outcome)
	require.True(t, env.pool.Contains(o), "failed re-despawn leaves the pooled instance alone")
}

func TestContainedObjectDelegates(t *testing.T) {
	env := newDespawnEnv()

	holder := &world.Object{ID: 200, TemplateID: 20}
	holder.Contents = world.NewContainer(holder.ID, 4)
	env.world.AddObject(holder)

	held := &world.Object{ID: 201, TemplateID: 7}
	require.True(t, holder.Contents.Put(held))

	outcome, err := env.coord.DespawnAuthoritative(DespawnRequest{Object: held, Cause: CauseCommand})
	require.NoError(t, err)
	require.Equal(t, OutcomeDelegated, outcome)

	require.Equal(t, 0, holder.Contents.Count(), "delegation released the slot")
	require.Nil(t, held.Slot)
	require.True(t, held.Despawned, "inner removal ran to completion")
	require.Equal(t, []int32{201}, env.repl.destroys)
}

func TestContainedPoolEligibleStillDelegates(t *testing.T) {
	env := newDespawnEnv()

	holder := &world.Object{ID: 205, TemplateID: 20}
	holder.Contents = world.NewContainer(holder.ID, 4)
	env.world.AddObject(holder)

	held := &world.Object{ID: 206, TemplateID: 7, Pool: &world.PoolTracker{TemplateID: 7}}
	require.True(t, holder.Contents.Put(held))

	// Pool eligibility never short-circuits the owner check: the outer
	// outcome is Delegated, and the disposition belongs to the delegate.
	outcome, err := env.coord.DespawnAuthoritative(DespawnRequest{Object: held})
	require.NoError(t, err)
	require.Equal(t, OutcomeDelegated, outcome)
	require.True(t, held.Despawned)
	require.True(t, env.pool.Contains(held), "the inner removal pooled it")
}

func TestContentsCascadeHook(t *testing.T) {
	env := newDespawnEnv()

	// The boot wiring registers a hook that despawns a container's
	// contents through the coordinator; this replays that wiring.
	env.hooks.RegisterHook("cascade_contents", func(o *world.Object, _ HookInfo) error {
		if o.Contents == nil {
			return nil
		}
		for _, child := range o.Contents.Contents() {
			if _, err := env.coord.DespawnAuthoritative(DespawnRequest{
				Object: child,
				Cause:  CauseContents,
			}); err != nil {
				return err
			}
		}
		return nil
	})

	crate := &world.Object{ID: 240, TemplateID: 20}
	crate.Contents = world.NewContainer(crate.ID, 4)
	env.world.AddObject(crate)

	childA := &world.Object{ID: 241, TemplateID: 7, Pool: &world.PoolTracker{TemplateID: 7}}
	childB := &world.Object{ID: 242, TemplateID: 7}
	require.True(t, crate.Contents.Put(childA))
	require.True(t, crate.Contents.Put(childB))

	outcome, err := env.coord.DespawnAuthoritative(DespawnRequest{Object: crate, Cause: CauseCommand})
	require.NoError(t, err)
	require.Equal(t, OutcomeDestroyed, outcome)

	require.True(t, childA.Despawned, "contents go down with the parent")
	require.True(t, childB.Despawned)
	require.True(t, env.pool.Contains(childA), "pool-eligible child pooled")
	require.False(t, env.pool.Contains(childB))
	require.Equal(t, 0, crate.Contents.Count())
}

func TestDelegationPrecedesGate(t *testing.T) {
	env := newDespawnEnv()

	holder := &world.Object{ID: 210, TemplateID: 20}
	holder.Contents = world.NewContainer(holder.ID, 4)
	env.world.AddObject(holder)

	// Held AND gated: the owner check must win, and the inner call then
	// routes the powered device through self-destruct.
	device := &world.Object{ID: 211, TemplateID: 30, Gate: &world.DeviceGate{Powered: true}}
	require.True(t, holder.Contents.Put(device))

	outcome, err := env.coord.DespawnAuthoritative(DespawnRequest{Object: device})
	require.NoError(t, err)
	require.Equal(t, OutcomeDelegated, outcome)
	require.True(t, device.Despawned)
}

func TestDelegationFailedWhenHolderGone(t *testing.T) {
	env := newDespawnEnv()

	held := &world.Object{ID: 220, TemplateID: 7, Slot: &world.ContainerSlot{ContainerID: 9999}}

	outcome, err := env.coord.DespawnAuthoritative(DespawnRequest{Object: held})
	require.ErrorIs(t, err, ErrDelegationFailed)
	require.Equal(t, OutcomeFailed, outcome)
	require.False(t, held.Despawned, "failed despawn changes nothing")
	require.Empty(t, env.repl.destroys)
}

func TestSkipOwnerDelegationBypassesContainerCheck(t *testing.T) {
	env := newDespawnEnv()

	held := &world.Object{ID: 230, TemplateID: 7, Slot: &world.ContainerSlot{ContainerID: 9999}}

	outcome, err := env.coord.DespawnAuthoritative(DespawnRequest{
		Object:              held,
		SkipOwnerDelegation: true,
	})
	require.NoError(t, err)
	require.Equal(t, OutcomeDestroyed, outcome)
	require.True(t, held.Despawned)
}

func TestSelfDestructEjectsCellAndUnlinksPeers(t *testing.T) {
	env := newDespawnEnv()

	peer := &world.Object{ID: 301, TemplateID: 30, Gate: &world.DeviceGate{Powered: true, LinkedIDs: []int32{300}}}
	env.world.AddObject(peer)

	cell := &world.Object{ID: 302, TemplateID: 31}
	device := &world.Object{
		ID: 300, TemplateID: 30, X: 10, Y: 12, Deck: 1,
		Gate: &world.DeviceGate{Powered: true, Cell: cell, LinkedIDs: []int32{301}},
	}
	env.world.AddObject(device)

	hookFired := 0
	env.hooks.RegisterHook("count", func(_ *world.Object, _ HookInfo) error {
		hookFired++
		return nil
	})

	var destructed []event.DeviceSelfDestructed
	event.Subscribe(env.bus, func(ev event.DeviceSelfDestructed) { destructed = append(destructed, ev) })

	outcome, err := env.coord.DespawnAuthoritative(DespawnRequest{Object: device, Cause: CauseCommand})
	require.NoError(t, err)
	require.Equal(t, OutcomeDestroyed, outcome)
	require.True(t, device.Despawned)
	require.Nil(t, env.world.Get(300))

	// Cell landed on the device's tile and got announced.
	require.NotNil(t, env.world.Get(302))
	require.Equal(t, int32(10), cell.X)
	require.Equal(t, int32(12), cell.Y)
	require.Contains(t, env.repl.puts, int32(302))

	// Peer no longer links back.
	require.Empty(t, peer.Gate.LinkedIDs)

	// Generic hooks are replaced by the device teardown on this path.
	require.Equal(t, 0, hookFired)

	env.bus.SwapBuffers()
	env.bus.DispatchAll()
	require.Len(t, destructed, 1)
	require.Equal(t, int32(300), destructed[0].ObjectID)
	require.Equal(t, int32(302), destructed[0].CellObjectID)
}

func TestAuthorizedDeviceTakesGenericPath(t *testing.T) {
	env := newDespawnEnv()

	device := &world.Object{
		ID: 310, TemplateID: 30,
		Gate: &world.DeviceGate{Powered: false, PanelOpen: true},
	}
	env.world.AddObject(device)

	hookFired := 0
	env.hooks.RegisterHook("count", func(_ *world.Object, _ HookInfo) error {
		hookFired++
		return nil
	})

	outcome, err := env.coord.DespawnAuthoritative(DespawnRequest{Object: device})
	require.NoError(t, err)
	require.Equal(t, OutcomeDestroyed, outcome)
	require.Equal(t, 1, hookFired, "authorized devices despawn through the hook path")
}

func TestHooksFireOnceBeforeVisibilityClear(t *testing.T) {
	env := newDespawnEnv()

	o := &world.Object{
		ID: 400, TemplateID: 7,
		Pool: &world.PoolTracker{TemplateID: 7},
		Push: &world.PushableTransform{Occupies: true},
	}
	env.world.AddObject(o)

	fired := 0
	visibleAtHookTime := false
	env.hooks.RegisterHook("probe", func(obj *world.Object, _ HookInfo) error {
		fired++
		visibleAtHookTime = obj.Visible
		return nil
	})

	outcome, err := env.coord.DespawnAuthoritative(DespawnRequest{Object: o})
	require.NoError(t, err)
	require.Equal(t, OutcomePooled, outcome)
	require.Equal(t, 1, fired)
	require.True(t, visibleAtHookTime, "hooks run before the visibility change")
	require.False(t, o.Visible)
}

func TestHookReentrancyRefused(t *testing.T) {
	env := newDespawnEnv()

	o := &world.Object{ID: 410, TemplateID: 7}
	env.world.AddObject(o)

	var reentryErr error
	env.hooks.RegisterHook("reenter", func(obj *world.Object, _ HookInfo) error {
		_, reentryErr = env.coord.DespawnAuthoritative(DespawnRequest{Object: obj})
		return nil
	})

	outcome, err := env.coord.DespawnAuthoritative(DespawnRequest{Object: o})
	require.NoError(t, err)
	require.Equal(t, OutcomeDestroyed, outcome)
	require.ErrorIs(t, reentryErr, ErrInProgress)
	require.Equal(t, []int32{410}, env.repl.destroys, "removal committed exactly once")
}

func TestHookErrorDoesNotFailDespawn(t *testing.T) {
	env := newDespawnEnv()

	o := &world.Object{ID: 420, TemplateID: 7}
	env.world.AddObject(o)

	env.hooks.RegisterHook("broken", func(_ *world.Object, _ HookInfo) error {
		return ErrNullRequest // any error
	})

	outcome, err := env.coord.DespawnAuthoritative(DespawnRequest{Object: o})
	require.NoError(t, err)
	require.Equal(t, OutcomeDestroyed, outcome)
}

// capPolicy fixes capacity; never vetoes.
type capPolicy struct{ cap int }

func (p capPolicy) Capacity(int32) int           { return p.cap }
func (p capPolicy) CanPool(*world.Object, int) bool { return true }

// vetoPolicy refuses every release.
type vetoPolicy struct{}

func (vetoPolicy) Capacity(int32) int           { return 0 }
func (vetoPolicy) CanPool(*world.Object, int) bool { return false }

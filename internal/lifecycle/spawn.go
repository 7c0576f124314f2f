package lifecycle

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Drabants/unitystation/internal/core/event"
	"github.com/Drabants/unitystation/internal/data"
	"github.com/Drabants/unitystation/internal/world"
)

// Spawner brings objects into active play, pulling from the reuse pool
// before building fresh instances. Game loop goroutine only.
type Spawner struct {
	world     *world.State
	pool      *world.PoolRegistry
	templates *data.TemplateTable
	decay     *world.DecayTracker
	repl      Replicator
	bus       *event.Bus
	log       *zap.Logger

	ticksPerSecond int
}

func NewSpawner(ws *world.State, pool *world.PoolRegistry, templates *data.TemplateTable, decay *world.DecayTracker, repl Replicator, bus *event.Bus, ticksPerSecond int, log *zap.Logger) *Spawner {
	if ticksPerSecond <= 0 {
		ticksPerSecond = 5
	}
	return &Spawner{
		world:          ws,
		pool:           pool,
		templates:      templates,
		decay:          decay,
		repl:           repl,
		bus:            bus,
		log:            log,
		ticksPerSecond: ticksPerSecond,
	}
}

// Spawn places one instance of a template at a tile. A pooled instance
// is reactivated in place (same ID, bumped generation); otherwise a
// fresh object is built from the template.
func (s *Spawner) Spawn(templateID int32, x, y int32, deck int16) (*world.Object, error) {
	tpl := s.templates.Get(templateID)
	if tpl == nil {
		return nil, fmt.Errorf("spawn: unknown template %d", templateID)
	}

	o := s.pool.TryAcquireOrCreate(templateID)
	fromPool := o != nil
	if fromPool {
		s.reset(o, tpl)
	} else {
		o = s.build(tpl)
	}

	o.X, o.Y, o.Deck = x, y, deck
	o.Despawned = false
	s.world.AddObject(o)
	if s.decay != nil && o.DecayTicks > 0 {
		s.decay.Track(o)
	}
	s.repl.PutObject(o)

	event.Emit(s.bus, event.ObjectSpawned{
		ObjectID:   o.ID,
		TemplateID: o.TemplateID,
		FromPool:   fromPool,
	})
	s.log.Debug("spawned object",
		zap.Int32("object", o.ID),
		zap.Int32("template", templateID),
		zap.Bool("from_pool", fromPool),
	)
	return o, nil
}

// PlaceAt activates an already-built inactive object at a tile, e.g. an
// item taken out of a container. No pool interaction.
func (s *Spawner) PlaceAt(o *world.Object, x, y int32, deck int16) error {
	if o == nil {
		return fmt.Errorf("place: no object")
	}
	if o.Active {
		return fmt.Errorf("place: object %d already active", o.ID)
	}
	if o.Slot != nil {
		return fmt.Errorf("place: object %d still held by container %d", o.ID, o.Slot.ContainerID)
	}
	o.X, o.Y, o.Deck = x, y, deck
	o.Despawned = false
	s.world.AddObject(o)
	if s.decay != nil && o.DecayTicks > 0 {
		s.decay.Track(o)
	}
	s.repl.PutObject(o)
	return nil
}

// build constructs a fresh object with the capability set the template
// declares.
func (s *Spawner) build(tpl *data.ObjectTemplate) *world.Object {
	var id int32
	if tpl.Category == "debris" {
		id = world.NextDebrisID()
	} else {
		id = world.NextObjectID()
	}

	o := &world.Object{
		ID:         id,
		TemplateID: tpl.TemplateID,
		Name:       tpl.Name,
		GfxID:      tpl.GfxID,
	}
	s.applyTemplate(o, tpl)
	return o
}

// reset restores a pooled instance to template defaults before it
// re-enters play. Identity (ID, accumulated generation) is kept.
func (s *Spawner) reset(o *world.Object, tpl *data.ObjectTemplate) {
	o.Name = tpl.Name
	o.GfxID = tpl.GfxID
	s.applyTemplate(o, tpl)
}

func (s *Spawner) applyTemplate(o *world.Object, tpl *data.ObjectTemplate) {
	if tpl.PoolEligible {
		if o.Pool == nil {
			o.Pool = &world.PoolTracker{TemplateID: tpl.TemplateID}
		}
		o.Pool.Pooled = false
	} else {
		o.Pool = nil
	}

	if tpl.Pushable {
		o.Push = &world.PushableTransform{Occupies: true}
	} else {
		o.Push = nil
	}

	if tpl.Gated {
		// Fresh or reset devices come up powered with the panel shut.
		o.Gate = &world.DeviceGate{Powered: true}
	} else {
		o.Gate = nil
	}

	if tpl.MaxContents > 0 {
		o.Contents = world.NewContainer(o.ID, tpl.MaxContents)
	} else {
		o.Contents = nil
	}

	if tpl.DecaySecs > 0 {
		o.DecayTicks = tpl.DecaySecs * s.ticksPerSecond
	} else {
		o.DecayTicks = 0
	}
}

package system

import (
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/Drabants/unitystation/internal/core/event"
	coresys "github.com/Drabants/unitystation/internal/core/system"
	"github.com/Drabants/unitystation/internal/data"
	"github.com/Drabants/unitystation/internal/lifecycle"
	"github.com/Drabants/unitystation/internal/world"
)

// RespawnSystem keeps each spawn entry's population alive: the initial
// set is spawned at boot, and a despawn of a managed template schedules
// a replacement after the entry's delay. Replacements go through the
// spawner, which prefers reactivating a pooled instance over building a
// fresh one. Phase 2 (Update).
type RespawnSystem struct {
	world          *world.State
	spawner        *lifecycle.Spawner
	entries        []data.SpawnEntry
	byTemplate     map[int32][]int // template → indexes into entries
	pending        []pendingRespawn
	ticksPerSecond int
	log            *zap.Logger
}

type pendingRespawn struct {
	entryIdx  int
	ticksLeft int
}

func NewRespawnSystem(ws *world.State, spawner *lifecycle.Spawner, bus *event.Bus, entries []data.SpawnEntry, ticksPerSecond int, log *zap.Logger) *RespawnSystem {
	if ticksPerSecond <= 0 {
		ticksPerSecond = 5
	}
	s := &RespawnSystem{
		world:          ws,
		spawner:        spawner,
		entries:        entries,
		byTemplate:     make(map[int32][]int, len(entries)),
		ticksPerSecond: ticksPerSecond,
		log:            log,
	}
	for i, e := range entries {
		s.byTemplate[e.TemplateID] = append(s.byTemplate[e.TemplateID], i)
	}
	event.Subscribe(bus, s.onDespawned)
	return s
}

func (s *RespawnSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

// SpawnInitial brings every entry up to its configured count. Called once
// at boot; returns how many objects were placed.
func (s *RespawnSystem) SpawnInitial() int {
	placed := 0
	for i := range s.entries {
		e := &s.entries[i]
		for n := 0; n < e.Count; n++ {
			x, y := s.placement(e)
			if _, err := s.spawner.Spawn(e.TemplateID, x, y, e.Deck); err != nil {
				s.log.Error("initial spawn failed",
					zap.Int32("template", e.TemplateID),
					zap.Error(err),
				)
				continue
			}
			placed++
		}
	}
	return placed
}

func (s *RespawnSystem) Update(_ time.Duration) {
	if len(s.pending) == 0 {
		return
	}
	remaining := s.pending[:0]
	for _, p := range s.pending {
		p.ticksLeft--
		if p.ticksLeft > 0 {
			remaining = append(remaining, p)
			continue
		}
		e := &s.entries[p.entryIdx]
		x, y := s.placement(e)
		if _, err := s.spawner.Spawn(e.TemplateID, x, y, e.Deck); err != nil {
			s.log.Error("respawn failed",
				zap.Int32("template", e.TemplateID),
				zap.Error(err),
			)
		}
	}
	s.pending = remaining
}

// onDespawned schedules a replacement when a managed template drops
// below its configured population. Runs at event dispatch (tick end).
func (s *RespawnSystem) onDespawned(ev event.ObjectDespawned) {
	idxs, managed := s.byTemplate[ev.TemplateID]
	if !managed {
		return
	}

	desired := 0
	for _, i := range idxs {
		desired += s.entries[i].Count
	}
	deficit := desired - s.world.ActiveCount(ev.TemplateID) - s.pendingCount(ev.TemplateID)
	if deficit <= 0 {
		return
	}

	// Refill from the first entry of the template; per-entry attribution
	// does not matter once instances are interchangeable.
	e := &s.entries[idxs[0]]
	delay := e.RespawnDelay * s.ticksPerSecond
	if delay < 1 {
		delay = 1
	}
	s.pending = append(s.pending, pendingRespawn{entryIdx: idxs[0], ticksLeft: delay})
}

func (s *RespawnSystem) pendingCount(templateID int32) int {
	n := 0
	for _, p := range s.pending {
		if s.entries[p.entryIdx].TemplateID == templateID {
			n++
		}
	}
	return n
}

func (s *RespawnSystem) placement(e *data.SpawnEntry) (int32, int32) {
	x, y := e.X, e.Y
	if e.RandomX > 0 {
		x += rand.Int31n(2*e.RandomX+1) - e.RandomX
	}
	if e.RandomY > 0 {
		y += rand.Int31n(2*e.RandomY+1) - e.RandomY
	}
	return x, y
}

package system

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Drabants/unitystation/internal/core/event"
	coresys "github.com/Drabants/unitystation/internal/core/system"
	"github.com/Drabants/unitystation/internal/persist"
	"github.com/Drabants/unitystation/internal/world"
)

// PersistenceSystem buffers lifecycle audit entries from the event bus
// and writes them to Postgres in uuid-tagged batches every interval.
// Phase 5 (Persist).
type PersistenceSystem struct {
	world     *world.State
	auditRepo *persist.AuditRepo
	snapRepo  *persist.SnapshotRepo
	queue     []persist.AuditEntry
	tickCount int
	interval  int // flush every N ticks
	log       *zap.Logger
}

func NewPersistenceSystem(ws *world.State, auditRepo *persist.AuditRepo, snapRepo *persist.SnapshotRepo, bus *event.Bus, intervalTicks int, log *zap.Logger) *PersistenceSystem {
	if intervalTicks <= 0 {
		intervalTicks = 150
	}
	s := &PersistenceSystem{
		world:     ws,
		auditRepo: auditRepo,
		snapRepo:  snapRepo,
		interval:  intervalTicks,
		log:       log,
	}
	event.Subscribe(bus, s.onSpawned)
	event.Subscribe(bus, s.onDespawned)
	event.Subscribe(bus, s.onSelfDestructed)
	return s
}

func (s *PersistenceSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *PersistenceSystem) Update(_ time.Duration) {
	s.tickCount++
	if s.tickCount < s.interval {
		return
	}
	s.tickCount = 0
	s.FlushNow()
}

// FlushNow writes the queued audit entries immediately. Failed batches
// stay queued for the next flush.
func (s *PersistenceSystem) FlushNow() {
	if len(s.queue) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.auditRepo.WriteBatch(ctx, s.queue); err != nil {
		s.log.Error("audit flush failed",
			zap.Int("entries", len(s.queue)),
			zap.Error(err),
		)
		return
	}
	s.log.Debug("audit flushed", zap.Int("entries", len(s.queue)))
	s.queue = s.queue[:0]
}

// SnapshotNow replaces the stored snapshot with the current set of
// active objects. Called at graceful shutdown.
func (s *PersistenceSystem) SnapshotNow() error {
	rows := make([]persist.SnapshotRow, 0, s.world.Count())
	s.world.AllObjects(func(o *world.Object) {
		rows = append(rows, persist.SnapshotRow{
			ObjectID:   o.ID,
			TemplateID: o.TemplateID,
			X:          o.X,
			Y:          o.Y,
			Deck:       o.Deck,
			DecayTicks: o.DecayTicks,
		})
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.snapRepo.SaveSnapshot(ctx, rows)
}

// QueueLen returns the number of unflushed audit entries.
func (s *PersistenceSystem) QueueLen() int {
	return len(s.queue)
}

func (s *PersistenceSystem) onSpawned(ev event.ObjectSpawned) {
	outcome := "fresh"
	if ev.FromPool {
		outcome = "from_pool"
	}
	s.queue = append(s.queue, persist.AuditEntry{
		ObjectID:   ev.ObjectID,
		TemplateID: ev.TemplateID,
		Event:      "spawn",
		Outcome:    outcome,
	})
}

func (s *PersistenceSystem) onDespawned(ev event.ObjectDespawned) {
	s.queue = append(s.queue, persist.AuditEntry{
		ObjectID:   ev.ObjectID,
		TemplateID: ev.TemplateID,
		Event:      "despawn",
		Cause:      ev.Cause,
		Outcome:    ev.Disposition,
	})
}

func (s *PersistenceSystem) onSelfDestructed(ev event.DeviceSelfDestructed) {
	s.queue = append(s.queue, persist.AuditEntry{
		ObjectID: ev.ObjectID,
		Event:    "self_destruct",
	})
}

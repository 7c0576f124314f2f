package system

import (
	"time"

	"go.uber.org/zap"

	coresys "github.com/Drabants/unitystation/internal/core/system"
	"github.com/Drabants/unitystation/internal/lifecycle"
	"github.com/Drabants/unitystation/internal/world"
)

// DecaySystem counts down debris TTLs and routes expired debris through
// the despawn coordinator, so decay honours the same delegation, gate,
// and pooling rules as every other removal. Phase 2 (Update).
type DecaySystem struct {
	tracker  *world.DecayTracker
	coord    *lifecycle.Coordinator
	interval int // check cadence in ticks
	ticks    int
	log      *zap.Logger
}

func NewDecaySystem(tracker *world.DecayTracker, coord *lifecycle.Coordinator, intervalTicks int, log *zap.Logger) *DecaySystem {
	if intervalTicks <= 0 {
		intervalTicks = 5
	}
	return &DecaySystem{
		tracker:  tracker,
		coord:    coord,
		interval: intervalTicks,
		log:      log,
	}
}

func (s *DecaySystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *DecaySystem) Update(_ time.Duration) {
	s.ticks++
	if s.ticks < s.interval {
		return
	}
	elapsed := s.ticks
	s.ticks = 0

	for _, o := range s.tracker.Tick(elapsed) {
		outcome, err := s.coord.DespawnAuthoritative(lifecycle.DespawnRequest{
			Object: o,
			Cause:  lifecycle.CauseDecay,
		})
		if err != nil {
			// Picked up into a container, or already despawned by a
			// command, between ticks. Nothing to do.
			s.log.Debug("decayed object not despawned",
				zap.Int32("object", o.ID),
				zap.Error(err),
			)
			continue
		}
		s.log.Debug("debris decayed",
			zap.Int32("object", o.ID),
			zap.String("outcome", outcome.String()),
		)
	}
}

package system

import (
	"time"

	"github.com/Drabants/unitystation/internal/core/event"
	coresys "github.com/Drabants/unitystation/internal/core/system"
)

// CleanupSystem rotates the event bus at tick end and delivers the
// events the tick produced. Phase 6 (Cleanup).
type CleanupSystem struct {
	bus *event.Bus
}

func NewCleanupSystem(bus *event.Bus) *CleanupSystem {
	return &CleanupSystem{bus: bus}
}

func (s *CleanupSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *CleanupSystem) Update(_ time.Duration) {
	s.bus.SwapBuffers()
	s.bus.DispatchAll()
}

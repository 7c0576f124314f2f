package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseInput      Phase = iota // 0: drain session queues, accept/drop sessions
	PhasePreUpdate               // 1: deliver last tick's events
	PhaseUpdate                  // 2: simulation (decay timers, respawn schedules)
	PhasePostUpdate              // 3: visibility diffing
	PhaseOutput                  // 4: flush buffered packets
	PhasePersist                 // 5: audit flush + snapshots
	PhaseCleanup                 // 6: buffer swaps, dead session pruning
)

// System is implemented by every tick system.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}

package system

import (
	"time"

	coresys "github.com/Drabants/unitystation/internal/core/system"
	"github.com/Drabants/unitystation/internal/net"
)

// OutputSystem flushes buffered session output produced during the tick
// to the per-session write queues. Phase 4 (Output).
type OutputSystem struct {
	store *net.SessionStore
}

func NewOutputSystem(store *net.SessionStore) *OutputSystem {
	return &OutputSystem{store: store}
}

func (s *OutputSystem) Phase() coresys.Phase { return coresys.PhaseOutput }

func (s *OutputSystem) Update(_ time.Duration) {
	s.store.ForEach(func(sess *net.Session) {
		sess.FlushOutput()
	})
}

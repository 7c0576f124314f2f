package system

import (
	"time"

	coresys "github.com/Drabants/unitystation/internal/core/system"
	"github.com/Drabants/unitystation/internal/handler"
	"github.com/Drabants/unitystation/internal/net"
	"github.com/Drabants/unitystation/internal/net/packet"
	"github.com/Drabants/unitystation/internal/world"
)

// VisibilitySystem streams objects into and out of each follower's view
// by diffing the follower's known set against the AOI query around its
// focus. Newly visible objects get a put packet; objects that left the
// view get a remove packet (the follower pools its local copy — an
// out-of-view object still exists on the server).
// Phase 3 (PostUpdate), every 2 ticks.
type VisibilitySystem struct {
	world *world.State
	store *net.SessionStore
	ticks int
}

func NewVisibilitySystem(ws *world.State, store *net.SessionStore) *VisibilitySystem {
	return &VisibilitySystem{world: ws, store: store}
}

func (s *VisibilitySystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *VisibilitySystem) Update(_ time.Duration) {
	s.ticks++
	if s.ticks < 2 {
		return
	}
	s.ticks = 0

	s.world.AllFollowers(func(f *world.Follower) {
		sess := s.store.Get(f.SessionID)
		if sess == nil || sess.IsClosed() || sess.State() != packet.StateObserving {
			return
		}
		s.updateFollower(f, sess)
	})
}

func (s *VisibilitySystem) updateFollower(f *world.Follower, sess *net.Session) {
	nearby := s.world.GetNearbyObjects(f.FocusX, f.FocusY, f.Deck, 0)

	currentSet := make(map[int32]struct{}, len(nearby))
	for _, o := range nearby {
		currentSet[o.ID] = struct{}{}

		if _, known := f.Known[o.ID]; !known {
			handler.SendPutObject(sess, o)
		}
		// Keep the recorded position fresh either way; pushed objects move.
		f.Known[o.ID] = world.KnownPos{X: o.X, Y: o.Y}
	}

	for id := range f.Known {
		if _, still := currentSet[id]; !still {
			handler.SendRemoveObject(sess, id)
			delete(f.Known, id)
		}
	}
}

package system

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Drabants/unitystation/internal/core/event"
	coresys "github.com/Drabants/unitystation/internal/core/system"
	"github.com/Drabants/unitystation/internal/net"
	"github.com/Drabants/unitystation/internal/net/packet"
	"github.com/Drabants/unitystation/internal/persist"
	"github.com/Drabants/unitystation/internal/world"
)

// InputSystem drains packet queues from all sessions and dispatches them
// through the packet registry. Phase 0 (Input).
type InputSystem struct {
	netServer    *net.Server
	registry     *packet.Registry
	store        *net.SessionStore
	worldState   *world.State
	operatorRepo *persist.OperatorRepo
	bus          *event.Bus
	maxPerTick   int
	log          *zap.Logger
}

func NewInputSystem(
	netServer *net.Server,
	registry *packet.Registry,
	store *net.SessionStore,
	worldState *world.State,
	operatorRepo *persist.OperatorRepo,
	bus *event.Bus,
	maxPerTick int,
	log *zap.Logger,
) *InputSystem {
	return &InputSystem{
		netServer:    netServer,
		registry:     registry,
		store:        store,
		worldState:   worldState,
		operatorRepo: operatorRepo,
		bus:          bus,
		maxPerTick:   maxPerTick,
		log:          log,
	}
}

func (s *InputSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *InputSystem) Update(_ time.Duration) {
	// Accept new sessions
	for {
		select {
		case sess := <-s.netServer.NewSessions():
			s.store.Add(sess)
		default:
			goto doneNew
		}
	}
doneNew:

	// Process dead sessions
	for {
		select {
		case id := <-s.netServer.DeadSessions():
			s.store.Remove(id)
		default:
			goto doneDead
		}
	}
doneDead:

	// Drain packets from each session (up to maxPerTick per session)
	for id, sess := range s.store.Raw() {
		if sess.IsClosed() {
			// Drain what arrived before the close so a final command or
			// quit packet is not lost, then clean up.
			for i := 0; i < s.maxPerTick; i++ {
				select {
				case data := <-sess.InQueue:
					if err := s.registry.Dispatch(sess, sess.State(), data); err != nil {
						s.log.Debug("dispatch error (closing session)",
							zap.Uint64("session", sess.ID),
							zap.Error(err),
						)
					}
				default:
					goto doneClosing
				}
			}
		doneClosing:
			sess.FlushOutput()
			s.handleDisconnect(sess)
			s.netServer.NotifyDead(id)
			s.store.Remove(id)
			continue
		}

		for i := 0; i < s.maxPerTick; i++ {
			select {
			case data := <-sess.InQueue:
				if err := s.registry.Dispatch(sess, sess.State(), data); err != nil {
					s.log.Debug("dispatch error",
						zap.Uint64("session", sess.ID),
						zap.Error(err),
					)
				}
			default:
				goto nextSession
			}
		}
	nextSession:
	}

	// Early flush: packets produced during Phase 0 (command results,
	// replication from command-driven despawns) reach the write loop
	// while the later phases run. OutputSystem flushes the rest.
	s.store.ForEach(func(sess *net.Session) {
		sess.FlushOutput()
	})
}

// handleDisconnect cleans up when a session closes: unregisters the
// follower and marks the operator offline.
func (s *InputSystem) handleDisconnect(sess *net.Session) {
	if f := s.worldState.RemoveFollower(sess.ID); f != nil {
		event.Emit(s.bus, event.FollowerLeft{SessionID: sess.ID})
		s.log.Info("follower disconnected",
			zap.Uint64("session", sess.ID),
			zap.String("operator", f.Operator),
		)
	}

	if sess.Operator != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := s.operatorRepo.SetOnline(ctx, sess.Operator, false); err != nil {
			s.log.Error("mark operator offline failed",
				zap.String("operator", sess.Operator),
				zap.Error(err),
			)
		}
		cancel()
	}
}

// SessionCount returns the current number of active sessions.
func (s *InputSystem) SessionCount() int {
	return s.store.Count()
}

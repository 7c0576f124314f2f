package handler

import (
	"go.uber.org/zap"

	"github.com/Drabants/unitystation/internal/config"
	"github.com/Drabants/unitystation/internal/core/event"
	"github.com/Drabants/unitystation/internal/data"
	"github.com/Drabants/unitystation/internal/lifecycle"
	"github.com/Drabants/unitystation/internal/net"
	"github.com/Drabants/unitystation/internal/net/packet"
	"github.com/Drabants/unitystation/internal/persist"
	"github.com/Drabants/unitystation/internal/world"
)

// Deps holds shared dependencies injected into all packet handlers.
type Deps struct {
	Config       *config.Config
	Log          *zap.Logger
	World        *world.State
	Pool         *world.PoolRegistry
	Coordinator  *lifecycle.Coordinator
	Spawner      *lifecycle.Spawner
	Templates    *data.TemplateTable
	OperatorRepo *persist.OperatorRepo
	Bus          *event.Bus
}

// RegisterAll registers all packet handlers into the registry.
func RegisterAll(reg *packet.Registry, deps *Deps) {
	// Handshake phase
	reg.Register(packet.C_OPCODE_VERSION,
		[]packet.SessionState{packet.StateHandshake},
		func(sess any, r *packet.Reader) {
			HandleVersion(sess.(*net.Session), r, deps)
		},
	)

	// Login phase
	reg.Register(packet.C_OPCODE_LOGIN,
		[]packet.SessionState{packet.StateVersionOK},
		func(sess any, r *packet.Reader) {
			HandleLogin(sess.(*net.Session), r, deps)
		},
	)

	// Authenticated phase
	reg.Register(packet.C_OPCODE_ENTER,
		[]packet.SessionState{packet.StateAuthenticated},
		func(sess any, r *packet.Reader) {
			HandleEnter(sess.(*net.Session), r, deps)
		},
	)

	// Observing phase
	reg.Register(packet.C_OPCODE_VIEW,
		[]packet.SessionState{packet.StateObserving},
		func(sess any, r *packet.Reader) {
			HandleView(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.C_OPCODE_COMMAND,
		[]packet.SessionState{packet.StateObserving},
		func(sess any, r *packet.Reader) {
			HandleCommand(sess.(*net.Session), r, deps)
		},
	)

	// Always allowed (any active state)
	aliveStates := []packet.SessionState{
		packet.StateVersionOK, packet.StateAuthenticated, packet.StateObserving,
	}
	reg.Register(packet.C_OPCODE_PING, aliveStates,
		func(sess any, r *packet.Reader) {
			HandlePing(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.C_OPCODE_QUIT, aliveStates,
		func(sess any, r *packet.Reader) {
			HandleQuit(sess.(*net.Session), r, deps)
		},
	)
}

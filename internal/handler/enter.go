package handler

import (
	"go.uber.org/zap"

	"github.com/Drabants/unitystation/internal/core/event"
	"github.com/Drabants/unitystation/internal/net"
	"github.com/Drabants/unitystation/internal/net/packet"
	"github.com/Drabants/unitystation/internal/world"
)

// HandleEnter processes C_ENTER: [D focusX][D focusY][H deck].
// Registers the session as a follower and moves it to Observing. The
// follower starts with an empty known set; the visibility system streams
// the surroundings in on its next pass.
func HandleEnter(sess *net.Session, r *packet.Reader, deps *Deps) {
	focusX := r.ReadD()
	focusY := r.ReadD()
	deck := int16(r.ReadH())

	f := &world.Follower{
		SessionID: sess.ID,
		Operator:  sess.Operator,
		FocusX:    focusX,
		FocusY:    focusY,
		Deck:      deck,
		Known:     make(map[int32]world.KnownPos),
	}
	deps.World.AddFollower(f)
	event.Emit(deps.Bus, event.FollowerJoined{SessionID: sess.ID, Operator: sess.Operator})

	w := packet.NewWriterWithOpcode(packet.S_OPCODE_ENTER_OK)
	w.WriteD(deps.World.ViewRange())
	w.WriteD(int32(deps.World.Count()))
	sess.Send(w.Bytes())
	sess.SetState(packet.StateObserving)

	deps.Log.Info("follower observing",
		zap.Uint64("session", sess.ID),
		zap.String("operator", sess.Operator),
		zap.Int32("x", focusX),
		zap.Int32("y", focusY),
		zap.Int16("deck", deck),
	)
}

// HandleView processes C_VIEW: [D focusX][D focusY][H deck].
// Moves the follower's view focus; the visibility diff handles the rest.
func HandleView(sess *net.Session, r *packet.Reader, deps *Deps) {
	f := deps.World.GetFollower(sess.ID)
	if f == nil {
		return
	}
	f.FocusX = r.ReadD()
	f.FocusY = r.ReadD()
	f.Deck = int16(r.ReadH())
}

// HandlePing processes C_PING: [D nonce]. Echoes the nonce in S_PONG.
func HandlePing(sess *net.Session, r *packet.Reader, _ *Deps) {
	nonce := r.ReadD()
	w := packet.NewWriterWithOpcode(packet.S_OPCODE_PONG)
	w.WriteD(nonce)
	sess.Send(w.Bytes())
}

// HandleQuit processes C_QUIT. Acknowledges and closes; the input system
// runs the disconnect cleanup when it sees the closed session.
func HandleQuit(sess *net.Session, _ *packet.Reader, deps *Deps) {
	deps.Log.Info("follower quit",
		zap.Uint64("session", sess.ID),
		zap.String("operator", sess.Operator),
	)
	SendDisconnect(sess, DisconnectServerClose)
	sess.SetState(packet.StateDisconnecting)
	sess.FlushOutput()
	sess.Close()
}

package handler

import (
	"go.uber.org/zap"

	"github.com/Drabants/unitystation/internal/net"
	"github.com/Drabants/unitystation/internal/net/packet"
)

// ProtocolVersion is bumped on every incompatible wire change. A follower
// built against another version is refused before login.
const ProtocolVersion int32 = 3

// HandleVersion processes C_VERSION. Responds with S_VERSION_OK and
// transitions to VersionOK, or disconnects on a protocol mismatch.
func HandleVersion(sess *net.Session, r *packet.Reader, deps *Deps) {
	clientVersion := r.ReadD()
	if clientVersion != ProtocolVersion {
		deps.Log.Warn("protocol version mismatch",
			zap.Uint64("session", sess.ID),
			zap.Int32("client", clientVersion),
			zap.Int32("server", ProtocolVersion),
		)
		SendDisconnect(sess, DisconnectBadVersion)
		sess.SetState(packet.StateDisconnecting)
		return
	}

	cfg := deps.Config
	w := packet.NewWriterWithOpcode(packet.S_OPCODE_VERSION_OK)
	w.WriteC(byte(cfg.Server.ID))
	w.WriteD(ProtocolVersion)
	w.WriteD(int32(cfg.Server.StartTime))
	sess.Send(w.Bytes())
	sess.SetState(packet.StateVersionOK)
}

// Disconnect reason codes carried in S_DISCONNECT.
const (
	DisconnectBadVersion  byte = 1
	DisconnectAuthFailed  byte = 2
	DisconnectBanned      byte = 3
	DisconnectServerClose byte = 4
)

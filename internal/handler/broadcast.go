package handler

import (
	"go.uber.org/zap"

	"github.com/Drabants/unitystation/internal/net"
	"github.com/Drabants/unitystation/internal/net/packet"
	"github.com/Drabants/unitystation/internal/world"
)

// Object put flags carried in S_PUT_OBJECT. The follower rebuilds the
// capability set it needs for the mirror path from these.
const (
	PutFlagPushable     = 0x01
	PutFlagPoolEligible = 0x02
)

// Broadcaster fans lifecycle transitions out to connected followers. It
// implements lifecycle.Replicator over the per-follower known sets the
// visibility system maintains: puts go to followers that can see the
// object, removals to followers that knew it. Game loop goroutine only.
type Broadcaster struct {
	world *world.State
	store *net.SessionStore
	log   *zap.Logger
}

func NewBroadcaster(ws *world.State, store *net.SessionStore, log *zap.Logger) *Broadcaster {
	return &Broadcaster{world: ws, store: store, log: log}
}

// PutObject announces an object to every observing follower whose view
// range covers it. The follower's known set is updated here so the next
// visibility pass does not re-announce.
func (b *Broadcaster) PutObject(o *world.Object) {
	data := BuildPutObjectPacket(o)
	b.world.AllFollowers(func(f *world.Follower) {
		if f.Deck != o.Deck || !inViewRange(f, o, b.world.ViewRange()) {
			return
		}
		sess := b.observingSession(f.SessionID)
		if sess == nil {
			return
		}
		sess.Send(data)
		f.Known[o.ID] = world.KnownPos{X: o.X, Y: o.Y}
	})
}

// UnspawnObject hides an object from every follower that knew it. The
// server keeps its copy; followers pool theirs.
func (b *Broadcaster) UnspawnObject(id int32) {
	b.sendRemoval(id, packet.S_OPCODE_REMOVE_OBJECT)
}

// DestroyObject removes an object everywhere permanently.
func (b *Broadcaster) DestroyObject(id int32) {
	b.sendRemoval(id, packet.S_OPCODE_DESTROY_OBJECT)
}

func (b *Broadcaster) sendRemoval(id int32, opcode byte) {
	w := packet.NewWriterWithOpcode(opcode)
	w.WriteD(id)
	data := w.Bytes()

	b.world.AllFollowers(func(f *world.Follower) {
		if _, known := f.Known[id]; !known {
			return
		}
		delete(f.Known, id)
		if sess := b.observingSession(f.SessionID); sess != nil {
			sess.Send(data)
		}
	})
}

func (b *Broadcaster) observingSession(sessionID uint64) *net.Session {
	sess := b.store.Get(sessionID)
	if sess == nil || sess.IsClosed() || sess.State() != packet.StateObserving {
		return nil
	}
	return sess
}

func inViewRange(f *world.Follower, o *world.Object, viewRange int32) bool {
	dx := f.FocusX - o.X
	if dx < 0 {
		dx = -dx
	}
	dy := f.FocusY - o.Y
	if dy < 0 {
		dy = -dy
	}
	return dx <= viewRange && dy <= viewRange
}

// BuildPutObjectPacket builds a reusable S_PUT_OBJECT byte slice.
// Format: [D id][D template][D x][D y][H deck][D gfx][S name][C flags]
func BuildPutObjectPacket(o *world.Object) []byte {
	w := packet.NewWriterWithOpcode(packet.S_OPCODE_PUT_OBJECT)
	w.WriteD(o.ID)
	w.WriteD(o.TemplateID)
	w.WriteD(o.X)
	w.WriteD(o.Y)
	w.WriteH(uint16(o.Deck))
	w.WriteD(o.GfxID)
	w.WriteS(o.Name)

	var flags byte
	if o.Push != nil {
		flags |= PutFlagPushable
	}
	if o.Pool != nil {
		flags |= PutFlagPoolEligible
	}
	w.WriteC(flags)
	return w.Bytes()
}

// SendPutObject sends S_PUT_OBJECT for one object to one viewer.
func SendPutObject(viewer *net.Session, o *world.Object) {
	viewer.Send(BuildPutObjectPacket(o))
}

// SendRemoveObject sends S_REMOVE_OBJECT (out of view; viewer pools).
func SendRemoveObject(viewer *net.Session, id int32) {
	w := packet.NewWriterWithOpcode(packet.S_OPCODE_REMOVE_OBJECT)
	w.WriteD(id)
	viewer.Send(w.Bytes())
}

// SendDisconnect sends S_DISCONNECT with a reason code.
func SendDisconnect(sess *net.Session, reason byte) {
	w := packet.NewWriterWithOpcode(packet.S_OPCODE_DISCONNECT)
	w.WriteC(reason)
	sess.Send(w.Bytes())
}

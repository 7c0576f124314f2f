package handler

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Drabants/unitystation/internal/net/packet"
	"github.com/Drabants/unitystation/internal/world"
)

func TestBuildPutObjectPacket(t *testing.T) {
	o := &world.Object{
		ID:         500_000_042,
		TemplateID: 2001,
		Name:       "supply crate",
		GfxID:      4201,
		X:          110,
		Y:          70,
		Deck:       1,
		Push:       &world.PushableTransform{Occupies: true},
	}

	data := BuildPutObjectPacket(o)
	require.Equal(t, 0, len(data)%4)

	r := packet.NewReader(data)
	require.Equal(t, byte(packet.S_OPCODE_PUT_OBJECT), r.Opcode())
	require.Equal(t, int32(500_000_042), r.ReadD())
	require.Equal(t, int32(2001), r.ReadD())
	require.Equal(t, int32(110), r.ReadD())
	require.Equal(t, int32(70), r.ReadD())
	require.Equal(t, uint16(1), r.ReadH())
	require.Equal(t, int32(4201), r.ReadD())
	require.Equal(t, "supply crate", r.ReadS())

	flags := r.ReadC()
	require.NotZero(t, flags&PutFlagPushable)
	require.Zero(t, flags&PutFlagPoolEligible, "no pool tracker, no flag")
}

func TestPutFlagsCarryCapabilities(t *testing.T) {
	o := &world.Object{
		ID:   1,
		Pool: &world.PoolTracker{TemplateID: 7},
	}

	r := packet.NewReader(BuildPutObjectPacket(o))
	r.ReadD()
	r.ReadD()
	r.ReadD()
	r.ReadD()
	r.ReadH()
	r.ReadD()
	r.ReadS()

	flags := r.ReadC()
	require.Zero(t, flags&PutFlagPushable)
	require.NotZero(t, flags&PutFlagPoolEligible)
}

func TestViewRangeCheck(t *testing.T) {
	f := &world.Follower{FocusX: 100, FocusY: 100}

	require.True(t, inViewRange(f, &world.Object{X: 100, Y: 100}, 20))
	require.True(t, inViewRange(f, &world.Object{X: 120, Y: 80}, 20))
	require.False(t, inViewRange(f, &world.Object{X: 121, Y: 100}, 20))
	require.False(t, inViewRange(f, &world.Object{X: 100, Y: 121}, 20))
}

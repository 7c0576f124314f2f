package packet

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriterReaderRoundTrip(t *testing.T) {
	w := NewWriterWithOpcode(S_OPCODE_PUT_OBJECT)
	w.WriteD(500_000_001)
	w.WriteD(-7)
	w.WriteH(0xBEEF)
	w.WriteS("supply crate")
	w.WriteC(0x03)

	data := w.Bytes()
	require.Equal(t, 0, len(data)%4, "padded to a 4-byte boundary")

	r := NewReader(data)
	require.Equal(t, byte(S_OPCODE_PUT_OBJECT), r.Opcode())
	require.Equal(t, int32(500_000_001), r.ReadD())
	require.Equal(t, int32(-7), r.ReadD())
	require.Equal(t, uint16(0xBEEF), r.ReadH())
	require.Equal(t, "supply crate", r.ReadS())
	require.Equal(t, byte(0x03), r.ReadC())
}

func TestWriteSNonASCII(t *testing.T) {
	w := NewWriter()
	w.WriteS("wrench №3 — déck")

	r := &Reader{data: append([]byte{0x00}, w.Bytes()...), off: 1}
	require.Equal(t, "wrench №3 — déck", r.ReadS())
}

func TestWriteSEmpty(t *testing.T) {
	w := NewWriter()
	w.WriteS("")
	require.Equal(t, 2, w.Len(), "just the terminator")

	r := NewReader([]byte{0x00, 0x00, 0x00})
	require.Equal(t, "", r.ReadS())
}

func TestReadPastEnd(t *testing.T) {
	r := NewReader([]byte{0x01})
	require.Equal(t, byte(0), r.ReadC())
	require.Equal(t, uint16(0), r.ReadH())
	require.Equal(t, int32(0), r.ReadD())
	require.Equal(t, "", r.ReadS())
	require.Equal(t, 0, r.Remaining())
}

func TestReadSWithoutTerminator(t *testing.T) {
	// "ab" in UTF-16LE, no NUL pair.
	r := NewReader([]byte{0x00, 'a', 0x00, 'b', 0x00})
	require.Equal(t, "ab", r.ReadS())
}

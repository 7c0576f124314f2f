package packet

import (
	"encoding/binary"

	"golang.org/x/text/encoding/unicode"
)

var utf16Decoder = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()

// Reader reads packet fields from a decrypted payload.
// Byte 0 is always the opcode.
type Reader struct {
	data []byte
	off  int
}

func NewReader(data []byte) *Reader {
	return &Reader{data: data, off: 1} // skip opcode byte
}

func (r *Reader) Opcode() byte {
	if len(r.data) == 0 {
		return 0
	}
	return r.data[0]
}

// ReadC reads 1 unsigned byte.
func (r *Reader) ReadC() byte {
	if r.off >= len(r.data) {
		return 0
	}
	v := r.data[r.off]
	r.off++
	return v
}

// ReadH reads 2 bytes as little-endian uint16.
func (r *Reader) ReadH() uint16 {
	if r.off+2 > len(r.data) {
		return 0
	}
	v := binary.LittleEndian.Uint16(r.data[r.off:])
	r.off += 2
	return v
}

// ReadD reads 4 bytes as little-endian int32.
func (r *Reader) ReadD() int32 {
	if r.off+4 > len(r.data) {
		return 0
	}
	v := int32(binary.LittleEndian.Uint32(r.data[r.off:]))
	r.off += 4
	return v
}

// ReadS reads UTF-16LE code units up to a 2-byte NUL terminator and
// returns UTF-8. A truncated trailing byte is dropped.
func (r *Reader) ReadS() string {
	start := r.off
	for r.off+2 <= len(r.data) {
		if r.data[r.off] == 0 && r.data[r.off+1] == 0 {
			raw := r.data[start:r.off]
			r.off += 2 // skip terminator
			return utf16ToUTF8(raw)
		}
		r.off += 2
	}
	end := len(r.data) - (len(r.data)-start)%2
	r.off = len(r.data)
	return utf16ToUTF8(r.data[start:end])
}

// utf16ToUTF8 converts UTF-16LE bytes to a UTF-8 string.
// Pure ASCII units pass through without running the decoder.
func utf16ToUTF8(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}
	allASCII := true
	for i := 0; i+1 < len(raw); i += 2 {
		if raw[i] >= 0x80 || raw[i+1] != 0 {
			allASCII = false
			break
		}
	}
	if allASCII {
		out := make([]byte, 0, len(raw)/2)
		for i := 0; i < len(raw); i += 2 {
			out = append(out, raw[i])
		}
		return string(out)
	}
	decoded, err := utf16Decoder.Bytes(raw)
	if err != nil {
		return ""
	}
	return string(decoded)
}

// ReadBytes reads n raw bytes.
func (r *Reader) ReadBytes(n int) []byte {
	if r.off+n > len(r.data) {
		remaining := r.data[r.off:]
		r.off = len(r.data)
		return remaining
	}
	b := make([]byte, n)
	copy(b, r.data[r.off:r.off+n])
	r.off += n
	return b
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.data) - r.off
}

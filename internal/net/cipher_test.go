package net

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCipherRoundTrip(t *testing.T) {
	server := NewCipher(12345)
	client := NewCipher(12345)

	frames := [][]byte{
		{0x69, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07},
		{0x6a, 0xff, 0x00, 0x10},
		{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a, 0x0b, 0x0c},
	}

	// Key state advances per frame; multiple frames must survive in order.
	for _, frame := range frames {
		plain := make([]byte, len(frame))
		copy(plain, frame)

		enc := make([]byte, len(frame))
		copy(enc, frame)
		server.Encrypt(enc)
		require.NotEqual(t, plain, enc)

		client.Decrypt(enc)
		require.Equal(t, plain, enc)
	}
}

func TestCipherBothDirections(t *testing.T) {
	server := NewCipher(777)
	client := NewCipher(777)

	// Server→client and client→server use independent key halves, so
	// interleaved traffic stays in step.
	s2c := []byte{0x69, 0x10, 0x20, 0x30, 0x40, 0x50, 0x60, 0x70}
	c2s := []byte{0x05, 0x11, 0x22, 0x33}

	down := append([]byte(nil), s2c...)
	server.Encrypt(down)
	up := append([]byte(nil), c2s...)
	client.Encrypt(up)

	require.Equal(t, s2c, client.Decrypt(down))
	require.Equal(t, c2s, server.Decrypt(up))

	// Second exchange still lines up.
	down2 := append([]byte(nil), s2c...)
	server.Encrypt(down2)
	require.Equal(t, s2c, client.Decrypt(down2))
}

func TestCipherDifferentSeedsDiverge(t *testing.T) {
	a := NewCipher(1)
	b := NewCipher(2)

	frame := []byte{0x69, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07}
	enc := append([]byte(nil), frame...)
	a.Encrypt(enc)
	require.NotEqual(t, frame, b.Decrypt(enc))
}

func TestCipherShortFramesPassThrough(t *testing.T) {
	c := NewCipher(99)
	short := []byte{0x01, 0x02}
	require.Equal(t, []byte{0x01, 0x02}, c.Encrypt(short))
}

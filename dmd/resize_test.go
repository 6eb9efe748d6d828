package dmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScale2XIndexedUniformField(t *testing.T) {
	// A flat field has no edges to preserve: every output pixel equals the
	// source pixel it was expanded from.
	src := []byte{7, 7, 7, 7}
	dest := make([]byte, 16)
	Scale2XIndexed(dest, src, 2, 2)
	for _, v := range dest {
		assert.Equal(t, byte(7), v)
	}
}

func TestScale2XIndexedDoublesDimensions(t *testing.T) {
	src := make([]byte, 3*5)
	dest := make([]byte, 4*len(src))
	require.NotPanics(t, func() {
		Scale2XIndexed(dest, src, 3, 5)
	})
}

func TestResizeRGB565BilinearLetterboxesWiderSource(t *testing.T) {
	// A 4x1 source into a 4x4 dest: dest is taller (relatively) than src, so
	// the scaled image is one row tall, letterboxed top/bottom, and the other
	// rows stay zeroed.
	src := []uint16{0x1F, 0x1F, 0x1F, 0x1F}
	dest := make([]uint16, 16)
	ResizeRGB565Bilinear(dest, src, 4, 1, 4, 4)

	nonZero := 0
	for _, v := range dest {
		if v != 0 {
			nonZero++
		}
	}
	assert.Greater(t, nonZero, 0)
	assert.Less(t, nonZero, len(dest))
}

func TestResizeRGB565BilinearExactFit(t *testing.T) {
	// Matching aspect ratio: every dest pixel is filled, none letterboxed.
	src := []uint16{0x1F, 0x07E0, 0xF800, 0xFFFF}
	dest := make([]uint16, 4)
	ResizeRGB565Bilinear(dest, src, 2, 2, 2, 2)
	assert.Equal(t, src, dest)
}

func TestInterpolateRGB565Endpoints(t *testing.T) {
	a := uint16(0x1F)
	b := uint16(0xFFFF)
	assert.Equal(t, a, interpolateRGB565(a, b, 0))
	assert.Equal(t, b, interpolateRGB565(a, b, 1))
}

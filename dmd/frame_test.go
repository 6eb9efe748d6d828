package dmd

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestFrameValidateBounds(t *testing.T) {
	f := &Frame{Width: MaxWidth + 1, Height: 32, Mode: ModeRGB24, Payload: make([]byte, 3*(MaxWidth+1)*32)}
	assert.ErrorIs(t, f.Validate(), ErrInvalidFrame)

	f = &Frame{Width: 0, Height: 32, Mode: ModeRGB24}
	assert.ErrorIs(t, f.Validate(), ErrInvalidFrame)
}

func TestFrameValidatePayloadLengths(t *testing.T) {
	cases := []struct {
		mode Mode
		mul  int
	}{
		{ModeIndexed, 1},
		{ModeRGB24, 3},
		{ModeRGB565, 2},
	}
	for _, c := range cases {
		f := &Frame{Width: 4, Height: 4, Mode: c.mode, Payload: make([]byte, 16*c.mul)}
		assert.NoError(t, f.Validate())

		f.Payload = f.Payload[:len(f.Payload)-1]
		assert.True(t, errors.Is(f.Validate(), ErrInvalidFrame))
	}
}

func TestFrameValidateSegments(t *testing.T) {
	f := &Frame{Width: 1, Height: 1, Mode: ModeAlphaNumericSegments, Segments1: make([]uint16, SegmentCount)}
	assert.NoError(t, f.Validate())

	f.Segments2 = make([]uint16, SegmentCount-1)
	assert.ErrorIs(t, f.Validate(), ErrInvalidFrame)
}

func TestFrameValidateUnknownMode(t *testing.T) {
	f := &Frame{Width: 1, Height: 1, Mode: Mode(99)}
	assert.ErrorIs(t, f.Validate(), ErrInvalidFrame)
}

func TestModeStringKnownValues(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		m := Mode(rapid.IntRange(1, 4).Draw(t, "m"))
		assert.NotContains(t, m.String(), "Mode(")
	})
}

package serial

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pinballdmd/dmdutil-go/dmd"
)

func TestEncodeV2PacketFraming(t *testing.T) {
	payload := []byte{1, 2, 3}
	out := encodeV2Packet(cmdRGB565, payload)
	require.Len(t, out, 2+2+1+len(payload)+1)
	assert.Equal(t, byte(0xFE), out[0])
	assert.Equal(t, byte(0xFE), out[1])
	length := int(out[2]) | int(out[3])<<8
	assert.Equal(t, 1+len(payload), length)
	assert.Equal(t, cmdRGB565, out[4])
	assert.Equal(t, payload, out[5:8])
	assert.Equal(t, byte(0xAA), out[len(out)-1])
}

func TestEncodeEnableCommandLegacyVsV2(t *testing.T) {
	legacy := encodeEnableCommand(variantLegacy, 128, 16)
	assert.Equal(t, []byte{cmdEnable, enableCommandArg(128, 16)}, legacy)

	v2 := encodeEnableCommand(variantV2, 128, 16)
	assert.Equal(t, byte(0xFE), v2[0])
	assert.Equal(t, cmdEnable, v2[4])
}

func TestEncodeFrameDispatchesByVariantAndMode(t *testing.T) {
	rgb565 := []uint16{0x1F, 0x07E0, 0xF800, 0xFFFF}
	rgb24 := make([]byte, 3*4)

	legacyFrame := encodeFrame(variantLegacy, dmd.ModeRGB24, 2, 16, dmd.ColorOrderRGB, rgb565, rgb24)
	assert.Equal(t, cmdLegacyBitPlane, legacyFrame[0])

	v2RGB565 := encodeFrame(variantV2, dmd.ModeIndexed, 2, 16, dmd.ColorOrderRGB, rgb565, rgb24)
	assert.Equal(t, cmdRGB565, v2RGB565[4])

	v2RGB888 := encodeFrame(variantV2, dmd.ModeRGB24, 2, 16, dmd.ColorOrderRGB, rgb565, rgb24)
	assert.Equal(t, cmdRGB888, v2RGB888[4])
}

func TestRGB24ToRGB565Words(t *testing.T) {
	rgb24 := []byte{0xF8, 0xFC, 0xF8, 0, 0, 0}
	dst := make([]uint16, 2)
	rgb24ToRGB565Words(dst, rgb24)
	assert.Equal(t, uint16(0xFFFF), dst[0])
	assert.Equal(t, uint16(0), dst[1])
}

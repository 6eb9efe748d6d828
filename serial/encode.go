package serial

import "github.com/pinballdmd/dmdutil-go/dmd"

const (
	cmdLegacyBitPlane byte = 0x1F
	cmdEnable         byte = 0x1E
	cmdRGB565         byte = 0x30
	cmdRGB888         byte = 0x40

	v2FrameStart1 byte = 0xFE
	v2FrameStart2 byte = 0xFE
	v2FrameEnd    byte = 0xAA
)

// encodeLegacyBitPlane builds the legacy transmit unit: a 1-byte command
// followed by the Adafruit bit-plane split of an RGB565 frame.
func encodeLegacyBitPlane(rgb565 []uint16, width, numLogicalRows int, order dmd.ColorOrder) []byte {
	planes := make([]byte, len(rgb565)/2*3)
	dmd.SplitIntoRGBPlanes(planes, rgb565, width, numLogicalRows, order)

	out := make([]byte, 1+len(planes))
	out[0] = cmdLegacyBitPlane
	copy(out[1:], planes)
	return out
}

// encodeV2Packet wraps payload in the V2 framed packet:
// [0xFE, 0xFE, len_lo, len_hi, cmd, payload..., 0xAA], len = 1 + len(payload).
func encodeV2Packet(cmd byte, payload []byte) []byte {
	length := 1 + len(payload)
	out := make([]byte, 0, 5+len(payload)+1)
	out = append(out, v2FrameStart1, v2FrameStart2, byte(length&0xFF), byte(length>>8&0xFF), cmd)
	out = append(out, payload...)
	out = append(out, v2FrameEnd)
	return out
}

// encodeEnableCommand builds the transmit unit for the enable command,
// framed for V2 panels and sent as a bare two-byte command otherwise.
func encodeEnableCommand(variant protocolVariant, width, rows int) []byte {
	arg := enableCommandArg(width, rows)
	if variant == variantV2 {
		return encodeV2Packet(cmdEnable, []byte{arg})
	}
	return []byte{cmdEnable, arg}
}

// encodeFrame builds the transmit unit for one output frame, dispatching on
// protocol variant and pixel mode.
func encodeFrame(variant protocolVariant, mode dmd.Mode, width, numLogicalRows int, order dmd.ColorOrder, rgb565 []uint16, rgb24 []byte) []byte {
	if variant != variantV2 {
		return encodeLegacyBitPlane(rgb565, width, numLogicalRows, order)
	}

	switch mode {
	case dmd.ModeRGB24:
		return encodeV2Packet(cmdRGB888, rgb24)
	default:
		raw := make([]byte, 2*len(rgb565))
		for i, v := range rgb565 {
			raw[2*i] = byte(v >> 8)
			raw[2*i+1] = byte(v)
		}
		return encodeV2Packet(cmdRGB565, raw)
	}
}

package dmd

// ColorOrder selects the physical wiring order of the RGB color lines on the
// attached LED-panel scan hardware. See spec §4.2 "Bit-plane split".
type ColorOrder int

const (
	ColorOrderRGB ColorOrder = iota
	ColorOrderRBG
)

// MapAdafruitIndex reproduces the Adafruit/PxMatrix-style bit-plane index
// layout bit-for-bit: logical-row-major within each 32x32 matrix, matrices
// ordered bottom-row-first, left-to-right.
func MapAdafruitIndex(x, y, width, height, numLogicalRows int) int {
	logicalRowLengthPerMatrix := 32 * 32 / 2 / numLogicalRows
	logicalRow := y % numLogicalRows
	dotPairsPerLogicalRow := width * height / numLogicalRows / 2
	widthInMatrices := width / 32
	matrixX := x / 32
	matrixY := y / 32
	totalMatrices := width * height / 1024
	matrixNumber := totalMatrices - (matrixY+1)*widthInMatrices + matrixX
	indexWithinMatrixRow := x % logicalRowLengthPerMatrix
	return logicalRow*dotPairsPerLogicalRow + matrixNumber*logicalRowLengthPerMatrix + indexWithinMatrixRow
}

// SplitIntoRGBPlanes bit-plane-splits an RGB565 buffer into three 3-bit
// sub-frames for LED-panel scan controllers that expect pre-planed data. dest
// must be len(rgb565)/2*3 bytes ( = 3 * width*height/2, one 6-bit dot pair per
// byte per sub-plane). Pixel pairs (y, y+16) with y%32 >= 16 are skipped — they
// are reached by their upper partner.
func SplitIntoRGBPlanes(dest []byte, rgb565 []uint16, width, numLogicalRows int, order ColorOrder) {
	const pairOffset = 16

	height := len(rgb565) / width
	subframeSize := len(rgb565) / 2

	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			if y%(pairOffset*2) >= pairOffset {
				continue
			}

			inputIndex0 := y*width + x
			inputIndex1 := inputIndex0 + pairOffset*width

			color0 := rgb565[inputIndex0]
			color1 := rgb565[inputIndex1]

			var r0, g0, b0, r1, g1, b1 int
			switch order {
			case ColorOrderRGB:
				r0 = int(color0 >> 13)
				g0 = int(color0 >> 8)
				b0 = int(color0 >> 2)
				r1 = int(color1 >> 13)
				g1 = int(color1 >> 8)
				b1 = int(color1 >> 2)
			case ColorOrderRBG:
				r0 = int(color0 >> 13)
				b0 = int(color0 >> 8)
				g0 = int(color0 >> 2)
				r1 = int(color1 >> 13)
				b1 = int(color1 >> 8)
				g1 = int(color1 >> 2)
			}

			indexWithinSubframe := MapAdafruitIndex(x, y, width, height, numLogicalRows)

			for subframe := 0; subframe < 3; subframe++ {
				dotPair := byte((r0&1)<<5 | (g0&1)<<4 | (b0&1)<<3 | (r1&1)<<2 | (g1&1)<<1 | (b1 & 1))
				dest[subframe*subframeSize+indexWithinSubframe] = dotPair
				r0 >>= 1
				g0 >>= 1
				b0 >>= 1
				r1 >>= 1
				g1 >>= 1
				b1 >>= 1
			}
		}
	}
}

package dmd

// Palette is an ordered sequence of RGB triples, 2^Depth entries for
// Depth in {2, 4, 6}. See spec §3.
type Palette struct {
	Depth   Depth
	Entries []Tint
}

// Size returns 2^Depth.
func (p Palette) Size() int {
	return 1 << uint(p.Depth)
}

// brightnessCurve implements f(x) = (-x^2 + 2.1x) / 1.1, an asymmetric
// quadratic that saturates just past full scale: f(0)=0, f(1)=1, f'(1.05)=0.
func brightnessCurve(x float64) float64 {
	return (-x*x + 2.1*x) / 1.1
}

// scaleChannel applies the brightness curve to a single 0..255 channel value
// at normalized level x in [0,1], rounding to the nearest byte and clamping.
func scaleChannel(c uint8, x float64) uint8 {
	v := float64(c) * brightnessCurve(x)
	if v < 0 {
		v = 0
	}
	if v > 255 {
		v = 255
	}
	return uint8(v + 0.5)
}

// SynthesizePalette builds a 2^depth-entry palette from a monochrome tint.
// Level i in [0, N-1] gets (r,g,b) scaled by f(i/(N-1)).
func SynthesizePalette(tint Tint, depth Depth) Palette {
	n := 1 << uint(depth)
	entries := make([]Tint, n)
	for i := 0; i < n; i++ {
		x := float64(i) / float64(n-1)
		entries[i] = Tint{
			R: scaleChannel(tint.R, x),
			G: scaleChannel(tint.G, x),
			B: scaleChannel(tint.B, x),
		}
	}
	return Palette{Depth: depth, Entries: entries}
}

// Level ramp tables, verbatim constants from the original source. They map a
// raw depth index to an intensity in 0..100 before palette synthesis, chosen
// per pinball machine family.
var (
	LevelsWPC  = [4]int{0x14, 0x21, 0x43, 0x64}
	LevelsGTS3 = [16]int{
		0x00, 0x1e, 0x23, 0x28, 0x2d, 0x32, 0x37, 0x3c,
		0x41, 0x46, 0x4b, 0x50, 0x55, 0x5a, 0x5f, 0x64,
	}
	LevelsSAM = [16]int{
		0x00, 0x14, 0x19, 0x1e, 0x23, 0x28, 0x2d, 0x32,
		0x37, 0x3c, 0x41, 0x46, 0x4b, 0x50, 0x5a, 0x64,
	}
)

// synthesizeRampedPalette builds a len(ramp)-entry palette for the indexed
// ingest path: unlike SynthesizePalette, level i's brightness-curve input is
// ramp[i]/100 (a per-machine-family intensity curve), not the uniform
// i/(N-1) used for the RGB24 depth-hint path.
func synthesizeRampedPalette(tint Tint, ramp []int) Palette {
	entries := make([]Tint, len(ramp))
	for i, level := range ramp {
		x := float64(level) / 100.0
		entries[i] = Tint{
			R: scaleChannel(tint.R, x),
			G: scaleChannel(tint.G, x),
			B: scaleChannel(tint.B, x),
		}
	}
	depth := Depth2
	if len(ramp) == 16 {
		depth = Depth4
	}
	return Palette{Depth: depth, Entries: entries}
}

// levelRamp selects the appropriate ramp table for an indexed payload of the
// given bit depth, per spec §4.1 step 1.
func levelRamp(depth Depth, samSystem bool) []int {
	switch depth {
	case Depth2:
		return LevelsWPC[:]
	case Depth4:
		if samSystem {
			return LevelsSAM[:]
		}
		return LevelsGTS3[:]
	default:
		return nil
	}
}

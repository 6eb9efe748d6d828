// Package dmd implements the frame pipeline for pinball dot-matrix displays:
// normalization, palette synthesis, pixel transforms, recolorization and
// fan-out to hardware backends and in-process virtual consumers.
package dmd

import "fmt"

// Mode identifies the pixel encoding of a Frame's payload.
type Mode int

const (
	ModeIndexed Mode = iota + 1
	ModeRGB24
	ModeRGB565
	ModeAlphaNumericSegments
)

func (m Mode) String() string {
	switch m {
	case ModeIndexed:
		return "Indexed"
	case ModeRGB24:
		return "RGB24"
	case ModeRGB565:
		return "RGB565"
	case ModeAlphaNumericSegments:
		return "AlphaNumericSegments"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Depth is the palette index bit depth (Indexed), or a conceptual bit depth
// for the other modes (24 for RGB24, 16 for RGB565).
type Depth int

const (
	Depth2  Depth = 2
	Depth4  Depth = 4
	Depth6  Depth = 6
	Depth16 Depth = 16
	Depth24 Depth = 24
)

// MaxWidth and MaxHeight bound every frame accepted by the pipeline.
const (
	MaxWidth  = 256
	MaxHeight = 64
)

// SegmentCount is the fixed length of each AlphaNumericSegments array.
const SegmentCount = 128

// Tint is the monochrome RGB triple used to synthesize a palette when no
// colorizer is active.
type Tint struct {
	R, G, B uint8
}

// Frame is a single producer-submitted picture in one of the four supported
// pixel encodings. It is the wire format's in-memory counterpart; exactly one
// of the payload/segment fields is meaningful for a given Mode.
type Frame struct {
	Width, Height int
	Mode          Mode
	Depth         Depth

	// Payload holds W*H bytes for Indexed, 3*W*H for RGB24, 2*W*H for RGB565.
	// Unused for AlphaNumericSegments.
	Payload []byte

	// Segments holds two fixed-length 128-word segment arrays, used only for
	// AlphaNumericSegments. Segments2 may be nil (single-row displays).
	Layout     SegmentLayout
	Segments1  []uint16
	Segments2  []uint16

	Tint     Tint
	Buffered bool
}

// Validate checks the size bounds and payload-length invariants from spec §3.
func (f *Frame) Validate() error {
	if f.Width < 1 || f.Width > MaxWidth || f.Height < 1 || f.Height > MaxHeight {
		return fmt.Errorf("%w: %dx%d out of bounds", ErrInvalidFrame, f.Width, f.Height)
	}

	n := f.Width * f.Height

	switch f.Mode {
	case ModeIndexed:
		if len(f.Payload) != n {
			return fmt.Errorf("%w: indexed payload len %d, want %d", ErrInvalidFrame, len(f.Payload), n)
		}
	case ModeRGB24:
		if len(f.Payload) != 3*n {
			return fmt.Errorf("%w: rgb24 payload len %d, want %d", ErrInvalidFrame, len(f.Payload), 3*n)
		}
	case ModeRGB565:
		if len(f.Payload) != 2*n {
			return fmt.Errorf("%w: rgb565 payload len %d, want %d", ErrInvalidFrame, len(f.Payload), 2*n)
		}
	case ModeAlphaNumericSegments:
		if len(f.Segments1) != SegmentCount {
			return fmt.Errorf("%w: segments1 len %d, want %d", ErrInvalidFrame, len(f.Segments1), SegmentCount)
		}
		if f.Segments2 != nil && len(f.Segments2) != SegmentCount {
			return fmt.Errorf("%w: segments2 len %d, want %d", ErrInvalidFrame, len(f.Segments2), SegmentCount)
		}
	default:
		return fmt.Errorf("%w: unknown mode %v", ErrInvalidFrame, f.Mode)
	}

	return nil
}

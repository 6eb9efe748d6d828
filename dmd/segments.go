package dmd

// SegmentLayout identifies an alpha-numeric segment display geometry. The
// pipeline treats it as an opaque token passed through to the external
// segment renderer; it never interprets the layout itself.
type SegmentLayout int

const (
	LayoutNone SegmentLayout = iota
	Layout2x16Alpha
	Layout2x20Alpha
	Layout2x7Alpha2x7Num
	Layout2x7Alpha2x7Num4x1Num
	Layout2x7Num2x7Num4x1Num
	Layout2x7Num2x7Num10x1Num
	Layout2x7Num2x7Num4x1NumGen7
	Layout2x7Num10_2x7Num10_4x1Num
	Layout2x6Num2x6Num4x1Num
	Layout2x6Num10_2x6Num10_4x1Num
	Layout4x7Num10
	Layout6x4Num4x1Num
	Layout2x7Num4x1Num1x16Alpha
	Layout1x16Alpha1x16Num1x7Num
	Layout1x7Num1x16Alpha1x16Num
	Layout1x16Alpha1x16Num1x7Num1x4Num
)

func (l SegmentLayout) String() string {
	switch l {
	case LayoutNone:
		return "None"
	case Layout2x16Alpha:
		return "2x16Alpha"
	case Layout2x20Alpha:
		return "2x20Alpha"
	case Layout2x7Alpha2x7Num:
		return "2x7Alpha_2x7Num"
	case Layout2x7Alpha2x7Num4x1Num:
		return "2x7Alpha_2x7Num_4x1Num"
	case Layout2x7Num2x7Num4x1Num:
		return "2x7Num_2x7Num_4x1Num"
	case Layout2x7Num2x7Num10x1Num:
		return "2x7Num_2x7Num_10x1Num"
	case Layout2x7Num2x7Num4x1NumGen7:
		return "2x7Num_2x7Num_4x1Num_gen7"
	case Layout2x7Num10_2x7Num10_4x1Num:
		return "2x7Num10_2x7Num10_4x1Num"
	case Layout2x6Num2x6Num4x1Num:
		return "2x6Num_2x6Num_4x1Num"
	case Layout2x6Num10_2x6Num10_4x1Num:
		return "2x6Num10_2x6Num10_4x1Num"
	case Layout4x7Num10:
		return "4x7Num10"
	case Layout6x4Num4x1Num:
		return "6x4Num_4x1Num"
	case Layout2x7Num4x1Num1x16Alpha:
		return "2x7Num_4x1Num_1x16Alpha"
	case Layout1x16Alpha1x16Num1x7Num:
		return "1x16Alpha_1x16Num_1x7Num"
	case Layout1x7Num1x16Alpha1x16Num:
		return "1x7Num_1x16Alpha_1x16Num"
	case Layout1x16Alpha1x16Num1x7Num1x4Num:
		return "1x16Alpha_1x16Num_1x7Num_1x4Num"
	default:
		return "Unknown"
	}
}

// SegmentRenderer rasterizes a pair of 128-word segment-mask arrays into a
// W*H indexed buffer (values in 0..3) for the given layout. It is an external
// collaborator: the pipeline treats it as a pure function and never inspects
// segment bits itself (see render_segments in the network/serial protocol
// description).
type SegmentRenderer interface {
	RenderSegments(layout SegmentLayout, seg1, seg2 []uint16) (indexed []byte, width, height int, err error)
}

// NoopSegmentRenderer is used when no renderer has been wired in; it returns
// ErrColorizerMiss's sibling for the unconfigured case.
type NoopSegmentRenderer struct{}

func (NoopSegmentRenderer) RenderSegments(layout SegmentLayout, seg1, seg2 []uint16) ([]byte, int, int, error) {
	return nil, 0, 0, ErrNoSegmentRenderer
}

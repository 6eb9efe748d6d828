package dmd

// DmdUpdate is a discriminated union of the three producer operations. Every
// update carries exactly one of the Indexed/RGB24/Segments payloads; Variant
// says which. This replaces the source's single record with a mode tag and
// two loosely-typed payload pointers (see DESIGN.md).
type DmdUpdate struct {
	Variant UpdateVariant

	Indexed  *IndexedUpdate
	RGB24    *RGB24Update
	Segments *SegmentsUpdate
}

// UpdateVariant tags which field of a DmdUpdate is populated.
type UpdateVariant int

const (
	VariantIndexed UpdateVariant = iota + 1
	VariantRGB24
	VariantSegments
)

// IndexedUpdate carries a W*H indexed payload at bit depth Depth (2 or 4).
type IndexedUpdate struct {
	Width, Height int
	Depth         Depth
	Payload       []byte
	Tint          Tint
	Buffered      bool
}

// RGB24Update carries a 3*W*H RGB24 payload. DepthHint below 24 routes
// through luminance quantization before display; 24 passes through untouched.
type RGB24Update struct {
	Width, Height int
	DepthHint     Depth
	Payload       []byte
	Tint          Tint
	Buffered      bool
}

// SegmentsUpdate carries a pair of 128-word segment-mask arrays destined for
// the external segment renderer. Segments2 is nil for single-row layouts.
type SegmentsUpdate struct {
	Layout    SegmentLayout
	Segments1 []uint16
	Segments2 []uint16
	Tint      Tint
}

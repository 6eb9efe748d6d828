package dmd

// Colorizer is the external colorization engine adapter (§4.6). At most one
// is active per DMD. Convert may rotate colors, remap indices, and write a
// 64-entry (6-bit) palette; it reports whether its output changed so the
// pipeline can decide whether emission is required.
type Colorizer interface {
	// Convert recolors srcIndexed (W*H bytes) into dstIndexed (W*H bytes,
	// same backing size) and writes exactly 64 Tint entries into dstPalette.
	// changed reports whether the recolored output changed; with a nil err
	// and changed false the pipeline emits nothing. A colorizer that
	// declines returns an error (ErrColorizerMiss): the pipeline then falls
	// back to the monochrome-tint palette.
	Convert(srcIndexed, dstIndexed []byte, dstPalette []Tint) (changed bool, err error)
}

// NopColorizer is the default when no colorization engine is configured; it
// always declines.
type NopColorizer struct{}

func (NopColorizer) Convert(srcIndexed, dstIndexed []byte, dstPalette []Tint) (bool, error) {
	return false, ErrColorizerMiss
}

package dmd

import "github.com/charmbracelet/log"

// Config is the explicit, per-DMD configuration value that replaces the
// source's process-wide singleton (see DESIGN.md). Every field has a zero
// value that is safe to run with.
type Config struct {
	// SamSystem selects LEVELS_SAM over LEVELS_GTS3 for Depth4 indexed
	// frames.
	SamSystem bool

	// QueueDepth bounds the pipeline ingest FIFO. Zero means the default
	// of 8, per spec.
	QueueDepth int

	// Colorizer is consulted on every indexed update. Defaults to
	// NopColorizer, which always declines.
	Colorizer Colorizer

	// SegmentRenderer rasterizes AlphaNumericSegments updates. Defaults to
	// NoopSegmentRenderer, which rejects every call.
	SegmentRenderer SegmentRenderer

	// Logger receives structured log lines from the pipeline. Backends and
	// the network server take their own logger. Defaults to log.Default().
	Logger *log.Logger

	// DebugDumpDir, when non-empty, enables periodic diagnostics dumps of
	// emitted RGB24 buffers to this directory.
	DebugDumpDir string

	// DebugDumpPattern is an strftime pattern used to name each dumped
	// file. Ignored when DebugDumpDir is empty.
	DebugDumpPattern string

	// DebugDumpEveryN dumps every Nth emitted frame. Zero or negative
	// means every frame.
	DebugDumpEveryN int
}

// withDefaults returns a copy of c with zero-value fields replaced by their
// documented defaults.
func (c Config) withDefaults() Config {
	if c.QueueDepth <= 0 {
		c.QueueDepth = 8
	}
	if c.Colorizer == nil {
		c.Colorizer = NopColorizer{}
	}
	if c.SegmentRenderer == nil {
		c.SegmentRenderer = NoopSegmentRenderer{}
	}
	if c.Logger == nil {
		c.Logger = log.Default()
	}
	return c
}

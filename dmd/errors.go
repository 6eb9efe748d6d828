package dmd

import "errors"

// Error taxonomy. See spec §7.
//
// None of these ever propagate out of a worker goroutine; every worker's
// top-level loop logs and continues, except during cooperative shutdown.
var (
	// ErrInvalidFrame is returned when a frame's width/height or payload
	// length disagrees with its mode. The frame is dropped; the pipeline
	// continues running.
	ErrInvalidFrame = errors.New("dmd: invalid frame")

	// ErrProtocolViolation covers bad magic, unknown version, unknown mode,
	// or a partial header on the wire.
	ErrProtocolViolation = errors.New("dmd: protocol violation")

	// ErrBackendTransient marks a serial write that returned zero bytes.
	// It is counted per-backend; after enough consecutive occurrences it is
	// promoted to ErrBackendFatal.
	ErrBackendTransient = errors.New("dmd: backend transient write failure")

	// ErrBackendFatal marks a serial write that returned a hard OS error, or
	// the consecutive-failure threshold having been exceeded. The backend is
	// deactivated.
	ErrBackendFatal = errors.New("dmd: backend fatal failure")

	// ErrConnectionClosed marks a client read returning zero bytes.
	ErrConnectionClosed = errors.New("dmd: connection closed")

	// ErrColorizerMiss means the colorizer declined to recolor this frame.
	// Non-fatal; the monochrome-tint path is used instead.
	ErrColorizerMiss = errors.New("dmd: colorizer miss")

	// ErrNoSegmentRenderer means an AlphaNumericSegments update arrived but
	// no external segment renderer was configured. The update is dropped.
	ErrNoSegmentRenderer = errors.New("dmd: no segment renderer configured")
)

const maxConsecutiveTransientFailures = 20

package render

import "errors"

var (
	// ErrFormatMismatch indicates rendered segments that disagree on
	// sample rate, channel count, or sample width. Mixed formats are
	// rejected rather than resampled.
	ErrFormatMismatch = errors.New("segment format mismatch")

	// ErrNoSegments indicates an assembly with nothing to concatenate,
	// usually because every planned segment was dropped.
	ErrNoSegments = errors.New("no segments to assemble")
)

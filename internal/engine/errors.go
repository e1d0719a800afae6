package engine

import "errors"

var (
	// ErrEngineNotFound indicates that an external binary (ffmpeg or
	// ffplay) could not be located through any resolution step.
	ErrEngineNotFound = errors.New("engine binary not found")

	// ErrProbe indicates an input whose duration could not be determined:
	// the file is unreadable, has no decodable audio stream, or produced
	// output the parser does not recognize.
	ErrProbe = errors.New("probe failed")

	// ErrExtraction indicates that clipping a segment failed. Extraction
	// failures are not retried; the run aborts.
	ErrExtraction = errors.New("extraction failed")

	// ErrEncode indicates a failed transcode of the assembled output.
	ErrEncode = errors.New("encode failed")

	// ErrDevice indicates the playback backend was unavailable or failed
	// mid-stream.
	ErrDevice = errors.New("playback device error")
)

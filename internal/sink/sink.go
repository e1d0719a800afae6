// Package sink delivers an assembled audio stream to its destination,
// either a wav/mp3 file or a playback device.
package sink

import (
	"fmt"
	"path/filepath"
	"strings"
)

// DefaultBitrate is the mp3 bitrate used when none is configured.
const DefaultBitrate = "192k"

// Format is the encoding of a file target.
type Format int

const (
	FormatWAV Format = iota
	FormatMP3
)

func (f Format) String() string {
	switch f {
	case FormatWAV:
		return "wav"
	case FormatMP3:
		return "mp3"
	default:
		return "unknown"
	}
}

// Target is where an assembled stream goes. Exactly one variant is
// chosen per run.
type Target interface {
	target()
}

// FileTarget publishes the stream to Path.
type FileTarget struct {
	Path      string
	Format    Format
	Overwrite bool
	Bitrate   string
}

func (FileTarget) target() {}

// PlayTarget streams to the playback device instead of a file.
type PlayTarget struct{}

func (PlayTarget) target() {}

// NewFileTarget builds a FileTarget for path, deriving the format from
// its extension. It fails with ErrUnsupportedFormat for anything other
// than .wav or .mp3, so a doomed run is rejected before any probing.
func NewFileTarget(path string, overwrite bool, bitrate string) (FileTarget, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return FileTarget{}, err
	}
	if bitrate == "" {
		bitrate = DefaultBitrate
	}
	return FileTarget{Path: path, Format: format, Overwrite: overwrite, Bitrate: bitrate}, nil
}

// FormatForPath maps a file extension to its output format.
func FormatForPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return FormatWAV, nil
	case ".mp3":
		return FormatMP3, nil
	default:
		return 0, fmt.Errorf("%w: %s must end in .wav or .mp3", ErrUnsupportedFormat, filepath.Base(path))
	}
}

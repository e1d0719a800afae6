// Package engine drives the external ffmpeg and ffplay binaries behind
// small capability interfaces, so planning and assembly can be tested
// with fakes and the binaries swapped per environment.
package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Prober reports the total duration of a media file.
type Prober interface {
	Probe(ctx context.Context, path string) (time.Duration, error)
}

// Clipper extracts the window [start, start+length) from src into a PCM
// WAV file at dst.
type Clipper interface {
	Clip(ctx context.Context, src string, start, length time.Duration, dst string) error
}

// Encoder transcodes a staged WAV file at src into the target format
// implied by dst's extension.
type Encoder interface {
	Encode(ctx context.Context, src, dst, bitrate string) error
}

// Player streams an audio file to the default output device, blocking
// until playback finishes or fails.
type Player interface {
	Play(ctx context.Context, path string) error
}

// Compile-time interface compliance checks.
var (
	_ Prober  = (*FFmpeg)(nil)
	_ Clipper = (*FFmpeg)(nil)
	_ Encoder = (*FFmpeg)(nil)
)

// FFmpeg probes, clips, and encodes through one ffmpeg binary.
type FFmpeg struct {
	path string
	cmd  commandRunner
}

// FFmpegOption configures an FFmpeg.
type FFmpegOption func(*FFmpeg)

// WithFFmpegRunner sets a custom command runner (for testing).
func WithFFmpegRunner(r commandRunner) FFmpegOption {
	return func(f *FFmpeg) { f.cmd = r }
}

// NewFFmpeg creates an FFmpeg driving the binary at path.
func NewFFmpeg(path string, opts ...FFmpegOption) (*FFmpeg, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty ffmpeg path", ErrEngineNotFound)
	}
	f := &FFmpeg{
		path: path,
		cmd:  osCommandRunner{},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Probe returns the duration of the audio at path.
// Runs ffmpeg with a null muxer, which exits non-zero even when it reads
// the file fine, so the output is parsed whenever any was produced.
func (f *FFmpeg) Probe(ctx context.Context, path string) (time.Duration, error) {
	args := []string{
		"-i", path,
		"-f", "null", "-",
	}
	output, err := f.cmd.CombinedOutput(ctx, f.path, args)
	if err != nil && len(output) == 0 {
		return 0, fmt.Errorf("%w: %s: %v", ErrProbe, filepath.Base(path), err)
	}

	d, err := parseDuration(string(output))
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrProbe, filepath.Base(path), err)
	}
	return d, nil
}

// Clip extracts [start, start+length) from src into a 16-bit PCM WAV at
// dst. Sample rate and channel count stay native; any mismatch across
// inputs surfaces later, at assembly.
func (f *FFmpeg) Clip(ctx context.Context, src string, start, length time.Duration, dst string) error {
	args := []string{
		"-y",
		"-i", src,
		"-ss", formatTime(start),
		"-to", formatTime(start + length),
		"-vn",
		"-acodec", "pcm_s16le",
		dst,
	}
	output, err := f.cmd.CombinedOutput(ctx, f.path, args)
	if err != nil {
		return fmt.Errorf("%w: %s at %s (+%s): %v\nOutput: %s",
			ErrExtraction, filepath.Base(src), formatTime(start), length, err, string(output))
	}
	return nil
}

// Encode transcodes the WAV at src to MP3 at dst using libmp3lame at the
// given bitrate (e.g. "192k").
func (f *FFmpeg) Encode(ctx context.Context, src, dst, bitrate string) error {
	if bitrate == "" {
		return fmt.Errorf("%w: empty bitrate", ErrEncode)
	}
	args := []string{
		"-y",
		"-i", src,
		"-vn",
		"-acodec", "libmp3lame",
		"-ab", bitrate,
		dst,
	}
	output, err := f.cmd.CombinedOutput(ctx, f.path, args)
	if err != nil {
		return fmt.Errorf("%w: %s: %v\nOutput: %s",
			ErrEncode, filepath.Base(dst), err, string(output))
	}
	return nil
}

// Verify checks that the binary answers -version with something that
// looks like ffmpeg.
func (f *FFmpeg) Verify(ctx context.Context) error {
	output, err := f.cmd.CombinedOutput(ctx, f.path, []string{"-version"})
	if err != nil && len(output) == 0 {
		return fmt.Errorf("%w: %s: %v", ErrEngineNotFound, f.path, err)
	}
	first, _, _ := strings.Cut(string(output), "\n")
	if !strings.Contains(first, "version") {
		return fmt.Errorf("%w: %s did not report a version", ErrEngineNotFound, f.path)
	}
	return nil
}

// Duration patterns in ffmpeg stderr: the stream header line, then
// per-frame progress stamps as a fallback.
var (
	durationRe = regexp.MustCompile(`Duration:\s*(\d+):(\d+):(\d+)\.(\d+)`)
	progressRe = regexp.MustCompile(`time=(\d+):(\d+):(\d+)\.(\d+)`)
)

// parseDuration extracts a duration from ffmpeg output, preferring the
// "Duration:" header and falling back to the last "time=" stamp.
func parseDuration(output string) (time.Duration, error) {
	if matches := durationRe.FindStringSubmatch(output); matches != nil {
		return parseTimeComponents(matches[1], matches[2], matches[3], matches[4])
	}
	all := progressRe.FindAllStringSubmatch(output, -1)
	if len(all) > 0 {
		matches := all[len(all)-1]
		return parseTimeComponents(matches[1], matches[2], matches[3], matches[4])
	}
	return 0, fmt.Errorf("no duration in ffmpeg output")
}

// parseTimeComponents converts HH, MM, SS, and a 1..n-digit fraction to a
// Duration. Fractions beyond millisecond precision are truncated.
func parseTimeComponents(hours, minutes, secs, fractional string) (time.Duration, error) {
	h, _ := strconv.Atoi(hours)
	m, _ := strconv.Atoi(minutes)
	s, _ := strconv.Atoi(secs)

	frac, _ := strconv.Atoi(fractional)
	ms := frac
	switch n := len(fractional); {
	case n == 1:
		ms = frac * 100
	case n == 2:
		ms = frac * 10
	case n > 3:
		for i := n; i > 3; i-- {
			ms /= 10
		}
	}

	return time.Duration(h)*time.Hour +
		time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second +
		time.Duration(ms)*time.Millisecond, nil
}

// formatTime formats a duration for ffmpeg -ss/-to arguments.
func formatTime(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := d.Seconds() - float64(h*3600+m*60)
	return fmt.Sprintf("%02d:%02d:%06.3f", h, m, s)
}

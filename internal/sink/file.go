package sink

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"mixtape/internal/engine"
	"mixtape/internal/wav"
)

// FileSink writes assembled audio to wav or mp3 files. Writes are
// atomic: the complete file is staged under a unique name in the
// destination directory and renamed over the final path, so a crash
// mid-write never leaves a partial file where the output belongs.
type FileSink struct {
	encoder engine.Encoder
	workDir string
}

// NewFileSink returns a FileSink staging intermediate wav files in
// workDir. The encoder is only invoked for mp3 targets.
func NewFileSink(encoder engine.Encoder, workDir string) (*FileSink, error) {
	if encoder == nil {
		return nil, errors.New("encoder cannot be nil")
	}
	if workDir == "" {
		return nil, errors.New("work directory cannot be empty")
	}
	return &FileSink{encoder: encoder, workDir: workDir}, nil
}

// Write publishes audio at t.Path. An existing file fails with
// ErrOutputExists unless t.Overwrite is set.
func (s *FileSink) Write(ctx context.Context, audio wav.Audio, t FileTarget) error {
	if !t.Overwrite {
		if _, err := os.Stat(t.Path); err == nil {
			return fmt.Errorf("%w: %s, pass --force to overwrite", ErrOutputExists, t.Path)
		} else if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("check output path %s: %w", t.Path, err)
		}
	}

	encoded, err := wav.Encode(audio)
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}

	switch t.Format {
	case FormatWAV:
		return s.publish(encoded, t.Path)
	case FormatMP3:
		return s.transcode(ctx, encoded, t)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, t.Format)
	}
}

// transcode stages the assembled wav in the work directory and has the
// engine encode it to a staged mp3 beside the destination.
func (s *FileSink) transcode(ctx context.Context, encoded []byte, t FileTarget) error {
	stagedWAV := filepath.Join(s.workDir, "assembled-"+uuid.NewString()+".wav")
	if err := os.WriteFile(stagedWAV, encoded, 0o600); err != nil {
		return fmt.Errorf("stage wav for transcoding: %w", err)
	}
	defer func() { _ = os.Remove(stagedWAV) }()

	bitrate := t.Bitrate
	if bitrate == "" {
		bitrate = DefaultBitrate
	}

	stagedMP3 := stagingPath(t.Path)
	if err := s.encoder.Encode(ctx, stagedWAV, stagedMP3, bitrate); err != nil {
		// The engine may leave a partial file at the staging path.
		_ = os.Remove(stagedMP3)
		return err
	}
	if err := os.Rename(stagedMP3, t.Path); err != nil {
		_ = os.Remove(stagedMP3)
		return fmt.Errorf("publish %s: %w", t.Path, err)
	}
	return nil
}

// publish writes data to a staging file next to dst and renames it
// into place.
func (s *FileSink) publish(data []byte, dst string) error {
	staging := stagingPath(dst)
	if err := os.WriteFile(staging, data, 0o644); err != nil {
		return fmt.Errorf("stage output: %w", err)
	}
	if err := os.Rename(staging, dst); err != nil {
		_ = os.Remove(staging)
		return fmt.Errorf("publish %s: %w", dst, err)
	}
	return nil
}

// stagingPath places the staging file in the destination directory so
// the final rename never crosses filesystems.
func stagingPath(dst string) string {
	dir := filepath.Dir(dst)
	return filepath.Join(dir, "."+filepath.Base(dst)+"."+uuid.NewString()+".tmp")
}

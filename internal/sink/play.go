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

// PlaybackSink streams assembled audio through a player instead of
// writing an output file.
type PlaybackSink struct {
	player  engine.Player
	workDir string
}

// NewPlaybackSink returns a PlaybackSink staging the stream in workDir.
func NewPlaybackSink(player engine.Player, workDir string) (*PlaybackSink, error) {
	if player == nil {
		return nil, errors.New("player cannot be nil")
	}
	if workDir == "" {
		return nil, errors.New("work directory cannot be empty")
	}
	return &PlaybackSink{player: player, workDir: workDir}, nil
}

// Play writes audio to a temporary wav in the work directory and
// blocks until playback finishes, fails, or the context is canceled.
func (s *PlaybackSink) Play(ctx context.Context, audio wav.Audio) error {
	encoded, err := wav.Encode(audio)
	if err != nil {
		return fmt.Errorf("encode for playback: %w", err)
	}

	path := filepath.Join(s.workDir, "mix-"+uuid.NewString()+".wav")
	if err := os.WriteFile(path, encoded, 0o600); err != nil {
		return fmt.Errorf("stage playback wav: %w", err)
	}
	defer func() { _ = os.Remove(path) }()

	return s.player.Play(ctx, path)
}

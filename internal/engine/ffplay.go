package engine

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"time"
)

// Compile-time interface compliance check.
var _ Player = (*FFplay)(nil)

// defaultQuitGrace is how long Play waits for ffplay to exit after a
// quit request before killing it.
const defaultQuitGrace = 2 * time.Second

// FFplay streams audio files to the default output device through an
// ffplay binary.
type FFplay struct {
	path  string
	grace time.Duration
}

// FFplayOption configures an FFplay.
type FFplayOption func(*FFplay)

// WithQuitGrace sets the graceful-exit window used on cancellation.
func WithQuitGrace(d time.Duration) FFplayOption {
	return func(p *FFplay) {
		if d > 0 {
			p.grace = d
		}
	}
}

// NewFFplay creates an FFplay driving the binary at path.
func NewFFplay(path string, opts ...FFplayOption) (*FFplay, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty ffplay path", ErrEngineNotFound)
	}
	p := &FFplay{
		path:  path,
		grace: defaultQuitGrace,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// playArgs builds the ffplay invocation: exit when the file ends, no
// video window, errors only.
func playArgs(path string) []string {
	return []string{"-autoexit", "-nodisp", "-loglevel", "error", path}
}

// Play blocks until the file has played to completion. On context
// cancellation the player is asked to quit via stdin and killed after
// the grace period; the context error is returned so interrupts map to
// an interrupt exit, not a device failure.
//
// exec.Command rather than CommandContext: cancellation must reach the
// player as a quit request before any kill.
func (p *FFplay) Play(ctx context.Context, path string) error {
	cmd := exec.Command(p.path, playArgs(path)...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("%w: create stdin pipe: %v", ErrDevice, err)
	}

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		_ = stdin.Close()
		return fmt.Errorf("%w: start %s: %v", ErrDevice, p.path, err)
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("%w: %v\nOutput: %s", ErrDevice, err, stderr.String())
		}
		return nil

	case <-ctx.Done():
		_, _ = io.WriteString(stdin, "q")
		_ = stdin.Close()

		select {
		case <-done:
		case <-time.After(p.grace):
			_ = cmd.Process.Kill()
			<-done
		}
		return ctx.Err()
	}
}

// Package render turns planned tasks into decoded PCM segments and
// concatenates them into a single audio stream.
package render

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"mixtape/internal/engine"
	"mixtape/internal/segment"
	"mixtape/internal/wav"
)

// Parallelism configuration.
const (
	// DefaultMaxParallel is the number of extractions in flight when no
	// override is given.
	DefaultMaxParallel = 4

	// MaxParallelLimit is the upper bound on concurrent extractions.
	// Requests above it are clamped.
	MaxParallelLimit = 16
)

// Segment is one rendered task: its position in the plan plus the
// decoded audio for its window.
type Segment struct {
	Index int
	Audio wav.Audio
}

// Renderer extracts planned segments through a Clipper, bounding how
// many run at once. Each extraction lands in a temporary wav file
// under workDir which is removed as soon as it has been decoded.
type Renderer struct {
	clipper     engine.Clipper
	workDir     string
	maxParallel int
}

// RendererOption customizes a Renderer.
type RendererOption func(*Renderer)

// WithMaxParallel bounds concurrent extractions. Values below one are
// ignored.
func WithMaxParallel(n int) RendererOption {
	return func(r *Renderer) {
		if n >= 1 {
			r.maxParallel = n
		}
	}
}

// NewRenderer returns a Renderer writing intermediate clips to workDir.
func NewRenderer(clipper engine.Clipper, workDir string, opts ...RendererOption) (*Renderer, error) {
	if clipper == nil {
		return nil, fmt.Errorf("%w: clipper is required", segment.ErrInvalidArgument)
	}
	if workDir == "" {
		return nil, fmt.Errorf("%w: work directory is required", segment.ErrInvalidArgument)
	}
	r := &Renderer{
		clipper:     clipper,
		workDir:     workDir,
		maxParallel: DefaultMaxParallel,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// RenderAll renders every task and returns one segment per task.
// Results are stored by task position, so completion order cannot
// leak into assembly. The first failure cancels the remaining tasks
// and fails the whole run.
func (r *Renderer) RenderAll(ctx context.Context, tasks []segment.Task) ([]Segment, error) {
	if len(tasks) == 0 {
		return nil, nil
	}

	results := make([]Segment, len(tasks))
	sem := make(chan struct{}, r.maxParallel)
	g, ctx := errgroup.WithContext(ctx)

	for i, task := range tasks {
		g.Go(func() error {
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return ctx.Err()
			}
			defer func() { <-sem }()

			seg, err := r.renderOne(ctx, task)
			if err != nil {
				return err
			}
			results[i] = seg
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *Renderer) renderOne(ctx context.Context, task segment.Task) (Segment, error) {
	clipPath := filepath.Join(r.workDir, clipName(task.Index))

	if err := r.clipper.Clip(ctx, task.Source.Path, task.Start, task.Length, clipPath); err != nil {
		// ffmpeg may leave a partial file behind on failure.
		_ = os.Remove(clipPath)
		return Segment{}, fmt.Errorf("%s: %w", task.Label, err)
	}

	data, err := os.ReadFile(clipPath)
	_ = os.Remove(clipPath)
	if err != nil {
		return Segment{}, fmt.Errorf("%w: read clip for %s: %v", engine.ErrExtraction, task.Label, err)
	}

	audio, err := wav.Decode(data)
	if err != nil {
		return Segment{}, fmt.Errorf("%w: decode clip for %s: %v", engine.ErrExtraction, task.Label, err)
	}
	return Segment{Index: task.Index, Audio: audio}, nil
}

func clipName(index int) string {
	return fmt.Sprintf("task-%03d.wav", index)
}

// TotalDuration sums the decoded length of the given segments.
func TotalDuration(segments []Segment) time.Duration {
	var total time.Duration
	for _, s := range segments {
		total += s.Audio.Duration()
	}
	return total
}

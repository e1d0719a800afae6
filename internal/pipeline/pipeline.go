// Package pipeline orchestrates one extraction run: probe inputs, plan
// segments, render them in parallel, assemble, and deliver to the
// requested target.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"mixtape/internal/engine"
	"mixtape/internal/logging"
	"mixtape/internal/render"
	"mixtape/internal/segment"
	"mixtape/internal/sink"
	"mixtape/internal/wav"
)

// Engines bundles the external tool capabilities a run may need.
// Prober and Clipper are always required; Encoder only for mp3 targets
// and Player only for playback.
type Engines struct {
	Prober  engine.Prober
	Clipper engine.Clipper
	Encoder engine.Encoder
	Player  engine.Player
}

// Request describes one extraction run. Length and Skip are the
// resolved values (mode defaults already applied by the caller).
type Request struct {
	Mode     segment.Mode
	Inputs   []string
	Length   time.Duration
	Skip     time.Duration
	Target   sink.Target
	Parallel int
}

// Pipeline runs extraction requests.
type Pipeline struct {
	engines Engines
	log     *zap.SugaredLogger
	stderr  io.Writer
	baseDir string
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the structured logger. Defaults to a no-op logger.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(p *Pipeline) {
		if log != nil {
			p.log = log
		}
	}
}

// WithStderr sets the writer for operator-facing progress lines.
func WithStderr(w io.Writer) Option {
	return func(p *Pipeline) {
		if w != nil {
			p.stderr = w
		}
	}
}

// WithWorkDirBase places run directories under dir instead of the
// system temp directory.
func WithWorkDirBase(dir string) Option {
	return func(p *Pipeline) { p.baseDir = dir }
}

// New returns a Pipeline using the given engines.
func New(engines Engines, opts ...Option) (*Pipeline, error) {
	if engines.Prober == nil {
		return nil, errors.New("prober cannot be nil")
	}
	if engines.Clipper == nil {
		return nil, errors.New("clipper cannot be nil")
	}
	p := &Pipeline{
		engines: engines,
		log:     logging.Nop(),
		stderr:  os.Stderr,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Run executes one extraction end to end. Everything staged under the
// run directory is removed on every exit path; only the published
// output file survives.
func (p *Pipeline) Run(ctx context.Context, req Request) error {
	if err := segment.ValidateCardinality(req.Mode, len(req.Inputs)); err != nil {
		return err
	}
	if err := p.checkTarget(req.Target); err != nil {
		return err
	}

	runID := uuid.NewString()[:8]
	log := p.log.With("run", runID)

	workDir, err := os.MkdirTemp(p.baseDir, "mixtape-"+runID+"-")
	if err != nil {
		return fmt.Errorf("create run directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(workDir); err != nil {
			log.Warnw("failed to remove run directory", "dir", workDir, "error", err)
		}
	}()
	log.Debugw("run directory created", "dir", workDir)

	files, err := p.probeAll(ctx, req.Inputs, log)
	if err != nil {
		return err
	}

	warn := func(msg string) {
		fmt.Fprintln(p.stderr, "warning: "+msg)
		log.Warnw("segment dropped", "detail", msg)
	}
	tasks, err := segment.Plan(req.Mode, files, req.Length, req.Skip, warn)
	if err != nil {
		return err
	}
	if _, toFile := req.Target.(sink.FileTarget); toFile {
		for _, task := range tasks {
			fmt.Fprintln(p.stderr, task.Label)
		}
	}

	parallel := resolveParallel(req.Parallel)
	log.Infow("rendering segments",
		"mode", req.Mode, "tasks", len(tasks), "parallel", parallel)

	renderer, err := render.NewRenderer(p.engines.Clipper, workDir, render.WithMaxParallel(parallel))
	if err != nil {
		return err
	}
	segments, err := renderer.RenderAll(ctx, tasks)
	if err != nil {
		return err
	}

	audio, err := render.Assemble(segments)
	if err != nil {
		return err
	}
	log.Debugw("assembled output",
		"format", audio.Format.String(), "duration", audio.Duration())

	return p.deliver(ctx, req.Target, audio, tasks, segments, workDir, log)
}

// checkTarget rejects a target whose engine capability is missing
// before any probing happens.
func (p *Pipeline) checkTarget(target sink.Target) error {
	switch t := target.(type) {
	case sink.FileTarget:
		if t.Format == sink.FormatMP3 && p.engines.Encoder == nil {
			return fmt.Errorf("%w: no encoder for mp3 output", engine.ErrEngineNotFound)
		}
		return nil
	case sink.PlayTarget:
		if p.engines.Player == nil {
			return fmt.Errorf("%w: no player for playback", engine.ErrEngineNotFound)
		}
		return nil
	case nil:
		return fmt.Errorf("%w: no output target", segment.ErrInvalidArgument)
	default:
		return fmt.Errorf("%w: unknown output target %T", segment.ErrInvalidArgument, target)
	}
}

// probeAll probes each distinct input path once, preserving input
// order in the returned files.
func (p *Pipeline) probeAll(ctx context.Context, paths []string, log *zap.SugaredLogger) ([]segment.InputFile, error) {
	durations := make(map[string]time.Duration, len(paths))
	files := make([]segment.InputFile, 0, len(paths))
	for _, path := range paths {
		total, seen := durations[path]
		if !seen {
			var err error
			total, err = p.engines.Prober.Probe(ctx, path)
			if err != nil {
				return nil, err
			}
			durations[path] = total
			log.Debugw("probed input", "path", path, "duration", total)
		}
		files = append(files, segment.InputFile{Path: path, Duration: total})
	}
	return files, nil
}

func (p *Pipeline) deliver(ctx context.Context, target sink.Target, audio wav.Audio,
	tasks []segment.Task, segments []render.Segment, workDir string, log *zap.SugaredLogger) error {

	switch t := target.(type) {
	case sink.FileTarget:
		fileSink, err := sink.NewFileSink(p.engines.Encoder, workDir)
		if err != nil {
			return err
		}
		if err := fileSink.Write(ctx, audio, t); err != nil {
			return err
		}
		log.Infow("wrote output",
			"path", t.Path, "format", t.Format.String(), "duration", audio.Duration())
		return nil

	case sink.PlayTarget:
		playSink, err := sink.NewPlaybackSink(p.engines.Player, workDir)
		if err != nil {
			return err
		}
		log.Infow("playing", "segments", len(segments), "duration", audio.Duration())

		done := make(chan struct{})
		finished := make(chan struct{})
		go func() {
			defer close(finished)
			printTrail(p.stderr, trailEntries(tasks, segments), done)
		}()
		playErr := playSink.Play(ctx, audio)
		close(done)
		<-finished
		return playErr

	default:
		return fmt.Errorf("%w: unknown output target %T", segment.ErrInvalidArgument, target)
	}
}

func resolveParallel(n int) int {
	switch {
	case n == 0:
		return render.DefaultMaxParallel
	case n < 1:
		return 1
	case n > render.MaxParallelLimit:
		return render.MaxParallelLimit
	default:
		return n
	}
}

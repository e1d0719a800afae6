package cli

import (
	"context"
	"io"
	"os"
	"os/exec"

	"go.uber.org/zap"

	"mixtape/internal/config"
	"mixtape/internal/engine"
	"mixtape/internal/logging"
	"mixtape/internal/pipeline"
)

// Env holds injectable dependencies for CLI commands.
// This is the central injection point for testing CLI commands in isolation.
//
// All fields have sensible defaults via DefaultEnv(). Tests can override
// specific fields using the With* options or by creating a custom Env.
//
// Env must not be nil when passed to command constructors. Use DefaultEnv()
// or NewEnv() to create a valid instance.
type Env struct {
	// I/O and process environment
	Stdout   io.Writer
	Stderr   io.Writer
	LookPath func(file string) (string, error)

	// Factories for domain objects
	ConfigLoader  ConfigLoader
	EngineFactory EngineFactory
	LoggerFactory LoggerFactory
	ToolVerifier  ToolVerifier
	Prompter      Prompter
}

// ConfigLoader loads persisted configuration.
type ConfigLoader interface {
	Load() (config.Config, error)
}

// EngineFactory builds the external tool adapters for a run. The player
// is only resolved when withPlayer is set, so file-output runs work on
// hosts without ffplay installed.
type EngineFactory interface {
	Engines(cfg config.Config, withPlayer bool) (pipeline.Engines, error)
}

// LoggerFactory builds the run logger.
type LoggerFactory interface {
	NewLogger(verbose bool) (*zap.SugaredLogger, error)
}

// ToolVerifier checks that the binary at path answers a version query.
type ToolVerifier interface {
	Verify(ctx context.Context, path string) error
}

// EnvOption configures an Env.
type EnvOption func(*Env)

// WithStdout sets the stdout writer.
func WithStdout(w io.Writer) EnvOption {
	return func(e *Env) {
		e.Stdout = w
	}
}

// WithStderr sets the stderr writer.
func WithStderr(w io.Writer) EnvOption {
	return func(e *Env) {
		e.Stderr = w
	}
}

// WithLookPath sets the binary lookup function.
func WithLookPath(fn func(string) (string, error)) EnvOption {
	return func(e *Env) {
		e.LookPath = fn
	}
}

// WithConfigLoader sets the config loader.
func WithConfigLoader(l ConfigLoader) EnvOption {
	return func(e *Env) {
		e.ConfigLoader = l
	}
}

// WithEngineFactory sets the engine factory.
func WithEngineFactory(f EngineFactory) EnvOption {
	return func(e *Env) {
		e.EngineFactory = f
	}
}

// WithLoggerFactory sets the logger factory.
func WithLoggerFactory(f LoggerFactory) EnvOption {
	return func(e *Env) {
		e.LoggerFactory = f
	}
}

// WithToolVerifier sets the tool verifier.
func WithToolVerifier(v ToolVerifier) EnvOption {
	return func(e *Env) {
		e.ToolVerifier = v
	}
}

// WithPrompter sets the interactive prompter.
func WithPrompter(p Prompter) EnvOption {
	return func(e *Env) {
		e.Prompter = p
	}
}

// DefaultEnv returns an Env with production defaults.
func DefaultEnv() *Env {
	return &Env{
		Stdout:        os.Stdout,
		Stderr:        os.Stderr,
		LookPath:      exec.LookPath,
		ConfigLoader:  &defaultConfigLoader{},
		EngineFactory: &defaultEngineFactory{},
		LoggerFactory: &defaultLoggerFactory{},
		ToolVerifier:  &defaultToolVerifier{},
		Prompter:      &SurveyPrompter{},
	}
}

// NewEnv creates an Env with the given options applied to defaults.
func NewEnv(opts ...EnvOption) *Env {
	env := DefaultEnv()
	for _, opt := range opts {
		opt(env)
	}
	return env
}

// ---------------------------------------------------------------------------
// Default implementations - delegate to real packages
// ---------------------------------------------------------------------------

// defaultConfigLoader implements ConfigLoader using the config package.
type defaultConfigLoader struct{}

func (defaultConfigLoader) Load() (config.Config, error) {
	return config.Load()
}

// defaultEngineFactory implements EngineFactory by resolving the ffmpeg
// and ffplay binaries through the engine package.
type defaultEngineFactory struct{}

func (defaultEngineFactory) Engines(cfg config.Config, withPlayer bool) (pipeline.Engines, error) {
	resolver := engine.NewResolver(
		engine.WithConfiguredPath(engine.ToolFFmpeg, cfg.FFmpegPath),
		engine.WithConfiguredPath(engine.ToolFFplay, cfg.FFplayPath),
	)

	ffmpegPath, err := resolver.Resolve(engine.ToolFFmpeg)
	if err != nil {
		return pipeline.Engines{}, err
	}
	ffmpeg, err := engine.NewFFmpeg(ffmpegPath)
	if err != nil {
		return pipeline.Engines{}, err
	}

	engines := pipeline.Engines{Prober: ffmpeg, Clipper: ffmpeg, Encoder: ffmpeg}
	if !withPlayer {
		return engines, nil
	}

	ffplayPath, err := resolver.Resolve(engine.ToolFFplay)
	if err != nil {
		return pipeline.Engines{}, err
	}
	player, err := engine.NewFFplay(ffplayPath)
	if err != nil {
		return pipeline.Engines{}, err
	}
	engines.Player = player
	return engines, nil
}

// defaultLoggerFactory implements LoggerFactory using the logging package.
type defaultLoggerFactory struct{}

func (defaultLoggerFactory) NewLogger(verbose bool) (*zap.SugaredLogger, error) {
	return logging.New(verbose)
}

// defaultToolVerifier probes a binary with a version query. Both ffmpeg
// and ffplay answer -version on stdout.
type defaultToolVerifier struct{}

func (defaultToolVerifier) Verify(ctx context.Context, path string) error {
	tool, err := engine.NewFFmpeg(path)
	if err != nil {
		return err
	}
	return tool.Verify(ctx)
}

// Compile-time interface verification.
var (
	_ ConfigLoader  = (*defaultConfigLoader)(nil)
	_ EngineFactory = (*defaultEngineFactory)(nil)
	_ LoggerFactory = (*defaultLoggerFactory)(nil)
	_ ToolVerifier  = (*defaultToolVerifier)(nil)
)

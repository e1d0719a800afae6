package engine

import (
	"fmt"
	"strings"
)

// Tool identifies one of the external binaries the engine drives.
type Tool string

const (
	ToolFFmpeg Tool = "ffmpeg"
	ToolFFplay Tool = "ffplay"
)

// envVar returns the environment variable that overrides resolution for
// the tool, e.g. MIXTAPE_FFMPEG.
func (t Tool) envVar() string {
	return "MIXTAPE_" + strings.ToUpper(string(t))
}

// Resolver locates external binaries. Precedence per tool:
//
//  1. environment override (MIXTAPE_FFMPEG / MIXTAPE_FFPLAY); an override
//     pointing at a missing file is an error, not a fallthrough
//  2. path from the config file
//  3. system PATH
type Resolver struct {
	env        envProvider
	stat       fileStatter
	configured map[Tool]string
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithResolverEnv sets the environment provider (for testing).
func WithResolverEnv(e envProvider) ResolverOption {
	return func(r *Resolver) { r.env = e }
}

// WithResolverStatter sets the file statter (for testing).
func WithResolverStatter(s fileStatter) ResolverOption {
	return func(r *Resolver) { r.stat = s }
}

// WithConfiguredPath registers a config-file path for a tool. Empty paths
// are ignored.
func WithConfiguredPath(tool Tool, path string) ResolverOption {
	return func(r *Resolver) {
		if path != "" {
			r.configured[tool] = path
		}
	}
}

// NewResolver creates a Resolver with production defaults.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{
		env:        osEnvProvider{},
		stat:       osFileStatter{},
		configured: make(map[Tool]string),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the path to use for the tool, or an error wrapping
// ErrEngineNotFound when no resolution step produces one.
func (r *Resolver) Resolve(tool Tool) (string, error) {
	if envPath := r.env.Getenv(tool.envVar()); envPath != "" {
		if _, err := r.stat.Stat(envPath); err != nil {
			return "", fmt.Errorf("%w: %s is set to %q but no binary is there",
				ErrEngineNotFound, tool.envVar(), envPath)
		}
		return envPath, nil
	}

	if configured := r.configured[tool]; configured != "" {
		if _, err := r.stat.Stat(configured); err != nil {
			return "", fmt.Errorf("%w: configured %s path %q does not exist",
				ErrEngineNotFound, tool, configured)
		}
		return configured, nil
	}

	if path, err := r.env.LookPath(string(tool)); err == nil {
		return path, nil
	}

	return "", fmt.Errorf("%w: %s is not on PATH; install it or set %s",
		ErrEngineNotFound, tool, tool.envVar())
}

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"mixtape/internal/cli"
	"mixtape/internal/engine"
	"mixtape/internal/render"
	"mixtape/internal/segment"
	"mixtape/internal/sink"
)

// Injected at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

// Exit codes, one per failure class, so shell scripts can tell what
// went wrong without parsing stderr.
const (
	ExitOK              = 0
	ExitGeneral         = 1
	ExitUsage           = 2
	ExitInvalidArgument = 3
	ExitProbe           = 4
	ExitExtraction      = 5
	ExitFormatMismatch  = 6
	ExitOutputExists    = 7
	ExitPlayback        = 8
	ExitEngineNotFound  = 9
	ExitInterrupt       = 130
)

func main() {
	// Load .env file if present (ignore error if missing).
	_ = godotenv.Load()

	// Context with signal cancellation.
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Create the CLI environment with production defaults.
	env := cli.DefaultEnv()

	rootCmd := cli.RootCmd(env)
	rootCmd.Version = fmt.Sprintf("%s (commit: %s)", version, commit)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps errors to exit codes.
func exitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	// Interrupt (Ctrl-C or SIGTERM).
	if errors.Is(err, context.Canceled) {
		return ExitInterrupt
	}

	// Domain sentinels come before the cobra message patterns: wrapped
	// invalid-argument errors carry the literal text "invalid argument",
	// which the pattern list below would claim as a usage error.

	// Invalid arguments (ExitInvalidArgument = 3).
	if errors.Is(err, segment.ErrInvalidArgument) || errors.Is(err, sink.ErrUnsupportedFormat) {
		return ExitInvalidArgument
	}

	// Unreadable inputs (ExitProbe = 4).
	if errors.Is(err, engine.ErrProbe) {
		return ExitProbe
	}

	// Extraction and encode failures (ExitExtraction = 5).
	if errors.Is(err, engine.ErrExtraction) || errors.Is(err, engine.ErrEncode) {
		return ExitExtraction
	}

	// Mismatched input formats (ExitFormatMismatch = 6).
	if errors.Is(err, render.ErrFormatMismatch) {
		return ExitFormatMismatch
	}

	// Refused overwrites (ExitOutputExists = 7).
	if errors.Is(err, sink.ErrOutputExists) {
		return ExitOutputExists
	}

	// Playback failures (ExitPlayback = 8).
	if errors.Is(err, engine.ErrDevice) {
		return ExitPlayback
	}

	// Missing binaries (ExitEngineNotFound = 9).
	if errors.Is(err, engine.ErrEngineNotFound) {
		return ExitEngineNotFound
	}

	// Usage errors (ExitUsage = 2): Cobra flag/arg parsing errors.
	// Cobra doesn't expose typed errors, so we check for known error message patterns.
	// These patterns are stable across Cobra versions (tested with v1.8+).
	if isCobraUsageError(err) {
		return ExitUsage
	}

	return ExitGeneral
}

// cobraUsageErrorPatterns contains error message substrings that indicate Cobra usage errors.
// These patterns are stable across Cobra versions (tested with v1.8+).
// Cobra doesn't expose typed errors, so string matching is the only reliable approach.
var cobraUsageErrorPatterns = []string{
	"required flag",          // Missing required flag
	"unknown flag",           // Flag doesn't exist
	"unknown shorthand",      // Short flag doesn't exist
	"unknown command",        // Subcommand doesn't exist
	"flag needs an argument", // Flag provided without value
	"invalid argument",       // Invalid flag value type
	"flags in the group",     // Flag group violation (mutually exclusive or one-required)
	"accepts ",               // Wrong number of arguments (e.g., "accepts 1 arg(s)")
	"requires at least",      // Too few arguments
	"requires at most",       // Too many arguments
}

// isCobraUsageError checks if an error is a Cobra usage/parsing error.
func isCobraUsageError(err error) bool {
	if err == nil {
		return false
	}
	errMsg := err.Error()
	for _, pattern := range cobraUsageErrorPatterns {
		if strings.Contains(errMsg, pattern) {
			return true
		}
	}
	return false
}

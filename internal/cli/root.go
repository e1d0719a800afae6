package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"mixtape/internal/config"
	"mixtape/internal/pipeline"
	"mixtape/internal/render"
	"mixtape/internal/segment"
	"mixtape/internal/sink"
)

// rawMixFlags collects flag values as entered on the command line.
// The *Set fields record whether the user passed the flag at all, which
// keeps explicit values distinguishable from registered defaults.
type rawMixFlags struct {
	beginning  bool
	end        bool
	slice      bool
	transition bool

	length    float64
	lengthSet bool
	skip      float64
	skipSet   bool

	output string
	play   bool
	force  bool

	bitrate     string
	parallel    int
	parallelSet bool
	verbose     bool
}

// mixOptions holds validated options for a mix run.
type mixOptions struct {
	inputs []string
	mode   segment.Mode
	length time.Duration
	skip   time.Duration

	output string
	play   bool
	force  bool

	bitrate     string
	parallel    int
	parallelSet bool
	verbose     bool
}

// RootCmd creates the root command, which runs an extraction.
// The env parameter provides injectable dependencies for testing.
func RootCmd(env *Env) *cobra.Command {
	var raw rawMixFlags

	cmd := &cobra.Command{
		Use:   "mixtape <audio-file>...",
		Short: "Cut segments from audio files and join them into one track",
		Long: `Cut segments out of one or more audio files and join them into a
single track, written to a .wav or .mp3 file or played back directly.

Four extraction patterns are available:

  --beginning   the first seconds of one file
  --end         the last seconds of one file
  --slice       a short slice every few seconds across each file
  --transition  the end of each file joined to the start of the next

Segment length defaults to 30 seconds, or 1 second for --slice.

ffmpeg does the cutting and ffplay the playback. Both are found on
$PATH; override with MIXTAPE_FFMPEG and MIXTAPE_FFPLAY, or persist
paths with "mixtape setup".`,
		Example: `  mixtape --beginning -l 10 -o preview.wav song.mp3
  mixtape --transition -o roadtrip.mp3 first.mp3 second.mp3 third.mp3
  mixtape --slice -l 2 -k 10 --play album/*.mp3
  mixtape --end --play song.mp3`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw.lengthSet = cmd.Flags().Changed("length")
			raw.skipSet = cmd.Flags().Changed("skip")
			raw.parallelSet = cmd.Flags().Changed("parallel")

			// Parse all inputs at the CLI boundary
			opts, err := parseMixOptions(args, raw)
			if err != nil {
				return err
			}
			return runMix(cmd, env, opts)
		},
	}

	cmd.Flags().BoolVar(&raw.beginning, "beginning", false, "Extract the first seconds of the input")
	cmd.Flags().BoolVar(&raw.end, "end", false, "Extract the last seconds of the input")
	cmd.Flags().BoolVar(&raw.slice, "slice", false, "Extract a slice every few seconds across each input")
	cmd.Flags().BoolVar(&raw.transition, "transition", false, "Join the end of each input to the start of the next")

	cmd.Flags().Float64VarP(&raw.length, "length", "l", 0, "Segment length in seconds (default 30, or 1 with --slice)")
	cmd.Flags().Float64VarP(&raw.skip, "skip", "k", segment.DefaultSkip.Seconds(), "Seconds between slice starts (--slice only)")

	cmd.Flags().StringVarP(&raw.output, "output", "o", "", "Write the result to this .wav or .mp3 file")
	cmd.Flags().BoolVar(&raw.play, "play", false, "Play the result instead of writing a file")
	cmd.Flags().BoolVarP(&raw.force, "force", "f", false, "Overwrite the output file if it exists")

	cmd.Flags().StringVar(&raw.bitrate, "bitrate", "", "MP3 bitrate for .mp3 outputs (default "+sink.DefaultBitrate+")")
	cmd.Flags().IntVarP(&raw.parallel, "parallel", "p", render.DefaultMaxParallel,
		fmt.Sprintf("Max concurrent extractions (1-%d)", render.MaxParallelLimit))
	cmd.Flags().BoolVar(&raw.verbose, "verbose", false, "Enable debug logging")

	cmd.MarkFlagsOneRequired("beginning", "end", "slice", "transition")
	cmd.MarkFlagsMutuallyExclusive("beginning", "end", "slice", "transition")
	cmd.MarkFlagsOneRequired("output", "play")
	cmd.MarkFlagsMutuallyExclusive("output", "play")

	cmd.AddCommand(SetupCmd(env), ConfigCmd(env))

	return cmd
}

// parseMixOptions validates and parses CLI inputs into mixOptions.
// All parsing happens at the CLI boundary; values that depend on loaded
// configuration (bitrate, parallel) pass through raw.
func parseMixOptions(args []string, raw rawMixFlags) (mixOptions, error) {
	mode, err := selectMode(raw)
	if err != nil {
		return mixOptions{}, err
	}

	if err := segment.ValidateCardinality(mode, len(args)); err != nil {
		return mixOptions{}, err
	}

	length := mode.DefaultLength()
	if raw.lengthSet {
		length = secondsToDuration(raw.length)
	}
	if length <= 0 {
		return mixOptions{}, fmt.Errorf("%w: --length must be positive, got %g", segment.ErrInvalidArgument, raw.length)
	}

	skip := segment.DefaultSkip
	if raw.skipSet {
		skip = secondsToDuration(raw.skip)
	}
	if mode == segment.Slice && skip <= 0 {
		return mixOptions{}, fmt.Errorf("%w: --skip must be positive, got %g", segment.ErrInvalidArgument, raw.skip)
	}

	return mixOptions{
		inputs:      args,
		mode:        mode,
		length:      length,
		skip:        skip,
		output:      raw.output,
		play:        raw.play,
		force:       raw.force,
		bitrate:     raw.bitrate,
		parallel:    raw.parallel,
		parallelSet: raw.parallelSet,
		verbose:     raw.verbose,
	}, nil
}

// selectMode maps the mode flags to a Mode. Cobra's flag groups enforce
// that exactly one is set; the error path covers direct callers.
func selectMode(raw rawMixFlags) (segment.Mode, error) {
	var (
		mode  segment.Mode
		count int
	)
	for _, m := range []struct {
		set  bool
		mode segment.Mode
	}{
		{raw.beginning, segment.Beginning},
		{raw.end, segment.End},
		{raw.slice, segment.Slice},
		{raw.transition, segment.Transition},
	} {
		if m.set {
			mode = m.mode
			count++
		}
	}
	if count != 1 {
		return 0, fmt.Errorf("%w: exactly one of --beginning, --end, --slice, --transition must be set",
			segment.ErrInvalidArgument)
	}
	return mode, nil
}

// secondsToDuration converts a fractional seconds value to a Duration.
func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}

// resolveBitrate layers the bitrate: flag beats config. An empty result
// falls back to the sink default.
func resolveBitrate(flag, configured string) string {
	if flag != "" {
		return flag
	}
	return configured
}

// resolveParallel layers the parallel bound: an explicit flag beats the
// configured value, which beats the flag's registered default.
func resolveParallel(flag int, flagSet bool, configured int) int {
	if !flagSet && configured > 0 {
		return configured
	}
	return flag
}

// runMix executes an extraction with validated options.
func runMix(cmd *cobra.Command, env *Env, opts mixOptions) error {
	ctx := cmd.Context()

	// === VALIDATION (fail-fast) ===

	// 1. Load config for defaults
	cfg, err := env.ConfigLoader.Load()
	if err != nil {
		fmt.Fprintf(env.Stderr, "Warning: failed to load config: %v\n", err)
	}

	// 2. Output target (catches unsupported extensions before any work)
	bitrate := resolveBitrate(opts.bitrate, cfg.Bitrate)
	var (
		target     sink.Target = sink.PlayTarget{}
		outputPath string
	)
	if !opts.play {
		outputPath = config.ExpandPath(opts.output)
		fileTarget, err := sink.NewFileTarget(outputPath, opts.force, bitrate)
		if err != nil {
			return err
		}
		target = fileTarget
	}

	// 3. Parallel bounds (flag beats config; the renderer clamps the rest)
	parallel := resolveParallel(opts.parallel, opts.parallelSet, cfg.Parallel)

	// === EXECUTION ===

	logger, err := env.LoggerFactory.NewLogger(opts.verbose)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	engines, err := env.EngineFactory.Engines(cfg, opts.play)
	if err != nil {
		return err
	}

	p, err := pipeline.New(engines, pipeline.WithLogger(logger), pipeline.WithStderr(env.Stderr))
	if err != nil {
		return err
	}

	req := pipeline.Request{
		Mode:     opts.mode,
		Inputs:   opts.inputs,
		Length:   opts.length,
		Skip:     opts.skip,
		Target:   target,
		Parallel: parallel,
	}
	if err := p.Run(ctx, req); err != nil {
		return err
	}

	if !opts.play {
		fmt.Fprintf(env.Stderr, "Done: %s\n", outputPath)
	}
	return nil
}

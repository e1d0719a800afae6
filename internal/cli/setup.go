package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"mixtape/internal/config"
	"mixtape/internal/render"
	"mixtape/internal/sink"
)

// Prompter abstracts interactive prompts so setup can be tested without
// a terminal.
type Prompter interface {
	// Input asks for a string value with a default.
	Input(message, defaultValue string) (string, error)
	// Confirm asks a yes/no question with a default.
	Confirm(message string, defaultValue bool) (bool, error)
}

// SurveyPrompter implements Prompter using the survey library.
type SurveyPrompter struct{}

// Input prompts for a string value.
func (p *SurveyPrompter) Input(message, defaultValue string) (string, error) {
	var answer string
	prompt := &survey.Input{
		Message: message,
		Default: defaultValue,
	}
	if err := survey.AskOne(prompt, &answer); err != nil {
		return "", err
	}
	return answer, nil
}

// Confirm prompts for a yes/no answer.
func (p *SurveyPrompter) Confirm(message string, defaultValue bool) (bool, error) {
	var answer bool
	prompt := &survey.Confirm{
		Message: message,
		Default: defaultValue,
	}
	if err := survey.AskOne(prompt, &answer); err != nil {
		return false, err
	}
	return answer, nil
}

// Compile-time check that SurveyPrompter implements Prompter.
var _ Prompter = (*SurveyPrompter)(nil)

// SetupCmd creates the setup command.
// The env parameter provides injectable dependencies for testing.
func SetupCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Create the configuration file interactively",
		Long: `Walk through the configuration settings and write them to the config
file. Leave a tool path empty to look it up on $PATH at run time.
Entered paths are verified by asking the binary for its version.`,
		Example: `  mixtape setup`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSetup(cmd.Context(), env)
		},
	}
}

// runSetup drives the interactive configuration flow.
func runSetup(ctx context.Context, env *Env) error {
	configPath, err := config.Path()
	if err != nil {
		return err
	}

	if _, err := os.Stat(configPath); err == nil {
		overwrite, err := env.Prompter.Confirm("Config file already exists. Overwrite?", false)
		if err != nil {
			return fmt.Errorf("prompt cancelled")
		}
		if !overwrite {
			fmt.Fprintln(env.Stdout, "Setup cancelled.")
			return nil
		}
	}

	// Current values seed the prompt defaults so re-running setup keeps
	// earlier answers.
	current, err := env.ConfigLoader.Load()
	if err != nil {
		current = config.Config{}
	}

	var cfg config.Config

	cfg.FFmpegPath, err = promptToolPath(ctx, env, "ffmpeg", current.FFmpegPath)
	if err != nil {
		return err
	}

	cfg.FFplayPath, err = promptToolPath(ctx, env, "ffplay", current.FFplayPath)
	if err != nil {
		return err
	}

	bitrateDefault := current.Bitrate
	if bitrateDefault == "" {
		bitrateDefault = sink.DefaultBitrate
	}
	bitrate, err := env.Prompter.Input("MP3 bitrate for .mp3 outputs?", bitrateDefault)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	bitrate = strings.TrimSpace(bitrate)
	if bitrate == "" {
		bitrate = sink.DefaultBitrate
	}
	cfg.Bitrate = bitrate

	parallelDefault := render.DefaultMaxParallel
	if current.Parallel > 0 {
		parallelDefault = current.Parallel
	}
	answer, err := env.Prompter.Input("Max concurrent extractions?", strconv.Itoa(parallelDefault))
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	parallel, err := strconv.Atoi(strings.TrimSpace(answer))
	if err != nil || parallel < 1 {
		return fmt.Errorf("%w: parallel must be a positive integer, got %q", config.ErrInvalidValue, answer)
	}
	cfg.Parallel = parallel

	if err := config.Save(cfg); err != nil {
		return err
	}

	fmt.Fprintf(env.Stdout, "Configuration saved to %s\n", configPath)
	return nil
}

// promptToolPath asks for a binary path with the discovered location as
// the default. An empty answer defers to $PATH lookup at run time; a
// non-empty answer must pass a version check.
func promptToolPath(ctx context.Context, env *Env, tool, current string) (string, error) {
	def := current
	if def == "" {
		if found, err := env.LookPath(tool); err == nil {
			def = found
		}
	}

	answer, err := env.Prompter.Input(fmt.Sprintf("Path to %s (empty to use $PATH)?", tool), def)
	if err != nil {
		return "", fmt.Errorf("prompt cancelled")
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return "", nil
	}

	answer = config.ExpandPath(answer)
	if err := env.ToolVerifier.Verify(ctx, answer); err != nil {
		return "", err
	}
	return answer, nil
}

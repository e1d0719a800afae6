package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"mixtape/internal/config"
)

// ConfigCmd creates the config command with its subcommands.
// The env parameter provides injectable dependencies for testing.
func ConfigCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage persistent configuration",
		Long: `Manage persistent configuration settings.

Settings are stored in ~/.config/mixtape/config.yaml (or under
$XDG_CONFIG_HOME when set). The MIXTAPE_FFMPEG and MIXTAPE_FFPLAY
environment variables override the stored tool paths, and flags
override both.

Available settings:
  ffmpeg_path   path to the ffmpeg binary
  ffplay_path   path to the ffplay binary
  bitrate       MP3 bitrate for .mp3 outputs (e.g. 192k)
  parallel      max concurrent extractions`,
		Example: `  mixtape config set bitrate 256k
  mixtape config get bitrate
  mixtape config list
  mixtape config path`,
	}

	cmd.AddCommand(configSetCmd(env), configGetCmd(env), configListCmd(env), configPathCmd(env))

	return cmd
}

func configSetCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(env, args[0], args[1])
		},
	}
}

func configGetCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigGet(env, args[0])
		},
	}
}

func configListCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all configuration values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigList(env)
		},
	}
}

func configPathCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigPath(env)
		},
	}
}

// runConfigSet validates and persists a configuration value.
func runConfigSet(env *Env, key, value string) error {
	if err := config.Set(key, value); err != nil {
		return err
	}

	// Echo the stored value, which may differ from the input for paths
	// with ~ expansion.
	stored, err := config.Get(key)
	if err != nil {
		return err
	}
	fmt.Fprintf(env.Stderr, "Set %s = %s\n", key, stored)
	return nil
}

// runConfigGet prints a configuration value to stdout. Unset values
// print nothing, so shell scripts can test for emptiness.
func runConfigGet(env *Env, key string) error {
	value, err := config.Get(key)
	if err != nil {
		return err
	}
	if value != "" {
		fmt.Fprintln(env.Stdout, value)
	}
	return nil
}

// runConfigList prints all set configuration values.
func runConfigList(env *Env) error {
	values, err := config.List()
	if err != nil {
		return err
	}

	found := false
	for _, key := range config.Keys() {
		if values[key] == "" {
			continue
		}
		fmt.Fprintf(env.Stdout, "%s=%s\n", key, values[key])
		found = true
	}
	if !found {
		fmt.Fprintln(env.Stdout, `No configuration set. Run "mixtape setup" or "mixtape config set".`)
	}
	return nil
}

// runConfigPath prints the config file location.
func runConfigPath(env *Env) error {
	p, err := config.Path()
	if err != nil {
		return err
	}
	fmt.Fprintln(env.Stdout, p)
	return nil
}

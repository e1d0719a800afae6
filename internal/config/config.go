// Package config persists user defaults under the user config
// directory and exposes them by key for the config subcommand.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config keys accepted by `mixtape config get/set`.
const (
	KeyFFmpegPath = "ffmpeg_path"
	KeyFFplayPath = "ffplay_path"
	KeyBitrate    = "bitrate"
	KeyParallel   = "parallel"
)

var (
	// ErrUnknownKey indicates a key outside the set above.
	ErrUnknownKey = errors.New("unknown config key")

	// ErrInvalidValue indicates a value the key cannot hold.
	ErrInvalidValue = errors.New("invalid config value")
)

// Keys returns every known key in display order.
func Keys() []string {
	return []string{KeyFFmpegPath, KeyFFplayPath, KeyBitrate, KeyParallel}
}

// Config holds persisted defaults loaded from
// ~/.config/mixtape/config.yaml. Zero values mean "not configured";
// callers layer their own defaults on top.
type Config struct {
	FFmpegPath string `yaml:"ffmpeg_path,omitempty"`
	FFplayPath string `yaml:"ffplay_path,omitempty"`
	Bitrate    string `yaml:"bitrate,omitempty"`
	Parallel   int    `yaml:"parallel,omitempty"`
}

// dir returns the configuration directory path.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config/mixtape.
func dir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "mixtape"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", "mixtape"), nil
}

// Path returns the full path to the config file.
func Path() (string, error) {
	d, err := dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, "config.yaml"), nil
}

// Load reads the configuration file. A missing file is not an error;
// it yields the zero Config.
func Load() (Config, error) {
	var cfg Config

	p, err := Path()
	if err != nil {
		return cfg, err
	}

	data, err := os.ReadFile(p) // #nosec G304 -- config path is constructed from home dir
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// Save writes the configuration, creating the config directory if
// needed. Comments in an existing file are not preserved.
func Save(cfg Config) error {
	p, err := Path()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(p), 0750); err != nil { // #nosec G301 -- user config dir
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if err := os.WriteFile(p, data, 0644); err != nil { // #nosec G306 -- config file with standard permissions
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Get reads a single value. Returns an empty string when the key is
// known but unset.
func Get(key string) (string, error) {
	cfg, err := Load()
	if err != nil {
		return "", err
	}
	value, ok := cfg.get(key)
	if !ok {
		return "", unknownKey(key)
	}
	return value, nil
}

// Set updates a single value and writes the file back.
func Set(key, value string) error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	if err := cfg.set(key, value); err != nil {
		return err
	}
	return Save(cfg)
}

// List returns every known key with its current value, unset keys
// included as empty strings.
func List() (map[string]string, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}
	values := make(map[string]string, len(Keys()))
	for _, key := range Keys() {
		value, _ := cfg.get(key)
		values[key] = value
	}
	return values, nil
}

func (c Config) get(key string) (string, bool) {
	switch key {
	case KeyFFmpegPath:
		return c.FFmpegPath, true
	case KeyFFplayPath:
		return c.FFplayPath, true
	case KeyBitrate:
		return c.Bitrate, true
	case KeyParallel:
		if c.Parallel == 0 {
			return "", true
		}
		return strconv.Itoa(c.Parallel), true
	default:
		return "", false
	}
}

func (c *Config) set(key, value string) error {
	switch key {
	case KeyFFmpegPath:
		c.FFmpegPath = ExpandPath(value)
	case KeyFFplayPath:
		c.FFplayPath = ExpandPath(value)
	case KeyBitrate:
		if value == "" {
			return fmt.Errorf("%w: bitrate cannot be empty", ErrInvalidValue)
		}
		c.Bitrate = value
	case KeyParallel:
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return fmt.Errorf("%w: parallel must be a positive integer, got %q", ErrInvalidValue, value)
		}
		c.Parallel = n
	default:
		return unknownKey(key)
	}
	return nil
}

func unknownKey(key string) error {
	return fmt.Errorf("%w: %q (known keys: %s)", ErrUnknownKey, key, strings.Join(Keys(), ", "))
}

// ExpandPath expands ~ to the user's home directory.
func ExpandPath(p string) string {
	if strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return p
		}
		return filepath.Join(home, p[2:])
	}
	return p
}

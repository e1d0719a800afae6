//go:build integration

package steps

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cucumber/godog"
	"go.uber.org/zap"

	"mixtape/internal/cli"
	"mixtape/internal/config"
	"mixtape/internal/engine"
	"mixtape/internal/logging"
	"mixtape/internal/pipeline"
	"mixtape/internal/render"
	"mixtape/internal/sink"
	"mixtape/internal/wav"
)

// clipFormat is the fixed PCM shape every fake clip uses: 8 kHz mono
// 8-bit keeps one second of audio at exactly 8000 bytes.
var clipFormat = wav.Format{SampleRate: 8000, Channels: 1, BitsPerSample: 8}

// clipPayload derives a repeated marker byte from the source name and
// window start, so assembled output identifies which windows went in.
func clipPayload(src string, start, length time.Duration) []byte {
	sum := 0
	for _, b := range []byte(src) {
		sum += int(b)
	}
	marker := byte(sum) + byte(start/time.Second)
	n := int(length.Seconds() * 8000)
	return bytes.Repeat([]byte{marker}, n)
}

// fakeProber answers duration queries from the scenario's library table.
type fakeProber struct {
	durations map[string]time.Duration
}

func (p *fakeProber) Probe(_ context.Context, path string) (time.Duration, error) {
	d, ok := p.durations[path]
	if !ok {
		return 0, fmt.Errorf("%w: unknown track %s", engine.ErrProbe, path)
	}
	return d, nil
}

// fakeClipper cuts deterministic byte patterns instead of running ffmpeg.
type fakeClipper struct{}

func (fakeClipper) Clip(_ context.Context, src string, start, length time.Duration, dst string) error {
	b, err := wav.Encode(wav.Audio{Format: clipFormat, Data: clipPayload(src, start, length)})
	if err != nil {
		return err
	}
	return os.WriteFile(dst, b, 0o600)
}

// fakeEncoder records bitrates and copies the staged bytes to dst.
type fakeEncoder struct {
	bitrates []string
}

func (e *fakeEncoder) Encode(_ context.Context, src, dst, bitrate string) error {
	e.bitrates = append(e.bitrates, bitrate)
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, append([]byte("MP3:"), data...), 0o644)
}

// fakePlayer captures the bytes that would have reached the device.
type fakePlayer struct {
	data []byte
}

func (p *fakePlayer) Play(_ context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	p.data = data
	return nil
}

// fixedEngines hands the scenario's fakes to every run.
type fixedEngines struct {
	engines pipeline.Engines
}

func (f fixedEngines) Engines(config.Config, bool) (pipeline.Engines, error) {
	return f.engines, nil
}

// zeroConfig stands in for an absent config file.
type zeroConfig struct{}

func (zeroConfig) Load() (config.Config, error) { return config.Config{}, nil }

// nopLoggers keeps scenario output limited to the captured streams.
type nopLoggers struct{}

func (nopLoggers) NewLogger(bool) (*zap.SugaredLogger, error) { return logging.Nop(), nil }

// mixContext holds test state for mix scenarios
type mixContext struct {
	durations map[string]time.Duration
	order     []string
	outDir    string
	encoder   *fakeEncoder
	player    *fakePlayer
	stdout    bytes.Buffer
	stderr    bytes.Buffer
	force     bool
	bitrate   string
	outPath   string
	err       error
}

// SharedMixContext is reset before each scenario via Before hook
var SharedMixContext *mixContext

func getMixContext() *mixContext {
	return SharedMixContext
}

func InitializeMixScenario(ctx *godog.ScenarioContext) {
	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		outDir, err := os.MkdirTemp("", "mixtape-features-")
		if err != nil {
			return c, err
		}
		SharedMixContext = &mixContext{
			durations: make(map[string]time.Duration),
			outDir:    outDir,
			encoder:   &fakeEncoder{},
			player:    &fakePlayer{},
		}
		return c, nil
	})

	ctx.After(func(c context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if SharedMixContext != nil {
			_ = os.RemoveAll(SharedMixContext.outDir)
		}
		SharedMixContext = nil
		return c, nil
	})

	ctx.Step(`^a library with the following tracks:$`, aLibraryWithTheFollowingTracks)
	ctx.Step(`^"([^"]*)" already exists in the output directory$`, alreadyExistsInTheOutputDirectory)
	ctx.Step(`^overwriting is allowed$`, overwritingIsAllowed)
	ctx.Step(`^the bitrate is "([^"]*)"$`, theBitrateIs)

	ctx.Step(`^I mix the beginning of "([^"]*)" with length (\d+) into "([^"]*)"$`, iMixTheBeginningOfWithLengthInto)
	ctx.Step(`^I mix the end of "([^"]*)" with length (\d+) into "([^"]*)"$`, iMixTheEndOfWithLengthInto)
	ctx.Step(`^I mix slices of "([^"]*)" with length (\d+) and skip (\d+) into "([^"]*)"$`, iMixSlicesOfWithLengthAndSkipInto)
	ctx.Step(`^I mix the library transition with length (\d+) into "([^"]*)"$`, iMixTheLibraryTransitionWithLengthInto)
	ctx.Step(`^I play the end of "([^"]*)" with length (\d+)$`, iPlayTheEndOfWithLength)

	ctx.Step(`^the run succeeds$`, theRunSucceeds)
	ctx.Step(`^the run is refused because the output exists$`, theRunIsRefusedBecauseTheOutputExists)
	ctx.Step(`^the run fails because nothing was extracted$`, theRunFailsBecauseNothingWasExtracted)
	ctx.Step(`^"([^"]*)" holds (\d+) seconds of audio$`, holdsSecondsOfAudio)
	ctx.Step(`^the progress log mentions "([^"]*)"$`, theProgressLogMentions)
	ctx.Step(`^a warning reports "([^"]*)"$`, aWarningReports)
	ctx.Step(`^the mix plays the clips in order:$`, theMixPlaysTheClipsInOrder)
	ctx.Step(`^the encoder was invoked with bitrate "([^"]*)"$`, theEncoderWasInvokedWithBitrate)
	ctx.Step(`^the playback device received (\d+) seconds of audio$`, thePlaybackDeviceReceivedSecondsOfAudio)
}

// run executes the root command against the scenario's fakes.
func (m *mixContext) run(args ...string) {
	env := cli.NewEnv(
		cli.WithStdout(&m.stdout),
		cli.WithStderr(&m.stderr),
		cli.WithConfigLoader(zeroConfig{}),
		cli.WithLoggerFactory(nopLoggers{}),
		cli.WithEngineFactory(fixedEngines{engines: pipeline.Engines{
			Prober:  &fakeProber{durations: m.durations},
			Clipper: fakeClipper{},
			Encoder: m.encoder,
			Player:  m.player,
		}}),
	)

	root := cli.RootCmd(env)
	root.SetArgs(args)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	m.err = root.ExecuteContext(context.Background())
}

func (m *mixContext) commonFlags(args []string) []string {
	if m.force {
		args = append(args, "--force")
	}
	if m.bitrate != "" {
		args = append(args, "--bitrate", m.bitrate)
	}
	return args
}

func (m *mixContext) decodeOutput(name string) (wav.Audio, error) {
	data, err := os.ReadFile(filepath.Join(m.outDir, name))
	if err != nil {
		return wav.Audio{}, fmt.Errorf("failed to read output: %w", err)
	}
	return wav.Decode(data)
}

func aLibraryWithTheFollowingTracks(table *godog.Table) error {
	m := getMixContext()
	m.durations = make(map[string]time.Duration)
	m.order = nil

	for i, row := range table.Rows {
		if i == 0 {
			continue // Skip header row
		}
		name := row.Cells[0].Value
		secs, err := strconv.ParseFloat(row.Cells[1].Value, 64)
		if err != nil {
			return fmt.Errorf("bad duration %q: %w", row.Cells[1].Value, err)
		}
		m.durations[name] = time.Duration(secs * float64(time.Second))
		m.order = append(m.order, name)
	}
	return nil
}

func alreadyExistsInTheOutputDirectory(name string) error {
	m := getMixContext()
	return os.WriteFile(filepath.Join(m.outDir, name), []byte("old mix"), 0o644)
}

func overwritingIsAllowed() error {
	getMixContext().force = true
	return nil
}

func theBitrateIs(bitrate string) error {
	getMixContext().bitrate = bitrate
	return nil
}

func iMixTheBeginningOfWithLengthInto(track string, length int, out string) error {
	m := getMixContext()
	m.outPath = filepath.Join(m.outDir, out)
	args := []string{"--beginning", "--length", strconv.Itoa(length), track, "--output", m.outPath}
	m.run(m.commonFlags(args)...)
	return nil
}

func iMixTheEndOfWithLengthInto(track string, length int, out string) error {
	m := getMixContext()
	m.outPath = filepath.Join(m.outDir, out)
	args := []string{"--end", "--length", strconv.Itoa(length), track, "--output", m.outPath}
	m.run(m.commonFlags(args)...)
	return nil
}

func iMixSlicesOfWithLengthAndSkipInto(track string, length, skip int, out string) error {
	m := getMixContext()
	m.outPath = filepath.Join(m.outDir, out)
	args := []string{
		"--slice",
		"--length", strconv.Itoa(length),
		"--skip", strconv.Itoa(skip),
		track,
		"--output", m.outPath,
	}
	m.run(m.commonFlags(args)...)
	return nil
}

func iMixTheLibraryTransitionWithLengthInto(length int, out string) error {
	m := getMixContext()
	m.outPath = filepath.Join(m.outDir, out)
	args := []string{"--transition", "--length", strconv.Itoa(length)}
	args = append(args, m.order...)
	args = append(args, "--output", m.outPath)
	m.run(m.commonFlags(args)...)
	return nil
}

func iPlayTheEndOfWithLength(track string, length int) error {
	m := getMixContext()
	args := []string{"--end", "--length", strconv.Itoa(length), track, "--play"}
	m.run(m.commonFlags(args)...)
	return nil
}

func theRunSucceeds() error {
	m := getMixContext()
	if m.err != nil {
		return fmt.Errorf("unexpected error: %v", m.err)
	}
	return nil
}

func theRunIsRefusedBecauseTheOutputExists() error {
	m := getMixContext()
	if m.err == nil {
		return fmt.Errorf("expected an error but got none")
	}
	if !errors.Is(m.err, sink.ErrOutputExists) {
		return fmt.Errorf("expected an existing-output error, got: %v", m.err)
	}
	return nil
}

func theRunFailsBecauseNothingWasExtracted() error {
	m := getMixContext()
	if m.err == nil {
		return fmt.Errorf("expected an error but got none")
	}
	if !errors.Is(m.err, render.ErrNoSegments) {
		return fmt.Errorf("expected a no-segments error, got: %v", m.err)
	}
	return nil
}

func holdsSecondsOfAudio(name string, secs int) error {
	m := getMixContext()
	audio, err := m.decodeOutput(name)
	if err != nil {
		return err
	}
	want := time.Duration(secs) * time.Second
	if audio.Duration() != want {
		return fmt.Errorf("expected %s of audio, got %s", want, audio.Duration())
	}
	return nil
}

func theProgressLogMentions(text string) error {
	m := getMixContext()
	if !strings.Contains(m.stderr.String(), text) {
		return fmt.Errorf("expected %q in progress log, got:\n%s", text, m.stderr.String())
	}
	return nil
}

func aWarningReports(text string) error {
	m := getMixContext()
	if !strings.Contains(m.stderr.String(), "warning: "+text) {
		return fmt.Errorf("expected warning %q, got:\n%s", text, m.stderr.String())
	}
	return nil
}

func theMixPlaysTheClipsInOrder(table *godog.Table) error {
	m := getMixContext()

	var want []byte
	for i, row := range table.Rows {
		if i == 0 {
			continue // Skip header row
		}
		track := row.Cells[0].Value
		start, err := strconv.Atoi(row.Cells[1].Value)
		if err != nil {
			return fmt.Errorf("bad start %q: %w", row.Cells[1].Value, err)
		}
		secs, err := strconv.Atoi(row.Cells[2].Value)
		if err != nil {
			return fmt.Errorf("bad length %q: %w", row.Cells[2].Value, err)
		}
		want = append(want, clipPayload(track,
			time.Duration(start)*time.Second, time.Duration(secs)*time.Second)...)
	}

	data, err := os.ReadFile(m.outPath)
	if err != nil {
		return fmt.Errorf("failed to read output: %w", err)
	}
	audio, err := wav.Decode(data)
	if err != nil {
		return err
	}
	if !bytes.Equal(audio.Data, want) {
		return fmt.Errorf("assembled payload does not match the expected clip order")
	}
	return nil
}

func theEncoderWasInvokedWithBitrate(bitrate string) error {
	m := getMixContext()
	if len(m.encoder.bitrates) == 0 {
		return fmt.Errorf("the encoder was not called")
	}
	if m.encoder.bitrates[0] != bitrate {
		return fmt.Errorf("expected bitrate %q, got %q", bitrate, m.encoder.bitrates[0])
	}
	return nil
}

func thePlaybackDeviceReceivedSecondsOfAudio(secs int) error {
	m := getMixContext()
	if len(m.player.data) == 0 {
		return fmt.Errorf("the player was not called")
	}
	audio, err := wav.Decode(m.player.data)
	if err != nil {
		return err
	}
	want := time.Duration(secs) * time.Second
	if audio.Duration() != want {
		return fmt.Errorf("expected %s of audio at the device, got %s", want, audio.Duration())
	}
	return nil
}

package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"sync"
	"testing"
	"time"

	"mixtape/internal/engine"
	"mixtape/internal/pipeline"
	"mixtape/internal/wav"
)

// ---------------------------------------------------------------------------
// syncBuffer - thread-safe bytes.Buffer for concurrent test output
// ---------------------------------------------------------------------------

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (n int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// Compile-time check that syncBuffer implements io.Writer.
var _ io.Writer = (*syncBuffer)(nil)

// ---------------------------------------------------------------------------
// testMocks - convenience struct for grouping all mocks and output buffers
// ---------------------------------------------------------------------------

type testMocks struct {
	stdout *syncBuffer
	stderr *syncBuffer

	configLoader  *mockConfigLoader
	engineFactory *mockEngineFactory
	loggerFactory *mockLoggerFactory
	toolVerifier  *mockToolVerifier
	prompter      *mockPrompter
}

func newTestMocks() *testMocks {
	return &testMocks{
		stdout:        &syncBuffer{},
		stderr:        &syncBuffer{},
		configLoader:  &mockConfigLoader{},
		engineFactory: &mockEngineFactory{},
		loggerFactory: &mockLoggerFactory{},
		toolVerifier:  &mockToolVerifier{},
		prompter:      &mockPrompter{},
	}
}

// testEnv creates a test Env with all dependencies mocked.
// Returns the Env and the mocks for assertions.
func testEnv() (*Env, *testMocks) {
	mocks := newTestMocks()
	env := &Env{
		Stdout:        mocks.stdout,
		Stderr:        mocks.stderr,
		LookPath:      func(string) (string, error) { return "", exec.ErrNotFound },
		ConfigLoader:  mocks.configLoader,
		EngineFactory: mocks.engineFactory,
		LoggerFactory: mocks.loggerFactory,
		ToolVerifier:  mocks.toolVerifier,
		Prompter:      mocks.prompter,
	}
	return env, mocks
}

// ---------------------------------------------------------------------------
// Fake engines - cut deterministic byte patterns instead of running ffmpeg
// ---------------------------------------------------------------------------

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

type fakeProber struct {
	durations map[string]time.Duration
}

func (p *fakeProber) Probe(_ context.Context, path string) (time.Duration, error) {
	d, ok := p.durations[path]
	if !ok {
		return 0, engine.ErrProbe
	}
	return d, nil
}

type fakeClipper struct {
	mu    sync.Mutex
	calls int
}

func (c *fakeClipper) Clip(_ context.Context, src string, start, length time.Duration, dst string) error {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()

	b, err := wav.Encode(wav.Audio{Format: clipFormat, Data: clipPayload(src, start, length)})
	if err != nil {
		return err
	}
	return os.WriteFile(dst, b, 0o600)
}

func (c *fakeClipper) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

type fakeEncoder struct {
	mu       sync.Mutex
	bitrates []string
}

func (e *fakeEncoder) Encode(_ context.Context, src, dst, bitrate string) error {
	e.mu.Lock()
	e.bitrates = append(e.bitrates, bitrate)
	e.mu.Unlock()

	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, append([]byte("MP3:"), data...), 0o644)
}

func (e *fakeEncoder) bitrateCalls() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.bitrates...)
}

type fakePlayer struct {
	err error

	mu   sync.Mutex
	data []byte
}

func (p *fakePlayer) Play(_ context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.data = data
	p.mu.Unlock()
	return p.err
}

func (p *fakePlayer) played() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.data
}

// engineFakes groups the fakes behind one engine set for assertions.
type engineFakes struct {
	prober  *fakeProber
	clipper *fakeClipper
	encoder *fakeEncoder
	player  *fakePlayer
}

// fakeEngines wires a full engine set over fakes. The clipper writes
// real wav files, so runs produce output that tests can decode.
func fakeEngines(durations map[string]time.Duration) (pipeline.Engines, *engineFakes) {
	f := &engineFakes{
		prober:  &fakeProber{durations: durations},
		clipper: &fakeClipper{},
		encoder: &fakeEncoder{},
		player:  &fakePlayer{},
	}
	engines := pipeline.Engines{
		Prober:  f.prober,
		Clipper: f.clipper,
		Encoder: f.encoder,
		Player:  f.player,
	}
	return engines, f
}

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

// executeRoot runs the root command with the given arguments. Cobra's
// own output is discarded; command output goes to the Env writers.
func executeRoot(t *testing.T, env *Env, args ...string) error {
	t.Helper()
	cmd := RootCmd(env)
	cmd.SetArgs(args)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	return cmd.ExecuteContext(context.Background())
}

func decodeWavFile(t *testing.T, path string) wav.Audio {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	audio, err := wav.Decode(data)
	if err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	return audio
}

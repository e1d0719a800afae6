package engine_test

// Notes:
// - ffmpeg execution is tested through a fake command runner; tests
//   assert the exact argument vectors and the sentinel wrapping.
// - Duration parsing runs against realistic ffmpeg stderr excerpts.

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"mixtape/internal/engine"
)

// fakeRunner records invocations and returns canned output.
type fakeRunner struct {
	output []byte
	err    error
	calls  [][]string
}

func (r *fakeRunner) CombinedOutput(_ context.Context, name string, args []string) ([]byte, error) {
	r.calls = append(r.calls, append([]string{name}, args...))
	return r.output, r.err
}

var _ engine.CommandRunner = (*fakeRunner)(nil)

const probeOutput = `Input #0, mp3, from 'song.mp3':
  Metadata:
    encoder         : Lavf58.76.100
  Duration: 00:03:20.45, start: 0.023021, bitrate: 192 kb/s
  Stream #0:0: Audio: mp3, 44100 Hz, stereo, fltp, 192 kb/s
`

const progressOnlyOutput = `size=N/A time=00:00:10.00 bitrate=N/A speed= 399x
size=N/A time=00:00:12.50 bitrate=N/A speed= 401x
`

// ---------------------------------------------------------------------------
// FFmpeg.Probe
// ---------------------------------------------------------------------------

func TestFFmpeg_Probe(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		output  string
		runErr  error
		want    time.Duration
		wantErr error
	}{
		{
			name:   "duration header",
			output: probeOutput,
			want:   3*time.Minute + 20*time.Second + 450*time.Millisecond,
		},
		{
			name:   "duration header despite non-zero exit",
			output: probeOutput,
			runErr: errors.New("exit status 1"),
			want:   3*time.Minute + 20*time.Second + 450*time.Millisecond,
		},
		{
			name:   "falls back to last progress stamp",
			output: progressOnlyOutput,
			want:   12*time.Second + 500*time.Millisecond,
		},
		{
			name:    "failure with no output",
			output:  "",
			runErr:  errors.New("no such file"),
			wantErr: engine.ErrProbe,
		},
		{
			name:    "unparseable output",
			output:  "song.mp3: Invalid data found when processing input",
			wantErr: engine.ErrProbe,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			runner := &fakeRunner{output: []byte(tt.output), err: tt.runErr}
			f, err := engine.NewFFmpeg("/usr/bin/ffmpeg", engine.WithFFmpegRunner(runner))
			if err != nil {
				t.Fatalf("NewFFmpeg() error = %v", err)
			}

			got, err := f.Probe(context.Background(), "song.mp3")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Probe() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Probe() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Probe() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFFmpeg_ProbeArgs(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{output: []byte(probeOutput)}
	f, _ := engine.NewFFmpeg("/usr/bin/ffmpeg", engine.WithFFmpegRunner(runner))

	if _, err := f.Probe(context.Background(), "in.mp3"); err != nil {
		t.Fatalf("Probe() error = %v", err)
	}

	want := []string{"/usr/bin/ffmpeg", "-i", "in.mp3", "-f", "null", "-"}
	assertCall(t, runner, want)
}

// ---------------------------------------------------------------------------
// FFmpeg.Clip
// ---------------------------------------------------------------------------

func TestFFmpeg_ClipArgs(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{}
	f, _ := engine.NewFFmpeg("/usr/bin/ffmpeg", engine.WithFFmpegRunner(runner))

	err := f.Clip(context.Background(), "song.mp3", 50*time.Second, 10*time.Second, "/tmp/task-000.wav")
	if err != nil {
		t.Fatalf("Clip() error = %v", err)
	}

	want := []string{
		"/usr/bin/ffmpeg",
		"-y",
		"-i", "song.mp3",
		"-ss", "00:00:50.000",
		"-to", "00:01:00.000",
		"-vn",
		"-acodec", "pcm_s16le",
		"/tmp/task-000.wav",
	}
	assertCall(t, runner, want)
}

func TestFFmpeg_ClipFailure(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{output: []byte("Invalid duration"), err: errors.New("exit status 1")}
	f, _ := engine.NewFFmpeg("/usr/bin/ffmpeg", engine.WithFFmpegRunner(runner))

	err := f.Clip(context.Background(), "/music/song.mp3", 0, 10*time.Second, "out.wav")
	if !errors.Is(err, engine.ErrExtraction) {
		t.Fatalf("Clip() error = %v, want ErrExtraction", err)
	}
	if !strings.Contains(err.Error(), "song.mp3") {
		t.Errorf("error %q does not name the source file", err)
	}
	if !strings.Contains(err.Error(), "Invalid duration") {
		t.Errorf("error %q does not carry ffmpeg output", err)
	}
}

// ---------------------------------------------------------------------------
// FFmpeg.Encode
// ---------------------------------------------------------------------------

func TestFFmpeg_EncodeArgs(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{}
	f, _ := engine.NewFFmpeg("/usr/bin/ffmpeg", engine.WithFFmpegRunner(runner))

	if err := f.Encode(context.Background(), "stage.wav", "out.mp3", "192k"); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	want := []string{
		"/usr/bin/ffmpeg",
		"-y",
		"-i", "stage.wav",
		"-vn",
		"-acodec", "libmp3lame",
		"-ab", "192k",
		"out.mp3",
	}
	assertCall(t, runner, want)
}

func TestFFmpeg_EncodeValidation(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{}
	f, _ := engine.NewFFmpeg("/usr/bin/ffmpeg", engine.WithFFmpegRunner(runner))

	if err := f.Encode(context.Background(), "stage.wav", "out.mp3", ""); !errors.Is(err, engine.ErrEncode) {
		t.Errorf("Encode() error = %v, want ErrEncode", err)
	}
	if len(runner.calls) != 0 {
		t.Errorf("ffmpeg was invoked despite invalid bitrate")
	}

	runner.err = errors.New("exit status 1")
	runner.output = []byte("Unknown encoder 'libmp3lame'")
	if err := f.Encode(context.Background(), "stage.wav", "out.mp3", "192k"); !errors.Is(err, engine.ErrEncode) {
		t.Errorf("Encode() error = %v, want ErrEncode", err)
	}
}

// ---------------------------------------------------------------------------
// FFmpeg.Verify
// ---------------------------------------------------------------------------

func TestFFmpeg_Verify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		output  string
		runErr  error
		wantErr bool
	}{
		{
			name:   "standard version banner",
			output: "ffmpeg version 6.1.1 Copyright (c) 2000-2023 the FFmpeg developers\n",
		},
		{
			name:    "no output at all",
			runErr:  errors.New("permission denied"),
			wantErr: true,
		},
		{
			name:    "unexpected banner",
			output:  "command not found\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			runner := &fakeRunner{output: []byte(tt.output), err: tt.runErr}
			f, _ := engine.NewFFmpeg("/usr/bin/ffmpeg", engine.WithFFmpegRunner(runner))

			err := f.Verify(context.Background())
			if tt.wantErr && !errors.Is(err, engine.ErrEngineNotFound) {
				t.Errorf("Verify() error = %v, want ErrEngineNotFound", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Verify() error = %v", err)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Constructors
// ---------------------------------------------------------------------------

func TestNewFFmpeg_RequiresPath(t *testing.T) {
	t.Parallel()

	if _, err := engine.NewFFmpeg(""); !errors.Is(err, engine.ErrEngineNotFound) {
		t.Errorf("NewFFmpeg(\"\") error = %v, want ErrEngineNotFound", err)
	}
}

func TestNewFFplay_RequiresPath(t *testing.T) {
	t.Parallel()

	if _, err := engine.NewFFplay(""); !errors.Is(err, engine.ErrEngineNotFound) {
		t.Errorf("NewFFplay(\"\") error = %v, want ErrEngineNotFound", err)
	}
	if _, err := engine.NewFFplay("/usr/bin/ffplay", engine.WithQuitGrace(time.Second)); err != nil {
		t.Errorf("NewFFplay() error = %v", err)
	}
}

func TestPlayArgs(t *testing.T) {
	t.Parallel()

	got := engine.PlayArgs("/tmp/assembled.wav")
	want := []string{"-autoexit", "-nodisp", "-loglevel", "error", "/tmp/assembled.wav"}
	if len(got) != len(want) {
		t.Fatalf("PlayArgs() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("arg %d = %q, want %q", i, got[i], want[i])
		}
	}
}

// ---------------------------------------------------------------------------
// Parsing and formatting helpers
// ---------------------------------------------------------------------------

func TestParseDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		output  string
		want    time.Duration
		wantErr bool
	}{
		{
			name:   "centisecond fraction",
			output: "Duration: 00:03:20.45, start: 0",
			want:   3*time.Minute + 20*time.Second + 450*time.Millisecond,
		},
		{
			name:   "single digit fraction",
			output: "Duration: 01:00:00.5",
			want:   time.Hour + 500*time.Millisecond,
		},
		{
			name:   "long fraction truncates to milliseconds",
			output: "Duration: 00:00:01.123456",
			want:   time.Second + 123*time.Millisecond,
		},
		{
			name:   "progress stamps use the last value",
			output: "time=00:00:05.00 ...\ntime=00:00:09.50 ...",
			want:   9*time.Second + 500*time.Millisecond,
		},
		{
			name:    "empty output",
			output:  "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := engine.ParseDuration(tt.output)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseDuration() = %v, want error", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDuration() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseDuration() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFormatTime(t *testing.T) {
	t.Parallel()

	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "00:00:00.000"},
		{50 * time.Second, "00:00:50.000"},
		{time.Minute, "00:01:00.000"},
		{90*time.Minute + 2500*time.Millisecond, "01:30:02.500"},
	}

	for _, tt := range tests {
		if got := engine.FormatTime(tt.d); got != tt.want {
			t.Errorf("FormatTime(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

// assertCall verifies the runner saw exactly one invocation with the
// given name+args vector.
func assertCall(t *testing.T, runner *fakeRunner, want []string) {
	t.Helper()
	if len(runner.calls) != 1 {
		t.Fatalf("got %d invocations, want 1", len(runner.calls))
	}
	got := runner.calls[0]
	if len(got) != len(want) {
		t.Fatalf("invocation = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("arg %d = %q, want %q", i, got[i], want[i])
		}
	}
}

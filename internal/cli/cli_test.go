package cli

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/forPelevin/audioconv/internal/logging"
	"github.com/forPelevin/audioconv/internal/transcode"
	"github.com/forPelevin/audioconv/internal/types"
)

func TestRequestFromFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want types.ConversionRequest
	}{
		{
			name: "wav defaults",
			args: []string{"convert", "in.flac"},
			want: types.NewWavRequest("in.flac", types.DefaultWavOptions()),
		},
		{
			name: "mp3 with options",
			args: []string{"convert", "in.flac", "--format", "MP3", "--sample-rate", "22050", "--channels", "1", "--bitrate", "128"},
			want: types.NewMp3Request("in.flac", types.Mp3Options{SampleRate: 22050, Channels: 1, Bitrate: 128}),
		},
		{
			name: "wav bit depth",
			args: []string{"convert", "in.flac", "--bit-depth", "24"},
			want: types.NewWavRequest("in.flac", types.WavOptions{SampleRate: 44100, Channels: 2, BitDepth: 24}),
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cmd := newConvertCmd()
			if err := cmd.ParseFlags(tc.args[2:]); err != nil {
				t.Fatalf("parse flags: %v", err)
			}
			got, err := requestFromFlags(cmd, tc.args[1])
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestRequestFromFlags_UnknownFormat(t *testing.T) {
	cmd := newConvertCmd()
	if err := cmd.ParseFlags([]string{"--format", "ogg"}); err != nil {
		t.Fatal(err)
	}
	if _, err := requestFromFlags(cmd, "in.flac"); !errors.Is(err, types.ErrUnknownFormat) {
		t.Fatalf("expected ErrUnknownFormat, got %v", err)
	}
}

func TestRoot_InvalidLogLevel(t *testing.T) {
	var out, errOut bytes.Buffer
	root := newRootCmd(&out, &errOut)
	root.SetArgs([]string{"wav", "in.flac", "--log-level", "loud"})

	err := root.Execute()
	if !errors.Is(err, logging.ErrInvalidLogLevel) {
		t.Fatalf("expected ErrInvalidLogLevel, got %v", err)
	}
}

func TestRoot_MissingEngine(t *testing.T) {
	var out, errOut bytes.Buffer
	root := newRootCmd(&out, &errOut)
	missing := filepath.Join(t.TempDir(), "no-ffmpeg")
	root.SetArgs([]string{"mp3", "in.flac", "--ffmpeg", missing, "--log-level", "error"})

	err := root.Execute()
	if !errors.Is(err, transcode.ErrEngineUnavailable) {
		t.Fatalf("expected ErrEngineUnavailable, got %v", err)
	}
	var rep reportedError
	if !errors.As(err, &rep) {
		t.Fatalf("expected the failure to be reported to the user")
	}
	if !strings.Contains(errOut.String(), "Conversion failed: ffmpeg is not available") {
		t.Fatalf("unexpected stderr: %q", errOut.String())
	}
	if strings.Contains(out.String(), "File converted successfully") {
		t.Fatalf("unexpected success message: %q", out.String())
	}
}

func TestCheck_MissingEngine(t *testing.T) {
	var out, errOut bytes.Buffer
	root := newRootCmd(&out, &errOut)
	root.SetArgs([]string{"check", "--ffmpeg", filepath.Join(t.TempDir(), "no-ffmpeg"), "--log-level", "error"})

	if err := root.Execute(); !errors.Is(err, transcode.ErrEngineUnavailable) {
		t.Fatalf("expected ErrEngineUnavailable, got %v", err)
	}
	if !strings.Contains(out.String(), "Download FFmpeg: https://ffmpeg.org/download.html") {
		t.Fatalf("expected download advisory, got %q", out.String())
	}
}

func TestProgressRenderer_PlainLines(t *testing.T) {
	var buf bytes.Buffer
	r := newProgressRenderer(&buf)
	r.Report(types.Progress{Percent: 0, Message: "Starting conversion..."})
	r.Report(types.Progress{Percent: 40, Increment: 40, Message: "Converting... 40%"})
	r.Close()

	want := "Starting conversion...\nConverting... 40%\n"
	if buf.String() != want {
		t.Fatalf("got %q, want %q", buf.String(), want)
	}
}

func TestProgressRenderer_TTYBar(t *testing.T) {
	var buf bytes.Buffer
	r := &progressRenderer{out: &buf, tty: true}
	r.Report(types.Progress{Percent: 50, Message: "Converting... 50%"})
	r.Close()

	got := buf.String()
	if !strings.HasPrefix(got, "\r["+strings.Repeat("#", 15)+strings.Repeat(".", 15)+"]  50%") {
		t.Fatalf("unexpected bar: %q", got)
	}
	if !strings.HasSuffix(got, "\n") {
		t.Fatalf("expected Close to end the bar line: %q", got)
	}
}

func TestBarClamps(t *testing.T) {
	if got := bar(-5); got != "["+strings.Repeat(".", barWidth)+"]" {
		t.Fatalf("bar(-5) = %q", got)
	}
	if got := bar(150); got != "["+strings.Repeat("#", barWidth)+"]" {
		t.Fatalf("bar(150) = %q", got)
	}
}

func TestGetenvDefault(t *testing.T) {
	t.Setenv("AUDIOCONV_TEST_VALUE", "")
	if got := getenvDefault("AUDIOCONV_TEST_VALUE", "def"); got != "def" {
		t.Fatalf("got %q", got)
	}
	t.Setenv("AUDIOCONV_TEST_VALUE", "set")
	if got := getenvDefault("AUDIOCONV_TEST_VALUE", "def"); got != "set" {
		t.Fatalf("got %q", got)
	}
}

package ffmpeg

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/forPelevin/audioconv/internal/ports"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func TestBuildArgs(t *testing.T) {
	got := buildArgs(ports.Invocation{
		InputPath:  "/in/song.flac",
		OutputPath: "/in/song_converted.wav",
		Args:       []string{"-ar", "44100", "-acodec", "pcm_s16le"},
	})
	want := []string{
		"-hide_banner", "-nostdin", "-y",
		"-progress", "pipe:1", "-nostats",
		"-i", "/in/song.flac",
		"-ar", "44100", "-acodec", "pcm_s16le",
		"/in/song_converted.wav",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("buildArgs() = %v, want %v", got, want)
	}
}

func TestAdapter_Version(t *testing.T) {
	dir := scriptDir(t)
	ff := writeScript(t, dir, "ffmpeg", `echo "ffmpeg version 6.1-test Copyright (c) the FFmpeg developers"
echo "built with gcc"`)

	a := New(ff, "", quietLogger())
	v, err := a.Version(context.Background())
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if v != "ffmpeg version 6.1-test Copyright (c) the FFmpeg developers" {
		t.Fatalf("unexpected version line: %q", v)
	}
}

func TestAdapter_VersionMissingBinary(t *testing.T) {
	a := New(filepath.Join(t.TempDir(), "no-such-ffmpeg"), "", quietLogger())
	if _, err := a.Version(context.Background()); err == nil {
		t.Fatalf("expected error for missing binary")
	}
}

func TestAdapter_StartSuccess(t *testing.T) {
	dir := scriptDir(t)
	ff := writeScript(t, dir, "ffmpeg", `printf 'out_time_us=2500000\nprogress=continue\nout_time_us=10000000\nprogress=end\n'`)
	fp := writeScript(t, dir, "ffprobe", `echo 10.0`)

	a := New(ff, fp, quietLogger())
	p, err := a.Start(context.Background(), ports.Invocation{InputPath: "in.flac", OutputPath: "out.wav"})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	evs := collect(t, p)

	kinds := make([]ports.EventKind, 0, len(evs))
	for _, ev := range evs {
		kinds = append(kinds, ev.Kind)
	}
	wantKinds := []ports.EventKind{ports.EventStart, ports.EventProgress, ports.EventProgress, ports.EventEnd}
	if !reflect.DeepEqual(kinds, wantKinds) {
		t.Fatalf("event kinds = %v, want %v", kinds, wantKinds)
	}
	if !strings.Contains(evs[0].CommandLine, "-progress pipe:1") {
		t.Fatalf("start event should carry the command line, got %q", evs[0].CommandLine)
	}
	if evs[1].Percent != 25 || evs[2].Percent != 100 {
		t.Fatalf("unexpected percents: %v, %v", evs[1].Percent, evs[2].Percent)
	}
}

func TestAdapter_StartFailureCarriesStderr(t *testing.T) {
	dir := scriptDir(t)
	ff := writeScript(t, dir, "ffmpeg", `echo "in.flac: Invalid data found when processing input" >&2
exit 1`)
	fp := writeScript(t, dir, "ffprobe", `exit 1`)

	a := New(ff, fp, quietLogger())
	p, err := a.Start(context.Background(), ports.Invocation{InputPath: "in.flac", OutputPath: "out.wav"})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	evs := collect(t, p)
	last := evs[len(evs)-1]
	if last.Kind != ports.EventError {
		t.Fatalf("expected terminal error event, got %v", last.Kind)
	}
	if !strings.Contains(last.Message, "Invalid data found when processing input") {
		t.Fatalf("expected stderr in message, got %q", last.Message)
	}
}

func TestAdapter_KillEndsProcess(t *testing.T) {
	dir := scriptDir(t)
	ff := writeScript(t, dir, "ffmpeg", `exec sleep 30`)
	fp := writeScript(t, dir, "ffprobe", `echo 10.0`)

	a := New(ff, fp, quietLogger())
	p, err := a.Start(context.Background(), ports.Invocation{InputPath: "in.flac", OutputPath: "out.wav"})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := p.Kill(); err != nil {
		t.Fatalf("kill: %v", err)
	}
	evs := collect(t, p)
	if evs[len(evs)-1].Kind != ports.EventError {
		t.Fatalf("expected killed process to end with an error event, got %+v", evs)
	}
	if err := p.Kill(); err != nil {
		t.Fatalf("second kill should be a no-op, got %v", err)
	}
}

func TestAdapter_OverlongProgressLineStillFinishes(t *testing.T) {
	dir := scriptDir(t)
	// One 200 KiB line overflows the scanner and more than fills the pipe.
	ff := writeScript(t, dir, "ffmpeg", `head -c 204800 /dev/zero | tr '\0' 'a'
echo
printf 'progress=end\n'`)
	fp := writeScript(t, dir, "ffprobe", `echo 10.0`)

	log, hook := test.NewNullLogger()
	a := New(ff, fp, log)
	p, err := a.Start(context.Background(), ports.Invocation{InputPath: "in.flac", OutputPath: "out.wav"})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	evs := collect(t, p)
	if last := evs[len(evs)-1]; last.Kind != ports.EventEnd {
		t.Fatalf("expected the process to finish normally, got %+v", last)
	}

	var warned bool
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel && e.Message == "stopped reading ffmpeg progress" {
			warned = true
		}
	}
	if !warned {
		t.Fatalf("expected a warning about the unreadable progress stream")
	}
}

func collect(t *testing.T, p ports.Process) []ports.Event {
	t.Helper()
	var evs []ports.Event
	timeout := time.After(10 * time.Second)
	for {
		select {
		case ev, ok := <-p.Events():
			if !ok {
				return evs
			}
			evs = append(evs, ev)
		case <-timeout:
			t.Fatalf("timed out waiting for process events, got %+v", evs)
		}
	}
}

func scriptDir(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fakes need a POSIX shell")
	}
	return t.TempDir()
}

func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func quietLogger() logrus.FieldLogger {
	l, _ := test.NewNullLogger()
	return l
}

package ffmpeg

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/forPelevin/audioconv/internal/ports"
	"github.com/sirupsen/logrus"
)

type Adapter struct {
	ffmpeg  string
	ffprobe string
	log     logrus.FieldLogger
}

func New(ffmpegPath, ffprobePath string, log logrus.FieldLogger) *Adapter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Adapter{ffmpeg: ffmpegPath, ffprobe: ffprobePath, log: log}
}

func (a *Adapter) Version(ctx context.Context) (string, error) {
	cmd := exec.CommandContext(ctx, a.ffmpeg, "-version")
	b, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("ffmpeg version: %w", err)
	}
	line := strings.TrimSpace(string(b))
	if i := strings.IndexByte(line, '\n'); i > 0 {
		line = strings.TrimSpace(line[:i])
	}
	return line, nil
}

func (a *Adapter) ProbeDuration(ctx context.Context, in string) (time.Duration, error) {
	cmd := exec.CommandContext(ctx, a.ffprobe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		in,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("ffprobe duration: %w\n%s", err, string(b))
	}
	s := strings.TrimSpace(string(b))
	sec, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", s, err)
	}
	return time.Duration(sec * float64(time.Second)), nil
}

// Start launches one conversion. The input duration is probed first so that
// progress events can carry a percent; when probing fails the job still
// runs, just without percentages.
func (a *Adapter) Start(ctx context.Context, inv ports.Invocation) (ports.Process, error) {
	total, err := a.ProbeDuration(ctx, inv.InputPath)
	if err != nil {
		a.log.WithError(err).WithField("input", inv.InputPath).Debug("duration unknown, progress without percent")
		total = 0
	}

	args := buildArgs(inv)
	cmd := exec.CommandContext(ctx, a.ffmpeg, args...) // #nosec G204 - args are internally constructed
	p, err := startProcess(cmd, total, a.log)
	if err != nil {
		return nil, fmt.Errorf("ffmpeg start: %w", err)
	}
	return p, nil
}

func buildArgs(inv ports.Invocation) []string {
	args := make([]string, 0, 12+len(inv.Args))
	args = append(args,
		"-hide_banner",
		"-nostdin",
		"-y",
		"-progress", "pipe:1",
		"-nostats",
		"-i", inv.InputPath,
	)
	args = append(args, inv.Args...)
	return append(args, inv.OutputPath)
}

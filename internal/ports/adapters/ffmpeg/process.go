package ffmpeg

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/forPelevin/audioconv/internal/ports"
	"github.com/sirupsen/logrus"
)

const stderrTailLines = 20

type process struct {
	cmd    *exec.Cmd
	events chan ports.Event
	stderr *tailBuffer
}

func startProcess(cmd *exec.Cmd, total time.Duration, log logrus.FieldLogger) (*process, error) {
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	p := &process{
		cmd:    cmd,
		events: make(chan ports.Event, 16),
		stderr: &tailBuffer{max: stderrTailLines},
	}
	cmd.Stderr = p.stderr

	if err := cmd.Start(); err != nil {
		return nil, err
	}
	p.events <- ports.Event{Kind: ports.EventStart, CommandLine: strings.Join(cmd.Args, " ")}

	go func() {
		defer close(p.events)
		if err := readProgress(stdout, total, func(ev ports.Event) { p.events <- ev }); err != nil {
			// Keep the pipe drained so ffmpeg never blocks on a full stdout.
			log.WithError(err).Warn("stopped reading ffmpeg progress")
			_, _ = io.Copy(io.Discard, stdout)
		}
		if err := cmd.Wait(); err != nil {
			p.events <- ports.Event{Kind: ports.EventError, Message: p.failureMessage(err)}
			return
		}
		p.events <- ports.Event{Kind: ports.EventEnd}
	}()
	return p, nil
}

func (p *process) Events() <-chan ports.Event { return p.events }

func (p *process) Kill() error {
	if p.cmd.Process == nil {
		return nil
	}
	if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	return nil
}

func (p *process) failureMessage(err error) string {
	tail := p.stderr.String()
	if tail == "" {
		return err.Error()
	}
	return fmt.Sprintf("%v: %s", err, tail)
}

// tailBuffer keeps the last max lines written to it.
type tailBuffer struct {
	mu      sync.Mutex
	max     int
	lines   []string
	partial string
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	parts := strings.Split(b.partial+string(p), "\n")
	b.partial = parts[len(parts)-1]
	for _, l := range parts[:len(parts)-1] {
		l = strings.TrimRight(l, "\r")
		if strings.TrimSpace(l) == "" {
			continue
		}
		b.lines = append(b.lines, l)
	}
	if over := len(b.lines) - b.max; over > 0 {
		b.lines = append(b.lines[:0], b.lines[over:]...)
	}
	return len(p), nil
}

func (b *tailBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	lines := b.lines
	if s := strings.TrimSpace(b.partial); s != "" {
		lines = append(append([]string(nil), lines...), s)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

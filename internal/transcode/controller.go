package transcode

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/forPelevin/audioconv/internal/domain/codec"
	"github.com/forPelevin/audioconv/internal/domain/naming"
	"github.com/forPelevin/audioconv/internal/metrics"
	"github.com/forPelevin/audioconv/internal/ports"
	"github.com/forPelevin/audioconv/internal/types"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	AdvisoryMissingEngine = "FFmpeg not found in system PATH. Please install FFmpeg for audio conversion to work."
	AdvisoryActionLabel   = "Download FFmpeg"
	AdvisoryActionURL     = "https://ffmpeg.org/download.html"

	defaultProbeTimeout = 10 * time.Second
)

// Availability is the engine probe state. It starts Unprobed and moves to
// Available or Unavailable once a probe finishes.
type Availability int

const (
	Unprobed Availability = iota
	Available
	Unavailable
)

func (a Availability) String() string {
	switch a {
	case Available:
		return "available"
	case Unavailable:
		return "unavailable"
	default:
		return "unprobed"
	}
}

type Deps struct {
	Engine   ports.Engine
	Notifier ports.Notifier
	Log      logrus.FieldLogger
}

type Options struct {
	// KeepPartial leaves partially written output in place when a job is
	// cancelled. Engine failures always remove partial output.
	KeepPartial bool

	// ProbeTimeout bounds the startup probe. Zero means 10s.
	ProbeTimeout time.Duration
}

// ProgressFunc receives progress reports in order from the job's goroutine.
// It is never called after the job settles.
type ProgressFunc func(types.Progress)

type Controller struct {
	d    Deps
	opts Options

	probeMu sync.Mutex

	mu      sync.Mutex
	state   Availability
	version string
	ready   chan struct{}
	jobs    *registry

	wg sync.WaitGroup
}

// New returns a controller and starts probing the engine in the background.
// Convert calls made before the probe finishes wait for it.
func New(d Deps, opts Options) *Controller {
	if d.Log == nil {
		d.Log = logrus.StandardLogger()
	}
	if d.Notifier == nil {
		d.Notifier = nopNotifier{}
	}
	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = defaultProbeTimeout
	}
	c := &Controller{
		d:     d,
		opts:  opts,
		ready: make(chan struct{}),
		jobs:  newRegistry(),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), opts.ProbeTimeout)
		defer cancel()
		c.probe(ctx, Unprobed, "")
	}()
	return c
}

// Availability returns the current probe state without waiting.
func (c *Controller) Availability() Availability {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// EngineVersion returns the version line reported by the last successful probe.
func (c *Controller) EngineVersion() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.version
}

// Ready blocks until the current probe has finished.
func (c *Controller) Ready(ctx context.Context) (Availability, error) {
	c.mu.Lock()
	ready := c.ready
	c.mu.Unlock()

	select {
	case <-ready:
		return c.Availability(), nil
	case <-ctx.Done():
		return Unprobed, ctx.Err()
	}
}

// Reprobe runs the probe again, e.g. after ffmpeg was installed. Convert
// calls made while it runs wait for the new result. The probe runs under
// its own ProbeTimeout; ctx only bounds how long Reprobe waits for it, and
// the current state is returned when ctx ends first.
func (c *Controller) Reprobe(ctx context.Context) Availability {
	c.mu.Lock()
	prev, prevVersion := c.state, c.version
	select {
	case <-c.ready:
		c.state = Unprobed
		c.ready = make(chan struct{})
	default:
	}
	c.mu.Unlock()

	done := make(chan Availability, 1)
	go func() {
		probeCtx, cancel := context.WithTimeout(context.Background(), c.opts.ProbeTimeout)
		defer cancel()
		done <- c.probe(probeCtx, prev, prevVersion)
	}()

	select {
	case state := <-done:
		return state
	case <-ctx.Done():
		return c.Availability()
	}
}

// probe runs the version query. A probe cut short by its context says
// nothing about whether ffmpeg is installed: the previous result is kept,
// and a first probe that times out is Unavailable without the advisory.
func (c *Controller) probe(ctx context.Context, prev Availability, prevVersion string) Availability {
	c.probeMu.Lock()
	defer c.probeMu.Unlock()

	v, err := c.d.Engine.Version(ctx)

	state := Available
	switch {
	case err == nil:
		c.d.Log.WithField("version", v).Info("FFmpeg found in system PATH")
	case ctx.Err() != nil:
		state, v = prev, prevVersion
		if state == Unprobed {
			state = Unavailable
		}
		c.d.Log.WithError(err).WithField("state", state).Warn("engine probe timed out")
	default:
		state, v = Unavailable, ""
		c.d.Log.WithError(err).Warn("conversion engine not found")
		c.d.Notifier.Advise(AdvisoryMissingEngine, AdvisoryActionLabel, AdvisoryActionURL)
	}
	if state == Available {
		metrics.EngineAvailable.Set(1)
	} else {
		metrics.EngineAvailable.Set(0)
	}

	// Waiters are released only after the advisory went out.
	c.mu.Lock()
	c.state = state
	c.version = v
	select {
	case <-c.ready:
	default:
		close(c.ready)
	}
	c.mu.Unlock()
	return state
}

// Convert validates req and starts one engine process for it. The returned
// job runs until the engine finishes, fails, or ctx / Job.Cancel cancels
// it. Errors returned here mean no process was spawned.
func (c *Controller) Convert(ctx context.Context, req types.ConversionRequest, onProgress ProgressFunc) (*Job, error) {
	// Everything downstream (option block, codec args, output extension)
	// keys off the canonical lower-case format.
	if f, err := types.ParseFormat(string(req.Format)); err == nil {
		req.Format = f
	}
	label := formatLabel(req.Format)

	state, err := c.Ready(ctx)
	if err != nil {
		return nil, fmt.Errorf("waiting for engine probe: %w", err)
	}
	if state != Available {
		metrics.JobsTotal.WithLabelValues(label, metrics.OutcomeRejected).Inc()
		return nil, ErrEngineUnavailable
	}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	if _, err := os.Stat(req.InputPath); err != nil {
		metrics.JobsTotal.WithLabelValues(label, metrics.OutcomeRejected).Inc()
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrInputNotFound, req.InputPath)
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrInputNotFound, req.InputPath, err)
	}

	out := naming.OutputPath(req.InputPath, req.Format)
	jobCtx, cancel := context.WithCancel(ctx)
	j := newJob(jobCtx, cancel, uuid.NewString(), req, out, onProgress)

	if !c.jobs.reserve(naming.Canonical(out), j) {
		cancel()
		metrics.JobsTotal.WithLabelValues(label, metrics.OutcomeRejected).Inc()
		return nil, fmt.Errorf("%w: %s", ErrJobInProgress, out)
	}

	log := c.d.Log.WithFields(logrus.Fields{
		"job":    j.ID,
		"format": req.Format,
		"input":  req.InputPath,
	})

	proc, err := c.d.Engine.Start(jobCtx, ports.Invocation{
		InputPath:  req.InputPath,
		OutputPath: out,
		Args:       codec.Args(req),
	})
	if err != nil {
		cancelled := jobCtx.Err() != nil
		c.jobs.release(j)
		cancel()
		if cancelled {
			metrics.JobsTotal.WithLabelValues(label, metrics.OutcomeCancelled).Inc()
			log.WithError(err).Info("conversion cancelled before the engine started")
			return nil, ErrCancelled
		}
		metrics.JobsTotal.WithLabelValues(label, metrics.OutcomeFailed).Inc()
		log.WithError(err).Error("failed to start engine")
		return nil, &ConversionError{Format: req.Format, Detail: err.Error()}
	}

	metrics.JobsInFlight.Inc()
	c.wg.Add(1)
	go c.run(j, proc, log)
	return j, nil
}

// InFlight returns snapshots of the jobs that have not settled yet.
func (c *Controller) InFlight() []types.JobSnapshot {
	jobs := c.jobs.list()
	out := make([]types.JobSnapshot, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, j.Snapshot())
	}
	return out
}

// Shutdown cancels every running job and waits for them to settle.
func (c *Controller) Shutdown(ctx context.Context) error {
	for _, j := range c.jobs.list() {
		j.Cancel()
	}
	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// formatLabel bounds the metric label to the known formats.
func formatLabel(f types.Format) string {
	switch f {
	case types.FormatWAV, types.FormatMP3:
		return string(f)
	default:
		return "unknown"
	}
}

type nopNotifier struct{}

func (nopNotifier) Advise(string, string, string) {}

package transcode

import (
	"context"
	"errors"
	"os"
	"sync"
	"time"

	"github.com/forPelevin/audioconv/internal/domain/progress"
	"github.com/forPelevin/audioconv/internal/metrics"
	"github.com/forPelevin/audioconv/internal/ports"
	"github.com/forPelevin/audioconv/internal/types"
	"github.com/sirupsen/logrus"
)

// Job is one running engine invocation. It settles exactly once: completed
// with its output path, failed with a *ConversionError, or cancelled with
// ErrCancelled.
type Job struct {
	ID         string
	Request    types.ConversionRequest
	OutputPath string
	StartedAt  time.Time

	ctx        context.Context
	cancel     context.CancelFunc
	onProgress ProgressFunc
	tracker    progress.Tracker
	done       chan struct{}

	mu      sync.Mutex
	state   types.JobState
	percent int
	err     error
}

func newJob(ctx context.Context, cancel context.CancelFunc, id string, req types.ConversionRequest, out string, onProgress ProgressFunc) *Job {
	return &Job{
		ID:         id,
		Request:    req,
		OutputPath: out,
		StartedAt:  time.Now(),
		ctx:        ctx,
		cancel:     cancel,
		onProgress: onProgress,
		done:       make(chan struct{}),
		state:      types.JobRunning,
	}
}

// Cancel requests cancellation. It is a no-op once the job has settled.
func (j *Job) Cancel() { j.cancel() }

// Done is closed when the job settles.
func (j *Job) Done() <-chan struct{} { return j.done }

// Wait blocks until the job settles or ctx is done. Cancelling ctx only
// stops waiting; use Cancel to stop the job.
func (j *Job) Wait(ctx context.Context) (string, error) {
	select {
	case <-j.done:
		return j.Result()
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Result returns the settled outcome; before settlement it returns an
// empty path and a nil error.
func (j *Job) Result() (string, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state == types.JobCompleted {
		return j.OutputPath, nil
	}
	return "", j.err
}

func (j *Job) Snapshot() types.JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	s := types.JobSnapshot{
		ID:         j.ID,
		Request:    j.Request,
		OutputPath: j.OutputPath,
		State:      j.state,
		Percent:    j.percent,
	}
	if j.err != nil {
		s.Error = j.err.Error()
	}
	return s
}

func (j *Job) report(p types.Progress) {
	j.mu.Lock()
	j.percent = p.Percent
	j.mu.Unlock()
	if j.onProgress != nil {
		j.onProgress(p)
	}
}

func (j *Job) settle(state types.JobState, err error) {
	j.mu.Lock()
	j.state = state
	j.err = err
	j.mu.Unlock()
	j.cancel()
	close(j.done)
}

// run relays engine events to the job until a terminal event arrives or the
// job is cancelled.
func (c *Controller) run(j *Job, proc ports.Process, log logrus.FieldLogger) {
	defer func() {
		metrics.JobsInFlight.Dec()
		metrics.JobDuration.WithLabelValues(string(j.Request.Format)).Observe(time.Since(j.StartedAt).Seconds())
		c.wg.Done()
	}()

	events := proc.Events()
	for {
		select {
		case <-j.ctx.Done():
			c.cancelJob(j, proc, events, log)
			return
		case ev, ok := <-events:
			if j.ctx.Err() != nil {
				c.cancelJob(j, proc, events, log)
				return
			}
			if !ok {
				c.failJob(j, "engine exited without reporting a result", log)
				return
			}
			switch ev.Kind {
			case ports.EventStart:
				log.WithField("command", ev.CommandLine).Debug("FFmpeg command")
				j.report(j.tracker.Start())
			case ports.EventProgress:
				if !ev.HasPercent {
					continue
				}
				if p, ok := j.tracker.Observe(ev.Percent); ok {
					j.report(p)
				}
			case ports.EventEnd:
				j.report(j.tracker.Complete())
				c.finish(j, types.JobCompleted, nil)
				metrics.JobsTotal.WithLabelValues(string(j.Request.Format), metrics.OutcomeCompleted).Inc()
				log.WithField("output", j.OutputPath).Info("conversion completed successfully")
				return
			case ports.EventError:
				c.failJob(j, ev.Message, log)
				return
			}
		}
	}
}

// finish frees the job's output slot before settling so a caller woken by
// the settlement can immediately resubmit the same conversion.
func (c *Controller) finish(j *Job, state types.JobState, err error) {
	c.jobs.release(j)
	j.settle(state, err)
}

func (c *Controller) failJob(j *Job, detail string, log logrus.FieldLogger) {
	log.WithField("detail", detail).Error("conversion error")
	c.removePartial(j.OutputPath, log)
	c.finish(j, types.JobFailed, &ConversionError{Format: j.Request.Format, Detail: detail})
	metrics.JobsTotal.WithLabelValues(string(j.Request.Format), metrics.OutcomeFailed).Inc()
}

// cancelJob kills the engine and waits for it to exit so that cleanup does
// not race the engine's own writes.
func (c *Controller) cancelJob(j *Job, proc ports.Process, events <-chan ports.Event, log logrus.FieldLogger) {
	if err := proc.Kill(); err != nil {
		log.WithError(err).Warn("failed to kill engine process")
	}
	for range events {
	}
	if c.opts.KeepPartial {
		log.WithField("output", j.OutputPath).Debug("keeping partial output after cancellation")
	} else {
		c.removePartial(j.OutputPath, log)
	}
	c.finish(j, types.JobCancelled, ErrCancelled)
	metrics.JobsTotal.WithLabelValues(string(j.Request.Format), metrics.OutcomeCancelled).Inc()
	log.Info("conversion cancelled")
}

// removePartial deletes path if it exists. Failure is logged and counted
// but never changes the job outcome.
func (c *Controller) removePartial(path string, log logrus.FieldLogger) {
	if _, err := os.Stat(path); err != nil {
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		metrics.CleanupFailures.Inc()
		log.WithError(err).WithField("output", path).Error("failed to clean up partial file")
		return
	}
	log.WithField("output", path).Debug("removed partial output")
}

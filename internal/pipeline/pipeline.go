package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/forPelevin/audioconv/internal/logging"
	"github.com/forPelevin/audioconv/internal/ports"
	"github.com/forPelevin/audioconv/internal/ports/adapters/ffmpeg"
	"github.com/forPelevin/audioconv/internal/ports/adapters/notifier"
	"github.com/forPelevin/audioconv/internal/transcode"
	"github.com/forPelevin/audioconv/internal/types"
	"github.com/sirupsen/logrus"
)

var (
	ErrFFmpegPathEmpty  = errors.New("ffmpeg path is empty")
	ErrFFprobePathEmpty = errors.New("ffprobe path is empty")
	ErrNegativeTimeout  = errors.New("timeout must be >= 0")
)

type Config struct {
	FFmpegPath  string
	FFprobePath string
	LogLevel    string

	// KeepPartial keeps partially written output of cancelled jobs.
	KeepPartial bool

	ProbeTimeout time.Duration
	// Timeout bounds a single CLI conversion. Zero means no limit.
	Timeout time.Duration
}

func (c Config) Validate() error {
	if c.FFmpegPath == "" {
		return ErrFFmpegPathEmpty
	}
	if c.FFprobePath == "" {
		return ErrFFprobePathEmpty
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.ProbeTimeout < 0 {
		return fmt.Errorf("probe %w", ErrNegativeTimeout)
	}
	if c.Timeout < 0 {
		return ErrNegativeTimeout
	}
	return nil
}

// Service is the wired conversion stack.
type Service struct {
	Controller *transcode.Controller
	Advisories *notifier.Log
}

// New wires the ffmpeg adapter and the log notifier into a controller. The
// controller starts probing the engine immediately.
func New(cfg Config, log logrus.FieldLogger) *Service {
	return NewWithEngine(cfg, ffmpeg.New(cfg.FFmpegPath, cfg.FFprobePath, log), log)
}

func NewWithEngine(cfg Config, engine ports.Engine, log logrus.FieldLogger) *Service {
	n := notifier.New(log)
	c := transcode.New(transcode.Deps{
		Engine:   engine,
		Notifier: n,
		Log:      log,
	}, transcode.Options{
		KeepPartial:  cfg.KeepPartial,
		ProbeTimeout: cfg.ProbeTimeout,
	})
	return &Service{Controller: c, Advisories: n}
}

// Run converts one file and blocks until the job settles. Cancelling ctx
// cancels the job; Run still waits for its cleanup before returning.
func Run(ctx context.Context, s *Service, req types.ConversionRequest, onProgress transcode.ProgressFunc) (string, error) {
	job, err := s.Controller.Convert(ctx, req, onProgress)
	if err != nil {
		return "", err
	}
	<-job.Done()
	return job.Result()
}

// ensure adapters implement ports
var _ ports.Engine = (*ffmpeg.Adapter)(nil)
var _ ports.Notifier = (*notifier.Log)(nil)

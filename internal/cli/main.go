package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/forPelevin/audioconv/internal/logging"
	"github.com/forPelevin/audioconv/internal/pipeline"
	"github.com/forPelevin/audioconv/internal/transcode"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// exitCancelled follows the shell convention for SIGINT.
const exitCancelled = 130

func Main() {
	_ = godotenv.Load() // best-effort: load .env if present

	root := newRootCmd(os.Stdout, os.Stderr)
	if err := root.Execute(); err != nil {
		var rep reportedError
		if !errors.As(err, &rep) {
			fmt.Fprintln(os.Stderr, err)
		}
		if errors.Is(err, transcode.ErrCancelled) {
			os.Exit(exitCancelled)
		}
		os.Exit(1)
	}
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "audioconv",
		Short:         "Convert audio files to WAV or MP3 with ffmpeg",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.SetErr(errOut)

	pf := root.PersistentFlags()
	pf.String("ffmpeg", getenvDefault("AUDIOCONV_FFMPEG", "ffmpeg"), "Path to the ffmpeg binary")
	pf.String("ffprobe", getenvDefault("AUDIOCONV_FFPROBE", "ffprobe"), "Path to the ffprobe binary")
	pf.String("log-level", getenvDefault("LOG_LEVEL", "info"), "Log level: debug, info, warn, error")
	pf.Bool("keep-partial", false, "Keep partially written output when a conversion is cancelled")
	pf.Duration("timeout", 0, "Cancel a conversion that runs longer than this (0 = no limit)")

	// Hidden tuning flag (internal)
	pf.Duration("probe-timeout", 10*time.Second, "Max time to wait for the ffmpeg probe")
	_ = pf.MarkHidden("probe-timeout")

	root.AddCommand(
		newConvertCmd(),
		newWavCmd(),
		newMp3Cmd(),
		newCheckCmd(),
		newServeCmd(),
	)
	return root
}

func configFromFlags(cmd *cobra.Command) (pipeline.Config, error) {
	f := cmd.Flags()
	ffmpegPath, _ := f.GetString("ffmpeg")
	ffprobePath, _ := f.GetString("ffprobe")
	level, _ := f.GetString("log-level")
	keep, _ := f.GetBool("keep-partial")
	timeout, _ := f.GetDuration("timeout")
	probeTimeout, _ := f.GetDuration("probe-timeout")

	cfg := pipeline.Config{
		FFmpegPath:   ffmpegPath,
		FFprobePath:  ffprobePath,
		LogLevel:     level,
		KeepPartial:  keep,
		ProbeTimeout: probeTimeout,
		Timeout:      timeout,
	}
	if err := cfg.Validate(); err != nil {
		return pipeline.Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// setup validates the flags and returns the wired service. Logs go to the
// command's stderr so stdout carries only user-facing messages.
func setup(cmd *cobra.Command) (pipeline.Config, *pipeline.Service, *logrus.Logger, error) {
	cfg, err := configFromFlags(cmd)
	if err != nil {
		return pipeline.Config{}, nil, nil, err
	}
	log, err := logging.New(cmd.ErrOrStderr(), cfg.LogLevel)
	if err != nil {
		return pipeline.Config{}, nil, nil, fmt.Errorf("config: %w", err)
	}
	return cfg, pipeline.New(cfg, log), log, nil
}

func getenvDefault(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

// reportedError marks an error whose message was already shown to the user.
type reportedError struct{ error }

func (e reportedError) Unwrap() error { return e.error }

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/forPelevin/audioconv/internal/pipeline"
	"github.com/forPelevin/audioconv/internal/transcode"
	"github.com/forPelevin/audioconv/internal/types"
	"github.com/spf13/cobra"
)

func newConvertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert <input>",
		Short: "Convert with explicit format and options",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := requestFromFlags(cmd, args[0])
			if err != nil {
				return err
			}
			return runConversion(cmd, req)
		},
	}
	f := cmd.Flags()
	f.String("format", "wav", "Target format: wav or mp3")
	f.Int("sample-rate", types.DefaultSampleRate, "Output sample rate in Hz (8000-192000)")
	f.Int("channels", types.DefaultChannels, "Output channels (1 or 2)")
	f.Int("bit-depth", types.DefaultBitDepth, "WAV bit depth (16, 24 or 32)")
	f.Int("bitrate", types.DefaultBitrate, "MP3 bitrate in kbps")
	return cmd
}

func newWavCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "wav <input>",
		Short: "Convert to WAV (44.1 kHz, stereo, 16-bit)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConversion(cmd, types.NewWavRequest(args[0], types.DefaultWavOptions()))
		},
	}
}

func newMp3Cmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mp3 <input>",
		Short: "Convert to MP3 (44.1 kHz, stereo, 320 kbps)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConversion(cmd, types.NewMp3Request(args[0], types.DefaultMp3Options()))
		},
	}
}

func requestFromFlags(cmd *cobra.Command, input string) (types.ConversionRequest, error) {
	f := cmd.Flags()
	formatStr, _ := f.GetString("format")
	sampleRate, _ := f.GetInt("sample-rate")
	channels, _ := f.GetInt("channels")
	bitDepth, _ := f.GetInt("bit-depth")
	bitrate, _ := f.GetInt("bitrate")

	format, err := types.ParseFormat(formatStr)
	if err != nil {
		return types.ConversionRequest{}, err
	}
	if format == types.FormatMP3 {
		return types.NewMp3Request(input, types.Mp3Options{
			SampleRate: sampleRate,
			Channels:   channels,
			Bitrate:    bitrate,
		}), nil
	}
	return types.NewWavRequest(input, types.WavOptions{
		SampleRate: sampleRate,
		Channels:   channels,
		BitDepth:   bitDepth,
	}), nil
}

func runConversion(cmd *cobra.Command, req types.ConversionRequest) error {
	cfg, svc, log, err := setup(cmd)
	if err != nil {
		return err
	}

	absIn, err := filepath.Abs(req.InputPath)
	if err != nil {
		return err
	}
	req.InputPath = absIn

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	log.WithField("input", absIn).WithField("format", req.Format).Debug("starting conversion")

	r := newProgressRenderer(cmd.OutOrStdout())
	out, err := pipeline.Run(ctx, svc, req, r.Report)
	r.Close()
	if err != nil {
		if errors.Is(err, transcode.ErrCancelled) && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("timed out after %s: %w", cfg.Timeout, err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Conversion failed: %v\n", err)
		return reportedError{err}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "File converted successfully: %s\n", out)
	return nil
}

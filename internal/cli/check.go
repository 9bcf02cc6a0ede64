package cli

import (
	"fmt"

	"github.com/forPelevin/audioconv/internal/transcode"
	"github.com/spf13/cobra"
)

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check that ffmpeg is installed and usable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, svc, _, err := setup(cmd)
			if err != nil {
				return err
			}
			// The probe itself is bounded by --probe-timeout.
			state, err := svc.Controller.Ready(cmd.Context())
			if err != nil {
				return fmt.Errorf("waiting for engine probe: %w", err)
			}
			out := cmd.OutOrStdout()
			if state != transcode.Available {
				fmt.Fprintln(out, transcode.AdvisoryMissingEngine)
				fmt.Fprintf(out, "%s: %s\n", transcode.AdvisoryActionLabel, transcode.AdvisoryActionURL)
				return reportedError{transcode.ErrEngineUnavailable}
			}
			fmt.Fprintf(out, "ffmpeg: %s\n", svc.Controller.EngineVersion())
			return nil
		},
	}
}

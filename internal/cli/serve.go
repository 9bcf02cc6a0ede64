package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/forPelevin/audioconv/internal/metrics"
	"github.com/forPelevin/audioconv/internal/server"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the conversion HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			addr, _ := cmd.Flags().GetString("addr")
			historySize, _ := cmd.Flags().GetInt("history")

			_, svc, log, err := setup(cmd)
			if err != nil {
				return err
			}
			metrics.InitializeMetrics()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return server.New(ctx, svc, log, historySize).ListenAndServe(ctx, addr)
		},
	}
	cmd.Flags().String("addr", getenvDefault("AUDIOCONV_ADDR", server.DefaultAddr), "Listen address")
	cmd.Flags().Int("history", server.DefaultHistorySize, "Settled jobs kept for status queries")
	return cmd
}

package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"cookledger/internal/bootstrap"
	"cookledger/internal/bootstrap/logging"
	"cookledger/internal/errs"
	"cookledger/internal/usecase/governance"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Worker runtime commands",
}

var workerRecomputeCmd = &cobra.Command{
	Use:   "recompute",
	Short: "Process queued weight and equity recomputation tasks",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *governance.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		batchSize, _ := cmd.Flags().GetInt("batch-size")
		loop, _ := cmd.Flags().GetBool("loop")
		interval, _ := cmd.Flags().GetDuration("interval")
		if interval <= 0 {
			interval = 10 * time.Second
		}

		total := 0
		for {
			processed, err := svc.RunRecomputeWorker(ctx, batchSize)
			if err != nil {
				return errs.Wrap(err, "run recompute worker")
			}
			total += processed

			if !loop {
				break
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(interval):
			}
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "recompute worker processed %d tasks\n", total); err != nil {
			return errs.Wrap(err, "write worker output")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(workerCmd)

	workerCmd.AddCommand(workerRecomputeCmd)
	workerRecomputeCmd.Flags().Int("batch-size", 20, "Tasks per batch")
	workerRecomputeCmd.Flags().Bool("loop", false, "Keep polling instead of one batch")
	workerRecomputeCmd.Flags().Duration("interval", 10*time.Second, "Polling interval with --loop")
}

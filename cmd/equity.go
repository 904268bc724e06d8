package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"cookledger/internal/bootstrap"
	"cookledger/internal/bootstrap/logging"
	"cookledger/internal/errs"
	"cookledger/internal/usecase/governance"
)

var equityCmd = &cobra.Command{
	Use:   "equity",
	Short: "Equity share distribution",
}

var equityRecomputeCmd = &cobra.Command{
	Use:   "recompute",
	Short: "Recompute equity percentages for a team",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *governance.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		teamID, _ := cmd.Flags().GetString("team")
		model, _ := cmd.Flags().GetString("model")

		shares, err := svc.RecomputeTeamEquity(ctx, teamID, model)
		if err != nil {
			return errs.Wrap(err, "recompute equity")
		}

		for _, share := range shares {
			if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%-16s %6.2f%% effective=%.4f\n",
				share.ContributorID, share.Percent, share.EffectiveValue); err != nil {
				return errs.Wrap(err, "write equity output")
			}
		}
		return nil
	}),
}

var equityListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored equity records for a team",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *governance.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		teamID, _ := cmd.Flags().GetString("team")
		records, err := svc.ListEquity(ctx, teamID)
		if err != nil {
			return errs.Wrap(err, "list equity")
		}

		for _, record := range records {
			if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%-16s %6.2f%% model=%s updated=%s\n",
				record.ContributorID, record.Percent, record.Model, record.LastUpdated.Format("2006-01-02 15:04")); err != nil {
				return errs.Wrap(err, "write equity list output")
			}
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(equityCmd)

	equityCmd.AddCommand(equityRecomputeCmd)
	equityRecomputeCmd.Flags().String("team", "", "Team id")
	equityRecomputeCmd.Flags().String("model", "", "Equity model override (proportional|slicing|custom)")
	_ = equityRecomputeCmd.MarkFlagRequired("team")

	equityCmd.AddCommand(equityListCmd)
	equityListCmd.Flags().String("team", "", "Team id")
	_ = equityListCmd.MarkFlagRequired("team")
}

package cmd

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"cookledger/internal/bootstrap"
	"cookledger/internal/bootstrap/logging"
	"cookledger/internal/errs"
	"cookledger/internal/usecase/governance"
)

var weightCmd = &cobra.Command{
	Use:   "weight",
	Short: "Governance weights",
}

var weightRecomputeCmd = &cobra.Command{
	Use:   "recompute",
	Short: "Recompute governance weights for a team or one contributor",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *governance.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		teamID, _ := cmd.Flags().GetString("team")
		contributorID, _ := cmd.Flags().GetString("contributor")

		if strings.TrimSpace(contributorID) != "" {
			record, err := svc.RecomputeGovernanceWeight(ctx, teamID, contributorID)
			if err != nil {
				return errs.Wrap(err, "recompute weight")
			}
			if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%-16s weight=%.4f cap_applied=%t decay_applied=%t\n",
				record.ContributorID, record.Weight, record.CapApplied, record.DecayApplied); err != nil {
				return errs.Wrap(err, "write weight output")
			}
			return nil
		}

		records, err := svc.RecomputeTeamWeights(ctx, teamID)
		if err != nil {
			return errs.Wrap(err, "recompute team weights")
		}
		for _, record := range records {
			if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%-16s weight=%.4f cap_applied=%t decay_applied=%t\n",
				record.ContributorID, record.Weight, record.CapApplied, record.DecayApplied); err != nil {
				return errs.Wrap(err, "write weight output")
			}
		}
		return nil
	}),
}

var weightListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored governance weights for a team",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *governance.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		teamID, _ := cmd.Flags().GetString("team")
		records, err := svc.ListWeights(ctx, teamID)
		if err != nil {
			return errs.Wrap(err, "list weights")
		}

		for _, record := range records {
			if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%-16s weight=%.4f updated=%s\n",
				record.ContributorID, record.Weight, record.LastUpdated.Format("2006-01-02 15:04")); err != nil {
				return errs.Wrap(err, "write weight list output")
			}
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(weightCmd)

	weightCmd.AddCommand(weightRecomputeCmd)
	weightRecomputeCmd.Flags().String("team", "", "Team id")
	weightRecomputeCmd.Flags().String("contributor", "", "Optional contributor id (whole team when omitted)")
	_ = weightRecomputeCmd.MarkFlagRequired("team")

	weightCmd.AddCommand(weightListCmd)
	weightListCmd.Flags().String("team", "", "Team id")
	_ = weightListCmd.MarkFlagRequired("team")
}

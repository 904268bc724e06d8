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

var entryCmd = &cobra.Command{
	Use:   "entry",
	Short: "Contribution ledger entries",
}

var entryAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Append one contribution entry to the ledger",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *governance.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		teamID, _ := cmd.Flags().GetString("team")
		contributorID, _ := cmd.Flags().GetString("contributor")
		taskID, _ := cmd.Flags().GetString("task")
		value, _ := cmd.Flags().GetFloat64("value")
		attribution, _ := cmd.Flags().GetString("attribution")

		entry, err := svc.AppendEntry(ctx, governance.AppendEntryInput{
			TaskID:        taskID,
			TeamID:        teamID,
			ContributorID: contributorID,
			Value:         value,
			Attribution:   attribution,
		})
		if err != nil {
			return errs.Wrap(err, "append entry")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "entry appended id=%s team=%s contributor=%s value=%.2f\n",
			entry.ID, entry.TeamID, entry.ContributorID, entry.Value); err != nil {
			return errs.Wrap(err, "write entry output")
		}
		return nil
	}),
}

var entryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List a team's ledger entries",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *governance.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		teamID, _ := cmd.Flags().GetString("team")
		entries, err := svc.ListTeamEntries(ctx, teamID)
		if err != nil {
			return errs.Wrap(err, "list entries")
		}

		for _, entry := range entries {
			if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s %s %-16s value=%-10.2f attribution=%s task=%s\n",
				entry.IssuedAt.Format("2006-01-02"), entry.ID, entry.ContributorID, entry.Value, entry.Attribution, entry.TaskID); err != nil {
				return errs.Wrap(err, "write entry list output")
			}
		}
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "total=%d\n", len(entries)); err != nil {
			return errs.Wrap(err, "write entry list output")
		}
		return nil
	}),
}

var entryEffectiveCmd = &cobra.Command{
	Use:   "effective",
	Short: "Show one contributor's decayed and capped effective value",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *governance.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		teamID, _ := cmd.Flags().GetString("team")
		contributorID, _ := cmd.Flags().GetString("contributor")

		value, err := svc.ComputeEffectiveValue(ctx, teamID, contributorID)
		if err != nil {
			return errs.Wrap(err, "compute effective value")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "raw=%.4f effective=%.4f cap_applied=%t decay_applied=%t excess=%.4f\n",
			value.RawValue, value.EffectiveValue, value.CapApplied, value.DecayApplied, value.Excess); err != nil {
			return errs.Wrap(err, "write effective value output")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(entryCmd)

	entryCmd.AddCommand(entryAddCmd)
	entryAddCmd.Flags().String("team", "", "Team id")
	entryAddCmd.Flags().String("contributor", "", "Contributor id")
	entryAddCmd.Flags().String("task", "", "Optional task reference")
	entryAddCmd.Flags().Float64("value", 0, "Positive contribution value")
	entryAddCmd.Flags().String("attribution", "", "Attribution kind (self|spend)")
	_ = entryAddCmd.MarkFlagRequired("team")
	_ = entryAddCmd.MarkFlagRequired("contributor")
	_ = entryAddCmd.MarkFlagRequired("value")

	entryCmd.AddCommand(entryListCmd)
	entryListCmd.Flags().String("team", "", "Team id")
	_ = entryListCmd.MarkFlagRequired("team")

	entryCmd.AddCommand(entryEffectiveCmd)
	entryEffectiveCmd.Flags().String("team", "", "Team id")
	entryEffectiveCmd.Flags().String("contributor", "", "Contributor id")
	_ = entryEffectiveCmd.MarkFlagRequired("team")
	_ = entryEffectiveCmd.MarkFlagRequired("contributor")
}

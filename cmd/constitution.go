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

var constitutionCmd = &cobra.Command{
	Use:   "constitution",
	Short: "Versioned constitutional rule changes",
}

var constitutionAdoptCmd = &cobra.Command{
	Use:   "adopt",
	Short: "Adopt an approved constitutional proposal as the rule's next version",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *governance.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		proposalID, _ := cmd.Flags().GetString("proposal")
		adoptedBy, _ := cmd.Flags().GetString("by")

		change, err := svc.AdoptConstitutionalChange(ctx, proposalID, adoptedBy)
		if err != nil {
			return errs.Wrap(err, "adopt constitutional change")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "rule %s now at version %d (approval %.2f%%)\n",
			change.RuleName, change.Version, change.ApprovalPercentage); err != nil {
			return errs.Wrap(err, "write constitution output")
		}
		return nil
	}),
}

var constitutionHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Show a rule's full version history",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *governance.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		ruleName, _ := cmd.Flags().GetString("rule")
		changes, err := svc.ListConstitutionalChanges(ctx, ruleName)
		if err != nil {
			return errs.Wrap(err, "list constitutional changes")
		}

		for _, change := range changes {
			previous := "-"
			if change.PreviousVersion != nil {
				previous = fmt.Sprintf("v%d", *change.PreviousVersion)
			}
			if _, err := fmt.Fprintf(cmd.OutOrStdout(), "v%-4d prev=%-5s type=%-8s approval=%6.2f%% adopted=%s by=%s\n",
				change.Version, previous, change.ChangeType, change.ApprovalPercentage,
				change.AdoptedAt.Format("2006-01-02"), change.AdoptedBy); err != nil {
				return errs.Wrap(err, "write constitution output")
			}
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(constitutionCmd)

	constitutionCmd.AddCommand(constitutionAdoptCmd)
	constitutionAdoptCmd.Flags().String("proposal", "", "Approved constitutional proposal id")
	constitutionAdoptCmd.Flags().String("by", "", "Adopting operator id")
	_ = constitutionAdoptCmd.MarkFlagRequired("proposal")
	_ = constitutionAdoptCmd.MarkFlagRequired("by")

	constitutionCmd.AddCommand(constitutionHistoryCmd)
	constitutionHistoryCmd.Flags().String("rule", "", "Rule name")
	_ = constitutionHistoryCmd.MarkFlagRequired("rule")
}

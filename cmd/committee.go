package cmd

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"cookledger/internal/bootstrap"
	"cookledger/internal/bootstrap/logging"
	"cookledger/internal/errs"
	"cookledger/internal/ports"
	"cookledger/internal/usecase/governance"
)

var committeeCmd = &cobra.Command{
	Use:   "committee",
	Short: "Committee eligibility, lotteries and service terms",
}

var committeeEligibilityCmd = &cobra.Command{
	Use:   "eligibility",
	Short: "List eligibility with exclusion reasons for every contributor",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *governance.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		teamID, _ := cmd.Flags().GetString("team")
		results, err := svc.GetEligibleMembers(ctx, teamID)
		if err != nil {
			return errs.Wrap(err, "list eligibility")
		}

		for _, result := range results {
			reasons := "-"
			if len(result.Reasons) > 0 {
				reasons = strings.Join(result.Reasons, ",")
			}
			if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%-16s eligible=%-5t active=%-10.2f reasons=%s\n",
				result.ContributorID, result.Eligible, result.ActiveValue, reasons); err != nil {
				return errs.Wrap(err, "write eligibility output")
			}
		}
		return nil
	}),
}

var committeeSelectCmd = &cobra.Command{
	Use:   "select",
	Short: "Run the seeded weighted lottery and start winners' service terms",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *governance.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		teamID, _ := cmd.Flags().GetString("team")
		committeeID, _ := cmd.Flags().GetString("committee")
		seats, _ := cmd.Flags().GetInt("seats")
		seed, _ := cmd.Flags().GetString("seed")
		actor, _ := cmd.Flags().GetString("actor")

		selection, err := svc.SelectCommitteeMembers(ctx, governance.SelectCommitteeInput{
			TeamID:      teamID,
			CommitteeID: committeeID,
			Seats:       seats,
			Seed:        seed,
			Actor:       actor,
		})
		if err != nil {
			return errs.Wrap(err, "select committee members")
		}

		out := cmd.OutOrStdout()
		if _, err := fmt.Fprintf(out, "selection=%s seed=%s derived=%t total_weight=%.4f\n",
			selection.ID, selection.Result.Seed, selection.Result.SeedDerived, selection.Result.TotalWeight); err != nil {
			return errs.Wrap(err, "write selection output")
		}
		if selection.Result.SeedDerived {
			if _, err := fmt.Fprintln(out, "warning: seed derived from current time, result is not reproducible"); err != nil {
				return errs.Wrap(err, "write selection output")
			}
		}
		for _, winner := range selection.Result.Selected {
			if _, err := fmt.Fprintf(out, "selected %s\n", winner); err != nil {
				return errs.Wrap(err, "write selection output")
			}
		}
		return nil
	}),
}

var committeeVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Re-verify a stored lottery result against its eligible snapshot",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *governance.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		selectionID, _ := cmd.Flags().GetString("selection")
		selection, err := svc.VerifyLotteryResult(ctx, selectionID)
		if err != nil {
			return errs.Wrap(err, "verify lottery result")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "selection %s verified: seats=%d selected=%s\n",
			selection.ID, selection.Result.Seats, strings.Join(selection.Result.Selected, ",")); err != nil {
			return errs.Wrap(err, "write verify output")
		}
		return nil
	}),
}

var committeeTermsCmd = &cobra.Command{
	Use:   "terms",
	Short: "List service terms",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *governance.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		contributorID, _ := cmd.Flags().GetString("contributor")
		committeeID, _ := cmd.Flags().GetString("committee")
		activeOnly, _ := cmd.Flags().GetBool("active")

		terms, err := svc.ListServiceTerms(ctx, ports.ServiceTermFilter{
			ContributorID: contributorID,
			CommitteeID:   committeeID,
			ActiveOnly:    activeOnly,
		})
		if err != nil {
			return errs.Wrap(err, "list service terms")
		}

		for _, term := range terms {
			end := "-"
			if term.EndDate != nil {
				end = term.EndDate.Format("2006-01-02")
			}
			if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s %-16s committee=%-16s status=%-10s start=%s end=%s days=%d\n",
				term.ID, term.ContributorID, term.CommitteeID, term.Status,
				term.StartDate.Format("2006-01-02"), end, term.DurationDays); err != nil {
				return errs.Wrap(err, "write terms output")
			}
		}
		return nil
	}),
}

var committeeTermStartCmd = &cobra.Command{
	Use:   "term-start",
	Short: "Start a service term for one contributor",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *governance.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		committeeID, _ := cmd.Flags().GetString("committee")
		contributorID, _ := cmd.Flags().GetString("contributor")

		term, err := svc.StartServiceTerm(ctx, governance.StartServiceTermInput{
			CommitteeID:   committeeID,
			ContributorID: contributorID,
		})
		if err != nil {
			return errs.Wrap(err, "start service term")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "term started id=%s contributor=%s committee=%s\n",
			term.ID, term.ContributorID, term.CommitteeID); err != nil {
			return errs.Wrap(err, "write term output")
		}
		return nil
	}),
}

var committeeTermEndCmd = &cobra.Command{
	Use:   "term-end",
	Short: "End a service term, starting the cooling-off period",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *governance.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		termID, _ := cmd.Flags().GetString("term")
		terminated, _ := cmd.Flags().GetBool("terminated")

		term, err := svc.EndServiceTerm(ctx, governance.EndServiceTermInput{
			TermID:     termID,
			Terminated: terminated,
		})
		if err != nil {
			return errs.Wrap(err, "end service term")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "term ended id=%s status=%s days=%d\n",
			term.ID, term.Status, term.DurationDays); err != nil {
			return errs.Wrap(err, "write term output")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(committeeCmd)

	committeeCmd.AddCommand(committeeEligibilityCmd)
	committeeEligibilityCmd.Flags().String("team", "", "Team id")
	_ = committeeEligibilityCmd.MarkFlagRequired("team")

	committeeCmd.AddCommand(committeeSelectCmd)
	committeeSelectCmd.Flags().String("team", "", "Team id")
	committeeSelectCmd.Flags().String("committee", "", "Committee id")
	committeeSelectCmd.Flags().Int("seats", 1, "Number of seats to fill")
	committeeSelectCmd.Flags().String("seed", "", "Lottery seed (derived from current time when omitted)")
	committeeSelectCmd.Flags().String("actor", "", "Acting operator id")
	_ = committeeSelectCmd.MarkFlagRequired("team")
	_ = committeeSelectCmd.MarkFlagRequired("committee")

	committeeCmd.AddCommand(committeeVerifyCmd)
	committeeVerifyCmd.Flags().String("selection", "", "Selection id")
	_ = committeeVerifyCmd.MarkFlagRequired("selection")

	committeeCmd.AddCommand(committeeTermsCmd)
	committeeTermsCmd.Flags().String("contributor", "", "Optional contributor filter")
	committeeTermsCmd.Flags().String("committee", "", "Optional committee filter")
	committeeTermsCmd.Flags().Bool("active", false, "Only active terms")

	committeeCmd.AddCommand(committeeTermStartCmd)
	committeeTermStartCmd.Flags().String("committee", "", "Committee id")
	committeeTermStartCmd.Flags().String("contributor", "", "Contributor id")
	_ = committeeTermStartCmd.MarkFlagRequired("committee")
	_ = committeeTermStartCmd.MarkFlagRequired("contributor")

	committeeCmd.AddCommand(committeeTermEndCmd)
	committeeTermEndCmd.Flags().String("term", "", "Service term id")
	committeeTermEndCmd.Flags().Bool("terminated", false, "Mark the term terminated instead of completed")
	_ = committeeTermEndCmd.MarkFlagRequired("term")
}

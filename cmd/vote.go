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

var voteCmd = &cobra.Command{
	Use:   "vote",
	Short: "Weighted voting on triggered proposals",
}

var voteCastCmd = &cobra.Command{
	Use:   "cast",
	Short: "Cast one vote weighted by the voter's current governance weight",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *governance.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		votingID, _ := cmd.Flags().GetString("voting")
		voterID, _ := cmd.Flags().GetString("by")
		option, _ := cmd.Flags().GetString("option")

		voting, err := svc.CastVote(ctx, governance.CastVoteInput{
			VotingID: votingID,
			VoterID:  voterID,
			Option:   option,
		})
		if err != nil {
			return errs.Wrap(err, "cast vote")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "vote recorded voting=%s votes=%d\n",
			voting.ID, len(voting.Votes)); err != nil {
			return errs.Wrap(err, "write vote output")
		}
		return nil
	}),
}

var voteTallyCmd = &cobra.Command{
	Use:   "tally",
	Short: "Close and tally a voting, deciding its proposal",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *governance.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		votingID, _ := cmd.Flags().GetString("voting")
		voting, err := svc.TallyVoting(ctx, votingID)
		if err != nil {
			return errs.Wrap(err, "tally voting")
		}

		out := cmd.OutOrStdout()
		for _, tally := range voting.Results {
			if _, err := fmt.Fprintf(out, "%-10s votes=%-4d weighted=%-10.2f percent=%.2f%%\n",
				tally.Option, tally.Count, tally.WeightedCount, tally.Percent); err != nil {
				return errs.Wrap(err, "write tally output")
			}
		}
		if _, err := fmt.Fprintf(out, "winning=%s\n", firstNonEmptyString(voting.Winning, "-")); err != nil {
			return errs.Wrap(err, "write tally output")
		}
		return nil
	}),
}

var voteShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show a voting's options and cast votes",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *governance.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		votingID, _ := cmd.Flags().GetString("voting")
		voting, err := svc.GetVoting(ctx, votingID)
		if err != nil {
			return errs.Wrap(err, "get voting")
		}

		out := cmd.OutOrStdout()
		if _, err := fmt.Fprintf(out, "voting=%s proposal=%s status=%s closes=%s\n",
			voting.ID, voting.ProposalID, voting.Status, voting.ClosesAt.Format("2006-01-02 15:04")); err != nil {
			return errs.Wrap(err, "write voting output")
		}
		for _, vote := range voting.Votes {
			if _, err := fmt.Fprintf(out, "vote by=%s option=%s weight=%.2f\n",
				vote.VoterID, vote.Option, vote.Weight); err != nil {
				return errs.Wrap(err, "write voting output")
			}
		}
		return nil
	}),
}

func firstNonEmptyString(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}

func init() {
	rootCmd.AddCommand(voteCmd)

	voteCmd.AddCommand(voteCastCmd)
	voteCastCmd.Flags().String("voting", "", "Voting id")
	voteCastCmd.Flags().String("by", "", "Voter id")
	voteCastCmd.Flags().String("option", "", "Vote option (approve|reject)")
	_ = voteCastCmd.MarkFlagRequired("voting")
	_ = voteCastCmd.MarkFlagRequired("by")
	_ = voteCastCmd.MarkFlagRequired("option")

	voteCmd.AddCommand(voteTallyCmd)
	voteTallyCmd.Flags().String("voting", "", "Voting id")
	_ = voteTallyCmd.MarkFlagRequired("voting")

	voteCmd.AddCommand(voteShowCmd)
	voteShowCmd.Flags().String("voting", "", "Voting id")
	_ = voteShowCmd.MarkFlagRequired("voting")
}

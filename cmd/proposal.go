package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"cookledger/internal/bootstrap"
	"cookledger/internal/bootstrap/logging"
	domaingov "cookledger/internal/domain/governance"
	"cookledger/internal/errs"
	"cookledger/internal/usecase/governance"
)

var proposalCmd = &cobra.Command{
	Use:   "proposal",
	Short: "Governance proposals and the objection workflow",
}

var proposalCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a draft proposal",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *governance.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		teamID, _ := cmd.Flags().GetString("team")
		proposalType, _ := cmd.Flags().GetString("type")
		title, _ := cmd.Flags().GetString("title")
		description, _ := cmd.Flags().GetString("description")
		ruleName, _ := cmd.Flags().GetString("rule")
		changeType, _ := cmd.Flags().GetString("change-type")
		proposedBy, _ := cmd.Flags().GetString("by")

		proposal, err := svc.CreateProposal(ctx, governance.CreateProposalInput{
			TeamID:      teamID,
			Type:        proposalType,
			Title:       title,
			Description: description,
			RuleName:    ruleName,
			ChangeType:  changeType,
			ProposedBy:  proposedBy,
		})
		if err != nil {
			return errs.Wrap(err, "create proposal")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "proposal created id=%s type=%s status=%s\n",
			proposal.ID, proposal.Type, proposal.Status); err != nil {
			return errs.Wrap(err, "write proposal output")
		}
		return nil
	}),
}

var proposalOpenCmd = &cobra.Command{
	Use:   "open",
	Short: "Open a proposal's objection window",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *governance.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		proposalID, _ := cmd.Flags().GetString("proposal")
		proposal, err := svc.OpenObjectionWindow(ctx, proposalID)
		if err != nil {
			return errs.Wrap(err, "open objection window")
		}

		closesAt := "-"
		if proposal.WindowClosesAt != nil {
			closesAt = proposal.WindowClosesAt.Format(time.RFC3339)
		}
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "objection window open until %s\n", closesAt); err != nil {
			return errs.Wrap(err, "write proposal output")
		}
		return nil
	}),
}

var proposalObjectCmd = &cobra.Command{
	Use:   "object",
	Short: "Raise an objection against a proposal",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *governance.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		proposalID, _ := cmd.Flags().GetString("proposal")
		contributorID, _ := cmd.Flags().GetString("by")
		reason, _ := cmd.Flags().GetString("reason")
		weight, _ := cmd.Flags().GetFloat64("weight")

		proposal, err := svc.AddObjection(ctx, governance.AddObjectionInput{
			ProposalID:    proposalID,
			ContributorID: contributorID,
			Reason:        reason,
			Weight:        weight,
		})
		if err != nil {
			return errs.Wrap(err, "add objection")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "objection recorded count=%d status=%s\n",
			proposal.ObjectionCount(), proposal.Status); err != nil {
			return errs.Wrap(err, "write proposal output")
		}
		return nil
	}),
}

var proposalCloseCmd = &cobra.Command{
	Use:   "close",
	Short: "Close an expired objection window (auto-approves the proposal)",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *governance.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		proposalID, _ := cmd.Flags().GetString("proposal")
		proposal, err := svc.CloseObjectionWindow(ctx, proposalID)
		if err != nil {
			return errs.Wrap(err, "close objection window")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "proposal %s status=%s\n", proposal.ID, proposal.Status); err != nil {
			return errs.Wrap(err, "write proposal output")
		}
		return nil
	}),
}

var proposalWithdrawCmd = &cobra.Command{
	Use:   "withdraw",
	Short: "Withdraw a non-terminal proposal",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *governance.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		proposalID, _ := cmd.Flags().GetString("proposal")
		actor, _ := cmd.Flags().GetString("by")

		proposal, err := svc.WithdrawProposal(ctx, proposalID, actor)
		if err != nil {
			return errs.Wrap(err, "withdraw proposal")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "proposal %s status=%s\n", proposal.ID, proposal.Status); err != nil {
			return errs.Wrap(err, "write proposal output")
		}
		return nil
	}),
}

var proposalListCmd = &cobra.Command{
	Use:   "list",
	Short: "List a team's proposals",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *governance.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		teamID, _ := cmd.Flags().GetString("team")
		proposals, err := svc.ListProposals(ctx, teamID)
		if err != nil {
			return errs.Wrap(err, "list proposals")
		}

		for _, proposal := range proposals {
			marker := ""
			if proposal.Type == domaingov.ProposalTypeConstitutional {
				marker = " [const]"
			}
			if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s [%s]%s obj=%d %s\n",
				proposal.ID, proposal.Status, marker, proposal.ObjectionCount(), proposal.Title); err != nil {
				return errs.Wrap(err, "write proposal list output")
			}
		}
		return nil
	}),
}

var proposalShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show one proposal with its objections",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *governance.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		proposalID, _ := cmd.Flags().GetString("proposal")
		proposal, err := svc.GetProposal(ctx, proposalID)
		if err != nil {
			return errs.Wrap(err, "get proposal")
		}

		out := cmd.OutOrStdout()
		if _, err := fmt.Fprintf(out, "id=%s team=%s type=%s status=%s title=%s\n",
			proposal.ID, proposal.TeamID, proposal.Type, proposal.Status, proposal.Title); err != nil {
			return errs.Wrap(err, "write proposal output")
		}
		if proposal.VotingID != "" {
			if _, err := fmt.Fprintf(out, "voting=%s\n", proposal.VotingID); err != nil {
				return errs.Wrap(err, "write proposal output")
			}
		}
		for _, objection := range proposal.Objections {
			if _, err := fmt.Fprintf(out, "objection by=%s weight=%.2f reason=%s\n",
				objection.ContributorID, objection.Weight, objection.Reason); err != nil {
				return errs.Wrap(err, "write proposal output")
			}
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(proposalCmd)

	proposalCmd.AddCommand(proposalCreateCmd)
	proposalCreateCmd.Flags().String("team", "", "Team id")
	proposalCreateCmd.Flags().String("type", "", "Proposal type (ordinary|constitutional)")
	proposalCreateCmd.Flags().String("title", "", "Proposal title")
	proposalCreateCmd.Flags().String("description", "", "Proposal description")
	proposalCreateCmd.Flags().String("rule", "", "Rule name (constitutional proposals)")
	proposalCreateCmd.Flags().String("change-type", "", "Change type (constitutional proposals)")
	proposalCreateCmd.Flags().String("by", "", "Proposer id")
	_ = proposalCreateCmd.MarkFlagRequired("team")
	_ = proposalCreateCmd.MarkFlagRequired("title")
	_ = proposalCreateCmd.MarkFlagRequired("by")

	proposalCmd.AddCommand(proposalOpenCmd)
	proposalOpenCmd.Flags().String("proposal", "", "Proposal id")
	_ = proposalOpenCmd.MarkFlagRequired("proposal")

	proposalCmd.AddCommand(proposalObjectCmd)
	proposalObjectCmd.Flags().String("proposal", "", "Proposal id")
	proposalObjectCmd.Flags().String("by", "", "Objecting contributor id")
	proposalObjectCmd.Flags().String("reason", "", "Objection reason")
	proposalObjectCmd.Flags().Float64("weight", 0, "Optional objection weight")
	_ = proposalObjectCmd.MarkFlagRequired("proposal")
	_ = proposalObjectCmd.MarkFlagRequired("by")

	proposalCmd.AddCommand(proposalCloseCmd)
	proposalCloseCmd.Flags().String("proposal", "", "Proposal id")
	_ = proposalCloseCmd.MarkFlagRequired("proposal")

	proposalCmd.AddCommand(proposalWithdrawCmd)
	proposalWithdrawCmd.Flags().String("proposal", "", "Proposal id")
	proposalWithdrawCmd.Flags().String("by", "", "Acting contributor id")
	_ = proposalWithdrawCmd.MarkFlagRequired("proposal")

	proposalCmd.AddCommand(proposalListCmd)
	proposalListCmd.Flags().String("team", "", "Team id")
	_ = proposalListCmd.MarkFlagRequired("team")

	proposalCmd.AddCommand(proposalShowCmd)
	proposalShowCmd.Flags().String("proposal", "", "Proposal id")
	_ = proposalShowCmd.MarkFlagRequired("proposal")
}

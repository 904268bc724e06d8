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

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Append-only governance audit log",
}

var auditRecentCmd = &cobra.Command{
	Use:   "recent",
	Short: "Show the most recent audit entries",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *governance.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		limit, _ := cmd.Flags().GetInt("limit")
		entries, err := svc.ListRecentAudit(ctx, limit)
		if err != nil {
			return errs.Wrap(err, "list recent audit")
		}
		return writeAuditEntries(cmd, entries)
	}),
}

var auditEntityCmd = &cobra.Command{
	Use:   "entity",
	Short: "Show audit entries for one entity",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *governance.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		entityID, _ := cmd.Flags().GetString("id")
		limit, _ := cmd.Flags().GetInt("limit")
		entries, err := svc.ListAuditByEntity(ctx, entityID, limit)
		if err != nil {
			return errs.Wrap(err, "list audit by entity")
		}
		return writeAuditEntries(cmd, entries)
	}),
}

func writeAuditEntries(cmd *cobra.Command, entries []ports.AuditEntry) error {
	out := cmd.OutOrStdout()
	for _, entry := range entries {
		participants := "-"
		if len(entry.Participants) > 0 {
			participants = strings.Join(entry.Participants, ",")
		}
		if _, err := fmt.Fprintf(out, "%s %-24s actor=%-12s outcome=%-12s entity=%s/%s participants=%s\n",
			entry.CreatedAt.Format("2006-01-02 15:04:05"), entry.ActionType, entry.ActorID,
			entry.Outcome, entry.RelatedEntityType, entry.RelatedEntityID, participants); err != nil {
			return errs.Wrap(err, "write audit output")
		}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(auditCmd)

	auditCmd.AddCommand(auditRecentCmd)
	auditRecentCmd.Flags().Int("limit", 20, "Maximum entries to show")

	auditCmd.AddCommand(auditEntityCmd)
	auditEntityCmd.Flags().String("id", "", "Related entity id")
	auditEntityCmd.Flags().Int("limit", 20, "Maximum entries to show")
	_ = auditEntityCmd.MarkFlagRequired("id")
}

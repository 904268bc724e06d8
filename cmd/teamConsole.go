package cmd

import (
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"cookledger/internal/bootstrap"
	"cookledger/internal/bootstrap/logging"
	"cookledger/internal/errs"
	"cookledger/internal/usecase/govconsole"
	"cookledger/internal/usecase/governance"
)

var consoleTeamCmd = &cobra.Command{
	Use:   "team",
	Short: "Start the interactive governance console for one team",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *governance.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		teamID, _ := cmd.Flags().GetString("team")
		refreshInterval, _ := cmd.Flags().GetDuration("refresh-interval")
		if refreshInterval <= 0 {
			refreshInterval = 5 * time.Second
		}

		model := govconsole.NewTeamModel(ctx, svc, govconsole.TeamOptions{
			TeamID:          teamID,
			ConfigFile:      cfgFile,
			RefreshInterval: refreshInterval,
		})

		program := tea.NewProgram(model, tea.WithAltScreen())
		if _, err := program.Run(); err != nil {
			return errs.Wrap(err, "run team console")
		}
		return nil
	}),
}

func init() {
	consoleCmd.AddCommand(consoleTeamCmd)
	consoleTeamCmd.Flags().String("team", "", "Team id")
	consoleTeamCmd.Flags().Duration("refresh-interval", 5*time.Second, "Auto refresh interval")
	_ = consoleTeamCmd.MarkFlagRequired("team")
}

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

var teamConfigCmd = &cobra.Command{
	Use:   "team-config",
	Short: "Per-team governance configuration",
}

var teamConfigShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show a team's resolved configuration with defaults applied",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *governance.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		teamID, _ := cmd.Flags().GetString("team")
		cfg, err := svc.GetTeamConfig(ctx, teamID)
		if err != nil {
			return errs.Wrap(err, "get team config")
		}

		out := cmd.OutOrStdout()
		cap := "-"
		if cfg.Cap != nil {
			cap = fmt.Sprintf("%.2f", *cfg.Cap)
		}
		decay := "-"
		if cfg.DecayRate != nil {
			decay = fmt.Sprintf("%.4f", *cfg.DecayRate)
		}
		if _, err := fmt.Fprintf(out, "team=%s model=%s cap=%s decay_rate=%s\n",
			cfg.TeamID, cfg.EquityModel, cap, decay); err != nil {
			return errs.Wrap(err, "write config output")
		}
		if _, err := fmt.Fprintf(out, "eligibility: window_months=%d minimum_active_value=%.2f cooling_off_days=%d\n",
			cfg.EligibilityWindowMonths, cfg.MinimumActiveValue, *cfg.CoolingOffDays); err != nil {
			return errs.Wrap(err, "write config output")
		}
		if _, err := fmt.Fprintf(out, "workflow: objection_window_days=%d objection_threshold=%.1f voting_period_days=%d approval=%.2f%% constitutional=%.2f%%/%dd\n",
			cfg.ObjectionWindowDays, *cfg.ObjectionThreshold, cfg.VotingPeriodDays,
			cfg.ApprovalThreshold, cfg.ConstitutionalThreshold, cfg.ConstitutionalVotingPeriodDays); err != nil {
			return errs.Wrap(err, "write config output")
		}
		return nil
	}),
}

var teamConfigSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Store team configuration overrides",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *governance.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		teamID, _ := cmd.Flags().GetString("team")
		cfg, err := svc.GetTeamConfig(ctx, teamID)
		if err != nil {
			return errs.Wrap(err, "get team config")
		}
		cfg.TeamID = teamID

		if cmd.Flags().Changed("cap") {
			value, _ := cmd.Flags().GetFloat64("cap")
			cfg.Cap = &value
		}
		if cmd.Flags().Changed("decay-rate") {
			value, _ := cmd.Flags().GetFloat64("decay-rate")
			cfg.DecayRate = &value
		}
		if cmd.Flags().Changed("model") {
			cfg.EquityModel, _ = cmd.Flags().GetString("model")
		}
		if cmd.Flags().Changed("window-months") {
			cfg.EligibilityWindowMonths, _ = cmd.Flags().GetInt("window-months")
		}
		if cmd.Flags().Changed("minimum-active-value") {
			cfg.MinimumActiveValue, _ = cmd.Flags().GetFloat64("minimum-active-value")
		}
		if cmd.Flags().Changed("cooling-off-days") {
			value, _ := cmd.Flags().GetInt("cooling-off-days")
			cfg.CoolingOffDays = &value
		}
		if cmd.Flags().Changed("objection-window-days") {
			cfg.ObjectionWindowDays, _ = cmd.Flags().GetInt("objection-window-days")
		}
		if cmd.Flags().Changed("objection-threshold") {
			value, _ := cmd.Flags().GetFloat64("objection-threshold")
			cfg.ObjectionThreshold = &value
		}
		if cmd.Flags().Changed("voting-period-days") {
			cfg.VotingPeriodDays, _ = cmd.Flags().GetInt("voting-period-days")
		}
		if cmd.Flags().Changed("approval-threshold") {
			cfg.ApprovalThreshold, _ = cmd.Flags().GetFloat64("approval-threshold")
		}

		if err := svc.SaveTeamConfig(ctx, cfg); err != nil {
			return errs.Wrap(err, "save team config")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "team config saved: %s\n", teamID); err != nil {
			return errs.Wrap(err, "write config output")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(teamConfigCmd)

	teamConfigCmd.AddCommand(teamConfigShowCmd)
	teamConfigShowCmd.Flags().String("team", "", "Team id")
	_ = teamConfigShowCmd.MarkFlagRequired("team")

	teamConfigCmd.AddCommand(teamConfigSetCmd)
	teamConfigSetCmd.Flags().String("team", "", "Team id")
	teamConfigSetCmd.Flags().Float64("cap", 0, "Effective value cap")
	teamConfigSetCmd.Flags().Float64("decay-rate", 0, "Monthly decay rate in [0,1]")
	teamConfigSetCmd.Flags().String("model", "", "Equity model (proportional|slicing|custom)")
	teamConfigSetCmd.Flags().Int("window-months", 0, "Eligibility window in months")
	teamConfigSetCmd.Flags().Float64("minimum-active-value", 0, "Minimum windowed active value")
	teamConfigSetCmd.Flags().Int("cooling-off-days", 0, "Cooling-off period in days")
	teamConfigSetCmd.Flags().Int("objection-window-days", 0, "Objection window length in days")
	teamConfigSetCmd.Flags().Float64("objection-threshold", 0, "Objection threshold")
	teamConfigSetCmd.Flags().Int("voting-period-days", 0, "Voting period in days")
	teamConfigSetCmd.Flags().Float64("approval-threshold", 0, "Approval threshold percent")
	_ = teamConfigSetCmd.MarkFlagRequired("team")
}

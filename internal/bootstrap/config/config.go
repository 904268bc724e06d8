package config

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/spf13/viper"

	"cookledger/internal/bootstrap/logging"
	"cookledger/internal/errs"
)

type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Governance GovernanceConfig `mapstructure:"governance"`
}

type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// GovernanceConfig carries the fallback governance parameters used when a
// team has no stored configuration of its own. A team config row always
// wins over these values.
type GovernanceConfig struct {
	ProfileFile string `mapstructure:"profile_file"`

	EquityModel             string  `mapstructure:"equity_model"`
	EligibilityWindowMonths int     `mapstructure:"eligibility_window_months"`
	MinimumActiveValue      float64 `mapstructure:"minimum_active_value"`
	CoolingOffDays          int     `mapstructure:"cooling_off_days"`

	ObjectionWindowDays int     `mapstructure:"objection_window_days"`
	ObjectionThreshold  float64 `mapstructure:"objection_threshold"`

	VotingPeriodDays  int     `mapstructure:"voting_period_days"`
	ApprovalThreshold float64 `mapstructure:"approval_threshold"`

	ConstitutionalThreshold        float64 `mapstructure:"constitutional_threshold"`
	ConstitutionalVotingPeriodDays int     `mapstructure:"constitutional_voting_period_days"`
}

func Load(ctx context.Context, configFile string) (Config, error) {
	if ctx == nil {
		return Config{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return Config{}, errs.Wrap(err, "check context")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.config"))

	v := viper.New()
	setDefaults(logCtx, v)

	v.SetEnvPrefix("CL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile == "" && errors.As(err, &notFound) {
			// Keep default and env-backed config when no file is provided.
			logging.Warn(logCtx, "config file not found, fallback to defaults and env")
		} else {
			return Config{}, errs.Wrap(err, "read config")
		}
	} else {
		logging.Info(logCtx, "using config file", slog.String("path", v.ConfigFileUsed()))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errs.Wrap(err, "unmarshal config")
	}

	if cfg.Database.DSN == "" {
		return Config{}, errors.New("database.dsn is required")
	}

	logging.Info(
		logCtx,
		"config loaded",
		slog.String("app", cfg.App.Name),
		slog.String("env", cfg.App.Env),
		slog.String("database_driver", cfg.Database.Driver),
	)

	return cfg, nil
}

func setDefaults(ctx context.Context, v *viper.Viper) {
	if ctx == nil {
		return
	}

	v.SetDefault("app.name", "cookledger")
	v.SetDefault("app.env", "local")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", ".cookledger/state/governance.sqlite")

	v.SetDefault("governance.equity_model", "proportional")
	v.SetDefault("governance.eligibility_window_months", 3)
	v.SetDefault("governance.minimum_active_value", 0)
	v.SetDefault("governance.cooling_off_days", 90)
	v.SetDefault("governance.objection_window_days", 7)
	v.SetDefault("governance.objection_threshold", 2)
	v.SetDefault("governance.voting_period_days", 7)
	v.SetDefault("governance.approval_threshold", 50)
	v.SetDefault("governance.constitutional_threshold", 66.67)
	v.SetDefault("governance.constitutional_voting_period_days", 14)
}

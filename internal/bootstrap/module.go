package bootstrap

import (
	"context"
	"log/slog"

	"go.uber.org/fx"
	"gorm.io/gorm"

	"cookledger/internal/bootstrap/config"
	"cookledger/internal/bootstrap/database"
	"cookledger/internal/bootstrap/logging"
	cacheinfra "cookledger/internal/infrastructure/cache"
	sqliterepo "cookledger/internal/infrastructure/persistence/sqlite/repository"
	sqliteuow "cookledger/internal/infrastructure/persistence/sqlite/uow"
	"cookledger/internal/ports"
	usecasegovernance "cookledger/internal/usecase/governance"
)

var Module = fx.Options(
	fx.Provide(provideConfig),
	fx.Provide(provideDatabase),
	fx.Provide(provideApp),
	fx.Provide(
		fx.Annotate(
			sqliterepo.NewLedgerRepository,
			fx.As(new(ports.LedgerRepository)),
		),
	),
	fx.Provide(
		fx.Annotate(
			sqliterepo.NewConfigRepository,
			fx.As(new(ports.ConfigRepository)),
		),
	),
	fx.Provide(
		fx.Annotate(
			sqliterepo.NewGovernanceRepository,
			fx.As(new(ports.GovernanceRepository)),
		),
	),
	fx.Provide(
		fx.Annotate(
			sqliterepo.NewAuditRepository,
			fx.As(new(ports.AuditRepository)),
		),
	),
	fx.Provide(
		fx.Annotate(
			sqliterepo.NewRecomputeQueue,
			fx.As(new(ports.RecomputeQueue)),
		),
	),
	fx.Provide(
		fx.Annotate(
			sqliteuow.NewUnitOfWork,
			fx.As(new(ports.UnitOfWork)),
		),
	),
	fx.Provide(
		fx.Annotate(
			cacheinfra.NewSQLiteCache,
			fx.As(new(ports.Cache)),
		),
	),
	fx.Provide(provideGovernanceDefaults),
	fx.Provide(usecasegovernance.NewService),
)

func provideGovernanceDefaults(cfg config.Config) usecasegovernance.Defaults {
	g := cfg.Governance
	return usecasegovernance.Defaults{
		ProfileFile:                    g.ProfileFile,
		EquityModel:                    g.EquityModel,
		EligibilityWindowMonths:        g.EligibilityWindowMonths,
		MinimumActiveValue:             g.MinimumActiveValue,
		CoolingOffDays:                 g.CoolingOffDays,
		ObjectionWindowDays:            g.ObjectionWindowDays,
		ObjectionThreshold:             g.ObjectionThreshold,
		VotingPeriodDays:               g.VotingPeriodDays,
		ApprovalThreshold:              g.ApprovalThreshold,
		ConstitutionalThreshold:        g.ConstitutionalThreshold,
		ConstitutionalVotingPeriodDays: g.ConstitutionalVotingPeriodDays,
	}
}

type configParams struct {
	fx.In

	Ctx        context.Context
	ConfigFile string `name:"configFile"`
}

func provideConfig(p configParams) (config.Config, error) {
	ctx := logging.WithAttrs(p.Ctx, slog.String("component", "bootstrap.fx"))
	return config.Load(ctx, p.ConfigFile)
}

func provideDatabase(lc fx.Lifecycle, ctx context.Context, cfg config.Config) (*gorm.DB, error) {
	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.fx"))

	db, err := database.Open(logCtx, cfg.Database)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})

	return db, nil
}

func provideApp(cfg config.Config, db *gorm.DB) *App {
	return &App{
		Config: cfg,
		DB:     db,
	}
}

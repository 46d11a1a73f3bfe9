package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/choirhub/choir-api/internal/api"
	"github.com/choirhub/choir-api/internal/config"
	"github.com/choirhub/choir-api/internal/db"
	"github.com/choirhub/choir-api/internal/logger"
	"github.com/choirhub/choir-api/internal/repository"
	"github.com/choirhub/choir-api/internal/repository/dao"
	"github.com/choirhub/choir-api/internal/service"
)

const defaultConfigPath = "./cmd/app/config.yml"

// Execute runs the choir command line.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "choir",
		Short:         "Choir membership API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath, "config file path (YAML)")

	cmd.AddCommand(
		newServeCmd(&configPath),
		newMigrateCmd(&configPath),
		newSeedAdminCmd(&configPath),
	)

	return cmd
}

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Migrate the database, ensure the admin account and start the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return Start(ctx, *configPath)
		},
	}
}

func newMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database tables",
		RunE: func(_ *cobra.Command, _ []string) error {
			_, postgresDB, err := bootstrap(*configPath)
			if err != nil {
				return err
			}

			if err = dao.InitTables(postgresDB); err != nil {
				return fmt.Errorf("failed to migrate tables -> %w", err)
			}
			zap.L().Info("tables migrated")

			return nil
		},
	}
}

func newSeedAdminCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed-admin",
		Short: "Create the approved Admin account from the admin config section",
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf, postgresDB, err := bootstrap(*configPath)
			if err != nil {
				return err
			}

			return seedAdmin(cmd.Context(), conf, postgresDB)
		},
	}
}

// Start serves the API until ctx is cancelled.
func Start(ctx context.Context, configPath string) error {
	conf, postgresDB, err := bootstrap(configPath)
	if err != nil {
		return err
	}

	if err = dao.InitTables(postgresDB); err != nil {
		return fmt.Errorf("failed to migrate tables -> %w", err)
	}

	if err = seedAdmin(ctx, conf, postgresDB); err != nil {
		return err
	}

	rdb, err := db.OpenRedis(ctx, conf.Redis)
	if err != nil {
		// the rate limiter falls back to memory
		zap.L().Warn("redis unavailable, continuing without it", zap.Error(err))
		rdb = nil
	}
	if rdb != nil {
		defer func(rdb *redis.Client) {
			_ = rdb.Close()
		}(rdb)
	}

	s := api.NewServer(conf, postgresDB, rdb)

	return s.Run(ctx)
}

func bootstrap(configPath string) (*config.AppConfig, *gorm.DB, error) {
	conf, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize config -> %w", err)
	}

	if err = logger.Init(conf.API.Environment); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger -> %w", err)
	}

	dbURL := os.Getenv("DATABASE_URL")
	var postgresDB *gorm.DB
	if dbURL != "" {
		postgresDB, err = db.OpenPostgresWithURL(dbURL)
	} else {
		postgresDB, err = db.OpenPostgres(conf.Postgres)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database -> %w", err)
	}

	return conf, postgresDB, nil
}

func seedAdmin(ctx context.Context, conf *config.AppConfig, postgresDB *gorm.DB) error {
	if conf.Admin == nil || conf.Admin.Email == "" {
		zap.L().Info("no admin account configured, skipping seed")
		return nil
	}
	if conf.Admin.Password == "" {
		return errors.New("admin.password is required when admin.email is set")
	}

	svc := service.NewUserService(repository.NewUserRepository(dao.NewUserDAO(postgresDB)))
	admin, created, err := svc.EnsureAdmin(ctx, conf.Admin.Email, conf.Admin.Password, conf.Admin.Name)
	if err != nil {
		return fmt.Errorf("failed to seed admin -> %w", err)
	}

	if created {
		zap.L().Info("admin account created", zap.Uint("user_id", admin.ID), zap.String("email", admin.Email))
	}

	return nil
}

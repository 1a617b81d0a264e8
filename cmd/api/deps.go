package main

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/samber/oops"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-movies-go/internal/auth"
	"github.com/ovaphlow/pitchfork/service-movies-go/internal/config"
	"github.com/ovaphlow/pitchfork/service-movies-go/internal/migrations"
	"github.com/ovaphlow/pitchfork/service-movies-go/internal/store"
	"github.com/ovaphlow/pitchfork/service-movies-go/internal/user"
	"github.com/ovaphlow/pitchfork/service-movies-go/pkg/database"
	"github.com/ovaphlow/pitchfork/service-movies-go/pkg/utilities"
)

// loadConfig reads and validates the environment.
func loadConfig() (config.Config, error) {
	cfg := config.FromEnv()
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func newLogger(cfg config.Config) (*zap.SugaredLogger, func(), error) {
	lg, err := utilities.Init(cfg.Log)
	if err != nil {
		return nil, nil, oops.Code("LOGGER_INIT_FAILED").Wrap(err)
	}
	return lg.Sugar(), func() { _ = lg.Sync() }, nil
}

// openDatabase connects and wraps the pool with sqlx under the configured
// driver name so named queries bind correctly.
func openDatabase(cfg config.Config) (*sqlx.DB, error) {
	sqlDB, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").With("driver", cfg.Database.Driver).Wrap(err)
	}
	return sqlx.NewDb(sqlDB, cfg.Database.Driver), nil
}

func migrate(ctx context.Context, db *sqlx.DB) error {
	if err := migrations.Up(ctx, db.DB); err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "run migrations").Wrap(err)
	}
	return nil
}

// newUserService wires the account service over db.
func newUserService(cfg config.Config, db *sqlx.DB, logger *zap.SugaredLogger) (*user.UserService, *auth.TokenIssuer, error) {
	tokens, err := auth.NewTokenIssuer(cfg.JWTSecret)
	if err != nil {
		return nil, nil, oops.Code("CONFIG_INVALID").With("key", "JWT_SECRET").Wrap(err)
	}
	hasher := auth.NewArgon2idHasher(auth.DefaultArgon2Params)
	svc := user.NewUserService(store.NewManager(db), hasher, tokens, cfg.DefaultRole, logger)
	return svc, tokens, nil
}

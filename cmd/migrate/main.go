// Command migrate creates or updates the stampauth tables.
package main

import (
	"context"
	"log/slog"

	"stampauth/config"
	logs "stampauth/internal/infra/log"
	"stampauth/internal/infra/persistence/model"
	"stampauth/internal/infra/persistence/postgres"

	"go.uber.org/fx"
	"gorm.io/gorm"
)

type migrateParams struct {
	fx.In
	fx.Lifecycle

	Shutdowner fx.Shutdowner
	DB         *gorm.DB
	Logger     *slog.Logger
}

func main() {
	fx.New(
		fx.Provide(
			config.New,
			logs.New,
			postgres.New,
		),
		fx.Invoke(registerMigration),
	).Run()
}

func registerMigration(params migrateParams) {
	params.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			exitCode := 0
			if err := migrate(ctx, params.DB); err != nil {
				params.Logger.Error("Migration failed", slog.Any("error", err))
				exitCode = 1
			} else {
				params.Logger.Info("Migration finished")
			}

			return params.Shutdowner.Shutdown(fx.ExitCode(exitCode))
		},
	})
}

func migrate(ctx context.Context, db *gorm.DB) error {
	models := []any{
		&model.UserModel{},
		&model.OAuthAccountModel{},
		&model.WebAuthnCredentialModel{},
		&model.APIKeyModel{},
		&model.ChallengeModel{},
	}

	return db.WithContext(ctx).AutoMigrate(models...)
}

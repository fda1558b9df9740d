package main

import (
	"context"
	"log/slog"
	"os"

	"stampauth/config"
	"stampauth/internal/delivery"
	"stampauth/internal/delivery/api"
	apimiddleware "stampauth/internal/delivery/api/middleware"
	"stampauth/internal/delivery/api/router/handler"
	"stampauth/internal/delivery/worker"
	"stampauth/internal/domain/repository"
	"stampauth/internal/domain/service"
	"stampauth/internal/infra/auth"
	"stampauth/internal/infra/auth/oauth"
	"stampauth/internal/infra/auth/passkey"
	logs "stampauth/internal/infra/log"
	"stampauth/internal/infra/metrics"
	"stampauth/internal/infra/persistence/memory"
	"stampauth/internal/infra/persistence/postgres"
	"stampauth/internal/infra/persistence/redis"
	"stampauth/internal/usecase/impl"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

type startServerParams struct {
	fx.In
	fx.Lifecycle

	Deliveries []delivery.Delivery `group:"deliveries"`
}

func main() {
	fx.New(
		injectInfra(),
		injectRepo(),
		injectService(),
		injectUsecase(),
		injectDelivery(),
		injectMiddleware(),
		injectHandler(),
		fx.Invoke(
			startServer,
		),
	).Run()
}

func injectInfra() fx.Option {
	return fx.Provide(
		config.New,
		logs.New,
		context.Background,
		postgres.New,
		newMetrics,
		func() prometheus.Gatherer { return prometheus.DefaultGatherer },
	)
}

// newMetrics registers the auth counters on the default registry. With
// metrics disabled the usecases get no recorder and skip every observation.
func newMetrics(cfg *config.Config) service.AuthMetrics {
	if !cfg.Metrics.Enabled {
		return nil
	}

	return metrics.New(prometheus.DefaultRegisterer)
}

func injectRepo() fx.Option {
	return fx.Options(
		fx.Provide(
			postgres.NewUserRepository,
			postgres.NewOAuthAccountRepository,
			postgres.NewWebAuthnCredentialRepository,
			postgres.NewAPIKeyRepository,
			postgres.NewTransactionManager,
			newChallengeStore,
		),
	)
}

type challengeStoreParams struct {
	fx.In
	fx.Lifecycle

	Config *config.Config
	Logger *slog.Logger
	DB     *gorm.DB
}

// newChallengeStore picks the challenge backend named in challenge.backend.
// The Redis client is only dialled when that backend is selected.
func newChallengeStore(params challengeStoreParams) (repository.ChallengeStore, error) {
	switch params.Config.Challenge.Backend {
	case config.ChallengeBackendRedis:
		client, err := redis.New(redis.Params{
			Lifecycle: params.Lifecycle,
			Config:    params.Config,
			Logger:    params.Logger,
		})
		if err != nil {
			return nil, err
		}

		return redis.NewChallengeStore(client), nil
	case config.ChallengeBackendMemory:
		params.Logger.Warn("Using in-memory challenge store, challenges are not shared between replicas")

		return memory.NewChallengeStore(), nil
	default:
		return postgres.NewChallengeStore(params.DB), nil
	}
}

func injectService() fx.Option {
	return fx.Options(
		fx.Provide(
			auth.NewPBKDF2Hasher,
			auth.NewJWTService,
			auth.NewAPIKeyGenerator,
			oauth.NewRegistry,
			oauth.NewPKCEGenerator,
			passkey.NewService,
		),
	)
}

func injectUsecase() fx.Option {
	return fx.Options(
		fx.Provide(
			impl.NewAccountService,
			impl.NewOAuthService,
			impl.NewWebAuthnService,
			impl.NewAPIKeyService,
			impl.NewLinkedAccountService,
			impl.NewAuthenticator,
		),
	)
}

func injectMiddleware() fx.Option {
	return fx.Options(
		fx.Provide(
			apimiddleware.NewAuthMiddleware,
		),
	)
}

func injectHandler() fx.Option {
	return fx.Options(
		fx.Provide(
			handler.NewAccountHandler,
			handler.NewOAuthHandler,
			handler.NewWebAuthnHandler,
			handler.NewAPIKeyHandler,
			handler.NewLinkedAccountHandler,
		),
	)
}

func injectDelivery() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				api.NewServer,
				fx.ResultTags(`group:"deliveries"`),
			),
			fx.Annotate(
				worker.NewSweeper,
				fx.ResultTags(`group:"deliveries"`),
			),
		),
	)
}

func startServer(ctx context.Context, params startServerParams) {
	for _, delivery := range params.Deliveries {
		go func() {
			if err := delivery.Serve(ctx); err != nil {
				slog.Error("Failed to start server", slog.Any("error", err))
				os.Exit(1)
			}
		}()
	}
}

// Package redis holds the Redis-backed challenge store.
package redis

import (
	"context"
	"log/slog"
	"time"

	"stampauth/config"
	"stampauth/internal/domain/lifecycle"
	"stampauth/internal/errors"

	goredis "github.com/redis/go-redis/v9"
	"github.com/sethvargo/go-retry"
	"go.uber.org/fx"
)

const (
	pingMaxRetries   = 5
	pingInitialDelay = 200 * time.Millisecond
)

// Params defines the dependencies of the Redis client.
type Params struct {
	fx.In
	fx.Lifecycle

	Config *config.Config
	Logger *slog.Logger
}

// New builds a client from the redis section and pings it on start.
func New(params Params) (*goredis.Client, error) {
	cfg := params.Config.Redis
	if cfg == nil || cfg.Addr == "" {
		return nil, errors.New("redis.addr is required")
	}

	client := goredis.NewClient(&goredis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	params.Append(fx.Hook{
		OnStart: func(startCtx context.Context) error {
			ctx, cancel := context.WithTimeout(startCtx, lifecycle.DefaultTimeout)
			defer cancel()

			return ping(ctx, client, params.Logger)
		},
		OnStop: func(_ context.Context) error {
			return client.Close()
		},
	})

	return client, nil
}

func ping(ctx context.Context, client *goredis.Client, logger *slog.Logger) error {
	backoff := retry.WithMaxRetries(pingMaxRetries, retry.NewExponential(pingInitialDelay))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := client.Ping(ctx).Err(); err != nil {
			logger.WarnContext(ctx, "Redis ping failed, retrying", slog.Any("error", err))

			return retry.RetryableError(err)
		}

		return nil
	})
	if err != nil {
		return errors.Wrap(err, "failed to ping Redis")
	}

	return nil
}

package postgres

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"stampauth/config"
	"stampauth/internal/domain/lifecycle"
	"stampauth/internal/errors"

	pgLib "github.com/slighter12/go-lib/database/postgres"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

const (
	poolSampleInterval = 5 * time.Second
	poolWaitWarnAfter  = 50 * time.Millisecond
)

type Params struct {
	fx.In
	fx.Lifecycle

	Config *config.Config
	Logger *slog.Logger
}

// New connects the credential store. Writes that span several tables go
// through TransactionManager, so GORM's implicit per-statement transaction is
// off. Driver errors are translated so unique violations surface as
// gorm.ErrDuplicatedKey for the constraint mapper.
func New(params Params) (*gorm.DB, error) {
	conn, err := pgLib.New(params.Config.Postgres)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect credential store")
	}

	db := conn.Session(&gorm.Session{
		SkipDefaultTransaction: true,
		Logger:                 newSQLLogger(params.Logger, params.Config),
	})
	db.TranslateError = true

	pool, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "failed to access credential store pool")
	}

	watchCtx, stopWatch := context.WithCancel(context.Background())
	params.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, lifecycle.DefaultTimeout)
			defer cancel()

			if err := pool.PingContext(ctx); err != nil {
				return errors.Wrap(err, "credential store unreachable")
			}
			go watchPool(watchCtx, params.Logger, pool)

			return nil
		},
		OnStop: func(context.Context) error {
			stopWatch()

			return pool.Close()
		},
	})

	return db, nil
}

// watchPool samples pool stats and reports callers that had to wait for a
// connection since the previous sample.
func watchPool(ctx context.Context, logger *slog.Logger, pool *sql.DB) {
	if logger == nil || pool == nil {
		return
	}

	ticker := time.NewTicker(poolSampleInterval)
	defer ticker.Stop()

	last := pool.Stats()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := pool.Stats()
			if attrs, waited := poolWaitAttrs(last, now); attrs != nil {
				level := slog.LevelDebug
				if waited >= poolWaitWarnAfter {
					level = slog.LevelWarn
				}
				logger.LogAttrs(ctx, level, "Credential store pool contention", attrs...)
			}
			last = now
		}
	}
}

// poolWaitAttrs returns nil when no caller waited between the two samples.
func poolWaitAttrs(prev, cur sql.DBStats) ([]slog.Attr, time.Duration) {
	waits := cur.WaitCount - prev.WaitCount
	if waits <= 0 {
		return nil, 0
	}
	waited := cur.WaitDuration - prev.WaitDuration

	return []slog.Attr{
		slog.Int64("waits", waits),
		slog.Duration("waited", waited),
		slog.Duration("avgWait", waited/time.Duration(waits)),
		slog.Int("open", cur.OpenConnections),
		slog.Int("inUse", cur.InUse),
		slog.Int("idle", cur.Idle),
		slog.Int("maxOpen", cur.MaxOpenConnections),
	}, waited
}

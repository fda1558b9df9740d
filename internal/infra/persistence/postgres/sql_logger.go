package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"stampauth/config"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const slowStatementThreshold = 200 * time.Millisecond

// sqlLogger writes GORM statements to the service logger under the "sql"
// component. Bound values are stripped before tracing because credential
// tables carry password hashes, key hashes and provider tokens.
type sqlLogger struct {
	logger  *slog.Logger
	level   logger.LogLevel
	slowest time.Duration
}

var (
	_ logger.Interface  = (*sqlLogger)(nil)
	_ gorm.ParamsFilter = (*sqlLogger)(nil)
)

func newSQLLogger(base *slog.Logger, cfg *config.Config) *sqlLogger {
	level := logger.Warn
	if cfg != nil && cfg.Env.Debug {
		level = logger.Info
	}
	if base != nil {
		base = base.With(slog.String("component", "sql"))
	}

	return &sqlLogger{logger: base, level: level, slowest: slowStatementThreshold}
}

func (l *sqlLogger) LogMode(level logger.LogLevel) logger.Interface {
	next := *l
	next.level = level

	return &next
}

func (l *sqlLogger) ParamsFilter(_ context.Context, sql string, _ ...any) (string, []any) {
	return sql, nil
}

func (l *sqlLogger) Info(ctx context.Context, msg string, args ...any) {
	l.printf(ctx, logger.Info, slog.LevelInfo, msg, args)
}

func (l *sqlLogger) Warn(ctx context.Context, msg string, args ...any) {
	l.printf(ctx, logger.Warn, slog.LevelWarn, msg, args)
}

func (l *sqlLogger) Error(ctx context.Context, msg string, args ...any) {
	l.printf(ctx, logger.Error, slog.LevelError, msg, args)
}

func (l *sqlLogger) printf(ctx context.Context, floor logger.LogLevel, level slog.Level, msg string, args []any) {
	if l.logger == nil || l.level < floor {
		return
	}

	l.logger.LogAttrs(ctx, level, "Database notice", slog.String("detail", fmt.Sprintf(msg, args...)))
}

// Trace reports failed statements, then slow ones. Everything else is only
// logged at Info, which the debug environment turns on.
func (l *sqlLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.logger == nil || l.level == logger.Silent {
		return
	}

	elapsed := time.Since(begin)
	switch {
	case l.reportable(err):
		attrs := append(statementAttrs(fc, elapsed), slog.String("error", err.Error()))
		l.logger.LogAttrs(ctx, slog.LevelError, "Statement failed", attrs...)
	case l.level >= logger.Warn && l.slowest > 0 && elapsed > l.slowest:
		attrs := append(statementAttrs(fc, elapsed), slog.Duration("threshold", l.slowest))
		l.logger.LogAttrs(ctx, slog.LevelWarn, "Slow statement", attrs...)
	case l.level >= logger.Info:
		l.logger.LogAttrs(ctx, slog.LevelInfo, "Statement", statementAttrs(fc, elapsed)...)
	}
}

// reportable skips not-found, which repositories translate into domain errors.
func (l *sqlLogger) reportable(err error) bool {
	return err != nil && l.level >= logger.Error && !errors.Is(err, gorm.ErrRecordNotFound)
}

func statementAttrs(fc func() (string, int64), elapsed time.Duration) []slog.Attr {
	sql, rows := fc()

	return []slog.Attr{
		slog.String("sql", sql),
		slog.Int64("rows", rows),
		slog.Duration("elapsed", elapsed),
	}
}

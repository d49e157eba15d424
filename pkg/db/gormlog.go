package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/stockledger-backend/pkg/logger"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const slowQueryThreshold = 200 * time.Millisecond

// gormLogger forwards failed and slow statements to the service logger.
// Successful statements are not logged.
type gormLogger struct {
	logg  *logger.Logger
	level gormlogger.LogLevel
	slow  time.Duration
}

func newGormLogger(logg *logger.Logger) gormlogger.Interface {
	if logg == nil {
		return gormlogger.Discard
	}
	return &gormLogger{logg: logg, level: gormlogger.Warn, slow: slowQueryThreshold}
}

func (g *gormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *g
	clone.level = level
	return &clone
}

func (g *gormLogger) Info(ctx context.Context, msg string, args ...any) {
	if g.level >= gormlogger.Info {
		g.logg.Debug(g.logg.WithField(ctx, "gorm", fmt.Sprintf(msg, args...)), "db.info")
	}
}

func (g *gormLogger) Warn(ctx context.Context, msg string, args ...any) {
	if g.level >= gormlogger.Warn {
		g.logg.Warn(g.logg.WithField(ctx, "gorm", fmt.Sprintf(msg, args...)), "db.warn")
	}
}

func (g *gormLogger) Error(ctx context.Context, msg string, args ...any) {
	if g.level >= gormlogger.Error {
		g.logg.Error(ctx, "db.error", fmt.Errorf(msg, args...))
	}
}

func (g *gormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if g.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)

	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && g.level >= gormlogger.Error:
		statement, rows := fc()
		g.logg.Debug(g.logg.WithFields(ctx, map[string]any{
			"sql":         statement,
			"rows":        rows,
			"duration_ms": elapsed.Milliseconds(),
			"error":       err.Error(),
		}), "db.statement_failed")
	case g.slow > 0 && elapsed > g.slow && g.level >= gormlogger.Warn:
		statement, rows := fc()
		g.logg.Warn(g.logg.WithFields(ctx, map[string]any{
			"sql":         statement,
			"rows":        rows,
			"duration_ms": elapsed.Milliseconds(),
		}), "db.slow_query")
	}
}

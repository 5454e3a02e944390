// Package postgres contains the PostgreSQL-backed key-value store built on GORM.
package postgres

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"storefront/config"
	"storefront/internal/domain/lifecycle"
	"storefront/internal/errors"

	pgLib "github.com/slighter12/go-lib/database/postgres"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

type Params struct {
	fx.In
	fx.Lifecycle

	Config *config.Config
	Logger *slog.Logger
}

// New opens storage.postgres through go-lib, pings it on start and watches the
// connection pool until stop.
func New(params Params) (*gorm.DB, error) {
	storage := params.Config.Storage
	if storage == nil || storage.Postgres == nil {
		return nil, errors.New("storage.postgres is not configured")
	}

	db, err := pgLib.New(storage.Postgres)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open PostgreSQL")
	}
	// KV writes are single upserts and need no implicit transaction.
	db = db.Session(&gorm.Session{
		SkipDefaultTransaction: true,
		Logger:                 newGormSlogLogger(params.Logger, params.Config),
	})

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "failed to unwrap PostgreSQL handle")
	}

	monitor := newPoolMonitor(sqlDB, params.Logger)
	params.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, lifecycle.DefaultTimeout)
			defer cancel()

			if err := sqlDB.PingContext(ctx); err != nil {
				return errors.Wrap(err, "failed to ping PostgreSQL")
			}
			monitor.start()

			return nil
		},
		OnStop: func(context.Context) error {
			monitor.stop()

			return errors.WithStack(sqlDB.Close())
		},
	})

	return db, nil
}

const (
	poolMonitorInterval = 5 * time.Second
	poolWaitWarnAfter   = 50 * time.Millisecond
)

// poolMonitor reports connection pool waits between periodic snapshots.
type poolMonitor struct {
	stats  func() sql.DBStats
	logger *slog.Logger
	last   sql.DBStats
	cancel context.CancelFunc
}

func newPoolMonitor(db *sql.DB, logger *slog.Logger) *poolMonitor {
	return &poolMonitor{stats: db.Stats, logger: logger}
}

func (m *poolMonitor) start() {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.last = m.stats()

	go func() {
		ticker := time.NewTicker(poolMonitorInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.observe(ctx)
			}
		}
	}()
}

func (m *poolMonitor) stop() {
	if m.cancel != nil {
		m.cancel()
	}
}

// observe logs waits since the previous snapshot, escalating to WARN once the
// added wait time crosses poolWaitWarnAfter.
func (m *poolMonitor) observe(ctx context.Context) {
	cur := m.stats()
	prev := m.last
	m.last = cur

	attrs, waited := poolWaitAttrs(prev, cur)
	if !waited {
		return
	}

	level := slog.LevelDebug
	if cur.WaitDuration-prev.WaitDuration >= poolWaitWarnAfter {
		level = slog.LevelWarn
	}
	m.logger.LogAttrs(ctx, level, "Postgres pool wait", attrs...)
}

func poolWaitAttrs(prev, cur sql.DBStats) ([]slog.Attr, bool) {
	waits := cur.WaitCount - prev.WaitCount
	if waits <= 0 {
		return nil, false
	}
	waited := cur.WaitDuration - prev.WaitDuration

	return []slog.Attr{
		slog.Int64("waitCountDelta", waits),
		slog.Duration("waitDurationDelta", waited),
		slog.Duration("avgWait", waited/time.Duration(waits)),
		slog.Int("maxOpenConns", cur.MaxOpenConnections),
		slog.Int("openConns", cur.OpenConnections),
		slog.Int("inUseConns", cur.InUse),
		slog.Int("idleConns", cur.Idle),
	}, true
}

package database

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/m3rciful/dialogbot/core/logger"
)

const connectTimeout = 5 * time.Second

// Connect opens the pool, sizes it and checks that the server answers.
// For SQLite the directory of the database file is created first.
func Connect(cfg Config) (*sqlx.DB, error) {
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	if err := cfg.prepare(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	start := time.Now()
	db, err := sqlx.ConnectContext(ctx, cfg.Driver, cfg.DSN())
	attrs := append(cfg.logAttrs(), slog.Duration("duration", logger.RoundMS(time.Since(start))))
	if err != nil {
		logger.DB.LogAttrs(ctx, slog.LevelError, "db connect failed",
			append(attrs, slog.String("err", logger.RedactSecrets(err.Error())))...)
		return nil, fmt.Errorf("db connect: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxConnections)
	logger.DB.LogAttrs(ctx, slog.LevelInfo, "db connected",
		append(attrs, slog.Int("pool_open", cfg.MaxConnections))...)
	return db, nil
}

func (c Config) prepare() error {
	if c.Driver != DriverSQLite {
		return nil
	}
	dir := filepath.Dir(c.Path)
	if dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("db: create data dir: %w", err)
	}
	return nil
}

func (c Config) logAttrs() []slog.Attr {
	target := c.Name
	if c.Driver == DriverSQLite {
		target = c.Path
	}
	return []slog.Attr{
		slog.String("event", "db.connect"),
		slog.String("driver", c.Driver),
		slog.String("host", c.Host),
		slog.String("db", target),
	}
}

// WaitReady pings the database every two seconds until it answers or
// timeout elapses.
func WaitReady(cfg Config, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	tick := time.NewTicker(2 * time.Second)
	defer tick.Stop()
	for {
		err := ping(ctx, cfg)
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout reached waiting for database: %w", err)
		case <-tick.C:
		}
	}
}

func ping(ctx context.Context, cfg Config) error {
	db, err := sqlx.Open(cfg.Driver, cfg.DSN())
	if err != nil {
		return err
	}
	defer db.Close()
	pctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	return db.PingContext(pctx)
}

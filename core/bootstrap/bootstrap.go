package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	coreconfig "github.com/m3rciful/dialogbot/core/config"
	coredatabase "github.com/m3rciful/dialogbot/core/database"
	"github.com/m3rciful/dialogbot/core/logger"
)

// Options control the generic bootstrap pipeline shared between bots.
type Options struct {
	Config   *coreconfig.Config
	Database coredatabase.Config
	// Redis is dialled and pinged when set.
	Redis *redis.Options

	LoggerInit func(*coreconfig.Config) error
	Connect    func(coredatabase.Config) (*sqlx.DB, error)
	Migrate    func(coredatabase.Config) error
}

// Result exposes infrastructure initialized by the bootstrap pipeline.
type Result struct {
	DB    *sqlx.DB
	Redis *redis.Client
}

// Close releases the database and redis handles.
func (r *Result) Close() error {
	if r == nil {
		return nil
	}
	var errs []error
	if r.Redis != nil {
		errs = append(errs, r.Redis.Close())
	}
	if r.DB != nil {
		errs = append(errs, r.DB.Close())
	}
	return errors.Join(errs...)
}

type stage struct {
	name string
	run  func(ctx context.Context, res *Result) error
}

// Run initializes the logger, then connects the database, applies
// migrations and dials redis when configured. On failure everything opened
// so far is closed again.
func Run(opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("bootstrap: nil config provided")
	}
	opts = opts.withDefaults()
	if err := opts.LoggerInit(opts.Config); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	ctx := context.Background()
	res := &Result{}
	for _, st := range opts.stages() {
		start := time.Now()
		err := st.run(ctx, res)
		logger.Event(ctx, logger.CompApp, levelOf(err), "bootstrap."+st.name,
			slog.String("status", logger.Status(err)),
			slog.Duration("duration", logger.RoundMS(time.Since(start))),
		)
		if err != nil {
			_ = res.Close()
			return nil, fmt.Errorf("bootstrap: %s: %w", st.name, err)
		}
	}
	return res, nil
}

func (o Options) withDefaults() Options {
	if o.LoggerInit == nil {
		o.LoggerInit = logger.InitLogger
	}
	if o.Connect == nil {
		o.Connect = coredatabase.Connect
	}
	if o.Migrate == nil {
		o.Migrate = coredatabase.RunMigrations
	}
	return o
}

func (o Options) stages() []stage {
	list := []stage{
		{"database", func(_ context.Context, res *Result) (err error) {
			res.DB, err = o.Connect(o.Database)
			return err
		}},
		{"migrate", func(context.Context, *Result) error {
			return o.Migrate(o.Database)
		}},
	}
	if o.Redis != nil {
		list = append(list, stage{"redis", o.dialRedis})
	}
	return list
}

func (o Options) dialRedis(ctx context.Context, res *Result) error {
	client := redis.NewClient(o.Redis)
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("redis %s unreachable: %w", o.Redis.Addr, err)
	}
	res.Redis = client
	return nil
}

func levelOf(err error) slog.Level {
	if err != nil {
		return slog.LevelError
	}
	return slog.LevelInfo
}

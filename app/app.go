// Package app assembles the bot from configuration: storage, sessions,
// external services, dialogue flows and Telegram routes.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/m3rciful/dialogbot/app/config"
	"github.com/m3rciful/dialogbot/app/flows"
	"github.com/m3rciful/dialogbot/app/handlers"
	"github.com/m3rciful/dialogbot/core/bootstrap"
	"github.com/m3rciful/dialogbot/core/dialogue"
	"github.com/m3rciful/dialogbot/core/logger"
	"github.com/m3rciful/dialogbot/core/metrics"
	"github.com/m3rciful/dialogbot/core/records"
	"github.com/m3rciful/dialogbot/core/services"
	"github.com/m3rciful/dialogbot/core/services/fx"
	"github.com/m3rciful/dialogbot/core/services/llm"
	"github.com/m3rciful/dialogbot/core/services/translate"
	"github.com/m3rciful/dialogbot/core/services/tts"
	"github.com/m3rciful/dialogbot/core/services/weather"
	"github.com/m3rciful/dialogbot/core/state"
	tg "github.com/m3rciful/dialogbot/core/telegram"
	tghelpers "github.com/m3rciful/dialogbot/core/telegram/helpers"
	"github.com/m3rciful/dialogbot/core/telegram/router"

	tele "gopkg.in/telebot.v4"
)

// App owns every long-lived component of a running bot.
type App struct {
	Config   *config.AppConfig
	Infra    *bootstrap.Result
	Records  *records.Store
	Sessions state.Store
	Engine   *dialogue.Engine
	Metrics  *metrics.Metrics
	Handlers *handlers.Handlers
	Registry *tg.Registry
	Router   *router.Router

	ops *metrics.Server
}

// BootstrapFunc lets tests replace the infrastructure step.
type BootstrapFunc func(bootstrap.Options) (*bootstrap.Result, error)

// New connects infrastructure and wires the bot. Close releases it.
func New(cfg *config.AppConfig) (*App, error) {
	return build(cfg, bootstrap.Run)
}

func build(cfg *config.AppConfig, boot BootstrapFunc) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("app: nil config")
	}
	opts := bootstrap.Options{Config: cfg.CoreConfig(), Database: cfg.Database}
	if cfg.Session.Backend == config.BackendRedis {
		opts.Redis = &redis.Options{
			Addr:     cfg.Session.RedisAddr,
			Password: cfg.Session.RedisPassword,
			DB:       cfg.Session.RedisDB,
		}
	}
	infra, err := boot(opts)
	if err != nil {
		return nil, err
	}

	a := &App{Config: cfg, Infra: infra, Metrics: metrics.New()}
	a.Records = records.New(infra.DB)

	var locker state.Locker
	if infra.Redis != nil {
		a.Sessions = state.NewRedisStore(infra.Redis,
			state.WithPrefix(cfg.Session.Prefix),
			state.WithTTL(cfg.Session.TTL),
		)
		locker = state.NewRedisLocker(infra.Redis, cfg.Session.Prefix, cfg.Session.LockTTL)
	} else {
		a.Sessions = state.NewMemoryStore()
		locker = state.NewKeyedMutex()
	}

	svc := cfg.Services
	caller := services.NewCaller(
		services.WithTimeout(svc.Timeout),
		services.WithObserver(a.Metrics),
	)
	completer := llm.New(llm.Config{
		APIKey:      svc.OpenAIKey,
		BaseURL:     svc.OpenAIBaseURL,
		Model:       svc.Model,
		Temperature: svc.Temperature,
		MaxTokens:   svc.MaxTokens,
	}, caller)

	wopts := []weather.Option{weather.WithLocation(weather.Location{
		Name: svc.City,
		Lat:  svc.Latitude,
		Lon:  svc.Longitude,
	})}
	if svc.WeatherURL != "" {
		wopts = append(wopts, weather.WithBaseURL(svc.WeatherURL))
	}

	eopts := []dialogue.Option{
		dialogue.WithLocker(locker),
		dialogue.WithServiceTimeout(svc.Timeout),
		dialogue.WithObserver(a.Metrics),
		dialogue.WithDefaultFlow(cfg.Dialogue.DefaultFlow),
	}
	if cfg.Dialogue.SkipSentinel != "" {
		eopts = append(eopts, dialogue.WithSkipSentinel(cfg.Dialogue.SkipSentinel))
	}
	a.Engine = dialogue.New(a.Sessions, eopts...)
	if err := flows.RegisterAll(a.Engine, a.Records, completer); err != nil {
		_ = infra.Close()
		return nil, err
	}
	if df := cfg.Dialogue.DefaultFlow; df != "" && !a.Engine.HasFlow(df) {
		_ = infra.Close()
		return nil, fmt.Errorf("app: dialogue.default_flow: %w: %q", dialogue.ErrUnknownFlow, df)
	}

	a.Handlers = handlers.New(handlers.Deps{
		Engine:      a.Engine,
		Users:       a.Records,
		Weather:     weather.New(svc.WeatherKey, caller, wopts...),
		Rates:       fx.New(svc.FXKey, svc.FXURL, caller),
		Translator:  translate.New(svc.TranslateURL, caller),
		Speech:      tts.New(svc.TTSURL, caller),
		MediaDir:    cfg.Media.Dir,
		DefaultFlow: cfg.Dialogue.DefaultFlow,
	})
	a.Registry = tg.NewRegistry()
	if err := a.Handlers.Register(a.Registry); err != nil {
		_ = infra.Close()
		return nil, err
	}
	a.Router = router.New(a.Registry, a.Handlers, router.Options{
		IsAdmin:       cfg.IsAdmin,
		OnAdminReject: a.Handlers.AdminReject,
		OnPhoto:       a.Handlers.SavePhoto,
		Recorder:      a.Metrics,
	})
	return a, nil
}

// TelegramRunOptions implements the runner's TelegramApp.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	return tg.RunOptions{
		Config:      a.Config.CoreConfig(),
		Registry:    a.Registry,
		Middlewares: tg.DefaultMiddlewares(a.Config.CoreConfig(), rateLimited),
		Routes:      a.Router.Routes(),
		OnStart:     a.onStart,
		OnStop:      a.onStop,
	}, nil
}

func rateLimited(c tele.Context) error {
	return tghelpers.SendText(c, "Слишком часто. Подождите секунду.")
}

func (a *App) onStart(ctx context.Context, rt tg.Runtime) error {
	if rt.Bot != nil {
		a.Handlers.SetDownloader(rt.Bot)
	}
	if a.Config.Ops.Listen == "" {
		return nil
	}
	srv, err := metrics.NewServer(a.Config.Ops.Listen, metrics.NewHandler(a.Metrics, a.HealthChecks()))
	if err != nil {
		return fmt.Errorf("app: ops listener: %w", err)
	}
	a.ops = srv
	srv.Start()
	logger.Info(ctx, logger.CompOps, "ops.started", slog.String("addr", srv.Addr()))
	return nil
}

func (a *App) onStop(ctx context.Context, _ tg.Runtime) error {
	if a.ops == nil {
		return nil
	}
	srv := a.ops
	a.ops = nil
	return srv.Shutdown(ctx)
}

// HealthChecks lists the dependencies reported by /healthz.
func (a *App) HealthChecks() map[string]metrics.Check {
	checks := map[string]metrics.Check{"db": a.Records.Ping}
	if rs, ok := a.Sessions.(*state.RedisStore); ok {
		checks["redis"] = rs.Ping
	}
	return checks
}

// Close releases the database and redis connections.
func (a *App) Close() error {
	if a == nil {
		return nil
	}
	var errs []error
	if a.ops != nil {
		errs = append(errs, a.ops.Shutdown(context.Background()))
	}
	errs = append(errs, a.Infra.Close())
	return errors.Join(errs...)
}

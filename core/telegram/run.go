package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	coreconfig "github.com/m3rciful/dialogbot/core/config"
	"github.com/m3rciful/dialogbot/core/logger"
	"github.com/m3rciful/dialogbot/core/netutil"
	tghelpers "github.com/m3rciful/dialogbot/core/telegram/helpers"
	tgsender "github.com/m3rciful/dialogbot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

// Middleware describes a global bot middleware to be registered via bot.Use.
type Middleware struct {
	Name string
	Use  func(next tele.HandlerFunc) tele.HandlerFunc
}

// Route declares a single bot handler bound to an arbitrary endpoint.
// Endpoint values are passed directly to tele.Bot.Handle.
type Route struct {
	Endpoint any
	Handler  tele.HandlerFunc
}

// RunOptions controls the behaviour of RunTelegram.
type RunOptions struct {
	Config   *coreconfig.Config
	Registry *Registry

	// Dispatcher overrides the pool built from Config.Dispatcher.
	Dispatcher *tgsender.Dispatcher

	Middlewares []Middleware
	Routes      []Route

	DisableWebhookCleanup bool

	OnStart func(ctx context.Context, rt Runtime) error
	OnStop  func(ctx context.Context, rt Runtime) error
}

// Runtime exposes runtime components to lifecycle hooks.
type Runtime struct {
	Bot        *tele.Bot
	Dispatcher *tgsender.Dispatcher
	Registry   *Registry
}

// RunTelegram builds the bot, installs middlewares and routes, and polls
// (or serves the webhook) until ctx is done. OnStop runs on a fresh
// ten second context after polling stops.
func RunTelegram(ctx context.Context, opts RunOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.Config == nil {
		return fmt.Errorf("telegram: nil config provided")
	}
	reg := opts.Registry
	if reg == nil {
		reg = NewRegistry()
	}

	started := time.Now()
	bot, err := newBot(opts.Config)
	if err != nil {
		return err
	}
	announceMode(ctx, bot, opts, logger.RoundMS(time.Since(started)))

	disp := opts.Dispatcher
	if disp == nil {
		disp = tgsender.NewDispatcher(tgsender.OptionsFromConfig(opts.Config.Dispatcher))
	}
	tghelpers.SetDispatcher(disp)
	defer func() {
		disp.Close()
		tghelpers.SetDispatcher(nil)
	}()

	install(bot, opts)
	InitBotCommands(bot, reg)

	rt := Runtime{Bot: bot, Dispatcher: disp, Registry: reg}
	if opts.OnStart != nil {
		if err := opts.OnStart(ctx, rt); err != nil {
			return err
		}
	}

	runErr := serve(ctx, bot)
	if opts.OnStop != nil {
		stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		runErr = errors.Join(runErr, opts.OnStop(stopCtx, rt))
	}
	return runErr
}

func newBot(cfg *coreconfig.Config) (*tele.Bot, error) {
	pollTimeout := longPollTimeout(cfg)
	bot, err := tele.NewBot(tele.Settings{
		Token:  cfg.Telegram.Token,
		Poller: BuildPoller(cfg),
		Client: netutil.BuildHTTPClient(netutil.ClientOptions{
			Timeout:         pollTimeout + 20*time.Second,
			ResponseTimeout: pollTimeout + 10*time.Second,
			Retries:         2,
		}),
		OnError: reportBotError,
	})
	if err != nil {
		return nil, fmt.Errorf("telegram: bot initialization failed: %w", err)
	}
	return bot, nil
}

// reportBotError logs errors telebot could not hand back to a handler,
// attached to the update's rid when there is one.
func reportBotError(err error, c tele.Context) {
	ctx := context.Background()
	if c != nil {
		ctx = tghelpers.BuildContext(c)
	}
	logger.Error(ctx, logger.CompTelegram, "bot.error",
		slog.String("err", logger.SanitizeLimit(logger.RedactSecrets(err.Error()), 256)),
	)
}

// announceMode logs the run mode and, for long polling, drops a stale webhook.
func announceMode(ctx context.Context, bot *tele.Bot, opts RunOptions, took time.Duration) {
	if hook, ok := bot.Poller.(*tele.Webhook); ok {
		logger.Info(ctx, logger.CompTelegram, "mode",
			slog.String("mode", coreconfig.RunModeWebhook),
			slog.String("listen", hook.Listen),
			slog.String("public_url", hook.Endpoint.PublicURL),
			slog.Duration("duration", took),
		)
		return
	}
	logger.Info(ctx, logger.CompTelegram, "mode",
		slog.String("mode", coreconfig.RunModeLongpoll),
		slog.Int("timeout_seconds", int(longPollTimeout(opts.Config)/time.Second)),
		slog.Duration("duration", took),
	)
	if opts.DisableWebhookCleanup {
		return
	}
	err := bot.RemoveWebhook(false)
	logger.Event(ctx, logger.CompTelegram, levelFor(err), "delete_webhook",
		slog.String("status", logger.Status(err)),
		slog.String("err", errText(err)),
	)
}

func levelFor(err error) slog.Level {
	if err != nil {
		return slog.LevelWarn
	}
	return slog.LevelInfo
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return logger.SanitizeLimit(logger.RedactSecrets(err.Error()), 256)
}

func install(bot *tele.Bot, opts RunOptions) {
	for _, mw := range opts.Middlewares {
		if mw.Use != nil {
			bot.Use(mw.Use)
		}
	}
	for _, r := range opts.Routes {
		if r.Endpoint != nil && r.Handler != nil {
			bot.Handle(r.Endpoint, r.Handler)
		}
	}
}

// serve runs the poller until it stops by itself or ctx is done.
func serve(ctx context.Context, bot *tele.Bot) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		bot.Start()
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		bot.Stop()
		<-done
	}
	if err := ctx.Err(); !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

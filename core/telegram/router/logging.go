package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/m3rciful/dialogbot/core/logger"
	"github.com/m3rciful/dialogbot/core/services"
	"github.com/m3rciful/dialogbot/core/state"
	tghelpers "github.com/m3rciful/dialogbot/core/telegram/helpers"
	"github.com/m3rciful/dialogbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

func (r *Router) handleWithSummary(c tele.Context, handlerName string, start time.Time, fn tele.HandlerFunc, extras ...slog.Attr) error {
	tghelpers.WithHandler(c, handlerName)
	err := fn(c)
	r.logHandlerSummary(c, handlerName, start, "", "", err, extras...)
	return err
}

func (r *Router) logHandlerSummary(c tele.Context, handlerName string, start time.Time, statusOverride, outcomeOverride string, err error, extras ...slog.Attr) {
	ctx := tghelpers.WithHandler(c, handlerName)
	msgs, kb := middleware.GetCounters(c)

	status := statusOverride
	if status == "" {
		status = logger.Status(err)
	}
	outcome := outcomeOverride
	if outcome == "" {
		outcome = logger.Status(err)
	}

	attrs := []slog.Attr{
		slog.String("status", status),
		slog.String("handler", handlerName),
		slog.String("outcome", outcome),
		slog.Int("messages", msgs),
		slog.Bool("kb", kb),
		slog.Int("media", middleware.MediaSent(c)),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	}
	if err != nil {
		attrs = append(attrs,
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			slog.String("err_code", deriveErrorCode(err)),
		)
	}
	attrs = append(attrs, extras...)
	logger.LogEvent(ctx, logger.Component(logger.CompTelegram), slog.LevelInfo, "handler.handled", attrs...)

	if r.opts.Recorder != nil {
		r.opts.Recorder.ObserveUpdate(handlerName, status, msgs)
	}
}

func normalizeHandlerName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "unknown"
	}
	name = strings.TrimPrefix(name, "/")
	name = strings.ReplaceAll(name, " ", "_")
	return strings.ToLower(name)
}

// deriveErrorCode names the failure class of a handler error for logs.
func deriveErrorCode(err error) string {
	if err == nil {
		return ""
	}
	var (
		svcErr   *services.Error
		storeErr *state.StorageError
		apiErr   *tele.Error
		flood    tele.FloodError
	)
	switch {
	case errors.As(err, &svcErr):
		return "SERVICE_" + strings.ToUpper(string(svcErr.Kind))
	case errors.As(err, &storeErr):
		return "STORAGE_" + strings.ToUpper(storeErr.Op)
	case errors.Is(err, state.ErrLockTimeout):
		return "LOCK_TIMEOUT"
	case errors.Is(err, middleware.ErrPanic):
		return "PANIC"
	case errors.As(err, &flood):
		return "TG_FLOOD"
	case errors.As(err, &apiErr):
		return fmt.Sprintf("TG_%d", apiErr.Code)
	case errors.Is(err, context.DeadlineExceeded):
		return "DEADLINE"
	case errors.Is(err, context.Canceled):
		return "CANCELED"
	}
	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t != nil && t.Name() != "" {
		return strings.ToUpper(t.Name())
	}
	return "UNKNOWN_ERROR"
}

package router

import (
	"context"
	"log/slog"
	"time"

	"github.com/m3rciful/dialogbot/core/logger"
	tg "github.com/m3rciful/dialogbot/core/telegram"
	"github.com/m3rciful/dialogbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// CommandRoutes wraps every registered command with recovery, logging and
// the admin check where required.
func (r *Router) CommandRoutes() []tg.Route {
	if r.reg == nil {
		return nil
	}
	admin := middleware.AdminOnlyMiddleware(middleware.AdminOptions{
		IsAdmin:  r.opts.IsAdmin,
		OnReject: r.opts.OnAdminReject,
	})

	routes := make([]tg.Route, 0, len(r.reg.Commands()))
	for name, def := range r.reg.Commands() {
		name, def := name, def
		h := func(c tele.Context) error {
			start := time.Now()
			return r.handleWithSummary(c, normalizeHandlerName(name), start, def.Handler)
		}
		if def.AdminOnly {
			h = admin(h)
		}
		routes = append(routes, tg.Route{Endpoint: name, Handler: wrap(h)})
	}

	logger.Info(context.Background(), logger.CompWire, "complete",
		slog.Int("commands", len(r.reg.Commands())),
		slog.Int("callbacks", len(r.reg.ListCallbacks())),
	)
	return routes
}

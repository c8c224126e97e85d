// Package router binds registry entries and the dialogue FSM to telebot endpoints.
package router

import (
	"context"

	tg "github.com/m3rciful/dialogbot/core/telegram"
	"github.com/m3rciful/dialogbot/core/telegram/middleware"
	"github.com/m3rciful/dialogbot/core/telegram/ui"

	tele "gopkg.in/telebot.v4"
)

// FSM is the dialogue side of routing.
type FSM interface {
	// InProgress reports a live session that must receive plain text first.
	InProgress(ctx context.Context, userID int64) bool
	// Claims reports that text not matched by a command still belongs to
	// the FSM, for example a finished session or an auto-started flow.
	Claims(ctx context.Context, userID int64) bool
	Handle(c tele.Context) error
}

// Options configures the routes.
type Options struct {
	IsAdmin       func(userID int64) bool
	OnAdminReject tele.HandlerFunc
	// UnknownText and UnknownCallback default to the FSM's handlers when it
	// implements ui.FallbackProvider.
	UnknownText     tele.HandlerFunc
	UnknownCallback tele.HandlerFunc
	OnPhoto         tele.HandlerFunc
	Recorder        middleware.UpdateRecorder
}

// Router builds telebot routes.
type Router struct {
	reg  *tg.Registry
	fsm  FSM
	opts Options
}

// New constructs a Router. fsm may be nil.
func New(reg *tg.Registry, fsm FSM, opts Options) *Router {
	if fp, ok := fsm.(ui.FallbackProvider); ok {
		if opts.UnknownText == nil {
			opts.UnknownText = fp.UnknownText()
		}
		if opts.UnknownCallback == nil {
			opts.UnknownCallback = fp.UnknownCallback()
		}
	}
	return &Router{reg: reg, fsm: fsm, opts: opts}
}

// Routes returns command, callback, text and photo routes.
func (r *Router) Routes() []tg.Route {
	routes := r.CommandRoutes()
	routes = append(routes, r.CallbackRoute())
	return append(routes, r.MessageRoutes()...)
}

func wrap(h tele.HandlerFunc) tele.HandlerFunc {
	return middleware.RecoverMiddleware(middleware.LoggerMiddleware(h))
}

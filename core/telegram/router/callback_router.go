package router

import (
	"log/slog"
	"time"

	tg "github.com/m3rciful/dialogbot/core/telegram"
	"github.com/m3rciful/dialogbot/core/telegram/callbacks"

	tele "gopkg.in/telebot.v4"
)

const staleCallbackText = "Действие больше недоступно"

// CallbackRoute dispatches inline button presses through the registry.
func (r *Router) CallbackRoute() tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		if c.Callback() == nil {
			return nil
		}
		key, _ := callbacks.ParseCallbackData(c.Callback())
		name := "callback." + normalizeHandlerName(key)
		extras := []slog.Attr{slog.String("cb_key", key)}

		h, ok := r.reg.GetCallback(key)
		if !ok || h == nil {
			h = r.opts.UnknownCallback
			extras = append(extras, slog.String("reason", "not_found"))
		}
		if h == nil {
			r.logHandlerSummary(c, name, start, "skip", "ok", nil, extras...)
			return c.Respond(&tele.CallbackResponse{Text: staleCallbackText})
		}
		return r.handleWithSummary(c, name, start, h, extras...)
	}
	return tg.Route{Endpoint: tele.OnCallback, Handler: wrap(handler)}
}

package router

import (
	"time"

	tg "github.com/m3rciful/dialogbot/core/telegram"
	tghelpers "github.com/m3rciful/dialogbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// MessageRoutes handles plain text and photos.
//
// Text goes, in order, to a live dialogue, a command alias such as a menu
// label, a dialogue that still claims the user, the registry fallback and
// finally Options.UnknownText.
func (r *Router) MessageRoutes() []tg.Route {
	text := func(c tele.Context) error {
		start := time.Now()
		ctx := tghelpers.BuildContext(c)
		var userID int64
		if s := c.Sender(); s != nil {
			userID = s.ID
		}

		if r.fsm != nil && userID != 0 && r.fsm.InProgress(ctx, userID) {
			return r.handleWithSummary(c, "dialogue", start, r.fsm.Handle)
		}
		if r.reg != nil {
			if key, cmd, ok := r.reg.LookupCommand(c.Text()); ok && cmd.Handler != nil && !cmd.AdminOnly {
				return r.handleWithSummary(c, normalizeHandlerName(key), start, cmd.Handler)
			}
		}
		if r.fsm != nil && userID != 0 && r.fsm.Claims(ctx, userID) {
			return r.handleWithSummary(c, "dialogue", start, r.fsm.Handle)
		}
		if r.reg != nil {
			if fb := r.reg.TextFallback(); fb != nil {
				return r.handleWithSummary(c, "fallback", start, fb)
			}
		}
		if r.opts.UnknownText != nil {
			return r.handleWithSummary(c, "unknown_text", start, r.opts.UnknownText)
		}
		r.logHandlerSummary(c, "unknown_text", start, "skip", "ok", nil)
		return nil
	}

	routes := []tg.Route{{Endpoint: tele.OnText, Handler: wrap(text)}}
	if r.opts.OnPhoto != nil {
		photo := func(c tele.Context) error {
			return r.handleWithSummary(c, "photo", time.Now(), r.opts.OnPhoto)
		}
		routes = append(routes, tg.Route{Endpoint: tele.OnPhoto, Handler: wrap(photo)})
	}
	return routes
}

package middleware

import (
	"log/slog"

	"github.com/m3rciful/dialogbot/core/logger"
	tghelpers "github.com/m3rciful/dialogbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// AdminOptions configures AdminOnlyMiddleware.
type AdminOptions struct {
	IsAdmin  func(userID int64) bool
	OnReject tele.HandlerFunc
}

// AdminOnlyMiddleware lets only admins reach next. Without IsAdmin nobody does.
func AdminOnlyMiddleware(opts AdminOptions) tele.MiddlewareFunc {
	allowed := func(c tele.Context) bool {
		u := c.Sender()
		return u != nil && opts.IsAdmin != nil && opts.IsAdmin(u.ID)
	}
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if allowed(c) {
				return next(c)
			}
			logger.Info(tghelpers.BuildContext(c), logger.CompTelegram, "admin.reject",
				slog.String("status", "skip"),
			)
			if opts.OnReject == nil {
				return nil
			}
			return opts.OnReject(c)
		}
	}
}

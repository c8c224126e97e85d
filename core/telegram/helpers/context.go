package helpers

import (
	"context"

	"github.com/m3rciful/dialogbot/core/logger"

	tele "gopkg.in/telebot.v4"
)

// ctxSlot is the tele.Context store key holding the request context.
const ctxSlot = "request_ctx"

// StoreContext saves ctx on c so later helpers reuse the same rid and metadata.
func StoreContext(c tele.Context, ctx context.Context) {
	if c != nil && ctx != nil {
		c.Set(ctxSlot, ctx)
	}
}

// ContextFrom returns the request context saved on c, if any.
func ContextFrom(c tele.Context) (context.Context, bool) {
	if c == nil {
		return nil, false
	}
	ctx, ok := c.Get(ctxSlot).(context.Context)
	return ctx, ok && ctx != nil
}

// Participants returns the sender and chat ids of c, zero when absent.
func Participants(c tele.Context) (userID, chatID int64) {
	if u := c.Sender(); u != nil {
		userID = u.ID
	}
	if ch := c.Chat(); ch != nil {
		chatID = ch.ID
	}
	return userID, chatID
}

// NewRequestContext derives a fresh request context for the update in c,
// stores it and records the rid under "rid".
func NewRequestContext(c tele.Context) context.Context {
	upd := c.Update()
	userID, chatID := Participants(c)
	rid, _ := c.Get("rid").(string)
	if rid == "" {
		rid = logger.BuildRID(upd.ID, chatID, userID)
		c.Set("rid", rid)
	}

	ctx := logger.WithRID(context.Background(), rid)
	ctx = logger.WithUpdateMeta(ctx, upd.ID, userID, chatID)
	ctx = logger.WithLogger(ctx, logger.Component(logger.CompTelegram))
	StoreContext(c, ctx)
	return ctx
}

// BuildContext returns the stored request context or creates one.
func BuildContext(c tele.Context) context.Context {
	if ctx, ok := ContextFrom(c); ok {
		return ctx
	}
	return NewRequestContext(c)
}

// WithHandler tags the request context with the handler name.
func WithHandler(c tele.Context, handler string) context.Context {
	return annotate(c, handler, logger.WithHandler)
}

// WithFlow tags the request context with the dialogue flow name.
func WithFlow(c tele.Context, flow string) context.Context {
	return annotate(c, flow, logger.WithFlow)
}

func annotate(c tele.Context, v string, with func(context.Context, string) context.Context) context.Context {
	ctx := BuildContext(c)
	if v == "" {
		return ctx
	}
	ctx = with(ctx, v)
	StoreContext(c, ctx)
	return ctx
}

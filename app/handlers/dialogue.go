package handlers

import (
	"context"
	"log/slog"

	"github.com/m3rciful/dialogbot/app/flows"
	"github.com/m3rciful/dialogbot/core/dialogue"
	"github.com/m3rciful/dialogbot/core/logger"
	"github.com/m3rciful/dialogbot/core/records"
	tghelpers "github.com/m3rciful/dialogbot/core/telegram/helpers"
	"github.com/m3rciful/dialogbot/core/telegram/keyboard"

	tele "gopkg.in/telebot.v4"
)

// InProgress reports a live dialogue.
func (h *Handlers) InProgress(ctx context.Context, userID int64) bool {
	return h.Engine.Live(ctx, userID)
}

// Claims keeps unmatched text in the dialogue when a default flow is
// configured or the user has a finished session awaiting /start.
func (h *Handlers) Claims(ctx context.Context, userID int64) bool {
	return h.DefaultFlow != "" || h.Engine.HasSession(ctx, userID)
}

// Handle feeds the message text to the engine.
func (h *Handlers) Handle(c tele.Context) error {
	return h.turn(c, c.Text())
}

func (h *Handlers) turn(c tele.Context, text string) error {
	ctx := tghelpers.BuildContext(c)
	reply, err := h.Engine.Handle(ctx, senderID(c), text)
	return h.send(c, reply, err)
}

func (h *Handlers) send(c tele.Context, reply dialogue.Reply, err error) error {
	if reply.Text == "" {
		if err != nil {
			return err
		}
		return h.UnknownText()(c)
	}
	var markup *tele.ReplyMarkup
	switch {
	case reply.CanSkip:
		markup = keyboard.Stack(keyboard.Button{Label: skipButton, Unique: skipUnique})
	case reply.Finished && h.DefaultFlow == "":
		markup = keyboard.Menu(mainMenu()...)
	}
	var sendErr error
	if markup != nil {
		sendErr = tghelpers.SendText(c, reply.Text, &tele.SendOptions{ReplyMarkup: markup})
	} else {
		sendErr = tghelpers.SendText(c, reply.Text)
	}
	if err != nil {
		return err
	}
	return sendErr
}

func (h *Handlers) start(c tele.Context) error {
	if h.DefaultFlow != "" {
		return h.startFlow(h.DefaultFlow)(c)
	}
	ctx := tghelpers.BuildContext(c)
	if _, err := h.Engine.Reset(ctx, senderID(c)); err != nil {
		logger.Warn(ctx, logger.CompTelegram, "start.reset", slog.String("err", err.Error()))
	}
	return tghelpers.SendText(c, welcomeText, &tele.SendOptions{ReplyMarkup: keyboard.Menu(mainMenu()...)})
}

func (h *Handlers) startFlow(flow string) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx := tghelpers.WithFlow(c, flow)
		reply, err := h.Engine.Start(ctx, senderID(c), flow)
		return h.send(c, reply, err)
	}
}

func (h *Handlers) reset(c tele.Context) error {
	reply, err := h.Engine.Reset(tghelpers.BuildContext(c), senderID(c))
	return h.send(c, reply, err)
}

func (h *Handlers) cancel(c tele.Context) error {
	reply, err := h.Engine.Reset(tghelpers.BuildContext(c), senderID(c))
	if err != nil {
		return h.send(c, reply, err)
	}
	markup := keyboard.Remove()
	if h.DefaultFlow == "" {
		markup = keyboard.Menu(mainMenu()...)
	}
	return tghelpers.SendText(c, cancelText, &tele.SendOptions{ReplyMarkup: markup})
}

func (h *Handlers) skip(c tele.Context) error {
	_ = c.Respond()
	ctx := tghelpers.BuildContext(c)
	if !h.Engine.Live(ctx, senderID(c)) {
		return nil
	}
	return h.turn(c, h.Engine.SkipSentinel())
}

func (h *Handlers) finances(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	_, ok, err := tghelpers.CurrentUser[records.User](ctx, h.Users, senderID(c))
	if err != nil {
		_ = tghelpers.SendText(c, genericError)
		return err
	}
	if !ok {
		return tghelpers.SendText(c, flows.NotRegisteredText)
	}
	return h.startFlow(flows.Finance)(c)
}

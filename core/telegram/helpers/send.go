package helpers

import (
	"bytes"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/m3rciful/dialogbot/core/logger"
	"github.com/m3rciful/dialogbot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

var dispatcher atomic.Pointer[sender.Dispatcher]

// SetDispatcher routes the Send helpers through d. With nil they send inline.
func SetDispatcher(d *sender.Dispatcher) {
	dispatcher.Store(d)
}

// deliver queues run on the chat's dispatcher lane. A full lane is not
// bypassed, since an inline send would overtake the replies still queued
// for that chat. Only a closed dispatcher falls back to sending inline.
func deliver(c tele.Context, action, endpoint string, run func() error) error {
	d := dispatcher.Load()
	if d == nil {
		return run()
	}
	ctx := BuildContext(c)
	err := d.Enqueue(ctx, action, endpoint, run)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sender.ErrQueueClosed):
		logger.Warn(ctx, "tg.sender", "queue.fallback",
			slog.String("action", action),
			slog.String("err", err.Error()),
		)
		return run()
	default:
		logger.Error(ctx, "tg.sender", "queue.dropped",
			slog.String("action", action),
			slog.String("err", err.Error()),
		)
		return err
	}
}

func sendArgs(opts []*tele.SendOptions) []any {
	args := make([]any, 0, len(opts))
	for _, o := range opts {
		if o != nil {
			args = append(args, o)
		}
	}
	return args
}

// SendText sends plain text to the current chat.
func SendText(c tele.Context, text string, opts ...*tele.SendOptions) error {
	args := sendArgs(opts)
	return deliver(c, "send.text", "sendMessage", func() error {
		return c.Send(text, args...)
	})
}

// ReplyHTML quotes the incoming message in HTML mode.
func ReplyHTML(c tele.Context, text string) error {
	return deliver(c, "send.html", "sendMessage", func() error {
		return c.Reply(text, &tele.SendOptions{ParseMode: tele.ModeHTML})
	})
}

// SendVoice replies with an in-memory MP3 clip as a voice message. Each
// attempt reads the clip from the start.
func SendVoice(c tele.Context, audio []byte, caption string) error {
	return deliver(c, "send.voice", "sendVoice", func() error {
		return c.Reply(&tele.Voice{
			File:    tele.FromReader(bytes.NewReader(audio)),
			Caption: caption,
			MIME:    "audio/mpeg",
		})
	})
}

// SendPhotoURL sends a remote picture with a caption.
func SendPhotoURL(c tele.Context, url, caption string) error {
	photo := &tele.Photo{File: tele.FromURL(url), Caption: caption}
	return deliver(c, "send.photo", "sendPhoto", func() error {
		return c.Send(photo)
	})
}

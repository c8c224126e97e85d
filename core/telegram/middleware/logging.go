package middleware

import (
	"log/slog"
	"sync"
	"time"

	"github.com/m3rciful/dialogbot/core/logger"
	"github.com/m3rciful/dialogbot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/dialogbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// seenUpdates remembers update ids for a while. LoggerMiddleware runs both
// globally and per route; the receipt line is written once.
type seenUpdates struct {
	mu        sync.Mutex
	ttl       time.Duration
	ids       map[int]time.Time
	lastSweep time.Time
}

var receipts = &seenUpdates{ttl: 10 * time.Second, ids: make(map[int]time.Time)}

// firstSeen records id and reports whether it was new.
func (s *seenUpdates) firstSeen(id int, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if now.Sub(s.lastSweep) > s.ttl {
		for k, at := range s.ids {
			if now.Sub(at) > s.ttl {
				delete(s.ids, k)
			}
		}
		s.lastSweep = now
	}
	if _, dup := s.ids[id]; dup {
		return false
	}
	s.ids[id] = now
	return true
}

// LoggerMiddleware stores a request context with rid and update metadata
// and logs one sampled receipt line per update.
func LoggerMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		if _, ok := tghelpers.ContextFrom(c); ok {
			return next(c)
		}
		ctx := tghelpers.NewRequestContext(c)
		upd := c.Update()
		if logger.ShouldSampleDebug() && receipts.firstSeen(upd.ID, time.Now()) {
			logger.Debug(ctx, logger.CompTelegram, "update.received", receiptAttrs(c, upd)...)
		}
		return next(c)
	}
}

func receiptAttrs(c tele.Context, upd tele.Update) []slog.Attr {
	attrs := []slog.Attr{slog.String("status", "ok")}
	if ch := c.Chat(); ch != nil {
		attrs = append(attrs, slog.String("chat_type", string(ch.Type)))
	}
	if u := c.Sender(); u != nil && u.LanguageCode != "" {
		attrs = append(attrs, slog.String("lang", u.LanguageCode))
	}
	switch {
	case upd.Callback != nil:
		key, payload := callbacks.ParseCallbackData(upd.Callback)
		attrs = append(attrs,
			slog.String("kind", "callback"),
			slog.String("cb_key", logger.SanitizeLimit(key, 64)),
			slog.String("payload", logger.SanitizeLimit(payload, 128)),
		)
	case upd.Message != nil && upd.Message.Photo != nil:
		attrs = append(attrs, slog.String("kind", "photo"))
	case upd.Message != nil:
		// "text" is clipped by the log handler.
		attrs = append(attrs,
			slog.String("kind", "text"),
			slog.String("text", c.Text()),
		)
	}
	return attrs
}

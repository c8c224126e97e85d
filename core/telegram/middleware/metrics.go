package middleware

import (
	tele "gopkg.in/telebot.v4"
)

// UpdateRecorder receives one call per handled update.
type UpdateRecorder interface {
	ObserveUpdate(handler, status string, messages int)
}

const statsKey = "send_stats"

// sendStats counts what a handler sent while processing one update.
type sendStats struct {
	messages int
	media    int
	keyboard bool
}

func (s *sendStats) record(what any, opts []any) {
	s.messages++
	switch what.(type) {
	case *tele.Photo, *tele.Voice, *tele.Audio, *tele.Document:
		s.media++
	}
	for _, o := range opts {
		switch v := o.(type) {
		case *tele.SendOptions:
			s.keyboard = s.keyboard || (v != nil && v.ReplyMarkup != nil)
		case *tele.ReplyMarkup:
			s.keyboard = s.keyboard || v != nil
		}
	}
}

// countingContext counts successful sends, replies and edits.
type countingContext struct {
	tele.Context
	stats *sendStats
}

func (c countingContext) Send(what any, opts ...any) error {
	err := c.Context.Send(what, opts...)
	if err == nil {
		c.stats.record(what, opts)
	}
	return err
}

func (c countingContext) Reply(what any, opts ...any) error {
	err := c.Context.Reply(what, opts...)
	if err == nil {
		c.stats.record(what, opts)
	}
	return err
}

func (c countingContext) Edit(what any, opts ...any) error {
	err := c.Context.Edit(what, opts...)
	if err == nil {
		c.stats.record(what, opts)
	}
	return err
}

// MessageMetricsMiddleware counts the messages a handler sends.
func MessageMetricsMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		stats := &sendStats{}
		c.Set(statsKey, stats)
		return next(countingContext{Context: c, stats: stats})
	}
}

// GetCounters reports how many messages were sent and whether any carried a keyboard.
func GetCounters(c tele.Context) (int, bool) {
	s, _ := c.Get(statsKey).(*sendStats)
	if s == nil {
		return 0, false
	}
	return s.messages, s.keyboard
}

// MediaSent reports how many of the sent messages were photos, voices or files.
func MediaSent(c tele.Context) int {
	if s, _ := c.Get(statsKey).(*sendStats); s != nil {
		return s.media
	}
	return 0
}

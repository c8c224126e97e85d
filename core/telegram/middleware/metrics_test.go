package middleware

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tele "gopkg.in/telebot.v4"
)

type stubContext struct {
	tele.Context
	store   map[string]any
	sendErr error
	update  tele.Update
	sender  *tele.User
}

func (s *stubContext) Get(k string) any { return s.store[k] }
func (s *stubContext) Set(k string, v any) {
	if s.store == nil {
		s.store = map[string]any{}
	}
	s.store[k] = v
}
func (s *stubContext) Update() tele.Update               { return s.update }
func (s *stubContext) Sender() *tele.User                { return s.sender }
func (s *stubContext) Chat() *tele.Chat                  { return nil }
func (s *stubContext) Send(any, ...any) error            { return s.sendErr }
func (s *stubContext) Reply(what any, opts ...any) error { return s.Send(what, opts...) }

func TestMessageMetricsMiddleware(t *testing.T) {
	c := &stubContext{store: map[string]any{}}
	h := MessageMetricsMiddleware(func(c tele.Context) error {
		_ = c.Send("hi")
		_ = c.Send("menu", &tele.SendOptions{ReplyMarkup: &tele.ReplyMarkup{}})
		return c.Reply(&tele.Voice{})
	})
	require.NoError(t, h(c))

	msgs, kb := GetCounters(c)
	assert.Equal(t, 3, msgs)
	assert.True(t, kb)
	assert.Equal(t, 1, MediaSent(c))
}

func TestMessageMetricsIgnoresFailedSends(t *testing.T) {
	c := &stubContext{store: map[string]any{}, sendErr: errors.New("blocked")}
	h := MessageMetricsMiddleware(func(c tele.Context) error {
		return c.Send("hi")
	})
	require.Error(t, h(c))

	msgs, kb := GetCounters(c)
	assert.Zero(t, msgs)
	assert.False(t, kb)
}

package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	tele "gopkg.in/telebot.v4"
)

func TestRateLimitMiddleware(t *testing.T) {
	clock := time.Unix(1_700_000_000, 0)
	limited := 0
	mw := RateLimitMiddleware(RateLimitOptions{
		Interval:  time.Second,
		Exclude:   map[string]struct{}{"callback": {}},
		OnLimited: func(tele.Context) error { limited++; return nil },
		Now:       func() time.Time { return clock },
	})
	handled := 0
	h := mw(func(tele.Context) error { handled++; return nil })

	msg := &stubContext{update: tele.Update{ID: 1, Message: &tele.Message{Text: "a"}}, sender: &tele.User{ID: 9}}
	cb := &stubContext{update: tele.Update{ID: 2, Callback: &tele.Callback{Data: "x"}}, sender: &tele.User{ID: 9}}

	assert.NoError(t, h(msg))
	assert.NoError(t, h(msg))
	assert.NoError(t, h(cb))
	clock = clock.Add(2 * time.Second)
	assert.NoError(t, h(msg))

	assert.Equal(t, 3, handled)
	assert.Equal(t, 1, limited)
}

func TestLimiterPrunesIdleUsers(t *testing.T) {
	lim := &limiter{interval: time.Second, last: make(map[int64]time.Time)}
	start := time.Unix(0, 0)
	assert.True(t, lim.allow(1, start))
	assert.True(t, lim.allow(2, start.Add(2*time.Minute)))
	assert.Len(t, lim.last, 1)
}

func TestRecoverMiddleware(t *testing.T) {
	c := &stubContext{update: tele.Update{ID: 3}, sender: &tele.User{ID: 1}}
	err := RecoverMiddleware(func(tele.Context) error { panic("boom") })(c)
	assert.ErrorIs(t, err, ErrPanic)
	assert.ErrorContains(t, err, "boom")
}

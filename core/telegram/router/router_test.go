package router

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/dialogbot/core/services"
	"github.com/m3rciful/dialogbot/core/state"
	tg "github.com/m3rciful/dialogbot/core/telegram"
	"github.com/m3rciful/dialogbot/core/telegram/commands"
	"github.com/m3rciful/dialogbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

type fakeContext struct {
	tele.Context
	sender    *tele.User
	text      string
	callback  *tele.Callback
	store     map[string]any
	sent      []any
	responded int
}

func newFake(userID int64, text string) *fakeContext {
	return &fakeContext{
		sender: &tele.User{ID: userID},
		text:   text,
		store:  map[string]any{},
	}
}

func (f *fakeContext) Sender() *tele.User       { return f.sender }
func (f *fakeContext) Chat() *tele.Chat         { return &tele.Chat{ID: f.sender.ID, Type: tele.ChatPrivate} }
func (f *fakeContext) Text() string             { return f.text }
func (f *fakeContext) Callback() *tele.Callback { return f.callback }
func (f *fakeContext) Get(k string) any         { return f.store[k] }
func (f *fakeContext) Set(k string, v any)      { f.store[k] = v }
func (f *fakeContext) Update() tele.Update {
	u := tele.Update{ID: 1, Callback: f.callback}
	if f.callback == nil {
		u.Message = &tele.Message{Text: f.text}
	}
	return u
}
func (f *fakeContext) Send(what any, _ ...any) error {
	f.sent = append(f.sent, what)
	return nil
}
func (f *fakeContext) Reply(what any, opts ...any) error { return f.Send(what, opts...) }
func (f *fakeContext) Respond(...*tele.CallbackResponse) error {
	f.responded++
	return nil
}

type fakeFSM struct {
	live    bool
	claims  bool
	handled []string
}

func (f *fakeFSM) InProgress(context.Context, int64) bool { return f.live }
func (f *fakeFSM) Claims(context.Context, int64) bool     { return f.claims }
func (f *fakeFSM) Handle(c tele.Context) error {
	f.handled = append(f.handled, c.Text())
	return nil
}

type recorder struct{ handlers []string }

func (r *recorder) ObserveUpdate(handler, _ string, _ int) { r.handlers = append(r.handlers, handler) }

func routeFor(t *testing.T, routes []tg.Route, endpoint any) tele.HandlerFunc {
	t.Helper()
	for _, r := range routes {
		if r.Endpoint == endpoint {
			return r.Handler
		}
	}
	t.Fatalf("no route for %v", endpoint)
	return nil
}

func newRegistry(t *testing.T, hits *[]string) *tg.Registry {
	t.Helper()
	reg := tg.NewRegistry()
	require.NoError(t, reg.RegisterCommand("/rates", commands.Command{
		Description: "Курс валют",
		Aliases:     []string{"Курс валют"},
		Handler: func(tele.Context) error {
			*hits = append(*hits, "rates")
			return nil
		},
	}))
	require.NoError(t, reg.RegisterCommand("/students", commands.Command{
		Description: "Ученики",
		AdminOnly:   true,
		Handler: func(tele.Context) error {
			*hits = append(*hits, "students")
			return nil
		},
	}))
	reg.SetTextFallback(func(tele.Context) error {
		*hits = append(*hits, "fallback")
		return nil
	})
	return reg
}

func TestTextRoutingOrder(t *testing.T) {
	var hits []string
	fsm := &fakeFSM{}
	rec := &recorder{}
	r := New(newRegistry(t, &hits), fsm, Options{Recorder: rec})
	text := routeFor(t, r.MessageRoutes(), tele.OnText)

	// A live dialogue swallows menu labels as answers.
	fsm.live = true
	require.NoError(t, text(newFake(7, "Курс валют")))
	assert.Equal(t, []string{"Курс валют"}, fsm.handled)
	assert.Empty(t, hits)

	// Without one, the label triggers its command.
	fsm.live = false
	fsm.claims = true
	require.NoError(t, text(newFake(7, "Курс валют")))
	assert.Equal(t, []string{"rates"}, hits)

	// Unmatched text goes back to the FSM when it claims the user.
	require.NoError(t, text(newFake(7, "спасибо")))
	assert.Equal(t, []string{"Курс валют", "спасибо"}, fsm.handled)

	fsm.claims = false
	require.NoError(t, text(newFake(7, "спасибо")))
	assert.Equal(t, []string{"rates", "fallback"}, hits)

	assert.Equal(t, []string{"dialogue", "rates", "dialogue", "fallback"}, rec.handlers)
}

func TestTextRoutingSkipsAdminAliases(t *testing.T) {
	var hits []string
	r := New(newRegistry(t, &hits), nil, Options{})
	text := routeFor(t, r.MessageRoutes(), tele.OnText)

	require.NoError(t, text(newFake(7, "/students")))
	assert.Equal(t, []string{"fallback"}, hits)
}

func TestCommandRoutesAdminOnly(t *testing.T) {
	var hits []string
	rejected := 0
	r := New(newRegistry(t, &hits), nil, Options{
		IsAdmin: func(id int64) bool { return id == 1 },
		OnAdminReject: func(tele.Context) error {
			rejected++
			return nil
		},
	})
	routes := r.CommandRoutes()
	students := routeFor(t, routes, "/students")

	require.NoError(t, students(newFake(2, "/students")))
	assert.Equal(t, 1, rejected)
	assert.Empty(t, hits)

	require.NoError(t, students(newFake(1, "/students")))
	assert.Equal(t, []string{"students"}, hits)
}

func TestCallbackRoute(t *testing.T) {
	var hits []string
	reg := newRegistry(t, &hits)
	require.NoError(t, reg.RegisterCallback("skip", func(c tele.Context) error {
		hits = append(hits, "skip:"+c.Callback().Data)
		return c.Respond()
	}))
	r := New(reg, nil, Options{})
	cb := r.CallbackRoute().Handler

	c := newFake(7, "")
	c.callback = &tele.Callback{Data: "\fskip|now"}
	require.NoError(t, cb(c))
	assert.Equal(t, []string{"skip:\fskip|now"}, hits)
	assert.Equal(t, 1, c.responded)

	c = newFake(7, "")
	c.callback = &tele.Callback{Data: "\fgone"}
	require.NoError(t, cb(c))
	assert.Equal(t, 1, c.responded)
}

type fallbackFSM struct {
	fakeFSM
	unknown []string
}

func (f *fallbackFSM) UnknownText() tele.HandlerFunc {
	return func(c tele.Context) error {
		f.unknown = append(f.unknown, "text:"+c.Text())
		return nil
	}
}

func (f *fallbackFSM) UnknownCallback() tele.HandlerFunc {
	return func(c tele.Context) error {
		f.unknown = append(f.unknown, "callback")
		return c.Respond()
	}
}

func TestFallbacksFromFSM(t *testing.T) {
	fsm := &fallbackFSM{}
	r := New(tg.NewRegistry(), fsm, Options{})

	require.NoError(t, routeFor(t, r.MessageRoutes(), tele.OnText)(newFake(7, "/nope")))
	c := newFake(7, "")
	c.callback = &tele.Callback{Data: "\fstale"}
	require.NoError(t, r.CallbackRoute().Handler(c))

	assert.Equal(t, []string{"text:/nope", "callback"}, fsm.unknown)
	assert.Equal(t, 1, c.responded)
}

func TestPhotoRouteOptional(t *testing.T) {
	r := New(tg.NewRegistry(), nil, Options{})
	assert.Len(t, r.MessageRoutes(), 1)

	r = New(tg.NewRegistry(), nil, Options{OnPhoto: func(tele.Context) error { return nil }})
	assert.Len(t, r.MessageRoutes(), 2)
}

func TestNormalizeHandlerName(t *testing.T) {
	assert.Equal(t, "rates", normalizeHandlerName("/rates"))
	assert.Equal(t, "unknown", normalizeHandlerName("  "))
	assert.Equal(t, "my_expenses", normalizeHandlerName("My Expenses"))
}

func TestDeriveErrorCode(t *testing.T) {
	cases := map[string]error{
		"":                nil,
		"SERVICE_TIMEOUT": fmt.Errorf("rates: %w", &services.Error{Service: "fx", Kind: services.KindTimeout}),
		"STORAGE_PUT":     &state.StorageError{Op: "put", Err: errors.New("down")},
		"LOCK_TIMEOUT":    fmt.Errorf("%w: slow", state.ErrLockTimeout),
		"TG_403":          &tele.Error{Code: 403, Description: "Forbidden: bot was blocked by the user"},
		"DEADLINE":        fmt.Errorf("send: %w", context.DeadlineExceeded),
		"PANIC":           fmt.Errorf("%w: nil map", middleware.ErrPanic),
		"ERRORSTRING":     errors.New("plain"),
	}
	for want, err := range cases {
		assert.Equal(t, want, deriveErrorCode(err), "%v", err)
	}
}

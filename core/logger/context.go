package logger

import (
	"context"
	"log/slog"
)

// Request identifies the update a context belongs to. Every field is
// optional; zero values are left out of log lines.
type Request struct {
	RID      string
	UpdateID int
	UserID   int64
	ChatID   int64
	Handler  string
	Flow     string
}

type ctxKey int

const (
	requestKey ctxKey = iota
	loggerKey
)

// RequestFrom returns the request metadata stored in ctx.
func RequestFrom(ctx context.Context) Request {
	if ctx == nil {
		return Request{}
	}
	r, _ := ctx.Value(requestKey).(Request)
	return r
}

func withRequest(ctx context.Context, edit func(*Request)) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	r := RequestFrom(ctx)
	edit(&r)
	return context.WithValue(ctx, requestKey, r)
}

// WithLogger stores log in ctx for FromContext.
func WithLogger(ctx context.Context, log *slog.Logger) context.Context {
	if log == nil {
		return ctx
	}
	return context.WithValue(ctx, loggerKey, log)
}

// FromContext returns the logger stored in ctx, or the global one.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
			return l
		}
	}
	return L
}

// WithRID attaches a request correlation id.
func WithRID(ctx context.Context, rid string) context.Context {
	return withRequest(ctx, func(r *Request) { r.RID = rid })
}

// WithUpdateMeta attaches the update, user and chat ids.
func WithUpdateMeta(ctx context.Context, updateID int, userID, chatID int64) context.Context {
	return withRequest(ctx, func(r *Request) {
		r.UpdateID, r.UserID, r.ChatID = updateID, userID, chatID
	})
}

// WithHandler names the handler serving the update.
func WithHandler(ctx context.Context, handler string) context.Context {
	if handler == "" {
		return ctx
	}
	return withRequest(ctx, func(r *Request) { r.Handler = handler })
}

// WithFlow tags every log line of a dialogue turn with the flow name.
func WithFlow(ctx context.Context, flow string) context.Context {
	if flow == "" {
		return ctx
	}
	return withRequest(ctx, func(r *Request) { r.Flow = flow })
}

// RIDFrom and ChatIDFrom are shorthands over RequestFrom.
func RIDFrom(ctx context.Context) string   { return RequestFrom(ctx).RID }
func ChatIDFrom(ctx context.Context) int64 { return RequestFrom(ctx).ChatID }

// attrs lists the non-zero fields as log attributes.
func (r Request) attrs() []slog.Attr {
	var out []slog.Attr
	if r.RID != "" {
		out = append(out, slog.String("rid", r.RID))
	}
	if r.Flow != "" {
		out = append(out, slog.String("flow", r.Flow))
	}
	if r.UserID != 0 {
		out = append(out, slog.Int64("user_id", r.UserID))
	}
	if r.UpdateID != 0 {
		out = append(out, slog.Int("update_id", r.UpdateID))
	}
	if r.ChatID != 0 {
		out = append(out, slog.Int64("chat_id", r.ChatID))
	}
	if r.Handler != "" {
		out = append(out, slog.String("handler", r.Handler))
	}
	return out
}

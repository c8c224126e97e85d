package logger

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
)

func newTestHandler(format logFormat) (*structuredHandler, *asyncWriter, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	aw := newAsyncWriter([]io.Writer{buf}, 1024)
	h := newStructuredHandler(handlerConfig{
		level:    slog.LevelInfo,
		writer:   aw,
		format:   format,
		keyOrder: append([]string(nil), defaultKeyOrder...),
	})
	return h, aw, buf
}

func drain(t *testing.T, aw *asyncWriter, buf *bytes.Buffer) string {
	t.Helper()
	if err := aw.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if err := aw.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	return strings.TrimSpace(buf.String())
}

func TestStructuredHandlerKVOrder(t *testing.T) {
	h, aw, buf := newTestHandler(formatKV)
	ctx := WithRID(context.Background(), "rid-123")
	ctx = WithUpdateMeta(ctx, 42, 7, 9)

	LogEvent(ctx, slog.New(h).With("component", CompDialogue), slog.LevelInfo, "turn",
		slog.String("status", "ok"),
		slog.String("step", "category1"),
	)

	tokens := strings.Split(drain(t, aw, buf), " ")
	expected := []string{"ts=", "level=INFO", "component=dlg", "event=turn", "status=ok", "rid=rid-123"}
	if len(tokens) < len(expected) {
		t.Fatalf("unexpected token count: %d (%v)", len(tokens), tokens)
	}
	for i, prefix := range expected {
		if !strings.HasPrefix(tokens[i], prefix) {
			t.Fatalf("token %d = %s, expected prefix %s", i, tokens[i], prefix)
		}
	}
}

func TestStructuredHandlerJSONOrder(t *testing.T) {
	h, aw, buf := newTestHandler(formatJSON)
	ctx := WithRID(context.Background(), "rid-json")
	ctx = WithFlow(ctx, "finance")

	LogEvent(ctx, slog.New(h).With("component", CompService), slog.LevelError, "call",
		slog.String("status", "fail"),
		slog.String("service", "fx"),
		slog.String("err", "boom"),
	)

	line := drain(t, aw, buf)
	prefixes := []string{`{"ts":`, `"level":"ERROR"`, `"component":"svc"`, `"event":"call"`, `"status":"fail"`, `"rid":"rid-json"`, `"flow":"finance"`, `"service":"fx"`}
	pos := -1
	for _, pref := range prefixes {
		idx := strings.Index(line, pref)
		if idx == -1 || idx < pos {
			t.Fatalf("prefix %s not found in order within %s", pref, line)
		}
		pos = idx
	}
}

func TestStructuredHandlerCompactRID(t *testing.T) {
	h, aw, buf := newTestHandler(formatKV)
	rawRID := "123:456:789"
	LogEvent(WithRID(context.Background(), rawRID), slog.New(h), slog.LevelInfo, "rid.test")

	line := drain(t, aw, buf)
	if !strings.Contains(line, "rid="+CompactRID(rawRID)) {
		t.Fatalf("expected compact rid, got %s", line)
	}
	if strings.Contains(line, "rid_full=") {
		t.Fatalf("rid_full should be omitted in KV output, got %s", line)
	}
	if !strings.Contains(line, "component=app") {
		t.Fatalf("expected default component, got %s", line)
	}
}

func TestStructuredHandlerCompactRIDJSON(t *testing.T) {
	h, aw, buf := newTestHandler(formatJSON)
	rawRID := "12:34:56"
	LogEvent(WithRID(context.Background(), rawRID), slog.New(h), slog.LevelInfo, "rid.test")

	line := drain(t, aw, buf)
	if !strings.Contains(line, `"rid":"`+CompactRID(rawRID)+`"`) {
		t.Fatalf("expected compact rid in JSON, got %s", line)
	}
	if !strings.Contains(line, `"rid_full":"`+rawRID+`"`) {
		t.Fatalf("expected rid_full in JSON output, got %s", line)
	}
	if !strings.Contains(line, `"ts_unix_nano"`) {
		t.Fatalf("expected ts_unix_nano in JSON output, got %s", line)
	}
}

func TestStructuredHandlerOutcomeAndDuration(t *testing.T) {
	h, aw, buf := newTestHandler(formatKV)
	LogEvent(context.Background(), slog.New(h), slog.LevelInfo, "turn",
		slog.String("outcome", "Finalized"),
		slog.Duration("duration", 1500*1e6),
	)
	LogEvent(context.Background(), slog.New(h), slog.LevelInfo, "turn",
		slog.String("outcome", "exploded"),
	)

	lines := strings.Split(drain(t, aw, buf), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if !strings.Contains(lines[0], "outcome=finalized") || !strings.Contains(lines[0], "duration_ms=1500") {
		t.Fatalf("unexpected first line %s", lines[0])
	}
	if !strings.Contains(lines[1], "outcome=other") {
		t.Fatalf("unknown outcome should collapse to other, got %s", lines[1])
	}
}

func TestRatioSampler(t *testing.T) {
	s := newRatioSampler(parseRatioSpec("1/3"))
	var passed int
	for i := 0; i < 9; i++ {
		if s.Allow() {
			passed++
		}
	}
	if passed != 3 {
		t.Fatalf("expected 3 sampled events, got %d", passed)
	}

	s.Set(parseRatioSpec("bogus"))
	if !s.Allow() {
		t.Fatal("disabled sampler must allow every event")
	}
}

func TestStructuredHandlerRedactsSecrets(t *testing.T) {
	h, aw, buf := newTestHandler(formatKV)
	LogEvent(context.Background(), slog.New(h), slog.LevelWarn, "call",
		slog.String("token", "123456:ABCDEFGHIJKLMNOPQRSTUVWXYZ"),
		slog.String("err", `Post "https://api.telegram.org/bot123456:ABCDEFGHIJKLMNOPQRSTUVWXYZ/getUpdates": timeout`),
		slog.String("url", "https://v6.exchangerate-api.com/v6/0123456789abcdef/latest/USD"),
		slog.String("text", strings.Repeat("я", 100)),
	)

	line := drain(t, aw, buf)
	if strings.Contains(line, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") || strings.Contains(line, "0123456789abcdef") {
		t.Fatalf("secret leaked: %s", line)
	}
	if !strings.Contains(line, "token=[redacted]") {
		t.Fatalf("expected masked token field, got %s", line)
	}
	if strings.Contains(line, strings.Repeat("я", 49)) {
		t.Fatalf("user text not clipped: %s", line)
	}
}

func TestRedactSecrets(t *testing.T) {
	cases := map[string]string{
		"GET /v2/forecast?lat=1&key=abc123 failed": "GET /v2/forecast?lat=1&key=[redacted] failed",
		"Authorization: Bearer sk-123":             "Authorization: Bearer [redacted]",
		"plain text":                               "plain text",
	}
	for in, want := range cases {
		if got := RedactSecrets(in); got != want {
			t.Fatalf("RedactSecrets(%q) = %q, want %q", in, got, want)
		}
	}
}

package logger

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestStatus(t *testing.T) {
	cases := map[string]error{
		"ok":        nil,
		"fail":      errors.New("boom"),
		"timeout":   fmt.Errorf("call: %w", context.DeadlineExceeded),
		"cancelled": context.Canceled,
	}
	for want, err := range cases {
		if got := Status(err); got != want {
			t.Errorf("Status(%v) = %q, want %q", err, got, want)
		}
	}
}

func TestRoundMS(t *testing.T) {
	if got := RoundMS(-time.Second); got != 0 {
		t.Fatalf("negative: %v", got)
	}
	if got := RoundMS(1499 * time.Microsecond); got != time.Millisecond {
		t.Fatalf("round: %v", got)
	}
}

func TestPreview(t *testing.T) {
	files := []string{"1.up.sql", "2.up.sql", "3.up.sql"}
	if got := Preview(files, 5); got != "1.up.sql, 2.up.sql, 3.up.sql" {
		t.Fatalf("full = %q", got)
	}
	if got := Preview(files, 1); got != "1.up.sql, +2" {
		t.Fatalf("clipped = %q", got)
	}
	if got := Preview(files, 0); got != "+3" {
		t.Fatalf("none = %q", got)
	}
}

package logger

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"
)

// Status maps err to a status attribute value. Context expiry is reported
// separately from other failures.
func Status(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "cancelled"
	default:
		return "fail"
	}
}

// RoundMS rounds d to whole milliseconds; negative values become zero.
func RoundMS(d time.Duration) time.Duration {
	return max(d, 0).Round(time.Millisecond)
}

// Preview joins the first limit values and appends "+N" for the rest.
func Preview(values []string, limit int) string {
	if len(values) <= limit {
		return strings.Join(values, ", ")
	}
	head := strings.Join(values[:max(limit, 0)], ", ")
	rest := "+" + strconv.Itoa(len(values)-max(limit, 0))
	if head == "" {
		return rest
	}
	return head + ", " + rest
}

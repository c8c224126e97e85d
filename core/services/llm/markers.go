package llm

import (
	"strings"

	"github.com/m3rciful/dialogbot/core/dialogue"
)

// Protocol markers the system prompt asks the model to emit.
const (
	MarkerReportOpen  = "[REPORT]"
	MarkerReportClose = "[/REPORT]"
	MarkerEnd         = "[CONVERSATION_END]"
)

// Parse splits a raw model reply into visible text, the finished flag and
// the report block. A report is only read from a finished reply.
func Parse(raw string) dialogue.Completion {
	out := dialogue.Completion{Finished: strings.Contains(raw, MarkerEnd)}
	if out.Finished {
		out.Report = extractReport(raw)
	}
	out.Text = strings.TrimSpace(stripMarkers(raw))
	return out
}

func extractReport(raw string) map[string]string {
	_, after, ok := strings.Cut(raw, MarkerReportOpen)
	if !ok {
		return nil
	}
	block, _, ok := strings.Cut(after, MarkerReportClose)
	if !ok {
		return nil
	}
	report := make(map[string]string)
	for _, line := range strings.Split(block, "\n") {
		key, value, ok := strings.Cut(strings.TrimSpace(line), ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		report[key] = strings.TrimSpace(value)
	}
	if len(report) == 0 {
		return nil
	}
	return report
}

// stripMarkers removes the report block and every end marker. An
// unterminated block hides everything after its opening marker.
func stripMarkers(raw string) string {
	text := strings.ReplaceAll(raw, MarkerEnd, "")
	for {
		before, after, ok := strings.Cut(text, MarkerReportOpen)
		if !ok {
			break
		}
		_, rest, closed := strings.Cut(after, MarkerReportClose)
		if !closed {
			text = before
			break
		}
		text = before + rest
	}
	return strings.ReplaceAll(text, MarkerReportClose, "")
}

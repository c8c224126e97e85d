// Package flows declares the bot's step tables and their finalize actions.
package flows

import (
	"context"
	"fmt"
	"strings"

	"github.com/m3rciful/dialogbot/core/dialogue"
	"github.com/m3rciful/dialogbot/core/records"
	"github.com/m3rciful/dialogbot/core/telegram/format"
)

// Flow names.
const (
	Registration = "registration"
	Finance      = "finance"
	Assessment   = "assessment"
)

// Records is the slice of the record store the flows write to.
type Records interface {
	InsertStudent(ctx context.Context, sessionID string, st records.Student) error
	SaveExpenses(ctx context.Context, telegramID int64, lines [3]records.Expense) error
	SaveAssessment(ctx context.Context, sessionID string, telegramID int64, report map[string]string) error
}

// RegisterAll adds every flow to the engine.
func RegisterAll(e *dialogue.Engine, rec Records, llm dialogue.Completer) error {
	for _, f := range []*dialogue.Flow{
		NewRegistration(rec),
		NewFinance(rec, e.SkipSentinel()),
		NewAssessment(rec, llm),
	} {
		if err := e.Register(f); err != nil {
			return fmt.Errorf("flows: %w", err)
		}
	}
	return nil
}

// ExpenseSummary renders expense lines with their total.
func ExpenseSummary(lines []records.Expense) string {
	var b strings.Builder
	b.WriteString("📊 Ваши расходы:\n")
	var total float64
	for _, l := range lines {
		if l.Category == nil {
			continue
		}
		fmt.Fprintf(&b, "• %s: %s\n", *l.Category, format.Money(l.Amount))
		total += l.Amount
	}
	fmt.Fprintf(&b, "\n💵 Общая сумма: %s", format.Money(total))
	return b.String()
}

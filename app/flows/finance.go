package flows

import (
	"context"
	"errors"
	"fmt"

	"github.com/m3rciful/dialogbot/core/dialogue"
	"github.com/m3rciful/dialogbot/core/dialogue/validate"
	"github.com/m3rciful/dialogbot/core/records"
	"github.com/m3rciful/dialogbot/core/state"
)

// NotRegisteredText is sent when expenses arrive for an unknown user.
const NotRegisteredText = "Сначала зарегистрируйтесь! 📝"

type financeFields struct {
	Category1 *string `mapstructure:"category1"`
	Expenses1 float64 `mapstructure:"expenses1"`
	Category2 *string `mapstructure:"category2"`
	Expenses2 float64 `mapstructure:"expenses2"`
	Category3 *string `mapstructure:"category3"`
	Expenses3 float64 `mapstructure:"expenses3"`
}

func (f financeFields) lines() [3]records.Expense {
	return [3]records.Expense{
		{Category: f.Category1, Amount: f.Expenses1},
		{Category: f.Category2, Amount: f.Expenses2},
		{Category: f.Category3, Amount: f.Expenses3},
	}
}

// NewFinance collects up to three expense categories. The second and third
// category accept skip; a skipped category leaves its amount at zero.
func NewFinance(rec Records, skip string) *dialogue.Flow {
	amountPrompt := func(field string) string {
		return "Введите расходы для категории '{{." + field + "}}' (в рублях):"
	}
	return &dialogue.Flow{
		Name: Finance,
		Steps: []dialogue.Step{
			{
				Name:     "category1",
				Prompt:   "Введите первую категорию расходов (например: Продукты):",
				Validate: validate.Label,
				Next:     "expenses1",
			},
			{Name: "expenses1", Prompt: amountPrompt("category1"), Validate: validate.Amount, Next: "category2"},
			{
				Name:       "category2",
				Prompt:     fmt.Sprintf("Введите вторую категорию расходов (или %s для пропуска):", skip),
				Validate:   validate.Label,
				AllowSkip:  true,
				Next:       "expenses2",
				NextOnSkip: "category3",
			},
			{Name: "expenses2", Prompt: amountPrompt("category2"), Validate: validate.Amount, Next: "category3"},
			{
				Name:       "category3",
				Prompt:     fmt.Sprintf("Введите третью категорию расходов (или %s для пропуска):", skip),
				Validate:   validate.Label,
				AllowSkip:  true,
				Next:       "expenses3",
				NextOnSkip: state.StepFinished,
			},
			{Name: "expenses3", Prompt: amountPrompt("category3"), Validate: validate.Amount, Next: state.StepFinished},
		},
		Finalize: func(ctx context.Context, s *state.Session) (string, error) {
			var f financeFields
			if err := s.DecodeFields(&f); err != nil {
				return "", err
			}
			lines := f.lines()
			err := rec.SaveExpenses(ctx, s.UserID, lines)
			if errors.Is(err, records.ErrNotRegistered) {
				return NotRegisteredText + " Данные не сохранены.", nil
			}
			if err != nil {
				return "", err
			}
			return "✅ Данные сохранены!\n\n" + ExpenseSummary(lines[:]), nil
		},
	}
}

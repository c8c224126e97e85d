package flows

import (
	"context"
	"fmt"

	"github.com/m3rciful/dialogbot/core/dialogue"
	"github.com/m3rciful/dialogbot/core/dialogue/validate"
	"github.com/m3rciful/dialogbot/core/records"
	"github.com/m3rciful/dialogbot/core/state"
)

type studentFields struct {
	Name  string `mapstructure:"name"`
	Age   int    `mapstructure:"age"`
	Grade string `mapstructure:"grade"`
}

// NewRegistration asks a student for name, age and grade.
func NewRegistration(rec Records) *dialogue.Flow {
	return &dialogue.Flow{
		Name: Registration,
		Steps: []dialogue.Step{
			{Name: "name", Prompt: "Привет! Как тебя зовут?", Validate: validate.Text, Next: "age"},
			{
				Name:     "age",
				Prompt:   "Сколько тебе лет?",
				Retry:    "Пожалуйста, введи возраст числом.",
				Validate: validate.Integer,
				Next:     "grade",
			},
			{
				Name:     "grade",
				Prompt:   "В каком ты классе? (например: 5А или 10Б)",
				Validate: validate.Text,
				Next:     state.StepFinished,
			},
		},
		Finalize: func(ctx context.Context, s *state.Session) (string, error) {
			var f studentFields
			if err := s.DecodeFields(&f); err != nil {
				return "", err
			}
			st := records.Student{Name: f.Name, Age: f.Age, Grade: f.Grade}
			if err := rec.InsertStudent(ctx, s.ID, st); err != nil {
				return "", err
			}
			return fmt.Sprintf("Спасибо! Данные сохранены:\nИмя: %s\nВозраст: %d\nКласс: %s", f.Name, f.Age, f.Grade), nil
		},
	}
}

package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		text     string
		finished bool
		report   map[string]string
	}{
		{
			name: "plain reply",
			raw:  "  Как тебя зовут?  ",
			text: "Как тебя зовут?",
		},
		{
			name:     "finished with report",
			raw:      "Спасибо, руководитель свяжется с вами.\n[CONVERSATION_END]\n[REPORT]\nИмя: Олег\nБюджет: 100 000: до конца года\n\nмусор\n[/REPORT]",
			text:     "Спасибо, руководитель свяжется с вами.",
			finished: true,
			report:   map[string]string{"Имя": "Олег", "Бюджет": "100 000: до конца года"},
		},
		{
			name:     "finished without report",
			raw:      "Всего доброго! [CONVERSATION_END]",
			text:     "Всего доброго!",
			finished: true,
		},
		{
			name: "report without end marker is hidden but not read",
			raw:  "Записал. [REPORT]Имя: Олег[/REPORT] Что дальше?",
			text: "Записал.  Что дальше?",
		},
		{
			name:     "unterminated report hides the tail",
			raw:      "Готово. [CONVERSATION_END] [REPORT] Имя: Олег",
			text:     "Готово.",
			finished: true,
		},
		{
			name: "stray closing marker",
			raw:  "Хорошо[/REPORT]",
			text: "Хорошо",
		},
		{
			name:     "empty report block",
			raw:      "[CONVERSATION_END][REPORT]\n\n[/REPORT]",
			text:     "",
			finished: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.raw)
			assert.Equal(t, tt.text, got.Text)
			assert.Equal(t, tt.finished, got.Finished)
			assert.Equal(t, tt.report, got.Report)
		})
	}
}

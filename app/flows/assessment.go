package flows

import (
	"context"

	"github.com/m3rciful/dialogbot/core/dialogue"
	"github.com/m3rciful/dialogbot/core/services/llm"
	"github.com/m3rciful/dialogbot/core/state"
)

// NewAssessment runs the free-form client interview. The completer decides
// when the conversation ends; its report is stored with the session id.
func NewAssessment(rec Records, c dialogue.Completer) *dialogue.Flow {
	return &dialogue.Flow{
		Name:  Assessment,
		Intro: llm.Greeting,
		Steps: []dialogue.Step{
			{Name: "chat", Converse: c},
		},
		Finalize: func(ctx context.Context, s *state.Session) (string, error) {
			if s.Report == nil {
				return "", nil
			}
			return "", rec.SaveAssessment(ctx, s.ID, s.UserID, s.Report)
		},
	}
}

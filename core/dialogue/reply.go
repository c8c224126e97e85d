package dialogue

import "github.com/m3rciful/dialogbot/core/state"

// Outcome classifies what a turn did.
type Outcome string

const (
	OutcomePrompted        Outcome = "prompted"
	OutcomeRejected        Outcome = "rejected"
	OutcomeSkipped         Outcome = "skipped"
	OutcomeFinalized       Outcome = "finalized"
	OutcomeAlreadyComplete Outcome = "already_complete"
	OutcomeApology         Outcome = "apology"
	OutcomeReset           Outcome = "reset"
	OutcomeNoSession       Outcome = "no_session"
	OutcomeFailed          Outcome = "failed"
)

// Reply is the engine's answer to one inbound message.
type Reply struct {
	// Text is sent back to the user. Empty only for OutcomeNoSession.
	Text    string
	Outcome Outcome
	// Step is the step now awaited.
	Step state.Step
	// CanSkip is true when Step accepts the skip sentinel.
	CanSkip  bool
	Finished bool
}

// Messages are the fixed texts the engine sends on its own.
type Messages struct {
	AlreadyComplete string
	Reset           string
	Apology         string
	StorageFailure  string
	EmptyReply      string
	Completed       string
}

// DefaultMessages returns the Russian texts used by the bot.
func DefaultMessages() Messages {
	return Messages{
		AlreadyComplete: "Спасибо за разговор! Если хочешь начать новый разговор, отправь /start",
		Reset:           "Разговор сброшен. Отправь /start для начала нового разговора.",
		Apology:         "Извините, произошла техническая ошибка. Попробуйте позже.",
		StorageFailure:  "Не удалось сохранить ответ. Попробуйте ещё раз чуть позже.",
		EmptyReply:      "Не совсем понял. Можешь рассказать подробнее?",
		Completed:       "Спасибо! Данные сохранены.",
	}
}

func (m Messages) withDefaults() Messages {
	d := DefaultMessages()
	fill := func(dst *string, def string) {
		if *dst == "" {
			*dst = def
		}
	}
	fill(&m.AlreadyComplete, d.AlreadyComplete)
	fill(&m.Reset, d.Reset)
	fill(&m.Apology, d.Apology)
	fill(&m.StorageFailure, d.StorageFailure)
	fill(&m.EmptyReply, d.EmptyReply)
	fill(&m.Completed, d.Completed)
	return m
}

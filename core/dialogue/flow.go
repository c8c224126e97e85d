package dialogue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/m3rciful/dialogbot/core/dialogue/validate"
	"github.com/m3rciful/dialogbot/core/state"
)

var (
	// ErrUnknownFlow is returned for a flow name that was never registered.
	ErrUnknownFlow = errors.New("dialogue: unknown flow")
	// ErrInvalidFlow wraps table errors found at registration.
	ErrInvalidFlow = errors.New("dialogue: invalid flow")
	// ErrCorruptSession is returned when a stored session points at a step its flow lacks.
	ErrCorruptSession = errors.New("dialogue: session step not in flow")
)

// Completer produces the assistant turn of a conversational step.
// Implementations convert every transport or provider failure into an error;
// the engine answers such errors with the apology message.
type Completer interface {
	Complete(ctx context.Context, history []state.Message) (Completion, error)
}

// Completion is the parsed assistant reply.
type Completion struct {
	// Text is what the user sees, with protocol markers removed.
	Text string
	// Finished asks the engine to finalize the session.
	Finished bool
	// Report is the structured summary, nil when none was produced.
	Report map[string]string
}

// FinalizeFunc persists a completed session and returns the confirmation text.
// It receives a copy; it must be safe to run again for the same session id.
type FinalizeFunc func(ctx context.Context, s *state.Session) (string, error)

// Step is one row of a flow table.
//
// A form step sets Validate. A conversational step sets Converse instead and
// loops on itself until the completer reports the end of the conversation.
type Step struct {
	Name state.Step
	// Field is the key in Session.Fields. Defaults to Name.
	Field string
	// Prompt is a text/template rendered with the collected fields.
	Prompt string
	// Retry replaces the validator's reason on rejection.
	Retry    string
	Validate validate.Func

	AllowSkip  bool
	Next       state.Step
	NextOnSkip state.Step

	Converse Completer
}

func (s Step) field() string {
	if s.Field != "" {
		return s.Field
	}
	return string(s.Name)
}

// Flow is a named step table with its finalize action.
type Flow struct {
	Name string
	// Intro precedes the first prompt. Conversational flows record it as the
	// assistant's opening message.
	Intro    string
	Steps    []Step
	Finalize FinalizeFunc
}

type compiledFlow struct {
	*Flow
	index   map[state.Step]int
	prompts map[state.Step]*template.Template
}

func (f *compiledFlow) step(name state.Step) (Step, bool) {
	i, ok := f.index[name]
	if !ok {
		return Step{}, false
	}
	return f.Steps[i], true
}

func (f *compiledFlow) prompt(st Step, s *state.Session) string {
	tpl := f.prompts[st.Name]
	if tpl == nil {
		return st.Prompt
	}
	var b strings.Builder
	if err := tpl.Execute(&b, s.Fields); err != nil {
		return st.Prompt
	}
	return b.String()
}

func compile(f *Flow) (*compiledFlow, error) {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w %q: %s", ErrInvalidFlow, f.Name, fmt.Sprintf(format, args...))
	}
	if f == nil || strings.TrimSpace(f.Name) == "" {
		return nil, fmt.Errorf("%w: empty name", ErrInvalidFlow)
	}
	if len(f.Steps) == 0 {
		return nil, invalid("no steps")
	}

	cf := &compiledFlow{
		Flow:    f,
		index:   make(map[state.Step]int, len(f.Steps)),
		prompts: make(map[state.Step]*template.Template, len(f.Steps)),
	}
	for i, st := range f.Steps {
		switch st.Name {
		case "", state.StepNotStarted, state.StepFinished:
			return nil, invalid("step %d has reserved name %q", i, st.Name)
		}
		if _, dup := cf.index[st.Name]; dup {
			return nil, invalid("duplicate step %q", st.Name)
		}
		if (st.Validate == nil) == (st.Converse == nil) {
			return nil, invalid("step %q needs exactly one of Validate or Converse", st.Name)
		}
		cf.index[st.Name] = i
		if strings.Contains(st.Prompt, "{{") {
			tpl, err := template.New(string(st.Name)).Parse(st.Prompt)
			if err != nil {
				return nil, invalid("step %q prompt: %v", st.Name, err)
			}
			cf.prompts[st.Name] = tpl
		}
	}

	known := func(s state.Step) bool {
		_, ok := cf.index[s]
		return ok || s == state.StepFinished
	}
	for _, st := range f.Steps {
		if st.Converse != nil {
			if st.AllowSkip || (st.Next != "" && st.Next != st.Name) {
				return nil, invalid("conversational step %q must loop on itself", st.Name)
			}
			continue
		}
		if !known(st.Next) {
			return nil, invalid("step %q: next %q is not a step", st.Name, st.Next)
		}
		if st.AllowSkip && !known(st.NextOnSkip) {
			return nil, invalid("step %q: next_on_skip %q is not a step", st.Name, st.NextOnSkip)
		}
	}
	return cf, nil
}

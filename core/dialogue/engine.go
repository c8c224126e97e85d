// Package dialogue drives table-defined conversations.
//
// The engine owns the state machine: NotStarted, one state per step of the
// active flow, and Finished. Every turn runs under the user's lock and is
// committed with a single Store.Put, so a failed write leaves the previous
// state intact.
package dialogue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/m3rciful/dialogbot/core/dialogue/validate"
	"github.com/m3rciful/dialogbot/core/logger"
	"github.com/m3rciful/dialogbot/core/state"
)

// DefaultSkipSentinel is the input that skips an optional step.
const DefaultSkipSentinel = "/skip"

// DefaultServiceTimeout bounds one completer call.
const DefaultServiceTimeout = 10 * time.Second

// Observer receives one call per handled turn.
type Observer interface {
	ObserveTurn(flow string, outcome Outcome, took time.Duration)
}

// Engine runs flows against a session store.
type Engine struct {
	store  state.Store
	locker state.Locker

	mu    sync.RWMutex
	flows map[string]*compiledFlow

	defaultFlow    string
	skip           string
	serviceTimeout time.Duration
	msgs           Messages
	observer       Observer
	now            func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithLocker replaces the in-process per-user lock.
func WithLocker(l state.Locker) Option {
	return func(e *Engine) {
		if l != nil {
			e.locker = l
		}
	}
}

// WithDefaultFlow starts flow automatically on the first message of a user without a session.
func WithDefaultFlow(flow string) Option {
	return func(e *Engine) { e.defaultFlow = flow }
}

// WithSkipSentinel changes the skip input.
func WithSkipSentinel(s string) Option {
	return func(e *Engine) {
		if s = strings.TrimSpace(s); s != "" {
			e.skip = s
		}
	}
}

// WithServiceTimeout bounds completer calls.
func WithServiceTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.serviceTimeout = d
		}
	}
}

// WithMessages overrides fixed texts; empty fields keep their defaults.
func WithMessages(m Messages) Option {
	return func(e *Engine) { e.msgs = m.withDefaults() }
}

// WithObserver reports turn outcomes, e.g. to metrics.
func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observer = o }
}

// WithClock overrides time.Now for message timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New builds an engine over store.
func New(store state.Store, opts ...Option) *Engine {
	e := &Engine{
		store:          store,
		locker:         state.NewKeyedMutex(),
		flows:          make(map[string]*compiledFlow),
		skip:           DefaultSkipSentinel,
		serviceTimeout: DefaultServiceTimeout,
		msgs:           DefaultMessages(),
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Register validates and adds a flow table.
func (e *Engine) Register(f *Flow) error {
	cf, err := compile(f)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, dup := e.flows[f.Name]; dup {
		return fmt.Errorf("%w %q: already registered", ErrInvalidFlow, f.Name)
	}
	e.flows[f.Name] = cf
	return nil
}

// HasFlow reports whether a flow named name is registered.
func (e *Engine) HasFlow(name string) bool {
	_, ok := e.flow(name)
	return ok
}

// SkipSentinel returns the input that skips optional steps.
func (e *Engine) SkipSentinel() string { return e.skip }

func (e *Engine) flow(name string) (*compiledFlow, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	f, ok := e.flows[name]
	return f, ok
}

// Start discards any session of userID and begins flow from its first step.
func (e *Engine) Start(ctx context.Context, userID int64, flow string) (Reply, error) {
	begin := e.now()
	ctx = logger.WithFlow(ctx, flow)
	unlock, err := e.locker.Lock(ctx, userID)
	if err != nil {
		return e.failed(ctx, flow, "", begin, fmt.Errorf("dialogue: lock: %w", err))
	}
	defer unlock()

	reply, err := e.start(ctx, userID, flow)
	e.finish(ctx, flow, state.StepNotStarted, reply, begin, err)
	return reply, err
}

func (e *Engine) start(ctx context.Context, userID int64, name string) (Reply, error) {
	f, ok := e.flow(name)
	if !ok {
		return Reply{Text: e.msgs.Apology, Outcome: OutcomeFailed}, fmt.Errorf("%w: %q", ErrUnknownFlow, name)
	}
	sess, err := e.store.Create(ctx, userID, f.Name)
	if err != nil {
		return e.storageFailure(err)
	}
	first := f.Steps[0]
	sess.Step = first.Name

	text := joinText(f.Intro, f.prompt(first, sess))
	if first.Converse != nil && text != "" {
		sess.Append(state.RoleAssistant, text, e.now())
	}
	if err := e.store.Put(ctx, sess); err != nil {
		return e.storageFailure(err)
	}
	return Reply{Text: text, Outcome: OutcomePrompted, Step: first.Name, CanSkip: first.AllowSkip}, nil
}

// Handle feeds one inbound text to the user's session.
// On error the returned Reply still carries a user-facing text.
func (e *Engine) Handle(ctx context.Context, userID int64, text string) (Reply, error) {
	begin := e.now()
	unlock, err := e.locker.Lock(ctx, userID)
	if err != nil {
		return e.failed(ctx, "", "", begin, fmt.Errorf("dialogue: lock: %w", err))
	}
	defer unlock()

	sess, err := e.store.Get(ctx, userID)
	if errors.Is(err, state.ErrNotFound) {
		if e.defaultFlow == "" {
			reply := Reply{Outcome: OutcomeNoSession, Step: state.StepNotStarted}
			e.finish(ctx, "", state.StepNotStarted, reply, begin, nil)
			return reply, nil
		}
		ctx = logger.WithFlow(ctx, e.defaultFlow)
		reply, err := e.start(ctx, userID, e.defaultFlow)
		if err != nil || e.skipFirstInput(e.defaultFlow) {
			e.finish(ctx, e.defaultFlow, state.StepNotStarted, reply, begin, err)
			return reply, err
		}
		// Conversational default flows answer the first message right away.
		if sess, err = e.store.Get(ctx, userID); err != nil {
			reply, err = e.storageFailure(err)
			e.finish(ctx, e.defaultFlow, state.StepNotStarted, reply, begin, err)
			return reply, err
		}
	} else if err != nil {
		reply, err := e.storageFailure(err)
		e.finish(ctx, "", "", reply, begin, err)
		return reply, err
	}

	ctx = logger.WithFlow(ctx, sess.Flow)
	from := sess.Step
	reply, err := e.handle(ctx, sess, text)
	e.finish(ctx, sess.Flow, from, reply, begin, err)
	return reply, err
}

// skipFirstInput reports whether a freshly started default flow should only
// show its first prompt instead of consuming the triggering message.
func (e *Engine) skipFirstInput(name string) bool {
	f, ok := e.flow(name)
	return !ok || f.Steps[0].Converse == nil
}

func (e *Engine) handle(ctx context.Context, sess *state.Session, text string) (Reply, error) {
	if sess.Finished {
		return Reply{Text: e.msgs.AlreadyComplete, Outcome: OutcomeAlreadyComplete, Step: state.StepFinished, Finished: true}, nil
	}
	f, ok := e.flow(sess.Flow)
	if !ok {
		return Reply{Text: e.msgs.Apology, Outcome: OutcomeFailed}, fmt.Errorf("%w: %q", ErrUnknownFlow, sess.Flow)
	}
	st, ok := f.step(sess.Step)
	if !ok {
		return Reply{Text: e.msgs.Apology, Outcome: OutcomeFailed},
			fmt.Errorf("%w: flow %q step %q", ErrCorruptSession, sess.Flow, sess.Step)
	}
	if st.Converse != nil {
		return e.converse(ctx, f, st, sess, text)
	}
	return e.collect(ctx, f, st, sess, text)
}

func (e *Engine) collect(ctx context.Context, f *compiledFlow, st Step, sess *state.Session, text string) (Reply, error) {
	if st.AllowSkip && validate.IsSkip(e.skip, text) {
		sess.Fields[st.field()] = nil
		return e.advance(ctx, f, sess, st.NextOnSkip, OutcomeSkipped)
	}

	value, err := st.Validate(text)
	if err != nil {
		var vf *validate.Failure
		if !errors.As(err, &vf) {
			return Reply{Text: e.msgs.Apology, Outcome: OutcomeFailed, Step: st.Name}, fmt.Errorf("dialogue: validate %s: %w", st.Name, err)
		}
		vf.Field = st.field()
		msg := st.Retry
		if msg == "" {
			msg = vf.Reason
		}
		logger.Debug(ctx, logger.CompDialogue, "input.rejected",
			slog.String("step", string(st.Name)),
			slog.String("err", vf.Error()),
		)
		return Reply{Text: msg, Outcome: OutcomeRejected, Step: st.Name, CanSkip: st.AllowSkip}, nil
	}

	sess.Fields[st.field()] = value
	return e.advance(ctx, f, sess, st.Next, OutcomePrompted)
}

func (e *Engine) advance(ctx context.Context, f *compiledFlow, sess *state.Session, next state.Step, outcome Outcome) (Reply, error) {
	if next == state.StepFinished {
		return e.finalize(ctx, f, sess, "")
	}
	st, ok := f.step(next)
	if !ok {
		return Reply{Text: e.msgs.Apology, Outcome: OutcomeFailed}, fmt.Errorf("%w: flow %q step %q", ErrCorruptSession, f.Name, next)
	}
	sess.Step = next
	if err := e.store.Put(ctx, sess); err != nil {
		return e.storageFailure(err)
	}
	return Reply{Text: f.prompt(st, sess), Outcome: outcome, Step: next, CanSkip: st.AllowSkip}, nil
}

func (e *Engine) converse(ctx context.Context, f *compiledFlow, st Step, sess *state.Session, text string) (Reply, error) {
	sess.Append(state.RoleUser, text, e.now())

	cctx, cancel := context.WithTimeout(ctx, e.serviceTimeout)
	completion, err := st.Converse.Complete(cctx, sess.Log)
	cancel()
	if err != nil {
		logger.Warn(ctx, logger.CompDialogue, "completion.failed",
			slog.String("step", string(st.Name)),
			slog.String("err", err.Error()),
		)
		// Only the user's own message is kept.
		if perr := e.store.Put(ctx, sess); perr != nil {
			return e.storageFailure(perr)
		}
		return Reply{Text: e.msgs.Apology, Outcome: OutcomeApology, Step: st.Name}, nil
	}

	visible := strings.TrimSpace(completion.Text)
	if visible != "" {
		sess.Append(state.RoleAssistant, visible, e.now())
	}
	if completion.Finished {
		sess.Report = completion.Report
		return e.finalize(ctx, f, sess, visible)
	}
	if visible == "" {
		visible = e.msgs.EmptyReply
	}
	if err := e.store.Put(ctx, sess); err != nil {
		return e.storageFailure(err)
	}
	return Reply{Text: visible, Outcome: OutcomePrompted, Step: st.Name}, nil
}

func (e *Engine) finalize(ctx context.Context, f *compiledFlow, sess *state.Session, lead string) (Reply, error) {
	var confirmation string
	if f.Finalize != nil {
		text, err := f.Finalize(ctx, sess.Clone())
		if err != nil {
			var se *state.StorageError
			if !errors.As(err, &se) {
				err = &state.StorageError{Op: "finalize", Err: err}
			}
			return e.storageFailure(err)
		}
		confirmation = text
	}

	sess.Finished = true
	sess.Step = state.StepFinished
	if err := e.store.Put(ctx, sess); err != nil {
		return e.storageFailure(err)
	}

	text := joinText(lead, confirmation)
	if text == "" {
		text = e.msgs.Completed
	}
	logger.Info(ctx, logger.CompDialogue, "session.finalized",
		slog.String("session_id", sess.ID),
		slog.Int("count", len(sess.Fields)),
		slog.Bool("report", sess.Report != nil),
	)
	return Reply{Text: text, Outcome: OutcomeFinalized, Step: state.StepFinished, Finished: true}, nil
}

// Reset deletes the user's session. Resetting twice equals resetting once.
func (e *Engine) Reset(ctx context.Context, userID int64) (Reply, error) {
	begin := e.now()
	unlock, err := e.locker.Lock(ctx, userID)
	if err != nil {
		return e.failed(ctx, "", "", begin, fmt.Errorf("dialogue: lock: %w", err))
	}
	defer unlock()

	var reply Reply
	if err = e.store.Delete(ctx, userID); err != nil {
		reply, err = e.storageFailure(err)
	} else {
		reply = Reply{Text: e.msgs.Reset, Outcome: OutcomeReset, Step: state.StepNotStarted}
	}
	e.finish(ctx, "", "", reply, begin, err)
	return reply, err
}

// Session returns a copy of the user's session or state.ErrNotFound.
func (e *Engine) Session(ctx context.Context, userID int64) (*state.Session, error) {
	return e.store.Get(ctx, userID)
}

// Live reports whether the user is in the middle of a flow.
func (e *Engine) Live(ctx context.Context, userID int64) bool {
	sess, err := e.store.Get(ctx, userID)
	return err == nil && sess.Live()
}

// HasSession reports whether the user has any session, finished or not.
func (e *Engine) HasSession(ctx context.Context, userID int64) bool {
	_, err := e.store.Get(ctx, userID)
	return err == nil
}

func (e *Engine) storageFailure(err error) (Reply, error) {
	return Reply{Text: e.msgs.StorageFailure, Outcome: OutcomeFailed}, err
}

func (e *Engine) failed(ctx context.Context, flow string, from state.Step, begin time.Time, err error) (Reply, error) {
	reply := Reply{Text: e.msgs.StorageFailure, Outcome: OutcomeFailed}
	e.finish(ctx, flow, from, reply, begin, err)
	return reply, err
}

func (e *Engine) finish(ctx context.Context, flow string, from state.Step, reply Reply, begin time.Time, err error) {
	took := e.now().Sub(begin)
	attrs := []slog.Attr{
		slog.String("status", logger.Status(err)),
		slog.String("step", string(from)),
		slog.String("next_step", string(reply.Step)),
		slog.String("outcome", string(reply.Outcome)),
		slog.Duration("duration", took),
	}
	if err != nil {
		attrs = append(attrs, slog.String("err", err.Error()))
		logger.Error(ctx, logger.CompDialogue, "turn", attrs...)
	} else {
		logger.Info(ctx, logger.CompDialogue, "turn", attrs...)
	}
	if e.observer != nil {
		if flow == "" {
			flow = "none"
		}
		e.observer.ObserveTurn(flow, reply.Outcome, took)
	}
}

func joinText(parts ...string) string {
	var out []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "\n\n")
}

// Package sender runs outbound Telegram calls on a pool of lanes. Every
// chat is pinned to one lane, so the replies of a dialogue keep their order.
package sender

import (
	"cmp"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	coreconfig "github.com/m3rciful/dialogbot/core/config"
	"github.com/m3rciful/dialogbot/core/logger"
	"github.com/m3rciful/dialogbot/core/netutil"

	tele "gopkg.in/telebot.v4"
)

const component = "tg.sender"

var (
	// ErrQueueClosed is returned by Enqueue after Close.
	ErrQueueClosed = errors.New("telegram sender: queue closed")
	// ErrQueueFull is returned when the chat's lane stays full past EnqueueWait.
	ErrQueueFull = errors.New("telegram sender: queue full")
)

// Options controls the dispatcher. QueueSize is shared evenly by the lanes.
type Options struct {
	QueueSize    int
	Workers      int
	MaxRetries   int
	RetryBackoff time.Duration
	// MaxDuration bounds the time spent retrying a single job.
	MaxDuration time.Duration
	// EnqueueWait is how long Enqueue blocks on a full lane. Zero fails fast.
	EnqueueWait time.Duration
}

// DefaultEnqueueWait is used by OptionsFromConfig when the config leaves it unset.
const DefaultEnqueueWait = 5 * time.Second

// OptionsFromConfig maps the dispatcher section of the core config.
func OptionsFromConfig(cfg coreconfig.DispatcherConfig) Options {
	return Options{
		QueueSize:   cfg.QueueSize,
		Workers:     cfg.Workers,
		MaxRetries:  cfg.MaxRetries,
		EnqueueWait: cmp.Or(max(cfg.EnqueueWait, 0), DefaultEnqueueWait),
	}
}

func (o Options) withDefaults() Options {
	if o.QueueSize <= 0 {
		o.QueueSize = 256
	}
	if o.Workers <= 0 {
		o.Workers = 4
	}
	o.MaxRetries = max(o.MaxRetries, 0)
	o.EnqueueWait = max(o.EnqueueWait, 0)
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = 2 * time.Second
	}
	if o.MaxDuration <= 0 {
		o.MaxDuration = 12 * time.Second
	}
	return o
}

type job struct {
	ctx      context.Context
	action   string
	endpoint string
	run      func() error
}

// Dispatcher executes outbound Telegram calls asynchronously with retries.
type Dispatcher struct {
	opts   Options
	lanes  []chan job
	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
	failed atomic.Uint64
}

// NewDispatcher starts one goroutine per lane.
func NewDispatcher(opts Options) *Dispatcher {
	opts = opts.withDefaults()
	d := &Dispatcher{opts: opts, lanes: make([]chan job, opts.Workers)}
	depth := max(opts.QueueSize/opts.Workers, 1)
	for i := range d.lanes {
		d.lanes[i] = make(chan job, depth)
		d.wg.Add(1)
		go d.drain(d.lanes[i])
	}
	return d
}

// lane picks the queue for the chat recorded in ctx.
func (d *Dispatcher) lane(ctx context.Context) chan job {
	chat := logger.ChatIDFrom(ctx)
	if chat < 0 {
		chat = -chat
	}
	return d.lanes[chat%int64(len(d.lanes))]
}

// Enqueue schedules run on the lane of the chat in ctx. When the lane is
// full it waits up to EnqueueWait or until ctx is done. run is called again
// on retryable failures, so it must rebuild any readers it sends.
func (d *Dispatcher) Enqueue(ctx context.Context, action, endpoint string, run func() error) error {
	if run == nil {
		return errors.New("telegram sender: nil run function")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrQueueClosed
	}
	lane := d.lane(ctx)
	j := job{ctx: ctx, action: action, endpoint: endpoint, run: run}
	select {
	case lane <- j:
		return nil
	default:
	}
	if d.opts.EnqueueWait == 0 {
		return ErrQueueFull
	}
	timer := time.NewTimer(d.opts.EnqueueWait)
	defer timer.Stop()
	select {
	case lane <- j:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrQueueFull, ctx.Err())
	case <-timer.C:
		return ErrQueueFull
	}
}

// ErrorCount returns the number of jobs that failed for good.
func (d *Dispatcher) ErrorCount() uint64 {
	return d.failed.Load()
}

// Close stops accepting jobs and waits for the queued ones.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	for _, l := range d.lanes {
		close(l)
	}
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) drain(lane <-chan job) {
	defer d.wg.Done()
	for j := range lane {
		start := time.Now()
		attempts, err := d.deliver(j)
		took := logger.RoundMS(time.Since(start))
		attrs := append(jobAttrs(j), slog.Duration("duration", took), slog.Int("attempts", attempts))
		switch {
		case err != nil:
			d.failed.Add(1)
			logger.Error(j.ctx, component, "send.fail", append(attrs,
				slog.String("status", "fail"),
				slog.String("err", logger.RedactSecrets(err.Error())),
				slog.String("err_kind", classifyError(err)),
			)...)
		case attempts > 1:
			logger.Info(j.ctx, component, "send.retry.success", attrs...)
		default:
			logger.Debug(j.ctx, component, "send.success", attrs...)
		}
	}
}

// deliver runs j until it succeeds, fails permanently or runs out of
// attempts or time. The update's own context may already be done, so the
// retry budget hangs off a detached copy.
func (d *Dispatcher) deliver(j job) (int, error) {
	budget, cancel := context.WithTimeout(context.WithoutCancel(j.ctx), d.opts.MaxDuration)
	defer cancel()

	limit := d.opts.MaxRetries + 1
	for attempt := 1; ; attempt++ {
		err := j.run()
		if err == nil {
			return attempt, nil
		}
		if attempt == limit || !retryable(err) {
			return attempt, err
		}
		delay := backoff(err, d.opts.RetryBackoff, attempt)
		logger.Debug(j.ctx, component, "send.retry.backoff",
			append(jobAttrs(j), slog.Int("attempt", attempt), slog.Duration("delay", delay))...)
		select {
		case <-budget.Done():
			return attempt, errors.Join(err, budget.Err())
		case <-time.After(delay):
		}
	}
}

// retryable accepts transport failures and Telegram flood control.
func retryable(err error) bool {
	var flood tele.FloodError
	return errors.As(err, &flood) || netutil.ShouldRetry(err)
}

// backoff honours retry_after on flood errors and grows linearly otherwise.
func backoff(err error, base time.Duration, attempt int) time.Duration {
	var flood tele.FloodError
	if errors.As(err, &flood) && flood.RetryAfter > 0 {
		return time.Duration(flood.RetryAfter) * time.Second
	}
	return base * time.Duration(attempt)
}

func jobAttrs(j job) []slog.Attr {
	attrs := []slog.Attr{slog.String("action", j.action)}
	if j.endpoint != "" {
		attrs = append(attrs, slog.String("endpoint", j.endpoint))
	}
	return attrs
}

// classifyError buckets a send failure for the err_kind attribute.
func classifyError(err error) string {
	var (
		dnsErr   *net.DNSError
		opErr    *net.OpError
		tlsErr   tls.AlertError
		apiErr   *tele.Error
		flood    tele.FloodError
		groupErr tele.GroupError
	)
	switch {
	case err == nil:
		return ""
	case netutil.IsTimeout(err):
		return "timeout"
	case errors.As(err, &dnsErr):
		return "dns"
	case errors.As(err, &opErr) && opErr.Op == "dial":
		return "dial"
	case errors.As(err, &tlsErr):
		return "tls"
	case errors.As(err, &flood):
		return "flood"
	case errors.As(err, &groupErr):
		return "http_4xx"
	case errors.As(err, &apiErr):
		return httpClass(apiErr.Code)
	}
	return "unknown"
}

func httpClass(code int) string {
	switch {
	case code == http.StatusTooManyRequests:
		return "flood"
	case code >= 500:
		return "http_5xx"
	case code >= 400:
		return "http_4xx"
	}
	return "unknown"
}

package logger

import (
	"bufio"
	"errors"
	"io"
	"sync"
	"sync/atomic"
)

// sink is one buffered output. A sink that fails once is detached and its
// error kept; the remaining sinks keep receiving lines.
type sink struct {
	buf *bufio.Writer
	err error
}

func (s *sink) put(line []byte) {
	if s.err != nil {
		return
	}
	if _, err := s.buf.Write(line); err != nil {
		s.err = err
		return
	}
	s.err = s.buf.Flush()
}

// asyncWriter hands log lines to a single goroutine that owns the sinks.
type asyncWriter struct {
	lines  chan []byte
	syncs  chan chan error
	closed chan struct{}
	stop   sync.Once
	failed atomic.Bool

	sinks []*sink
}

func newAsyncWriter(outputs []io.Writer, bufSize int) *asyncWriter {
	if bufSize <= 0 {
		bufSize = 64 << 10
	}
	w := &asyncWriter{
		lines:  make(chan []byte, 256),
		syncs:  make(chan chan error),
		closed: make(chan struct{}),
	}
	for _, out := range outputs {
		if out != nil {
			w.sinks = append(w.sinks, &sink{buf: bufio.NewWriterSize(out, bufSize)})
		}
	}
	go w.run()
	return w
}

func (w *asyncWriter) run() {
	defer close(w.closed)
	for {
		select {
		case line, ok := <-w.lines:
			if !ok {
				return
			}
			w.write(line)
		case reply := <-w.syncs:
			w.drain()
			reply <- w.errs()
		}
	}
}

func (w *asyncWriter) write(line []byte) {
	healthy := false
	for _, s := range w.sinks {
		s.put(line)
		healthy = healthy || s.err == nil
	}
	if !healthy {
		w.failed.Store(true)
	}
}

// drain writes whatever is already queued.
func (w *asyncWriter) drain() {
	for {
		select {
		case line, ok := <-w.lines:
			if !ok {
				return
			}
			w.write(line)
		default:
			return
		}
	}
}

// errs collects sink failures; called from run only.
func (w *asyncWriter) errs() error {
	var all []error
	for _, s := range w.sinks {
		all = append(all, s.err)
	}
	return errors.Join(all...)
}

var errNoSinks = errors.New("logger: every output failed")

// Write queues a copy of p. It blocks while the queue is full.
func (w *asyncWriter) Write(p []byte) error {
	if w.failed.Load() {
		return errNoSinks
	}
	if len(p) > 0 {
		w.lines <- append([]byte(nil), p...)
	}
	return nil
}

// Flush returns once every line queued before it has been written.
func (w *asyncWriter) Flush() error {
	reply := make(chan error, 1)
	select {
	case w.syncs <- reply:
		return <-reply
	case <-w.closed:
		return nil
	}
}

// Close stops the writer after the queued lines are written.
func (w *asyncWriter) Close() error {
	err := w.Flush()
	w.stop.Do(func() { close(w.lines) })
	<-w.closed
	return err
}

package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/dialogbot/core/dialogue"
	"github.com/m3rciful/dialogbot/core/services"
)

func TestObservers(t *testing.T) {
	m := New()
	m.ObserveTurn("finance", dialogue.OutcomePrompted, 10*time.Millisecond)
	m.ObserveTurn("finance", dialogue.OutcomePrompted, 10*time.Millisecond)
	m.ObserveTurn("finance", dialogue.OutcomeFinalized, 10*time.Millisecond)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.turns.WithLabelValues("finance", "prompted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.turns.WithLabelValues("finance", "finalized")))

	m.ObserveCall("llm", time.Second, nil)
	m.ObserveCall("llm", time.Second, &services.Error{Service: "llm", Kind: services.KindTimeout})
	m.ObserveCall("llm", time.Second, errors.New("plain"))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.calls.WithLabelValues("llm", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.calls.WithLabelValues("llm", "timeout")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.calls.WithLabelValues("llm", "error")))

	m.ObserveUpdate("", "ok", 2)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.updates.WithLabelValues("unknown", "ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.sent))
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveTurn("registration", dialogue.OutcomeRejected, time.Millisecond)

	var down atomic.Bool
	h := NewHandler(m, map[string]Check{
		"db": func(context.Context) error {
			if !down.Load() {
				return nil
			}
			return errors.New("down")
		},
	})
	srv := httptest.NewServer(h)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(string(body), `dialogbot_dialogue_turns_total{flow="registration",outcome="rejected"} 1`))

	resp, err = http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	down.Store(true)
	resp, err = http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	var got map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "down", got["db"])
}

func TestServerLifecycle(t *testing.T) {
	s, err := NewServer("127.0.0.1:0", NewHandler(New(), nil))
	require.NoError(t, err)
	s.Start()

	resp, err := http.Get("http://" + s.Addr() + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))
}

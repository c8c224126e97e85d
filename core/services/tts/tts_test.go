package tts

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/dialogbot/core/services"
)

func TestSplit(t *testing.T) {
	assert.Equal(t, []string{"раз два", "три"}, Split("раз  два три", 7))
	assert.Equal(t, []string{"абв", "гд", "е"}, Split("абвгд е", 3))
	assert.Nil(t, Split("   ", 10))

	long := strings.Repeat("слово ", 80)
	for _, c := range Split(long, chunkLength) {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), chunkLength)
	}
}

func TestSynthesize(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "tw-ob", r.URL.Query().Get("client"))
		assert.Equal(t, "ru", r.URL.Query().Get("tl"))
		_, _ = w.Write([]byte("mp3:" + r.URL.Query().Get("idx") + ";"))
	}))
	defer srv.Close()

	c := New(srv.URL, services.NewCaller(services.WithHTTPClient(srv.Client())))
	text := strings.Repeat("привет ", 30)
	audio, err := c.Synthesize(context.Background(), text, "ru")
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, "mp3:0;mp3:1;mp3:2;", string(audio))
}

func TestSynthesizeRejectsInput(t *testing.T) {
	c := New("http://127.0.0.1:1", services.NewCaller())
	_, err := c.Synthesize(context.Background(), " ", "ru")
	assert.ErrorIs(t, err, ErrEmptyText)
	_, err = c.Synthesize(context.Background(), strings.Repeat("а", MaxTextLength+1), "ru")
	assert.ErrorIs(t, err, ErrTextTooLong)
	assert.Equal(t, services.KindInput, services.KindOf(err))
}

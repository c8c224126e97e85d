// Package tts synthesizes speech through the Google Translate TTS endpoint.
package tts

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/m3rciful/dialogbot/core/services"
)

const (
	serviceName    = "tts"
	defaultBaseURL = "https://translate.google.com/translate_tts"

	// MaxTextLength is the longest accepted input in characters.
	MaxTextLength = 500
	chunkLength   = 100
)

var (
	ErrEmptyText   = errors.New("tts: empty text")
	ErrTextTooLong = errors.New("tts: text too long")
)

// Client returns MP3 audio.
type Client struct {
	caller  *services.Caller
	baseURL string
}

// New constructs a Client. baseURL may be empty.
func New(baseURL string, caller *services.Caller) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{caller: caller, baseURL: baseURL}
}

// Synthesize speaks text in lang and returns concatenated MP3 frames.
func (c *Client) Synthesize(ctx context.Context, text, lang string) ([]byte, error) {
	text = strings.TrimSpace(text)
	switch n := utf8.RuneCountInString(text); {
	case n == 0:
		return nil, services.Input(serviceName, ErrEmptyText)
	case n > MaxTextLength:
		return nil, services.Input(serviceName, ErrTextTooLong)
	}

	chunks := Split(text, chunkLength)
	var audio bytes.Buffer
	for i, chunk := range chunks {
		q := url.Values{}
		q.Set("ie", "UTF-8")
		q.Set("q", chunk)
		q.Set("tl", lang)
		q.Set("client", "tw-ob")
		q.Set("total", strconv.Itoa(len(chunks)))
		q.Set("idx", strconv.Itoa(i))
		q.Set("textlen", strconv.Itoa(utf8.RuneCountInString(chunk)))

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
		if err != nil {
			return nil, services.Input(serviceName, err)
		}
		body, err := c.caller.Do(ctx, serviceName, req)
		if err != nil {
			return nil, err
		}
		audio.Write(body)
	}
	if audio.Len() == 0 {
		return nil, services.Payload(serviceName, errors.New("empty audio"))
	}
	return audio.Bytes(), nil
}

// Split cuts text into pieces of at most limit runes, breaking on spaces
// where possible.
func Split(text string, limit int) []string {
	var chunks []string
	var cur []rune
	flush := func() {
		if s := strings.TrimSpace(string(cur)); s != "" {
			chunks = append(chunks, s)
		}
		cur = cur[:0]
	}
	for _, word := range strings.Fields(text) {
		w := []rune(word)
		for len(w) > limit {
			flush()
			chunks = append(chunks, string(w[:limit]))
			w = w[limit:]
		}
		if len(cur) > 0 && len(cur)+1+len(w) > limit {
			flush()
		}
		if len(cur) > 0 {
			cur = append(cur, ' ')
		}
		cur = append(cur, w...)
	}
	flush()
	return chunks
}

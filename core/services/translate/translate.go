// Package translate calls the public Google Translate gtx endpoint.
package translate

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/m3rciful/dialogbot/core/services"
)

const (
	serviceName    = "translate"
	defaultBaseURL = "https://translate.googleapis.com/translate_a/single"
)

// Client translates short texts.
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

// Translate converts text from source to target language codes.
func (c *Client) Translate(ctx context.Context, text, source, target string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", services.Input(serviceName, errors.New("empty text"))
	}
	q := url.Values{}
	q.Set("client", "gtx")
	q.Set("sl", source)
	q.Set("tl", target)
	q.Set("dt", "t")
	q.Set("q", text)

	var resp []any
	if err := c.caller.GetJSON(ctx, serviceName, c.baseURL+"?"+q.Encode(), nil, &resp); err != nil {
		return "", err
	}
	out, err := joinSegments(resp)
	if err != nil {
		return "", services.Payload(serviceName, err)
	}
	return out, nil
}

// joinSegments reads [[["translated","source",...], ...], ...].
func joinSegments(resp []any) (string, error) {
	if len(resp) == 0 {
		return "", fmt.Errorf("empty response")
	}
	segments, ok := resp[0].([]any)
	if !ok {
		return "", fmt.Errorf("unexpected segments type %T", resp[0])
	}
	var b strings.Builder
	for _, seg := range segments {
		parts, ok := seg.([]any)
		if !ok || len(parts) == 0 {
			continue
		}
		if s, ok := parts[0].(string); ok {
			b.WriteString(s)
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("no translated text")
	}
	return b.String(), nil
}

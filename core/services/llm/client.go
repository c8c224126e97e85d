// Package llm adapts the OpenAI chat completions API to dialogue.Completer.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/m3rciful/dialogbot/core/dialogue"
	"github.com/m3rciful/dialogbot/core/services"
	"github.com/m3rciful/dialogbot/core/state"
)

const serviceName = "llm"

// Config selects the model and sampling parameters.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	// Temperature defaults to 0.7 when nil; zero is sent as is.
	Temperature *float64
	MaxTokens   int
	// SystemPrompt defaults to SystemPrompt when empty.
	SystemPrompt string
}

// Client is a dialogue.Completer backed by chat completions.
type Client struct {
	api    openai.Client
	caller *services.Caller
	cfg    Config
}

var _ dialogue.Completer = (*Client)(nil)

// New builds a Client. Requests share caller's HTTP client and timeout;
// the SDK's own retries are disabled so one turn makes one bounded call.
func New(cfg Config, caller *services.Caller) *Client {
	if caller == nil {
		caller = services.NewCaller()
	}
	if cfg.Model == "" {
		cfg.Model = string(openai.ChatModelGPT4o)
	}
	if cfg.Temperature == nil {
		t := 0.7
		cfg.Temperature = &t
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1000
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = SystemPrompt
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(caller.HTTPClient()),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &Client{api: openai.NewClient(opts...), caller: caller, cfg: cfg}
}

// Complete sends the system prompt plus history and parses the reply.
func (c *Client) Complete(ctx context.Context, history []state.Message) (dialogue.Completion, error) {
	ctx, cancel := context.WithTimeout(ctx, c.caller.Timeout())
	defer cancel()

	start := time.Now()
	raw, status, err := c.complete(ctx, history)
	c.caller.Observe(ctx, serviceName, time.Since(start), status, err)
	if err != nil {
		return dialogue.Completion{}, err
	}
	return Parse(raw), nil
}

func (c *Client) complete(ctx context.Context, history []state.Message) (string, int, error) {
	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(c.cfg.Model),
		Messages:    c.messages(history),
		Temperature: openai.Float(*c.cfg.Temperature),
		MaxTokens:   openai.Int(int64(c.cfg.MaxTokens)),
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", apiErr.StatusCode, &services.Error{
				Service: serviceName,
				Kind:    services.KindStatus,
				Status:  apiErr.StatusCode,
				Err:     err,
			}
		}
		return "", 0, services.Wrap(serviceName, err)
	}
	if len(resp.Choices) == 0 {
		return "", 200, services.Payload(serviceName, fmt.Errorf("no choices in response"))
	}
	return resp.Choices[0].Message.Content, 200, nil
}

func (c *Client) messages(history []state.Message) []openai.ChatCompletionMessageParamUnion {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)+1)
	msgs = append(msgs, openai.SystemMessage(c.cfg.SystemPrompt))
	for _, m := range history {
		switch m.Role {
		case state.RoleAssistant:
			msgs = append(msgs, openai.AssistantMessage(m.Content))
		default:
			msgs = append(msgs, openai.UserMessage(m.Content))
		}
	}
	return msgs
}

// Package fx fetches exchange rates from exchangerate-api.com.
package fx

import (
	"context"
	"fmt"
	"net/url"

	"github.com/m3rciful/dialogbot/core/services"
)

const (
	serviceName    = "fx"
	defaultBaseURL = "https://v6.exchangerate-api.com/v6"
)

// Rates holds the three pairs shown to users.
type Rates struct {
	USDRUB float64
	EURRUB float64
	EURUSD float64
}

// Client reads the USD based table.
type Client struct {
	caller  *services.Caller
	apiKey  string
	baseURL string
}

// New constructs a Client. baseURL may be empty.
func New(apiKey, baseURL string, caller *services.Caller) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{caller: caller, apiKey: apiKey, baseURL: baseURL}
}

type latest struct {
	Result          string             `json:"result"`
	ErrorType       string             `json:"error-type"`
	ConversionRates map[string]float64 `json:"conversion_rates"`
}

// Latest returns the current rates.
func (c *Client) Latest(ctx context.Context) (Rates, error) {
	endpoint := fmt.Sprintf("%s/%s/latest/USD", c.baseURL, url.PathEscape(c.apiKey))
	var resp latest
	if err := c.caller.GetJSON(ctx, serviceName, endpoint, nil, &resp); err != nil {
		return Rates{}, err
	}
	if resp.Result != "" && resp.Result != "success" {
		return Rates{}, services.Payload(serviceName, fmt.Errorf("result %q: %s", resp.Result, resp.ErrorType))
	}
	usdToRub, ok := resp.ConversionRates["RUB"]
	if !ok || usdToRub <= 0 {
		return Rates{}, services.Payload(serviceName, fmt.Errorf("RUB rate missing"))
	}
	eurPerUsd, ok := resp.ConversionRates["EUR"]
	if !ok || eurPerUsd <= 0 {
		return Rates{}, services.Payload(serviceName, fmt.Errorf("EUR rate missing"))
	}
	// conversion_rates holds units per one USD.
	return Rates{
		USDRUB: usdToRub,
		EURRUB: usdToRub / eurPerUsd,
		EURUSD: 1 / eurPerUsd,
	}, nil
}

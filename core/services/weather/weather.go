// Package weather reads the current conditions from the Yandex Weather API.
package weather

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/m3rciful/dialogbot/core/services"
)

const (
	serviceName    = "weather"
	defaultBaseURL = "https://api.weather.yandex.ru/v2/forecast"
)

// Moscow is the default forecast point.
var Moscow = Location{Name: "Москва", Lat: 55.7558, Lon: 37.6176}

// Location is a named coordinate pair.
type Location struct {
	Name string
	Lat  float64
	Lon  float64
}

// Report is the current observation.
type Report struct {
	Location  string
	Temp      float64
	Condition string
}

// Description maps the provider condition code to Russian text; unknown
// codes are returned as is.
func (r Report) Description() string {
	if d, ok := conditions[r.Condition]; ok {
		return d
	}
	return r.Condition
}

var conditions = map[string]string{
	"clear":         "Ясно ☀️",
	"partly-cloudy": "Малооблачно 🌤",
	"cloudy":        "Облачно ☁️",
	"overcast":      "Пасмурно 🌫",
	"rain":          "Дождь 🌧",
	"light-rain":    "Небольшой дождь 🌦",
}

// Client queries one configured location.
type Client struct {
	caller  *services.Caller
	apiKey  string
	baseURL string
	loc     Location
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another endpoint.
func WithBaseURL(u string) Option { return func(c *Client) { c.baseURL = u } }

// WithLocation overrides Moscow.
func WithLocation(l Location) Option { return func(c *Client) { c.loc = l } }

// New constructs a Client.
func New(apiKey string, caller *services.Caller, opts ...Option) *Client {
	c := &Client{caller: caller, apiKey: apiKey, baseURL: defaultBaseURL, loc: Moscow}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type forecast struct {
	Fact *struct {
		Temp      *float64 `json:"temp"`
		Condition string   `json:"condition"`
	} `json:"fact"`
}

// Current fetches the observation for the configured location.
func (c *Client) Current(ctx context.Context) (Report, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(c.loc.Lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(c.loc.Lon, 'f', -1, 64))
	q.Set("lang", "ru_RU")

	var resp forecast
	header := http.Header{"X-Yandex-Weather-Key": {c.apiKey}}
	if err := c.caller.GetJSON(ctx, serviceName, c.baseURL+"?"+q.Encode(), header, &resp); err != nil {
		return Report{}, err
	}
	if resp.Fact == nil || resp.Fact.Temp == nil {
		return Report{}, services.Payload(serviceName, fmt.Errorf("fact.temp missing"))
	}
	return Report{Location: c.loc.Name, Temp: *resp.Fact.Temp, Condition: resp.Fact.Condition}, nil
}

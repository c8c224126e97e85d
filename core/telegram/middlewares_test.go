package telegram

import (
	"testing"

	"github.com/stretchr/testify/assert"

	coreconfig "github.com/m3rciful/dialogbot/core/config"
)

func middlewareNames(mws []Middleware) []string {
	names := make([]string, len(mws))
	for i, m := range mws {
		names[i] = m.Name
	}
	return names
}

func TestDefaultMiddlewares(t *testing.T) {
	assert.Equal(t, []string{"recover", "logger", "metrics"}, middlewareNames(DefaultMiddlewares(nil, nil)))

	cfg := &coreconfig.Config{RateLimit: coreconfig.RateLimitConfig{IntervalMS: 500, ExcludeUpdates: []string{"callback"}}}
	assert.Equal(t, []string{"recover", "rate_limit", "logger", "metrics"}, middlewareNames(DefaultMiddlewares(cfg, nil)))

	cfg.RateLimit.IntervalMS = -1
	assert.Len(t, DefaultMiddlewares(cfg, nil), 3)
}

// Package config extends the core configuration with the bot's own sections.
package config

import (
	"fmt"
	"strings"
	"time"

	coreconfig "github.com/m3rciful/dialogbot/core/config"
	coredatabase "github.com/m3rciful/dialogbot/core/database"
	"github.com/m3rciful/dialogbot/core/services"
)

// Session backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// SessionConfig selects where dialogue sessions live.
type SessionConfig struct {
	Backend       string        `yaml:"backend" envconfig:"SESSION_BACKEND"`
	RedisAddr     string        `yaml:"redis_addr" envconfig:"REDIS_ADDR"`
	RedisPassword string        `yaml:"redis_password" envconfig:"REDIS_PASSWORD"`
	RedisDB       int           `yaml:"redis_db" envconfig:"REDIS_DB"`
	Prefix        string        `yaml:"prefix" envconfig:"SESSION_PREFIX"`
	TTL           time.Duration `yaml:"ttl" envconfig:"SESSION_TTL"`
	LockTTL       time.Duration `yaml:"lock_ttl" envconfig:"SESSION_LOCK_TTL"`
}

// ServicesConfig holds keys and endpoints of the external APIs.
type ServicesConfig struct {
	OpenAIKey     string   `yaml:"openai_api_key" envconfig:"OPENAI_API_KEY"`
	OpenAIBaseURL string   `yaml:"openai_base_url" envconfig:"OPENAI_BASE_URL"`
	Model         string   `yaml:"model" envconfig:"OPENAI_MODEL"`
	Temperature   *float64 `yaml:"temperature" envconfig:"OPENAI_TEMPERATURE"`
	MaxTokens     int      `yaml:"max_tokens" envconfig:"OPENAI_MAX_TOKENS"`

	WeatherKey   string  `yaml:"weather_api_key" envconfig:"YANDEX_WEATHER_API_KEY"`
	WeatherURL   string  `yaml:"weather_url" envconfig:"WEATHER_URL"`
	City         string  `yaml:"city" envconfig:"WEATHER_CITY"`
	Latitude     float64 `yaml:"lat" envconfig:"WEATHER_LAT"`
	Longitude    float64 `yaml:"lon" envconfig:"WEATHER_LON"`
	FXKey        string  `yaml:"exchange_api_key" envconfig:"EXCHANGE_API_KEY"`
	FXURL        string  `yaml:"exchange_url" envconfig:"EXCHANGE_URL"`
	TranslateURL string  `yaml:"translate_url" envconfig:"TRANSLATE_URL"`
	TTSURL       string  `yaml:"tts_url" envconfig:"TTS_URL"`

	Timeout time.Duration `yaml:"timeout" envconfig:"SERVICES_TIMEOUT"`
}

// DialogueConfig tunes the engine.
type DialogueConfig struct {
	// DefaultFlow starts on plain text from a user without a session. Empty disables it.
	DefaultFlow  string `yaml:"default_flow" envconfig:"DIALOGUE_DEFAULT_FLOW"`
	SkipSentinel string `yaml:"skip_sentinel" envconfig:"DIALOGUE_SKIP"`
}

// OpsConfig configures the metrics and health listener. Empty Listen disables it.
type OpsConfig struct {
	Listen string `yaml:"listen" envconfig:"OPS_LISTEN"`
}

// MediaConfig says where incoming photos are stored.
type MediaConfig struct {
	Dir string `yaml:"dir" envconfig:"MEDIA_DIR"`
}

// AppConfig is the full bot configuration.
type AppConfig struct {
	coreconfig.Config `yaml:",inline"`

	Database coredatabase.Config `yaml:"database"`
	Session  SessionConfig       `yaml:"session"`
	Services ServicesConfig      `yaml:"services"`
	Dialogue DialogueConfig      `yaml:"dialogue"`
	Ops      OpsConfig           `yaml:"ops"`
	Media    MediaConfig         `yaml:"media"`
}

// CoreConfig implements the runner's ConfigCarrier.
func (c *AppConfig) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Config
}

// Load reads path (optional) and the environment, then validates.
func Load(path string) (*AppConfig, error) {
	var cfg AppConfig
	if err := coreconfig.LoadInto(path, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates required settings and fills defaults.
func (c *AppConfig) Normalize() error {
	if err := coreconfig.Normalize(&c.Config); err != nil {
		return err
	}
	if err := c.Database.Normalize(); err != nil {
		return err
	}
	if err := c.normalizeSession(); err != nil {
		return err
	}
	if err := c.normalizeServices(); err != nil {
		return err
	}
	c.Dialogue.DefaultFlow = strings.TrimSpace(c.Dialogue.DefaultFlow)
	if c.Media.Dir == "" {
		c.Media.Dir = "img"
	}
	return nil
}

func (c *AppConfig) normalizeSession() error {
	s := &c.Session
	s.Backend = strings.ToLower(strings.TrimSpace(s.Backend))
	switch s.Backend {
	case "":
		s.Backend = BackendMemory
	case BackendMemory:
	case BackendRedis:
		if strings.TrimSpace(s.RedisAddr) == "" {
			return fmt.Errorf("%w: session.redis_addr (REDIS_ADDR) for the redis backend", coreconfig.ErrMissingSetting)
		}
	default:
		return fmt.Errorf("config: invalid session.backend %q; allowed: memory, redis", s.Backend)
	}
	if s.TTL < 0 || s.LockTTL < 0 {
		return fmt.Errorf("config: session ttl values must be >= 0")
	}
	if s.LockTTL == 0 {
		s.LockTTL = 30 * time.Second
	}
	return nil
}

func (c *AppConfig) normalizeServices() error {
	s := &c.Services
	required := []struct{ value, name string }{
		{s.OpenAIKey, "services.openai_api_key (OPENAI_API_KEY)"},
		{s.WeatherKey, "services.weather_api_key (YANDEX_WEATHER_API_KEY)"},
		{s.FXKey, "services.exchange_api_key (EXCHANGE_API_KEY)"},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return fmt.Errorf("%w: %s", coreconfig.ErrMissingSetting, r.name)
		}
	}
	if s.Timeout <= 0 {
		s.Timeout = services.DefaultTimeout
	}
	if s.Latitude == 0 && s.Longitude == 0 {
		s.City, s.Latitude, s.Longitude = "Москва", 55.7558, 37.6176
	}
	if s.City == "" {
		s.City = fmt.Sprintf("%.4f, %.4f", s.Latitude, s.Longitude)
	}
	if t := s.Temperature; t != nil && (*t < 0 || *t > 2) {
		return fmt.Errorf("config: services.temperature must be within 0..2")
	}
	return nil
}

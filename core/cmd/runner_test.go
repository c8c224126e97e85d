package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/dialogbot/core/config"
	coretelegram "github.com/m3rciful/dialogbot/core/telegram"
)

type carrier struct{ cfg *coreconfig.Config }

func (c carrier) CoreConfig() *coreconfig.Config { return c.cfg }

type app struct {
	closed bool
}

func (a *app) TelegramRunOptions() (coretelegram.RunOptions, error) {
	return coretelegram.RunOptions{}, nil
}

func (a *app) Close() error {
	a.closed = true
	return nil
}

func TestResolveConfigPath(t *testing.T) {
	t.Setenv("DIALOGBOT_CONFIG", "")
	assert.Equal(t, "x.yaml", ResolveConfigPath("x.yaml", "DIALOGBOT_CONFIG", "missing.yaml"))
	assert.Equal(t, "", ResolveConfigPath("", "DIALOGBOT_CONFIG", filepath.Join(t.TempDir(), "missing.yaml")))

	def := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(def, []byte("{}"), 0o600))
	assert.Equal(t, def, ResolveConfigPath("", "DIALOGBOT_CONFIG", def))

	t.Setenv("DIALOGBOT_CONFIG", "env.yaml")
	assert.Equal(t, "env.yaml", ResolveConfigPath("", "DIALOGBOT_CONFIG", def))
}

func TestRunWiresHooksAndCloses(t *testing.T) {
	a := &app{}
	var started, stopped bool
	err := Run(Options{
		ConfigPath: "cfg.yaml",
		LoadConfig: func(path string) (ConfigCarrier, error) {
			assert.Equal(t, "cfg.yaml", path)
			return carrier{cfg: &coreconfig.Config{}}, nil
		},
		Bootstrap:      func(ConfigCarrier) (TelegramApp, error) { return a, nil },
		ShutdownLogger: func() error { return nil },
		Context:        context.Background(),
		RunTelegram: func(ctx context.Context, opts coretelegram.RunOptions) error {
			require.NoError(t, opts.OnStart(ctx, coretelegram.Runtime{}))
			started = true
			require.NoError(t, opts.OnStop(ctx, coretelegram.Runtime{}))
			stopped = true
			return nil
		},
	})
	require.NoError(t, err)
	assert.True(t, started)
	assert.True(t, stopped)
	assert.True(t, a.closed)
}

func TestRunBootstrapError(t *testing.T) {
	boom := errors.New("boom")
	err := Run(Options{
		ConfigPath: "cfg.yaml",
		LoadConfig: func(string) (ConfigCarrier, error) { return carrier{cfg: &coreconfig.Config{}}, nil },
		Bootstrap:  func(ConfigCarrier) (TelegramApp, error) { return nil, boom },
	})
	assert.ErrorIs(t, err, boom)
}

package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/m3rciful/dialogbot/core/logger"
	"github.com/m3rciful/dialogbot/core/telegram/commands"

	tele "gopkg.in/telebot.v4"
)

// Registration errors.
var (
	ErrInvalidRoute   = errors.New("telegram: invalid registration")
	ErrDuplicateRoute = errors.New("telegram: already registered")
)

// Registry holds the bot's commands, their text aliases and callback handlers.
// Commands are registered during wiring; callbacks may be added at any time.
type Registry struct {
	mu        sync.RWMutex
	commands  map[string]commands.Command
	aliases   map[string]string
	callbacks map[string]tele.HandlerFunc

	textFallback tele.HandlerFunc
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		commands:  make(map[string]commands.Command),
		aliases:   make(map[string]string),
		callbacks: make(map[string]tele.HandlerFunc),
	}
}

func rejectWiring(event string, err error, attrs ...slog.Attr) error {
	logger.Warn(context.Background(), logger.CompWire, event,
		append(attrs, slog.String("err", err.Error()))...)
	return err
}

// RegisterCommand adds cmd under name, which must start with a slash.
// Aliases already taken by another command are rejected as a whole.
func (r *Registry) RegisterCommand(name string, cmd commands.Command) error {
	attr := slog.String("name", name)
	switch {
	case !strings.HasPrefix(name, "/") || len(name) < 2:
		return rejectWiring("register.command.skip", fmt.Errorf("%w: command %q needs a slash prefix", ErrInvalidRoute, name), attr)
	case cmd.Handler == nil || cmd.Description == "":
		return rejectWiring("register.command.skip", fmt.Errorf("%w: command %q lacks handler or description", ErrInvalidRoute, name), attr)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.commands[name]; taken {
		return rejectWiring("register.command.duplicate", fmt.Errorf("%w: command %s", ErrDuplicateRoute, name), attr)
	}
	keys := cmd.Triggers()
	for _, k := range keys {
		if owner, taken := r.aliases[k]; taken {
			return rejectWiring("register.command.duplicate",
				fmt.Errorf("%w: alias %q of %s is used by %s", ErrDuplicateRoute, k, name, owner), attr)
		}
	}
	r.commands[name] = cmd
	for _, k := range keys {
		r.aliases[k] = name
	}
	return nil
}

// ListCommands returns the bot menu entries sorted by name. With visibleOnly
// hidden and admin-only commands are left out.
func (r *Registry) ListCommands(visibleOnly bool) []tele.Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]tele.Command, 0, len(r.commands))
	for name, meta := range r.commands {
		if visibleOnly && (meta.Hidden || meta.AdminOnly) {
			continue
		}
		list = append(list, tele.Command{Text: name[1:], Description: meta.Description})
	}
	slices.SortFunc(list, func(a, b tele.Command) int { return strings.Compare(a.Text, b.Text) })
	return list
}

// LookupCommand resolves a command name or alias to the canonical name.
func (r *Registry) LookupCommand(text string) (string, commands.Command, bool) {
	text = strings.TrimSpace(text)
	r.mu.RLock()
	defer r.mu.RUnlock()
	name := text
	if owner, ok := r.aliases[text]; ok {
		name = owner
	}
	cmd, ok := r.commands[name]
	if !ok {
		return "", commands.Command{}, false
	}
	return name, cmd, true
}

// Commands returns a copy of the registered commands keyed by name.
func (r *Registry) Commands() map[string]commands.Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]commands.Command, len(r.commands))
	for k, v := range r.commands {
		out[k] = v
	}
	return out
}

// RegisterCallback maps a callback unique key to its handler.
func (r *Registry) RegisterCallback(key string, handler tele.HandlerFunc) error {
	attr := slog.String("key", key)
	if key == "" || handler == nil {
		return rejectWiring("register.callback.skip", fmt.Errorf("%w: callback %q", ErrInvalidRoute, key), attr)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.callbacks[key]; taken {
		return rejectWiring("register.callback.duplicate", fmt.Errorf("%w: callback %s", ErrDuplicateRoute, key), attr)
	}
	r.callbacks[key] = handler
	return nil
}

// GetCallback returns the handler for key.
func (r *Registry) GetCallback(key string) (tele.HandlerFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.callbacks[key]
	return h, ok
}

// ListCallbacks returns the registered callback keys, sorted.
func (r *Registry) ListCallbacks() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.callbacks))
	for k := range r.callbacks {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// SetTextFallback sets the handler for text that nothing else claimed.
func (r *Registry) SetTextFallback(h tele.HandlerFunc) { r.textFallback = h }

// TextFallback returns the handler set by SetTextFallback, or nil.
func (r *Registry) TextFallback() tele.HandlerFunc { return r.textFallback }

// InitBotCommands publishes the visible commands to the Telegram menu.
func InitBotCommands(bot *tele.Bot, reg *Registry) {
	ctx := context.Background()
	list := reg.ListCommands(true)
	if err := bot.SetCommands(list); err != nil {
		logger.Error(ctx, logger.CompWire, "register.commands.set_failed", slog.String("err", err.Error()))
		return
	}
	logger.Info(ctx, logger.CompWire, "register.commands.set", slog.Int("count", len(list)))
}

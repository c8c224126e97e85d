// Package handlers binds the bot's commands and dialogue flows to Telegram.
package handlers

import (
	"context"
	"errors"
	"math/rand/v2"

	"github.com/m3rciful/dialogbot/app/flows"
	"github.com/m3rciful/dialogbot/core/dialogue"
	"github.com/m3rciful/dialogbot/core/records"
	"github.com/m3rciful/dialogbot/core/services/fx"
	"github.com/m3rciful/dialogbot/core/services/weather"
	tg "github.com/m3rciful/dialogbot/core/telegram"
	"github.com/m3rciful/dialogbot/core/telegram/commands"
	tghelpers "github.com/m3rciful/dialogbot/core/telegram/helpers"
	"github.com/m3rciful/dialogbot/core/telegram/router"
	"github.com/m3rciful/dialogbot/core/telegram/ui"

	tele "gopkg.in/telebot.v4"
)

// Users is the finance side of the record store.
type Users interface {
	tghelpers.UserLookup[records.User]
	RegisterUser(ctx context.Context, telegramID int64, name string) error
	ListStudents(ctx context.Context) ([]records.Student, error)
}

// Weather reports the current conditions.
type Weather interface {
	Current(ctx context.Context) (weather.Report, error)
}

// Rates reports exchange rates.
type Rates interface {
	Latest(ctx context.Context) (fx.Rates, error)
}

// Translator translates short texts.
type Translator interface {
	Translate(ctx context.Context, text, source, target string) (string, error)
}

// Speech turns text into MP3 audio.
type Speech interface {
	Synthesize(ctx context.Context, text, lang string) ([]byte, error)
}

// Downloader fetches a Telegram file to a local path. *tele.Bot satisfies it.
type Downloader interface {
	Download(file *tele.File, localFilename string) error
}

// Deps are the collaborators of the handlers.
type Deps struct {
	Engine     *dialogue.Engine
	Users      Users
	Weather    Weather
	Rates      Rates
	Translator Translator
	Speech     Speech
	// Downloader may be set later through SetDownloader.
	Downloader Downloader
	MediaDir   string
	// DefaultFlow is started by /start when set.
	DefaultFlow string
	// Intn picks tips and pictures; defaults to math/rand.
	Intn func(n int) int
}

// Handlers implements the bot's commands and the dialogue side of routing.
type Handlers struct {
	Deps
	reg *tg.Registry
}

var (
	_ router.FSM          = (*Handlers)(nil)
	_ ui.FallbackProvider = (*Handlers)(nil)
)

// New constructs Handlers.
func New(d Deps) *Handlers {
	if d.Intn == nil {
		d.Intn = rand.IntN
	}
	if d.MediaDir == "" {
		d.MediaDir = "img"
	}
	return &Handlers{Deps: d}
}

// SetDownloader wires the bot once it exists.
func (h *Handlers) SetDownloader(d Downloader) { h.Downloader = d }

// Register adds every command, callback and fallback to reg.
func (h *Handlers) Register(reg *tg.Registry) error {
	h.reg = reg
	cmds := map[string]commands.Command{
		"/start":    {Handler: h.start, Description: "Запуск"},
		"/help":     {Handler: h.help, Description: "Справка"},
		"/reset":    {Handler: h.reset, Description: "Сбросить разговор"},
		"/cancel":   {Handler: h.cancel, Description: "Отмена ввода"},
		"/student":  {Handler: h.startFlow(flows.Registration), Description: "Анкета ученика"},
		"/assess":   {Handler: h.startFlow(flows.Assessment), Description: "Разговор с ассистентом"},
		"/finances": {Handler: h.finances, Description: "Личные финансы", Aliases: []string{LabelFinances}},
		"/register": {Handler: h.register, Description: "Регистрация в боте", Aliases: []string{LabelRegister}},
		"/myexpenses": {
			Handler:     h.myExpenses,
			Description: "Мои расходы",
			Aliases:     []string{LabelMyExpenses},
		},
		"/tips":     {Handler: h.tips, Description: "Советы по экономии", Aliases: []string{LabelTips}},
		"/rates":    {Handler: h.rates, Description: "Курс валют", Aliases: []string{LabelRates, "exchange"}},
		"/weather":  {Handler: h.weather, Description: "Погода"},
		"/voice":    {Handler: h.voice, Description: "Озвучить текст"},
		"/photo":    {Handler: h.photo, Description: "Случайная картинка"},
		"/students": {Handler: h.students, Description: "Список учеников", AdminOnly: true, Hidden: true},
	}
	var errs []error
	for name, cmd := range cmds {
		errs = append(errs, reg.RegisterCommand(name, cmd))
	}
	errs = append(errs, reg.RegisterCallback(skipUnique, h.skip))
	reg.SetTextFallback(h.translate)
	return errors.Join(errs...)
}

// UnknownText answers text nothing else claimed.
func (h *Handlers) UnknownText() tele.HandlerFunc {
	return func(c tele.Context) error {
		return tghelpers.SendText(c, unknownCommand)
	}
}

// UnknownCallback answers presses of buttons from stale messages.
func (h *Handlers) UnknownCallback() tele.HandlerFunc {
	return func(c tele.Context) error {
		return c.Respond(&tele.CallbackResponse{Text: "Действие больше недоступно"})
	}
}

// AdminReject answers non-admins calling admin commands.
func (h *Handlers) AdminReject(c tele.Context) error {
	return tghelpers.SendText(c, adminOnly)
}

func senderID(c tele.Context) int64 {
	if s := c.Sender(); s != nil {
		return s.ID
	}
	return 0
}

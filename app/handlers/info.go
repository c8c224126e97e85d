package handlers

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/m3rciful/dialogbot/app/flows"
	"github.com/m3rciful/dialogbot/core/logger"
	"github.com/m3rciful/dialogbot/core/records"
	"github.com/m3rciful/dialogbot/core/services"
	tghelpers "github.com/m3rciful/dialogbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

func (h *Handlers) help(c tele.Context) error {
	var b strings.Builder
	b.WriteString("📋 Доступные команды:\n")
	if h.reg != nil {
		for _, cmd := range h.reg.ListCommands(true) {
			fmt.Fprintf(&b, "/%s — %s\n", cmd.Text, cmd.Description)
		}
	}
	fmt.Fprintf(&b, "\nНеобязательный шаг анкеты можно пропустить командой %s.", h.Engine.SkipSentinel())
	return tghelpers.SendText(c, b.String())
}

func displayName(u *tele.User) string {
	if u == nil {
		return ""
	}
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		name = u.Username
	}
	return name
}

func (h *Handlers) register(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	id := senderID(c)
	_, ok, err := tghelpers.CurrentUser[records.User](ctx, h.Users, id)
	if err != nil {
		_ = tghelpers.SendText(c, genericError)
		return err
	}
	if ok {
		return tghelpers.SendText(c, alreadyRegistered)
	}
	if err := h.Users.RegisterUser(ctx, id, displayName(c.Sender())); err != nil {
		_ = tghelpers.SendText(c, genericError)
		return err
	}
	return tghelpers.SendText(c, registered)
}

func (h *Handlers) myExpenses(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	u, ok, err := tghelpers.CurrentUser[records.User](ctx, h.Users, senderID(c))
	switch {
	case err != nil:
		_ = tghelpers.SendText(c, genericError)
		return err
	case !ok:
		return tghelpers.SendText(c, flows.NotRegisteredText)
	}
	lines := u.Expenses()
	if len(lines) == 0 {
		return tghelpers.SendText(c, noExpenses)
	}
	return tghelpers.SendText(c, flows.ExpenseSummary(lines))
}

func (h *Handlers) tips(c tele.Context) error {
	return tghelpers.SendText(c, "💡 "+tips[h.Intn(len(tips))])
}

func (h *Handlers) rates(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	r, err := h.Rates.Latest(ctx)
	if err != nil {
		logger.Warn(ctx, logger.CompTelegram, "rates.failed", slog.String("err", err.Error()))
		if services.KindOf(err) == services.KindTimeout {
			return tghelpers.SendText(c, ratesTimeout)
		}
		return tghelpers.SendText(c, ratesFailed)
	}
	text := fmt.Sprintf("💱 Актуальные курсы валют:\n\n"+
		"🇺🇸 USD → 🇷🇺 RUB: %.2f\n"+
		"🇪🇺 EUR → 🇷🇺 RUB: %.2f\n"+
		"🇪🇺 EUR → 🇺🇸 USD: %.4f", r.USDRUB, r.EURRUB, r.EURUSD)
	return tghelpers.SendText(c, text)
}

func (h *Handlers) weather(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	r, err := h.Weather.Current(ctx)
	if err != nil {
		logger.Warn(ctx, logger.CompTelegram, "weather.failed", slog.String("err", err.Error()))
		return tghelpers.SendText(c, weatherFailed)
	}
	text := fmt.Sprintf("🌆 %s\n🌡 Температура: %s°C\n☁️ Состояние: %s",
		r.Location, strconv.FormatFloat(r.Temp, 'f', -1, 64), r.Description())
	return tghelpers.SendText(c, text)
}

func (h *Handlers) photo(c tele.Context) error {
	return tghelpers.SendPhotoURL(c, photoURLs[h.Intn(len(photoURLs))], photoCaption)
}

func (h *Handlers) students(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	list, err := h.Users.ListStudents(ctx)
	if err != nil {
		_ = tghelpers.SendText(c, genericError)
		return err
	}
	if len(list) == 0 {
		return tghelpers.SendText(c, noStudents)
	}
	var b strings.Builder
	b.WriteString("Ученики:")
	for i, s := range list {
		fmt.Fprintf(&b, "\n%d. %s, %d лет, %s", i+1, s.Name, s.Age, s.Grade)
	}
	return tghelpers.SendText(c, b.String())
}

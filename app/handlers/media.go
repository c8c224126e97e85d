package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/m3rciful/dialogbot/core/logger"
	"github.com/m3rciful/dialogbot/core/services/tts"
	"github.com/m3rciful/dialogbot/core/telegram/format"
	tghelpers "github.com/m3rciful/dialogbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

func commandArg(text string) string {
	_, arg, _ := strings.Cut(strings.TrimSpace(text), " ")
	return strings.TrimSpace(arg)
}

func (h *Handlers) voice(c tele.Context) error {
	text := commandArg(c.Text())
	if text == "" {
		return tghelpers.ReplyHTML(c, format.EscapeHTML(voiceUsage))
	}
	ctx := tghelpers.BuildContext(c)
	_ = c.Notify(tele.RecordingAudio)
	audio, err := h.Speech.Synthesize(ctx, text, "ru")
	switch {
	case errors.Is(err, tts.ErrTextTooLong):
		return tghelpers.ReplyHTML(c, voiceTooLong)
	case err != nil:
		logger.Warn(ctx, logger.CompTelegram, "voice.failed", slog.String("err", err.Error()))
		return tghelpers.ReplyHTML(c, voiceFailed)
	}
	return tghelpers.SendVoice(c, audio, voiceCaption)
}

// SavePhoto stores the largest size of an incoming photo in the media dir.
func (h *Handlers) SavePhoto(c tele.Context) error {
	msg := c.Message()
	if msg == nil || msg.Photo == nil {
		return nil
	}
	ctx := tghelpers.BuildContext(c)
	if h.Downloader == nil {
		return tghelpers.ReplyHTML(c, photoFailed)
	}
	if err := os.MkdirAll(h.MediaDir, 0o755); err != nil {
		_ = tghelpers.ReplyHTML(c, photoFailed)
		return fmt.Errorf("handlers: media dir: %w", err)
	}
	path := filepath.Join(h.MediaDir, msg.Photo.FileID+".jpg")
	if err := h.Downloader.Download(&msg.Photo.File, path); err != nil {
		logger.Warn(ctx, logger.CompTelegram, "photo.download_failed",
			slog.String("file_id", msg.Photo.FileID),
			slog.String("err", err.Error()),
		)
		return tghelpers.ReplyHTML(c, photoFailed)
	}
	return tghelpers.ReplyHTML(c, "✅ Фото сохранено как: "+format.Code(path))
}

// translate answers plain text outside any dialogue with its English version.
func (h *Handlers) translate(c tele.Context) error {
	text := strings.TrimSpace(c.Text())
	if text == "" || strings.HasPrefix(text, "/") {
		return h.UnknownText()(c)
	}
	ctx := tghelpers.BuildContext(c)
	_ = c.Notify(tele.Typing)
	out, err := h.Translator.Translate(ctx, text, "ru", "en")
	if err != nil {
		logger.Warn(ctx, logger.CompTelegram, "translate.failed", slog.String("err", err.Error()))
		return tghelpers.ReplyHTML(c, translateFail)
	}
	return tghelpers.ReplyHTML(c, "🔤 Перевод:\n"+format.Code(out))
}

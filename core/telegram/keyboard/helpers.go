// Package keyboard builds the reply and inline markups the bot sends.
package keyboard

import tele "gopkg.in/telebot.v4"

// Button is one inline button. Unique routes the callback; Data is its payload.
type Button struct {
	Label  string
	Unique string
	Data   string
}

// Remove hides the user's reply keyboard.
func Remove() *tele.ReplyMarkup {
	return &tele.ReplyMarkup{RemoveKeyboard: true}
}

// Menu is a resized reply keyboard, one row per slice of labels.
func Menu(rows ...[]string) *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{ResizeKeyboard: true}
	out := make([]tele.Row, len(rows))
	for i, labels := range rows {
		out[i] = make(tele.Row, len(labels))
		for j, label := range labels {
			out[i][j] = m.Text(label)
		}
	}
	m.Reply(out...)
	return m
}

// Stack lays the buttons out vertically.
func Stack(buttons ...Button) *tele.ReplyMarkup {
	rows := make([][]Button, len(buttons))
	for i := range buttons {
		rows[i] = buttons[i : i+1]
	}
	return Grid(rows...)
}

// Grid is an inline keyboard with the given rows.
func Grid(rows ...[]Button) *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{}
	m.InlineKeyboard = make([][]tele.InlineButton, len(rows))
	for i, row := range rows {
		line := make([]tele.InlineButton, 0, len(row))
		for _, b := range row {
			line = append(line, *m.Data(b.Label, b.Unique, b.Data).Inline())
		}
		m.InlineKeyboard[i] = line
	}
	return m
}

// Package validate holds the pure input checks used by dialogue steps.
//
// Every validator takes the raw message text and returns either the typed
// value to store or a *Failure. Validators never touch I/O.
package validate

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Func validates raw user input.
type Func func(raw string) (any, error)

// Failure rejects an input. Reason is safe to show to the user.
type Failure struct {
	Field  string
	Reason string
}

func (f *Failure) Error() string {
	if f.Field == "" {
		return "validate: " + f.Reason
	}
	return "validate: " + f.Field + ": " + f.Reason
}

func fail(reason string) error { return &Failure{Reason: reason} }

// CommandPrefix starts bot commands. Text answers must not begin with it.
const CommandPrefix = "/"

const errCommand = "❌ Похоже на команду. Введите ответ обычным текстом:"

func isCommand(s string) bool { return strings.HasPrefix(s, CommandPrefix) }

// MaxLabelLength bounds category names.
const MaxLabelLength = 50

// Amount accepts a non-negative real number. A comma works as the decimal separator.
func Amount(raw string) (any, error) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return nil, fail("❌ Введите корректную сумму (число больше или равное 0):")
	}
	return v, nil
}

// Integer accepts a non-negative whole number written with digits only.
func Integer(raw string) (any, error) {
	s := strings.TrimSpace(raw)
	if s == "" || strings.IndexFunc(s, func(r rune) bool { return r < '0' || r > '9' }) >= 0 {
		return nil, fail("Пожалуйста, введи число.")
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil, fail("Пожалуйста, введи число.")
	}
	return v, nil
}

// Length returns a validator for trimmed text of min..max characters.
func Length(min, max int) Func {
	return func(raw string) (any, error) {
		s := strings.TrimSpace(raw)
		if isCommand(s) {
			return nil, fail(errCommand)
		}
		if n := utf8.RuneCountInString(s); n < min || n > max {
			return nil, fail("❌ Название категории должно быть не пустым и не длиннее " +
				strconv.Itoa(max) + " символов. Попробуйте еще раз:")
		}
		return s, nil
	}
}

// Label accepts a category name of 1..50 characters after trimming.
// Like Text, it rejects input that looks like a command.
var Label = Length(1, MaxLabelLength)

// Text accepts any non-empty trimmed text.
func Text(raw string) (any, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, fail("Ответ не может быть пустым. Попробуйте еще раз:")
	}
	if isCommand(s) {
		return nil, fail(errCommand)
	}
	return s, nil
}

// OneOf accepts one of choices, compared case-insensitively. The stored value is the canonical choice.
func OneOf(choices ...string) Func {
	return func(raw string) (any, error) {
		s := strings.TrimSpace(raw)
		for _, c := range choices {
			if strings.EqualFold(s, c) {
				return c, nil
			}
		}
		return nil, fail("Выберите один из вариантов: " + strings.Join(choices, ", "))
	}
}

// IsSkip reports whether raw is the skip sentinel, ignoring case and surrounding space.
func IsSkip(sentinel, raw string) bool {
	return sentinel != "" && strings.EqualFold(strings.TrimSpace(raw), sentinel)
}

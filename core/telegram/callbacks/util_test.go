package callbacks

import (
	"testing"

	tele "gopkg.in/telebot.v4"
)

func TestParseCallbackData(t *testing.T) {
	cases := []struct {
		cb           *tele.Callback
		key, payload string
	}{
		{nil, "", ""},
		{&tele.Callback{Data: "\fskip|now"}, "skip", "now"},
		{&tele.Callback{Data: "\fskip"}, "skip", ""},
		{&tele.Callback{Data: "plain"}, "plain", ""},
		{&tele.Callback{Unique: "skip", Data: "x|y"}, "skip", "x|y"},
	}
	for _, c := range cases {
		key, payload := ParseCallbackData(c.cb)
		if key != c.key || payload != c.payload {
			t.Fatalf("ParseCallbackData(%+v) = %q,%q want %q,%q", c.cb, key, payload, c.key, c.payload)
		}
	}
}

package commands

import (
	"slices"
	"testing"
)

func TestTriggers(t *testing.T) {
	cmd := Command{Aliases: []string{" Курс валют ", "rates", "/fx", ""}}
	want := []string{"Курс валют", "/Курс валют", "rates", "/rates", "/fx"}
	if got := cmd.Triggers(); !slices.Equal(got, want) {
		t.Fatalf("Triggers() = %q, want %q", got, want)
	}
	if got := (Command{}).Triggers(); len(got) != 0 {
		t.Fatalf("no aliases: %q", got)
	}
}

package keyboard

import "testing"

func TestMenu(t *testing.T) {
	m := Menu([]string{"a", "b"}, []string{"c"})
	if !m.ResizeKeyboard {
		t.Fatal("expected resized keyboard")
	}
	if len(m.ReplyKeyboard) != 2 || len(m.ReplyKeyboard[0]) != 2 || m.ReplyKeyboard[1][0].Text != "c" {
		t.Fatalf("unexpected layout %+v", m.ReplyKeyboard)
	}
}

func TestStack(t *testing.T) {
	m := Stack(Button{Label: "Пропустить", Unique: "skip"}, Button{Label: "Отмена", Unique: "cancel", Data: "x"})
	if len(m.InlineKeyboard) != 2 {
		t.Fatalf("rows = %d", len(m.InlineKeyboard))
	}
	btn := m.InlineKeyboard[0][0]
	if btn.Text != "Пропустить" || btn.Unique != "skip" {
		t.Fatalf("unexpected button %+v", btn)
	}
	if got := m.InlineKeyboard[1][0].Data; got != "x" {
		t.Fatalf("data = %q", got)
	}
}

func TestRemove(t *testing.T) {
	if !Remove().RemoveKeyboard {
		t.Fatal("expected remove flag")
	}
}

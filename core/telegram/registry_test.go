package telegram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/dialogbot/core/telegram/commands"

	tele "gopkg.in/telebot.v4"
)

func noop(tele.Context) error { return nil }

func TestRegistryCommands(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.RegisterCommand("/rates", commands.Command{Handler: noop, Description: "Курс валют", Aliases: []string{"Курс валют"}}))
	require.NoError(t, r.RegisterCommand("/students", commands.Command{Handler: noop, Description: "Ученики", AdminOnly: true}))
	require.NoError(t, r.RegisterCommand("/secret", commands.Command{Handler: noop, Description: "hidden", Hidden: true}))
	assert.ErrorIs(t, r.RegisterCommand("noslash", commands.Command{Handler: noop, Description: "x"}), ErrInvalidRoute)
	assert.ErrorIs(t, r.RegisterCommand("/empty", commands.Command{Handler: noop}), ErrInvalidRoute)
	assert.ErrorIs(t, r.RegisterCommand("/rates", commands.Command{Handler: noop, Description: "dup"}), ErrDuplicateRoute)
	assert.ErrorIs(t, r.RegisterCommand("/fx", commands.Command{Handler: noop, Description: "fx", Aliases: []string{"Курс валют"}}), ErrDuplicateRoute)

	assert.Len(t, r.Commands(), 3)
	assert.Equal(t, []tele.Command{{Text: "rates", Description: "Курс валют"}}, r.ListCommands(true))
	assert.Len(t, r.ListCommands(false), 3)

	key, cmd, ok := r.LookupCommand("Курс валют")
	require.True(t, ok)
	assert.Equal(t, "/rates", key)
	assert.Equal(t, "Курс валют", cmd.Description)

	key, _, ok = r.LookupCommand("/students")
	require.True(t, ok)
	assert.Equal(t, "/students", key)

	_, _, ok = r.LookupCommand("привет")
	assert.False(t, ok)
}

func TestRegistryCallbacks(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.RegisterCallback("skip", noop))
	assert.Error(t, r.RegisterCallback("skip", noop))
	assert.Error(t, r.RegisterCallback("", noop))

	_, ok := r.GetCallback("skip")
	assert.True(t, ok)
	assert.Equal(t, []string{"skip"}, r.ListCallbacks())
}

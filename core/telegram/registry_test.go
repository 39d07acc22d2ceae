package telegram

import (
	"testing"

	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"
)

func nopHandler(tele.Context) error { return nil }

func TestRegistryLookupCommandStripsArgsAndBotName(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCommand("/schedule", Command{Handler: nopHandler, Description: "Schedule a post", Aliases: []string{"plan"}})

	for _, text := range []string{"/schedule", "/schedule@postbot", "/schedule now", "schedule", "/plan"} {
		key, _, ok := reg.LookupCommand(text)
		require.True(t, ok, text)
		require.Equal(t, "/schedule", key)
	}
	_, _, ok := reg.LookupCommand("/unknown")
	require.False(t, ok)
}

func TestRegistryRejectsInvalidCommands(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCommand("list", Command{Handler: nopHandler, Description: "no slash"})
	reg.RegisterCommand("/list", Command{Handler: nopHandler})
	require.Empty(t, reg.Commands())
}

func TestRegistryListCommandsHidesAdminAndHidden(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCommand("/schedule", Command{Handler: nopHandler, Description: "Schedule"})
	reg.RegisterCommand("/list", Command{Handler: nopHandler, Description: "List"})
	reg.RegisterCommand("/stats", Command{Handler: nopHandler, Description: "Stats", AdminOnly: true})
	reg.RegisterCommand("/myid", Command{Handler: nopHandler, Description: "Id", Hidden: true})

	visible := reg.ListCommands(true)
	require.Equal(t, []tele.Command{
		{Text: "list", Description: "List"},
		{Text: "schedule", Description: "Schedule"},
	}, visible)
	require.Len(t, reg.ListCommands(false), 4)
}

func TestRegistryLookupCallbackLongestPrefix(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.RegisterCallback("time_", nopHandler))
	require.NoError(t, reg.RegisterCallback("time_manual", nopHandler))
	require.NoError(t, reg.RegisterCallback("cancel_", nopHandler))
	require.Error(t, reg.RegisterCallback("cancel_", nopHandler))

	key, _, ok := reg.LookupCallback("time_manual")
	require.True(t, ok)
	require.Equal(t, "time_manual", key)

	key, _, ok = reg.LookupCallback("time_12:00")
	require.True(t, ok)
	require.Equal(t, "time_", key)

	_, _, ok = reg.LookupCallback("date_today")
	require.False(t, ok)
	require.Equal(t, []string{"cancel_", "time_", "time_manual"}, reg.ListCallbacks())
}

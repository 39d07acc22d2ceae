package router

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/postbot/core/telegram"
)

type fakeFSM struct {
	active map[int64]bool
	texts  []string
}

func (f *fakeFSM) InProgress(chatID int64) bool { return f.active[chatID] }

func (f *fakeFSM) HandleText(c tele.Context) error {
	f.texts = append(f.texts, c.Text())
	return nil
}

func textContext(t *testing.T, chatID int64, text string) tele.Context {
	t.Helper()
	b, err := tele.NewBot(tele.Settings{Offline: true})
	require.NoError(t, err)
	return b.NewContext(tele.Update{ID: 1, Message: &tele.Message{
		Sender: &tele.User{ID: chatID},
		Chat:   &tele.Chat{ID: chatID},
		Text:   text,
	}})
}

func TestTextRoutesDispatchToFSMOnlyWhenInProgress(t *testing.T) {
	fsm := &fakeFSM{active: map[int64]bool{1: true}}
	routes := TextRoutes(fsm, tg.NewRegistry(), TextOptions{})
	require.Len(t, routes, 1)
	h := routes[0].Handler

	require.NoError(t, h(textContext(t, 1, "Hello")))
	require.NoError(t, h(textContext(t, 2, "Ignored")))
	require.Equal(t, []string{"Hello"}, fsm.texts)
}

func TestTextRoutesCommandWithArguments(t *testing.T) {
	reg := tg.NewRegistry()
	called := 0
	reg.RegisterCommand("/list", tg.Command{Handler: func(tele.Context) error { called++; return nil }, Description: "List"})
	fsm := &fakeFSM{active: map[int64]bool{1: true}}
	h := TextRoutes(fsm, reg, TextOptions{})[0].Handler

	require.NoError(t, h(textContext(t, 1, "/list all")))
	require.Equal(t, 1, called)
	require.Empty(t, fsm.texts)
}

func TestTextRoutesUnknownTextFallback(t *testing.T) {
	unknown := 0
	h := TextRoutes(nil, nil, TextOptions{UnknownText: func(tele.Context) error { unknown++; return nil }})[0].Handler
	require.NoError(t, h(textContext(t, 3, "hi")))
	require.Equal(t, 1, unknown)
}

func TestCommandRoutesIncludeAliases(t *testing.T) {
	reg := tg.NewRegistry()
	reg.RegisterCommand("/abort", tg.Command{Handler: func(tele.Context) error { return nil }, Description: "Abort", Aliases: []string{"cancel"}})
	routes := CommandRoutes(reg, CommandRouteOptions{})
	endpoints := make([]any, 0, len(routes))
	for _, r := range routes {
		endpoints = append(endpoints, r.Endpoint)
	}
	require.ElementsMatch(t, []any{"/abort", "/cancel"}, endpoints)
}

func TestNormalizeHandlerName(t *testing.T) {
	require.Equal(t, "schedule", normalizeHandlerName("/Schedule"))
	require.Equal(t, "cancel", normalizeHandlerName("cancel_"))
	require.Equal(t, "unknown", normalizeHandlerName(" "))
}

type codedErr struct{}

func (codedErr) Error() string { return "coded" }
func (codedErr) Code() string  { return "past time" }

func TestDeriveErrorCode(t *testing.T) {
	require.Equal(t, "PAST_TIME", deriveErrorCode(codedErr{}))
	require.Equal(t, "ERRORSTRING", deriveErrorCode(errors.New("x")))
	require.Empty(t, deriveErrorCode(nil))
}

package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	tghelpers "github.com/m3rciful/postbot/core/telegram/helpers"
)

func offlineBot(t *testing.T) *tele.Bot {
	t.Helper()
	b, err := tele.NewBot(tele.Settings{Offline: true})
	require.NoError(t, err)
	return b
}

func messageUpdate(id int, userID int64, text string) tele.Update {
	return tele.Update{ID: id, Message: &tele.Message{
		Sender: &tele.User{ID: userID},
		Chat:   &tele.Chat{ID: userID, Type: tele.ChatPrivate},
		Text:   text,
	}}
}

func callbackUpdate(id int, userID int64, data string) tele.Update {
	return tele.Update{ID: id, Callback: &tele.Callback{
		Sender: &tele.User{ID: userID},
		Data:   data,
		Message: &tele.Message{Chat: &tele.Chat{ID: userID}},
	}}
}

func TestRateLimitBlocksSecondMessage(t *testing.T) {
	b := offlineBot(t)
	limited := 0
	mw := RateLimitMiddleware(RateLimitOptions{
		Interval:  time.Hour,
		Exclude:   map[string]struct{}{KindCallback: {}},
		OnLimited: func(tele.Context) error { limited++; return nil },
	})
	passed := 0
	h := mw(func(tele.Context) error { passed++; return nil })

	require.NoError(t, h(b.NewContext(messageUpdate(1, 10, "a"))))
	require.NoError(t, h(b.NewContext(messageUpdate(2, 10, "b"))))
	require.NoError(t, h(b.NewContext(messageUpdate(3, 11, "c"))))
	require.NoError(t, h(b.NewContext(callbackUpdate(4, 10, "date_today"))))

	require.Equal(t, 3, passed)
	require.Equal(t, 1, limited)
}

func TestRateLimitBurst(t *testing.T) {
	b := offlineBot(t)
	passed := 0
	h := RateLimitMiddleware(RateLimitOptions{Interval: time.Hour, Burst: 2})(func(tele.Context) error {
		passed++
		return nil
	})
	for i := 0; i < 3; i++ {
		require.NoError(t, h(b.NewContext(messageUpdate(i, 10, "x"))))
	}
	require.Equal(t, 2, passed)
}

func TestAdminOnlyMiddleware(t *testing.T) {
	b := offlineBot(t)
	rejected := 0
	mw := AdminOnlyMiddleware(AdminOptions{AdminID: 42, OnReject: func(tele.Context) error {
		rejected++
		return nil
	}})
	called := 0
	h := mw(func(tele.Context) error { called++; return nil })

	require.NoError(t, h(b.NewContext(messageUpdate(1, 42, "/stats"))))
	require.NoError(t, h(b.NewContext(messageUpdate(2, 7, "/stats"))))
	require.Equal(t, 1, called)
	require.Equal(t, 1, rejected)
}

func TestAdminOnlyRejectsWhenAdminUnset(t *testing.T) {
	b := offlineBot(t)
	called := false
	h := AdminOnlyMiddleware(AdminOptions{})(func(tele.Context) error { called = true; return nil })
	require.NoError(t, h(b.NewContext(messageUpdate(1, 42, "/stats"))))
	require.False(t, called)
}

func TestRecoverMiddlewareConvertsPanic(t *testing.T) {
	b := offlineBot(t)
	h := RecoverMiddleware(func(tele.Context) error { panic("boom") })
	err := h(b.NewContext(messageUpdate(1, 1, "x")))
	require.ErrorContains(t, err, "boom")
}

func TestMessageMetricsMiddlewareCountsReplies(t *testing.T) {
	b := offlineBot(t)
	h := MessageMetricsMiddleware(func(c tele.Context) error {
		tghelpers.CountersFrom(tghelpers.BuildContext(c)).Inc(true)
		tghelpers.CountersFrom(tghelpers.BuildContext(c)).Inc(false)
		msgs, kb := GetCounters(c)
		require.Equal(t, 2, msgs)
		require.True(t, kb)
		return nil
	})
	require.NoError(t, h(b.NewContext(messageUpdate(1, 1, "x"))))
}

func TestUpdateKind(t *testing.T) {
	b := offlineBot(t)
	require.Equal(t, KindMessage, UpdateKind(b.NewContext(messageUpdate(1, 1, "x"))))
	require.Equal(t, KindCallback, UpdateKind(b.NewContext(callbackUpdate(2, 1, "x"))))
	require.Equal(t, KindOther, UpdateKind(b.NewContext(tele.Update{ID: 3})))
}

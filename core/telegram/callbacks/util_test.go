package callbacks

import (
	"testing"

	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"
)

func TestParseCallbackData(t *testing.T) {
	key, payload := ParseCallbackData(&tele.Callback{Data: "\fcancel|42"})
	require.Equal(t, "cancel", key)
	require.Equal(t, "42", payload)

	key, payload = ParseCallbackData(&tele.Callback{Data: "time_12:00"})
	require.Equal(t, "time_12:00", key)
	require.Empty(t, payload)

	key, payload = ParseCallbackData(&tele.Callback{Unique: "date", Data: "today"})
	require.Equal(t, "date", key)
	require.Equal(t, "today", payload)
}

package telegram

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"
)

func TestBuildPollerWebhook(t *testing.T) {
	p := BuildPoller(PollerOptions{
		RunMode: "Webhook",
		Webhook: WebhookOptions{Listen: "0.0.0.0", Port: 8443, URL: "https://bot.example.com/hook"},
	})
	wh, ok := p.(*tele.Webhook)
	require.True(t, ok)
	require.Equal(t, "0.0.0.0:8443", wh.Listen)
	require.Equal(t, "https://bot.example.com/hook", wh.Endpoint.PublicURL)
}

func TestBuildPollerLongPollDefault(t *testing.T) {
	p := BuildPoller(PollerOptions{RunMode: "longpoll"})
	lp, ok := p.(*tele.LongPoller)
	require.True(t, ok)
	require.Equal(t, 10*time.Second, lp.Timeout)
	require.Contains(t, lp.AllowedUpdates, "callback_query")
}

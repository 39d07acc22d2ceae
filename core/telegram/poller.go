package telegram

import (
	"fmt"
	"strings"
	"time"

	coreconfig "github.com/m3rciful/postbot/core/config"

	tele "gopkg.in/telebot.v4"
)

const defaultLongPollSeconds = 10

var allowedUpdates = []string{"message", "callback_query"}

// WebhookOptions declares webhook listener settings.
type WebhookOptions struct {
	Listen string
	Port   int
	URL    string
}

// PollerOptions configures BuildPoller.
type PollerOptions struct {
	RunMode                string
	LongPollTimeoutSeconds int
	Webhook                WebhookOptions
}

// BuildPoller returns a Telebot poller based on provided options.
func BuildPoller(opts PollerOptions) tele.Poller {
	runMode := strings.ToLower(strings.TrimSpace(opts.RunMode))
	if runMode == coreconfig.RunModeWebhook {
		return &tele.Webhook{
			Listen:         fmt.Sprintf("%s:%d", opts.Webhook.Listen, opts.Webhook.Port),
			Endpoint:       &tele.WebhookEndpoint{PublicURL: opts.Webhook.URL},
			AllowedUpdates: allowedUpdates,
		}
	}

	return &tele.LongPoller{
		Timeout:        LongPollTimeout(opts.LongPollTimeoutSeconds),
		AllowedUpdates: allowedUpdates,
	}
}

// LongPollTimeout converts the configured seconds into a duration, applying the default.
func LongPollTimeout(seconds int) time.Duration {
	if seconds <= 0 {
		seconds = defaultLongPollSeconds
	}
	return time.Duration(seconds) * time.Second
}

package middleware

import (
	tghelpers "github.com/m3rciful/postbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// Update kinds reported by UpdateKind.
const (
	KindCallback = "callback"
	KindMessage  = "message"
	KindOther    = "other"
)

// UpdateKind classifies an update for rate limit exclusions and metrics.
func UpdateKind(c tele.Context) string {
	upd := c.Update()
	switch {
	case upd.Callback != nil:
		return KindCallback
	case upd.Message != nil:
		return KindMessage
	}
	return KindOther
}

// MessageMetricsMiddleware attaches reply counters to the update so handler summaries
// can report how many messages were produced and whether a keyboard was shown.
func MessageMetricsMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		if tghelpers.CountersOf(c) == nil {
			tghelpers.AttachCounters(c)
		}
		return next(c)
	}
}

// UpdateMetricsMiddleware reports the kind of every incoming update to observe.
func UpdateMetricsMiddleware(observe func(kind string)) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if observe != nil {
				observe(UpdateKind(c))
			}
			return next(c)
		}
	}
}

// GetCounters reads message count and keyboard presence flags from context.
func GetCounters(c tele.Context) (int, bool) {
	return tghelpers.CountersOf(c).Snapshot()
}

// Package callbacks decodes inline button data for both telebot-encoded
// (\f<unique>|<payload>) and raw (<prefix>_<payload>) buttons.
package callbacks

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

const respondedKey = "cb_responded"

// ParseCallbackData parses Telebot's \f<unique>|<payload> encoding.
// Raw data without the marker is returned whole as the key.
func ParseCallbackData(cb *tele.Callback) (string, string) {
	if cb == nil {
		return "", ""
	}
	if cb.Unique != "" {
		return cb.Unique, cb.Data
	}
	raw := strings.TrimSpace(cb.Data)
	if !strings.HasPrefix(raw, "\f") {
		return raw, ""
	}
	unique, payload, _ := strings.Cut(strings.TrimPrefix(raw, "\f"), "|")
	return strings.TrimSpace(unique), payload
}

// Data returns the raw button data of the current callback.
func Data(c tele.Context) string {
	cb := c.Callback()
	if cb == nil {
		return ""
	}
	if cb.Unique != "" {
		if cb.Data == "" {
			return cb.Unique
		}
		return cb.Unique + "|" + cb.Data
	}
	return strings.TrimSpace(cb.Data)
}

// Respond answers the callback query once and marks it answered so the router
// does not send an empty acknowledgement afterwards.
func Respond(c tele.Context, text string) error {
	c.Set(respondedKey, true)
	if text == "" {
		return c.Respond()
	}
	return c.Respond(&tele.CallbackResponse{Text: text})
}

// Responded reports whether Respond has already been called for this update.
func Responded(c tele.Context) bool {
	v, _ := c.Get(respondedKey).(bool)
	return v
}

package router

import (
	"log/slog"
	"time"

	tg "github.com/m3rciful/postbot/core/telegram"
	"github.com/m3rciful/postbot/core/telegram/callbacks"
	"github.com/m3rciful/postbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// CallbackOptions customises fallback behaviour for callbacks.
type CallbackOptions struct {
	NotFound tele.HandlerFunc
}

// CallbackRoute returns a handler that routes callbacks through the registry by data prefix.
// Handlers answer the query via callbacks.Respond; unanswered queries get an empty answer
// so the client stops showing a spinner.
func CallbackRoute(reg *tg.Registry, opts CallbackOptions) tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		if c.Callback() == nil {
			return nil
		}

		data := callbacks.Data(c)
		key, cbHandler, ok := reg.LookupCallback(data)
		name := "callback." + normalizeHandlerName(key)
		extras := []slog.Attr{slog.String("cb_key", key)}

		run := cbHandler
		if !ok {
			name = "callback.unknown"
			extras = []slog.Attr{slog.String("cb_key", data), slog.String("cause", "not_found")}
			run = reg.CallbackNotFound()
			if run == nil {
				run = opts.NotFound
			}
		}

		return handleWithSummary(c, name, start, "", "", func() error {
			var err error
			if run != nil {
				err = run(c)
			}
			if !callbacks.Responded(c) {
				_ = callbacks.Respond(c, "")
			}
			return err
		}, extras...)
	}
	return tg.Route{
		Endpoint: tele.OnCallback,
		Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
	}
}

package helpers

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync/atomic"

	"github.com/m3rciful/postbot/core/logger"
	"github.com/m3rciful/postbot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

var globalDispatcher atomic.Pointer[sender.Dispatcher]

// Sender is the part of *tele.Bot used to push messages to arbitrary chats.
type Sender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// ChatRecipient addresses a chat by numeric id or @username.
type ChatRecipient string

// Recipient implements tele.Recipient.
func (r ChatRecipient) Recipient() string { return string(r) }

// ChatByID returns a recipient for a numeric chat id.
func ChatByID(id int64) ChatRecipient {
	return ChatRecipient(strconv.FormatInt(id, 10))
}

// SetDispatcher wires the asynchronous sender used by helper functions.
func SetDispatcher(d *sender.Dispatcher) {
	globalDispatcher.Store(d)
}

func currentDispatcher() *sender.Dispatcher {
	return globalDispatcher.Load()
}

func sendAsync(ctx context.Context, action, endpoint string, run func() error) error {
	disp := currentDispatcher()
	if disp == nil {
		return run()
	}

	if err := disp.Enqueue(ctx, action, endpoint, run); err != nil {
		if errors.Is(err, sender.ErrQueueFull) || errors.Is(err, sender.ErrQueueClosed) {
			logger.Warn(ctx, "tg.sender", "queue.fallback",
				slog.String("action", action),
				slog.String("endpoint", endpoint),
				slog.String("err", err.Error()),
			)
			return run()
		}
		return err
	}
	return nil
}

// SendTo queues a plain-text message (no parse mode) to chatID with optional markup.
func SendTo(ctx context.Context, api Sender, chatID int64, text string, markup *tele.ReplyMarkup) error {
	if ctx == nil {
		ctx = context.Background()
	}
	opts := &tele.SendOptions{ReplyMarkup: markup}
	err := sendAsync(ctx, "send.text", "sendMessage", func() error {
		_, err := api.Send(ChatByID(chatID), text, opts)
		return err
	})
	if err == nil {
		CountersFrom(ctx).Inc(markup != nil)
	}
	return err
}

// SendText sends raw text (no parse mode) to the current recipient.
func SendText(c tele.Context, text string, opts ...*tele.SendOptions) error {
	var sendOpts *tele.SendOptions
	if len(opts) > 0 {
		sendOpts = opts[0]
	}
	ctx := BuildContext(c)
	err := sendAsync(ctx, "send.text", "sendMessage", func() error {
		if sendOpts != nil {
			return c.Send(text, sendOpts)
		}
		return c.Send(text)
	})
	if err == nil {
		CountersFrom(ctx).Inc(sendOpts != nil && sendOpts.ReplyMarkup != nil)
	}
	return err
}

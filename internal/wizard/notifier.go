package wizard

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/m3rciful/postbot/core/logger"
	"github.com/m3rciful/postbot/internal/scheduler"
)

// OriginNotifier tells the chat that scheduled a post whether it was published.
type OriginNotifier struct {
	Messenger Messenger
}

// Observe implements scheduler.Observer. Only delivered and failed outcomes are announced.
func (n OriginNotifier) Observe(ctx context.Context, o scheduler.Outcome) {
	var text string
	switch o.Status {
	case scheduler.StatusDelivered:
		text = fmt.Sprintf(textDeliveredNotice, o.Post.ID)
	case scheduler.StatusFailed:
		cause := "unknown error"
		if o.Err != nil {
			cause = o.Err.Error()
		}
		text = fmt.Sprintf(textFailedNotice, o.Post.ID, cause)
	default:
		return
	}
	if err := n.Messenger.SendText(ctx, o.Post.OriginChat, text, nil); err != nil {
		logger.LogEvent(logger.WithPostID(ctx, o.Post.ID), logger.Wizard, slog.LevelWarn, "post.notify",
			slog.String("status", "fail"),
			slog.Int64("origin_chat", o.Post.OriginChat),
			slog.String("err", err.Error()),
		)
	}
}

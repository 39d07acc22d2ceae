package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/m3rciful/postbot/core/telegram/helpers"
	"github.com/m3rciful/postbot/core/telegram/sender"
)

// Channel delivers post text to the destination channel. Sends bypass the dispatcher
// so the scheduler sees the real outcome of the attempt.
type Channel struct {
	api helpers.Sender
	to  helpers.ChatRecipient
}

// ParseChannel validates a channel reference: a numeric chat id or an @username.
func ParseChannel(ref string) (helpers.ChatRecipient, error) {
	ref = strings.TrimSpace(ref)
	switch {
	case ref == "":
		return "", errors.New("channel is required")
	case strings.HasPrefix(ref, "@"):
		if len(ref) < 2 || strings.ContainsAny(ref, " \t") {
			return "", fmt.Errorf("invalid channel username %q", ref)
		}
		return helpers.ChatRecipient(ref), nil
	}
	id, err := strconv.ParseInt(ref, 10, 64)
	if err != nil || id == 0 {
		return "", fmt.Errorf("invalid channel id %q", ref)
	}
	return helpers.ChatByID(id), nil
}

// NewChannel builds a Channel for the given recipient.
func NewChannel(api helpers.Sender, to helpers.ChatRecipient) *Channel {
	return &Channel{api: api, to: to}
}

// Deliver implements scheduler.Deliverer. The send is abandoned when ctx ends first;
// telebot may still complete it in the background.
func (c *Channel) Deliver(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	done := make(chan error, 1)
	go func() {
		_, err := c.api.Send(c.to, text)
		done <- err
	}()
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("send to %s: %w", c.to, sender.Redact(err))
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("send to %s: %w", c.to, ctx.Err())
	}
}

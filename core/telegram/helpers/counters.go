package helpers

import (
	"context"
	"sync/atomic"

	tele "gopkg.in/telebot.v4"
)

type countersKey struct{}

const countersSlot = "reply_counters"

// Counters tracks replies produced while handling one update.
type Counters struct {
	messages atomic.Int32
	keyboard atomic.Bool
}

// Inc records one outgoing message.
func (c *Counters) Inc(hasKeyboard bool) {
	if c == nil {
		return
	}
	c.messages.Add(1)
	if hasKeyboard {
		c.keyboard.Store(true)
	}
}

// Snapshot returns the message count and whether any reply carried a keyboard.
func (c *Counters) Snapshot() (int, bool) {
	if c == nil {
		return 0, false
	}
	return int(c.messages.Load()), c.keyboard.Load()
}

// AttachCounters installs fresh counters on both the telebot and the stored request context.
func AttachCounters(c tele.Context) *Counters {
	counters := &Counters{}
	c.Set(countersSlot, counters)
	StoreContext(c, context.WithValue(BuildContext(c), countersKey{}, counters))
	return counters
}

// CountersOf returns counters attached to the telebot context, if any.
func CountersOf(c tele.Context) *Counters {
	counters, _ := c.Get(countersSlot).(*Counters)
	return counters
}

// CountersFrom returns counters carried by ctx, if any.
func CountersFrom(ctx context.Context) *Counters {
	if ctx == nil {
		return nil
	}
	counters, _ := ctx.Value(countersKey{}).(*Counters)
	return counters
}

package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/m3rciful/postbot/core/logger"
	tg "github.com/m3rciful/postbot/core/telegram"
	"github.com/m3rciful/postbot/core/telegram/callbacks"
	"github.com/m3rciful/postbot/core/telegram/helpers"
	"github.com/m3rciful/postbot/internal/journal"
	"github.com/m3rciful/postbot/internal/scheduler"
	"github.com/m3rciful/postbot/internal/wizard"

	tele "gopkg.in/telebot.v4"
)

// Engine is the part of wizard.Engine driven by Telegram updates.
type Engine interface {
	Start(ctx context.Context, chatID, userID int64) error
	List(ctx context.Context, chatID, userID int64) error
	WhoAmI(ctx context.Context, chatID, userID int64) error
	Help(ctx context.Context, chatID int64) error
	Abort(ctx context.Context, chatID int64) error
	HandleText(ctx context.Context, chatID int64, text string) error
	HandleButton(ctx context.Context, chatID int64, data string) (string, error)
	InProgress(chatID int64) bool
	Active() int
}

// StatsSource reports scheduler counters.
type StatsSource interface {
	Stats() scheduler.Stats
}

// JournalReader lists recent journal entries and reports writer counters.
type JournalReader interface {
	Recent(ctx context.Context, limit int) ([]journal.Entry, error)
	Stats() (written, dropped, failed uint64)
}

// Outbox reports outbound dispatcher counters.
type Outbox interface {
	SentCount() uint64
	ErrorCount() uint64
	QueueLen() int
}

// Handlers binds commands and buttons to the engine.
type Handlers struct {
	Engine Engine
	Stats  StatsSource
	// Outbox is set once the dispatcher runs.
	Outbox Outbox
	// Journal is optional; /stats lists recent outcomes when set.
	Journal JournalReader
	// Location renders journal timestamps; defaults to UTC.
	Location *time.Location
}

const (
	recentLimit     = 10
	textStaleButton = "This button is no longer active."
)

// Register adds commands and callback prefixes to reg.
func (h *Handlers) Register(reg *tg.Registry) error {
	reg.RegisterCommand("/start", tg.Command{Handler: h.help, Description: "Show help", Aliases: []string{"help"}})
	reg.RegisterCommand("/schedule", tg.Command{Handler: h.schedule, Description: "Schedule a post"})
	reg.RegisterCommand("/list", tg.Command{Handler: h.list, Description: "List pending posts"})
	reg.RegisterCommand("/abort", tg.Command{Handler: h.abort, Description: "Abort the post being composed"})
	reg.RegisterCommand("/myid", tg.Command{Handler: h.whoAmI, Description: "Show your user and chat ids"})
	reg.RegisterCommand("/stats", tg.Command{Handler: h.stats, Description: "Scheduler statistics", AdminOnly: true})

	reg.SetCallbackNotFound(func(c tele.Context) error {
		return callbacks.Respond(c, textStaleButton)
	})
	for _, prefix := range []string{wizard.PrefixDate, wizard.PrefixTime, wizard.PrefixCancel} {
		if err := reg.RegisterCallback(prefix, h.button); err != nil {
			return err
		}
	}
	return nil
}

// InProgress implements router.FSM.
func (h *Handlers) InProgress(chatID int64) bool {
	return h.Engine.InProgress(chatID)
}

// HandleText implements router.FSM.
func (h *Handlers) HandleText(c tele.Context) error {
	return h.Engine.HandleText(helpers.BuildContext(c), helpers.ChatID(c), c.Text())
}

func (h *Handlers) help(c tele.Context) error {
	return h.Engine.Help(helpers.BuildContext(c), helpers.ChatID(c))
}

func (h *Handlers) schedule(c tele.Context) error {
	return h.Engine.Start(helpers.BuildContext(c), helpers.ChatID(c), helpers.UserID(c))
}

func (h *Handlers) list(c tele.Context) error {
	return h.Engine.List(helpers.BuildContext(c), helpers.ChatID(c), helpers.UserID(c))
}

func (h *Handlers) abort(c tele.Context) error {
	return h.Engine.Abort(helpers.BuildContext(c), helpers.ChatID(c))
}

func (h *Handlers) whoAmI(c tele.Context) error {
	return h.Engine.WhoAmI(helpers.BuildContext(c), helpers.ChatID(c), helpers.UserID(c))
}

func (h *Handlers) button(c tele.Context) error {
	ctx := helpers.BuildContext(c)
	feedback, err := h.Engine.HandleButton(ctx, helpers.ChatID(c), callbacks.Data(c))
	if rerr := callbacks.Respond(c, feedback); rerr != nil {
		logger.LogEvent(ctx, logger.TG, slog.LevelWarn, "callback.respond",
			slog.String("status", "fail"),
			slog.String("err", rerr.Error()),
		)
	}
	return err
}

func (h *Handlers) stats(c tele.Context) error {
	ctx := helpers.BuildContext(c)
	return helpers.SendText(c, h.report(ctx))
}

func (h *Handlers) report(ctx context.Context) string {
	var b strings.Builder
	if h.Stats != nil {
		s := h.Stats.Stats()
		fmt.Fprintf(&b, "Pending: %d\nScheduled: %d\nDelivered: %d\nFailed: %d\nCancelled: %d\n",
			s.Pending, s.Scheduled, s.Delivered, s.Failed, s.Cancelled)
	}
	fmt.Fprintf(&b, "Open wizards: %d", h.Engine.Active())
	if h.Outbox != nil {
		fmt.Fprintf(&b, "\nReplies sent: %d, failed: %d, queued: %d",
			h.Outbox.SentCount(), h.Outbox.ErrorCount(), h.Outbox.QueueLen())
	}

	if h.Journal == nil {
		return b.String()
	}
	written, dropped, failed := h.Journal.Stats()
	fmt.Fprintf(&b, "\nJournal written: %d, dropped: %d, failed: %d", written, dropped, failed)

	entries, err := h.Journal.Recent(ctx, recentLimit)
	if err != nil {
		logger.LogEvent(ctx, logger.Journal, slog.LevelWarn, "journal.recent",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		b.WriteString("\n\nJournal unavailable.")
		return b.String()
	}
	if len(entries) == 0 {
		return b.String()
	}
	loc := h.Location
	if loc == nil {
		loc = time.UTC
	}
	b.WriteString("\n\nRecent:")
	for _, e := range entries {
		fmt.Fprintf(&b, "\n#%d %s %s", e.PostID, e.Status, e.At.In(loc).Format(wizard.TimeLayout))
		if e.Error != "" {
			fmt.Fprintf(&b, " (%s)", e.Error)
		}
	}
	return b.String()
}

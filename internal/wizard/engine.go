// Package wizard drives the per-chat conversation that turns a text into a scheduled post.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/m3rciful/postbot/core/logger"
	"github.com/m3rciful/postbot/core/telegram/state"
	"github.com/m3rciful/postbot/internal/scheduler"
)

// Options configures an Engine.
type Options struct {
	Messenger Messenger
	Directory Directory
	Scheduler Scheduler
	// Location resolves date buttons and fire times; defaults to UTC.
	Location *time.Location
	// Now defaults to time.Now.
	Now func() time.Time
	// TTL drops conversations idle for longer; 0 disables expiry.
	TTL time.Duration
	// RecheckAuth verifies the allow-list again when the post is handed off.
	RecheckAuth bool
	// OnTransition observes every step change.
	OnTransition func(from, to Step)
}

// Engine is the conversation state machine. It is safe for concurrent use; events of
// one chat are applied one at a time.
type Engine struct {
	messenger    Messenger
	directory    Directory
	scheduler    Scheduler
	loc          *time.Location
	now          func() time.Time
	ttl          time.Duration
	recheckAuth  bool
	onTransition func(from, to Step)

	sessions *state.Manager[Conversation]
}

type reply struct {
	text string
	kb   Keyboard
}

// New builds an Engine.
func New(opts Options) (*Engine, error) {
	switch {
	case opts.Messenger == nil:
		return nil, errors.New("wizard: nil messenger")
	case opts.Directory == nil:
		return nil, errors.New("wizard: nil directory")
	case opts.Scheduler == nil:
		return nil, errors.New("wizard: nil scheduler")
	}
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Engine{
		messenger:    opts.Messenger,
		directory:    opts.Directory,
		scheduler:    opts.Scheduler,
		loc:          loc,
		now:          now,
		ttl:          opts.TTL,
		recheckAuth:  opts.RecheckAuth,
		onTransition: opts.OnTransition,
		sessions:     state.NewMemoryManager[Conversation](now),
	}, nil
}

// Start opens a wizard for chatID when userID is authorized; an existing wizard restarts.
func (e *Engine) Start(ctx context.Context, chatID, userID int64) error {
	if err := e.authorize(ctx, userID, "schedule"); err != nil {
		return e.send(ctx, chatID, reply{text: textDenySchedule})
	}
	from := StepIdle
	if prev, replaced := e.sessions.Start(chatID, Conversation{Step: StepAwaitingText, UserID: userID}); replaced {
		from = prev.Data.Step
	}
	e.transition(ctx, from, StepAwaitingText)
	return e.send(ctx, chatID, reply{text: textAskPost})
}

// List shows the pending posts of chatID with a cancel button per post.
func (e *Engine) List(ctx context.Context, chatID, userID int64) error {
	if err := e.authorize(ctx, userID, "list"); err != nil {
		return e.send(ctx, chatID, reply{text: textDenyList})
	}
	posts := e.scheduler.List(chatID)
	if len(posts) == 0 {
		return e.send(ctx, chatID, reply{text: textNoPosts})
	}
	items := make([]string, len(posts))
	kb := make(Keyboard, len(posts))
	for i, p := range posts {
		items[i] = fmt.Sprintf(textListItem, p.ID, e.format(p.FireAt), preview(p.Text))
		kb[i] = []Button{{Label: fmt.Sprintf(labelCancel, p.ID), Data: fmt.Sprintf("%s%d", PrefixCancel, p.ID)}}
	}
	return e.send(ctx, chatID, reply{
		text: textListHeader + "\n\n" + strings.Join(items, "\n\n"),
		kb:   kb,
	})
}

// WhoAmI replies with the caller's user and chat ids.
func (e *Engine) WhoAmI(ctx context.Context, chatID, userID int64) error {
	return e.send(ctx, chatID, reply{text: fmt.Sprintf(textWhoAmI, userID, chatID)})
}

// Help replies with the command overview.
func (e *Engine) Help(ctx context.Context, chatID int64) error {
	return e.send(ctx, chatID, reply{text: HelpText})
}

// Abort abandons the wizard of chatID.
func (e *Engine) Abort(ctx context.Context, chatID int64) error {
	s, ok := e.sessions.Clear(chatID)
	if !ok {
		return e.send(ctx, chatID, reply{text: textNothingToAbort})
	}
	e.transition(ctx, s.Data.Step, StepIdle)
	return e.send(ctx, chatID, reply{text: textAborted})
}

// InProgress reports whether chatID has an open wizard.
func (e *Engine) InProgress(chatID int64) bool {
	return e.sessions.InProgress(chatID)
}

// Step returns the current step of chatID.
func (e *Engine) Step(chatID int64) Step {
	if s, ok := e.sessions.Get(chatID); ok {
		return s.Data.Step
	}
	return StepIdle
}

// Active returns the number of open wizards.
func (e *Engine) Active() int {
	return e.sessions.Len()
}

// Sweep drops wizards idle for longer than the TTL.
func (e *Engine) Sweep(ctx context.Context) int {
	n := e.sessions.Sweep(e.ttl)
	if n > 0 {
		logger.LogEvent(ctx, logger.Wizard, slog.LevelInfo, "wizard.sweep",
			slog.String("status", "ok"),
			slog.Int("count", n),
		)
	}
	return n
}

// HandleText feeds a plain text message of chatID into the wizard. Commands and
// chats without a wizard are ignored.
func (e *Engine) HandleText(ctx context.Context, chatID int64, text string) error {
	if strings.HasPrefix(text, "/") {
		return nil
	}
	var out []reply
	e.sessions.Update(chatID, func(s *state.Session[Conversation], ok bool) state.Action {
		if !e.live(ctx, s, ok) {
			return state.Drop
		}
		switch s.Data.Step {
		case StepAwaitingText:
			s.Data.DraftText = text
			e.advance(ctx, s, StepAwaitingDate)
			out = append(out, reply{text: textAskDate, kb: dateKeyboard()})
			return state.Save
		case StepAwaitingManualTime:
			hour, minute, err := ParseManualTime(text)
			if err != nil {
				logger.LogEvent(ctx, logger.Wizard, slog.LevelInfo, "wizard.manual_time",
					slog.String("status", "rejected"),
					slog.String("step", string(s.Data.Step)),
					slog.String("err", err.Error()),
				)
				out = append(out, reply{text: textBadManual})
				return state.Keep
			}
			out = append(out, e.handOff(ctx, chatID, s, hour, minute))
			return state.Drop
		}
		return state.Keep
	})
	return e.sendAll(ctx, chatID, out)
}

// HandleButton feeds a button press of chatID into the wizard and returns the
// acknowledgement text for the press (possibly empty). Cancel buttons work
// regardless of wizard state; other stale or unknown payloads are ignored.
func (e *Engine) HandleButton(ctx context.Context, chatID int64, data string) (string, error) {
	if strings.HasPrefix(data, PrefixCancel) {
		return e.cancel(ctx, chatID, data)
	}

	var (
		out      []reply
		feedback string
	)
	e.sessions.Update(chatID, func(s *state.Session[Conversation], ok bool) state.Action {
		if !e.live(ctx, s, ok) {
			return state.Drop
		}
		switch {
		case s.Data.Step == StepAwaitingDate && strings.HasPrefix(data, PrefixDate):
			offset, known := dateOffsets[data]
			if !known {
				return state.Keep
			}
			s.Data.SelectedDate = midnight(e.now(), offset, e.loc)
			e.advance(ctx, s, StepAwaitingTime)
			out = append(out, reply{text: textAskTime, kb: timeKeyboard()})
			feedback = feedbackDate
			return state.Save

		case s.Data.Step == StepAwaitingTime && data == DataTimeManual:
			e.advance(ctx, s, StepAwaitingManualTime)
			out = append(out, reply{text: textAskManual})
			feedback = feedbackManual
			return state.Save

		case s.Data.Step == StepAwaitingTime && strings.HasPrefix(data, PrefixTime):
			hour, minute, err := parseSlot(data)
			if err != nil {
				return state.Keep
			}
			out = append(out, e.handOff(ctx, chatID, s, hour, minute))
			feedback = feedbackTime
			return state.Drop
		}
		return state.Keep
	})
	return feedback, e.sendAll(ctx, chatID, out)
}

func (e *Engine) cancel(ctx context.Context, chatID int64, data string) (string, error) {
	id, err := parseCancel(data)
	if err != nil {
		return "", nil
	}
	if err := e.scheduler.Cancel(ctx, chatID, id); err != nil {
		if !errors.Is(err, scheduler.ErrNotFound) {
			return "", err
		}
		return feedbackNotFound, e.send(ctx, chatID, reply{text: fmt.Sprintf(textCancelNotFound, id)})
	}
	return feedbackCancelled, e.send(ctx, chatID, reply{text: fmt.Sprintf(textCancelled, id)})
}

// handOff schedules the draft at the chosen time of the selected day. The
// conversation ends whatever the outcome.
func (e *Engine) handOff(ctx context.Context, chatID int64, s *state.Session[Conversation], hour, minute int) reply {
	from := s.Data.Step
	defer e.transition(ctx, from, StepIdle)

	if e.recheckAuth && !e.directory.IsAuthorized(s.Data.UserID) {
		logger.LogEvent(ctx, logger.Wizard, slog.LevelWarn, "wizard.handoff",
			slog.String("status", "rejected"),
			slog.Int64("user_id", s.Data.UserID),
			slog.String("err", ErrUnauthorized.Error()),
		)
		return reply{text: textRevoked}
	}

	fireAt := at(s.Data.SelectedDate, hour, minute)
	id, err := e.scheduler.Schedule(ctx, s.Data.DraftText, fireAt, chatID)
	switch {
	case errors.Is(err, scheduler.ErrPastTime):
		return reply{text: textPastTime}
	case err != nil:
		logger.LogEvent(ctx, logger.Wizard, slog.LevelError, "wizard.handoff",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		return reply{text: textScheduleFailed}
	}
	return reply{text: fmt.Sprintf(textScheduled, id, e.format(fireAt))}
}

// live drops expired conversations; it reports whether s is usable.
func (e *Engine) live(ctx context.Context, s *state.Session[Conversation], ok bool) bool {
	if !ok {
		return false
	}
	if s.Expired(e.now(), e.ttl) {
		logger.LogEvent(ctx, logger.Wizard, slog.LevelInfo, "wizard.expired",
			slog.String("status", "skip"),
			slog.String("step", string(s.Data.Step)),
		)
		e.transition(ctx, s.Data.Step, StepIdle)
		return false
	}
	return true
}

func (e *Engine) advance(ctx context.Context, s *state.Session[Conversation], next Step) {
	prev := s.Data.Step
	s.Data.Step = next
	e.transition(ctx, prev, next)
}

func (e *Engine) transition(ctx context.Context, from, to Step) {
	if logger.ShouldSampleDebug() {
		logger.LogEvent(ctx, logger.Wizard, slog.LevelDebug, "wizard.step",
			slog.String("step", string(from)),
			slog.String("next_step", string(to)),
		)
	}
	if e.onTransition != nil {
		e.onTransition(from, to)
	}
}

func (e *Engine) authorize(ctx context.Context, userID int64, action string) error {
	if e.directory.IsAuthorized(userID) {
		return nil
	}
	logger.LogEvent(ctx, logger.Wizard, slog.LevelWarn, "wizard.unauthorized",
		slog.String("status", "rejected"),
		slog.String("cause", action),
		slog.Int64("user_id", userID),
	)
	return ErrUnauthorized
}

func (e *Engine) format(t time.Time) string {
	return t.In(e.loc).Format(TimeLayout)
}

func (e *Engine) send(ctx context.Context, chatID int64, r reply) error {
	return e.messenger.SendText(ctx, chatID, r.text, r.kb)
}

func (e *Engine) sendAll(ctx context.Context, chatID int64, replies []reply) error {
	var errs []error
	for _, r := range replies {
		errs = append(errs, e.send(ctx, chatID, r))
	}
	return errors.Join(errs...)
}

func preview(text string) string {
	r := []rune(text)
	if len(r) <= previewRunes {
		return text
	}
	return string(r[:previewRunes]) + "…"
}

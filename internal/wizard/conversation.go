package wizard

import (
	"context"
	"time"

	"github.com/m3rciful/postbot/internal/scheduler"
)

// Step is a position in the scheduling wizard.
type Step string

const (
	StepIdle               Step = "idle"
	StepAwaitingText       Step = "awaiting_text"
	StepAwaitingDate       Step = "awaiting_date"
	StepAwaitingTime       Step = "awaiting_time"
	StepAwaitingManualTime Step = "awaiting_manual_time"
)

// Conversation is the wizard state of one chat.
type Conversation struct {
	Step      Step
	DraftText string
	// SelectedDate is midnight of the chosen day in the configured location.
	SelectedDate time.Time
	// UserID started the wizard.
	UserID int64
}

// Button is a labelled inline button carrying an opaque payload.
type Button struct {
	Label string
	Data  string
}

// Keyboard is a grid of buttons, row by row.
type Keyboard [][]Button

// Messenger sends replies to a chat.
type Messenger interface {
	SendText(ctx context.Context, chatID int64, text string, kb Keyboard) error
}

// Directory answers whether a user may schedule and list posts.
type Directory interface {
	IsAuthorized(userID int64) bool
}

// Scheduler is the part of scheduler.Scheduler the wizard hands posts to.
type Scheduler interface {
	Schedule(ctx context.Context, text string, fireAt time.Time, originChat int64) (int64, error)
	List(originChat int64) []scheduler.Post
	Cancel(ctx context.Context, originChat, id int64) error
}

// Package journal records post outcomes for operators.
package journal

import (
	"context"
	"time"

	"github.com/m3rciful/postbot/internal/scheduler"
)

// Entry is one row of the delivery journal.
type Entry struct {
	ID         int64     `db:"id"`
	PostID     int64     `db:"post_id"`
	OriginChat int64     `db:"origin_chat"`
	Status     string    `db:"status"`
	FireAt     time.Time `db:"fire_at"`
	At         time.Time `db:"recorded_at"`
	LatenessMS int64     `db:"lateness_ms"`
	Preview    string    `db:"preview"`
	Error      string    `db:"error"`
}

// Store persists journal entries.
type Store interface {
	Insert(ctx context.Context, e Entry) error
	Recent(ctx context.Context, limit int) ([]Entry, error)
}

const previewRunes = 120

// EntryFrom converts a scheduler outcome into a journal entry.
func EntryFrom(o scheduler.Outcome) Entry {
	e := Entry{
		PostID:     o.Post.ID,
		OriginChat: o.Post.OriginChat,
		Status:     string(o.Status),
		FireAt:     o.Post.FireAt.UTC(),
		At:         o.At.UTC(),
		Preview:    truncate(o.Post.Text, previewRunes),
	}
	if o.Status == scheduler.StatusDelivered || o.Status == scheduler.StatusFailed {
		e.LatenessMS = o.Lateness().Milliseconds()
	}
	if o.Err != nil {
		e.Error = o.Err.Error()
	}
	return e
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

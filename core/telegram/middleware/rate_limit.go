package middleware

import (
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/m3rciful/postbot/core/logger"
	tghelpers "github.com/m3rciful/postbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// RateLimitOptions configures behaviour of the rate limit middleware.
type RateLimitOptions struct {
	// Interval is the steady-state spacing between updates of one user.
	Interval time.Duration
	// Burst allows short bursts above the steady rate; values < 1 mean 1.
	Burst     int
	Exclude   map[string]struct{}
	OnLimited tele.HandlerFunc
}

// RateLimitMiddleware returns a middleware that throttles updates per user with a token bucket.
func RateLimitMiddleware(opts RateLimitOptions) tele.MiddlewareFunc {
	burst := max(opts.Burst, 1)
	var (
		limiters   = make(map[int64]*rate.Limiter)
		limitersMu sync.Mutex
	)
	limiterFor := func(userID int64) *rate.Limiter {
		limitersMu.Lock()
		defer limitersMu.Unlock()
		l, ok := limiters[userID]
		if !ok {
			l = rate.NewLimiter(rate.Every(opts.Interval), burst)
			limiters[userID] = l
		}
		return l
	}

	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			userID := tghelpers.UserID(c)
			if userID == 0 || opts.Interval <= 0 {
				return next(c)
			}
			kind := UpdateKind(c)
			if _, skip := opts.Exclude[kind]; skip {
				return next(c)
			}

			if limiterFor(userID).Allow() {
				return next(c)
			}

			attrs := []slog.Attr{
				slog.String("status", "rate_limited"),
				slog.String("kind", kind),
				slog.Int64("user_id", userID),
			}
			if chatID := tghelpers.ChatID(c); chatID != 0 {
				attrs = append(attrs, slog.Int64("chat_id", chatID))
			}
			logger.LogEvent(logger.Background(), logger.TG, slog.LevelWarn, "tg.rate_limit", attrs...)
			if opts.OnLimited != nil {
				_ = opts.OnLimited(c)
			}
			return nil
		}
	}
}

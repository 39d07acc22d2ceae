package telegram

import (
	"strings"
	"time"

	coreconfig "github.com/m3rciful/postbot/core/config"
	"github.com/m3rciful/postbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// MiddlewareHooks lets bots observe the shared middleware chain.
type MiddlewareHooks struct {
	// OnLimited runs when an update is dropped by the rate limiter.
	OnLimited tele.HandlerFunc
	// OnUpdate receives the kind of every incoming update.
	OnUpdate func(kind string)
}

// DefaultMiddlewares builds the shared middleware chain for bots.
func DefaultMiddlewares(cfg *coreconfig.Config, hooks MiddlewareHooks) []Middleware {
	mws := []Middleware{
		{Name: "recover", Use: middleware.RecoverMiddleware},
	}
	if hooks.OnUpdate != nil {
		mws = append(mws, Middleware{Name: "updates", Use: middleware.UpdateMetricsMiddleware(hooks.OnUpdate)})
	}

	if cfg != nil {
		interval := time.Duration(cfg.RateLimit.IntervalMS) * time.Millisecond
		if interval > 0 {
			ex := make(map[string]struct{}, len(cfg.RateLimit.ExcludeUpdates))
			for _, t := range cfg.RateLimit.ExcludeUpdates {
				ex[strings.ToLower(t)] = struct{}{}
			}
			mws = append(mws, Middleware{
				Name: "rate_limit",
				Use: middleware.RateLimitMiddleware(middleware.RateLimitOptions{
					Interval:  interval,
					Burst:     cfg.RateLimit.Burst,
					Exclude:   ex,
					OnLimited: hooks.OnLimited,
				}),
			})
		}
	}

	mws = append(mws,
		Middleware{Name: "metrics", Use: middleware.MessageMetricsMiddleware},
		Middleware{Name: "logger", Use: middleware.LoggerMiddleware},
	)

	return mws
}

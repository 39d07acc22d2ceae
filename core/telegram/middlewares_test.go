package telegram

import (
	"testing"

	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/postbot/core/config"
)

func middlewareNames(mws []Middleware) []string {
	names := make([]string, 0, len(mws))
	for _, mw := range mws {
		names = append(names, mw.Name)
	}
	return names
}

func TestDefaultMiddlewaresWithoutRateLimit(t *testing.T) {
	mws := DefaultMiddlewares(&coreconfig.Config{}, MiddlewareHooks{})
	require.Equal(t, []string{"recover", "metrics", "logger"}, middlewareNames(mws))
}

func TestDefaultMiddlewaresWithRateLimitAndUpdates(t *testing.T) {
	cfg := &coreconfig.Config{RateLimit: coreconfig.RateLimitConfig{IntervalMS: 500, Burst: 3}}
	mws := DefaultMiddlewares(cfg, MiddlewareHooks{OnUpdate: func(string) {}})
	require.Equal(t, []string{"recover", "updates", "rate_limit", "metrics", "logger"}, middlewareNames(mws))
}

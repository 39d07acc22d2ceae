package bootstrap

import (
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/postbot/core/config"
	coredatabase "github.com/m3rciful/postbot/core/database"
)

func noopLogger(*coreconfig.Config) error { return nil }

func TestRunRequiresConfig(t *testing.T) {
	_, err := Run(Options{})
	require.Error(t, err)
}

func TestRunSkipsDatabaseWhenDisabled(t *testing.T) {
	called := false
	res, err := Run(Options{
		Config:     &coreconfig.Config{},
		LoggerInit: noopLogger,
		Connect: func(coredatabase.Config) (*sqlx.DB, error) {
			called = true
			return nil, nil
		},
	})
	require.NoError(t, err)
	require.False(t, called)
	require.Nil(t, res.DB)
	require.NoError(t, res.Close())
}

func TestRunPropagatesLoggerError(t *testing.T) {
	boom := errors.New("boom")
	_, err := Run(Options{
		Config:     &coreconfig.Config{},
		LoggerInit: func(*coreconfig.Config) error { return boom },
	})
	require.ErrorIs(t, err, boom)
}

func TestRunPropagatesConnectError(t *testing.T) {
	boom := errors.New("refused")
	_, err := Run(Options{
		Config:     &coreconfig.Config{},
		Database:   coredatabase.Config{Host: "db"},
		LoggerInit: noopLogger,
		Connect:    func(coredatabase.Config) (*sqlx.DB, error) { return nil, boom },
	})
	require.ErrorIs(t, err, boom)
}

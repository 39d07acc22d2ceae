package cmd

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveConfigPathPrecedence(t *testing.T) {
	t.Setenv("POSTBOT_CONFIG", "/etc/postbot/env.yaml")

	p, err := ResolveConfigPath(Options{ConfigPath: "flag.yaml", ConfigEnvVar: "POSTBOT_CONFIG", DefaultConfigPath: "config.yaml"})
	require.NoError(t, err)
	require.Equal(t, "flag.yaml", p)

	p, err = ResolveConfigPath(Options{ConfigEnvVar: "POSTBOT_CONFIG", DefaultConfigPath: "config.yaml"})
	require.NoError(t, err)
	require.Equal(t, "/etc/postbot/env.yaml", p)

	t.Setenv("POSTBOT_CONFIG", "")
	p, err = ResolveConfigPath(Options{ConfigEnvVar: "POSTBOT_CONFIG", DefaultConfigPath: "config.yaml"})
	require.NoError(t, err)
	require.Equal(t, "config.yaml", p)
}

func TestResolveConfigPathMissing(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	_, err := ResolveConfigPath(Options{})
	require.Error(t, err)
}

func TestRunRequiresHooks(t *testing.T) {
	require.Error(t, Run(Options{}))
}

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "postbot dev"))
}

func TestCheckConfigCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
telegram:
  token: "123:abc"
scheduler:
  channel: "@news"
  allowed_users: [1]
`), 0o600))

	out, err := execute(t, "check-config", "--config", path)
	require.NoError(t, err)
	require.Contains(t, out, "channel:       @news")
	require.Contains(t, out, "metrics:       disabled")
	require.Contains(t, out, "database:      false")
}

func TestCheckConfigReportsErrors(t *testing.T) {
	_, err := execute(t, "check-config", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorContains(t, err, "failed to read config file")
}

func TestMigrateRequiresDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("telegram:\n  token: x\nscheduler:\n  channel: \"-100\"\n"), 0o600))
	_, err := execute(t, "migrate", "-c", path)
	require.EqualError(t, err, "database is not configured")
}

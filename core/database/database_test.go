package database

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConfigEnabled(t *testing.T) {
	require.False(t, Config{}.Enabled())
	require.True(t, Config{Host: "db"}.Enabled())
}

func TestConfigURLEscapesCredentials(t *testing.T) {
	cfg := Config{Host: "db", Port: "5432", User: "bot", Password: "p@ss/word", Name: "posts"}
	require.Equal(t, "postgres://bot:p%40ss%2Fword@db:5432/posts?sslmode=disable", cfg.URL())
	require.Contains(t, cfg.DSN(), "sslmode=disable")
}

func TestSelectApplied(t *testing.T) {
	files := []string{"0001_post_events.up.sql", "0002_index.up.sql", "0003_more.up.sql"}
	require.Equal(t, []string{"0002_index.up.sql", "0003_more.up.sql"}, selectApplied(files, 1, 3))
	require.Empty(t, selectApplied(files, 3, 3))
}

func TestListMigrationFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"0002_b.up.sql", "0001_a.up.sql", "0001_a.down.sql", "README.md"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}
	require.Equal(t, []string{"0001_a.up.sql", "0002_b.up.sql"}, listMigrationFiles(dir))
}

func TestResolveMigrationsDirDefault(t *testing.T) {
	dir, err := resolveMigrationsDir("")
	require.NoError(t, err)
	require.Equal(t, defaultMigrationsDir, filepath.Base(dir))
}

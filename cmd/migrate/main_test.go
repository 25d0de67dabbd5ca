package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationFilesSorted(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"002_public.sql", "001_init.sql", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("SELECT 1;"), 0o600))
	}

	files, err := migrationFiles(dir)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "001_init", version(files[0]))
	assert.Equal(t, "002_public", version(files[1]))
}

func TestMigrationFilesEmptyDir(t *testing.T) {
	_, err := migrationFiles(t.TempDir())
	assert.Error(t, err)
}

func TestPendingSkipsApplied(t *testing.T) {
	files := []string{"m/001_init.sql", "m/002_public.sql", "m/003_geohash.sql"}
	got := pending(files, map[string]bool{"001_init": true, "003_geohash": true})
	assert.Equal(t, []string{"m/002_public.sql"}, got)
}

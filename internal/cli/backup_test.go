package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedSuffix() string { return "20240601-110000" }

func TestBackupCommand_CopiesNextToSources(t *testing.T) {
	dir := t.TempDir()
	configDir := filepath.Join(dir, "config")
	dataDir := filepath.Join(dir, "data")
	require.NoError(t, os.MkdirAll(configDir, 0755))
	require.NoError(t, os.MkdirAll(dataDir, 0755))

	categories := writeFile(t, configDir, "categories.yaml", "categories: []\n")
	domainMap := writeFile(t, configDir, "domain_map.yaml", "domains: []\n")
	db := writeFile(t, dataDir, "history.db", "sqlite bytes")
	old := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, os.Chtimes(db, old, old))

	cmd := &BackupCommand{globals: &GlobalFlags{}, now: fixedSuffix}
	sources := []backupSource{
		{Path: categories, Dir: backupDir(categories, "")},
		{Path: domainMap, Dir: backupDir(domainMap, "")},
		{Path: db, Dir: backupDir(db, "")},
	}

	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithSources(sources, nil))
	})

	dbCopy := filepath.Join(dataDir, "backups", "history.db.20240601-110000")
	assert.Contains(t, output, "[ok] "+db+" -> "+dbCopy)

	data, err := os.ReadFile(dbCopy)
	require.NoError(t, err)
	assert.Equal(t, "sqlite bytes", string(data))
	info, err := os.Stat(dbCopy)
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(old))

	for _, name := range []string{"categories.yaml", "domain_map.yaml"} {
		_, err := os.Stat(filepath.Join(configDir, "backups", name+".20240601-110000"))
		assert.NoError(t, err, name)
	}
}

func TestBackupCommand_DestAndMissingSources(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "all-backups")
	categories := writeFile(t, dir, "categories.yaml", "categories: []\n")
	missing := filepath.Join(dir, "domain_map.yaml")

	cmd := &BackupCommand{globals: &GlobalFlags{JSON: true}, now: fixedSuffix}
	sources := []backupSource{
		{Path: categories, Dir: backupDir(categories, dest)},
		{Path: missing, Dir: backupDir(missing, dest)},
	}

	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithSources(sources, nil))
	})
	assert.Contains(t, output, `"destination": "`+filepath.Join(dest, "categories.yaml.20240601-110000")+`"`)
	assert.NotContains(t, output, "domain_map.yaml")

	entries, err := os.ReadDir(dest)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestBackupCommand_NothingToBackUp(t *testing.T) {
	dir := t.TempDir()
	cmd := &BackupCommand{globals: &GlobalFlags{}, now: fixedSuffix}
	sources := []backupSource{{Path: filepath.Join(dir, "absent.db"), Dir: filepath.Join(dir, "backups")}}

	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithSources(sources, nil))
	})
	assert.Contains(t, output, "Nothing to back up.")

	_, err := os.Stat(filepath.Join(dir, "backups"))
	assert.True(t, os.IsNotExist(err))
}

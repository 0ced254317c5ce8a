package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "~/.local/share/historyview", cfg.Storage.Path)
	assert.Equal(t, "history.db", cfg.Storage.SQLiteFile)
	assert.Equal(t, "delete", cfg.Storage.SQLiteJournalMode)
	assert.Equal(t, "~/.config/historyview/categories.yaml", cfg.Taxonomy.CategoriesFile)
	assert.Equal(t, "~/.config/historyview/domain_map.yaml", cfg.Taxonomy.DomainMapFile)
	assert.False(t, cfg.Output.SkipSprites)
	assert.Empty(t, cfg.Output.SpriteDir)
	assert.Equal(t, "America/New_York", cfg.Aggregation.Timezone)
	assert.True(t, cfg.Ingest.UseDefaultBlocklist)
	assert.Equal(t, 100, cfg.Ingest.FeedbackInterval)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.NoError(t, cfg.Validate())
}

func TestDefaultBlocklistIsPopulated(t *testing.T) {
	domains := DefaultBlocklistDomains()
	assert.Greater(t, len(domains), 10)

	assert.Contains(t, domains, "chase.com")
	assert.Contains(t, domains, "1password.com")
	assert.Contains(t, domains, "mychart.com")
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadValidYAMLOverridesDefaults(t *testing.T) {
	cfgPath := writeConfig(t, `
storage:
  path: /data/history
aggregation:
  timezone: Europe/Berlin
output:
  skip_sprites: true
logging:
  level: debug
  format: json
`)

	cfg, err := Load(cfgPath)
	require.NoError(t, err)

	// Overridden values
	assert.Equal(t, "/data/history", cfg.Storage.Path)
	assert.Equal(t, "Europe/Berlin", cfg.Aggregation.Timezone)
	assert.True(t, cfg.Output.SkipSprites)
	assert.Equal(t, "debug", cfg.Logging.Level)

	// Non-overridden values remain defaults
	assert.Equal(t, "history.db", cfg.Storage.SQLiteFile)
	assert.Equal(t, 100, cfg.Ingest.FeedbackInterval)

	dbPath, err := cfg.DBPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/data/history", "history.db"), dbPath)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", loc.String())
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := map[string]string{
		"timezone": "aggregation:\n  timezone: Mars/Olympus_Mons\n",
		"level":    "logging:\n  level: loud\n",
		"format":   "logging:\n  format: xml\n",
		"feedback": "ingest:\n  feedback_interval: -1\n",
		"journal":  "storage:\n  sqlite_journal_mode: turbo\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, content))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalid), "got %v", err)
		})
	}
}

func TestLocationBlankUsesDefault(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Aggregation.Timezone = " "
	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, DefaultTimezone, loc.String())
}

func TestLoadInvalidYAMLReturnsError(t *testing.T) {
	_, err := Load(writeConfig(t, ":::not valid yaml{{{"))
	assert.Error(t, err)
}

func TestLoadNonExistentFileReturnsError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing", "config.yaml"))
	assert.Error(t, err)
}

func TestLoadOrCreateCreatesDefaultsWhenMissing(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "sub", "deep", "config.yaml")

	cfg, err := LoadOrCreateAt(cfgPath)
	require.NoError(t, err)

	// Should return defaults
	assert.Equal(t, "history.db", cfg.Storage.SQLiteFile)
	assert.Equal(t, DefaultTimezone, cfg.Aggregation.Timezone)

	// File should now exist on disk
	_, statErr := os.Stat(cfgPath)
	assert.NoError(t, statErr)

	// File should be valid YAML loadable again
	cfg2, err := Load(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, cfg, cfg2)
}

func TestLoadOrCreateLoadsExistingFile(t *testing.T) {
	cfg, err := LoadOrCreateAt(writeConfig(t, "output:\n  dir: /srv/site/data\n"))
	require.NoError(t, err)
	assert.Equal(t, "/srv/site/data", cfg.Output.Dir)
	// Other fields remain defaults
	assert.Equal(t, "~/.config/historyview/categories.yaml", cfg.Taxonomy.CategoriesFile)
}

func TestBlocklistMergesFileAndDefaults(t *testing.T) {
	dir := t.TempDir()
	listPath := filepath.Join(dir, "blocklist.yml")
	require.NoError(t, os.WriteFile(listPath, []byte("- private.test # mine\n"), 0644))

	cfg := DefaultConfig()
	cfg.Ingest.BlocklistFile = listPath

	block, err := cfg.Blocklist()
	require.NoError(t, err)
	assert.True(t, block.Blocks("private.test"))
	assert.True(t, block.Blocks("secure.chase.com"))
	assert.False(t, block.Blocks("example.com"))

	cfg.Ingest.UseDefaultBlocklist = false
	block, err = cfg.Blocklist()
	require.NoError(t, err)
	assert.False(t, block.Blocks("chase.com"))
	assert.True(t, block.Blocks("www.private.test"))
}

func TestBlocklistMissingFileIsEmpty(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Ingest.BlocklistFile = filepath.Join(t.TempDir(), "absent.yml")
	cfg.Ingest.UseDefaultBlocklist = false

	block, err := cfg.Blocklist()
	require.NoError(t, err)
	assert.Empty(t, block)
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := ExpandPath("~/data/history.db")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "data/history.db"), got)

	got, err = ExpandPath("/abs/path")
	require.NoError(t, err)
	assert.Equal(t, "/abs/path", got)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(LoggingConfig{Level: "warn", Format: "json"}, &buf)
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown", "domain", "example.com")
	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
	assert.Contains(t, out, `"domain":"example.com"`)

	buf.Reset()
	logger, err = NewLogger(LoggingConfig{Level: "debug"}, &buf)
	require.NoError(t, err)
	logger.Debug("details")
	assert.Contains(t, buf.String(), "msg=details")

	_, err = NewLogger(LoggingConfig{Level: "chatty"}, &buf)
	assert.Error(t, err)
}

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/runnerr0/historyview/internal/normalize"
	"github.com/runnerr0/historyview/internal/storage"
)

// Default config file path.
const DefaultConfigPath = "~/.config/historyview/config.yaml"

// ErrInvalid marks a config file whose values fail validation.
var ErrInvalid = errors.New("invalid config")

// Config holds all historyview configuration.
type Config struct {
	Storage     StorageConfig     `yaml:"storage"`
	Taxonomy    TaxonomyConfig    `yaml:"taxonomy"`
	Output      OutputConfig      `yaml:"output"`
	Aggregation AggregationConfig `yaml:"aggregation"`
	Ingest      IngestConfig      `yaml:"ingest"`
	Logging     LoggingConfig     `yaml:"logging"`
}

type StorageConfig struct {
	Path              string `yaml:"path"`
	SQLiteFile        string `yaml:"sqlite_file"`
	SQLiteJournalMode string `yaml:"sqlite_journal_mode"`
	BackupDir         string `yaml:"backup_dir"`
}

type TaxonomyConfig struct {
	CategoriesFile string `yaml:"categories_file"`
	DomainMapFile  string `yaml:"domain_map_file"`
}

type OutputConfig struct {
	Dir         string `yaml:"dir"`
	SpriteDir   string `yaml:"sprite_dir"`
	SkipSprites bool   `yaml:"skip_sprites"`
}

type AggregationConfig struct {
	Timezone string `yaml:"timezone"`
}

type IngestConfig struct {
	BlocklistFile       string `yaml:"blocklist_file"`
	UseDefaultBlocklist bool   `yaml:"use_default_blocklist"`
	FeedbackInterval    int    `yaml:"feedback_interval"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads a YAML config file at path, merges it with defaults and
// validates the result.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values that would otherwise fail deep inside a run.
func (c *Config) Validate() error {
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := parseLevel(c.Logging.Level); err != nil {
		return err
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: logging.format must be text or json, got %q", ErrInvalid, c.Logging.Format)
	}
	if c.Ingest.FeedbackInterval < 0 {
		return fmt.Errorf("%w: ingest.feedback_interval must not be negative", ErrInvalid)
	}
	if _, err := storage.CheckJournalMode(c.Storage.SQLiteJournalMode); err != nil {
		return fmt.Errorf("%w: storage.sqlite_journal_mode: %v", ErrInvalid, err)
	}
	return nil
}

// Location loads the configured aggregation timezone. Blank means
// DefaultTimezone.
func (c *Config) Location() (*time.Location, error) {
	name := strings.TrimSpace(c.Aggregation.Timezone)
	if name == "" {
		name = DefaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: aggregation.timezone %q: %v", ErrInvalid, name, err)
	}
	return loc, nil
}

// DBPath returns the expanded path of the history database.
func (c *Config) DBPath() (string, error) {
	dir, err := ExpandPath(c.Storage.Path)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, c.Storage.SQLiteFile), nil
}

// Blocklist loads the configured blocklist file and, when enabled, adds the
// built-in sensitive domains.
func (c *Config) Blocklist() (normalize.Blocklist, error) {
	block := normalize.Blocklist{}
	if c.Ingest.BlocklistFile != "" {
		path, err := ExpandPath(c.Ingest.BlocklistFile)
		if err != nil {
			return nil, err
		}
		block, err = normalize.LoadBlocklist(path)
		if err != nil {
			return nil, err
		}
	}
	if c.Ingest.UseDefaultBlocklist {
		for d := range normalize.NewBlocklist(DefaultBlocklistDomains()) {
			block[d] = struct{}{}
		}
	}
	return block, nil
}

// ExpandPath replaces a leading ~ with the user's home directory.
func ExpandPath(path string) (string, error) {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}

// LoadOrCreate loads the config from the default path. If the file does
// not exist, it creates the directory structure and writes defaults.
func LoadOrCreate() (*Config, error) {
	path, err := ExpandPath(DefaultConfigPath)
	if err != nil {
		return nil, err
	}
	return LoadOrCreateAt(path)
}

// LoadOrCreateAt loads the config from the given path. If the file does
// not exist, it creates the directory structure and writes defaults.
func LoadOrCreateAt(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := DefaultConfig()

		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating config directory: %w", err)
		}

		data, err := yaml.Marshal(cfg)
		if err != nil {
			return nil, fmt.Errorf("marshaling default config: %w", err)
		}

		if err := os.WriteFile(path, data, 0644); err != nil {
			return nil, fmt.Errorf("writing default config: %w", err)
		}

		return cfg, nil
	}

	return Load(path)
}

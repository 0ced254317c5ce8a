package config

import "github.com/runnerr0/historyview/internal/aggregate"

// DefaultTimezone is the zone visits are bucketed in unless configured.
const DefaultTimezone = aggregate.DefaultTimezone

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			Path:              "~/.local/share/historyview",
			SQLiteFile:        "history.db",
			SQLiteJournalMode: "delete",
			BackupDir:         "",
		},
		Taxonomy: TaxonomyConfig{
			CategoriesFile: "~/.config/historyview/categories.yaml",
			DomainMapFile:  "~/.config/historyview/domain_map.yaml",
		},
		Output: OutputConfig{
			Dir:         "~/.local/share/historyview/site/data",
			SpriteDir:   "",
			SkipSprites: false,
		},
		Aggregation: AggregationConfig{
			Timezone: DefaultTimezone,
		},
		Ingest: IngestConfig{
			BlocklistFile:       "~/.config/historyview/domain-blocklist.yml",
			UseDefaultBlocklist: true,
			FeedbackInterval:    100,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

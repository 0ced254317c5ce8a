package cli

// GlobalFlags holds flags available to all subcommands.
type GlobalFlags struct {
	Config  string `long:"config" description:"Path to config file" default:""`
	DB      string `long:"db" description:"Path to the history database (overrides config)"`
	JSON    bool   `long:"json" description:"Output in JSON format"`
	Verbose bool   `long:"verbose" description:"Enable verbose output"`
	Version bool   `long:"version" description:"Show version and exit"`
}

// InitCommand creates the history database schema.
type InitCommand struct {
	Force bool `long:"force" description:"Delete and recreate an existing database"`

	globals *GlobalFlags
	version string
}

// LoadEdgeCommand loads an Edge history export into the database.
type LoadEdgeCommand struct {
	DryRun    bool   `long:"dry-run" description:"Report what would be loaded without writing"`
	Limit     int    `long:"limit" description:"Only process the first N records" default:"0"`
	Blocklist string `long:"blocklist" description:"Domain blocklist file (overrides config)"`
	Quiet     bool   `long:"quiet" description:"Suppress progress dots"`

	Args struct {
		Input string `positional-arg-name:"export.json" required:"yes"`
	} `positional-args:"yes"`

	globals *GlobalFlags
	version string
}

// GenerateCommand writes the heatmap datasets and sprite sheets.
type GenerateCommand struct {
	Output      string `long:"output" description:"Output directory (overrides config)"`
	Categories  string `long:"categories" description:"Categories YAML (overrides config)"`
	DomainMap   string `long:"domain-map" description:"Domain override YAML (overrides config)"`
	SpriteDir   string `long:"sprite-dir" description:"Sprite directory (default: <output>/sprites)"`
	SkipSprites bool   `long:"skip-sprites" description:"Do not write sprite sheets"`
	Timezone    string `long:"timezone" description:"IANA zone used for day/hour buckets (overrides config)"`

	globals *GlobalFlags
	version string
}

// StatusCommand shows database statistics and configuration summary.
type StatusCommand struct {
	globals *GlobalFlags
	version string
}

// BackupCommand copies taxonomy files and the database to timestamped backups.
type BackupCommand struct {
	Dest string `long:"dest" description:"Put every backup in this directory instead of a backups/ folder next to each source"`

	globals *GlobalFlags
	version string
	now     func() string // injectable for testing; nil means the local time
}

// AddCommand manually records a single visit.
type AddCommand struct {
	URL   string `long:"url" description:"URL that was visited (required)"`
	Title string `long:"title" description:"Page title"`
	At    string `long:"at" description:"Visit time (epoch or date string, default now)"`

	globals *GlobalFlags
	version string
}

// AssignCommand sets a domain's categories in the domain map file.
type AssignCommand struct {
	Domain    string   `long:"domain" description:"Domain to categorise (required)"`
	Primary   string   `long:"primary" description:"Primary tag"`
	Clear     bool     `long:"clear-primary" description:"Mark the domain as deliberately uncategorised"`
	Secondary []string `long:"secondary" description:"Secondary tag (repeatable)"`
	DomainMap string   `long:"domain-map" description:"Domain override YAML (overrides config)"`

	globals *GlobalFlags
	version string
}

// ApplyMapCommand copies domain map assignments into the database.
type ApplyMapCommand struct {
	DomainMap string `long:"domain-map" description:"Domain override YAML (overrides config)"`
	DryRun    bool   `long:"dry-run" description:"Report what would change without writing"`

	globals *GlobalFlags
	version string
}

// IconCommand stores an icon file for a domain.
type IconCommand struct {
	Domain string `long:"domain" description:"Domain the icon belongs to (required)"`
	File   string `long:"file" description:"Icon file (required)"`
	Type   string `long:"type" description:"MIME type (default: detected from the file)"`

	globals *GlobalFlags
	version string
}

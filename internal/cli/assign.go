package cli

import (
	"fmt"

	"github.com/runnerr0/historyview/internal/normalize"
	"github.com/runnerr0/historyview/internal/taxonomy"
)

// Execute implements the go-flags Commander interface for AssignCommand.
func (c *AssignCommand) Execute(args []string) error {
	cfg, err := loadConfig(c.globals)
	if err != nil {
		return err
	}
	path, err := pathOr(c.DomainMap, cfg.Taxonomy.DomainMapFile)
	if err != nil {
		return err
	}
	return c.executeAt(path)
}

// update validates the flags and turns them into a single override.
func (c *AssignCommand) update() (taxonomy.DomainOverride, error) {
	domain := normalize.Host(c.Domain)
	if domain == "" {
		return taxonomy.DomainOverride{}, fmt.Errorf("--domain is required for assign command")
	}
	if c.Primary != "" && c.Clear {
		return taxonomy.DomainOverride{}, fmt.Errorf("--primary and --clear-primary are mutually exclusive")
	}

	o := taxonomy.DomainOverride{Domain: domain}
	switch {
	case c.Clear:
		o.PrimarySet = true
	case c.Primary != "":
		o.Primary = taxonomy.NormalizeTag(c.Primary)
		if o.Primary == "" {
			return o, fmt.Errorf("invalid primary tag %q", c.Primary)
		}
		o.PrimarySet = true
	}

	var secondary []string
	for _, raw := range c.Secondary {
		if tag := taxonomy.NormalizeTag(raw); tag != "" {
			secondary = append(secondary, tag)
		}
	}
	o.Secondary = normalize.MergeLists(nil, secondary)

	if !o.PrimarySet && len(o.Secondary) == 0 {
		return o, fmt.Errorf("nothing to assign: give --primary, --clear-primary or --secondary")
	}
	return o, nil
}

// executeAt merges the assignment into the domain map at path (used by tests).
func (c *AssignCommand) executeAt(path string) error {
	o, err := c.update()
	if err != nil {
		return err
	}
	if err := taxonomy.UpdateOverrides(path, taxonomy.Overrides{o.Domain: o}); err != nil {
		return err
	}

	if wantJSON(c.globals) {
		out := map[string]any{
			"domain":    o.Domain,
			"secondary": o.Secondary,
			"file":      path,
		}
		if o.PrimarySet {
			out["primary"] = o.Primary
		}
		return printJSON(out)
	}

	switch {
	case o.PrimarySet && o.Primary == "":
		fmt.Printf("%s: primary cleared", o.Domain)
	case o.PrimarySet:
		fmt.Printf("%s: primary %s", o.Domain, o.Primary)
	default:
		fmt.Printf("%s:", o.Domain)
	}
	if len(o.Secondary) > 0 {
		fmt.Printf(", secondary %v", o.Secondary)
	}
	fmt.Printf(" (%s)\n", path)
	return nil
}

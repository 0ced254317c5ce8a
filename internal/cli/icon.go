package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"

	"github.com/runnerr0/historyview/internal/normalize"
)

// iconSetter stores icon bytes for a domain.
type iconSetter interface {
	SetFavicon(ctx context.Context, domain, mimeType string, data []byte) error
}

// Execute implements the go-flags Commander interface for IconCommand.
func (c *IconCommand) Execute(args []string) error {
	if c.Domain == "" || c.File == "" {
		return fmt.Errorf("--domain and --file are required for icon command")
	}

	cfg, err := loadConfig(c.globals)
	if err != nil {
		return err
	}
	dbPath, err := resolveDBPath(c.globals, cfg)
	if err != nil {
		return err
	}

	store, db, err := openStore(dbPath, cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	defer store.Close()

	return c.executeWithSetter(context.Background(), store)
}

// executeWithSetter reads the icon file and stores it through s (used by tests).
func (c *IconCommand) executeWithSetter(ctx context.Context, s iconSetter) error {
	domain, err := normalize.ExtractDomain(c.Domain)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(c.File)
	if err != nil {
		return fmt.Errorf("reading icon file: %w", err)
	}
	if len(data) == 0 {
		return fmt.Errorf("icon file %s is empty", c.File)
	}

	mimeType := strings.TrimSpace(c.Type)
	if mimeType == "" {
		mimeType = mimetype.Detect(data).String()
		// Drop parameters such as "; charset=utf-8" on SVG detections.
		if i := strings.Index(mimeType, ";"); i >= 0 {
			mimeType = strings.TrimSpace(mimeType[:i])
		}
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return fmt.Errorf("%s is not an image (%s)", c.File, mimeType)
	}

	if err := s.SetFavicon(ctx, domain, mimeType, data); err != nil {
		return err
	}

	if wantJSON(c.globals) {
		return printJSON(map[string]any{
			"domain": domain,
			"type":   mimeType,
			"bytes":  len(data),
		})
	}
	fmt.Printf("Stored %s icon for %s (%s)\n", mimeType, domain, humanize.Bytes(uint64(len(data))))
	return nil
}

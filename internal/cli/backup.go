package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// BackupSuffixLayout is the timestamp appended to every backup file name.
const BackupSuffixLayout = "20060102-150405"

// backupSource is one file to copy and the directory its copy goes to.
type backupSource struct {
	Path string
	Dir  string
}

// backupResult reports one copied file.
type backupResult struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
}

// Execute implements the go-flags Commander interface for BackupCommand.
func (c *BackupCommand) Execute(args []string) error {
	cfg, err := loadConfig(c.globals)
	if err != nil {
		return err
	}
	dbPath, err := resolveDBPath(c.globals, cfg)
	if err != nil {
		return err
	}
	logger, err := newLogger(c.globals, cfg)
	if err != nil {
		return err
	}
	categories, err := pathOr("", cfg.Taxonomy.CategoriesFile)
	if err != nil {
		return err
	}
	domainMap, err := pathOr("", cfg.Taxonomy.DomainMapFile)
	if err != nil {
		return err
	}
	dest, err := pathOr(c.Dest, cfg.Storage.BackupDir)
	if err != nil {
		return err
	}

	sources := []backupSource{
		{Path: categories, Dir: backupDir(categories, dest)},
		{Path: domainMap, Dir: backupDir(domainMap, dest)},
		{Path: dbPath, Dir: backupDir(dbPath, dest)},
	}
	return c.executeWithSources(sources, logger)
}

// backupDir is dest when set, else a backups/ folder beside source.
func backupDir(source, dest string) string {
	if dest != "" {
		return dest
	}
	return filepath.Join(filepath.Dir(source), "backups")
}

// executeWithSources copies each source into its directory (used by tests).
func (c *BackupCommand) executeWithSources(sources []backupSource, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	suffix := time.Now().Format(BackupSuffixLayout)
	if c.now != nil {
		suffix = c.now()
	}

	results := []backupResult{}
	for _, src := range sources {
		dst, err := backupFile(src, suffix)
		if errors.Is(err, fs.ErrNotExist) {
			logger.Warn("missing backup source", "path", src.Path)
			continue
		}
		if err != nil {
			return err
		}
		results = append(results, backupResult{Source: src.Path, Destination: dst})
	}

	if wantJSON(c.globals) {
		return printJSON(results)
	}
	for _, r := range results {
		fmt.Printf("[ok] %s -> %s\n", r.Source, r.Destination)
	}
	if len(results) == 0 {
		fmt.Println("Nothing to back up.")
	}
	return nil
}

// backupFile copies src.Path to src.Dir/<name>.<suffix>, keeping the
// source's mode and modification time.
func backupFile(src backupSource, suffix string) (string, error) {
	info, err := os.Stat(src.Path)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", fmt.Errorf("backup source %s is a directory", src.Path)
	}

	in, err := os.Open(src.Path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", src.Path, err)
	}
	defer in.Close()

	if err := os.MkdirAll(src.Dir, 0755); err != nil {
		return "", fmt.Errorf("creating backup directory: %w", err)
	}
	dst := filepath.Join(src.Dir, filepath.Base(src.Path)+"."+suffix)

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return "", fmt.Errorf("copying %s: %w", src.Path, err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("closing %s: %w", dst, err)
	}
	if err := os.Chtimes(dst, info.ModTime(), info.ModTime()); err != nil {
		return "", fmt.Errorf("setting times on %s: %w", dst, err)
	}
	return dst, nil
}

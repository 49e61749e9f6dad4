package crawler

import (
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"aotbridge/internal/extractor"
)

// Crawler scans a directory for source files.
type Crawler struct {
	extractor *extractor.Extractor
	ignored   []string
	logger    *slog.Logger
}

// NewCrawler creates a new crawler instance.
func NewCrawler(ext *extractor.Extractor) *Crawler {
	return &Crawler{
		extractor: ext,
		ignored:   []string{".git", "bin", "obj", "node_modules", "testdata"},
		logger:    slog.Default(),
	}
}

// WithLogger replaces the logger used for skipped-file warnings.
func (c *Crawler) WithLogger(l *slog.Logger) *Crawler {
	if l != nil {
		c.logger = l
	}
	return c
}

// ScanProject walks the root directory and processes all relevant files.
// Files are visited in lexical path order so downstream output is deterministic.
// It uses a callback to stream CodeUnits, preventing large memory buildup.
func (c *Crawler) ScanProject(root string, onUnit func(*extractor.CodeUnit)) error {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if path == root {
				return nil
			}
			for _, ign := range c.ignored {
				if d.Name() == ign {
					return filepath.SkipDir
				}
			}
			return nil
		}

		if c.accepts(d.Name()) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return err
	}
	sort.Strings(files)

	for _, path := range files {
		units, err := c.extractor.ExtractFromFile(path)
		if err != nil {
			return err
		}
		c.logger.Debug("extracted source file", slog.String("file", path), slog.Int("units", len(units)))
		for _, unit := range units {
			onUnit(unit)
		}
	}
	return nil
}

func (c *Crawler) accepts(name string) bool {
	// Generated outputs of a previous run must not feed back into the scan.
	if strings.HasSuffix(name, ".g.cs") {
		return false
	}
	for _, ext := range c.extractor.FileExtensions() {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

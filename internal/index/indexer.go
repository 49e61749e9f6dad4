package index

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"aotbridge/internal/catalog"
	"aotbridge/internal/crawler"
	"aotbridge/internal/extractor"
)

// Indexer orchestrates source scanning and catalog persistence.
type Indexer struct {
	crawler *crawler.Crawler
}

// NewIndexer creates a new indexer.
func NewIndexer(c *crawler.Crawler) *Indexer {
	return &Indexer{
		crawler: c,
	}
}

// BuildCatalog scans the project root and returns the linked catalog.
func (i *Indexer) BuildCatalog(ctx context.Context, root string) (*catalog.Catalog, error) {
	c := catalog.New()

	var addErr error
	err := i.crawler.ScanProject(root, func(unit *extractor.CodeUnit) {
		if addErr != nil {
			return
		}
		addErr = c.AddUnit(unit)
	})
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}
	if addErr != nil {
		return nil, addErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Resolve base lists and parameter types after all units are loaded
	c.Link()

	return c, nil
}

// SaveManifest persists the catalog as a YAML manifest.
func (i *Indexer) SaveManifest(c *catalog.Catalog, path string) error {
	data, err := c.MarshalManifest()
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create manifest dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// LoadManifest loads a catalog from a manifest file.
func (i *Indexer) LoadManifest(path string) (*catalog.Catalog, error) {
	return catalog.LoadManifest(path)
}

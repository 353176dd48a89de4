package extract

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"ArxivDigest/internal/domain"
)

// Cache is the persisted mapping from document id to a previously produced
// extraction result. Entries are append-only across runs: an id present in
// the cache is never re-extracted, even when both of its fields are nil.
type Cache struct {
	path    string
	entries map[string]domain.ExtractionResult
	loaded  int
}

// LoadCache reads the cache artifact at path; a missing file yields an empty
// cache rather than an error.
func LoadCache(path string) (*Cache, error) {
	c := &Cache{path: path, entries: map[string]domain.ExtractionResult{}}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read extraction cache: %w", err)
	}

	if err := json.Unmarshal(raw, &c.entries); err != nil {
		return nil, fmt.Errorf("decode extraction cache %s: %w", path, err)
	}
	c.loaded = len(c.entries)
	return c, nil
}

// Has reports whether id was processed in this or any earlier run.
func (c *Cache) Has(id string) bool {
	_, ok := c.entries[id]
	return ok
}

// Put records a newly computed result. Results with both fields nil are
// recorded too, so genuinely sectionless documents are not reprocessed
// forever.
func (c *Cache) Put(id string, result domain.ExtractionResult) {
	c.entries[id] = result
}

// Len returns the total number of cached ids.
func (c *Cache) Len() int {
	return len(c.entries)
}

// LoadedLen returns how many entries existed before this run.
func (c *Cache) LoadedLen() int {
	return c.loaded
}

// Save persists the union of loaded and newly added entries.
func (c *Cache) Save() error {
	raw, err := json.MarshalIndent(c.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode extraction cache: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}

	if err := os.WriteFile(c.path, raw, 0o644); err != nil {
		return fmt.Errorf("write extraction cache %s: %w", c.path, err)
	}
	return nil
}

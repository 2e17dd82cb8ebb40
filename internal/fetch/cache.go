package fetch

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
)

// Cache stores fetched pages on disk, one file per URL, keyed by the
// SHA-1 of the URL under a per-scraper subdirectory.
type Cache struct {
	dir string
}

// NewCache roots a cache at dir/name. A nil cache is returned when
// dir is empty, which disables caching.
func NewCache(dir, name string) (*Cache, error) {
	if dir == "" {
		return nil, nil
	}
	root := filepath.Join(dir, name)
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("fetch: create cache dir: %w", err)
	}
	return &Cache{dir: root}, nil
}

func (c *Cache) path(url string) string {
	sum := sha1.Sum([]byte(url))
	return filepath.Join(c.dir, hex.EncodeToString(sum[:])+".html")
}

// Get returns the cached body for url, or ok=false on a miss.
func (c *Cache) Get(url string) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	b, err := os.ReadFile(c.path(url))
	if err != nil {
		return nil, false
	}
	return b, true
}

// Put writes the body for url. Failures are returned so the caller
// can log them; a failed write never fails the fetch.
func (c *Cache) Put(url string, body []byte) error {
	if c == nil {
		return nil
	}
	return os.WriteFile(c.path(url), body, 0o644)
}

// Clear removes every cached page for this scraper.
func (c *Cache) Clear() error {
	if c == nil {
		return nil
	}
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return fmt.Errorf("fetch: read cache dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, e.Name())); err != nil {
			return fmt.Errorf("fetch: clear cache: %w", err)
		}
	}
	return nil
}

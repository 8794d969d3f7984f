package dataset

import (
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/Veraticus/gradebook/internal/common"
	"github.com/twmb/murmur3"
)

// cacheKey identifies one version of a file on disk.
type cacheKey struct {
	modTime int64
	size    int64
}

type cacheEntry struct {
	table *Table
	key   cacheKey
	opts  LoadOptions
}

// Cache memoizes loaded tables by path. An entry is reused while the file's
// modification time and size are unchanged; any change triggers a reload.
type Cache struct {
	load    func(string, LoadOptions) (*Table, error)
	entries map[string]cacheEntry
	mu      sync.Mutex
}

// NewCache returns an empty cache that loads files with Load.
func NewCache() *Cache {
	return &Cache{
		load:    Load,
		entries: make(map[string]cacheEntry),
	}
}

// Get returns the table for path, loading it when the cached copy is stale or
// was read with different options.
func (c *Cache) Get(path string, opts LoadOptions) (*Table, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, common.NewIOError("stat dataset", path, err)
	}
	key := cacheKey{modTime: info.ModTime().UnixNano(), size: info.Size()}

	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.entries[path]; ok && entry.key == key && entry.opts == opts {
		return entry.table, nil
	}

	table, err := c.load(path, opts)
	if err != nil {
		return nil, err
	}
	c.entries[path] = cacheEntry{table: table, key: key, opts: opts}
	slog.Debug("Dataset cache refreshed", "path", path, "rows", table.Len())
	return table, nil
}

// Invalidate drops the cached table for path.
func (c *Cache) Invalidate(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, path)
}

// Len returns the number of cached tables.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Fingerprint returns a 64-bit murmur3 hash of the file content at path.
func Fingerprint(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, common.NewIOError("fingerprint dataset", path, err)
	}
	defer f.Close()

	hash := murmur3.New64()
	if _, err := io.Copy(hash, f); err != nil {
		return 0, common.NewIOError("fingerprint dataset", path, err)
	}
	return hash.Sum64(), nil
}

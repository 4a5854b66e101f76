package symbolindex

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	lru "github.com/hashicorp/golang-lru/v2"
)

// cachedFile is the on-disk representation of one file's indexed symbols,
// keyed by (root, relPath); ContentHash records the content the symbols
// were computed from, so a record survives content changes but is only
// served back when the hash still matches.
type cachedFile struct {
	Root        string    `json:"root"`
	RelPath     string    `json:"rel_path"`
	ContentHash string    `json:"content_hash"`
	Symbols     []*Symbol `json:"symbols"`
}

// Cache is a two-tier (project root, relative path)-keyed cache: an
// in-memory bounded LRU in front of a JSON file on disk, one file per
// path, under dir. A record is only returned by Get when its stored
// content hash matches the caller's current hash; otherwise the caller
// should recompute and Put a fresh one.
type Cache struct {
	dir string
	lru *lru.Cache[string, cachedFile]
}

// NewCache constructs a Cache rooted at dir, holding up to capacity entries
// in memory before falling back to disk.
func NewCache(dir string, capacity int) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("symbolindex.NewCache: %w", err)
	}
	l, err := lru.New[string, cachedFile](capacity)
	if err != nil {
		return nil, fmt.Errorf("symbolindex.NewCache: %w", err)
	}
	return &Cache{dir: dir, lru: l}, nil
}

// HashContent computes the staleness key for a file's current content.
func HashContent(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// pathKey derives the cache's on-disk/LRU key from (root, relPath).
func pathKey(root, relPath string) string {
	sum := sha256.Sum256([]byte(root + "\x00" + relPath))
	return hex.EncodeToString(sum[:])
}

// Get returns the cached symbols for (root, relPath), checking the
// in-memory LRU before falling back to disk. ok is false both when no
// record exists and when one exists but its stored hash no longer
// matches contentHash (the file changed since it was cached).
func (c *Cache) Get(root, relPath, contentHash string) (symbols []*Symbol, ok bool) {
	key := pathKey(root, relPath)

	entry, found := c.lru.Get(key)
	if !found {
		data, err := os.ReadFile(c.path(key))
		if err != nil {
			return nil, false
		}
		if err := json.Unmarshal(data, &entry); err != nil {
			return nil, false
		}
		c.lru.Add(key, entry)
		found = true
	}
	if !found || entry.ContentHash != contentHash {
		return nil, false
	}
	return entry.Symbols, true
}

// Put stores symbols for (root, relPath) under contentHash in both tiers.
func (c *Cache) Put(root, relPath, contentHash string, symbols []*Symbol) error {
	key := pathKey(root, relPath)
	entry := cachedFile{Root: root, RelPath: relPath, ContentHash: contentHash, Symbols: symbols}
	c.lru.Add(key, entry)

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("symbolindex.Cache.Put: marshal: %w", err)
	}
	if err := os.WriteFile(c.path(key), data, 0o644); err != nil {
		return fmt.Errorf("symbolindex.Cache.Put: write: %w", err)
	}
	return nil
}

// Invalidate drops every cached record for (root, relPath) from both
// tiers, used on file-watch remove/rename events and stale writes.
func (c *Cache) Invalidate(root, relPath string) {
	key := pathKey(root, relPath)
	c.lru.Remove(key)
	_ = os.Remove(c.path(key))
}

func (c *Cache) path(key string) string {
	return filepath.Join(c.dir, key+".json")
}

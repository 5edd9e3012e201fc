package grammar

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// cacheEntry pairs a parsed tree with the content hash it was parsed from,
// so a cache hit can be invalidated the moment the file changes underneath
// it without needing a separate mtime watch.
type cacheEntry struct {
	hash string
	tree *Element
}

// Cache is a process-wide, bounded store of parsed element trees keyed by
// absolute file path. Callers create it lazily with NewCache; it tolerates
// being asked about paths it has never seen and can be purged and reused
// without reinitializing the whole process.
type Cache struct {
	lru *lru.Cache[string, cacheEntry]
}

// NewCache builds a Cache holding at most size parsed trees, evicting least
// recently used entries once full.
func NewCache(size int) (*Cache, error) {
	if size <= 0 {
		size = 512
	}
	c, err := lru.New[string, cacheEntry](size)
	if err != nil {
		return nil, err
	}
	return &Cache{lru: c}, nil
}

// ParseCached returns the cached tree for path if its content hash still
// matches, otherwise it mmaps and reparses the file and stores the result.
func (c *Cache) ParseCached(path string) (*Element, error) {
	content, hash, err := ReadSource(path)
	if err != nil {
		return nil, err
	}
	if entry, ok := c.lru.Get(path); ok && entry.hash == hash {
		return entry.tree, nil
	}
	tree, err := Parse(content)
	if err != nil {
		return nil, err
	}
	c.lru.Add(path, cacheEntry{hash: hash, tree: tree})
	return tree, nil
}

// Purge evicts every cached entry, used when the caller wants a clean
// reinitialization without allocating a new Cache.
func (c *Cache) Purge() {
	c.lru.Purge()
}

// Len reports how many trees are currently cached.
func (c *Cache) Len() int {
	return c.lru.Len()
}

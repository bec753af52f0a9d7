// Package pathcache remembers the remote object last seen at each
// path so that paths can be turned into Drive IDs without a lookup.
//
// Drive addresses everything by ID. The cache is filled as a side
// effect of listings, searches and creations and is the only way a
// path is resolved: a path which was never seen is an error, not a
// cue to walk the tree.
package pathcache

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/TheHighestBit/CoDriver/fs"
	cache "github.com/patrickmn/go-cache"
)

// Cache maps paths to objects and object IDs back to paths
type Cache struct {
	mu       sync.RWMutex
	items    *cache.Cache      // path -> *fs.Object
	invCache map[string]string // ID -> path
	rootPath string
	root     *fs.Object
	ttl      time.Duration
}

// New makes a Cache seeded with root at rootPath.
//
// If ttl is non zero entries other than the root are forgotten ttl
// after they were last put.
func New(rootPath string, root *fs.Object, ttl time.Duration) *Cache {
	c := &Cache{
		rootPath: rootPath,
		root:     root.Clone(),
		ttl:      ttl,
	}
	c.ResetRoot()
	return c
}

// expiry returns the go-cache lifetime for an entry
func (c *Cache) expiry() time.Duration {
	if c.ttl <= 0 {
		return cache.NoExpiration
	}
	return c.ttl
}

// _put a path, object into the cache without lock
func (c *Cache) _put(path string, o *fs.Object, d time.Duration) {
	if old, ok := c._get(path); ok && old.ID != o.ID {
		if c.invCache[old.ID] == path {
			delete(c.invCache, old.ID)
		}
	}
	c.items.Set(path, o.Clone(), d)
	c.invCache[o.ID] = path
}

// _get the object at path without lock
func (c *Cache) _get(path string) (*fs.Object, bool) {
	v, ok := c.items.Get(path)
	if !ok {
		return nil, false
	}
	return v.(*fs.Object), true
}

// _delete path without lock
func (c *Cache) _delete(path string) {
	if old, ok := c._get(path); ok && c.invCache[old.ID] == path {
		delete(c.invCache, old.ID)
	}
	c.items.Delete(path)
}

// Put records that o is at path, replacing anything that was there
func (c *Cache) Put(path string, o *fs.Object) {
	path = fs.CleanPath(path)
	c.mu.Lock()
	defer c.mu.Unlock()
	if path == c.rootPath {
		return
	}
	c._put(path, o, c.expiry())
}

// Get returns a copy of the object at path
func (c *Cache) Get(path string) (*fs.Object, bool) {
	path = fs.CleanPath(path)
	c.mu.RLock()
	defer c.mu.RUnlock()
	o, ok := c._get(path)
	if !ok {
		return nil, false
	}
	return o.Clone(), true
}

// Resolve returns the object at path or a not cached error naming op
func (c *Cache) Resolve(op, path string) (*fs.Object, error) {
	o, ok := c.Get(path)
	if !ok {
		return nil, fs.NotCachedError(op, fs.CleanPath(path))
	}
	return o, nil
}

// GetInv returns the path the object with id was last put at
func (c *Cache) GetInv(id string) (path string, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	path, ok = c.invCache[id]
	if !ok {
		return "", false
	}
	// the forward entry may have expired
	if o, found := c._get(path); !found || o.ID != id {
		return "", false
	}
	return path, true
}

// Invalidate forgets the entry at path. The root can't be forgotten.
func (c *Cache) Invalidate(path string) {
	path = fs.CleanPath(path)
	c.mu.Lock()
	defer c.mu.Unlock()
	if path == c.rootPath {
		return
	}
	c._delete(path)
}

// InvalidateSubtree forgets path and everything below it. Called on
// the root it forgets everything but the root.
func (c *Cache) InvalidateSubtree(path string) {
	path = fs.CleanPath(path)
	c.mu.Lock()
	defer c.mu.Unlock()
	prefix := path + "/"
	for p := range c.items.Items() {
		if p == c.rootPath {
			continue
		}
		if p == path || strings.HasPrefix(p, prefix) {
			c._delete(p)
		}
	}
}

// ResetRoot drops everything and puts back the root
func (c *Cache) ResetRoot() {
	c.mu.Lock()
	defer c.mu.Unlock()
	cleanup := time.Duration(0)
	if c.ttl > 0 {
		cleanup = 2 * c.ttl
	}
	c.items = cache.New(cache.NoExpiration, cleanup)
	c.invCache = make(map[string]string)
	c._put(c.rootPath, c.root, cache.NoExpiration)
}

// Len returns the number of live entries including the root
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items.Items())
}

// Paths returns the cached paths in sorted order
func (c *Cache) Paths() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	items := c.items.Items()
	paths := make([]string, 0, len(items))
	for p := range items {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

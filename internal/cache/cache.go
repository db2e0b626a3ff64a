// Package cache keeps search results and metadata for a short while so that
// repeated lookups do not re-run the engine.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"vidsnag/internal/util"
)

// Kinds of cached values.
const (
	KindSearch = "search"
	KindInfo   = "info"
)

const fileVersion = 1

// Cache is a TTL map of JSON-encoded values, optionally backed by a file.
type Cache struct {
	mu      sync.RWMutex
	path    string
	ttl     time.Duration
	now     func() time.Time
	entries map[string]entry
	dirty   bool
}

type entry struct {
	Value   json.RawMessage `json:"value"`
	Expires time.Time       `json:"expires"`
}

type fileData struct {
	Version int              `json:"version"`
	Entries map[string]entry `json:"entries"`
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// WithFile persists the cache to path on Save and reads it on Load.
func WithFile(path string) Option {
	return func(c *Cache) {
		c.path = path
	}
}

// New returns a cache whose entries live for ttl. ttl <= 0 disables it.
func New(ttl time.Duration, opts ...Option) *Cache {
	c := &Cache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]entry),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Enabled reports whether the cache stores anything.
func (c *Cache) Enabled() bool {
	return c != nil && c.ttl > 0
}

// SearchKey normalises a search query for use as a key.
func SearchKey(query string, limit int) string {
	q := strings.Join(strings.Fields(strings.ToLower(query)), " ")
	return fmt.Sprintf("%s#%d", q, limit)
}

func key(kind, k string) string {
	return kind + ":" + k
}

// Get decodes the live value for (kind, k) into out.
func (c *Cache) Get(kind, k string, out any) bool {
	if !c.Enabled() {
		return false
	}
	c.mu.RLock()
	e, ok := c.entries[key(kind, k)]
	c.mu.RUnlock()
	if !ok || !c.now().Before(e.Expires) {
		return false
	}
	return json.Unmarshal(e.Value, out) == nil
}

// Put stores v under (kind, k).
func (c *Cache) Put(kind, k string, v any) error {
	if !c.Enabled() {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode cache value: %w", err)
	}
	c.mu.Lock()
	c.entries[key(kind, k)] = entry{Value: raw, Expires: c.now().Add(c.ttl)}
	c.dirty = true
	c.mu.Unlock()
	return nil
}

// Len returns the number of live entries.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	now := c.now()
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	for _, e := range c.entries {
		if now.Before(e.Expires) {
			n++
		}
	}
	return n
}

// Purge drops every entry and removes the backing file.
func (c *Cache) Purge() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	c.entries = make(map[string]entry)
	c.dirty = false
	c.mu.Unlock()
	if c.path == "" {
		return nil
	}
	if err := os.Remove(c.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove cache file: %w", err)
	}
	return nil
}

// Load merges live entries from the backing file. A missing or unreadable
// file leaves the cache empty.
func (c *Cache) Load() error {
	if !c.Enabled() || c.path == "" {
		return nil
	}
	data, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read cache: %w", err)
	}
	var fd fileData
	if err := json.Unmarshal(data, &fd); err != nil || fd.Version != fileVersion {
		// Stale format; it is rewritten on the next Save.
		return nil
	}
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, e := range fd.Entries {
		if now.Before(e.Expires) {
			c.entries[k] = e
		}
	}
	return nil
}

// Save writes live entries to the backing file via temp file + rename.
func (c *Cache) Save() error {
	if !c.Enabled() || c.path == "" {
		return nil
	}
	now := c.now()
	c.mu.Lock()
	if !c.dirty {
		c.mu.Unlock()
		return nil
	}
	fd := fileData{Version: fileVersion, Entries: make(map[string]entry, len(c.entries))}
	for k, e := range c.entries {
		if now.Before(e.Expires) {
			fd.Entries[k] = e
		} else {
			delete(c.entries, k)
		}
	}
	c.dirty = false
	c.mu.Unlock()

	data, err := json.Marshal(fd)
	if err == nil {
		err = util.WriteFileAtomic(c.path, data)
	}
	if err != nil {
		// Keep the entries pending for the next Save.
		c.mu.Lock()
		c.dirty = true
		c.mu.Unlock()
		return fmt.Errorf("save cache: %w", err)
	}
	return nil
}

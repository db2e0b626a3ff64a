package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

type hit struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

func TestGetPutExpiry(t *testing.T) {
	clk := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := New(time.Minute, WithClock(clk.now))

	if err := c.Put(KindSearch, "q", []hit{{ID: "a", Title: "A"}}); err != nil {
		t.Fatal(err)
	}
	var got []hit
	if !c.Get(KindSearch, "q", &got) || len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("Get() = %v", got)
	}
	if c.Get(KindInfo, "q", &got) {
		t.Error("kinds should not share keys")
	}

	clk.advance(59 * time.Second)
	if !c.Get(KindSearch, "q", &got) {
		t.Error("entry expired too early")
	}
	clk.advance(time.Second)
	if c.Get(KindSearch, "q", &got) {
		t.Error("entry should expire after ttl")
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0", c.Len())
	}
}

func TestDisabled(t *testing.T) {
	c := New(0)
	if c.Enabled() {
		t.Fatal("ttl 0 should disable the cache")
	}
	_ = c.Put(KindInfo, "u", hit{ID: "x"})
	var h hit
	if c.Get(KindInfo, "u", &h) {
		t.Error("disabled cache returned a value")
	}
	var nilCache *Cache
	if nilCache.Get(KindInfo, "u", &h) || nilCache.Len() != 0 {
		t.Error("nil cache should behave as empty")
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "cache.json")
	clk := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}

	c := New(time.Hour, WithClock(clk.now), WithFile(path))
	_ = c.Put(KindInfo, "https://www.youtube.com/watch?v=a", hit{ID: "a"})
	clk.advance(30 * time.Minute)
	_ = c.Put(KindInfo, "https://www.youtube.com/watch?v=b", hit{ID: "b"})
	if err := c.Save(); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	clk.advance(45 * time.Minute) // a expired, b alive
	loaded := New(time.Hour, WithClock(clk.now), WithFile(path))
	if err := loaded.Load(); err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	var h hit
	if loaded.Get(KindInfo, "https://www.youtube.com/watch?v=a", &h) {
		t.Error("expired entry survived reload")
	}
	if !loaded.Get(KindInfo, "https://www.youtube.com/watch?v=b", &h) || h.ID != "b" {
		t.Errorf("live entry lost on reload: %+v", h)
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %d entries", len(entries))
	}
}

func TestSaveFailureKeepsEntriesPending(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	c := New(time.Hour, WithFile(filepath.Join(blocker, "cache.json")))
	_ = c.Put(KindSearch, "q#10", hit{ID: "a"})
	if err := c.Save(); err == nil {
		t.Fatal("Save() under a regular file should fail")
	}

	good := filepath.Join(dir, "cache.json")
	c.path = good
	if err := c.Save(); err != nil {
		t.Fatalf("retry Save() error: %v", err)
	}
	loaded := New(time.Hour, WithFile(good))
	if err := loaded.Load(); err != nil {
		t.Fatal(err)
	}
	var h hit
	if !loaded.Get(KindSearch, "q#10", &h) || h.ID != "a" {
		t.Errorf("entry lost after a failed Save: %+v", h)
	}
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	c := New(time.Hour, WithFile(path))
	if err := c.Load(); err != nil {
		t.Fatalf("Load() on corrupt file should not fail: %v", err)
	}
	if c.Len() != 0 {
		t.Error("corrupt file produced entries")
	}
}

func TestPurge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	c := New(time.Hour, WithFile(path))
	_ = c.Put(KindSearch, "x", hit{})
	if err := c.Save(); err != nil {
		t.Fatal(err)
	}
	if err := c.Purge(); err != nil {
		t.Fatalf("Purge() error: %v", err)
	}
	if c.Len() != 0 {
		t.Error("Purge() left entries")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("Purge() left the cache file")
	}
	if err := c.Purge(); err != nil {
		t.Errorf("second Purge() error: %v", err)
	}
}

func TestSearchKey(t *testing.T) {
	if SearchKey("  LoFi   Beats ", 10) != SearchKey("lofi beats", 10) {
		t.Error("equivalent queries should share a key")
	}
	if SearchKey("lofi", 5) == SearchKey("lofi", 10) {
		t.Error("limit should be part of the key")
	}
}

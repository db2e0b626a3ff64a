package history

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"vidsnag/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := Open(filepath.Join(t.TempDir(), "state", "history.json"))
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	n := 0
	s.now = func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Minute)
	}
	return s
}

func TestAddAndList(t *testing.T) {
	s := newTestStore(t)

	first, err := s.Add(Entry{VideoID: "a", Title: "First", Kind: model.KindVideo})
	if err != nil {
		t.Fatalf("Add() error: %v", err)
	}
	if first.ID == "" || first.CreatedAt.IsZero() {
		t.Errorf("Add() did not fill ID/CreatedAt: %+v", first)
	}
	if _, err := s.Add(Entry{VideoID: "b", Title: "Second", Kind: model.KindAudio}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Add(Entry{VideoID: "c", Title: "Third", Kind: model.KindVideo}); err != nil {
		t.Fatal(err)
	}

	all, err := s.List(0)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(all) != 3 || all[0].VideoID != "c" || all[2].VideoID != "a" {
		t.Errorf("List(0) order = %v", videoIDs(all))
	}

	two, _ := s.List(2)
	if len(two) != 2 || two[0].VideoID != "c" {
		t.Errorf("List(2) = %v", videoIDs(two))
	}

	// A second store on the same file sees the same data.
	other := Open(s.Path())
	again, err := other.List(0)
	if err != nil || len(again) != 3 {
		t.Errorf("reopened List() = %d entries, err %v", len(again), err)
	}
}

func TestListMissingFile(t *testing.T) {
	s := newTestStore(t)
	got, err := s.List(10)
	if err != nil || len(got) != 0 {
		t.Errorf("List() on new store = %v, %v", got, err)
	}
}

func TestFindByVideo(t *testing.T) {
	s := newTestStore(t)
	dir := t.TempDir()
	kept := filepath.Join(dir, "kept.mp4")
	if err := os.WriteFile(kept, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, _ = s.Add(Entry{VideoID: "v", Kind: model.KindVideo, Quality: "720p", Path: kept})
	_, _ = s.Add(Entry{VideoID: "v", Kind: model.KindVideo, Quality: "720p", Path: filepath.Join(dir, "deleted.mp4")})
	_, _ = s.Add(Entry{VideoID: "v", Kind: model.KindAudio, Quality: model.QualityAudio, Path: kept})

	e, ok, err := s.FindByVideo("v", model.KindVideo, "720p")
	if err != nil || !ok {
		t.Fatalf("FindByVideo() = %v, %v", ok, err)
	}
	if e.Path != kept {
		t.Errorf("FindByVideo() should skip missing files, got %q", e.Path)
	}
	if _, ok, _ := s.FindByVideo("other", model.KindVideo, "720p"); ok {
		t.Error("FindByVideo() matched an unknown video")
	}
}

func TestFindByVideoMatchesQuality(t *testing.T) {
	s := newTestStore(t)
	dir := t.TempDir()
	hd := filepath.Join(dir, "hd.mp4")
	sd := filepath.Join(dir, "sd.mp4")
	for _, p := range []string{hd, sd} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	_, _ = s.Add(Entry{VideoID: "v", Kind: model.KindVideo, Quality: "720p", Path: hd})
	_, _ = s.Add(Entry{VideoID: "v", Kind: model.KindVideo, Quality: "360p", Path: sd})

	e, ok, err := s.FindByVideo("v", model.KindVideo, "720p")
	if err != nil || !ok {
		t.Fatalf("FindByVideo(720p) = %v, %v", ok, err)
	}
	if e.Path != hd {
		t.Errorf("a newer 360p entry hid the 720p file: got %q", e.Path)
	}
	if _, ok, _ := s.FindByVideo("v", model.KindVideo, "1080p"); ok {
		t.Error("FindByVideo(1080p) matched another quality")
	}
}

func TestClear(t *testing.T) {
	s := newTestStore(t)
	_, _ = s.Add(Entry{VideoID: "a"})
	if err := s.Clear(); err != nil {
		t.Fatalf("Clear() error: %v", err)
	}
	got, _ := s.List(0)
	if len(got) != 0 {
		t.Errorf("List() after Clear() = %d entries", len(got))
	}
}

func TestCorruptFile(t *testing.T) {
	s := newTestStore(t)
	if err := os.MkdirAll(filepath.Dir(s.Path()), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(s.Path(), []byte("{{{"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := s.List(0)
	if !errors.Is(err, ErrCorrupt) {
		t.Errorf("List() error = %v, want ErrCorrupt", err)
	}
}

func TestConcurrentAdds(t *testing.T) {
	s := Open(filepath.Join(t.TempDir(), "history.json"))
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Add(Entry{VideoID: "x"}); err != nil {
				t.Errorf("Add() error: %v", err)
			}
		}()
	}
	wg.Wait()
	got, _ := s.List(0)
	if len(got) != 10 {
		t.Errorf("List() = %d entries, want 10", len(got))
	}
}

func TestLockTimeout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	holder := newFileLock(path)
	if err := holder.lock(time.Second); err != nil {
		t.Fatal(err)
	}
	defer holder.unlock()

	contender := newFileLock(path)
	if err := contender.lock(30 * time.Millisecond); !errors.Is(err, ErrLockTimeout) {
		t.Errorf("lock() error = %v, want ErrLockTimeout", err)
	}
}

func videoIDs(es []Entry) []string {
	out := make([]string, len(es))
	for i, e := range es {
		out[i] = e.VideoID
	}
	return out
}

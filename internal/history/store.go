// Package history records finished downloads in a JSON file.
package history

import (
	"encoding/json"
	"errors"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"vidsnag/internal/model"
	"vidsnag/internal/util"
)

const (
	schemaVersion = 1
	lockTimeout   = 5 * time.Second
)

// Entry is one completed download.
type Entry struct {
	ID        string          `json:"id"`
	VideoID   string          `json:"video_id"`
	Title     string          `json:"title"`
	URL       string          `json:"url"`
	Kind      model.MediaKind `json:"kind"`
	Quality   model.Quality   `json:"quality"`
	Path      string          `json:"path"`
	Bytes     int64           `json:"bytes"`
	CreatedAt time.Time       `json:"created_at"`
}

type document struct {
	Version   int       `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
	Entries   []Entry   `json:"entries"`
}

// Store reads and writes the history file. Every operation takes the file
// lock and re-reads the document, so several processes can share one file.
type Store struct {
	path string
	lock *fileLock
	mu   sync.Mutex
	now  func() time.Time
}

// Open returns a store for path. The file is created on first write.
func Open(path string) *Store {
	return &Store{path: path, lock: newFileLock(path), now: time.Now}
}

// Path returns the history file location.
func (s *Store) Path() string {
	return s.path
}

// Add appends e, filling in ID and CreatedAt when empty.
func (s *Store) Add(e Entry) (Entry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now()
	}
	err := s.update(func(doc *document) {
		doc.Entries = append(doc.Entries, e)
	})
	return e, err
}

// List returns up to limit entries, newest first. limit <= 0 returns all.
func (s *Store) List(limit int) ([]Entry, error) {
	var out []Entry
	err := s.view(func(doc *document) {
		out = make([]Entry, len(doc.Entries))
		copy(out, doc.Entries)
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// FindByVideo returns the newest entry for videoID, kind and quality whose
// file still exists on disk.
func (s *Store) FindByVideo(videoID string, kind model.MediaKind, q model.Quality) (Entry, bool, error) {
	entries, err := s.List(0)
	if err != nil {
		return Entry{}, false, err
	}
	for _, e := range entries {
		if e.VideoID != videoID || e.Kind != kind || e.Quality != q {
			continue
		}
		if _, err := os.Stat(e.Path); err == nil {
			return e, true, nil
		}
	}
	return Entry{}, false, nil
}

// Clear removes every entry.
func (s *Store) Clear() error {
	return s.update(func(doc *document) {
		doc.Entries = nil
	})
}

func (s *Store) view(fn func(*document)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.lock.lock(lockTimeout); err != nil {
		return err
	}
	defer s.lock.unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	fn(doc)
	return nil
}

func (s *Store) update(fn func(*document)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.lock.lock(lockTimeout); err != nil {
		return err
	}
	defer s.lock.unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	fn(doc)
	return s.save(doc)
}

func (s *Store) load() (*document, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &document{Version: schemaVersion}, nil
		}
		return nil, &StoreError{Op: "read", Err: err}
	}
	doc := &document{}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, &StoreError{Op: "read", Err: ErrCorrupt}
	}
	return doc, nil
}

func (s *Store) save(doc *document) error {
	doc.Version = schemaVersion
	doc.UpdatedAt = s.now()

	w, err := util.NewAtomicWriter(s.path)
	if err != nil {
		return &StoreError{Op: "write", Err: err}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		w.Abort()
		return &StoreError{Op: "write", Err: err}
	}
	if err := w.Commit(); err != nil {
		return &StoreError{Op: "write", Err: err}
	}
	return nil
}

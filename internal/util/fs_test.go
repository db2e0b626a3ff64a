package util

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "", want: "untitled"},
		{in: "AC/DC: Back in Black", want: "AC_DC_ Back in Black"},
		{in: "  many   spaces  ", want: "many spaces"},
		{in: "what?*<>|", want: "what"},
		{in: "...", want: "untitled"},
		{in: "Café ☕ mix", want: "Café ☕ mix"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := SanitizeFilename(tt.in); got != tt.want {
				t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}

	long := strings.Repeat("é", 500)
	if got := SanitizeFilename(long); len([]rune(got)) != 180 {
		t.Errorf("long name truncated to %d runes, want 180", len([]rune(got)))
	}
}

func TestUniquePath(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "song.mp3")
	got, err := UniquePath(p)
	if err != nil || got != p {
		t.Fatalf("UniquePath on free path = %q, %v; want %q", got, err, p)
	}
	if _, err := os.Stat(p); err != nil {
		t.Fatalf("UniquePath did not reserve %q: %v", p, err)
	}
	want1 := filepath.Join(dir, "song (1).mp3")
	if got, err := UniquePath(p); err != nil || got != want1 {
		t.Fatalf("UniquePath = %q, %v; want %q", got, err, want1)
	}
	if got, err := UniquePath(p); err != nil || got != filepath.Join(dir, "song (2).mp3") {
		t.Errorf("UniquePath second collision = %q, %v", got, err)
	}
}

func TestUniquePathReportsErrors(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "plain")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	// A path below a regular file fails with ENOTDIR rather than ErrExist.
	if got, err := UniquePath(filepath.Join(file, "song.mp3")); err == nil {
		t.Errorf("UniquePath under a file = %q, want error", got)
	}
}

func TestMoveUniqueParallel(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "out", "Title [id].mp4")

	const jobs = 8
	var wg sync.WaitGroup
	finals := make([]string, jobs)
	errs := make([]error, jobs)
	for i := 0; i < jobs; i++ {
		src := filepath.Join(dir, fmt.Sprintf("job-%d.mp4", i))
		if err := os.WriteFile(src, []byte(fmt.Sprintf("job-%d", i)), 0o644); err != nil {
			t.Fatal(err)
		}
		wg.Add(1)
		go func(i int, src string) {
			defer wg.Done()
			finals[i], errs[i] = MoveUnique(src, dst)
		}(i, src)
	}
	wg.Wait()

	seen := make(map[string]bool)
	for i := 0; i < jobs; i++ {
		if errs[i] != nil {
			t.Fatalf("MoveUnique job %d: %v", i, errs[i])
		}
		if seen[finals[i]] {
			t.Fatalf("two jobs moved to %q", finals[i])
		}
		seen[finals[i]] = true
		data, err := os.ReadFile(finals[i])
		if err != nil || string(data) != fmt.Sprintf("job-%d", i) {
			t.Errorf("job %d content = %q, %v", i, data, err)
		}
	}
	entries, _ := os.ReadDir(filepath.Dir(dst))
	if len(entries) != jobs {
		t.Errorf("%d files in output dir, want %d", len(entries), jobs)
	}
}

func TestMoveFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.mp4")
	dst := filepath.Join(dir, "nested", "b.mp4")
	if err := os.WriteFile(src, []byte("payload"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := MoveFile(src, dst); err != nil {
		t.Fatalf("MoveFile() error: %v", err)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Errorf("source still exists after move")
	}
	data, err := os.ReadFile(dst)
	if err != nil || string(data) != "payload" {
		t.Errorf("destination content = %q, %v", data, err)
	}
}

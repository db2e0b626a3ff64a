package util

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// MakeTempWorkdir creates a unique temp directory under base (or $TMPDIR/vidsnag when base is empty).
func MakeTempWorkdir(base, prefix string) (string, error) {
	if base == "" {
		base = filepath.Join(os.TempDir(), "vidsnag")
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return "", err
	}
	dir, err := os.MkdirTemp(base, prefix+"-")
	if err != nil {
		return "", err
	}
	return dir, nil
}

// EnsureDir creates the directory path if it does not exist.
func EnsureDir(path string) error {
	if path == "" {
		return errors.New("empty path")
	}
	return os.MkdirAll(path, 0o755)
}

// RemoveIfExists deletes the file if present.
func RemoveIfExists(path string) error {
	if _, err := os.Stat(path); err == nil {
		return os.Remove(path)
	} else if os.IsNotExist(err) {
		return nil
	} else {
		return err
	}
}

// SanitizeFilename cleans a string to be safe as a filename on common filesystems
// (including Android/FAT shared storage):
// - Replace forbidden characters with underscores
// - Collapse whitespace and duplicated underscores
// - Truncate to 180 runes
func SanitizeFilename(s string) string {
	if s == "" {
		return "untitled"
	}
	forbidden := `/\:*?"<>|` + "\x00"
	s = strings.Map(func(r rune) rune {
		if strings.ContainsRune(forbidden, r) || r < 0x20 {
			return '_'
		}
		return r
	}, s)
	s = strings.Join(strings.Fields(s), " ")
	for strings.Contains(s, "__") {
		s = strings.ReplaceAll(s, "__", "_")
	}
	s = strings.Trim(s, ". _-")

	const maxRunes = 180
	if utf8.RuneCountInString(s) > maxRunes {
		s = string([]rune(s)[:maxRunes])
		s = strings.TrimRight(s, ". ")
	}

	if s == "" {
		return "untitled"
	}
	return s
}

const maxUniqueSuffix = 10000

// UniquePath reserves path, or the first free "name (n).ext" next to it, by
// creating an empty file there. Concurrent callers never get the same name.
// The caller either moves content over the reservation or removes it.
func UniquePath(path string) (string, error) {
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	candidate := path
	for i := 1; i <= maxUniqueSuffix; i++ {
		f, err := os.OpenFile(candidate, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			return candidate, f.Close()
		}
		if !errors.Is(err, os.ErrExist) {
			return "", fmt.Errorf("reserve %s: %w", candidate, err)
		}
		candidate = fmt.Sprintf("%s (%d)%s", stem, i, ext)
	}
	return "", fmt.Errorf("no free name for %s after %d tries", path, maxUniqueSuffix)
}

// MoveUnique moves src to dst, or to the next free "name (n).ext" when dst is
// taken. Existing files are never replaced. It returns the final path.
func MoveUnique(src, dst string) (string, error) {
	if err := EnsureDir(filepath.Dir(dst)); err != nil {
		return "", fmt.Errorf("ensure dir: %w", err)
	}
	final, err := UniquePath(dst)
	if err != nil {
		return "", err
	}
	if err := MoveFile(src, final); err != nil {
		_ = os.Remove(final)
		return "", err
	}
	return final, nil
}

// MoveFile renames src to dst, falling back to copy+remove when they live on
// different filesystems. dst is replaced; use MoveUnique to keep existing files.
func MoveFile(src, dst string) error {
	if err := EnsureDir(filepath.Dir(dst)); err != nil {
		return fmt.Errorf("ensure dir: %w", err)
	}
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy: %w", err)
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}

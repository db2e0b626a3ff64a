package downloader

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var errNoOutput = errors.New("no output file found")

// SelectDownloadedFile finds the best downloaded file in workdir for the given video ID.
// Partial files and directories are ignored.
func SelectDownloadedFile(workdir, id string) (string, error) {
	var candidates []string
	if id != "" {
		matches, err := filepath.Glob(filepath.Join(workdir, globEscape(id)+".*"))
		if err != nil {
			return "", err
		}
		candidates = usable(matches)
	}

	if len(candidates) == 0 {
		all, _ := filepath.Glob(filepath.Join(workdir, "*"))
		candidates = usable(all)
		if len(candidates) == 0 {
			return "", errNoOutput
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		pri := extPriority(filepath.Ext(candidates[i]))
		prj := extPriority(filepath.Ext(candidates[j]))
		if pri == prj {
			return candidates[i] < candidates[j]
		}
		return pri < prj
	})

	return candidates[0], nil
}

func usable(paths []string) []string {
	out := paths[:0]
	for _, p := range paths {
		switch strings.ToLower(filepath.Ext(p)) {
		case ".part", ".ytdl", ".temp", ".tmp":
			continue
		}
		if st, err := os.Stat(p); err != nil || st.IsDir() {
			continue
		}
		out = append(out, p)
	}
	return out
}

// globEscape protects IDs that contain glob metacharacters.
func globEscape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`)
	return r.Replace(s)
}

// extPriority returns a priority score for file extensions (lower = better).
// Playable video containers come first, then audio.
func extPriority(ext string) int {
	ext = strings.ToLower(ext)
	switch ext {
	case ".mp4":
		return 0
	case ".mkv":
		return 1
	case ".webm":
		return 2
	case ".mov":
		return 3
	case ".avi":
		return 4
	case ".flv":
		return 5
	case ".m4a":
		return 10
	case ".mp3":
		return 11
	case ".opus":
		return 12
	case ".ogg":
		return 13
	case ".aac":
		return 14
	case ".flac":
		return 15
	case ".wav":
		return 16
	default:
		return 100
	}
}

package downloader

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSelectDownloadedFile(t *testing.T) {
	tests := []struct {
		name      string
		files     []string
		dirs      []string
		videoID   string
		wantFile  string
		wantError bool
	}{
		{
			name:     "prefers mp4 over webm",
			files:    []string{"abc123.webm", "abc123.mp4"},
			videoID:  "abc123",
			wantFile: "abc123.mp4",
		},
		{
			name:     "video container beats audio",
			files:    []string{"abc123.m4a", "abc123.mkv"},
			videoID:  "abc123",
			wantFile: "abc123.mkv",
		},
		{
			name:     "m4a before opus",
			files:    []string{"abc123.opus", "abc123.m4a"},
			videoID:  "abc123",
			wantFile: "abc123.m4a",
		},
		{
			name:     "extracted mp3",
			files:    []string{"abc123.mp3"},
			videoID:  "abc123",
			wantFile: "abc123.mp3",
		},
		{
			name:     "partial files are ignored",
			files:    []string{"abc123.mp4.part", "abc123.webm"},
			videoID:  "abc123",
			wantFile: "abc123.webm",
		},
		{
			name:     "fallback to any file when ID mismatch",
			files:    []string{"different.mp4"},
			videoID:  "abc123",
			wantFile: "different.mp4",
		},
		{
			name:     "id with glob characters",
			files:    []string{"a[1]b.mp4"},
			videoID:  "a[1]b",
			wantFile: "a[1]b.mp4",
		},
		{
			name:      "only partials and directories",
			files:     []string{"abc123.f137.mp4.part", "abc123.ytdl"},
			dirs:      []string{"abc123.d"},
			videoID:   "abc123",
			wantError: true,
		},
		{
			name:      "error when no files",
			videoID:   "abc123",
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testDir := t.TempDir()
			for _, f := range tt.files {
				if err := os.WriteFile(filepath.Join(testDir, f), []byte("test"), 0o644); err != nil {
					t.Fatalf("create %s: %v", f, err)
				}
			}
			for _, d := range tt.dirs {
				if err := os.Mkdir(filepath.Join(testDir, d), 0o755); err != nil {
					t.Fatalf("mkdir %s: %v", d, err)
				}
			}

			got, err := SelectDownloadedFile(testDir, tt.videoID)
			if tt.wantError {
				if err == nil {
					t.Errorf("SelectDownloadedFile() expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("SelectDownloadedFile() unexpected error: %v", err)
			}
			if gotBase := filepath.Base(got); gotBase != tt.wantFile {
				t.Errorf("SelectDownloadedFile() = %v, want %v", gotBase, tt.wantFile)
			}
		})
	}
}

func TestExtPriority(t *testing.T) {
	tests := []struct {
		ext  string
		want int
	}{
		{ext: ".mp4", want: 0},
		{ext: ".mkv", want: 1},
		{ext: ".webm", want: 2},
		{ext: ".flv", want: 5},
		{ext: ".m4a", want: 10},
		{ext: ".mp3", want: 11},
		{ext: ".wav", want: 16},
		{ext: ".unknown", want: 100},
		{ext: ".MP4", want: 0},
		{ext: ".OPUS", want: 12},
	}

	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			if got := extPriority(tt.ext); got != tt.want {
				t.Errorf("extPriority(%q) = %v, want %v", tt.ext, got, tt.want)
			}
		})
	}
}

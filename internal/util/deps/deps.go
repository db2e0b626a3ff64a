package deps

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"vidsnag/internal/util"
)

// ErrNotFound marks a required external binary that could not be located.
var ErrNotFound = errors.New("dependency not found")

// FindDownloader returns the path to yt-dlp or youtube-dl.
// If customPath is non-empty, it tries that path or looks it up in PATH.
func FindDownloader(customPath string) (string, error) {
	if customPath != "" {
		return findCustom(customPath, "downloader")
	}
	if p, err := exec.LookPath("yt-dlp"); err == nil {
		return p, nil
	}
	if p, err := exec.LookPath("youtube-dl"); err == nil {
		return p, nil
	}
	return "", fmt.Errorf("%w: could not find yt-dlp or youtube-dl in PATH, install yt-dlp", ErrNotFound)
}

// FindFFmpeg returns the path to ffmpeg. A missing ffmpeg is not fatal for
// downloads: callers fall back to single-file formats without conversion.
func FindFFmpeg(customPath string) (string, error) {
	if customPath != "" {
		return findCustom(customPath, "ffmpeg")
	}
	if p, err := exec.LookPath("ffmpeg"); err == nil {
		return p, nil
	}
	return "", fmt.Errorf("%w: could not find ffmpeg in PATH; merging and audio conversion are disabled", ErrNotFound)
}

func findCustom(p, what string) (string, error) {
	if _, err := os.Stat(p); err == nil {
		return p, nil
	}
	if lp, err := exec.LookPath(p); err == nil {
		return lp, nil
	}
	return "", fmt.Errorf("%w: could not find %s at %q", ErrNotFound, what, p)
}

// Tool describes a located external binary.
type Tool struct {
	Name    string
	Path    string
	Version string
	Err     error
}

// Report locates both tools and asks each for its version.
func Report(ctx context.Context, runner util.CmdRunner, dlCustom, ffCustom string) []Tool {
	dl := Tool{Name: "downloader"}
	dl.Path, dl.Err = FindDownloader(dlCustom)
	if dl.Err == nil {
		dl.Version = version(ctx, runner, dl.Path, "--version")
	}

	ff := Tool{Name: "ffmpeg"}
	ff.Path, ff.Err = FindFFmpeg(ffCustom)
	if ff.Err == nil {
		ff.Version = version(ctx, runner, ff.Path, "-version")
	}
	return []Tool{dl, ff}
}

func version(ctx context.Context, runner util.CmdRunner, path, flag string) string {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	res, err := runner.Run(ctx, util.CmdSpec{Path: path, Args: []string{flag}, CaptureStdout: true})
	if err != nil {
		return "unknown"
	}
	first, _, _ := strings.Cut(strings.TrimSpace(string(res.Stdout)), "\n")
	if first == "" {
		return "unknown"
	}
	return first
}

package dirs

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"

	"vidsnag/internal/model"
)

const appName = "vidsnag"

// AppName returns the canonical application name for directory paths.
func AppName() string {
	return appName
}

// xdg returns $env/vidsnag when env is set, else ~/<fallback...>/vidsnag.
func xdg(env string, fallback ...string) (string, error) {
	if v := os.Getenv(env); v != "" {
		return filepath.Join(v, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(append(append([]string{home}, fallback...), appName)...), nil
}

func darwinSupport(sub ...string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(append([]string{home, "Library", "Application Support", appName}, sub...)...), nil
}

// ConfigDir returns the app's configuration directory.
// - Linux: $XDG_CONFIG_HOME/vidsnag or ~/.config/vidsnag
// - macOS: ~/Library/Application Support/vidsnag
// - Windows: %AppData%/vidsnag
func ConfigDir() (string, error) {
	switch runtime.GOOS {
	case "darwin":
		return darwinSupport()
	case "linux":
		return xdg("XDG_CONFIG_HOME", ".config")
	default:
		cfg, err := os.UserConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(cfg, appName), nil
	}
}

// CacheDir returns the app's cache directory.
// - Linux: $XDG_CACHE_HOME/vidsnag or ~/.cache/vidsnag
// - macOS: ~/Library/Caches/vidsnag
// - Windows: %LocalAppData%/vidsnag
func CacheDir() (string, error) {
	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "Library", "Caches", appName), nil
	case "linux":
		return xdg("XDG_CACHE_HOME", ".cache")
	default:
		c, err := os.UserCacheDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(c, appName), nil
	}
}

// StateDir returns the app's state directory, where history is kept.
// - Linux: $XDG_STATE_HOME/vidsnag or ~/.local/state/vidsnag
// - macOS: ~/Library/Application Support/vidsnag/state
// - Windows: %LocalAppData%/vidsnag/state
func StateDir() (string, error) {
	switch runtime.GOOS {
	case "darwin":
		return darwinSupport("state")
	case "linux":
		return xdg("XDG_STATE_HOME", ".local", "state")
	default:
		if la := os.Getenv("LOCALAPPDATA"); la != "" {
			return filepath.Join(la, appName, "state"), nil
		}
		cfg, err := ConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(cfg, "state"), nil
	}
}

// VideosDir returns the user's video library: $XDG_VIDEOS_DIR on Linux,
// ~/Movies on macOS, ~/Videos elsewhere.
func VideosDir() (string, error) {
	if runtime.GOOS == "linux" {
		if v := os.Getenv("XDG_VIDEOS_DIR"); v != "" {
			return v, nil
		}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	if runtime.GOOS == "darwin" {
		return filepath.Join(home, "Movies"), nil
	}
	return filepath.Join(home, "Videos"), nil
}

// MusicDir returns the user's music library: $XDG_MUSIC_DIR on Linux,
// ~/Music elsewhere.
func MusicDir() (string, error) {
	if runtime.GOOS == "linux" {
		if v := os.Getenv("XDG_MUSIC_DIR"); v != "" {
			return v, nil
		}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "Music"), nil
}

// MediaDir picks the destination for kind, preferring the configured override.
func MediaDir(kind model.MediaKind, opts model.Options) (string, error) {
	if kind == model.KindAudio {
		if opts.MusicDir != "" {
			return opts.MusicDir, nil
		}
		return MusicDir()
	}
	if opts.VideoDir != "" {
		return opts.VideoDir, nil
	}
	return VideosDir()
}

// TempBaseDir returns the base directory for per-job working files.
func TempBaseDir() (string, error) {
	c, err := CacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(c, "temp"), nil
}

// CacheFile is where cached search results and metadata are persisted.
func CacheFile() (string, error) {
	c, err := CacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(c, "results.json"), nil
}

// HistoryFile is where finished downloads are recorded.
func HistoryFile() (string, error) {
	s, err := StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(s, "history.json"), nil
}

// Ensure creates the directory if it doesn't exist.
func Ensure(path string) error {
	if path == "" {
		return errors.New("empty path")
	}
	return os.MkdirAll(path, 0o755)
}

// EnsureAll ensures the config, cache and state dirs exist.
func EnsureAll() error {
	for _, fn := range []func() (string, error){ConfigDir, CacheDir, StateDir} {
		p, err := fn()
		if err != nil {
			continue
		}
		if err := Ensure(p); err != nil {
			return err
		}
	}
	return nil
}

package media

import (
	"path/filepath"
	"strings"

	"vidsnag/internal/model"
	"vidsnag/internal/util"
)

// OutputBasename builds a safe base filename (without extension) from metadata:
// "<title> [<id>]", or "<title> (<quality>) [<id>]" for capped video downloads.
func OutputBasename(info model.MediaInfo, q model.Quality) string {
	title := strings.TrimSpace(info.Title)
	if title == "" {
		title = info.ID
	}
	name := util.SanitizeFilename(title)
	if h := q.Height(); h > 0 {
		name += " (" + string(q) + ")"
	}
	if info.ID != "" {
		name += " [" + util.SanitizeFilename(info.ID) + "]"
	}
	return name
}

// FinalPath places a downloaded file into dir, keeping the extension the engine chose.
func FinalPath(dir string, info model.MediaInfo, q model.Quality, downloaded string) string {
	ext := strings.ToLower(filepath.Ext(downloaded))
	return filepath.Join(dir, OutputBasename(info, q)+ext)
}

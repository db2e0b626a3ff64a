package downloader

import (
	"fmt"
	"sort"
	"strconv"

	"vidsnag/internal/model"
	"vidsnag/internal/util/bitrate"
)

// QualityOptions lists the qualities worth offering for info, tallest first, always
// ending with an audio-only choice. Without ffmpeg only progressive formats
// (audio and video in one file) count, since nothing can merge streams.
func QualityOptions(info model.MediaInfo, hasFFmpeg bool) []model.QualityOption {
	audioBytes := bestAudioBytes(info)

	sizes := map[int]int64{}
	for _, f := range info.Formats {
		if !f.HasVideo() || f.Height <= 0 {
			continue
		}
		if !hasFFmpeg && !f.HasAudio() {
			continue
		}
		est := formatBytes(f, info.DurationSec)
		if est > 0 && hasFFmpeg && !f.HasAudio() {
			// Video-only streams get the best audio track merged in.
			est += audioBytes
		}
		if cur, ok := sizes[f.Height]; !ok || est > cur {
			sizes[f.Height] = est
		}
	}

	heights := make([]int, 0, len(sizes))
	for h := range sizes {
		heights = append(heights, h)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(heights)))

	var out []model.QualityOption
	if len(heights) == 0 {
		out = append(out, model.QualityOption{Quality: model.QualityBest, Label: "Best available"})
	}
	for _, h := range heights {
		out = append(out, model.QualityOption{
			Quality:  model.HeightQuality(h),
			Label:    heightLabel(h),
			Height:   h,
			EstBytes: sizes[h],
		})
	}
	return append(out, model.QualityOption{
		Quality:  model.QualityAudio,
		Label:    "Audio only",
		EstBytes: audioBytes,
	})
}

// Resolve maps a requested quality onto what info actually offers. A height
// cap picks the tallest height not above it, else the smallest available.
func Resolve(requested model.Quality, info model.MediaInfo, hasFFmpeg bool) model.Quality {
	if requested == model.QualityBest || requested.IsAudio() {
		return requested
	}
	limit := requested.Height()
	if limit <= 0 {
		return model.QualityBest
	}

	var heights []int
	for _, o := range QualityOptions(info, hasFFmpeg) {
		if o.Height > 0 {
			heights = append(heights, o.Height)
		}
	}
	if len(heights) == 0 {
		return model.QualityBest
	}
	// heights is sorted descending
	for _, h := range heights {
		if h <= limit {
			return model.HeightQuality(h)
		}
	}
	return model.HeightQuality(heights[len(heights)-1])
}

// Selection is the engine arguments for a resolved quality.
type Selection struct {
	Format string   // the -f expression
	Args   []string // full argument list including -f
}

// Selector builds the format arguments for q.
func Selector(q model.Quality, af model.AudioFormat, hasFFmpeg bool) Selection {
	if q.IsAudio() {
		if !hasFFmpeg {
			f := "ba[ext=m4a]/ba/b"
			return Selection{Format: f, Args: []string{"-f", f}}
		}
		f := "ba/b"
		args := []string{"-f", f, "-x"}
		if af != "" && af != model.AudioBest {
			args = append(args, "--audio-format", string(af))
		}
		args = append(args, "--audio-quality", "0")
		return Selection{Format: f, Args: args}
	}

	h := q.Height()
	if !hasFFmpeg {
		var f string
		if h > 0 {
			f = fmt.Sprintf("b[height<=%d][ext=mp4]/b[height<=%d]/b", h, h)
		} else {
			f = "b[ext=mp4]/b"
		}
		return Selection{Format: f, Args: []string{"-f", f}}
	}

	var f string
	if h > 0 {
		f = fmt.Sprintf("bv*[height<=%d][ext=mp4]+ba[ext=m4a]/bv*[height<=%d]+ba/b[height<=%d]/b", h, h, h)
	} else {
		f = "bv*[ext=mp4]+ba[ext=m4a]/bv*+ba/b"
	}
	return Selection{Format: f, Args: []string{"-f", f, "--merge-output-format", "mp4"}}
}

// KindFor reports the destination kind for q.
func KindFor(q model.Quality) model.MediaKind {
	return q.Kind()
}

func heightLabel(h int) string {
	switch {
	case h >= 2160:
		return strconv.Itoa(h) + "p (4K)"
	case h >= 1440:
		return strconv.Itoa(h) + "p (QHD)"
	case h >= 1080:
		return strconv.Itoa(h) + "p (Full HD)"
	case h >= 720:
		return strconv.Itoa(h) + "p (HD)"
	default:
		return strconv.Itoa(h) + "p"
	}
}

func formatBytes(f model.Format, durationSec float64) int64 {
	if f.FileSize > 0 {
		return f.FileSize
	}
	if f.FileSizeApprox > 0 {
		return f.FileSizeApprox
	}
	return bitrate.EstimateBytes(f.TBR, durationSec)
}

func bestAudioBytes(info model.MediaInfo) int64 {
	var best int64
	for _, f := range info.Formats {
		if !f.HasAudio() || f.HasVideo() {
			continue
		}
		if b := formatBytes(f, info.DurationSec); b > best {
			best = b
		}
	}
	return best
}

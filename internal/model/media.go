package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Quality is a requested download quality: "best", "audio", or "<N>p" where N is a max height.
type Quality string

const (
	QualityBest  Quality = "best"
	QualityAudio Quality = "audio"
)

// ParseQuality accepts best|audio|<N>|<N>p (case-insensitive).
func ParseQuality(s string) (Quality, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch v {
	case string(QualityBest):
		return QualityBest, nil
	case string(QualityAudio):
		return QualityAudio, nil
	}
	num := strings.TrimSuffix(v, "p")
	if !allDigits(num) {
		return "", invalidQuality(s)
	}
	h, err := strconv.Atoi(num)
	if err != nil || h <= 0 || h > 8640 {
		return "", invalidQuality(s)
	}
	return HeightQuality(h), nil
}

func invalidQuality(s string) error {
	return fmt.Errorf("invalid quality %q (valid: best|audio|<height>p, e.g. 720p)", s)
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// HeightQuality returns the quality capped at the given height.
func HeightQuality(h int) Quality {
	return Quality(strconv.Itoa(h) + "p")
}

// IsAudio reports whether q requests audio only.
func (q Quality) IsAudio() bool {
	return q == QualityAudio
}

// Height returns the height cap, or 0 for best/audio.
func (q Quality) Height() int {
	if q == QualityBest || q == QualityAudio {
		return 0
	}
	h, err := strconv.Atoi(strings.TrimSuffix(string(q), "p"))
	if err != nil {
		return 0
	}
	return h
}

// Kind returns where media of this quality belongs.
func (q Quality) Kind() MediaKind {
	if q.IsAudio() {
		return KindAudio
	}
	return KindVideo
}

// AudioFormat is the target container for audio extraction.
type AudioFormat string

const (
	AudioMP3  AudioFormat = "mp3"
	AudioM4A  AudioFormat = "m4a"
	AudioOpus AudioFormat = "opus"
	AudioBest AudioFormat = "best"
)

// ParseAudioFormat validates an audio format name.
func ParseAudioFormat(s string) (AudioFormat, error) {
	switch f := AudioFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case AudioMP3, AudioM4A, AudioOpus, AudioBest:
		return f, nil
	case "":
		return AudioMP3, nil
	default:
		return "", fmt.Errorf("invalid audio format %q (valid: mp3|m4a|opus|best)", s)
	}
}

// MediaKind decides the destination directory.
type MediaKind string

const (
	KindVideo MediaKind = "video"
	KindAudio MediaKind = "audio"
)

// SearchResult is a single hit from a search query.
type SearchResult struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Uploader    string  `json:"uploader"`
	DurationSec float64 `json:"duration"`
	URL         string  `json:"url"`
	ViewCount   int64   `json:"view_count"`
}

// Format is one entry of the engine's format list.
type Format struct {
	ID             string  `json:"format_id"`
	Ext            string  `json:"ext"`
	Height         int     `json:"height"`
	Width          int     `json:"width"`
	FPS            float64 `json:"fps"`
	VCodec         string  `json:"vcodec"`
	ACodec         string  `json:"acodec"`
	TBR            float64 `json:"tbr"`
	ABR            float64 `json:"abr"`
	FileSize       int64   `json:"filesize"`
	FileSizeApprox int64   `json:"filesize_approx"`
	Note           string  `json:"format_note"`
}

// HasVideo reports whether the format carries a video stream.
func (f Format) HasVideo() bool {
	if f.VCodec == "none" {
		return false
	}
	if f.VCodec == "" {
		return f.Height > 0
	}
	return true
}

// HasAudio reports whether the format carries an audio stream.
func (f Format) HasAudio() bool {
	if f.ACodec == "none" {
		return false
	}
	if f.ACodec == "" {
		// Storyboards and image formats have neither codec nor height.
		return !f.HasVideo() && f.Ext != "mhtml" && (f.ABR > 0 || f.TBR > 0)
	}
	return true
}

// MediaInfo is the metadata returned for a single URL.
type MediaInfo struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Uploader    string   `json:"uploader"`
	DurationSec float64  `json:"duration"`
	URL         string   `json:"webpage_url"`
	Width       int      `json:"width"`
	Height      int      `json:"height"`
	Formats     []Format `json:"formats"`
}

// QualityOption is a choice presented to the user.
type QualityOption struct {
	Quality  Quality
	Label    string
	Height   int
	EstBytes int64 // 0 if unknown
}

// Options holds user-configurable runtime options.
type Options struct {
	VideoDir      string // Empty = platform default.
	MusicDir      string // Empty = platform default.
	Quality       Quality
	AudioFormat   AudioFormat
	DLBinary      string // Optional explicit path to yt-dlp/youtube-dl
	FFmpegBinary  string // Optional explicit path to ffmpeg
	Verbose       bool
	Jobs          int
	NoUI          bool
	KeepTemp      bool
	DryRun        bool
	Pick          bool
	Force         bool // Download again even if history has the file
	SearchLimit   int
	CacheTTL      time.Duration
	Retries       int
	RateLimit     float64 // engine invocations per second; 0 = unlimited
	EmbedMetadata bool
}

// DownloadedMedia describes a finished download.
type DownloadedMedia struct {
	Path           string
	Bytes          int64
	Kind           MediaKind
	Title          string
	ID             string
	URL            string
	Quality        Quality
	FormatSelector string
}

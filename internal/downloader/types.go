package downloader

import (
	"vidsnag/internal/model"
	"vidsnag/internal/util"
)

// YTDLPInfo mirrors fields from yt-dlp --dump-json output that we care about.
type YTDLPInfo struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Uploader    string        `json:"uploader"`
	Channel     string        `json:"channel"`
	Duration    float64       `json:"duration"`
	Width       int           `json:"width"`
	Height      int           `json:"height"`
	WebpageURL  string        `json:"webpage_url"`
	OriginalURL string        `json:"original_url"`
	Formats     []YTDLPFormat `json:"formats"`
}

// YTDLPFormat is one element of "formats". Sizes are decoded as float64
// because some extractors emit them with a fractional part.
type YTDLPFormat struct {
	FormatID       string  `json:"format_id"`
	Ext            string  `json:"ext"`
	Height         float64 `json:"height"`
	Width          float64 `json:"width"`
	FPS            float64 `json:"fps"`
	VCodec         string  `json:"vcodec"`
	ACodec         string  `json:"acodec"`
	TBR            float64 `json:"tbr"`
	ABR            float64 `json:"abr"`
	FileSize       float64 `json:"filesize"`
	FileSizeApprox float64 `json:"filesize_approx"`
	FormatNote     string  `json:"format_note"`
}

// searchPayload is the --dump-single-json document for a ytsearchN: query.
type searchPayload struct {
	Entries []searchEntry `json:"entries"`
}

type searchEntry struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Uploader   string  `json:"uploader"`
	Channel    string  `json:"channel"`
	Duration   float64 `json:"duration"`
	URL        string  `json:"url"`
	WebpageURL string  `json:"webpage_url"`
	ViewCount  int64   `json:"view_count"`
}

// ToMediaInfo converts the raw engine document; fallbackURL is used when the
// document lacks a page URL.
func (i YTDLPInfo) ToMediaInfo(fallbackURL string) model.MediaInfo {
	uploader := i.Uploader
	if uploader == "" {
		uploader = i.Channel
	}
	pageURL := i.WebpageURL
	if pageURL == "" {
		pageURL = i.OriginalURL
	}
	if pageURL == "" {
		pageURL = fallbackURL
	}
	formats := make([]model.Format, 0, len(i.Formats))
	for _, f := range i.Formats {
		formats = append(formats, model.Format{
			ID:             f.FormatID,
			Ext:            f.Ext,
			Height:         int(f.Height),
			Width:          int(f.Width),
			FPS:            f.FPS,
			VCodec:         f.VCodec,
			ACodec:         f.ACodec,
			TBR:            f.TBR,
			ABR:            f.ABR,
			FileSize:       int64(f.FileSize),
			FileSizeApprox: int64(f.FileSizeApprox),
			Note:           f.FormatNote,
		})
	}
	return model.MediaInfo{
		ID:          i.ID,
		Title:       i.Title,
		Uploader:    uploader,
		DurationSec: i.Duration,
		URL:         pageURL,
		Width:       i.Width,
		Height:      i.Height,
		Formats:     formats,
	}
}

func (e searchEntry) toResult() model.SearchResult {
	uploader := e.Uploader
	if uploader == "" {
		uploader = e.Channel
	}
	u := e.WebpageURL
	if u == "" || !isHTTP(u) {
		u = e.URL
	}
	if u == "" || !isHTTP(u) {
		u = util.WatchURL(e.ID)
	}
	return model.SearchResult{
		ID:          e.ID,
		Title:       e.Title,
		Uploader:    uploader,
		DurationSec: e.Duration,
		URL:         u,
		ViewCount:   e.ViewCount,
	}
}

func isHTTP(s string) bool {
	return len(s) > 7 && (s[:7] == "http://" || (len(s) > 8 && s[:8] == "https://"))
}

package downloader

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"vidsnag/internal/progress"
)

// EventKind classifies a line of yt-dlp output.
type EventKind int

const (
	EventProgress EventKind = iota + 1
	EventComplete
	EventDestination
	EventAlreadyDownloaded
	EventMerging
	EventExtractAudio
	EventError
	EventWarning
)

// Event is the parsed form of one output line.
type Event struct {
	Kind      EventKind
	Percent   float64 // -1 if unknown
	Total     string  // e.g. "10.00MiB", empty if unknown
	Speed     *string
	ETA       *time.Duration
	Fragment  int
	Fragments int
	Path      string // Destination/Merger/ExtractAudio/already-downloaded file
	Message   string // Error/Warning text
}

// yt-dlp --newline output examples:
//
//	[download]   3.4% of   64.00MiB at    1.23MiB/s ETA 00:50
//	[download]  45.2% of ~  85.49MiB at    2.48MiB/s ETA 00:27 (frag 4/17)
//	[download] 100% of   64.00MiB in 00:00:01 at 40.12MiB/s
//	[download] Destination: /tmp/job/abc.f137.mp4
//	[Merger] Merging formats into "/tmp/job/abc.mp4"
//	[ExtractAudio] Destination: /tmp/job/abc.mp3
var (
	rePercent     = regexp.MustCompile(`^\[download\]\s+([\d.]+)%`)
	reTotal       = regexp.MustCompile(`\sof\s+~?\s*([\d.]+\s*[KMGTP]?i?B)\b`)
	reSpeed       = regexp.MustCompile(`\sat\s+([\d.]+\s*[KMGTP]?i?B/s)`)
	reETA         = regexp.MustCompile(`\sETA\s+([\d:]+)`)
	reFrag        = regexp.MustCompile(`\(frag\s+(\d+)/(\d+)\)`)
	reComplete    = regexp.MustCompile(`^\[download\]\s+100(?:\.0+)?%\s+of\s+~?\s*([\d.]+\s*[KMGTP]?i?B)\s+in\s+`)
	reDestination = regexp.MustCompile(`^\[download\]\s+Destination:\s+(.+)$`)
	reAlready     = regexp.MustCompile(`^\[download\]\s+(.+?)\s+has already been downloaded`)
	reMerger      = regexp.MustCompile(`^\[Merger\]\s+Merging formats into "(.+)"$`)
	reExtract     = regexp.MustCompile(`^\[ExtractAudio\]\s+Destination:\s+(.+)$`)
)

// ParseLine parses a single line of yt-dlp output.
// It returns ok=false for lines that carry nothing we track.
func ParseLine(line string) (Event, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Event{}, false
	}

	switch {
	case strings.HasPrefix(line, "ERROR:"):
		return Event{Kind: EventError, Percent: -1, Message: strings.TrimSpace(strings.TrimPrefix(line, "ERROR:"))}, true
	case strings.HasPrefix(line, "WARNING:"):
		return Event{Kind: EventWarning, Percent: -1, Message: strings.TrimSpace(strings.TrimPrefix(line, "WARNING:"))}, true
	}

	if m := reMerger.FindStringSubmatch(line); m != nil {
		return Event{Kind: EventMerging, Percent: -1, Path: m[1]}, true
	}
	if m := reExtract.FindStringSubmatch(line); m != nil {
		return Event{Kind: EventExtractAudio, Percent: -1, Path: strings.TrimSpace(m[1])}, true
	}
	if !strings.HasPrefix(line, "[download]") {
		return Event{}, false
	}

	if m := reDestination.FindStringSubmatch(line); m != nil {
		return Event{Kind: EventDestination, Percent: 0, Path: strings.TrimSpace(m[1])}, true
	}
	if m := reAlready.FindStringSubmatch(line); m != nil {
		return Event{Kind: EventAlreadyDownloaded, Percent: 100, Path: strings.TrimSpace(m[1])}, true
	}
	if m := reComplete.FindStringSubmatch(line); m != nil {
		return Event{Kind: EventComplete, Percent: 100, Total: compact(m[1])}, true
	}

	m := rePercent.FindStringSubmatch(line)
	if m == nil {
		return Event{}, false
	}
	ev := Event{Kind: EventProgress, Percent: -1}
	if p, err := strconv.ParseFloat(m[1], 64); err == nil {
		ev.Percent = p
	}
	if t := reTotal.FindStringSubmatch(line); t != nil {
		ev.Total = compact(t[1])
	}
	if s := reSpeed.FindStringSubmatch(line); s != nil {
		v := compact(s[1])
		ev.Speed = &v
	}
	if e := reETA.FindStringSubmatch(line); e != nil {
		if d, err := parseETA(e[1]); err == nil {
			ev.ETA = &d
		}
	}
	if f := reFrag.FindStringSubmatch(line); f != nil {
		ev.Fragment, _ = strconv.Atoi(f[1])
		ev.Fragments, _ = strconv.Atoi(f[2])
	}
	return ev, true
}

// ToUpdate maps a parsed event to a reporter update.
func ToUpdate(ev Event, jobID string) (progress.Update, bool) {
	switch ev.Kind {
	case EventProgress:
		msg := "Downloading"
		if ev.Fragments > 0 {
			msg = fmt.Sprintf("Downloading (frag %d/%d)", ev.Fragment, ev.Fragments)
		}
		u := progress.Update{
			JobID:   jobID,
			Stage:   progress.StageDownloading,
			Percent: ev.Percent,
			Speed:   ev.Speed,
			ETA:     ev.ETA,
			Message: msg,
		}
		if b, ok := totalBytes(ev.Total); ok {
			u.Bytes = &b
		}
		return u, true
	case EventComplete:
		u := progress.Update{JobID: jobID, Stage: progress.StageDownloading, Percent: 100, Message: "Downloaded"}
		if b, ok := totalBytes(ev.Total); ok {
			u.Bytes = &b
		}
		return u, true
	case EventDestination:
		return progress.Update{JobID: jobID, Stage: progress.StageDownloading, Percent: 0, Message: "Fetching " + filepath.Base(ev.Path)}, true
	case EventAlreadyDownloaded:
		return progress.Update{JobID: jobID, Stage: progress.StageDownloading, Percent: 100, Message: "Already downloaded"}, true
	case EventMerging:
		return progress.Update{JobID: jobID, Stage: progress.StageMerging, Percent: -1, Message: "Merging formats"}, true
	case EventExtractAudio:
		return progress.Update{JobID: jobID, Stage: progress.StageConverting, Percent: -1, Message: "Converting audio"}, true
	}
	return progress.Update{}, false
}

// Tracker folds a stream of events into the file the engine finally produced.
// Output lines arrive from both stdout and stderr goroutines.
type Tracker struct {
	mu          sync.Mutex
	destination string
	final       string
	lastError   string
	percent     float64
}

// Observe records one event.
func (t *Tracker) Observe(ev Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch ev.Kind {
	case EventDestination:
		t.destination = ev.Path
	case EventMerging, EventExtractAudio, EventAlreadyDownloaded:
		t.final = ev.Path
	case EventError:
		t.lastError = ev.Message
	case EventProgress, EventComplete:
		if ev.Percent >= 0 {
			t.percent = ev.Percent
		}
	}
}

// OutputPath returns the post-processed path if any, else the last destination.
func (t *Tracker) OutputPath() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.final != "" {
		return t.final
	}
	return t.destination
}

// LastError returns the text of the last ERROR: line.
func (t *Tracker) LastError() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastError
}

// Percent returns the last known download percentage.
func (t *Tracker) Percent() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.percent
}

func compact(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), " ", "")
}

func totalBytes(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, false
	}
	return int64(n), true
}

// parseETA parses duration strings like "00:04", "01:23:45", etc.
func parseETA(s string) (time.Duration, error) {
	parts := strings.Split(s, ":")
	switch len(parts) {
	case 2:
		// MM:SS
		m, err1 := strconv.Atoi(parts[0])
		sec, err2 := strconv.Atoi(parts[1])
		if err1 != nil || err2 != nil {
			return 0, fmt.Errorf("invalid ETA %q", s)
		}
		return time.Duration(m)*time.Minute + time.Duration(sec)*time.Second, nil
	case 3:
		// HH:MM:SS
		h, err1 := strconv.Atoi(parts[0])
		m, err2 := strconv.Atoi(parts[1])
		sec, err3 := strconv.Atoi(parts[2])
		if err1 != nil || err2 != nil || err3 != nil {
			return 0, fmt.Errorf("invalid ETA %q", s)
		}
		return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(sec)*time.Second, nil
	default:
		sec, err := strconv.Atoi(s)
		if err != nil {
			return 0, err
		}
		return time.Duration(sec) * time.Second, nil
	}
}

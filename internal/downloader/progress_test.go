package downloader

import (
	"testing"
	"time"

	"vidsnag/internal/progress"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name        string
		line        string
		wantOk      bool
		wantKind    EventKind
		wantPercent float64
		wantTotal   string
		wantSpeed   string
		wantETA     *time.Duration
		wantPath    string
		wantFrag    [2]int
	}{
		{
			name:        "typical download progress",
			line:        "[download]  45.2% of 10.00MiB at  1.50MiB/s ETA 00:04",
			wantOk:      true,
			wantKind:    EventProgress,
			wantPercent: 45.2,
			wantTotal:   "10.00MiB",
			wantSpeed:   "1.50MiB/s",
			wantETA:     durationPtr(4 * time.Second),
		},
		{
			name:        "approximate size with fragments",
			line:        "[download]  45.2% of ~  85.49MiB at    2.48MiB/s ETA 00:27 (frag 4/17)",
			wantOk:      true,
			wantKind:    EventProgress,
			wantPercent: 45.2,
			wantTotal:   "85.49MiB",
			wantSpeed:   "2.48MiB/s",
			wantETA:     durationPtr(27 * time.Second),
			wantFrag:    [2]int{4, 17},
		},
		{
			name:        "unknown speed and eta",
			line:        "[download]   0.0% of 3.21MiB at Unknown B/s ETA Unknown",
			wantOk:      true,
			wantKind:    EventProgress,
			wantPercent: 0,
			wantTotal:   "3.21MiB",
		},
		{
			name:        "progress with HH:MM:SS ETA",
			line:        "[download]  10.5% of 100.00MiB at  1.00MiB/s ETA 01:23:45",
			wantOk:      true,
			wantKind:    EventProgress,
			wantPercent: 10.5,
			wantTotal:   "100.00MiB",
			wantSpeed:   "1.00MiB/s",
			wantETA:     durationPtr(1*time.Hour + 23*time.Minute + 45*time.Second),
		},
		{
			name:        "completion",
			line:        "[download] 100% of   64.00MiB in 00:00:01 at 40.12MiB/s",
			wantOk:      true,
			wantKind:    EventComplete,
			wantPercent: 100,
			wantTotal:   "64.00MiB",
		},
		{
			name:        "destination",
			line:        "[download] Destination: /tmp/job-1/abc.f137.mp4",
			wantOk:      true,
			wantKind:    EventDestination,
			wantPercent: 0,
			wantPath:    "/tmp/job-1/abc.f137.mp4",
		},
		{
			name:        "already downloaded",
			line:        "[download] /tmp/job-1/abc.mp4 has already been downloaded",
			wantOk:      true,
			wantKind:    EventAlreadyDownloaded,
			wantPercent: 100,
			wantPath:    "/tmp/job-1/abc.mp4",
		},
		{
			name:        "merger",
			line:        `[Merger] Merging formats into "/tmp/job-1/abc.mp4"`,
			wantOk:      true,
			wantKind:    EventMerging,
			wantPercent: -1,
			wantPath:    "/tmp/job-1/abc.mp4",
		},
		{
			name:        "extract audio",
			line:        "[ExtractAudio] Destination: /tmp/job-1/abc.mp3",
			wantOk:      true,
			wantKind:    EventExtractAudio,
			wantPercent: -1,
			wantPath:    "/tmp/job-1/abc.mp3",
		},
		{
			name:        "error line",
			line:        "ERROR: [youtube] abc: Video unavailable",
			wantOk:      true,
			wantKind:    EventError,
			wantPercent: -1,
		},
		{
			name:   "extractor info line",
			line:   "[youtube] Extracting URL: https://www.youtube.com/watch?v=abc",
			wantOk: false,
		},
		{
			name:   "empty line",
			line:   "",
			wantOk: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, ok := ParseLine(tt.line)
			if ok != tt.wantOk {
				t.Fatalf("ParseLine() ok = %v, want %v", ok, tt.wantOk)
			}
			if !tt.wantOk {
				return
			}
			if ev.Kind != tt.wantKind {
				t.Errorf("Kind = %v, want %v", ev.Kind, tt.wantKind)
			}
			if ev.Percent != tt.wantPercent {
				t.Errorf("Percent = %v, want %v", ev.Percent, tt.wantPercent)
			}
			if ev.Total != tt.wantTotal {
				t.Errorf("Total = %q, want %q", ev.Total, tt.wantTotal)
			}
			if tt.wantSpeed == "" && ev.Speed != nil {
				t.Errorf("Speed = %q, want nil", *ev.Speed)
			}
			if tt.wantSpeed != "" && (ev.Speed == nil || *ev.Speed != tt.wantSpeed) {
				t.Errorf("Speed = %v, want %q", ev.Speed, tt.wantSpeed)
			}
			if tt.wantETA == nil && ev.ETA != nil {
				t.Errorf("ETA = %v, want nil", *ev.ETA)
			}
			if tt.wantETA != nil && (ev.ETA == nil || *ev.ETA != *tt.wantETA) {
				t.Errorf("ETA = %v, want %v", ptrDur(ev.ETA), *tt.wantETA)
			}
			if ev.Path != tt.wantPath {
				t.Errorf("Path = %q, want %q", ev.Path, tt.wantPath)
			}
			if ev.Fragment != tt.wantFrag[0] || ev.Fragments != tt.wantFrag[1] {
				t.Errorf("Frag = %d/%d, want %d/%d", ev.Fragment, ev.Fragments, tt.wantFrag[0], tt.wantFrag[1])
			}
		})
	}
}

func TestToUpdate(t *testing.T) {
	ev, _ := ParseLine("[download]  50.0% of 10.00MiB at  1.0MiB/s ETA 00:04")
	u, ok := ToUpdate(ev, "job-1")
	if !ok {
		t.Fatal("ToUpdate() ok = false for progress event")
	}
	if u.JobID != "job-1" || u.Stage != progress.StageDownloading || u.Percent != 50 {
		t.Errorf("ToUpdate() = %+v", u)
	}
	if u.Bytes == nil || *u.Bytes != 10*1024*1024 {
		t.Errorf("Bytes = %v, want %d", u.Bytes, 10*1024*1024)
	}

	merge, _ := ParseLine(`[Merger] Merging formats into "/x/a.mp4"`)
	if u, _ := ToUpdate(merge, "j"); u.Stage != progress.StageMerging {
		t.Errorf("merge stage = %v", u.Stage)
	}
	conv, _ := ParseLine("[ExtractAudio] Destination: /x/a.mp3")
	if u, _ := ToUpdate(conv, "j"); u.Stage != progress.StageConverting {
		t.Errorf("extract stage = %v", u.Stage)
	}
	warn, _ := ParseLine("WARNING: something odd")
	if _, ok := ToUpdate(warn, "j"); ok {
		t.Error("warning should not produce an update")
	}
}

func TestTracker(t *testing.T) {
	lines := []string{
		"[download] Destination: /w/abc.f137.mp4",
		"[download] 100% of 10.00MiB in 00:03",
		"[download] Destination: /w/abc.f140.m4a",
		"[download]  50.0% of 2.00MiB at 1.00MiB/s ETA 00:01",
		`[Merger] Merging formats into "/w/abc.mp4"`,
		"Deleting original file /w/abc.f137.mp4 (pass -k to keep)",
	}
	var tr Tracker
	for _, l := range lines {
		if ev, ok := ParseLine(l); ok {
			tr.Observe(ev)
		}
	}
	if got := tr.OutputPath(); got != "/w/abc.mp4" {
		t.Errorf("OutputPath() = %q, want /w/abc.mp4", got)
	}
	if got := tr.Percent(); got != 50 {
		t.Errorf("Percent() = %v, want 50", got)
	}

	var plain Tracker
	ev, _ := ParseLine("[download] Destination: /w/only.webm")
	plain.Observe(ev)
	if got := plain.OutputPath(); got != "/w/only.webm" {
		t.Errorf("OutputPath() without post-processing = %q", got)
	}
	errEv, _ := ParseLine("ERROR: unable to download video data: HTTP Error 403: Forbidden")
	plain.Observe(errEv)
	if got := plain.LastError(); got != "unable to download video data: HTTP Error 403: Forbidden" {
		t.Errorf("LastError() = %q", got)
	}
}

func TestParseETA(t *testing.T) {
	tests := []struct {
		name    string
		s       string
		want    time.Duration
		wantErr bool
	}{
		{name: "MM:SS format", s: "04:30", want: 4*time.Minute + 30*time.Second},
		{name: "HH:MM:SS format", s: "01:23:45", want: 1*time.Hour + 23*time.Minute + 45*time.Second},
		{name: "seconds only", s: "45", want: 45 * time.Second},
		{name: "zero seconds", s: "00:00", want: 0},
		{name: "invalid format", s: "invalid", wantErr: true},
		{name: "invalid minutes", s: "xx:10", wantErr: true},
		{name: "too many colons", s: "1:2:3:4", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseETA(tt.s)
			if tt.wantErr {
				if err == nil {
					t.Errorf("parseETA(%q) expected error, got nil", tt.s)
				}
				return
			}
			if err != nil {
				t.Errorf("parseETA(%q) unexpected error: %v", tt.s, err)
				return
			}
			if got != tt.want {
				t.Errorf("parseETA(%q) = %v, want %v", tt.s, got, tt.want)
			}
		})
	}
}

func durationPtr(d time.Duration) *time.Duration {
	return &d
}

func ptrDur(d *time.Duration) string {
	if d == nil {
		return "<nil>"
	}
	return d.String()
}

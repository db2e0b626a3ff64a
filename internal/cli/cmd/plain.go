package cmd

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"

	"vidsnag/internal/pipeline"
	"vidsnag/internal/progress"
	"vidsnag/internal/util/format"
)

// plainReporter prints job progress as plain lines for non-TTY output.
// Download percentages are printed in 10% steps.
type plainReporter struct {
	out     io.Writer
	errOut  io.Writer
	verbose bool

	mu     sync.Mutex
	stage  map[string]progress.Stage
	bucket map[string]int
}

func newPlainReporter(out, errOut io.Writer, verbose bool) *plainReporter {
	return &plainReporter{
		out:     out,
		errOut:  errOut,
		verbose: verbose,
		stage:   make(map[string]progress.Stage),
		bucket:  make(map[string]int),
	}
}

var (
	stageColor = map[progress.Stage]*color.Color{
		progress.StageResolving:   color.New(color.FgBlue),
		progress.StageMetadata:    color.New(color.FgBlue),
		progress.StageDownloading: color.New(color.FgCyan),
		progress.StageMerging:     color.New(color.FgMagenta),
		progress.StageConverting:  color.New(color.FgMagenta),
		progress.StageRetrying:    color.New(color.FgYellow),
		progress.StageCompleted:   color.New(color.FgGreen),
		progress.StageError:       color.New(color.FgRed),
	}
	okColor   = color.New(color.FgGreen, color.Bold)
	failColor = color.New(color.FgRed, color.Bold)
)

func (r *plainReporter) Update(u progress.Update) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch u.Stage {
	case progress.StageCompleted:
		fmt.Fprintf(r.out, "%s %s\n", okColor.Sprint("✓"), u.Message)
		r.stage[u.JobID] = u.Stage
		return
	case progress.StageError:
		// Printed by Result.
		r.stage[u.JobID] = u.Stage
		return
	}

	if u.Stage == progress.StageDownloading && u.Percent >= 0 {
		b := int(u.Percent) / 10
		if r.stage[u.JobID] == u.Stage && b <= r.bucket[u.JobID] {
			return
		}
		r.stage[u.JobID] = u.Stage
		r.bucket[u.JobID] = b
		fmt.Fprintf(r.out, "  %s %s\n", stageLabel(u.Stage), progressLine(u))
		return
	}

	if r.stage[u.JobID] == u.Stage && u.Stage != progress.StageRetrying {
		return
	}
	r.stage[u.JobID] = u.Stage
	r.bucket[u.JobID] = -1
	if u.Message != "" {
		fmt.Fprintf(r.out, "  %s %s\n", stageLabel(u.Stage), u.Message)
	}
}

func (r *plainReporter) Log(l progress.Log) {
	if !r.verbose {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.errOut, strings.TrimRight(l.Line, "\r\n"))
}

func (r *plainReporter) Result(res progress.Result) {
	if res.Err == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.errOut, "%s %v\n", failColor.Sprint("✗"), res.Err)
}

func stageLabel(s progress.Stage) string {
	label := fmt.Sprintf("%-11s", s)
	if c, ok := stageColor[s]; ok {
		return c.Sprint(label)
	}
	return label
}

func progressLine(u progress.Update) string {
	parts := []string{fmt.Sprintf("%5.1f%%", u.Percent)}
	if u.Bytes != nil && *u.Bytes > 0 {
		parts = append(parts, "of "+format.HumanizeBytes(*u.Bytes))
	}
	if u.Speed != nil && *u.Speed != "" {
		parts = append(parts, "at "+*u.Speed)
	}
	if u.ETA != nil {
		parts = append(parts, "ETA "+u.ETA.Round(time.Second).String())
	}
	return strings.Join(parts, " ")
}

// printPlan outputs a dry-run plan of actions without executing them.
func printPlan(w io.Writer, pl *pipeline.Plan) {
	fmt.Fprintln(w, "Dry-run plan:")
	fmt.Fprintf(w, "- URL:            %s\n", pl.URL)
	fmt.Fprintf(w, "- Title:          %s\n", pl.Title)
	if pl.Uploader != "" {
		fmt.Fprintf(w, "- Uploader:       %s\n", pl.Uploader)
	}
	fmt.Fprintf(w, "- Duration:       %s\n", format.Duration(pl.DurationSec))
	if pl.Requested != pl.Quality {
		fmt.Fprintf(w, "- Quality:        %s (requested %s)\n", pl.Quality, pl.Requested)
	} else {
		fmt.Fprintf(w, "- Quality:        %s\n", pl.Quality)
	}
	fmt.Fprintf(w, "- Format:         %s\n", pl.FormatSelector)
	fmt.Fprintf(w, "- Estimated size: %s\n", format.ApproxBytes(pl.EstBytes))
	fmt.Fprintf(w, "- Downloader:     %s\n", pl.DownloaderPath)
	ff := pl.FFmpegPath
	if ff == "" {
		ff = "(not found: no merging or conversion)"
	}
	fmt.Fprintf(w, "- FFmpeg:         %s\n", ff)
	fmt.Fprintf(w, "- Output dir:     %s\n", pl.OutputDir)
	fmt.Fprintf(w, "- Output path:    %s\n", pl.OutputPath)
	fmt.Fprintf(w, "- Command:        %s\n", pl.Command)
}

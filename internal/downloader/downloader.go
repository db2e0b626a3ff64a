package downloader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"vidsnag/internal/model"
	"vidsnag/internal/progress"
	"vidsnag/internal/util"
)

// Options controls how the engine binary is invoked.
type Options struct {
	DownloaderPath string // Path to yt-dlp or youtube-dl
	FFmpegPath     string // Empty when ffmpeg is unavailable
	Verbose        bool
	Runner         util.CmdRunner    // nil = os/exec
	Reporter       progress.Reporter // nil = discard
	JobID          string
	ExtraArgs      []string // Appended before the URL, e.g. header rotation
}

func (o Options) runner() util.CmdRunner {
	if o.Runner == nil {
		return util.NewDefaultRunner()
	}
	return o.Runner
}

func (o Options) reporter() progress.Reporter {
	if o.Reporter == nil {
		return progress.Nop{}
	}
	return o.Reporter
}

// logCommand reports the quoted engine command in verbose mode. Engine output
// goes through the reporter, never straight to the terminal.
func (o Options) logCommand(args []string) {
	if !o.Verbose {
		return
	}
	o.reporter().Log(progress.Log{
		JobID:  o.JobID,
		Stream: progress.StreamStderr,
		Line:   "+ " + util.CommandLine(o.DownloaderPath, args),
	})
}

// verboseLines forwards each line to the reporter in verbose mode, or
// returns nil.
func (o Options) verboseLines(stream progress.LogStream) func(string) {
	if !o.Verbose {
		return nil
	}
	rep := o.reporter()
	return func(line string) {
		rep.Log(progress.Log{JobID: o.JobID, Stream: stream, Line: line})
	}
}

// Request describes one download.
type Request struct {
	URL           string
	ID            string // Video ID from metadata; used to locate the output file
	Quality       model.Quality
	AudioFormat   model.AudioFormat
	Workdir       string // Per-job temp dir owned by the caller
	EmbedMetadata bool
}

// Result is what Download produced inside the workdir.
type Result struct {
	Path      string
	Bytes     int64
	Selection Selection
}

// FetchInfo returns metadata for a single URL.
func FetchInfo(ctx context.Context, opts Options, url string) (model.MediaInfo, error) {
	if opts.DownloaderPath == "" {
		return model.MediaInfo{}, errors.New("downloader path is required")
	}
	args := []string{"--dump-json", "--no-playlist", "--no-warnings"}
	args = append(args, opts.ExtraArgs...)
	args = append(args, url)

	opts.logCommand(args)
	res, runErr := opts.runner().Run(ctx, util.CmdSpec{
		Path:          opts.DownloaderPath,
		Args:          args,
		StderrLine:    opts.verboseLines(progress.StreamStderr),
		CaptureStdout: true,
	})
	if runErr != nil && len(strings.TrimSpace(string(res.Stdout))) == 0 {
		return model.MediaInfo{}, fmt.Errorf("metadata fetch failed: %w", ClassifyError(res.Stderr, runErr))
	}

	info, err := decodeInfo(res.Stdout)
	if err != nil {
		return model.MediaInfo{}, err
	}
	return info.ToMediaInfo(url), nil
}

// decodeInfo parses the first JSON document on stdout. If that fails, it
// looks for the last line that holds a JSON object with an ID.
func decodeInfo(stdout []byte) (YTDLPInfo, error) {
	data := strings.TrimSpace(string(stdout))
	var info YTDLPInfo
	err := json.NewDecoder(strings.NewReader(data)).Decode(&info)
	if err == nil && info.ID != "" {
		return info, nil
	}
	if err == nil {
		err = errors.New("metadata has no id")
	}

	lines := strings.Split(data, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if !strings.HasPrefix(line, "{") {
			continue
		}
		var tmp YTDLPInfo
		if json.Unmarshal([]byte(line), &tmp) == nil && tmp.ID != "" {
			return tmp, nil
		}
	}
	return YTDLPInfo{}, fmt.Errorf("parse metadata JSON: %w", err)
}

// Download runs the engine for req and returns the file it produced.
// Errors are classified with ClassifyError.
func Download(ctx context.Context, opts Options, req Request) (Result, error) {
	if opts.DownloaderPath == "" {
		return Result{}, errors.New("downloader path is required")
	}
	if req.Workdir == "" {
		return Result{}, errors.New("workdir is required")
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	sel := Selector(req.Quality, req.AudioFormat, opts.FFmpegPath != "")
	args := PlanArgs(opts, req)

	rep := opts.reporter()
	var tracker Tracker
	onLine := func(stream progress.LogStream) func(string) {
		return func(line string) {
			if opts.Verbose {
				rep.Log(progress.Log{JobID: opts.JobID, Stream: stream, Line: line})
			}
			ev, ok := ParseLine(line)
			if !ok {
				return
			}
			tracker.Observe(ev)
			if u, ok := ToUpdate(ev, opts.JobID); ok {
				rep.Update(u)
			}
		}
	}

	opts.logCommand(args)
	res, runErr := opts.runner().Run(ctx, util.CmdSpec{
		Path:       opts.DownloaderPath,
		Args:       args,
		Dir:        req.Workdir,
		StdoutLine: onLine(progress.StreamStdout),
		StderrLine: onLine(progress.StreamStderr),
	})
	if runErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{}, ctxErr
		}
		return Result{}, ClassifyError(res.Stderr, runErr)
	}

	path := tracker.OutputPath()
	if path != "" && !filepath.IsAbs(path) {
		path = filepath.Join(req.Workdir, path)
	}
	if path == "" || !fileExists(path) {
		var err error
		path, err = SelectDownloadedFile(req.Workdir, req.ID)
		if err != nil {
			return Result{}, fmt.Errorf("download succeeded but %w", err)
		}
	}

	st, err := os.Stat(path)
	if err != nil {
		return Result{}, fmt.Errorf("stat output: %w", err)
	}
	return Result{Path: path, Bytes: st.Size(), Selection: sel}, nil
}

// PlanArgs returns the engine command a download would run, for dry runs.
func PlanArgs(opts Options, req Request) []string {
	sel := Selector(req.Quality, req.AudioFormat, opts.FFmpegPath != "")
	args := []string{
		"--newline",
		"--no-playlist",
		"--no-part",
		"--no-mtime",
		"-o", filepath.Join(req.Workdir, "%(id)s.%(ext)s"),
	}
	args = append(args, sel.Args...)
	if opts.FFmpegPath != "" {
		args = append(args, "--ffmpeg-location", opts.FFmpegPath)
		if req.EmbedMetadata {
			args = append(args, "--embed-metadata")
		}
	}
	args = append(args, opts.ExtraArgs...)
	return append(args, req.URL)
}

func fileExists(p string) bool {
	st, err := os.Stat(p)
	return err == nil && !st.IsDir()
}

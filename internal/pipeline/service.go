// Package pipeline provides resolution and orchestration for the vidsnag workflow.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"vidsnag/internal/cache"
	"vidsnag/internal/dirs"
	"vidsnag/internal/downloader"
	"vidsnag/internal/history"
	"vidsnag/internal/model"
	"vidsnag/internal/progress"
	"vidsnag/internal/retry"
	"vidsnag/internal/util"
	"vidsnag/internal/util/format"
	"vidsnag/internal/util/media"
)

// Failure classes callers map to exit codes.
var (
	ErrSearch   = errors.New("search failed")
	ErrDownload = errors.New("download failed")
)

// Picker chooses one of several search results.
type Picker func(query string, results []model.SearchResult) (model.SearchResult, error)

// Service orchestrates the resolve → metadata → select → download → file workflow.
type Service struct {
	dlPath     string
	ffmpegPath string
	opts       model.Options
	runner     util.CmdRunner
	reporter   progress.Reporter
	jobID      string
	cache      *cache.Cache
	limiter    *retry.Limiter
	rotator    *retry.HeaderRotator
	history    *history.Store
	retryCfg   *retry.Config
	tempBase   string
	picker     Picker
}

// Option configures a Service.
type Option func(*Service)

// WithDownloaderPath sets the downloader (yt-dlp/youtube-dl) binary path.
func WithDownloaderPath(p string) Option {
	return func(s *Service) {
		s.dlPath = p
	}
}

// WithFFmpegPath sets the ffmpeg binary path. Empty means ffmpeg is unavailable.
func WithFFmpegPath(p string) Option {
	return func(s *Service) {
		s.ffmpegPath = p
	}
}

// WithOptions sets the runtime options.
func WithOptions(o model.Options) Option {
	return func(s *Service) {
		s.opts = o
	}
}

// WithRunner injects a custom command runner (useful for testing).
func WithRunner(r util.CmdRunner) Option {
	return func(s *Service) {
		s.runner = r
	}
}

// WithReporter attaches a progress reporter.
func WithReporter(rp progress.Reporter) Option {
	return func(s *Service) {
		s.reporter = rp
	}
}

// WithJobID sets the job ID associated with reporter events.
func WithJobID(id string) Option {
	return func(s *Service) {
		s.jobID = id
	}
}

// WithCache shares a result cache between services.
func WithCache(c *cache.Cache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

// WithLimiter shares an invocation rate limiter between services.
func WithLimiter(l *retry.Limiter) Option {
	return func(s *Service) {
		s.limiter = l
	}
}

// WithRotator shares a User-Agent rotator between services.
func WithRotator(r *retry.HeaderRotator) Option {
	return func(s *Service) {
		s.rotator = r
	}
}

// WithHistory records finished downloads in h.
func WithHistory(h *history.Store) Option {
	return func(s *Service) {
		s.history = h
	}
}

// WithRetryConfig overrides the backoff settings. MaxRetries still comes
// from Options.Retries.
func WithRetryConfig(c retry.Config) Option {
	return func(s *Service) {
		s.retryCfg = &c
	}
}

// WithTempBase sets where per-job working directories are created.
func WithTempBase(dir string) Option {
	return func(s *Service) {
		s.tempBase = dir
	}
}

// WithPicker lets the user choose among search hits instead of taking the first.
func WithPicker(p Picker) Option {
	return func(s *Service) {
		s.picker = p
	}
}

// NewService constructs a new Service with the provided options.
func NewService(opts ...Option) *Service {
	s := &Service{}
	for _, o := range opts {
		o(s)
	}
	if s.runner == nil {
		s.runner = util.NewDefaultRunner()
	}
	if s.reporter == nil {
		s.reporter = progress.Nop{}
	}
	if s.jobID == "" {
		s.jobID = uuid.NewString()
	}
	if s.limiter == nil {
		s.limiter = retry.NewLimiter(s.opts.RateLimit)
	}
	if s.rotator == nil {
		s.rotator = retry.NewHeaderRotator(nil, "")
	}
	if s.opts.AudioFormat == "" {
		s.opts.AudioFormat = model.AudioMP3
	}
	if s.opts.Quality == "" {
		s.opts.Quality = model.QualityBest
	}
	return s
}

// JobID returns the ID used for reporter events.
func (s *Service) JobID() string {
	return s.jobID
}

// HasFFmpeg reports whether merging and audio conversion are available.
func (s *Service) HasFFmpeg() bool {
	return s.ffmpegPath != ""
}

// Plan describes what a download would do, for dry runs.
type Plan struct {
	URL            string
	Title          string
	Uploader       string
	ID             string
	DurationSec    float64
	Requested      model.Quality
	Quality        model.Quality
	Kind           model.MediaKind
	FormatSelector string
	EstBytes       int64
	OutputDir      string
	OutputPath     string
	DownloaderPath string
	FFmpegPath     string
	Command        string
}

// Result returns the outcome of RunJob.
type Result struct {
	Input   string
	URL     string
	Info    model.MediaInfo
	Planned bool
	Plan    *Plan
	Media   *model.DownloadedMedia
	Reused  bool // history already had the file
	TempDir string
}

// Search returns hits for query, served from the cache when fresh.
func (s *Service) Search(ctx context.Context, query string) ([]model.SearchResult, error) {
	if s.dlPath == "" {
		return nil, fmt.Errorf("downloader path is required")
	}
	limit := downloader.ClampSearchLimit(s.opts.SearchLimit)
	key := cache.SearchKey(query, limit)

	var results []model.SearchResult
	if s.cache.Get(cache.KindSearch, key, &results) && len(results) > 0 {
		return results, nil
	}

	err := s.invoke(ctx, func(ctx context.Context, opts downloader.Options) error {
		var err error
		results, err = downloader.Search(ctx, opts, query, limit)
		return err
	})
	if err != nil {
		return nil, err
	}
	_ = s.cache.Put(cache.KindSearch, key, results)
	return results, nil
}

// Info returns metadata for url, served from the cache when fresh.
func (s *Service) Info(ctx context.Context, url string) (model.MediaInfo, error) {
	if s.dlPath == "" {
		return model.MediaInfo{}, fmt.Errorf("downloader path is required")
	}
	var info model.MediaInfo
	if s.cache.Get(cache.KindInfo, url, &info) && info.ID != "" {
		return info, nil
	}

	err := s.invoke(ctx, func(ctx context.Context, opts downloader.Options) error {
		var err error
		info, err = downloader.FetchInfo(ctx, opts, url)
		return err
	})
	if err != nil {
		return model.MediaInfo{}, err
	}
	_ = s.cache.Put(cache.KindInfo, url, info)
	return info, nil
}

// Resolve turns user input into a page URL. Queries are searched and the
// first hit is taken unless a Picker is configured.
func (s *Service) Resolve(ctx context.Context, input string) (string, error) {
	kind, val, err := util.ClassifyInput(input)
	if err != nil {
		return "", err
	}
	if kind == util.InputURL {
		return util.NormalizeURL(val), nil
	}

	s.update(progress.StageResolving, -1, fmt.Sprintf("Searching %q", val))
	results, err := s.Search(ctx, val)
	if err != nil {
		return "", err
	}
	pick := results[0]
	if s.picker != nil {
		pick, err = s.picker(val, results)
		if err != nil {
			return "", err
		}
	}
	return pick.URL, nil
}

// RunJob executes the full pipeline for one input (URL or search query).
// It never prints; progress and the final Result go to the Reporter.
func (s *Service) RunJob(ctx context.Context, input string) (Result, error) {
	res, err := s.runJob(ctx, input)
	if err != nil {
		s.reporter.Update(progress.Update{JobID: s.jobID, Stage: progress.StageError, Percent: -1, Message: err.Error()})
		s.reporter.Result(progress.Result{JobID: s.jobID, Err: err})
	}
	return res, err
}

func (s *Service) runJob(ctx context.Context, input string) (Result, error) {
	res := Result{Input: input}
	if s.dlPath == "" {
		return res, fmt.Errorf("downloader path is required")
	}

	s.update(progress.StageResolving, -1, "Resolving input")
	url, err := s.Resolve(ctx, input)
	if err != nil {
		return res, fmt.Errorf("%w: %w", ErrSearch, err)
	}
	res.URL = url

	s.update(progress.StageMetadata, -1, "Fetching metadata")
	info, err := s.Info(ctx, url)
	if err != nil {
		return res, fmt.Errorf("%w: %w", ErrDownload, err)
	}
	res.Info = info

	q := downloader.Resolve(s.opts.Quality, info, s.HasFFmpeg())
	kind := downloader.KindFor(q)
	outDir, err := dirs.MediaDir(kind, s.opts)
	if err != nil {
		return res, fmt.Errorf("resolve %s directory: %w", kind, err)
	}

	if s.opts.DryRun {
		pl := s.plan(info, q, kind, outDir)
		res.Planned = true
		res.Plan = pl
		s.emitPlanned(pl)
		return res, nil
	}

	if !s.opts.Force && s.history != nil {
		if e, ok, herr := s.history.FindByVideo(info.ID, kind, q); herr == nil && ok {
			dm := model.DownloadedMedia{
				Path: e.Path, Bytes: e.Bytes, Kind: e.Kind, Title: e.Title,
				ID: e.VideoID, URL: e.URL, Quality: e.Quality,
			}
			res.Media = &dm
			res.Reused = true
			s.emitSaved(dm, "Already saved")
			return res, nil
		}
	}

	workdir, err := util.MakeTempWorkdir(s.tempBase, "job")
	if err != nil {
		return res, fmt.Errorf("create temp dir: %w", err)
	}
	if s.opts.KeepTemp {
		res.TempDir = workdir
	} else {
		defer os.RemoveAll(workdir)
	}

	req := downloader.Request{
		URL:           url,
		ID:            info.ID,
		Quality:       q,
		AudioFormat:   s.opts.AudioFormat,
		Workdir:       workdir,
		EmbedMetadata: s.opts.EmbedMetadata,
	}
	s.update(progress.StageDownloading, 0, "Starting download")
	var dl downloader.Result
	err = s.invoke(ctx, func(ctx context.Context, opts downloader.Options) error {
		if err := clearDir(workdir); err != nil {
			return err
		}
		var err error
		dl, err = downloader.Download(ctx, opts, req)
		return err
	})
	if err != nil {
		return res, fmt.Errorf("%w: %w", ErrDownload, err)
	}

	if err := util.EnsureDir(outDir); err != nil {
		return res, fmt.Errorf("create output dir: %w", err)
	}
	final, err := util.MoveUnique(dl.Path, media.FinalPath(outDir, info, q, dl.Path))
	if err != nil {
		return res, fmt.Errorf("move into %s: %w", outDir, err)
	}

	dm := model.DownloadedMedia{
		Path:           final,
		Bytes:          dl.Bytes,
		Kind:           kind,
		Title:          info.Title,
		ID:             info.ID,
		URL:            url,
		Quality:        q,
		FormatSelector: dl.Selection.Format,
	}
	res.Media = &dm

	if s.history != nil {
		if _, err := s.history.Add(history.Entry{
			VideoID: info.ID,
			Title:   info.Title,
			URL:     url,
			Kind:    kind,
			Quality: q,
			Path:    final,
			Bytes:   dl.Bytes,
		}); err != nil {
			s.reporter.Log(progress.Log{JobID: s.jobID, Stream: progress.StreamStderr, Line: "warning: history: " + err.Error()})
		}
	}

	s.emitSaved(dm, "Saved")
	return res, nil
}

// invoke runs fn under the rate limiter with retries. Every attempt gets
// fresh request headers.
func (s *Service) invoke(ctx context.Context, fn func(context.Context, downloader.Options) error) error {
	cfg := retry.DefaultConfig()
	if s.retryCfg != nil {
		cfg = *s.retryCfg
	}
	cfg.MaxRetries = s.opts.Retries
	cfg.OnRetry = func(attempt int, err error, wait time.Duration) {
		s.update(progress.StageRetrying, -1, fmt.Sprintf("Retry %d/%d in %s: %v", attempt, cfg.MaxRetries, wait.Round(100*time.Millisecond), err))
	}

	return retry.Do(ctx, cfg, downloader.IsRetryable, func(ctx context.Context, attempt int) error {
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}
		return fn(ctx, s.downloaderOptions())
	})
}

func (s *Service) downloaderOptions() downloader.Options {
	return downloader.Options{
		DownloaderPath: s.dlPath,
		FFmpegPath:     s.ffmpegPath,
		Verbose:        s.opts.Verbose,
		Runner:         s.runner,
		Reporter:       s.reporter,
		JobID:          s.jobID,
		ExtraArgs:      s.rotator.Args(),
	}
}

func (s *Service) plan(info model.MediaInfo, q model.Quality, kind model.MediaKind, outDir string) *Plan {
	workdir := filepath.Join(s.tempBase, "job-"+s.jobID)
	req := downloader.Request{
		URL:           info.URL,
		ID:            info.ID,
		Quality:       q,
		AudioFormat:   s.opts.AudioFormat,
		Workdir:       workdir,
		EmbedMetadata: s.opts.EmbedMetadata,
	}
	dlOpts := s.downloaderOptions()
	sel := downloader.Selector(q, s.opts.AudioFormat, s.HasFFmpeg())

	var est int64
	for _, o := range downloader.QualityOptions(info, s.HasFFmpeg()) {
		if o.Quality == q {
			est = o.EstBytes
			break
		}
	}

	ext := ".mp4"
	switch {
	case kind == model.KindAudio && s.HasFFmpeg() && s.opts.AudioFormat != model.AudioBest:
		ext = "." + string(s.opts.AudioFormat)
	case kind == model.KindAudio:
		ext = ".m4a"
	}

	return &Plan{
		URL:            info.URL,
		Title:          info.Title,
		Uploader:       info.Uploader,
		ID:             info.ID,
		DurationSec:    info.DurationSec,
		Requested:      s.opts.Quality,
		Quality:        q,
		Kind:           kind,
		FormatSelector: sel.Format,
		EstBytes:       est,
		OutputDir:      outDir,
		OutputPath:     media.FinalPath(outDir, info, q, "x"+ext),
		DownloaderPath: s.dlPath,
		FFmpegPath:     s.ffmpegPath,
		Command:        util.CommandLine(s.dlPath, downloader.PlanArgs(dlOpts, req)),
	}
}

func (s *Service) update(stage progress.Stage, pct float64, msg string) {
	s.reporter.Update(progress.Update{JobID: s.jobID, Stage: stage, Percent: pct, Message: msg})
}

// emitPlanned sends a final "planned" update and reporter result.
func (s *Service) emitPlanned(pl *Plan) {
	name := filepath.Base(pl.OutputPath)
	s.reporter.Update(progress.Update{
		JobID:   s.jobID,
		Stage:   progress.StageCompleted,
		Percent: 100,
		Message: fmt.Sprintf("Planned: %s (%s, %s)", name, pl.Quality, format.ApproxBytes(pl.EstBytes)),
	})
	s.reporter.Result(progress.Result{JobID: s.jobID, OutputPath: pl.OutputPath})
}

// emitSaved sends a final "saved" update and reporter result.
func (s *Service) emitSaved(dm model.DownloadedMedia, verb string) {
	s.reporter.Update(progress.Update{
		JobID:   s.jobID,
		Stage:   progress.StageCompleted,
		Percent: 100,
		Message: fmt.Sprintf("%s: %s (%s)", verb, filepath.Base(dm.Path), format.HumanizeBytes(dm.Bytes)),
	})
	s.reporter.Result(progress.Result{JobID: s.jobID, OutputPath: dm.Path, Bytes: dm.Bytes})
}

// clearDir empties dir so a retry does not pick up a previous attempt's files.
func clearDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}

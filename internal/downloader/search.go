package downloader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"vidsnag/internal/model"
	"vidsnag/internal/progress"
	"vidsnag/internal/util"
	"vidsnag/internal/util/bitrate"
)

const (
	DefaultSearchLimit = 10
	MaxSearchLimit     = 50
)

// Search runs a flat "ytsearchN:" query and returns the hits in engine order.
func Search(ctx context.Context, opts Options, query string, limit int) ([]model.SearchResult, error) {
	if opts.DownloaderPath == "" {
		return nil, errors.New("downloader path is required")
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("empty search query")
	}
	limit = ClampSearchLimit(limit)

	args := []string{
		"ytsearch" + strconv.Itoa(limit) + ":" + query,
		"--flat-playlist",
		"--dump-single-json",
		"--no-warnings",
	}
	args = append(args, opts.ExtraArgs...)

	opts.logCommand(args)
	res, runErr := opts.runner().Run(ctx, util.CmdSpec{
		Path:          opts.DownloaderPath,
		Args:          args,
		StderrLine:    opts.verboseLines(progress.StreamStderr),
		CaptureStdout: true,
	})
	if runErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, ClassifyError(res.Stderr, runErr)
	}

	var payload searchPayload
	if err := json.Unmarshal(res.Stdout, &payload); err != nil {
		return nil, fmt.Errorf("parse search JSON: %w", err)
	}

	out := make([]model.SearchResult, 0, len(payload.Entries))
	for _, e := range payload.Entries {
		if e.ID == "" {
			continue
		}
		out = append(out, e.toResult())
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w for %q", ErrNoResults, query)
	}
	return out, nil
}

// ClampSearchLimit applies the default and the upper bound to a result count.
func ClampSearchLimit(limit int) int {
	if limit <= 0 {
		return DefaultSearchLimit
	}
	return bitrate.Clamp(limit, 1, MaxSearchLimit)
}

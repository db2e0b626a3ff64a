package downloader

import (
	"context"
	"errors"
	"strings"
)

// Failure kinds recognised in the engine's error output.
var (
	ErrUnavailable    = errors.New("video unavailable")
	ErrPrivate        = errors.New("video is private")
	ErrAgeRestricted  = errors.New("video is age restricted")
	ErrGeoBlocked     = errors.New("video is not available in this region")
	ErrRateLimited    = errors.New("rate limited (HTTP 429)")
	ErrForbidden      = errors.New("access forbidden (HTTP 403)")
	ErrUnsupportedURL = errors.New("unsupported URL")
	ErrNetwork        = errors.New("network error")
	ErrToolFailed     = errors.New("downloader failed")
	ErrNoResults      = errors.New("no results")
)

// ToolError carries the classified kind together with the engine's message.
type ToolError struct {
	Kind   error
	Detail string
	Err    error
}

func (e *ToolError) Error() string {
	if e.Detail == "" {
		return e.Kind.Error()
	}
	return e.Kind.Error() + ": " + e.Detail
}

func (e *ToolError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Ordered: the first matching group wins. Private/age/geo messages often also
// contain "unavailable", so they are checked first.
var errorPatterns = []struct {
	kind    error
	needles []string
}{
	{ErrPrivate, []string{"private video", "this video is private"}},
	{ErrAgeRestricted, []string{"confirm your age", "age-restricted", "age restricted", "inappropriate for some users"}},
	{ErrGeoBlocked, []string{"available in your country", "blocked it in your country", "geo restrict", "geo-restrict"}},
	{ErrUnavailable, []string{"video unavailable", "this video is not available", "has been removed", "does not exist"}},
	{ErrRateLimited, []string{"http error 429", "too many requests"}},
	{ErrForbidden, []string{"http error 403", "forbidden"}},
	{ErrUnsupportedURL, []string{"unsupported url", "is not a valid url"}},
	{ErrNetwork, []string{"unable to download webpage", "timed out", "connection reset", "temporary failure in name resolution", "network is unreachable", "getaddrinfo failed", "ssl:"}},
}

// ClassifyError maps a failed engine run to one of the sentinel errors above.
// Context cancellation is passed through untouched.
func ClassifyError(stderr []byte, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	errLines := errorLines(string(stderr))
	haystack := strings.ToLower(strings.Join(errLines, "\n"))
	if haystack == "" {
		haystack = strings.ToLower(string(stderr))
	}

	detail := ""
	if len(errLines) > 0 {
		detail = strings.TrimSpace(strings.TrimPrefix(errLines[len(errLines)-1], "ERROR:"))
	}

	for _, p := range errorPatterns {
		for _, n := range p.needles {
			if strings.Contains(haystack, n) {
				return &ToolError{Kind: p.kind, Detail: detail, Err: err}
			}
		}
	}
	if detail == "" {
		detail = err.Error()
	}
	return &ToolError{Kind: ErrToolFailed, Detail: detail, Err: err}
}

// IsRetryable reports whether a fresh attempt (possibly with other headers) may succeed.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return errors.Is(err, ErrRateLimited) ||
		errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrNetwork) ||
		errors.Is(err, ErrToolFailed)
}

func errorLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "ERROR:") {
			out = append(out, line)
		}
	}
	return out
}

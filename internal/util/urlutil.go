package util

import (
	"errors"
	"net/url"
	"strings"
)

// InputKind tells whether user input is a link or a free-text search query.
type InputKind int

const (
	InputQuery InputKind = iota
	InputURL
)

var youtubeHosts = map[string]bool{
	"youtube.com":          true,
	"m.youtube.com":        true,
	"music.youtube.com":    true,
	"youtu.be":             true,
	"youtube-nocookie.com": true,
}

// ClassifyInput decides whether raw is a URL or a search query.
// Strings with an explicit scheme and host are URLs. Bare "host/path" strings
// count as URLs only for known video hosts, so "lofi beats" stays a query.
func ClassifyInput(raw string) (InputKind, string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return InputQuery, "", errors.New("empty input")
	}
	if strings.ContainsAny(s, " \t") {
		return InputQuery, s, nil
	}
	if u, err := url.Parse(s); err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != "" {
		return InputURL, s, nil
	}
	if u, err := url.Parse("https://" + s); err == nil && u.Host != "" && isYouTubeHost(u.Host) {
		return InputURL, u.String(), nil
	}
	return InputQuery, s, nil
}

func isYouTubeHost(host string) bool {
	h := strings.ToLower(host)
	h = strings.TrimPrefix(h, "www.")
	return youtubeHosts[h]
}

// NormalizeURL rewrites the various YouTube link shapes (youtu.be, shorts, live,
// embed, music) into a canonical watch URL without timestamp or playlist parameters.
// Other URLs are returned unchanged.
func NormalizeURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" || !isYouTubeHost(u.Host) {
		return raw
	}

	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")

	var id string
	switch {
	case host == "youtu.be" && len(parts) >= 1:
		id = parts[0]
	case len(parts) >= 2 && (parts[0] == "shorts" || parts[0] == "live" || parts[0] == "embed" || parts[0] == "v"):
		id = parts[1]
	case len(parts) >= 1 && parts[0] == "watch":
		id = u.Query().Get("v")
	}
	if id == "" {
		return raw
	}
	return "https://www.youtube.com/watch?v=" + url.QueryEscape(id)
}

// WatchURL builds a canonical URL from a video ID.
func WatchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + url.QueryEscape(id)
}

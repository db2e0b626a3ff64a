package retry

import "sync"

// DefaultReferer is sent with every engine request.
const DefaultReferer = "https://www.youtube.com/"

// DefaultUserAgents covers common desktop and mobile browsers.
var DefaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64; rv:125.0) Gecko/20100101 Firefox/125.0",
	"Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Mobile Safari/537.36",
	"Mozilla/5.0 (iPhone; CPU iPhone OS 17_4 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Mobile/15E148 Safari/604.1",
}

// HeaderRotator hands out User-Agent strings round-robin.
type HeaderRotator struct {
	mu      sync.Mutex
	agents  []string
	referer string
	next    int
}

// NewHeaderRotator returns a rotator over agents, or DefaultUserAgents when
// agents is empty. An empty referer uses DefaultReferer.
func NewHeaderRotator(agents []string, referer string) *HeaderRotator {
	if len(agents) == 0 {
		agents = DefaultUserAgents
	}
	if referer == "" {
		referer = DefaultReferer
	}
	cp := make([]string, len(agents))
	copy(cp, agents)
	return &HeaderRotator{agents: cp, referer: referer}
}

// Next returns the next User-Agent.
func (h *HeaderRotator) Next() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	ua := h.agents[h.next%len(h.agents)]
	h.next++
	return ua
}

// Args returns engine flags carrying the next User-Agent and the referer.
func (h *HeaderRotator) Args() []string {
	if h == nil {
		return nil
	}
	return []string{"--user-agent", h.Next(), "--add-header", "Referer:" + h.referer}
}

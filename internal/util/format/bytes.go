package format

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// HumanizeBytes converts a byte count into a human-readable string (e.g., "1.5 MiB").
func HumanizeBytes(b int64) string {
	if b < 0 {
		b = 0
	}
	return humanize.IBytes(uint64(b))
}

// ApproxBytes renders an estimated size, or "?" when unknown.
func ApproxBytes(b int64) string {
	if b <= 0 {
		return "?"
	}
	return "~" + HumanizeBytes(b)
}

// Duration renders seconds as M:SS or H:MM:SS.
func Duration(sec float64) string {
	if sec <= 0 {
		return "--:--"
	}
	d := time.Duration(sec) * time.Second
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// Count renders large integers with thousands separators.
func Count(n int64) string {
	return humanize.Comma(n)
}

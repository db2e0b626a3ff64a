package bitrate

// EstimateBytes returns the approximate size of a stream of kbps kilobits per
// second lasting durationSec seconds. It returns 0 when either input is unknown.
func EstimateBytes(kbps float64, durationSec float64) int64 {
	if kbps <= 0 || durationSec <= 0 {
		return 0
	}
	return int64(kbps * 1000 / 8 * durationSec)
}

// Clamp returns v constrained to [min, max].
func Clamp(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

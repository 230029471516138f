package probe

import "statusdeck/internals/modules/result"

// Classify turns a raw probe measurement into a health verdict.
// Any status code outside [200, 400) means the target is down, no matter
// how fast it answered. A zero threshold disables the degraded check.
func Classify(httpStatus int, responseTimeMs int64, degradedThresholdMs int32) result.Status {
	if httpStatus < 200 || httpStatus >= 400 {
		return result.StatusDown
	}
	if degradedThresholdMs > 0 && responseTimeMs > int64(degradedThresholdMs) {
		return result.StatusDegraded
	}
	return result.StatusUp
}

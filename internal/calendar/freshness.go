package calendar

import "time"

// IsFresh reports whether data acquired at acquiredAt is still usable at now.
// A zero acquiredAt is never fresh.
func IsFresh(acquiredAt time.Time, ttl time.Duration, now time.Time) bool {
	if acquiredAt.IsZero() {
		return false
	}
	return !acquiredAt.Add(ttl).Before(now)
}

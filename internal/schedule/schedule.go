package schedule

import (
	"time"
)

// InQuietHours reports whether now (UTC) falls into a configured quiet hour.
func InQuietHours(now time.Time, quietHours []int) bool {
	h := now.UTC().Hour()
	for _, q := range quietHours {
		if q == h {
			return true
		}
	}
	return false
}

// NextWindow returns the next time outside quiet hours.
func NextWindow(now time.Time, quietHours []int) time.Time {
	for i := 0; i < 48; i++ { // search up to 2 days ahead
		cand := now.Add(time.Duration(i) * time.Hour)
		if !InQuietHours(cand, quietHours) {
			return cand
		}
	}
	return now.Add(15 * time.Minute)
}

package analytics

import (
	"sort"
	"time"

	"rugguard/internal/store/botlog"
)

// HourlyReports aggregates posted reports into per-hour buckets keyed by
// risk label.
func HourlyReports(reports []botlog.Report) map[time.Time]map[string]int {
	buckets := make(map[time.Time]map[string]int)
	for _, r := range reports {
		key := time.Date(r.TS.Year(), r.TS.Month(), r.TS.Day(), r.TS.Hour(), 0, 0, 0, time.UTC)
		if _, ok := buckets[key]; !ok {
			buckets[key] = make(map[string]int)
		}
		buckets[key][r.Risk]++
	}
	return buckets
}

// SortedBucketKeys returns sorted hour keys.
func SortedBucketKeys(m map[time.Time]map[string]int) []time.Time {
	keys := make([]time.Time, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })
	return keys
}

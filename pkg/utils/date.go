package utils

import "time"

// DayBucket coarsens a timestamp to its calendar day in the given location.
// Cache keys built from the bucket stay stable across repeated runs within
// the same day even when exact fetch timestamps differ.
func DayBucket(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format("2006-01-02")
}

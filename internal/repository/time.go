package repository

import "time"

// timeLayout is the stored timestamp format. RFC 3339 sorts
// lexicographically, so the ts index orders correctly.
const timeLayout = time.RFC3339Nano

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

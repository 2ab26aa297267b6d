// Package utils provides shared utility functions.
package utils

import (
	"fmt"
	"strings"
	"time"
)

// FeedTimestampLayout is the layout of the snapshot timestamp (UTC).
const FeedTimestampLayout = "2006-01-02 15:04:05"

// FormatBillions formats a value in billions with an explicit sign.
func FormatBillions(n float64) string {
	sign := ""
	if n >= 0 {
		sign = "+"
	}
	return fmt.Sprintf("%s%.2f", sign, n)
}

// ParseFeedTimestamp parses a snapshot timestamp, which is UTC.
func ParseFeedTimestamp(s string) (time.Time, error) {
	return time.ParseInLocation(FeedTimestampLayout, strings.TrimSpace(s), time.UTC)
}

// FormatTimestamp renders a snapshot timestamp in the given location.
// Unparseable input is returned unchanged.
func FormatTimestamp(s string, loc *time.Location) string {
	t, err := ParseFeedTimestamp(s)
	if err != nil {
		return s
	}
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(FeedTimestampLayout)
}

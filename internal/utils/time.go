package utils

import (
	"time"

	"github.com/jinzhu/now"
)

// DayBounds returns [start, end) of the calendar day containing t in loc.
func DayBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	day := now.With(t.In(loc))
	start := day.BeginningOfDay()
	return start, start.AddDate(0, 0, 1)
}

func FormatTimeISO(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

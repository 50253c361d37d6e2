package authenticity

import (
	"strings"
	"time"
)

var dateLayouts = []string{
	"2006-01-02",
	"2006-01",
	"2006/01",
	"01/2006",
	"1/2006",
	"Jan 2006",
	"January 2006",
	"Jan. 2006",
	"2006",
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseEndDate understands "Present" style markers as now.
func parseEndDate(s string, now time.Time) (end time.Time, present, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return time.Time{}, false, false
	case "present", "current", "now", "today":
		return now, true, true
	}
	t, ok := parseDate(s)
	return t, false, ok
}

// monthsBetween counts 30-day months.
func monthsBetween(start, end time.Time) float64 {
	return end.Sub(start).Hours() / 24 / 30
}

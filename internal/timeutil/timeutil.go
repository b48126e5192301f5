// ABOUTME: Timestamp normalization for feed-supplied publish dates
// ABOUTME: Also provides period helpers for bulk read-marking (today, week, month)

package timeutil

import (
	"strings"
	"time"
)

// feedDateFormats is the prioritized list of accepted publish-date formats.
// RFC 1123/822 variants come first because RSS pubDate overwhelmingly uses
// them; ISO/RFC 3339 variants cover Atom.
var feedDateFormats = []string{
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"Mon, 2 Jan 2006 15:04 -0700",
	"Mon, 2 Jan 2006 15:04 MST",
	time.RFC822Z,
	time.RFC822,
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02 Jan 2006 15:04:05 -0700",
	"02 Jan 2006 15:04:05 MST",
	"2 Jan 2006 15:04:05 -0700",
	"2 Jan 2006",
	time.ANSIC,
	time.UnixDate,
}

// Normalize converts a free-form feed date string into a canonical UTC
// timestamp. It never fails: the second return value is false when no
// accepted format matches, and callers treat such entries as having an
// unknown publish time (they sort after all dated entries).
func Normalize(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	for _, format := range feedDateFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// StartOfToday returns midnight (00:00:00) of the current day in local time
func StartOfToday() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

// StartOfYesterday returns midnight (00:00:00) of yesterday in local time
func StartOfYesterday() time.Time {
	return StartOfToday().AddDate(0, 0, -1)
}

// EndOfYesterday returns the last moment of yesterday (start of today) in local time
func EndOfYesterday() time.Time {
	return StartOfToday()
}

// StartOfWeek returns midnight of the most recent Sunday in local time
// Note: Week starts on Sunday
func StartOfWeek() time.Time {
	today := StartOfToday()
	weekday := int(today.Weekday())
	return today.AddDate(0, 0, -weekday)
}

// StartOfMonth returns midnight of the first day of the current month in local time
func StartOfMonth() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
}

// ParsePeriod converts a period string to a time.Time representing the cutoff
// Supported values: "today", "yesterday", "week", "month"
// Returns the start of that period (entries before this time would be marked)
func ParsePeriod(period string) (time.Time, bool) {
	switch period {
	case "today":
		return StartOfToday(), true
	case "yesterday":
		return StartOfYesterday(), true
	case "week":
		return StartOfWeek(), true
	case "month":
		return StartOfMonth(), true
	default:
		return time.Time{}, false
	}
}

package util

import (
    "strings"
    "time"
)

// ISODate is the calendar date layout used for exports and API payloads.
const ISODate = "2006-01-02"

// dayFirstLayouts lists the accepted POS timestamp layouts. Day-first layouts
// are tried before ISO ones; single-digit day/month/hour are accepted.
var dayFirstLayouts = []string{
    "2/1/2006 15:04",
    "2/1/2006 15:04:05",
    "2/1/2006",
    "2/1/06 15:04",
    "2/1/06",
    "2006-01-02 15:04:05",
    "2006-01-02T15:04:05",
    "2006-01-02 15:04",
    "2006-01-02",
    time.RFC3339,
}

// ParseDayFirst parses a POS timestamp using the day-first convention
// (01/12/2010 is 1 December). Dashes and dots are accepted as separators in
// day-first dates. Returns (t, true) on success; t is in UTC.
func ParseDayFirst(s string) (time.Time, bool) {
    s = strings.TrimSpace(s)
    if s == "" {
        return time.Time{}, false
    }
    candidates := []string{s}
    if !looksISO(s) {
        if n := strings.NewReplacer("-", "/", ".", "/").Replace(s); n != s {
            candidates = append(candidates, n)
        }
    }
    for _, c := range candidates {
        for _, layout := range dayFirstLayouts {
            if t, err := time.ParseInLocation(layout, c, time.UTC); err == nil {
                return t.UTC(), true
            }
        }
    }
    return time.Time{}, false
}

func looksISO(s string) bool {
    return len(s) >= 10 && s[4] == '-' && s[7] == '-'
}

// Day truncates t to midnight UTC.
func Day(t time.Time) time.Time {
    y, m, d := t.UTC().Date()
    return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// WeekEnding returns the Sunday that closes the week containing t. A Sunday
// maps to itself regardless of time of day.
func WeekEnding(t time.Time) time.Time {
    d := Day(t)
    offset := (7 - int(d.Weekday())) % 7
    return d.AddDate(0, 0, offset)
}

// WeeklyRange returns n consecutive week-ending Sundays, the first being the
// first Sunday on or after start.
func WeeklyRange(start time.Time, n int) []time.Time {
    if n <= 0 {
        return nil
    }
    out := make([]time.Time, n)
    first := WeekEnding(start)
    for i := range out {
        out[i] = first.AddDate(0, 0, 7*i)
    }
    return out
}

package util

import (
    "time"
)

const dayLayout = "2006-01-02"

// Day truncates t to its UTC civil day. All engine math is day-granular;
// truncating once at the boundary keeps the rest of the code free of
// time-of-day noise.
func Day(t time.Time) time.Time {
    y, m, d := t.UTC().Date()
    return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DayKey formats t as a YYYY-MM-DD map key.
func DayKey(t time.Time) string {
    return Day(t).Format(dayLayout)
}

// ParseDay parses a YYYY-MM-DD string. Returns (t, true) if it parsed.
func ParseDay(s string) (time.Time, bool) {
    if s == "" {
        return time.Time{}, false
    }
    t, err := time.Parse(dayLayout, s)
    if err != nil {
        return time.Time{}, false
    }
    return t, true
}

// DaysBetween returns the whole-day distance from a to b (positive when b
// is after a).
func DaysBetween(a, b time.Time) int {
    return int(Day(b).Sub(Day(a)) / (24 * time.Hour))
}

// WeekdayIndex maps a date to 0=Monday .. 6=Sunday.
func WeekdayIndex(t time.Time) int {
    wd := int(Day(t).Weekday())
    return (wd + 6) % 7
}

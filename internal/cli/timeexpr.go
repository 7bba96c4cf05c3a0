// Package cli holds small parsers shared by command flags.
package cli

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// "2h", "+2h", "in 2h", "2h ago"; units mo, w, d, h, m.
var offsetRegex = regexp.MustCompile(`^(?:(\+|in\s+))?(\d+)\s*(mo|w|d|h|m)(\s+ago)?$`)

// "HH:MM" at the end of a day expression such as "tomorrow 10:30".
var clockRegex = regexp.MustCompile(`^(.*\S)\s+(\d{1,2}):(\d{2})$`)

var absoluteLayouts = []string{time.RFC3339, "2006-01-02 15:04", "2006-01-02T15:04", "2006-01-02"}

// ParseTime reads a time flag value. Besides RFC3339, "YYYY-MM-DD" and
// "YYYY-MM-DD HH:MM" (in now's location) it accepts day names ("today",
// "tomorrow", "fri", "next mon"), optionally followed by a clock time, and
// offsets from now ("30m", "in 2h", "1d ago").
func ParseTime(s string, now time.Time) (time.Time, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return time.Time{}, fmt.Errorf("empty time expression")
	}

	for _, layout := range absoluteLayouts {
		if t, err := time.ParseInLocation(layout, raw, now.Location()); err == nil {
			return t, nil
		}
	}

	input := strings.ToLower(raw)
	if m := offsetRegex.FindStringSubmatch(input); m != nil {
		if m[1] != "" && m[4] != "" {
			return time.Time{}, fmt.Errorf("invalid time expression %q", raw)
		}
		n, err := strconv.Atoi(m[2])
		if err != nil || n < 1 {
			return time.Time{}, fmt.Errorf("invalid time expression %q", raw)
		}
		sign := 1
		if m[4] != "" {
			sign = -1
		}
		return addOffset(now, sign*n, m[3]), nil
	}

	day, clock := input, ""
	if m := clockRegex.FindStringSubmatch(input); m != nil {
		day, clock = m[1], m[2]+":"+m[3]
	}
	base, ok := parseDay(day, now)
	if !ok {
		return time.Time{}, fmt.Errorf("invalid time expression %q", raw)
	}
	if clock == "" {
		return base, nil
	}
	hh, mm, _ := strings.Cut(clock, ":")
	h, _ := strconv.Atoi(hh)
	m, _ := strconv.Atoi(mm)
	if h > 23 || m > 59 {
		return time.Time{}, fmt.Errorf("invalid clock time in %q", raw)
	}
	return base.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute), nil
}

// StartOfDay truncates t to midnight in its location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func parseDay(expr string, now time.Time) (time.Time, bool) {
	today := StartOfDay(now)
	switch expr {
	case "today":
		return today, true
	case "tomorrow":
		return today.AddDate(0, 0, 1), true
	case "yesterday":
		return today.AddDate(0, 0, -1), true
	}

	next := false
	if rest, ok := strings.CutPrefix(expr, "next "); ok {
		next, expr = true, strings.TrimSpace(rest)
	} else if rest, ok := strings.CutPrefix(expr, "this "); ok {
		expr = strings.TrimSpace(rest)
	}
	weekday, ok := weekdays[expr]
	if !ok {
		return time.Time{}, false
	}
	delta := (int(weekday) - int(today.Weekday()) + 7) % 7
	if next && delta == 0 {
		delta = 7
	}
	return today.AddDate(0, 0, delta), true
}

var weekdays = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday,
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tues": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "weds": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thur": time.Thursday, "thurs": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
}

func addOffset(now time.Time, n int, unit string) time.Time {
	switch unit {
	case "mo":
		return now.AddDate(0, n, 0)
	case "w":
		return now.AddDate(0, 0, 7*n)
	case "d":
		return now.AddDate(0, 0, n)
	case "h":
		return now.Add(time.Duration(n) * time.Hour)
	default:
		return now.Add(time.Duration(n) * time.Minute)
	}
}

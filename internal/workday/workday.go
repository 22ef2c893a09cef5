// Package workday turns a calendar DayType into the final work/rest
// verdict and parses the target date given on the command line or API.
package workday

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"choliday/internal/model"
)

// Today is the date argument meaning the current local date.
const Today = "today"

// DateHelp describes the accepted date formats.
const DateHelp = `date as "today", "YYYYMMDD", "YYYYMMDDHHMMSS" or UNIX timestamp in milliseconds`

// Decide maps a calendar verdict to work (true) or rest (false). Normal
// falls back to the weekday rule. A Conflict cannot come out of a priority
// policy; it is treated as a work day if it ever does.
func Decide(dt model.DayType, date time.Time, workdays map[time.Weekday]bool) bool {
	switch dt {
	case model.Work, model.Conflict:
		return true
	case model.Rest:
		return false
	case model.Normal:
		return IsWeekday(date, workdays)
	}
	panic(fmt.Sprintf("workday: unhandled day type %v", dt))
}

// IsWeekday applies the plain weekday rule: the configured set when given,
// otherwise Monday through Friday.
func IsWeekday(date time.Time, workdays map[time.Weekday]bool) bool {
	wd := date.Weekday()
	if workdays != nil {
		return workdays[wd]
	}
	return wd != time.Saturday && wd != time.Sunday
}

// ParseDate parses a target date. Wall-clock forms are read as UTC, which
// is how calendar values without a zone are read too.
//
// "today" takes the local calendar date of now at 12:00:00. All-day events
// cover [00:00:00, 23:59:59) of their date, so an end-of-day instant would
// fall outside every one of them.
func ParseDate(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, Today) {
		y, m, d := now.Local().Date()
		return time.Date(y, m, d, 12, 0, 0, 0, time.UTC), nil
	}

	switch len(s) {
	case len("20060102"):
		if t, err := time.Parse("20060102", s); err == nil {
			return t, nil
		}
	case len("20060102150405"):
		if t, err := time.Parse("20060102150405", s); err == nil {
			return t, nil
		}
	}

	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q: want %s", s, DateHelp)
}

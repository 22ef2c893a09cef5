package ics

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	// Embed the IANA database so TZID lookups do not depend on the host.
	_ "time/tzdata"
)

// Role tells the resolver which end of an event a value bounds. It decides
// how all-day dates and ambiguous local times are pinned.
type Role int

const (
	RoleStart Role = iota
	RoleEnd
)

func (r Role) String() string {
	if r == RoleEnd {
		return "end"
	}
	return "start"
}

var (
	ErrMissingValue    = errors.New("missing datetime value")
	ErrMalformed       = errors.New("malformed datetime value")
	ErrNonexistentTime = errors.New("local time does not exist in zone")
	ErrUnknownZone     = errors.New("unknown time zone")
)

// ResolveError reports a DTSTART/DTEND value that could not be turned into
// an instant. It unwraps to one of the Err* sentinels above.
type ResolveError struct {
	Value string
	Zone  string
	Err   error
}

func (e *ResolveError) Error() string {
	if e.Zone != "" {
		return fmt.Sprintf("resolve %q (TZID=%s): %v", e.Value, e.Zone, e.Err)
	}
	return fmt.Sprintf("resolve %q: %v", e.Value, e.Err)
}

func (e *ResolveError) Unwrap() error { return e.Err }

const (
	layoutDate     = "20060102"
	layoutDateTime = "20060102T150405"
)

// Resolve converts a raw iCalendar DATE or DATE-TIME value into an instant.
//
//   - YYYYMMDD: all-day; start role gives 00:00:00 UTC, end role 23:59:59 UTC.
//   - YYYYMMDDTHHMMSSZ: UTC.
//   - YYYYMMDDTHHMMSS with zone: wall clock in that IANA zone. An ambiguous
//     reading (clock turned back) picks the earlier instant for start and the
//     later one for end; a skipped reading fails.
//   - YYYYMMDDTHHMMSS without zone: wall clock taken as UTC.
//
// Instants resolved in a named zone keep that location.
func Resolve(raw, zone string, role Role) (time.Time, error) {
	value := strings.ToUpper(strings.TrimSpace(raw))
	if value == "" {
		return time.Time{}, &ResolveError{Value: raw, Zone: zone, Err: ErrMissingValue}
	}

	if len(value) == len(layoutDate) {
		d, err := time.Parse(layoutDate, value)
		if err != nil {
			return time.Time{}, &ResolveError{Value: raw, Err: ErrMalformed}
		}
		if role == RoleEnd {
			return d.Add(23*time.Hour + 59*time.Minute + 59*time.Second), nil
		}
		return d, nil
	}

	if strings.HasSuffix(value, "Z") {
		t, err := time.Parse(layoutDateTime, strings.TrimSuffix(value, "Z"))
		if err != nil {
			return time.Time{}, &ResolveError{Value: raw, Err: ErrMalformed}
		}
		return t, nil
	}

	wall, err := time.Parse(layoutDateTime, value)
	if err != nil {
		return time.Time{}, &ResolveError{Value: raw, Zone: zone, Err: ErrMalformed}
	}

	zone = strings.Trim(strings.TrimSpace(zone), `"`)
	if zone == "" {
		return wall, nil
	}

	loc, err := time.LoadLocation(zone)
	if err != nil {
		return time.Time{}, &ResolveError{Value: raw, Zone: zone, Err: ErrUnknownZone}
	}

	candidates := localCandidates(wall, loc)
	switch len(candidates) {
	case 0:
		return time.Time{}, &ResolveError{Value: raw, Zone: zone, Err: ErrNonexistentTime}
	case 1:
		return candidates[0], nil
	default:
		if role == RoleEnd {
			return candidates[len(candidates)-1], nil
		}
		return candidates[0], nil
	}
}

// localCandidates returns, in ascending order, every instant whose wall
// clock in loc equals the wall clock of w (w is read as UTC fields).
//
// time.Date silently normalizes skipped and repeated readings, so the
// candidates are found by trying each UTC offset the zone uses within a day
// either side of w and keeping the ones that round-trip.
func localCandidates(w time.Time, loc *time.Location) []time.Time {
	probes := []time.Time{
		w.Add(-24 * time.Hour),
		w,
		w.Add(24 * time.Hour),
		time.Date(w.Year(), w.Month(), w.Day(), w.Hour(), w.Minute(), w.Second(), 0, loc),
	}

	seen := make(map[int]bool, len(probes))
	var out []time.Time
	for _, p := range probes {
		_, offset := p.In(loc).Zone()
		if seen[offset] {
			continue
		}
		seen[offset] = true

		inst := w.Add(-time.Duration(offset) * time.Second).In(loc)
		if sameWallClock(inst, w) {
			out = append(out, inst)
		}
	}

	slices.SortFunc(out, func(a, b time.Time) int { return a.Compare(b) })
	return out
}

func sameWallClock(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd &&
		a.Hour() == b.Hour() && a.Minute() == b.Minute() && a.Second() == b.Second()
}

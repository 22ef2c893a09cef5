package model

import (
	"fmt"
	"strings"
	"time"
)

// Event is a single calendar event as extracted from a VEVENT block.
//
// Start and End carry absolute instants. A timestamp that could not be
// resolved is left at the Unix epoch; a missing DTEND yields End == Start.
type Event struct {
	Summary string
	// Description is nil when the VEVENT has no DESCRIPTION property.
	Description *string

	Start time.Time
	End   time.Time

	// RRule is the raw RRULE value, empty for non-recurring events.
	RRule   string
	ExDates []time.Time
}

// Contains reports whether t falls in the half-open interval [Start, End).
func (e Event) Contains(t time.Time) bool {
	return !t.Before(e.Start) && t.Before(e.End)
}

// DayType is the classification of a single event, or the aggregated
// verdict for a day.
type DayType int

const (
	Normal DayType = iota
	Work
	Rest
	Conflict
)

func (d DayType) String() string {
	switch d {
	case Normal:
		return "normal"
	case Work:
		return "work"
	case Rest:
		return "rest"
	case Conflict:
		return "conflict"
	}
	return fmt.Sprintf("DayType(%d)", int(d))
}

// Priority decides how conflicting per-event classifications are merged.
type Priority int

const (
	WorkOverRest Priority = iota
	RestOverWork
	KeepCurrent
	UseLatest
)

var priorityNames = map[Priority]string{
	WorkOverRest: "WorkOverRest",
	RestOverWork: "RestOverWork",
	KeepCurrent:  "KeepCurrent",
	UseLatest:    "UseLatest",
}

func (p Priority) String() string {
	if name, ok := priorityNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Priority(%d)", int(p))
}

// ParsePriority accepts the canonical names ("WorkOverRest") as well as
// snake/kebab case spellings ("work_over_rest", "rest-over-work").
func ParsePriority(s string) (Priority, error) {
	key := strings.ToLower(strings.NewReplacer("_", "", "-", "", " ", "").Replace(strings.TrimSpace(s)))
	for p, name := range priorityNames {
		if strings.ToLower(name) == key {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown priority %q (want WorkOverRest, RestOverWork, KeepCurrent or UseLatest)", s)
}

// MarshalText implements encoding.TextMarshaler.
func (p Priority) MarshalText() ([]byte, error) {
	name, ok := priorityNames[p]
	if !ok {
		return nil, fmt.Errorf("invalid priority %d", int(p))
	}
	return []byte(name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler, which yaml.v3 and
// encoding/json both honour.
func (p *Priority) UnmarshalText(b []byte) error {
	v, err := ParsePriority(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

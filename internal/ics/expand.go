package ics

import (
	"time"

	"github.com/teambition/rrule-go"

	appLog "choliday/internal/log"
	"choliday/internal/model"
)

// ExpandAround replaces every recurring event by its occurrences whose
// [Start, End) interval contains at. Occurrences keep the base event's
// duration and honour EXDATE. Non-recurring events pass through untouched
// and the relative order of the list is preserved.
//
// An RRULE that cannot be parsed leaves the base event as is.
func ExpandAround(events []model.Event, at time.Time) []model.Event {
	out := make([]model.Event, 0, len(events))
	for _, ev := range events {
		if ev.RRule == "" {
			out = append(out, ev)
			continue
		}

		occ, err := occurrencesAt(ev, at)
		if err != nil {
			appLog.Error("expand: failed to parse RRULE", err, "summary", ev.Summary, "rrule", ev.RRule)
			out = append(out, ev)
			continue
		}
		out = append(out, occ...)
	}
	return out
}

func occurrencesAt(ev model.Event, at time.Time) ([]model.Event, error) {
	r, err := rrule.StrToRRule(ev.RRule)
	if err != nil {
		return nil, err
	}
	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		// Best effort: align EXDATE location with event's start.
		set.ExDate(ex.In(ev.Start.Location()))
	}

	dur := ev.End.Sub(ev.Start)
	loc := ev.Start.Location()
	starts := set.Between(at.Add(-dur).In(loc), at.In(loc), true)

	out := make([]model.Event, 0, len(starts))
	for _, s := range starts {
		occ := ev
		occ.Start = s
		occ.End = s.Add(dur)
		occ.RRule = ""
		occ.ExDates = nil
		if occ.Contains(at) {
			out = append(out, occ)
		}
	}
	return out, nil
}

package judge

import (
	"fmt"
	"slices"
	"time"

	"choliday/internal/model"
)

// Rules bundles the configured patterns and conflict policy.
type Rules struct {
	Work     []string
	Rest     []string
	Priority model.Priority
}

// Resolve classifies the events selected by at (all of them when at is
// nil) and merges the non-Normal results under rules.Priority.
//
// Selection keeps the incoming order (source order, then in-file order);
// KeepCurrent and UseLatest look at the first and last classified event in
// that order, not in chronological order.
func Resolve(events []model.Event, at *time.Time, rules Rules) model.DayType {
	types := make([]model.DayType, 0, len(events))
	for _, ev := range events {
		if at != nil && !ev.Contains(*at) {
			continue
		}
		if dt := Classify(ev, rules.Work, rules.Rest); dt != model.Normal {
			types = append(types, dt)
		}
	}
	return merge(types, rules.Priority)
}

// merge applies policy to classifications that are already free of Normal.
func merge(types []model.DayType, policy model.Priority) model.DayType {
	if len(types) == 0 {
		return model.Normal
	}

	switch policy {
	case model.WorkOverRest:
		if slices.Contains(types, model.Work) || slices.Contains(types, model.Conflict) {
			return model.Work
		}
		return model.Rest
	case model.RestOverWork:
		if slices.Contains(types, model.Rest) || slices.Contains(types, model.Conflict) {
			return model.Rest
		}
		return model.Work
	case model.KeepCurrent:
		return restOrWork(types[0])
	case model.UseLatest:
		return restOrWork(types[len(types)-1])
	}
	panic(fmt.Sprintf("judge: unhandled priority %v", policy))
}

// restOrWork collapses a single classification: Rest stays Rest, Work and
// Conflict become Work.
func restOrWork(dt model.DayType) model.DayType {
	if dt == model.Rest {
		return model.Rest
	}
	return model.Work
}

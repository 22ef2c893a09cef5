package judge

import (
	"strings"

	"choliday/internal/model"
)

// Classify maps one event to a DayType by substring matching.
//
// The summary is tested first. Only when it matches neither pattern set is
// the description consulted, with the same mapping. The two texts are
// never tested together.
func Classify(ev model.Event, work, rest []string) model.DayType {
	if dt := classifyText(ev.Summary, work, rest); dt != model.Normal {
		return dt
	}
	if ev.Description == nil {
		return model.Normal
	}
	return classifyText(*ev.Description, work, rest)
}

func classifyText(text string, work, rest []string) model.DayType {
	workHit := containsAny(text, work)
	restHit := containsAny(text, rest)

	switch {
	case workHit && restHit:
		return model.Conflict
	case workHit:
		return model.Work
	case restHit:
		return model.Rest
	default:
		return model.Normal
	}
}

func containsAny(text string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}

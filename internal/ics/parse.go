package ics

import (
	"bytes"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "choliday/internal/log"
	"choliday/internal/model"
)

// NoSummary is the summary given to events without a SUMMARY value.
const NoSummary = "NO_SUMMARY"

// ParseCalendar extracts events from an iCalendar payload.
//
// The payload may hold several VCALENDAR blocks back to back; a block the
// iCalendar parser rejects is logged and skipped without affecting the
// others. Events keep their in-file order. When at is non-nil only events
// whose [Start, End) interval contains *at are returned.
//
// src only labels log lines.
func ParseCalendar(src string, body []byte, at *time.Time) []model.Event {
	events := make([]model.Event, 0)
	if len(body) == 0 {
		return events
	}

	blocks := splitCalendars(body)
	for i, block := range blocks {
		cal, err := ical.ParseCalendar(bytes.NewReader(block))
		if err != nil {
			appLog.Error("ics calendar block parse failed", err, "source", redactURL(src), "block", i)
			continue
		}

		for _, ve := range cal.Events() {
			ev := parseVEvent(src, ve)
			if at != nil && !ev.Contains(*at) {
				continue
			}
			events = append(events, ev)
		}
	}

	appLog.Debug("ics parse completed", "source", redactURL(src), "blocks", len(blocks), "event_count", len(events))
	return events
}

// splitCalendars cuts the payload into BEGIN:VCALENDAR ... END:VCALENDAR
// chunks. Lines outside any block are dropped. An unterminated trailing
// block is still returned so the parser can reject it on its own. Lines
// may be of any length.
func splitCalendars(body []byte) [][]byte {
	var (
		blocks  [][]byte
		current *bytes.Buffer
	)

	for raw := range bytes.Lines(body) {
		line := strings.TrimRight(string(raw), "\r\n")
		key := strings.ToUpper(strings.TrimSpace(line))

		if key == "BEGIN:VCALENDAR" {
			if current != nil && current.Len() > 0 {
				blocks = append(blocks, current.Bytes())
			}
			current = &bytes.Buffer{}
		}
		if current == nil {
			continue
		}

		current.WriteString(line)
		current.WriteString("\r\n")

		if key == "END:VCALENDAR" {
			blocks = append(blocks, current.Bytes())
			current = nil
		}
	}
	if current != nil && current.Len() > 0 {
		blocks = append(blocks, current.Bytes())
	}
	return blocks
}

func parseVEvent(src string, ve *ical.VEvent) model.Event {
	out := model.Event{
		Summary: NoSummary,
		Start:   time.UnixMilli(0).UTC(),
		End:     time.UnixMilli(0).UTC(),
	}

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil && p.Value != "" {
		out.Summary = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		desc := p.Value
		out.Description = &desc
	}

	if p := ve.GetProperty(ical.ComponentPropertyDtStart); p != nil {
		if t, err := Resolve(p.Value, tzidParam(p.ICalParameters), RoleStart); err == nil {
			out.Start = t
		} else {
			appLog.Warn("ics DTSTART unresolved; using epoch", "source", redactURL(src), "summary", out.Summary, "err", err)
		}
	}

	endSet := false
	if p := ve.GetProperty(ical.ComponentPropertyDtEnd); p != nil {
		if t, err := Resolve(p.Value, tzidParam(p.ICalParameters), RoleEnd); err == nil {
			out.End = t
			endSet = true
		} else {
			appLog.Warn("ics DTEND unresolved; using DTSTART", "source", redactURL(src), "summary", out.Summary, "err", err)
		}
	}
	if !endSet || out.End.Before(out.Start) {
		out.End = out.Start
	}

	// Recurrence data is kept raw; expansion happens in expand.go and only
	// when enabled.
	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		out.RRule = strings.TrimSpace(p.Value)
	}
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		zone := tzidParam(p.ICalParameters)
		for _, part := range strings.Split(p.Value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if t, err := Resolve(part, zone, RoleStart); err == nil {
				out.ExDates = append(out.ExDates, t)
			}
		}
	}

	return out
}

// tzidParam returns the TZID parameter value, matching the key without
// regard to case.
func tzidParam(params map[string][]string) string {
	for k, vs := range params {
		if strings.EqualFold(k, "TZID") && len(vs) > 0 {
			return vs[0]
		}
	}
	return ""
}

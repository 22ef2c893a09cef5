package judge

import (
	"context"
	"slices"
	"sync"
	"time"

	"choliday/internal/ics"
	appLog "choliday/internal/log"
	"choliday/internal/model"
)

// Options configures an Analyzer.
type Options struct {
	Sources []string
	Rules   Rules
	// ExpandRecurrence turns on RRULE expansion around the target instant.
	ExpandRecurrence bool
	// Fetcher defaults to ics.NewFetcher(nil).
	Fetcher *ics.Fetcher
}

// Analyzer fetches and parses the configured calendars once and answers
// day-type questions from that cached event list until Invalidate is
// called.
type Analyzer struct {
	sources []string
	rules   Rules
	expand  bool
	fetcher *ics.Fetcher

	mu       sync.Mutex
	events   []model.Event
	loaded   bool
	loadedAt time.Time
}

// NewAnalyzer creates an Analyzer. Nothing is fetched until first use.
func NewAnalyzer(opts Options) *Analyzer {
	f := opts.Fetcher
	if f == nil {
		f = ics.NewFetcher(nil)
	}
	return &Analyzer{
		sources: slices.Clone(opts.Sources),
		rules:   opts.Rules,
		expand:  opts.ExpandRecurrence,
		fetcher: f,
	}
}

// Events returns the merged event list of all sources, fetching it on the
// first call. The result is a copy; the cache itself is never exposed.
//
// The cache outlives the caller, so the fetch ignores ctx cancellation and
// keeps only its values.
func (a *Analyzer) Events(ctx context.Context) []model.Event {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.loaded {
		a.events = a.load(context.WithoutCancel(ctx))
		a.loaded = true
		a.loadedAt = time.Now()
	}
	return slices.Clone(a.events)
}

// Judge returns the aggregated DayType for the instant at, or over every
// event when at is nil.
func (a *Analyzer) Judge(ctx context.Context, at *time.Time) model.DayType {
	events := a.Events(ctx)
	if a.expand && at != nil {
		events = ics.ExpandAround(events, *at)
	}

	dt := Resolve(events, at, a.rules)
	appLog.Debug("judge completed", "events", len(events), "priority", a.rules.Priority, "day_type", dt)
	return dt
}

// Invalidate drops the cached events; the next call re-fetches.
func (a *Analyzer) Invalidate() {
	a.mu.Lock()
	a.events = nil
	a.loaded = false
	a.mu.Unlock()
}

// Refresh re-fetches immediately and returns the new event count.
func (a *Analyzer) Refresh(ctx context.Context) int {
	a.Invalidate()
	return len(a.Events(ctx))
}

// LoadedAt reports when the cache was last filled; zero if it is empty.
func (a *Analyzer) LoadedAt() time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.loaded {
		return time.Time{}
	}
	return a.loadedAt
}

func (a *Analyzer) load(ctx context.Context) []model.Event {
	results := a.fetcher.FetchAll(ctx, a.sources)

	events := make([]model.Event, 0)
	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
			continue
		}
		events = append(events, ics.ParseCalendar(res.Source, res.Body, nil)...)
	}

	appLog.Info("calendar events loaded", "sources", len(results), "failed", failed, "events", len(events))
	return events
}

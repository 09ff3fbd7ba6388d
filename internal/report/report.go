// Package report assembles participation reports: which events a named
// business takes part in, across explicitly listed or discovered events.
package report

import "time"

// BusinessMatch is one business row from an event search, with
// best-effort extracted identity fields. Raw keeps the backend record.
type BusinessMatch struct {
	BusinessID string         `json:"businessId,omitempty"`
	Name       string         `json:"name,omitempty"`
	Raw        map[string]any `json:"raw,omitempty"`
}

// MatchedEvent is an event where the business search returned at least
// one row, together with whatever event metadata discovery collected.
type MatchedEvent struct {
	EventID                string          `json:"eventId"`
	Name                   string          `json:"name,omitempty"`
	StartTime              string          `json:"startTime,omitempty"`
	EndTime                string          `json:"endTime,omitempty"`
	Location               string          `json:"location,omitempty"`
	MatchedBusinesses      []BusinessMatch `json:"matchedBusinesses"`
	TotalBusinessesInEvent int             `json:"totalBusinessesInEvent"`
}

// EventFailure is one event whose search failed, carried on the report
// for diagnosability.
type EventFailure struct {
	EventID    string `json:"eventId"`
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode,omitempty"`
	Code       string `json:"code,omitempty"`
}

// SearchContext records how a report was produced.
type SearchContext struct {
	RunID            string    `json:"runId"`
	Search           string    `json:"search"`
	EventSearch      string    `json:"eventSearch,omitempty"`
	EventsSource     string    `json:"eventsSource"`
	WaveSize         int       `json:"waveSize"`
	DiscoverPageSize int       `json:"discoverPageSize,omitempty"`
	PagesLoaded      int       `json:"pagesLoaded,omitempty"`
	SearchPageSize   int       `json:"searchPageSize"`
	Language         string    `json:"language,omitempty"`
	CurrencyID       int       `json:"currencyId,omitempty"`
	StartedAt        time.Time `json:"startedAt"`
	FinishedAt       time.Time `json:"finishedAt"`
}

// Report is the aggregate answer for one participation query.
//
// EventsScanned always equals len(MatchedEvents) + len(UnmatchedEventIDs);
// every candidate event ID appears in exactly one of the two. Events
// whose search failed count as unmatched for that partition and are
// additionally listed in InconclusiveEventIDs, since "searched with
// zero hits" and "could not be searched" are different findings.
type Report struct {
	BusinessName           string         `json:"businessName"`
	NormalizedBusinessName string         `json:"normalizedBusinessName"`
	Found                  bool           `json:"found"`
	MatchedEvents          []MatchedEvent `json:"matchedEvents"`
	EventsScanned          int            `json:"eventsScanned"`
	EventsWithMatches      int            `json:"eventsWithMatches"`
	EventsSource           string         `json:"eventsSource"`
	UnmatchedEventIDs      []string       `json:"unmatchedEventIds"`
	InconclusiveEventIDs   []string       `json:"inconclusiveEventIds,omitempty"`
	Failures               []EventFailure `json:"failures,omitempty"`
	Summary                string         `json:"summary"`
	SearchContext          SearchContext  `json:"searchContext"`
}

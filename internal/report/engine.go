package report

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/abelbrown/expofind/internal/discover"
	"github.com/abelbrown/expofind/internal/logging"
	"github.com/abelbrown/expofind/internal/normalize"
	"github.com/abelbrown/expofind/internal/search"
	"github.com/abelbrown/expofind/internal/shape"
)

// Source values for Report.EventsSource.
const (
	SourceProvided   = "provided"
	SourceDiscovered = "discovered"
)

// businessIDFields and businessNameFields are the candidate field names
// for identifying a business row, first present and non-empty wins.
var (
	businessIDFields   = []string{"businessId", "id", "companyId", "business_id", "uuid"}
	businessNameFields = []string{"name", "businessName", "companyName", "title"}
)

// candidateCollector discovers event candidates.
// Interface for dependency injection (testing).
type candidateCollector interface {
	Collect(ctx context.Context, opts discover.Options) (*discover.Crawl, error)
}

// batchSearcher runs a search across many events.
type batchSearcher interface {
	Run(ctx context.Context, eventIDs []string, p search.Params) (*search.Outcome, error)
	WaveSize() int
}

// Query is the caller's input for one participation lookup.
// BusinessName is required. Explicit EventIDs take precedence over
// EventSearch discovery; with neither supplied, discovery runs with an
// empty search (the backend's default listing).
type Query struct {
	BusinessName string
	EventIDs     []string
	EventSearch  string

	// Discovery tuning (ignored when EventIDs is set).
	MaxEvents         int
	DiscoverPageSize  int
	DiscoverPageIndex int
	DiscoverSortField string
	DiscoverAsc       bool
	DiscoverHasSort   bool

	// Business-search tuning, applied uniformly to every event.
	SearchPageSize          int
	SortField               string
	Asc                     bool
	HasSort                 bool
	OriginCountryIDs        []any
	NationalCodes           []any
	ExpoBusinessCategoryIDs []any

	Language   string
	CurrencyID int
}

// Engine is the top-level entry point of the discovery engine.
type Engine struct {
	collector candidateCollector
	batcher   batchSearcher
}

// NewEngine creates an Engine over a collector and a batch searcher.
func NewEngine(collector candidateCollector, batcher batchSearcher) *Engine {
	return &Engine{collector: collector, batcher: batcher}
}

// FindParticipation answers "which events does this business appear in".
// Candidate events come from the explicit ID list or from a discovery
// crawl; each candidate is then searched for the business name, and the
// per-event outcomes fold into one report. Per-event failures are part
// of the report; only invalid input, a failed discovery crawl, or a
// pre-flight batch failure abort the operation.
func (e *Engine) FindParticipation(ctx context.Context, q Query) (*Report, error) {
	if q.BusinessName == "" {
		return nil, fmt.Errorf("businessName is required")
	}

	started := time.Now()
	rep := &Report{
		BusinessName:           q.BusinessName,
		NormalizedBusinessName: normalize.Name(q.BusinessName),
		MatchedEvents:          []MatchedEvent{},
		UnmatchedEventIDs:      []string{},
		SearchContext: SearchContext{
			RunID:          uuid.NewString(),
			Search:         q.BusinessName,
			EventSearch:    q.EventSearch,
			WaveSize:       e.batcher.WaveSize(),
			SearchPageSize: q.SearchPageSize,
			Language:       q.Language,
			CurrencyID:     q.CurrencyID,
			StartedAt:      started,
		},
	}

	eventIDs, meta, err := e.candidates(ctx, q, rep)
	if err != nil {
		return nil, err
	}

	if len(eventIDs) == 0 {
		if q.EventSearch == "" {
			rep.Summary = "No candidate events could be discovered; nothing was searched."
		} else {
			rep.Summary = fmt.Sprintf("No candidate events could be discovered for %q; nothing was searched.", q.EventSearch)
		}
		rep.SearchContext.FinishedAt = time.Now()
		return rep, nil
	}

	outcome, err := e.batcher.Run(ctx, eventIDs, search.Params{
		Search:                  q.BusinessName,
		PageSize:                q.SearchPageSize,
		SortField:               q.SortField,
		Asc:                     q.Asc,
		HasSort:                 q.HasSort,
		OriginCountryIDs:        q.OriginCountryIDs,
		NationalCodes:           q.NationalCodes,
		ExpoBusinessCategoryIDs: q.ExpoBusinessCategoryIDs,
		Language:                q.Language,
		CurrencyID:              q.CurrencyID,
	})
	if err != nil {
		return nil, fmt.Errorf("batched business search: %w", err)
	}

	e.fold(rep, eventIDs, meta, outcome)
	rep.SearchContext.FinishedAt = time.Now()

	logging.Info("participation query finished",
		"run", rep.SearchContext.RunID,
		"business", q.BusinessName,
		"scanned", rep.EventsScanned,
		"matched", rep.EventsWithMatches,
		"source", rep.EventsSource)

	return rep, nil
}

// candidates resolves the candidate event set: explicit IDs deduplicated
// in first-seen order, or a discovery crawl. Explicit IDs win when both
// are supplied.
func (e *Engine) candidates(ctx context.Context, q Query, rep *Report) ([]string, map[string]discover.Candidate, error) {
	if len(q.EventIDs) > 0 {
		rep.EventsSource = SourceProvided
		rep.SearchContext.EventsSource = SourceProvided
		return dedupIDs(q.EventIDs), nil, nil
	}

	rep.EventsSource = SourceDiscovered
	rep.SearchContext.EventsSource = SourceDiscovered
	rep.SearchContext.DiscoverPageSize = q.DiscoverPageSize

	crawl, err := e.collector.Collect(ctx, discover.Options{
		Search:     q.EventSearch,
		MaxEvents:  q.MaxEvents,
		PageSize:   q.DiscoverPageSize,
		PageIndex:  q.DiscoverPageIndex,
		SortField:  q.DiscoverSortField,
		Asc:        q.DiscoverAsc,
		HasSort:    q.DiscoverHasSort,
		Language:   q.Language,
		CurrencyID: q.CurrencyID,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("event discovery: %w", err)
	}

	rep.SearchContext.PagesLoaded = crawl.PagesLoaded
	return crawl.EventIDs, crawl.Meta, nil
}

// dedupIDs drops empty and repeated IDs, keeping first-seen order, so
// an event supplied twice is searched and reported once.
func dedupIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// fold classifies every candidate as matched or unmatched and builds
// the summary. A failed event counts as unmatched for that partition
// and is also listed as inconclusive.
func (e *Engine) fold(rep *Report, eventIDs []string, meta map[string]discover.Candidate, outcome *search.Outcome) {
	failed := make(map[string]bool, len(outcome.FailedEvents))
	for _, id := range outcome.FailedEvents {
		failed[id] = true
	}

	for _, id := range eventIDs {
		result := outcome.ResultsByEvent[id]
		if result == nil || !result.Found {
			rep.UnmatchedEventIDs = append(rep.UnmatchedEventIDs, id)
			if failed[id] {
				rep.InconclusiveEventIDs = append(rep.InconclusiveEventIDs, id)
			}
			continue
		}
		rep.MatchedEvents = append(rep.MatchedEvents, matchedEvent(id, meta, result))
	}

	rep.EventsScanned = len(eventIDs)
	rep.EventsWithMatches = len(rep.MatchedEvents)
	rep.Found = rep.EventsWithMatches > 0

	for _, ee := range outcome.Errors {
		rep.Failures = append(rep.Failures, EventFailure{
			EventID:    ee.EventID,
			Message:    ee.Message,
			StatusCode: ee.StatusCode,
			Code:       ee.Code,
		})
	}

	if rep.Found {
		rep.Summary = fmt.Sprintf("%q participates in %d of %d scanned events.",
			rep.BusinessName, rep.EventsWithMatches, rep.EventsScanned)
	} else {
		rep.Summary = fmt.Sprintf("%q was not found after scanning %d events.",
			rep.BusinessName, rep.EventsScanned)
	}
}

// matchedEvent builds one matched entry, carrying discovery metadata
// when the event came from a crawl.
func matchedEvent(id string, meta map[string]discover.Candidate, result *search.Result) MatchedEvent {
	me := MatchedEvent{
		EventID:                id,
		MatchedBusinesses:      make([]BusinessMatch, 0, len(result.Rows)),
		TotalBusinessesInEvent: result.Total,
	}
	if cand, ok := meta[id]; ok {
		me.Name = cand.Name
		me.StartTime = cand.StartTime
		me.EndTime = cand.EndTime
		me.Location = cand.Location
	}
	for _, row := range result.Rows {
		me.MatchedBusinesses = append(me.MatchedBusinesses, BusinessMatch{
			BusinessID: shape.FirstString(row, businessIDFields...),
			Name:       shape.FirstString(row, businessNameFields...),
			Raw:        row,
		})
	}
	return me
}

// Package discover crawls the paginated event listing to build the set
// of candidate events for a participation search.
package discover

import (
	"context"
	"fmt"

	"github.com/abelbrown/expofind/internal/expo"
	"github.com/abelbrown/expofind/internal/logging"
	"github.com/abelbrown/expofind/internal/shape"
)

const (
	// maxPages is a hard safety cap on the crawl. A backend that keeps
	// returning full pages forever stops here; hitting the cap is an
	// early stop, not an error.
	maxPages = 100

	defaultMaxEvents = 200
	defaultPageSize  = 200
	maxMaxEvents     = 1000
)

// listPaths are the envelope locations where the event list has been
// observed, in priority order.
var listPaths = []string{"data.results", "data.items", "results", "items", "rows", "events", "data"}

// idFields are the candidate identifier field names, first present and
// non-empty wins.
var idFields = []string{"eventId", "id", "expoEventId", "event_id", "uuid", "slug"}

// eventLister is the slice of the transport the collector needs.
// Interface for dependency injection (testing).
type eventLister interface {
	ListEvents(ctx context.Context, q expo.ListEventsQuery) (map[string]any, error)
}

// Candidate is one discovered event with whatever lightweight metadata
// the listing carried. Raw keeps the untouched backend record.
type Candidate struct {
	EventID   string
	Name      string
	StartTime string
	EndTime   string
	Location  string
	Raw       map[string]any
}

// Options tune one crawl.
type Options struct {
	Search    string
	MaxEvents int // 1..1000, default 200
	PageSize  int // default 200
	PageIndex int // starting page, default 1
	SortField string
	Asc       bool
	HasSort   bool

	// Per-crawl locale overrides, forwarded as request headers.
	Language   string
	CurrencyID int
}

// Crawl is the result of one discovery run. EventIDs preserves first-seen
// order; Meta is keyed by event ID with first occurrence winning.
type Crawl struct {
	EventIDs       []string
	Meta           map[string]Candidate
	PagesLoaded    int
	TotalRawEvents int
}

// Collector drives the paginated event listing.
type Collector struct {
	backend eventLister
}

// New creates a Collector over the given transport.
func New(backend eventLister) *Collector {
	return &Collector{backend: backend}
}

// Collect crawls event pages until maxEvents candidates are gathered,
// a page comes back empty, or the page safety cap is hit. A failed page
// fetch aborts the whole crawl.
func (c *Collector) Collect(ctx context.Context, opts Options) (*Crawl, error) {
	maxEvents := opts.MaxEvents
	if maxEvents <= 0 {
		maxEvents = defaultMaxEvents
	}
	if maxEvents > maxMaxEvents {
		return nil, fmt.Errorf("maxEvents %d out of range (1-%d)", maxEvents, maxMaxEvents)
	}
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	pageIndex := opts.PageIndex
	if pageIndex <= 0 {
		pageIndex = 1
	}

	crawl := &Crawl{Meta: make(map[string]Candidate)}
	seen := make(map[string]bool)

	for page := 0; page < maxPages && len(crawl.EventIDs) < maxEvents; page++ {
		resp, err := c.backend.ListEvents(ctx, expo.ListEventsQuery{
			Search:    opts.Search,
			PageSize:  pageSize,
			PageIndex: pageIndex,
			SortField: opts.SortField,
			Asc:       opts.Asc,
			HasSort:   opts.HasSort,
			Locale:    expo.Locale{Language: opts.Language, CurrencyID: opts.CurrencyID},
		})
		if err != nil {
			return nil, fmt.Errorf("list events page %d: %w", pageIndex, err)
		}
		crawl.PagesLoaded++

		raw := shape.List(resp, listPaths...)
		if len(raw) == 0 {
			break
		}
		crawl.TotalRawEvents += len(raw)

		for _, rec := range shape.Maps(raw) {
			id := shape.FirstString(rec, idFields...)
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true
			crawl.EventIDs = append(crawl.EventIDs, id)
			crawl.Meta[id] = candidateFromRecord(id, rec)
			if len(crawl.EventIDs) >= maxEvents {
				break
			}
		}

		pageIndex++
	}

	logging.Debug("event discovery finished",
		"candidates", len(crawl.EventIDs),
		"pages", crawl.PagesLoaded,
		"raw", crawl.TotalRawEvents)

	return crawl, nil
}

// candidateFromRecord extracts display metadata with best-effort field
// name guesses. Missing fields stay empty.
func candidateFromRecord(id string, rec map[string]any) Candidate {
	return Candidate{
		EventID:   id,
		Name:      shape.FirstString(rec, "name", "title", "eventName"),
		StartTime: shape.FirstString(rec, "startTime", "startDate", "start"),
		EndTime:   shape.FirstString(rec, "endTime", "endDate", "end"),
		Location:  shape.FirstString(rec, "location", "venue", "city"),
		Raw:       rec,
	}
}

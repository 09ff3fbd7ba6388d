// Package search issues event-scoped business searches and fans them
// out across many events in bounded concurrent batches.
package search

import (
	"context"
	"fmt"

	"github.com/abelbrown/expofind/internal/expo"
	"github.com/abelbrown/expofind/internal/shape"
)

const defaultPageSize = 1000

// resultPaths are the envelope locations where the business list has
// been observed, in priority order.
var resultPaths = []string{"data.results", "data.items", "results", "items", "rows", "data"}

// businessSearcher is the slice of the transport the adapter needs.
// Interface for dependency injection (testing).
type businessSearcher interface {
	SearchEventBusinesses(ctx context.Context, body map[string]any, loc expo.Locale) (map[string]any, error)
}

// Params are the search/filter/pagination parameters applied to one
// business search, and uniformly to every event in a batch run.
type Params struct {
	Search    string
	PageSize  int // default 1000
	PageIndex int
	SortField string
	Asc       bool
	HasSort   bool

	// Filter arrays. Each must be homogeneous: all integers or all
	// strings. Mixed arrays are rejected before any network call.
	OriginCountryIDs        []any
	NationalCodes           []any
	ExpoBusinessCategoryIDs []any

	Language   string
	CurrencyID int // default 1 (applied by the transport)
}

// Validate checks the parameters that would otherwise surface as
// confusing backend errors. Returns nil when the params are usable.
func (p Params) Validate() error {
	if err := checkHomogeneous("originCountryId", p.OriginCountryIDs); err != nil {
		return err
	}
	if err := checkHomogeneous("nationalCode", p.NationalCodes); err != nil {
		return err
	}
	if err := checkHomogeneous("expoBusinessCategoryId", p.ExpoBusinessCategoryIDs); err != nil {
		return err
	}
	if p.PageSize < 0 {
		return fmt.Errorf("pageSize must be positive, got %d", p.PageSize)
	}
	if p.PageIndex < 0 {
		return fmt.Errorf("pageIndex must be non-negative, got %d", p.PageIndex)
	}
	return nil
}

// checkHomogeneous rejects arrays mixing integers and strings. JSON
// numbers arrive as float64; integral floats count as integers.
func checkHomogeneous(name string, values []any) error {
	ints, strs := 0, 0
	for _, v := range values {
		switch t := v.(type) {
		case int, int64:
			ints++
		case float64:
			if t != float64(int64(t)) {
				return fmt.Errorf("%s: non-integer number %v", name, t)
			}
			ints++
		case string:
			strs++
		default:
			return fmt.Errorf("%s: unsupported element type %T", name, v)
		}
	}
	if ints > 0 && strs > 0 {
		return fmt.Errorf("%s: array mixes integers and strings", name)
	}
	return nil
}

// Result is one event's business search, normalized. Raw keeps the
// whole backend response; Rows is the extracted business list.
type Result struct {
	Raw   map[string]any
	Rows  []map[string]any
	Found bool
	Total int
}

// Searcher performs single event-scoped business searches.
type Searcher struct {
	backend businessSearcher
}

// NewSearcher creates a Searcher over the given transport.
func NewSearcher(backend businessSearcher) *Searcher {
	return &Searcher{backend: backend}
}

// Search queries one event for businesses. eventID is required; params
// are validated before any network activity. The business list is
// extracted defensively from whichever envelope shape the backend
// used, defaulting to empty on mismatch — a shape surprise is not an
// error, only a transport failure is.
func (s *Searcher) Search(ctx context.Context, eventID string, p Params) (*Result, error) {
	if eventID == "" {
		return nil, fmt.Errorf("eventId is required")
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	resp, err := s.backend.SearchEventBusinesses(ctx, searchBody(eventID, p),
		expo.Locale{Language: p.Language, CurrencyID: p.CurrencyID})
	if err != nil {
		return nil, err
	}

	rows := shape.Maps(shape.List(resp, resultPaths...))

	total, ok := shape.TotalCount(resp)
	if !ok {
		total = len(rows)
	}

	return &Result{
		Raw:   resp,
		Rows:  rows,
		Found: len(rows) > 0,
		Total: total,
	}, nil
}

// searchBody builds the POST body. The backend has accepted both
// casings of the sort keys across versions, so both are sent.
func searchBody(eventID string, p Params) map[string]any {
	pageSize := p.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	body := map[string]any{
		"eventId":  eventID,
		"pageSize": pageSize,
	}
	if p.Search != "" {
		body["search"] = p.Search
	}
	if p.PageIndex > 0 {
		body["pageIndex"] = p.PageIndex
	}
	if p.SortField != "" {
		body["sortField"] = p.SortField
		body["SortField"] = p.SortField
	}
	if p.HasSort {
		body["asc"] = p.Asc
		body["Asc"] = p.Asc
	}
	if len(p.OriginCountryIDs) > 0 {
		body["originCountryId"] = p.OriginCountryIDs
	}
	if len(p.NationalCodes) > 0 {
		body["nationalCode"] = p.NationalCodes
	}
	if len(p.ExpoBusinessCategoryIDs) > 0 {
		body["expoBusinessCategoryId"] = p.ExpoBusinessCategoryIDs
	}
	return body
}

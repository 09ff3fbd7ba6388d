package report

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/abelbrown/expofind/internal/discover"
	"github.com/abelbrown/expofind/internal/search"
)

type fakeCollector struct {
	crawl *discover.Crawl
	err   error
	calls int
	opts  discover.Options
}

func (f *fakeCollector) Collect(_ context.Context, opts discover.Options) (*discover.Crawl, error) {
	f.calls++
	f.opts = opts
	if f.err != nil {
		return nil, f.err
	}
	return f.crawl, nil
}

// fakeBatcher serves canned per-event results; IDs in failing come back
// as per-event errors, IDs in neither map succeed with zero rows.
type fakeBatcher struct {
	results map[string]*search.Result
	failing map[string]search.EventError
	err     error
	calls   int
	gotIDs  []string
	gotP    search.Params
}

func (f *fakeBatcher) Run(_ context.Context, eventIDs []string, p search.Params) (*search.Outcome, error) {
	f.calls++
	f.gotIDs = eventIDs
	f.gotP = p
	if f.err != nil {
		return nil, f.err
	}

	out := &search.Outcome{
		ResultsByEvent: make(map[string]*search.Result),
		TotalEvents:    len(eventIDs),
	}
	for _, id := range eventIDs {
		if ee, ok := f.failing[id]; ok {
			out.FailedEvents = append(out.FailedEvents, id)
			out.Errors = append(out.Errors, ee)
			continue
		}
		if r, ok := f.results[id]; ok {
			out.ResultsByEvent[id] = r
		} else {
			out.ResultsByEvent[id] = &search.Result{Raw: map[string]any{}, Rows: nil, Found: false}
		}
		out.EventsProcessed++
	}
	return out, nil
}

func (f *fakeBatcher) WaveSize() int { return 20 }

func TestFindParticipationRequiresBusinessName(t *testing.T) {
	engine := NewEngine(&fakeCollector{}, &fakeBatcher{})
	if _, err := engine.FindParticipation(context.Background(), Query{}); err == nil {
		t.Fatal("expected error for missing business name")
	}
}

func TestExplicitEventsEndToEnd(t *testing.T) {
	// Event 100 has one business, event 200 has none.
	batcher := &fakeBatcher{
		results: map[string]*search.Result{
			"100": {
				Raw:   map[string]any{},
				Rows:  []map[string]any{{"businessId": "B9", "name": "ACME CO."}},
				Found: true,
				Total: 1,
			},
		},
	}
	collector := &fakeCollector{}
	engine := NewEngine(collector, batcher)

	rep, err := engine.FindParticipation(context.Background(), Query{
		BusinessName: "Acme Co",
		EventIDs:     []string{"100", "200"},
	})
	if err != nil {
		t.Fatalf("FindParticipation failed: %v", err)
	}

	if collector.calls != 0 {
		t.Error("explicit IDs must not trigger discovery")
	}
	if !rep.Found {
		t.Error("expected found=true")
	}
	if rep.EventsScanned != 2 || rep.EventsWithMatches != 1 {
		t.Errorf("scanned=%d matches=%d", rep.EventsScanned, rep.EventsWithMatches)
	}
	if rep.EventsSource != SourceProvided {
		t.Errorf("EventsSource = %q", rep.EventsSource)
	}
	if len(rep.MatchedEvents) != 1 || rep.MatchedEvents[0].EventID != "100" {
		t.Fatalf("MatchedEvents = %+v", rep.MatchedEvents)
	}
	me := rep.MatchedEvents[0]
	if len(me.MatchedBusinesses) != 1 || me.MatchedBusinesses[0].Name != "ACME CO." {
		t.Errorf("MatchedBusinesses = %+v", me.MatchedBusinesses)
	}
	if me.MatchedBusinesses[0].BusinessID != "B9" {
		t.Errorf("BusinessID = %q", me.MatchedBusinesses[0].BusinessID)
	}
	if me.TotalBusinessesInEvent != 1 {
		t.Errorf("TotalBusinessesInEvent = %d", me.TotalBusinessesInEvent)
	}
	if len(rep.UnmatchedEventIDs) != 1 || rep.UnmatchedEventIDs[0] != "200" {
		t.Errorf("UnmatchedEventIDs = %v", rep.UnmatchedEventIDs)
	}
	if rep.NormalizedBusinessName != "acme co" {
		t.Errorf("NormalizedBusinessName = %q", rep.NormalizedBusinessName)
	}
	if batcher.gotP.Search != "Acme Co" {
		t.Errorf("business name not used as search param: %q", batcher.gotP.Search)
	}
}

func TestExplicitEventsDeduplicated(t *testing.T) {
	batcher := &fakeBatcher{
		results: map[string]*search.Result{
			"100": {Rows: []map[string]any{{"name": "Acme"}}, Found: true, Total: 1},
		},
	}
	engine := NewEngine(&fakeCollector{}, batcher)

	rep, err := engine.FindParticipation(context.Background(), Query{
		BusinessName: "Acme",
		EventIDs:     []string{"100", "100", "200"},
	})
	if err != nil {
		t.Fatalf("FindParticipation failed: %v", err)
	}

	if len(batcher.gotIDs) != 2 || batcher.gotIDs[0] != "100" || batcher.gotIDs[1] != "200" {
		t.Errorf("duplicate IDs must collapse before the search: %v", batcher.gotIDs)
	}
	if rep.EventsScanned != 2 {
		t.Errorf("EventsScanned = %d, want 2", rep.EventsScanned)
	}
	if rep.EventsScanned != len(rep.MatchedEvents)+len(rep.UnmatchedEventIDs) {
		t.Errorf("invariant broken: scanned=%d matched=%d unmatched=%d",
			rep.EventsScanned, len(rep.MatchedEvents), len(rep.UnmatchedEventIDs))
	}

	// Each event appears exactly once across the two partitions.
	counts := map[string]int{}
	for _, me := range rep.MatchedEvents {
		counts[me.EventID]++
	}
	for _, id := range rep.UnmatchedEventIDs {
		counts[id]++
	}
	for id, n := range counts {
		if n != 1 {
			t.Errorf("event %s appears %d times across matched+unmatched", id, n)
		}
	}
}

func TestPartitionInvariant(t *testing.T) {
	batcher := &fakeBatcher{
		results: map[string]*search.Result{
			"A": {Rows: []map[string]any{{"name": "X"}}, Found: true, Total: 1},
		},
		failing: map[string]search.EventError{
			"C": {EventID: "C", Message: "timeout"},
		},
	}
	engine := NewEngine(&fakeCollector{}, batcher)

	rep, err := engine.FindParticipation(context.Background(), Query{
		BusinessName: "X",
		EventIDs:     []string{"A", "B", "C"},
	})
	if err != nil {
		t.Fatalf("FindParticipation failed: %v", err)
	}

	if rep.EventsScanned != len(rep.MatchedEvents)+len(rep.UnmatchedEventIDs) {
		t.Errorf("invariant broken: scanned=%d matched=%d unmatched=%d",
			rep.EventsScanned, len(rep.MatchedEvents), len(rep.UnmatchedEventIDs))
	}
	// The failed event is unmatched AND flagged inconclusive.
	if len(rep.UnmatchedEventIDs) != 2 {
		t.Errorf("UnmatchedEventIDs = %v", rep.UnmatchedEventIDs)
	}
	if len(rep.InconclusiveEventIDs) != 1 || rep.InconclusiveEventIDs[0] != "C" {
		t.Errorf("InconclusiveEventIDs = %v", rep.InconclusiveEventIDs)
	}
	if len(rep.Failures) != 1 || rep.Failures[0].EventID != "C" {
		t.Errorf("Failures = %+v", rep.Failures)
	}
}

func TestDiscoveryMode(t *testing.T) {
	collector := &fakeCollector{crawl: &discover.Crawl{
		EventIDs: []string{"D1", "D2"},
		Meta: map[string]discover.Candidate{
			"D1": {EventID: "D1", Name: "Spring Expo", Location: "Berlin", StartTime: "2026-03-01"},
			"D2": {EventID: "D2", Name: "Autumn Expo"},
		},
		PagesLoaded: 3,
	}}
	batcher := &fakeBatcher{
		results: map[string]*search.Result{
			"D1": {Rows: []map[string]any{{"name": "Acme"}}, Found: true, Total: 4},
		},
	}
	engine := NewEngine(collector, batcher)

	rep, err := engine.FindParticipation(context.Background(), Query{
		BusinessName: "Acme",
		EventSearch:  "expo",
		MaxEvents:    10,
	})
	if err != nil {
		t.Fatalf("FindParticipation failed: %v", err)
	}

	if rep.EventsSource != SourceDiscovered {
		t.Errorf("EventsSource = %q", rep.EventsSource)
	}
	if collector.opts.Search != "expo" || collector.opts.MaxEvents != 10 {
		t.Errorf("collector options not forwarded: %+v", collector.opts)
	}
	if rep.SearchContext.PagesLoaded != 3 {
		t.Errorf("PagesLoaded = %d", rep.SearchContext.PagesLoaded)
	}

	me := rep.MatchedEvents[0]
	if me.Name != "Spring Expo" || me.Location != "Berlin" || me.StartTime != "2026-03-01" {
		t.Errorf("discovery metadata not carried: %+v", me)
	}
	if me.TotalBusinessesInEvent != 4 {
		t.Errorf("TotalBusinessesInEvent = %d", me.TotalBusinessesInEvent)
	}
}

func TestEmptyDiscoveryShortCircuits(t *testing.T) {
	collector := &fakeCollector{crawl: &discover.Crawl{Meta: map[string]discover.Candidate{}}}
	batcher := &fakeBatcher{}
	engine := NewEngine(collector, batcher)

	rep, err := engine.FindParticipation(context.Background(), Query{
		BusinessName: "Acme",
		EventSearch:  "zzz-no-such-thing",
	})
	if err != nil {
		t.Fatalf("FindParticipation failed: %v", err)
	}

	if batcher.calls != 0 {
		t.Error("orchestrator must not run when discovery finds nothing")
	}
	if rep.Found || rep.EventsScanned != 0 {
		t.Errorf("expected found=false scanned=0, got found=%v scanned=%d", rep.Found, rep.EventsScanned)
	}
	if rep.Summary == "" {
		t.Error("expected explanatory summary")
	}
	if !strings.Contains(rep.Summary, `"zzz-no-such-thing"`) {
		t.Errorf("summary should name the event search: %q", rep.Summary)
	}
}

func TestEmptyDiscoveryWithoutSearchTerm(t *testing.T) {
	collector := &fakeCollector{crawl: &discover.Crawl{}}
	engine := NewEngine(collector, &fakeBatcher{})

	rep, err := engine.FindParticipation(context.Background(), Query{
		BusinessName: "Acme",
	})
	if err != nil {
		t.Fatalf("FindParticipation failed: %v", err)
	}
	if rep.Summary == "" {
		t.Error("expected explanatory summary")
	}
	if strings.Contains(rep.Summary, `""`) {
		t.Errorf("summary renders an empty search term: %q", rep.Summary)
	}
}

func TestDiscoveryFailureIsFatal(t *testing.T) {
	collector := &fakeCollector{err: fmt.Errorf("listing broke")}
	engine := NewEngine(collector, &fakeBatcher{})

	_, err := engine.FindParticipation(context.Background(), Query{
		BusinessName: "Acme",
		EventSearch:  "expo",
	})
	if err == nil {
		t.Fatal("collector failure must abort the operation")
	}
}

func TestBatchFailureIsFatal(t *testing.T) {
	batcher := &fakeBatcher{err: fmt.Errorf("invalid filter array")}
	engine := NewEngine(&fakeCollector{}, batcher)

	_, err := engine.FindParticipation(context.Background(), Query{
		BusinessName: "Acme",
		EventIDs:     []string{"1"},
	})
	if err == nil {
		t.Fatal("batch-level failure must abort the operation")
	}
}

func TestExplicitPrecedenceOverDiscovery(t *testing.T) {
	collector := &fakeCollector{}
	batcher := &fakeBatcher{}
	engine := NewEngine(collector, batcher)

	rep, err := engine.FindParticipation(context.Background(), Query{
		BusinessName: "Acme",
		EventIDs:     []string{"7"},
		EventSearch:  "also supplied",
	})
	if err != nil {
		t.Fatalf("FindParticipation failed: %v", err)
	}
	if collector.calls != 0 {
		t.Error("explicit IDs take precedence; discovery must not run")
	}
	if len(batcher.gotIDs) != 1 || batcher.gotIDs[0] != "7" {
		t.Errorf("batcher got %v", batcher.gotIDs)
	}
	if rep.SearchContext.RunID == "" {
		t.Error("expected a run id")
	}
}

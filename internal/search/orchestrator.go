package search

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/abelbrown/expofind/internal/expo"
	"github.com/abelbrown/expofind/internal/logging"
)

// batchSize is the number of events searched concurrently per wave.
// Wave n+1 never starts before wave n has fully settled, which bounds
// peak concurrency and gives the backend a predictable load shape.
const batchSize = 20

// eventSearcher is what the orchestrator needs from the adapter.
// Interface for dependency injection (testing).
type eventSearcher interface {
	Search(ctx context.Context, eventID string, p Params) (*Result, error)
}

// EventError is one event's failed search, attributed and isolated.
type EventError struct {
	EventID    string
	Message    string
	StatusCode int
	Code       string
}

// Outcome is the result of one batched run over many events.
// Invariant: EventsProcessed + len(FailedEvents) == TotalEvents, and
// ResultsByEvent holds exactly the succeeded subset.
type Outcome struct {
	ResultsByEvent  map[string]*Result
	EventsProcessed int
	TotalEvents     int
	FailedEvents    []string
	Errors          []EventError
}

// Batcher fans a business search out across many events in fixed-size
// concurrent waves, isolating per-event failures.
type Batcher struct {
	searcher eventSearcher
	waveSize int
}

// NewBatcher creates a Batcher over the given searcher.
func NewBatcher(searcher eventSearcher) *Batcher {
	return &Batcher{searcher: searcher, waveSize: batchSize}
}

// WaveSize reports the concurrency bound per wave.
func (b *Batcher) WaveSize() int {
	return b.waveSize
}

// Run searches every event in eventIDs with the same params. Events are
// processed in consecutive waves of b.waveSize; within a wave all calls
// run concurrently and the wave settles completely before the next one
// starts. A per-event failure is recorded and never stops siblings or
// later waves. Params are validated once up front so a bad filter array
// fails the whole run before any network call.
func (b *Batcher) Run(ctx context.Context, eventIDs []string, p Params) (*Outcome, error) {
	if len(eventIDs) == 0 {
		return nil, fmt.Errorf("at least one event id is required")
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	out := &Outcome{
		ResultsByEvent: make(map[string]*Result, len(eventIDs)),
		TotalEvents:    len(eventIDs),
	}

	var mu sync.Mutex // guards out across a wave's goroutines

	for start := 0; start < len(eventIDs); start += b.waveSize {
		end := start + b.waveSize
		if end > len(eventIDs) {
			end = len(eventIDs)
		}
		wave := eventIDs[start:end]

		var g errgroup.Group
		for _, eventID := range wave {
			eventID := eventID
			g.Go(func() error {
				result, err := b.searcher.Search(ctx, eventID, p)

				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					out.FailedEvents = append(out.FailedEvents, eventID)
					out.Errors = append(out.Errors, eventErrorFrom(eventID, err))
					return nil // never fail the group - errors reported per-event
				}
				out.ResultsByEvent[eventID] = result
				out.EventsProcessed++
				return nil
			})
		}
		_ = g.Wait() // all goroutines return nil, explicit discard for clarity
	}

	if len(out.FailedEvents) > 0 {
		logging.Warn("batched search finished with failures",
			"total", out.TotalEvents,
			"failed", len(out.FailedEvents))
	}

	return out, nil
}

// eventErrorFrom converts an error into an attributed EventError,
// preserving the backend's code/status when the error carries them.
func eventErrorFrom(eventID string, err error) EventError {
	ee := EventError{EventID: eventID, Message: err.Error()}
	var apiErr *expo.APIError
	if errors.As(err, &apiErr) {
		ee.Message = apiErr.Message
		ee.StatusCode = apiErr.StatusCode
		ee.Code = apiErr.Code
	}
	return ee
}

package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/abelbrown/expofind/internal/discover"
	"github.com/abelbrown/expofind/internal/history"
	"github.com/abelbrown/expofind/internal/logging"
	"github.com/abelbrown/expofind/internal/report"
	"github.com/abelbrown/expofind/internal/search"
)

func runFind() {
	fs := flag.NewFlagSet("find", flag.ExitOnError)
	business := fs.String("business", "", "Business name to search for (required)")
	events := fs.String("events", "", "Comma-separated explicit event IDs")
	eventSearch := fs.String("event-search", "", "Free-text search for event discovery")
	maxEvents := fs.Int("max-events", 0, "Max candidate events to discover (default 200)")
	discoverPageSize := fs.Int("discover-page-size", 0, "Event listing page size (default 200)")
	searchPageSize := fs.Int("search-page-size", 0, "Business search page size (default 1000)")
	configPath := fs.String("config", "", "Config file path")
	logFile := fs.Bool("log-file", false, "Log to ~/.expofind/logs instead of stderr")
	fs.Parse(os.Args[1:])

	if *business == "" {
		fmt.Fprintln(os.Stderr, "usage: expofind find --business <name> [--events ids | --event-search text]")
		os.Exit(1)
	}

	cfg, client := setup(*configPath, *logFile)
	defer logging.Close()

	engine := report.NewEngine(
		discover.New(client),
		search.NewBatcher(search.NewSearcher(client)),
	)

	rep, err := engine.FindParticipation(context.Background(), report.Query{
		BusinessName:     *business,
		EventIDs:         splitIDs(*events),
		EventSearch:      *eventSearch,
		MaxEvents:        *maxEvents,
		DiscoverPageSize: *discoverPageSize,
		SearchPageSize:   *searchPageSize,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "find: %v\n", err)
		os.Exit(1)
	}

	recordRun(cfg.HistoryPath, rep)
	printJSON(rep)
}

// recordRun appends the report to the run history when configured.
// History failures are logged, never fatal: the report already exists.
func recordRun(path string, rep *report.Report) {
	if path == "" {
		return
	}
	store, err := history.Open(path)
	if err != nil {
		logging.Warn("history unavailable", "error", err)
		return
	}
	defer store.Close()
	if err := store.Record(rep); err != nil {
		logging.Warn("history record failed", "error", err)
	}
}

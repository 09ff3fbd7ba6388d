package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/abelbrown/expofind/internal/discover"
	"github.com/abelbrown/expofind/internal/history"
	"github.com/abelbrown/expofind/internal/logging"
)

func runEvents() {
	fs := flag.NewFlagSet("events", flag.ExitOnError)
	eventSearch := fs.String("search", "", "Free-text search for the event listing")
	maxEvents := fs.Int("max-events", 0, "Max candidate events (default 200)")
	pageSize := fs.Int("page-size", 0, "Listing page size (default 200)")
	configPath := fs.String("config", "", "Config file path")
	logFile := fs.Bool("log-file", false, "Log to ~/.expofind/logs instead of stderr")
	fs.Parse(os.Args[1:])

	_, client := setup(*configPath, *logFile)
	defer logging.Close()

	crawl, err := discover.New(client).Collect(context.Background(), discover.Options{
		Search:    *eventSearch,
		MaxEvents: *maxEvents,
		PageSize:  *pageSize,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "events: %v\n", err)
		os.Exit(1)
	}

	type listing struct {
		EventID   string `json:"eventId"`
		Name      string `json:"name,omitempty"`
		StartTime string `json:"startTime,omitempty"`
		Location  string `json:"location,omitempty"`
	}
	out := struct {
		Events         []listing `json:"events"`
		PagesLoaded    int       `json:"pagesLoaded"`
		TotalRawEvents int       `json:"totalRawEvents"`
	}{
		Events:         make([]listing, 0, len(crawl.EventIDs)),
		PagesLoaded:    crawl.PagesLoaded,
		TotalRawEvents: crawl.TotalRawEvents,
	}
	for _, id := range crawl.EventIDs {
		cand := crawl.Meta[id]
		out.Events = append(out.Events, listing{
			EventID:   id,
			Name:      cand.Name,
			StartTime: cand.StartTime,
			Location:  cand.Location,
		})
	}
	printJSON(out)
}

func runCategories() {
	fs := flag.NewFlagSet("categories", flag.ExitOnError)
	configPath := fs.String("config", "", "Config file path")
	logFile := fs.Bool("log-file", false, "Log to ~/.expofind/logs instead of stderr")
	fs.Parse(os.Args[1:])

	_, client := setup(*configPath, *logFile)
	defer logging.Close()

	resp, err := client.ListBusinessCategories(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "categories: %v\n", err)
		os.Exit(1)
	}
	printJSON(resp)
}

func runHistory() {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	limit := fs.Int("limit", 20, "Number of runs to show")
	dbPath := fs.String("db", os.Getenv("EXPOFIND_HISTORY"), "Run history database path")
	logFile := fs.Bool("log-file", false, "Log to ~/.expofind/logs instead of stderr")
	fs.Parse(os.Args[1:])

	initLogging(*logFile)
	defer logging.Close()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "history: no database path (set --db or EXPOFIND_HISTORY)")
		os.Exit(1)
	}

	store, err := history.Open(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "history: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	runs, err := store.Recent(*limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "history: %v\n", err)
		os.Exit(1)
	}
	printJSON(runs)
}

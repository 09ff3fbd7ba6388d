// Command expofind answers "which events does this business
// participate in" against an exhibition platform backend.
//
// Usage:
//
//	expofind find --business "Acme Co" [--events 100,200 | --event-search tech]
//	expofind events --search tech       Crawl candidate events only
//	expofind categories                 List business categories
//	expofind history                    Show recent runs
package main

import (
	"fmt"
	"os"
)

const usage = `expofind — event participation discovery

Usage:
  expofind <command> [flags]

Commands:
  find        Search for a business across events
  events      Discover candidate events (collector only)
  categories  List business categories
  history     Show recent participation runs

Environment:
  EXPOFIND_BASE_URL    Backend base URL (overrides config file)
  EXPOFIND_API_TOKEN   Bearer token for the backend
  EXPOFIND_TENANT      Tenant header value
  EXPOFIND_HISTORY     Run history database path

Run 'expofind <command> -h' for command-specific help.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(0)
	}

	cmd := os.Args[1]
	// Strip the program name + subcommand so flag sets see only their flags
	os.Args = os.Args[1:]

	switch cmd {
	case "find":
		runFind()
	case "events":
		runEvents()
	case "categories":
		runCategories()
	case "history":
		runHistory()
	case "-h", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", cmd)
		fmt.Print(usage)
		os.Exit(1)
	}
}

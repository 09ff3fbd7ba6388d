package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/abelbrown/expofind/internal/config"
	"github.com/abelbrown/expofind/internal/expo"
	"github.com/abelbrown/expofind/internal/logging"
)

// setup loads config and wires the transport. Exits on failure; logs
// go to stderr so stdout stays machine-readable, or to the dated file
// under ~/.expofind/logs when logToFile is set.
func setup(configPath string, logToFile bool) (*config.Config, *expo.Client) {
	initLogging(logToFile)

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	return cfg, expo.New(cfg)
}

func initLogging(toFile bool) {
	if !toFile {
		logging.InitWriter(os.Stderr)
		return
	}
	if err := logging.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		os.Exit(1)
	}
}

// printJSON writes v as indented JSON to stdout.
func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "encode output: %v\n", err)
		os.Exit(1)
	}
}

// splitIDs parses a comma-separated ID list, dropping empty segments.
func splitIDs(s string) []string {
	if s == "" {
		return nil
	}
	var ids []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			ids = append(ids, part)
		}
	}
	return ids
}

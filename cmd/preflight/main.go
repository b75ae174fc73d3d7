// cmd/preflight/main.go
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/urlmon/urlmon/internal/config"
	"github.com/urlmon/urlmon/internal/registry"
)

// Offline config check: load and validate the config file the way the API
// binary would, without probing anything. Exit code 1 means the API would
// refuse to start with this file.
func main() {
	fail := func(msg string) {
		fmt.Fprintln(os.Stderr, "✖", msg)
		os.Exit(1)
	}
	warn := func(msg string) { fmt.Fprintln(os.Stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Println("✔", msg) }

	var cfgPath string
	flag.StringVar(&cfgPath, "config", "config.json", "path to the config file")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fail(err.Error())
	}
	ok("config loads and validates: " + cfgPath)

	reg, err := registry.Load(cfg.URLs)
	if err != nil {
		fail(err.Error())
	}
	ok(fmt.Sprintf("%d target(s):", reg.Len()))
	for _, t := range reg.List() {
		fmt.Printf("    %-20s %s\n", t.Name, t.URL)
	}

	ok(fmt.Sprintf("interval %s, timeout %s, retention %s",
		cfg.CheckInterval(), cfg.CheckTimeout(), cfg.Retention()))

	if cfg.CheckTimeout() >= cfg.CheckInterval() {
		warn("timeout >= interval: slow targets will skip ticks on every cycle")
	}
	if cfg.Storage.CSVFile == "" && cfg.Storage.SQLitePath == "" && cfg.Storage.DatabaseURL == "" {
		warn("no storage sink configured — history is lost on restart")
	}
	if cfg.Server.RatePerMinute == 0 {
		warn("rate limiting disabled (server.rate_per_minute = 0)")
	}

	ok("preflight passed")
}

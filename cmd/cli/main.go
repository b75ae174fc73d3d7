package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/urlmon/urlmon/internal/domain"
)

// Small terminal client for the monitoring API. With no flags it prints
// the system overview; -name narrows to one target, -history lists its
// recent results.
func main() {
	api := os.Getenv("API_BASE")
	if api == "" {
		api = "http://localhost:8080"
	}

	var name string
	var showHistory bool
	var limit int
	flag.StringVar(&name, "name", "", "target name (default: all targets)")
	flag.BoolVar(&showHistory, "history", false, "print recent results instead of status (needs -name)")
	flag.IntVar(&limit, "limit", 10, "history entries to fetch with -history")
	flag.Parse()

	client := &http.Client{Timeout: 10 * time.Second}

	switch {
	case showHistory:
		if name == "" {
			fmt.Fprintln(os.Stderr, "-history needs -name")
			os.Exit(2)
		}
		var th domain.TargetHistory
		if !getJSON(client, fmt.Sprintf("%s/api/history/%s?limit=%d", api, name, limit), &th) {
			os.Exit(1)
		}
		fmt.Printf("%s (%s)\n", th.Name, th.URL)
		for _, r := range th.History {
			printResult(r)
		}
	case name != "":
		var snap domain.StatusSnapshot
		if !getJSON(client, api+"/api/status/"+name, &snap) {
			os.Exit(1)
		}
		printSnapshot(snap)
	default:
		var sys domain.SystemStatus
		if !getJSON(client, api+"/api/status", &sys) {
			os.Exit(1)
		}
		fmt.Println("overall:", sys.Status)
		for _, snap := range sys.Targets {
			fmt.Printf("  %-20s %-8s %s\n", snap.Name, snap.CurrentOutcome, detail(snap))
		}
	}
}

func getJSON(client *http.Client, url string, v any) bool {
	resp, err := client.Get(url)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error contacting API:", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var e struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&e) == nil && e.Error != "" {
			fmt.Fprintln(os.Stderr, "API error:", e.Error)
		} else {
			fmt.Fprintln(os.Stderr, "API returned status:", resp.Status)
		}
		return false
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		fmt.Fprintln(os.Stderr, "Bad response:", err)
		return false
	}
	return true
}

func printSnapshot(s domain.StatusSnapshot) {
	fmt.Printf("%s (%s)\n", s.Name, s.URL)
	fmt.Printf("  status:       %s\n", s.CurrentOutcome)
	fmt.Printf("  last checked: %s\n", s.LastCheckedAt.Format(time.RFC3339))
	if s.HTTPStatus != 0 {
		fmt.Printf("  http status:  %d\n", s.HTTPStatus)
	}
	fmt.Printf("  latency:      %.1fms\n", s.LatencyMS)
	if s.Reason != "" {
		fmt.Printf("  reason:       %s\n", s.Reason)
	}
	if s.ConsecutiveFailures > 0 {
		fmt.Printf("  failing for:  %d checks\n", s.ConsecutiveFailures)
	}
}

func printResult(r domain.CheckResult) {
	line := fmt.Sprintf("  %s  %-6s %6.1fms", r.CheckedAt.Format(time.RFC3339), r.Outcome, r.LatencyMS)
	if r.HTTPStatus != 0 {
		line += fmt.Sprintf("  %d", r.HTTPStatus)
	}
	if r.Reason != "" {
		line += "  " + r.Reason
	}
	fmt.Println(line)
}

func detail(s domain.StatusSnapshot) string {
	if s.CurrentOutcome == domain.OutcomeUnknown {
		return "no checks yet"
	}
	if s.Reason != "" {
		return s.Reason
	}
	return fmt.Sprintf("%d in %.1fms", s.HTTPStatus, s.LatencyMS)
}

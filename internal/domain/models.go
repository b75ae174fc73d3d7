package domain

import "time"

// Outcome classifies a completed check.
type Outcome string

const (
	OutcomeUp      Outcome = "up"
	OutcomeDown    Outcome = "down"
	OutcomeError   Outcome = "error"
	OutcomeUnknown Outcome = "unknown"
)

// Failure reports whether the outcome counts toward a failure streak.
func (o Outcome) Failure() bool {
	return o == OutcomeDown || o == OutcomeError
}

func (o Outcome) Valid() bool {
	switch o {
	case OutcomeUp, OutcomeDown, OutcomeError, OutcomeUnknown:
		return true
	}
	return false
}

// Target is one monitored URL. Targets are fixed at startup; the name is
// the key everywhere (API paths, history windows, exports).
type Target struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// CheckResult is the immutable record of a single completed check.
type CheckResult struct {
	TargetName string    `json:"target_name"`
	Outcome    Outcome   `json:"outcome"`
	HTTPStatus int       `json:"http_status,omitempty"`
	LatencyMS  float64   `json:"latency_ms"`
	Reason     string    `json:"reason,omitempty"`
	CheckedAt  time.Time `json:"checked_at"`
}

// StatusSnapshot is the derived per-target view served by the API. It is
// computed from history on demand, never stored.
type StatusSnapshot struct {
	Name                string    `json:"name"`
	URL                 string    `json:"url"`
	CurrentOutcome      Outcome   `json:"current_outcome"`
	LastCheckedAt       time.Time `json:"last_checked_at"`
	HTTPStatus          int       `json:"http_status,omitempty"`
	LatencyMS           float64   `json:"latency_ms"`
	Reason              string    `json:"reason,omitempty"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
}

type OverallStatus string

const (
	OverallHealthy  OverallStatus = "healthy"
	OverallDegraded OverallStatus = "degraded"
	OverallDown     OverallStatus = "down"
)

// SystemStatus is the aggregate view: one roll-up status plus the
// per-target snapshots it was derived from.
type SystemStatus struct {
	Status  OverallStatus    `json:"status"`
	Targets []StatusSnapshot `json:"targets"`
}

// TargetHistory is the history payload for one target, oldest first.
type TargetHistory struct {
	Name    string        `json:"name"`
	URL     string        `json:"url"`
	History []CheckResult `json:"history"`
}

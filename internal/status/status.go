package status

import (
	"time"

	"github.com/urlmon/urlmon/internal/domain"
	"github.com/urlmon/urlmon/internal/history"
	"github.com/urlmon/urlmon/internal/registry"
)

// Aggregator derives per-target snapshots and the system roll-up from
// recorded history. It owns no state; every answer is computed from the
// store at call time.
type Aggregator struct {
	reg  *registry.Registry
	hist *history.Store
}

func New(reg *registry.Registry, hist *history.Store) *Aggregator {
	return &Aggregator{reg: reg, hist: hist}
}

// Snapshot reports the current state of one target. A target that exists
// but has never completed a check comes back as unknown, which is not an
// error; unknown names are domain.ErrNotFound.
func (a *Aggregator) Snapshot(name string) (domain.StatusSnapshot, error) {
	target, err := a.reg.Get(name)
	if err != nil {
		return domain.StatusSnapshot{}, err
	}

	window, err := a.hist.Recent(name, 0)
	if err != nil {
		return domain.StatusSnapshot{}, err
	}
	if len(window) == 0 {
		return domain.StatusSnapshot{
			Name:           target.Name,
			URL:            target.URL,
			CurrentOutcome: domain.OutcomeUnknown,
			LastCheckedAt:  time.Now().UTC(),
		}, nil
	}

	latest := window[len(window)-1]
	streak := 0
	for i := len(window) - 1; i >= 0 && window[i].Outcome.Failure(); i-- {
		streak++
	}

	return domain.StatusSnapshot{
		Name:                target.Name,
		URL:                 target.URL,
		CurrentOutcome:      latest.Outcome,
		LastCheckedAt:       latest.CheckedAt,
		HTTPStatus:          latest.HTTPStatus,
		LatencyMS:           latest.LatencyMS,
		Reason:              latest.Reason,
		ConsecutiveFailures: streak,
	}, nil
}

// Overall rolls the latest outcomes up into one status. Targets that have
// never been checked stay out of the calculation entirely.
func (a *Aggregator) Overall() domain.OverallStatus {
	targets := a.reg.List()
	outcomes := make([]domain.Outcome, 0, len(targets))
	for _, t := range targets {
		latest, ok, err := a.hist.Latest(t.Name)
		if err != nil || !ok {
			outcomes = append(outcomes, domain.OutcomeUnknown)
			continue
		}
		outcomes = append(outcomes, latest.Outcome)
	}
	return rollup(outcomes)
}

// System returns the roll-up plus every target's snapshot in registry
// order. The roll-up is derived from the same snapshots it ships with, so
// the two can never disagree.
func (a *Aggregator) System() (domain.SystemStatus, error) {
	targets := a.reg.List()
	snaps := make([]domain.StatusSnapshot, 0, len(targets))
	outcomes := make([]domain.Outcome, 0, len(targets))
	for _, t := range targets {
		snap, err := a.Snapshot(t.Name)
		if err != nil {
			return domain.SystemStatus{}, err
		}
		snaps = append(snaps, snap)
		outcomes = append(outcomes, snap.CurrentOutcome)
	}
	return domain.SystemStatus{Status: rollup(outcomes), Targets: snaps}, nil
}

// rollup: healthy when every decided target is up (vacuously healthy when
// nothing is decided yet), down when everything decided is failing,
// degraded for the mix in between.
func rollup(outcomes []domain.Outcome) domain.OverallStatus {
	decided, up := 0, 0
	for _, o := range outcomes {
		if o == domain.OutcomeUnknown {
			continue
		}
		decided++
		if o == domain.OutcomeUp {
			up++
		}
	}
	switch {
	case decided == 0 || up == decided:
		return domain.OverallHealthy
	case up == 0:
		return domain.OverallDown
	default:
		return domain.OverallDegraded
	}
}

package monitor

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/urlmon/urlmon/internal/domain"
	"github.com/urlmon/urlmon/internal/history"
	"github.com/urlmon/urlmon/internal/registry"
	"github.com/urlmon/urlmon/internal/scheduler"
	"github.com/urlmon/urlmon/internal/sink"
	"github.com/urlmon/urlmon/internal/status"
)

var (
	// ErrAlreadyRunning is returned by Start when monitoring is active.
	ErrAlreadyRunning = errors.New("monitoring is already running")
	// ErrNotRunning is returned by Stop when monitoring is not active.
	ErrNotRunning = errors.New("monitoring is not running")
	// ErrNoData is returned by ExportCSV when there is nothing to export.
	ErrNoData = errors.New("no monitoring data available")
)

// Service is the narrow front of the monitoring engine: lifecycle control
// plus the read-side queries the API layer serves. Everything behind it
// (scheduler, history, aggregation, durable sinks) stays internal.
type Service struct {
	log       *zap.Logger
	reg       *registry.Registry
	hist      *history.Store
	agg       *status.Aggregator
	sched     *scheduler.Scheduler
	loaders   []sink.Loader
	retention time.Duration

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

func New(
	log *zap.Logger,
	reg *registry.Registry,
	hist *history.Store,
	agg *status.Aggregator,
	sched *scheduler.Scheduler,
	loaders []sink.Loader,
	retention time.Duration,
) *Service {
	return &Service{
		log:       log,
		reg:       reg,
		hist:      hist,
		agg:       agg,
		sched:     sched,
		loaders:   loaders,
		retention: retention,
	}
}

// Restore replays durable results from the retention window back into the
// in-memory history, so a restart does not blank every status. The first
// loader that yields data wins; reading the same rows from a second sink
// would only duplicate them. Returns the number of restored results.
func (s *Service) Restore(ctx context.Context) int {
	since := time.Now().UTC().Add(-s.retention)
	for _, l := range s.loaders {
		results, err := l.LoadRecent(ctx, since)
		if err != nil {
			s.log.Warn("restore_failed", zap.Error(err))
			continue
		}
		if len(results) == 0 {
			continue
		}
		restored := 0
		for _, r := range results {
			if err := s.hist.Record(r); err == nil {
				restored++
			}
		}
		s.log.Info("history_restored",
			zap.Int("results", restored),
			zap.Int("loaded", len(results)),
		)
		return restored
	}
	return 0
}

// Start launches the periodic check loop. Starting twice is an error, not
// a second loop.
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.sched.Run(ctx)
		close(done)
	}()

	s.cancel = cancel
	s.done = done
	s.running = true
	s.log.Info("monitoring_started", zap.Int("targets", s.reg.Len()))
	return nil
}

// Stop halts the loop and waits for in-flight checks to drain; the
// scheduler bounds that wait with its drain timeout. Stopping an idle
// service is an error.
func (s *Service) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return ErrNotRunning
	}
	cancel, done := s.cancel, s.done
	s.running = false
	s.mu.Unlock()

	cancel()
	<-done
	s.log.Info("monitoring_stopped")
	return nil
}

func (s *Service) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// TargetStatus returns the current snapshot for one target.
func (s *Service) TargetStatus(name string) (domain.StatusSnapshot, error) {
	return s.agg.Snapshot(name)
}

// TargetHistory returns up to limit recent results, oldest first. Expired
// entries are trimmed first so a stopped scheduler cannot serve stale
// history.
func (s *Service) TargetHistory(name string, limit int) (domain.TargetHistory, error) {
	target, err := s.reg.Get(name)
	if err != nil {
		return domain.TargetHistory{}, err
	}
	s.hist.EvictExpired(time.Now().UTC())
	window, err := s.hist.Recent(name, limit)
	if err != nil {
		return domain.TargetHistory{}, err
	}
	return domain.TargetHistory{Name: target.Name, URL: target.URL, History: window}, nil
}

// SystemStatus returns the roll-up plus all per-target snapshots.
func (s *Service) SystemStatus() (domain.SystemStatus, error) {
	return s.agg.System()
}

// ExportCSV writes history as CSV: one target when name is set, all
// targets otherwise. Unknown names are ErrNotFound; a registry with no
// recorded results at all is ErrNoData, and nothing is written in either
// case.
func (s *Service) ExportCSV(w io.Writer, name string) error {
	var targets []domain.Target
	if name != "" {
		t, err := s.reg.Get(name)
		if err != nil {
			return err
		}
		targets = []domain.Target{t}
	} else {
		targets = s.reg.List()
	}

	type block struct {
		target domain.Target
		window []domain.CheckResult
	}
	blocks := make([]block, 0, len(targets))
	total := 0
	for _, t := range targets {
		window, err := s.hist.Recent(t.Name, 0)
		if err != nil {
			return err
		}
		blocks = append(blocks, block{target: t, window: window})
		total += len(window)
	}
	if total == 0 {
		return ErrNoData
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(sink.CSVHeader()); err != nil {
		return err
	}
	for _, b := range blocks {
		for _, r := range b.window {
			if err := cw.Write(sink.CSVRow(b.target, r)); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

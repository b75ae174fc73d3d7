package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/urlmon/urlmon/internal/domain"
	"github.com/urlmon/urlmon/internal/history"
	"github.com/urlmon/urlmon/internal/probe"
	"github.com/urlmon/urlmon/internal/registry"
)

// ResultSink receives every recorded result for durable storage. Enqueue
// must not block; the scheduler calls it on the check goroutine.
type ResultSink interface {
	Enqueue(domain.CheckResult)
}

// Scheduler drives the periodic checks. Each tick it dispatches one check
// per target; a target whose previous check is still running skips the
// tick instead of overlapping, so there is at most one in-flight check per
// target at any time. Targets are independent: a slow target never delays
// the others. Each pass also sweeps expired history entries.
type Scheduler struct {
	log          *zap.Logger
	reg          *registry.Registry
	checker      probe.Checker
	hist         *history.Store
	sink         ResultSink // optional
	interval     time.Duration
	timeout      time.Duration
	drainTimeout time.Duration
	sem          chan struct{}

	mu       sync.Mutex
	inflight map[string]bool
	wg       sync.WaitGroup
}

func New(
	log *zap.Logger,
	reg *registry.Registry,
	checker probe.Checker,
	hist *history.Store,
	sink ResultSink,
	interval time.Duration,
	timeout time.Duration,
	maxConcurrent int,
	drainTimeout time.Duration,
) *Scheduler {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if maxConcurrent < 1 {
		// one slot per target: the per-target guard is the only limit
		maxConcurrent = reg.Len()
		if maxConcurrent < 1 {
			maxConcurrent = 1
		}
	}
	if drainTimeout <= 0 {
		drainTimeout = 10 * time.Second
	}
	return &Scheduler{
		log:          log,
		reg:          reg,
		checker:      checker,
		hist:         hist,
		sink:         sink,
		interval:     interval,
		timeout:      timeout,
		drainTimeout: drainTimeout,
		sem:          make(chan struct{}, maxConcurrent),
		inflight:     make(map[string]bool, reg.Len()),
	}
}

// Run starts the loop: an immediate pass, then one pass per tick. It
// returns once ctx is cancelled and the in-flight checks have drained,
// bounded by the drain timeout.
func (s *Scheduler) Run(ctx context.Context) {
	if s.interval <= 0 {
		s.log.Info("scheduler_disabled")
		return
	}
	t := time.NewTicker(s.interval)
	defer t.Stop()

	s.runPass(ctx)

	for {
		select {
		case <-ctx.Done():
			s.drain()
			s.log.Info("scheduler_stopped")
			return
		case <-t.C:
			s.runPass(ctx)
		}
	}
}

func (s *Scheduler) runPass(ctx context.Context) {
	for _, target := range s.reg.List() {
		s.dispatch(ctx, target)
	}
	if n := s.hist.EvictExpired(time.Now()); n > 0 {
		s.log.Debug("history_evicted", zap.Int("entries", n))
	}
}

// dispatch starts one check goroutine for the target unless its previous
// check is still in flight, in which case the tick is skipped.
func (s *Scheduler) dispatch(ctx context.Context, target domain.Target) {
	s.mu.Lock()
	if s.inflight[target.Name] {
		s.mu.Unlock()
		s.log.Debug("check_skipped",
			zap.String("target", target.Name),
			zap.String("url", target.URL),
		)
		return
	}
	s.inflight[target.Name] = true
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			s.mu.Lock()
			s.inflight[target.Name] = false
			s.mu.Unlock()
		}()

		// Queued, not yet in flight: give the slot up if we shut down first.
		select {
		case s.sem <- struct{}{}:
		case <-ctx.Done():
			return
		}
		defer func() { <-s.sem }()

		// The probe carries its own deadline, detached from the run
		// context, so an in-flight check finishes cleanly during shutdown.
		cctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		res := s.checker.Check(cctx, target)
		if err := s.hist.Record(res); err != nil {
			s.log.Warn("record_error",
				zap.String("target", target.Name),
				zap.Error(err),
			)
			return
		}
		if s.sink != nil {
			s.sink.Enqueue(res)
		}
		s.log.Debug("target_checked",
			zap.String("target", target.Name),
			zap.String("url", target.URL),
			zap.String("outcome", string(res.Outcome)),
			zap.Int("status", res.HTTPStatus),
			zap.Float64("latency_ms", res.LatencyMS),
			zap.String("reason", res.Reason),
		)
	}()
}

// drain waits for in-flight checks, but never longer than the drain
// timeout.
func (s *Scheduler) drain() {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(s.drainTimeout):
		s.log.Warn("scheduler_drain_timeout", zap.Duration("timeout", s.drainTimeout))
	}
}

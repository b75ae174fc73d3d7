package sink

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/urlmon/urlmon/internal/domain"
)

const (
	defaultQueueSize  = 256
	defaultSweep      = time.Hour
	finalFlushTimeout = 5 * time.Second
)

// Flusher decouples the check path from durable writes. Results are
// enqueued without blocking (a full queue drops the result and logs it)
// and flushed to the sinks in batches on a fixed interval. A coarser
// sweep asks retention-capable sinks to drop rows past the window. On
// shutdown the queue is drained one last time so nothing accepted is
// left behind.
type Flusher struct {
	log       *zap.Logger
	sinks     Multi
	evicters  []Evicter
	interval  time.Duration
	retention time.Duration
	sweep     time.Duration
	queue     chan domain.CheckResult
}

func NewFlusher(log *zap.Logger, sinks []Sink, interval, retention time.Duration) *Flusher {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Flusher{
		log:       log,
		sinks:     Multi(sinks),
		evicters:  Evicters(sinks),
		interval:  interval,
		retention: retention,
		sweep:     defaultSweep,
		queue:     make(chan domain.CheckResult, defaultQueueSize),
	}
}

// Enqueue hands a result to the flusher. It never blocks: when the queue
// is full the result is dropped from the durable log (the in-memory
// history already has it).
func (f *Flusher) Enqueue(r domain.CheckResult) {
	select {
	case f.queue <- r:
	default:
		f.log.Warn("flush_queue_full",
			zap.String("target", r.TargetName),
		)
	}
}

// Run flushes until ctx is cancelled, then drains whatever is still
// queued. The final flush gets its own bounded context so a cancelled
// run context cannot abort it.
func (f *Flusher) Run(ctx context.Context) {
	flushTick := time.NewTicker(f.interval)
	defer flushTick.Stop()
	sweepTick := time.NewTicker(f.sweep)
	defer sweepTick.Stop()

	for {
		select {
		case <-ctx.Done():
			fctx, cancel := context.WithTimeout(context.Background(), finalFlushTimeout)
			f.flush(fctx)
			cancel()
			f.log.Info("flusher_stopped")
			return
		case <-flushTick.C:
			f.flush(ctx)
		case <-sweepTick.C:
			f.evict(ctx)
		}
	}
}

// flush drains the queue into one batch and appends it to every sink.
func (f *Flusher) flush(ctx context.Context) {
	var batch []domain.CheckResult
	for {
		select {
		case r := <-f.queue:
			batch = append(batch, r)
		default:
			if len(batch) == 0 {
				return
			}
			if err := f.sinks.Append(ctx, batch); err != nil {
				f.log.Warn("flush_failed",
					zap.Int("results", len(batch)),
					zap.Error(err),
				)
				return
			}
			f.log.Debug("flushed", zap.Int("results", len(batch)))
			return
		}
	}
}

func (f *Flusher) evict(ctx context.Context) {
	if f.retention <= 0 {
		return
	}
	cutoff := time.Now().UTC().Add(-f.retention)
	for _, e := range f.evicters {
		n, err := e.EvictBefore(ctx, cutoff)
		if err != nil {
			f.log.Warn("sink_evict_failed", zap.Error(err))
			continue
		}
		if n > 0 {
			f.log.Info("sink_evicted", zap.Int64("rows", n))
		}
	}
}

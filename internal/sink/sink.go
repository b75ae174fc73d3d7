package sink

import (
	"context"
	"time"

	"go.uber.org/multierr"

	"github.com/urlmon/urlmon/internal/domain"
)

// Sink is a durable destination for check results. The contract is
// best-effort: every recorded result is eventually appended, batched by
// the flusher, never synchronously on the check path.
type Sink interface {
	Append(ctx context.Context, results []domain.CheckResult) error
	Close() error
}

// Loader is implemented by sinks that can read results back, used to warm
// the in-memory history after a restart.
type Loader interface {
	LoadRecent(ctx context.Context, since time.Time) ([]domain.CheckResult, error)
}

// Evicter is implemented by sinks that can drop rows older than a cutoff,
// mirroring the in-memory retention in the durable medium.
type Evicter interface {
	EvictBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Multi fans every append out to all member sinks. One failing member
// never stops the others; the errors are combined.
type Multi []Sink

var _ Sink = (Multi)(nil)

func (m Multi) Append(ctx context.Context, results []domain.CheckResult) error {
	var err error
	for _, s := range m {
		if s == nil {
			continue
		}
		err = multierr.Append(err, s.Append(ctx, results))
	}
	return err
}

func (m Multi) Close() error {
	var err error
	for _, s := range m {
		if s == nil {
			continue
		}
		err = multierr.Append(err, s.Close())
	}
	return err
}

// Loaders filters the sinks down to the ones that support read-back.
func Loaders(sinks []Sink) []Loader {
	var out []Loader
	for _, s := range sinks {
		if l, ok := s.(Loader); ok {
			out = append(out, l)
		}
	}
	return out
}

// Evicters filters the sinks down to the ones that support retention.
func Evicters(sinks []Sink) []Evicter {
	var out []Evicter
	for _, s := range sinks {
		if e, ok := s.(Evicter); ok {
			out = append(out, e)
		}
	}
	return out
}

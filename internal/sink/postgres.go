package sink

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/urlmon/urlmon/internal/domain"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS check_results (
  id          BIGSERIAL PRIMARY KEY,
  target_name TEXT NOT NULL,
  outcome     TEXT NOT NULL,
  http_status INTEGER NOT NULL DEFAULT 0,
  latency_ms  DOUBLE PRECISION NOT NULL,
  reason      TEXT NOT NULL DEFAULT '',
  checked_at  TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_check_results_target_time
  ON check_results (target_name, checked_at DESC);
`

// Postgres stores results in a shared database, for deployments where the
// history should survive the host. Schema is ensured on open.
type Postgres struct {
	pool *pgxpool.Pool
}

var _ Sink = (*Postgres)(nil)
var _ Loader = (*Postgres)(nil)
var _ Evicter = (*Postgres)(nil)

func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	p, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := p.Ping(ctx); err != nil {
		p.Close()
		return nil, err
	}
	if _, err := p.Exec(ctx, postgresSchema); err != nil {
		p.Close()
		return nil, err
	}
	return &Postgres{pool: p}, nil
}

func (p *Postgres) Append(ctx context.Context, results []domain.CheckResult) error {
	if len(results) == 0 {
		return nil
	}

	b := &pgx.Batch{}
	for _, r := range results {
		b.Queue(`INSERT INTO check_results (target_name, outcome, http_status, latency_ms, reason, checked_at)
			 VALUES ($1,$2,$3,$4,$5,$6)`,
			r.TargetName, string(r.Outcome), r.HTTPStatus, r.LatencyMS, r.Reason, r.CheckedAt.UTC())
	}

	br := p.pool.SendBatch(ctx, b)
	defer br.Close()
	for range results {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

func (p *Postgres) LoadRecent(ctx context.Context, since time.Time) ([]domain.CheckResult, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT target_name, outcome, http_status, latency_ms, reason, checked_at
		  FROM check_results
		 WHERE checked_at > $1
		 ORDER BY checked_at ASC`, since.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.CheckResult
	for rows.Next() {
		var r domain.CheckResult
		var outcome string
		if err := rows.Scan(&r.TargetName, &outcome, &r.HTTPStatus, &r.LatencyMS, &r.Reason, &r.CheckedAt); err != nil {
			return nil, err
		}
		r.Outcome = domain.Outcome(outcome)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (p *Postgres) EvictBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	ct, err := p.pool.Exec(ctx,
		`DELETE FROM check_results WHERE checked_at <= $1`, cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

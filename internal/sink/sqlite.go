package sink

import (
	"context"
	"database/sql"
	"time"

	"github.com/urlmon/urlmon/internal/domain"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS check_results (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	target_name TEXT NOT NULL,
	outcome     TEXT NOT NULL,
	http_status INTEGER NOT NULL DEFAULT 0,
	latency_ms  REAL NOT NULL,
	reason      TEXT NOT NULL DEFAULT '',
	checked_at  DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_check_results_checked_at
	ON check_results (checked_at);
`

// SQLite stores results in a local database file. Results can be read
// back after a restart and trimmed to the retention window, so the sink
// doubles as the warm-start source.
type SQLite struct {
	db *sql.DB
}

var _ Sink = (*SQLite)(nil)
var _ Loader = (*SQLite)(nil)
var _ Evicter = (*SQLite)(nil)

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Single connection prevents concurrent write contention in SQLite.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Append(ctx context.Context, results []domain.CheckResult) error {
	if len(results) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO check_results (target_name, outcome, http_status, latency_ms, reason, checked_at)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range results {
		if _, err := stmt.ExecContext(ctx,
			r.TargetName, string(r.Outcome), r.HTTPStatus, r.LatencyMS, r.Reason, r.CheckedAt.UTC(),
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// LoadRecent returns every stored result strictly newer than since, oldest
// first, ready to replay into the history store.
func (s *SQLite) LoadRecent(ctx context.Context, since time.Time) ([]domain.CheckResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT target_name, outcome, http_status, latency_ms, reason, checked_at
		FROM check_results
		WHERE checked_at > ?
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

// EvictBefore deletes rows at or before the cutoff and reports how many
// went away.
func (s *SQLite) EvictBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM check_results WHERE checked_at <= ?`, cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

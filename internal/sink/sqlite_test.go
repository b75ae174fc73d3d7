package sink

import (
	"context"
	"testing"
	"time"

	"github.com/urlmon/urlmon/internal/domain"
)

func newTestSQLite(t *testing.T) *SQLite {
	t.Helper()
	s, err := NewSQLite("file::memory:?cache=shared&mode=memory")
	if err != nil {
		t.Fatalf("failed to open in-memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLite_AppendAndLoadRecent(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	batch := []domain.CheckResult{
		{TargetName: "a", Outcome: domain.OutcomeUp, HTTPStatus: 200, LatencyMS: 120.5, CheckedAt: base},
		{TargetName: "a", Outcome: domain.OutcomeDown, HTTPStatus: 503, LatencyMS: 80, Reason: "HTTP 503", CheckedAt: base.Add(time.Minute)},
		{TargetName: "b", Outcome: domain.OutcomeError, Reason: "connection refused", CheckedAt: base.Add(2 * time.Minute)},
	}
	if err := s.Append(ctx, batch); err != nil {
		t.Fatalf("Append: %v", err)
	}

	got, err := s.LoadRecent(ctx, base.Add(-time.Hour))
	if err != nil {
		t.Fatalf("LoadRecent: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("want 3 rows, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].CheckedAt.Before(got[i-1].CheckedAt) {
			t.Fatalf("rows not in ascending time order: %v", got)
		}
	}

	first := got[0]
	if first.TargetName != "a" || first.Outcome != domain.OutcomeUp || first.HTTPStatus != 200 {
		t.Fatalf("first row mangled: %+v", first)
	}
	if first.LatencyMS != 120.5 {
		t.Fatalf("latency lost precision: %v", first.LatencyMS)
	}
	if !first.CheckedAt.Equal(base) {
		t.Fatalf("timestamp drifted: want %v got %v", base, first.CheckedAt)
	}
	if got[2].Reason != "connection refused" {
		t.Fatalf("reason lost: %+v", got[2])
	}
}

func TestSQLite_LoadRecentFiltersBySince(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()
	now := time.Now().UTC()

	batch := []domain.CheckResult{
		{TargetName: "a", Outcome: domain.OutcomeUp, CheckedAt: now.Add(-25 * time.Hour)},
		{TargetName: "a", Outcome: domain.OutcomeUp, CheckedAt: now.Add(-23 * time.Hour)},
	}
	if err := s.Append(ctx, batch); err != nil {
		t.Fatalf("Append: %v", err)
	}

	got, err := s.LoadRecent(ctx, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("LoadRecent: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("want only the 23h-old row, got %d rows", len(got))
	}
}

func TestSQLite_EvictBefore(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()
	now := time.Now().UTC()

	batch := []domain.CheckResult{
		{TargetName: "a", Outcome: domain.OutcomeUp, CheckedAt: now.Add(-48 * time.Hour)},
		{TargetName: "a", Outcome: domain.OutcomeUp, CheckedAt: now.Add(-25 * time.Hour)},
		{TargetName: "a", Outcome: domain.OutcomeUp, CheckedAt: now.Add(-time.Hour)},
	}
	if err := s.Append(ctx, batch); err != nil {
		t.Fatalf("Append: %v", err)
	}

	n, err := s.EvictBefore(ctx, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("EvictBefore: %v", err)
	}
	if n != 2 {
		t.Fatalf("want 2 rows evicted, got %d", n)
	}

	// Idempotent: nothing left past the cutoff.
	n, err = s.EvictBefore(ctx, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("second EvictBefore: %v", err)
	}
	if n != 0 {
		t.Fatalf("second eviction should be a no-op, removed %d", n)
	}

	got, err := s.LoadRecent(ctx, now.Add(-72*time.Hour))
	if err != nil {
		t.Fatalf("LoadRecent: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("want 1 surviving row, got %d", len(got))
	}
}

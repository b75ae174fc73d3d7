package sink

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/urlmon/urlmon/internal/domain"
)

func TestPostgres_AppendLoadEvict(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set; skipping Postgres integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	p, err := NewPostgres(ctx, dsn)
	if err != nil {
		t.Fatalf("NewPostgres: %v", err)
	}
	defer p.Close()

	// Unique name per run so reruns against the same database stay clean.
	name := fmt.Sprintf("itest-%d", time.Now().UTC().UnixNano())
	now := time.Now().UTC().Truncate(time.Millisecond)

	batch := []domain.CheckResult{
		{TargetName: name, Outcome: domain.OutcomeUp, HTTPStatus: 200, LatencyMS: 42, CheckedAt: now.Add(-2 * time.Hour)},
		{TargetName: name, Outcome: domain.OutcomeDown, HTTPStatus: 500, LatencyMS: 55, Reason: "HTTP 500", CheckedAt: now},
	}
	if err := p.Append(ctx, batch); err != nil {
		t.Fatalf("Append: %v", err)
	}

	rows, err := p.LoadRecent(ctx, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("LoadRecent: %v", err)
	}
	var mine []domain.CheckResult
	for _, r := range rows {
		if r.TargetName == name {
			mine = append(mine, r)
		}
	}
	if len(mine) != 2 {
		t.Fatalf("want 2 rows back, got %d", len(mine))
	}
	if mine[0].Outcome != domain.OutcomeUp || mine[1].Reason != "HTTP 500" {
		t.Fatalf("rows mangled: %+v", mine)
	}

	if _, err := p.EvictBefore(ctx, now.Add(-time.Hour)); err != nil {
		t.Fatalf("EvictBefore: %v", err)
	}
	rows, err = p.LoadRecent(ctx, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("LoadRecent after evict: %v", err)
	}
	for _, r := range rows {
		if r.TargetName == name && r.CheckedAt.Before(now.Add(-time.Hour)) {
			t.Fatalf("evicted row still present: %+v", r)
		}
	}
}

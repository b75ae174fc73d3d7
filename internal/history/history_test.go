package history

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/urlmon/urlmon/internal/domain"
)

var testTargets = []domain.Target{
	{Name: "A", URL: "https://a.test"},
	{Name: "B", URL: "https://b.test"},
}

func resultAt(name string, ts time.Time, outcome domain.Outcome) domain.CheckResult {
	return domain.CheckResult{
		TargetName: name,
		Outcome:    outcome,
		HTTPStatus: 200,
		LatencyMS:  12.5,
		CheckedAt:  ts,
	}
}

func TestRecordThenRecent_PreservesOrder(t *testing.T) {
	s := New(testTargets, 24*time.Hour)
	base := time.Now().UTC().Add(-time.Minute)

	for i := 0; i < 5; i++ {
		r := resultAt("A", base.Add(time.Duration(i)*time.Second), domain.OutcomeUp)
		r.LatencyMS = float64(i)
		if err := s.Record(r); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}

	got, err := s.Recent("A", 5)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("want 5 entries, got %d", len(got))
	}
	for i, r := range got {
		if r.LatencyMS != float64(i) {
			t.Fatalf("order broken at %d: %+v", i, got)
		}
	}
}

func TestRecent_LimitKeepsNewest(t *testing.T) {
	s := New(testTargets, 24*time.Hour)
	base := time.Now().UTC().Add(-time.Minute)

	for i := 0; i < 10; i++ {
		r := resultAt("A", base.Add(time.Duration(i)*time.Second), domain.OutcomeUp)
		r.LatencyMS = float64(i)
		if err := s.Record(r); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	got, err := s.Recent("A", 3)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("want 3 entries, got %d", len(got))
	}
	// The three newest, still oldest first.
	for i, want := range []float64{7, 8, 9} {
		if got[i].LatencyMS != want {
			t.Fatalf("want newest three, got %+v", got)
		}
	}
}

func TestRecent_ZeroLimitReturnsAll(t *testing.T) {
	s := New(testTargets, 24*time.Hour)
	for i := 0; i < 4; i++ {
		if err := s.Record(resultAt("A", time.Now().UTC(), domain.OutcomeUp)); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	got, err := s.Recent("A", 0)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("want all 4 entries, got %d", len(got))
	}
}

func TestRecent_EmptyWindowIsNotAnError(t *testing.T) {
	s := New(testTargets, 24*time.Hour)
	got, err := s.Recent("B", 10)
	if err != nil {
		t.Fatalf("empty window must not error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("want empty history, got %+v", got)
	}
}

func TestUnknownTarget(t *testing.T) {
	s := New(testTargets, 24*time.Hour)

	if err := s.Record(resultAt("missing", time.Now(), domain.OutcomeUp)); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("record: want ErrNotFound, got %v", err)
	}
	if _, err := s.Recent("missing", 1); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("recent: want ErrNotFound, got %v", err)
	}
	if _, _, err := s.Latest("missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("latest: want ErrNotFound, got %v", err)
	}
}

func TestLatest(t *testing.T) {
	s := New(testTargets, 24*time.Hour)

	if _, ok, err := s.Latest("A"); err != nil || ok {
		t.Fatalf("empty window: want ok=false no error, got ok=%v err=%v", ok, err)
	}

	now := time.Now().UTC()
	s.Record(resultAt("A", now.Add(-2*time.Second), domain.OutcomeDown))
	s.Record(resultAt("A", now.Add(-time.Second), domain.OutcomeUp))

	got, ok, err := s.Latest("A")
	if err != nil || !ok {
		t.Fatalf("latest: ok=%v err=%v", ok, err)
	}
	if got.Outcome != domain.OutcomeUp {
		t.Fatalf("want the newest entry, got %+v", got)
	}
}

func TestEvictExpired_RetentionBoundary(t *testing.T) {
	s := New(testTargets, 24*time.Hour)
	now := time.Now().UTC()

	s.Record(resultAt("A", now.Add(-25*time.Hour), domain.OutcomeUp))
	s.Record(resultAt("A", now.Add(-24*time.Hour), domain.OutcomeUp)) // exactly at the boundary
	s.Record(resultAt("A", now.Add(-23*time.Hour), domain.OutcomeDown))

	evicted := s.EvictExpired(now)
	if evicted != 2 {
		t.Fatalf("want 2 evicted (25h and exactly-24h), got %d", evicted)
	}

	got, err := s.Recent("A", 0)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("want only the 23h entry, got %+v", got)
	}
	if now.Sub(got[0].CheckedAt) > 24*time.Hour {
		t.Fatalf("survivor violates retention: %+v", got[0])
	}
}

func TestEvictExpired_Idempotent(t *testing.T) {
	s := New(testTargets, 24*time.Hour)
	now := time.Now().UTC()

	s.Record(resultAt("A", now.Add(-30*time.Hour), domain.OutcomeUp))
	s.Record(resultAt("A", now.Add(-time.Hour), domain.OutcomeUp))

	if evicted := s.EvictExpired(now); evicted != 1 {
		t.Fatalf("first pass: want 1 evicted, got %d", evicted)
	}
	if evicted := s.EvictExpired(now); evicted != 0 {
		t.Fatalf("second pass should be a no-op, got %d", evicted)
	}
}

func TestStore_ConcurrentAccess(t *testing.T) {
	s := New(testTargets, 24*time.Hour)
	var wg sync.WaitGroup

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			name := testTargets[n%len(testTargets)].Name
			for j := 0; j < 100; j++ {
				if err := s.Record(resultAt(name, time.Now().UTC(), domain.OutcomeUp)); err != nil {
					t.Errorf("record: %v", err)
					return
				}
				if _, err := s.Recent(name, 10); err != nil {
					t.Errorf("recent: %v", err)
					return
				}
			}
		}(i)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < 50; j++ {
			s.EvictExpired(time.Now())
		}
	}()
	wg.Wait()

	for _, target := range testTargets {
		got, err := s.Recent(target.Name, 0)
		if err != nil {
			t.Fatalf("recent %s: %v", target.Name, err)
		}
		if len(got) != 200 {
			t.Fatalf("%s: want 200 entries, got %d", target.Name, len(got))
		}
	}
}

func BenchmarkRecord(b *testing.B) {
	targets := make([]domain.Target, 10)
	for i := range targets {
		targets[i] = domain.Target{Name: fmt.Sprintf("t%d", i), URL: "https://t.test"}
	}
	s := New(targets, 24*time.Hour)
	r := resultAt("t0", time.Now().UTC(), domain.OutcomeUp)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.CheckedAt = time.Now().UTC()
		_ = s.Record(r)
	}
}

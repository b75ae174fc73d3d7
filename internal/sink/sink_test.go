package sink

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/urlmon/urlmon/internal/domain"
)

type failSink struct {
	memSink
	err error
}

func (f *failSink) Append(ctx context.Context, results []domain.CheckResult) error {
	f.memSink.Append(ctx, results)
	return f.err
}

func TestMulti_FansOutToAllSinks(t *testing.T) {
	a, b := &memSink{}, &memSink{}
	m := Multi{a, b}

	batch := []domain.CheckResult{{TargetName: "t", Outcome: domain.OutcomeUp, CheckedAt: time.Now().UTC()}}
	if err := m.Append(context.Background(), batch); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if a.count() != 1 || b.count() != 1 {
		t.Fatalf("both sinks should receive the batch: a=%d b=%d", a.count(), b.count())
	}
}

func TestMulti_OneFailureDoesNotStopOthers(t *testing.T) {
	bad := &failSink{err: errors.New("disk full")}
	good := &memSink{}
	m := Multi{bad, good}

	batch := []domain.CheckResult{{TargetName: "t", Outcome: domain.OutcomeUp, CheckedAt: time.Now().UTC()}}
	err := m.Append(context.Background(), batch)
	if err == nil {
		t.Fatal("want the member failure surfaced")
	}
	if good.count() != 1 {
		t.Fatal("healthy sink should still receive the batch")
	}
}

func TestMulti_CloseClosesAll(t *testing.T) {
	a, b := &memSink{}, &memSink{}
	m := Multi{a, b, nil}

	if err := m.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !a.closed || !b.closed {
		t.Fatal("all members should be closed")
	}
}

func TestLoadersAndEvicters_FilterByCapability(t *testing.T) {
	plain := &memSink{}
	evicting := &evictSink{}
	sinks := []Sink{plain, evicting}

	if got := Loaders(sinks); len(got) != 0 {
		t.Fatalf("no sink here can load, got %d loaders", len(got))
	}
	if got := Evicters(sinks); len(got) != 1 {
		t.Fatalf("want 1 evicter, got %d", len(got))
	}
}

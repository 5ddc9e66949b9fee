package cleanup

import (
	"context"
	"testing"
	"time"
)

type stubPurger struct {
	cutoffs []time.Time
	purged  int64
}

func (p *stubPurger) PurgeEndedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	p.cutoffs = append(p.cutoffs, cutoff)
	return p.purged, nil
}

func TestRunOnceUsesRetentionCutoff(t *testing.T) {
	purger := &stubPurger{purged: 3}
	job := New(purger, 48*time.Hour, time.Hour, nil)

	frozen := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	job.now = func() time.Time { return frozen }

	purged, err := job.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("run once: %v", err)
	}
	if purged != 3 {
		t.Fatalf("unexpected purge count: %d", purged)
	}

	if len(purger.cutoffs) != 1 {
		t.Fatalf("expected one purge call, got %d", len(purger.cutoffs))
	}
	want := frozen.Add(-48 * time.Hour)
	if !purger.cutoffs[0].Equal(want) {
		t.Fatalf("unexpected cutoff: got %s want %s", purger.cutoffs[0], want)
	}
}

func TestNewAppliesDefaults(t *testing.T) {
	job := New(&stubPurger{}, 0, 0, nil)

	if job.retention != 90*24*time.Hour {
		t.Fatalf("unexpected default retention: %s", job.retention)
	}
	if job.interval != 6*time.Hour {
		t.Fatalf("unexpected default interval: %s", job.interval)
	}
}

func TestRunOnceWithoutPurger(t *testing.T) {
	job := New(nil, time.Hour, time.Hour, nil)

	if _, err := job.RunOnce(context.Background()); err == nil {
		t.Fatal("expected error without a purger")
	}
}

package stats

import (
	"testing"
	"time"
)

func TestRefreshStats_Percentiles(t *testing.T) {
	s := NewRefreshStats(time.Hour)
	for i := 1; i <= 5; i++ {
		s.Record(time.Duration(i*100)*time.Microsecond, i)
	}

	snap := s.Snapshot()
	if snap.Count != 5 {
		t.Fatalf("expected count=5, got %d", snap.Count)
	}
	if snap.MinUs != 100 || snap.MaxUs != 500 {
		t.Fatalf("expected min=100 max=500, got min=%d max=%d", snap.MinUs, snap.MaxUs)
	}
	if snap.AvgUs != 300 {
		t.Fatalf("expected avg=300, got %f", snap.AvgUs)
	}
	if snap.P50Us != 300 || snap.P95Us != 480 || snap.P99Us != 496 {
		t.Fatalf("expected p50=300 p95=480 p99=496, got %f %f %f", snap.P50Us, snap.P95Us, snap.P99Us)
	}
	if snap.AvgItems != 3 {
		t.Fatalf("expected avg items=3, got %f", snap.AvgItems)
	}
}

func TestRefreshStats_PrunesExpiredSamples(t *testing.T) {
	now := time.Unix(1000, 0)
	s := NewRefreshStats(time.Minute)
	s.now = func() time.Time { return now }

	s.Record(time.Millisecond, 1)
	now = now.Add(2 * time.Minute)
	if snap := s.Snapshot(); snap.Count != 0 {
		t.Fatalf("expected count=0 after prune, got %d", snap.Count)
	}

	s.Record(2*time.Millisecond, 1)
	snap := s.Snapshot()
	if snap.Count != 1 || snap.MinUs != 2000 || snap.MaxUs != 2000 {
		t.Fatalf("expected a single 2000us sample, got %+v", snap)
	}
	if !snap.Last.Equal(now) {
		t.Errorf("expected last=%v, got %v", now, snap.Last)
	}
}

func TestRefreshStats_ClampsNegativeDuration(t *testing.T) {
	s := NewRefreshStats(time.Hour)
	s.Record(-time.Second, 0)
	snap := s.Snapshot()
	if snap.Count != 1 || snap.MinUs != 0 {
		t.Fatalf("expected clamped duration=0, got %+v", snap)
	}
}

func TestRefreshStats_Empty(t *testing.T) {
	if snap := NewRefreshStats(0).Snapshot(); snap.Count != 0 || !snap.Last.IsZero() {
		t.Errorf("expected empty snapshot, got %+v", snap)
	}
}

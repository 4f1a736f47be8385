// Package stats keeps rolling-window statistics of outline rebuilds.
package stats

import (
	"slices"
	"sync"
	"time"
)

type sample struct {
	at       time.Time
	duration time.Duration
	items    int
}

// RefreshSnapshot aggregates the rebuilds inside the window. Latencies
// are in microseconds since a rebuild rarely takes a millisecond.
type RefreshSnapshot struct {
	Count    int       `json:"count"`
	MinUs    int64     `json:"min_us"`
	MaxUs    int64     `json:"max_us"`
	AvgUs    float64   `json:"avg_us"`
	P50Us    float64   `json:"p50_us"`
	P95Us    float64   `json:"p95_us"`
	P99Us    float64   `json:"p99_us"`
	AvgItems float64   `json:"avg_items"`
	Last     time.Time `json:"last,omitzero"`
}

// RefreshStats tracks structural rebuild latencies across all sessions.
type RefreshStats struct {
	mu      sync.Mutex
	samples []sample
	window  time.Duration
	now     func() time.Time
}

func NewRefreshStats(window time.Duration) *RefreshStats {
	if window <= 0 {
		window = time.Hour
	}
	return &RefreshStats{
		samples: make([]sample, 0, 256),
		window:  window,
		now:     time.Now,
	}
}

// Record matches the outline refresh observer signature.
func (s *RefreshStats) Record(d time.Duration, items int) {
	d = max(d, 0)
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.pruneLocked(now)
	s.samples = append(s.samples, sample{at: now, duration: d, items: items})
}

func (s *RefreshStats) Snapshot() RefreshSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(s.now())
	if len(s.samples) == 0 {
		return RefreshSnapshot{}
	}

	values := make([]int64, 0, len(s.samples))
	var sum int64
	var items int
	for _, sm := range s.samples {
		us := sm.duration.Microseconds()
		values = append(values, us)
		sum += us
		items += sm.items
	}
	slices.Sort(values)

	n := float64(len(values))
	return RefreshSnapshot{
		Count:    len(values),
		MinUs:    values[0],
		MaxUs:    values[len(values)-1],
		AvgUs:    float64(sum) / n,
		P50Us:    percentile(values, 50),
		P95Us:    percentile(values, 95),
		P99Us:    percentile(values, 99),
		AvgItems: float64(items) / n,
		Last:     s.samples[len(s.samples)-1].at,
	}
}

func (s *RefreshStats) pruneLocked(now time.Time) {
	cutoff := now.Add(-s.window)
	s.samples = slices.DeleteFunc(s.samples, func(sm sample) bool {
		return sm.at.Before(cutoff)
	})
}

// percentile interpolates linearly between the closest ranks.
func percentile(sorted []int64, pct float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if pct <= 0 {
		return float64(sorted[0])
	}
	if pct >= 100 {
		return float64(sorted[len(sorted)-1])
	}

	rank := (float64(len(sorted)-1) * pct) / 100.0
	lower := int(rank)
	if lower+1 >= len(sorted) {
		return float64(sorted[lower])
	}
	lo, hi := float64(sorted[lower]), float64(sorted[lower+1])
	return lo + (hi-lo)*(rank-float64(lower))
}

package negotio

import (
	"context"
	"sync/atomic"
	"time"
)

// Stats holds monotonic counters for completed negotiations. Record is
// safe to call from any goroutine; no external locking is required.
type Stats struct {
	total          uint64
	successes      uint64
	totalLatencyMs uint64
	logger         Logger
}

// NewStats builds a Stats sink that logs its periodic summary through
// logger.
func NewStats(logger Logger) *Stats {
	return &Stats{logger: ensureLogger(logger)}
}

// Record increments the total count and, on success, the success count
// and the cumulative latency used to compute the mean in the periodic
// summary.
func (s *Stats) Record(durationMs uint32, success bool) {
	atomic.AddUint64(&s.total, 1)
	if success {
		atomic.AddUint64(&s.successes, 1)
		atomic.AddUint64(&s.totalLatencyMs, uint64(durationMs))
	}
}

// StatsSnapshot is a point-in-time read of the counters.
type StatsSnapshot struct {
	Total          uint64
	Successes      uint64
	TotalLatencyMs uint64
}

func (s *Stats) snapshot() StatsSnapshot {
	return StatsSnapshot{
		Total:          atomic.LoadUint64(&s.total),
		Successes:      atomic.LoadUint64(&s.successes),
		TotalLatencyMs: atomic.LoadUint64(&s.totalLatencyMs),
	}
}

// Run ticks once per second (jittered by a few milliseconds so the
// emitter doesn't phase-lock with the sweep ticker) and logs a summary
// line until ctx is canceled.
func (s *Stats) Run(ctx context.Context) {
	prng := newXorShiftPRNG()
	for {
		jitter := time.Duration(prng.Uint32Xorshift()%20) * time.Millisecond
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Second + jitter):
			s.emit()
		}
	}
}

func (s *Stats) emit() {
	snap := s.snapshot()
	if snap.Successes == 0 {
		s.logger.Infof("negotiations total=%d successes=0 (no successes yet)", snap.Total)
		return
	}
	mean := float64(snap.TotalLatencyMs) / float64(snap.Successes)
	s.logger.Infof("negotiations total=%d successes=%d mean_latency_ms=%.2f", snap.Total, snap.Successes, mean)
}

package negotio

import (
	"context"
	"time"
)

// DefaultSweepIntervalMs is the recommended cadence for the timeout
// sweep absent an explicit negotiation.sweep_interval_ms override.
const DefaultSweepIntervalMs = 100

// sweeper periodically walks the engine's session table and removes
// sessions whose age exceeds their policy's timeout, recording each as
// an unsuccessful negotiation before it is discarded.
type sweeper struct {
	engine   *Engine
	policies *PolicyRegistry
	stats    *Stats
	logger   Logger
	interval time.Duration
}

func newSweeper(engine *Engine, policies *PolicyRegistry, stats *Stats, logger Logger, intervalMs uint32) *sweeper {
	if intervalMs == 0 {
		intervalMs = DefaultSweepIntervalMs
	}
	return &sweeper{
		engine:   engine,
		policies: policies,
		stats:    stats,
		logger:   ensureLogger(logger),
		interval: time.Duration(intervalMs) * time.Millisecond,
	}
}

// Run ticks at s.interval, jittered by a few milliseconds using the
// package's xorshift PRNG so that the sweep doesn't phase-lock with the
// stats emitter, until ctx is canceled.
func (s *sweeper) Run(ctx context.Context) {
	prng := newXorShiftPRNG()
	for {
		jitter := time.Duration(prng.Uint32Xorshift()%10) * time.Millisecond
		select {
		case <-ctx.Done():
			return
		case <-time.After(s.interval + jitter):
			s.sweepOnce()
		}
	}
}

// sweepOnce removes every session whose age exceeds its policy's
// timeout, regardless of whether it is still negotiating or already
// reached a terminal state (Done/Failed) — a finished session still
// occupies a table slot until it ages out, so no session below its
// timeout threshold is ever removed. Each timed-out session that had not
// reached Done is recorded to stats as unsuccessful before it leaves the
// table.
func (s *sweeper) sweepOnce() {
	now := time.Now()
	removed := s.engine.Sessions().sweep(func(sess *session) bool {
		timeoutMs := s.policies.TimeoutMsFor(sess.policyID)
		expired := now.Sub(sess.startTime) > time.Duration(timeoutMs)*time.Millisecond
		if expired && sess.state.Get() != stateDone {
			s.stats.Record(0, false)
		}
		return expired
	})
	for _, sess := range removed {
		state := sess.state.Get()
		if state == stateDone {
			// Already recorded as a success when the engine reached
			// Done; this sweep just reclaims the table entry.
			continue
		}
		s.logger.Debugf("swept abandoned session policy=%d state=%s", sess.policyID, state)
	}
}

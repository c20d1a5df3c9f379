package negotio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInsertIfAbsentUniqueness(t *testing.T) {
	tb := newTable()
	sess := newInitiatorSession(42, nil, [RandomSize]byte{1})

	assert.True(t, tb.insertIfAbsent(sess))
	assert.False(t, tb.insertIfAbsent(newInitiatorSession(42, nil, [RandomSize]byte{2})))

	snap, ok := tb.get(42)
	assert.True(t, ok)
	assert.Equal(t, uint32(42), snap.PolicyID)
}

func TestShardIsolation(t *testing.T) {
	tb := newTable()
	// Policy ids 1 and 17 map to the same shard (1 mod 16 == 17 mod 16);
	// 1 and 2 map to different shards.
	assert.Same(t, tb.shardFor(1), tb.shardFor(17))
	assert.NotSame(t, tb.shardFor(1), tb.shardFor(2))
}

func TestRemoveWipesSecret(t *testing.T) {
	tb := newTable()
	sess := newInitiatorSession(7, nil, [RandomSize]byte{9, 9, 9})
	tb.insertIfAbsent(sess)

	removed, ok := tb.remove(7)
	assert.True(t, ok)
	assert.Equal(t, [RandomSize]byte{}, removed.random1)

	_, ok = tb.get(7)
	assert.False(t, ok)
}

func TestSweepRemovesOnlyStaleSessions(t *testing.T) {
	tb := newTable()
	fresh := newInitiatorSession(1, nil, [RandomSize]byte{})
	stale := newInitiatorSession(2, nil, [RandomSize]byte{})
	stale.startTime = time.Now().Add(-time.Hour)

	tb.insertIfAbsent(fresh)
	tb.insertIfAbsent(stale)

	removed := tb.sweep(func(sess *session) bool {
		return time.Since(sess.startTime) > time.Minute
	})

	assert.Len(t, removed, 1)
	assert.Equal(t, uint32(2), removed[0].policyID)

	_, ok := tb.get(1)
	assert.True(t, ok)
	_, ok = tb.get(2)
	assert.False(t, ok)
}

func TestSweepLeavesFreshTerminalSessions(t *testing.T) {
	tb := newTable()
	done := newInitiatorSession(3, nil, [RandomSize]byte{})
	done.state.Set(stateDone)

	tb.insertIfAbsent(done)

	removed := tb.sweep(func(sess *session) bool {
		return time.Since(sess.startTime) > time.Minute
	})

	assert.Empty(t, removed, "a terminal session below the age threshold must not be removed")

	_, ok := tb.get(3)
	assert.True(t, ok)
}

package negotio

// NumShards is the number of independently lockable partitions of the
// session table. Chosen to keep lock contention low at the expected scale
// of thousands of concurrent sessions; it need not be a power of two
// since shard selection is plain modulo indexing.
const NumShards = 16

type shard struct {
	lockerMutex
	sessions map[uint32]*session
}

// table is the sharded map from policy id to session. Every operation
// holds exactly one shard's lock for its duration; a composite operation
// never needs cross-shard atomicity because a policy id addresses exactly
// one shard.
type table struct {
	shards [NumShards]*shard
}

func newTable() *table {
	t := &table{}
	for i := range t.shards {
		t.shards[i] = &shard{sessions: make(map[uint32]*session)}
	}
	return t
}

func (t *table) shardFor(policyID uint32) *shard {
	return t.shards[policyID%NumShards]
}

// insertIfAbsent inserts sess unless a session with the same policy id
// already exists, in which case the existing entry is left untouched.
func (t *table) insertIfAbsent(sess *session) (inserted bool) {
	sh := t.shardFor(sess.policyID)
	sh.LockDo(func() {
		if _, exists := sh.sessions[sess.policyID]; exists {
			return
		}
		sh.sessions[sess.policyID] = sess
		inserted = true
	})
	return
}

// get returns a value snapshot of the session for policyID, if any.
func (t *table) get(policyID uint32) (Snapshot, bool) {
	sh := t.shardFor(policyID)
	var snap Snapshot
	var ok bool
	sh.LockDo(func() {
		sess, exists := sh.sessions[policyID]
		if !exists {
			return
		}
		snap = sess.snapshot()
		ok = true
	})
	return snap, ok
}

// update looks up the live session for policyID and, if present, invokes
// mutator under the shard lock. mutator's return value becomes update's
// first return value, so callers can thread out a result computed while
// still holding the lock.
func (t *table) update(policyID uint32, mutator func(sess *session) interface{}) (result interface{}, ok bool) {
	sh := t.shardFor(policyID)
	sh.LockDo(func() {
		sess, exists := sh.sessions[policyID]
		if !exists {
			return
		}
		result = mutator(sess)
		ok = true
	})
	return
}

// remove deletes and returns the session for policyID, if present,
// wiping its secret material before returning it.
func (t *table) remove(policyID uint32) (*session, bool) {
	sh := t.shardFor(policyID)
	var removed *session
	var ok bool
	sh.LockDo(func() {
		sess, exists := sh.sessions[policyID]
		if !exists {
			return
		}
		delete(sh.sessions, policyID)
		sess.wipe()
		removed = sess
		ok = true
	})
	return removed, ok
}

// sweep walks every shard in turn, each locked independently, removing
// and returning the sessions for which predicate reports true. The
// returned sessions have had their secret material wiped but their
// state field is left intact so the caller can still inspect it.
func (t *table) sweep(predicate func(sess *session) bool) []*session {
	var removed []*session
	for _, sh := range t.shards {
		sh.LockDo(func() {
			for id, sess := range sh.sessions {
				if predicate(sess) {
					sess.wipe()
					delete(sh.sessions, id)
					removed = append(removed, sess)
				}
			}
		})
	}
	return removed
}

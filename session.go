package negotio

import (
	"net"
	"time"

	"github.com/xaionaro-go/slice"
)

// session is the per-policy-id negotiation record held by a table shard.
// It is mutated only by the engine, always under that shard's lock.
type session struct {
	policyID  uint32
	state     sessionState
	random1   [RandomSize]byte
	random2   [RandomSize]byte
	key       [KeySize]byte
	keySet    bool
	startTime time.Time
	peerAddr  *net.UDPAddr
}

// Snapshot is the value copy the table hands out to callers outside a
// shard lock; it carries no pointer back into the live session.
type Snapshot struct {
	PolicyID  uint32
	State     string
	Key       [KeySize]byte
	KeySet    bool
	StartTime time.Time
	PeerAddr  *net.UDPAddr
}

func (s *session) snapshot() Snapshot {
	return Snapshot{
		PolicyID:  s.policyID,
		State:     s.state.Get().String(),
		Key:       s.key,
		KeySet:    s.keySet,
		StartTime: s.startTime,
		PeerAddr:  s.peerAddr,
	}
}

// wipe zeroes the session's secret material before the session is
// discarded, a hygiene habit worth keeping even though nothing in this
// system encrypts traffic with the derived key.
func (s *session) wipe() {
	slice.SetZeros(s.random1[:])
	slice.SetZeros(s.random2[:])
	slice.SetZeros(s.key[:])
}

func newInitiatorSession(policyID uint32, peerAddr *net.UDPAddr, random1 [RandomSize]byte) *session {
	return &session{
		policyID:  policyID,
		state:     stateWaitR2,
		random1:   random1,
		startTime: time.Now(),
		peerAddr:  peerAddr,
	}
}

func newResponderSession(policyID uint32, peerAddr *net.UDPAddr, random1, random2 [RandomSize]byte, key [KeySize]byte) *session {
	return &session{
		policyID:  policyID,
		state:     stateWaitConfirm,
		random1:   random1,
		random2:   random2,
		key:       key,
		keySet:    true,
		startTime: time.Now(),
		peerAddr:  peerAddr,
	}
}

package negotio

import (
	"context"
	"net"
	"time"
)

// packetSender is the narrow capability the engine uses to emit outbound
// packets. The engine never depends on the concrete transport type, only
// on this one-method interface, so it stays testable with a capturing
// fake that records packets instead of a real socket.
type packetSender interface {
	Send(ctx context.Context, pkt *NegotiationPacket, addr *net.UDPAddr) error
}

// Engine owns the session table and key derivation; it drives the
// protocol state machine on every datagram arrival and on explicit
// Start calls, and reports completions to a stats sink.
type Engine struct {
	table  *table
	sender packetSender
	stats  *Stats
	logger Logger
}

// NewEngine wires an Engine to the sender it emits packets through and
// the stats sink it reports completions to.
func NewEngine(sender packetSender, stats *Stats, logger Logger) *Engine {
	return &Engine{
		table:  newTable(),
		sender: sender,
		stats:  stats,
		logger: ensureLogger(logger),
	}
}

func nowMillis() uint32 {
	return uint32(time.Now().UnixMilli())
}

// Start begins a negotiation as initiator: generates random1, inserts a
// new session in WaitR2, and emits RANDOM1 to peerAddr.
func (e *Engine) Start(ctx context.Context, policyID uint32, peerAddr *net.UDPAddr) error {
	if policyID == 0 {
		return newErrInvalidParam("policy id is zero")
	}

	r1, err := generateNonce()
	if err != nil {
		return err
	}

	sess := newInitiatorSession(policyID, peerAddr, r1)
	if !e.table.insertIfAbsent(sess) {
		return newErrAlreadyExists(policyID)
	}

	pkt := &NegotiationPacket{
		Header: PacketHeader{
			Magic:     MagicNumber,
			Type:      PacketRandom1,
			Sequence:  policyID,
			Timestamp: nowMillis(),
		},
		Payload: randomToPayload(r1),
	}

	if err := e.sender.Send(ctx, pkt, peerAddr); err != nil {
		e.logger.Error("engine.Start", err)
		return newErrSocket("send RANDOM1", err)
	}

	e.logger.Debugf("started negotiation policy=%d as initiator", policyID)
	return nil
}

// Handle dispatches an inbound packet on packet.Header.Type, advancing
// or creating the session for packet.Header.Sequence as the protocol
// state machine dictates.
func (e *Engine) Handle(ctx context.Context, pkt *NegotiationPacket, srcAddr *net.UDPAddr) error {
	policyID := pkt.Header.Sequence
	if policyID == 0 {
		return newErrInvalidParam("sequence (policy id) is zero")
	}

	switch pkt.Header.Type {
	case PacketRandom1:
		return e.handleRandom1(ctx, pkt, policyID, srcAddr)
	case PacketRandom2:
		return e.handleRandom2(ctx, pkt, policyID, srcAddr)
	case PacketConfirm:
		return e.handleConfirm(pkt, policyID)
	default:
		return newErrInvalidParam("unknown packet type")
	}
}

func (e *Engine) handleRandom1(ctx context.Context, pkt *NegotiationPacket, policyID uint32, srcAddr *net.UDPAddr) error {
	if len(pkt.Payload) != RandomSize/4 {
		return newErrInvalidParam("RANDOM1 payload must be 8 words")
	}
	r1 := payloadToRandom(pkt.Payload)

	r2, err := generateNonce()
	if err != nil {
		return err
	}
	key := DeriveKey(r1, r2)

	sess := newResponderSession(policyID, srcAddr, r1, r2, key)
	if !e.table.insertIfAbsent(sess) {
		// A session already exists for this id on this endpoint — either
		// we are already the responder (duplicate RANDOM1) or we are the
		// initiator for this id (cross-wired). Either way the initiator
		// "wins" the id: the existing session is left untouched.
		e.logger.Debugf("ignoring duplicate RANDOM1 for policy=%d", policyID)
		return nil
	}

	pkt2 := &NegotiationPacket{
		Header: PacketHeader{
			Magic:     MagicNumber,
			Type:      PacketRandom2,
			Sequence:  policyID,
			Timestamp: nowMillis(),
		},
		Payload: randomToPayload(r2),
	}
	if err := e.sender.Send(ctx, pkt2, srcAddr); err != nil {
		e.logger.Error("engine.handleRandom1", err)
		return newErrSocket("send RANDOM2", err)
	}

	e.logger.Debugf("became responder for policy=%d key=%s", policyID, fingerprint(key[:]))
	return nil
}

func (e *Engine) handleRandom2(ctx context.Context, pkt *NegotiationPacket, policyID uint32, srcAddr *net.UDPAddr) error {
	if len(pkt.Payload) != RandomSize/4 {
		return newErrInvalidParam("RANDOM2 payload must be 8 words")
	}
	r2 := payloadToRandom(pkt.Payload)

	outcome, ok := e.table.update(policyID, func(sess *session) interface{} {
		if sess.state.Get() != stateWaitR2 {
			return newErrInvalidParam("RANDOM2 received outside WaitR2")
		}
		sess.random2 = r2
		sess.key = DeriveKey(sess.random1, sess.random2)
		sess.keySet = true
		return nil
	})
	if !ok {
		return newErrInvalidParam("RANDOM2 for unknown policy")
	}
	if err, isErr := outcome.(error); isErr && err != nil {
		return err
	}

	snap, ok := e.table.get(policyID)
	if !ok {
		return newErrInvalidParam("session vanished mid-negotiation")
	}

	confirm := &NegotiationPacket{
		Header: PacketHeader{
			Magic:     MagicNumber,
			Type:      PacketConfirm,
			Sequence:  policyID,
			Timestamp: nowMillis(),
		},
		Payload: nil,
	}
	// CONFIRM must be sent before the Done transition to avoid a window
	// where the peer believes negotiation incomplete; if the send fails
	// the state still advances. Nothing retransmits RANDOM2 or CONFIRM,
	// so the peer's session then stays in WaitConfirm until its own
	// sweep removes it.
	sendErr := e.sender.Send(ctx, confirm, srcAddr)
	if sendErr != nil {
		e.logger.Error("engine.handleRandom2", sendErr)
	}

	e.table.update(policyID, func(sess *session) interface{} {
		sess.state.Set(stateDone)
		return nil
	})
	e.stats.Record(elapsedMillis(snap.StartTime), true)
	e.logger.Debugf("initiator done for policy=%d key=%s", policyID, fingerprint(snap.Key[:]))

	if sendErr != nil {
		return newErrSocket("send CONFIRM", sendErr)
	}
	return nil
}

func (e *Engine) handleConfirm(pkt *NegotiationPacket, policyID uint32) error {
	if len(pkt.Payload) != 0 {
		return newErrInvalidParam("CONFIRM payload must be empty")
	}

	outcome, ok := e.table.update(policyID, func(sess *session) interface{} {
		if sess.state.Get() != stateWaitConfirm {
			return newErrInvalidParam("CONFIRM received outside WaitConfirm")
		}
		return nil
	})
	if !ok {
		return newErrInvalidParam("CONFIRM for unknown policy")
	}
	if err, isErr := outcome.(error); isErr && err != nil {
		return err
	}

	snap, ok := e.table.get(policyID)
	if !ok {
		return newErrInvalidParam("session vanished mid-negotiation")
	}

	e.table.update(policyID, func(sess *session) interface{} {
		sess.state.Set(stateDone)
		return nil
	})
	e.stats.Record(elapsedMillis(snap.StartTime), true)
	e.logger.Debugf("responder done for policy=%d key=%s", policyID, fingerprint(snap.Key[:]))
	return nil
}

func elapsedMillis(start time.Time) uint32 {
	return uint32(time.Since(start).Milliseconds())
}

// Sessions exposes the live session table so the supervisor can wire the
// timeout sweep (sweep.go) without the engine itself owning a ticker.
func (e *Engine) Sessions() *table {
	return e.table
}

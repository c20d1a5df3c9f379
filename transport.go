package negotio

import (
	"context"
	"net"
	"sync"
	"time"
)

// RecvBufferSize is the receive buffer size; larger datagrams are
// truncated and fail to decode.
const RecvBufferSize = 4096

var recvBufferPool = sync.Pool{
	New: func() interface{} {
		buf := make([]byte, RecvBufferSize)
		return &buf
	},
}

// Transport is a non-blocking UDP socket with a thread-safe Send and a
// readiness-based Recv. It implements packetSender so the engine can be
// wired directly to a live socket.
type Transport struct {
	conn     *net.UDPConn
	sendLock sync.Mutex
	logger   Logger
}

// NewTransport binds a UDP socket on port and disables path-MTU
// fragmentation on platforms that support it; negotiation datagrams are
// always far under path MTU and should never silently fragment.
func NewTransport(port uint16, logger Logger) (*Transport, error) {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{Port: int(port)})
	if err != nil {
		return nil, newErrSocket("bind", err)
	}
	if err := udpSetNoFragment(conn); err != nil {
		ensureLogger(logger).Debugf("udpSetNoFragment: %v (non-fatal)", err)
	}
	return &Transport{conn: conn, logger: ensureLogger(logger)}, nil
}

// Send serializes pkt and writes it to addr. The send path is serialized
// internally: the OS guarantees atomicity per datagram, but the lock
// keeps concurrent senders from interleaving their write-deadline
// updates and writes on the shared socket. Each call encodes into its
// own fresh buffer.
func (t *Transport) Send(ctx context.Context, pkt *NegotiationPacket, addr *net.UDPAddr) error {
	t.sendLock.Lock()
	defer t.sendLock.Unlock()

	raw := Encode(pkt)
	if deadline, ok := ctx.Deadline(); ok {
		_ = t.conn.SetWriteDeadline(deadline)
	}
	_, err := t.conn.WriteToUDP(raw, addr)
	if err != nil {
		return newErrSocket("send", err)
	}
	return nil
}

// Recv waits up to timeout for a datagram, decoding it on arrival.
// Timeout with no datagram available returns ErrTimeout.
func (t *Transport) Recv(timeout time.Duration) (*NegotiationPacket, *net.UDPAddr, error) {
	bufPtr := recvBufferPool.Get().(*[]byte)
	defer recvBufferPool.Put(bufPtr)
	buf := *bufPtr

	if err := t.conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return nil, nil, newErrSocket("set read deadline", err)
	}

	n, addr, err := t.conn.ReadFromUDP(buf)
	if err != nil {
		if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
			return nil, nil, newErrTimeout()
		}
		return nil, nil, newErrSocket("recv", err)
	}

	pkt, decodeErr := Decode(buf[:n])
	if decodeErr != nil {
		return nil, addr, decodeErr
	}
	return pkt, addr, nil
}

// Close releases the underlying socket.
func (t *Transport) Close() error {
	t.logger.Debugf("closing transport on %s", t.conn.LocalAddr())
	return t.conn.Close()
}

// LocalAddr exposes the bound address, mainly for tests that bind to
// port 0 and need to learn the assigned port.
func (t *Transport) LocalAddr() *net.UDPAddr {
	return t.conn.LocalAddr().(*net.UDPAddr)
}

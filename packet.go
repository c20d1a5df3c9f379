package negotio

import "encoding/binary"

// PacketType identifies the three messages of the negotiation protocol.
type PacketType uint32

const (
	PacketRandom1 PacketType = 1
	PacketRandom2 PacketType = 2
	PacketConfirm PacketType = 3
)

func (t PacketType) String() string {
	switch t {
	case PacketRandom1:
		return "RANDOM1"
	case PacketRandom2:
		return "RANDOM2"
	case PacketConfirm:
		return "CONFIRM"
	default:
		return "UNKNOWN"
	}
}

// MagicNumber rejects any frame that isn't one of ours.
const MagicNumber uint32 = 0x0E45474F

// HeaderSize is the fixed wire size of PacketHeader.
const HeaderSize = 20

var byteOrder = binary.LittleEndian

// PacketHeader is the fixed 20-byte wire header preceding every payload.
type PacketHeader struct {
	Magic      uint32
	Type       PacketType
	Sequence   uint32 // carries the policy id
	Timestamp  uint32 // millisecond sender clock, informational only
	PayloadLen uint32 // word count, not byte count
}

// NegotiationPacket is a decoded header plus its payload words.
type NegotiationPacket struct {
	Header  PacketHeader
	Payload []uint32
}

// Encode writes p to the wire format: header fields in declared order,
// little-endian, followed by the payload words. PayloadLen is derived
// from len(Payload), overriding whatever the caller set on the header.
func Encode(p *NegotiationPacket) []byte {
	p.Header.PayloadLen = uint32(len(p.Payload))
	buf := make([]byte, HeaderSize+4*len(p.Payload))

	byteOrder.PutUint32(buf[0:4], p.Header.Magic)
	byteOrder.PutUint32(buf[4:8], uint32(p.Header.Type))
	byteOrder.PutUint32(buf[8:12], p.Header.Sequence)
	byteOrder.PutUint32(buf[12:16], p.Header.Timestamp)
	byteOrder.PutUint32(buf[16:20], p.Header.PayloadLen)

	for i, word := range p.Payload {
		off := HeaderSize + 4*i
		byteOrder.PutUint32(buf[off:off+4], word)
	}
	return buf
}

// Decode parses a raw datagram into a NegotiationPacket. It validates
// frame length, magic, message type, and that payload_len matches the
// remaining bytes; it does not validate per-type payload length, which
// is the negotiation engine's responsibility.
func Decode(raw []byte) (*NegotiationPacket, error) {
	if len(raw) < HeaderSize {
		return nil, newErrInvalidParam("frame shorter than header")
	}

	remaining := raw[HeaderSize:]
	if len(remaining)%4 != 0 {
		return nil, newErrInvalidParam("payload not word-aligned")
	}

	hdr := PacketHeader{
		Magic:      byteOrder.Uint32(raw[0:4]),
		Type:       PacketType(byteOrder.Uint32(raw[4:8])),
		Sequence:   byteOrder.Uint32(raw[8:12]),
		Timestamp:  byteOrder.Uint32(raw[12:16]),
		PayloadLen: byteOrder.Uint32(raw[16:20]),
	}

	if hdr.Magic != MagicNumber {
		return nil, newErrInvalidParam("bad magic number")
	}
	switch hdr.Type {
	case PacketRandom1, PacketRandom2, PacketConfirm:
	default:
		return nil, newErrInvalidParam("unknown packet type")
	}

	wordCount := len(remaining) / 4
	if hdr.PayloadLen != uint32(wordCount) {
		return nil, newErrInvalidParam("payload_len does not match frame size")
	}

	var payload []uint32
	if wordCount > 0 {
		payload = make([]uint32, wordCount)
	}
	for i := range payload {
		off := 4 * i
		payload[i] = byteOrder.Uint32(remaining[off : off+4])
	}

	return &NegotiationPacket{Header: hdr, Payload: payload}, nil
}

// randomToPayload packs a 32-byte nonce into 8 little-endian u32 words,
// matching the wire layout RANDOM1/RANDOM2 payloads use.
func randomToPayload(r [RandomSize]byte) []uint32 {
	words := make([]uint32, RandomSize/4)
	for i := range words {
		off := 4 * i
		words[i] = byteOrder.Uint32(r[off : off+4])
	}
	return words
}

func payloadToRandom(payload []uint32) [RandomSize]byte {
	var r [RandomSize]byte
	for i, word := range payload {
		off := 4 * i
		byteOrder.PutUint32(r[off:off+4], word)
	}
	return r
}

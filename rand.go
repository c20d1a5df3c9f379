package negotio

import (
	cryptorand "crypto/rand"
	"encoding/binary"

	"github.com/xaionaro-go/rand/mathrand"
)

// generateNonce fills a fresh RandomSize-byte nonce from a cryptographically
// strong source. A short read means the generator failed; this is surfaced
// to the caller as a memory error per the negotiation engine's contract.
func generateNonce() ([RandomSize]byte, error) {
	var nonce [RandomSize]byte
	n, err := cryptorand.Read(nonce[:])
	if err != nil {
		return nonce, newErrMemory(err.Error())
	}
	if n != RandomSize {
		return nonce, newErrMemory("short read from random source")
	}
	return nonce, nil
}

// newXorShiftPRNG builds a fast, non-cryptographic PRNG seeded from a
// crypto-strong source, used only to jitter sweep and stats timing so
// that independently-ticking goroutines don't line up on the same tick
// boundary under load.
func newXorShiftPRNG() *mathrand.PRNG {
	var seedBytes [8]byte
	_, err := cryptorand.Read(seedBytes[:])
	if err != nil {
		panic(err)
	}
	seed := binary.LittleEndian.Uint64(seedBytes[:])

	return mathrand.NewWithSeed(seed)
}

package negotio

import (
	"crypto/sha256"

	"golang.org/x/crypto/sha3"
	"lukechampine.com/blake3"
)

// RandomSize is the length in bytes of each party's nonce.
const RandomSize = 32

// KeySize is the length in bytes of a derived shared secret.
const KeySize = 32

// DeriveKey computes the shared secret from both parties' nonces. It is
// deterministic and pure: the same (r1, r2) pair always yields the same
// key on both endpoints.
func DeriveKey(r1, r2 [RandomSize]byte) [KeySize]byte {
	var concat [RandomSize * 2]byte
	copy(concat[:RandomSize], r1[:])
	copy(concat[RandomSize:], r2[:])
	return sha256.Sum256(concat[:])
}

// fingerprint folds input through blake3 then sha3 and returns a short
// hex tag suitable for log lines that must never print a raw secret.
func fingerprint(input []byte, salts ...[]byte) string {
	inputs := append([][]byte{input}, salts...)
	totalLength := 0
	for _, in := range inputs {
		totalLength += len(in)
	}
	preHashInput := make([]byte, 0, totalLength)
	for _, in := range inputs {
		preHashInput = append(preHashInput, in...)
	}
	preHash := blake3.Sum256(preHashInput)
	hashInput := make([]byte, 0, len(preHash)+totalLength-len(input))
	hashInput = append(hashInput, preHash[:]...)
	for _, salt := range salts {
		hashInput = append(hashInput, salt...)
	}
	sum := sha3.Sum256(hashInput)
	return hexEncode(sum[:8])
}

func hexEncode(b []byte) string {
	const hexDigits = "0123456789abcdef"
	out := make([]byte, len(b)*2)
	for i, v := range b {
		out[i*2] = hexDigits[v>>4]
		out[i*2+1] = hexDigits[v&0x0f]
	}
	return string(out)
}

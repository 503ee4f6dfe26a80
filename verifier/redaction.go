package verifier

import "fmt"

// CheckRedactionCongruence reports whether claimed agrees with revealed at
// every position revealed does not redact. The check is deliberately
// asymmetric: sentinel bytes in revealed impose no constraint on claimed,
// but sentinel bytes in claimed must be matched literally by revealed.
// This binds the ZK proof's decrypted output to the publicly revealed
// bytes: a prover cannot claim a different underlying value for a position
// it chose to redact.
//
// Returns false on any length mismatch.
func CheckRedactionCongruence(revealed, claimed []byte) bool {
	if len(revealed) != len(claimed) {
		return false
	}
	for i := range revealed {
		if revealed[i] == RedactionSentinel {
			continue
		}
		if claimed[i] != revealed[i] {
			return false
		}
	}
	return true
}

// ZeroRedactedPositions returns a copy of ciphertext with every byte at a
// redacted plaintext position zeroed. The result is what may be exposed as
// a public proof input: only bytes the verifier is allowed to see.
func ZeroRedactedPositions(ciphertext, redactedPlaintext []byte) ([]byte, error) {
	if len(ciphertext) != len(redactedPlaintext) {
		return nil, fmt.Errorf("ciphertext length %d does not match plaintext length %d",
			len(ciphertext), len(redactedPlaintext))
	}
	out := make([]byte, len(ciphertext))
	copy(out, ciphertext)
	for i := range redactedPlaintext {
		if redactedPlaintext[i] == RedactionSentinel {
			out[i] = 0
		}
	}
	return out, nil
}

// redactionArena is the fixed-size reassembly buffer for one record. It
// starts fully redacted; each chunk overlays its plaintext at a disjoint
// offset range. Non-overlap is verified as a precondition rather than
// relying on write order.
type redactionArena struct {
	buf     []byte
	covered []bool
}

func newRedactionArena(size int) *redactionArena {
	buf := make([]byte, size)
	for i := range buf {
		buf[i] = RedactionSentinel
	}
	return &redactionArena{buf: buf, covered: make([]bool, size)}
}

// reserve validates bounds and non-overlap for a chunk and marks its range
// as claimed, so a later chunk reserving an intersecting range fails.
func (a *redactionArena) reserve(startIdx, length int) error {
	if startIdx < 0 || length < 0 || startIdx+length > len(a.buf) {
		return fmt.Errorf("range [%d, %d) outside record of %d bytes", startIdx, startIdx+length, len(a.buf))
	}
	for i := startIdx; i < startIdx+length; i++ {
		if a.covered[i] {
			return fmt.Errorf("byte %d covered by more than one chunk", i)
		}
	}
	for i := startIdx; i < startIdx+length; i++ {
		a.covered[i] = true
	}
	return nil
}

// overlay writes a chunk's redacted plaintext at its offset. reserve must
// have accepted the same range first.
func (a *redactionArena) overlay(startIdx int, plaintext []byte) {
	copy(a.buf[startIdx:], plaintext)
}

func (a *redactionArena) bytes() []byte {
	return a.buf
}

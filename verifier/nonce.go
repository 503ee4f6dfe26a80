package verifier

import (
	"encoding/binary"
	"fmt"

	"github.com/Zero-Proof-AI/zeroproof-travel-poc/shared"
)

// DeriveRecordNonce computes the AEAD nonce for one TLS record.
//
// If the record carried an explicit per-record IV (TLS 1.2 AES-GCM), the
// nonce is fixedIV || recordIV. Otherwise the nonce is derived from the
// fixed IV and the record sequence number following the suite's
// construction: IV XOR seq for TLS 1.3 (RFC 8446) and TLS 1.2 ChaCha20
// (RFC 7905), implicit_iv(4) || seq(8) for TLS 1.2 AES-GCM without a
// captured record IV (RFC 5288, counter-style sequence nonce).
//
// The function is pure: identical inputs always yield identical nonces.
func DeriveRecordNonce(cipherSuite uint16, fixedIV, recordIV []byte, recordNumber uint64) ([]byte, error) {
	info, err := shared.GetCipherSuiteInfo(cipherSuite)
	if err != nil {
		return nil, err
	}
	if len(fixedIV) != info.IVLength {
		return nil, fmt.Errorf("fixed IV for %s must be %d bytes, got %d",
			info.Name, info.IVLength, len(fixedIV))
	}

	if len(recordIV) > 0 {
		if info.ExplicitIVLen == 0 {
			return nil, fmt.Errorf("cipher suite %s does not use an explicit record IV", info.Name)
		}
		if len(recordIV) != info.ExplicitIVLen {
			return nil, fmt.Errorf("record IV for %s must be %d bytes, got %d",
				info.Name, info.ExplicitIVLen, len(recordIV))
		}
		nonce := make([]byte, 0, len(fixedIV)+len(recordIV))
		nonce = append(nonce, fixedIV...)
		nonce = append(nonce, recordIV...)
		return nonce, nil
	}

	switch {
	case shared.IsTLS13CipherSuite(cipherSuite), shared.IsChaCha20CipherSuite(cipherSuite):
		// 12-byte IV XOR big-endian sequence number
		nonce := make([]byte, len(fixedIV))
		copy(nonce, fixedIV)
		for i := 0; i < 8; i++ {
			nonce[len(nonce)-1-i] ^= byte(recordNumber >> (8 * i))
		}
		return nonce, nil

	case shared.IsTLS12AESGCMCipherSuite(cipherSuite):
		// implicit_iv(4) || sequence number(8); senders commonly use the
		// sequence number as the explicit part
		nonce := make([]byte, 12)
		copy(nonce[0:4], fixedIV)
		binary.BigEndian.PutUint64(nonce[4:12], recordNumber)
		return nonce, nil

	default:
		return nil, fmt.Errorf("no nonce construction for cipher suite %s", info.Name)
	}
}

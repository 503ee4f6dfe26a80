package shared

import (
	"fmt"
	"strconv"
	"strings"
)

// TLS version constants
const (
	VersionTLS12 = 0x0303
	VersionTLS13 = 0x0304
)

// TLS 1.3 Cipher Suites
const (
	TLS_AES_128_GCM_SHA256       = 0x1301
	TLS_AES_256_GCM_SHA384       = 0x1302
	TLS_CHACHA20_POLY1305_SHA256 = 0x1303
)

// TLS 1.2 AEAD Cipher Suites (following Go's crypto/tls constants)
const (
	TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256         = 0xc02f
	TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256       = 0xc02b
	TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384         = 0xc030
	TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384       = 0xc02c
	TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305_SHA256   = 0xcca8
	TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305_SHA256 = 0xcca9
)

// CipherSuiteInfo contains the metadata about a cipher suite that record
// verification needs: IV geometry and the keystream algorithm.
type CipherSuiteInfo struct {
	ID              uint16
	Name            string
	TLSVersion      uint16 // VersionTLS12 or VersionTLS13
	Algorithm       string // "AES-128-GCM", "AES-256-GCM", "ChaCha20-Poly1305"
	KeyLength       int    // key length in bytes
	IVLength        int    // fixed (implicit) IV length in bytes
	ExplicitIVLen   int    // per-record explicit IV carried in the record, 0 if none
	AuthTagLen      int    // AEAD tag appended to each record
}

// AllCipherSuites contains every suite the verification engine accepts.
// The set is closed: proofs over any other suite are rejected at parse time.
var AllCipherSuites = []CipherSuiteInfo{
	// TLS 1.3 cipher suites (RFC 8446: 12-byte IV XORed with the sequence number)
	{
		ID:         TLS_AES_128_GCM_SHA256,
		Name:       "TLS_AES_128_GCM_SHA256",
		TLSVersion: VersionTLS13,
		Algorithm:  "AES-128-GCM",
		KeyLength:  16,
		IVLength:   12,
		AuthTagLen: 16,
	},
	{
		ID:         TLS_AES_256_GCM_SHA384,
		Name:       "TLS_AES_256_GCM_SHA384",
		TLSVersion: VersionTLS13,
		Algorithm:  "AES-256-GCM",
		KeyLength:  32,
		IVLength:   12,
		AuthTagLen: 16,
	},
	{
		ID:         TLS_CHACHA20_POLY1305_SHA256,
		Name:       "TLS_CHACHA20_POLY1305_SHA256",
		TLSVersion: VersionTLS13,
		Algorithm:  "ChaCha20-Poly1305",
		KeyLength:  32,
		IVLength:   12,
		AuthTagLen: 16,
	},
	// TLS 1.2 AES-GCM (RFC 5288: 4-byte implicit IV || 8-byte explicit record IV)
	{
		ID:            TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
		Name:          "TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256",
		TLSVersion:    VersionTLS12,
		Algorithm:     "AES-128-GCM",
		KeyLength:     16,
		IVLength:      4,
		ExplicitIVLen: 8,
		AuthTagLen:    16,
	},
	{
		ID:            TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
		Name:          "TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256",
		TLSVersion:    VersionTLS12,
		Algorithm:     "AES-128-GCM",
		KeyLength:     16,
		IVLength:      4,
		ExplicitIVLen: 8,
		AuthTagLen:    16,
	},
	{
		ID:            TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
		Name:          "TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384",
		TLSVersion:    VersionTLS12,
		Algorithm:     "AES-256-GCM",
		KeyLength:     32,
		IVLength:      4,
		ExplicitIVLen: 8,
		AuthTagLen:    16,
	},
	{
		ID:            TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
		Name:          "TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384",
		TLSVersion:    VersionTLS12,
		Algorithm:     "AES-256-GCM",
		KeyLength:     32,
		IVLength:      4,
		ExplicitIVLen: 8,
		AuthTagLen:    16,
	},
	// TLS 1.2 ChaCha20 (RFC 7905: 12-byte IV XORed with the sequence number)
	{
		ID:         TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305_SHA256,
		Name:       "TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305_SHA256",
		TLSVersion: VersionTLS12,
		Algorithm:  "ChaCha20-Poly1305",
		KeyLength:  32,
		IVLength:   12,
		AuthTagLen: 16,
	},
	{
		ID:         TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305_SHA256,
		Name:       "TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305_SHA256",
		TLSVersion: VersionTLS12,
		Algorithm:  "ChaCha20-Poly1305",
		KeyLength:  32,
		IVLength:   12,
		AuthTagLen: 16,
	},
}

// CipherSuiteMapping maps cipher suite names to their hex IDs
var CipherSuiteMapping map[string]uint16

// CipherSuiteInfoMap maps cipher suite IDs to their info
var CipherSuiteInfoMap map[uint16]*CipherSuiteInfo

func init() {
	CipherSuiteMapping = make(map[string]uint16)
	CipherSuiteInfoMap = make(map[uint16]*CipherSuiteInfo)

	for i := range AllCipherSuites {
		info := &AllCipherSuites[i]
		CipherSuiteInfoMap[info.ID] = info
		CipherSuiteMapping[info.Name] = info.ID
	}
}

// ParseCipherSuite converts a cipher suite string (hex or name) to uint16 ID.
// Only suites in the closed table above resolve.
func ParseCipherSuite(cipherSuite string) (uint16, error) {
	if cipherSuite == "" {
		return 0, fmt.Errorf("empty cipher suite")
	}

	if strings.HasPrefix(cipherSuite, "0x") {
		val, err := strconv.ParseUint(cipherSuite[2:], 16, 16)
		if err != nil {
			return 0, fmt.Errorf("invalid hex cipher suite '%s': %v", cipherSuite, err)
		}
		if _, found := CipherSuiteInfoMap[uint16(val)]; !found {
			return 0, fmt.Errorf("unsupported cipher suite 0x%04x", val)
		}
		return uint16(val), nil
	}

	if id, found := CipherSuiteMapping[cipherSuite]; found {
		return id, nil
	}

	return 0, fmt.Errorf("unknown cipher suite '%s'", cipherSuite)
}

// GetCipherSuiteName returns the human-readable name for a cipher suite ID
func GetCipherSuiteName(id uint16) string {
	if info, found := CipherSuiteInfoMap[id]; found {
		return info.Name
	}
	return fmt.Sprintf("0x%04x", id)
}

// GetCipherSuiteInfo returns detailed information about a cipher suite
func GetCipherSuiteInfo(id uint16) (*CipherSuiteInfo, error) {
	if info, found := CipherSuiteInfoMap[id]; found {
		return info, nil
	}
	return nil, fmt.Errorf("unknown cipher suite: 0x%04x", id)
}

// IsTLS12AESGCMCipherSuite checks if a cipher suite is a TLS 1.2 AES-GCM
// suite (the explicit-record-IV family)
func IsTLS12AESGCMCipherSuite(cipherSuite uint16) bool {
	switch cipherSuite {
	case TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
		TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
		TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
		TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384:
		return true
	default:
		return false
	}
}

// IsChaCha20CipherSuite checks if a cipher suite uses ChaCha20-Poly1305
func IsChaCha20CipherSuite(cipherSuite uint16) bool {
	switch cipherSuite {
	case TLS_CHACHA20_POLY1305_SHA256,
		TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305_SHA256,
		TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305_SHA256:
		return true
	default:
		return false
	}
}

// IsTLS13CipherSuite checks if a cipher suite belongs to TLS 1.3
func IsTLS13CipherSuite(cipherSuite uint16) bool {
	info, found := CipherSuiteInfoMap[cipherSuite]
	if !found {
		return false
	}
	return info.TLSVersion == VersionTLS13
}

// Package verifier implements the selective-disclosure proof verification
// engine: it reconstructs a partially-redacted plaintext from transcript
// chunks, checks redaction consistency, verifies a zero-knowledge proof per
// chunk against derived per-record cryptographic parameters, and reconciles
// that with the attestor signature trust layer.
package verifier

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// RedactionSentinel is the byte value that marks a redacted position in a
// redacted plaintext. Gaps between chunks are implicitly redacted.
const RedactionSentinel byte = 0

// Algorithm identifies the ZK circuit family a chunk proof was produced
// for. The set is closed and resolved at parse time.
type Algorithm string

const (
	AlgAES128CTR Algorithm = "aes-128-ctr"
	AlgAES256CTR Algorithm = "aes-256-ctr"
	AlgChaCha20  Algorithm = "chacha20"
)

// ParseAlgorithm resolves an algorithm string to the closed enumeration.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch Algorithm(s) {
	case AlgAES128CTR, AlgAES256CTR, AlgChaCha20:
		return Algorithm(s), nil
	default:
		return "", fmt.Errorf("unsupported ZK algorithm %q", s)
	}
}

// UnmarshalJSON rejects unknown algorithms during proof decoding so that
// dispatch later in the pipeline is exhaustive.
func (a *Algorithm) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseAlgorithm(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// BlockSize returns the keystream block size in bytes for the algorithm.
// Chunk byte offsets must fall on block boundaries.
func (a Algorithm) BlockSize() int {
	switch a {
	case AlgChaCha20:
		return 64
	default:
		return 16
	}
}

// InitialCounter returns the keystream counter at byte offset zero of the
// record payload. AES-GCM spends counter 1 on the auth tag so data starts
// at 2; ChaCha20-Poly1305 spends counter 0 on the Poly1305 key so data
// starts at 1.
func (a Algorithm) InitialCounter() uint32 {
	switch a {
	case AlgChaCha20:
		return 1
	default:
		return 2
	}
}

// ProverEngine identifies the proof system backend a chunk proof targets.
type ProverEngine string

const (
	// EngineGnark verifies Groth16 proofs on BN254 produced by the gnark
	// circuit toolchain.
	EngineGnark ProverEngine = "gnark"
)

// ClaimInfo is the provider description the claim identifier commits to.
type ClaimInfo struct {
	Provider   string `json:"provider"`
	Parameters string `json:"parameters"`
	Context    string `json:"context"`
}

// CompleteClaimData is the tuple each attestor signs.
type CompleteClaimData struct {
	Identifier common.Hash    `json:"identifier"`
	Owner      common.Address `json:"owner"`
	TimestampS uint32         `json:"timestampS"`
	Epoch      uint32         `json:"epoch"`
}

// SignedClaim carries the claim data plus one 65-byte EIP-191 signature
// per co-signing attestor.
type SignedClaim struct {
	Claim      CompleteClaimData `json:"claim"`
	Signatures []hexutil.Bytes   `json:"signatures"`
}

// Witness is one attestor in the expected set for an epoch.
type Witness struct {
	ID  common.Address `json:"id"`
	URL string         `json:"url"`
}

// TOPRFData is auxiliary data for chunks that additionally prove an
// oblivious-PRF evaluation over a hidden value. The engine carries it
// through to the operator untouched.
type TOPRFData struct {
	DataLocation *struct {
		Pos int `json:"pos"`
		Len int `json:"len"`
	} `json:"dataLocation,omitempty"`
	Output    hexutil.Bytes   `json:"output,omitempty"`
	Responses []hexutil.Bytes `json:"responses,omitempty"`
}

// ProofChunk is one ZK proof covering a block-aligned slice of a record's
// ciphertext.
//
// Invariant: len(DecryptedRedactedCiphertext) == len(RedactedPlaintext).
type ProofChunk struct {
	Algorithm                   Algorithm     `json:"algorithm"`
	ProofData                   hexutil.Bytes `json:"proofData"`
	DecryptedRedactedCiphertext hexutil.Bytes `json:"decryptedRedactedCiphertext"`
	RedactedPlaintext           hexutil.Bytes `json:"redactedPlaintext"`
	StartIdx                    int           `json:"startIdx"`
	TOPRF                       *TOPRFData    `json:"toprf,omitempty"`
}

// Reveal is the per-record reveal structure: the record's pure ciphertext
// (auth tag already stripped), the material to derive its nonce, and the
// proof chunks covering the revealed ranges.
type Reveal struct {
	CipherSuite  string        `json:"cipherSuite"`
	Ciphertext   hexutil.Bytes `json:"ciphertext"`
	FixedIV      hexutil.Bytes `json:"fixedIv"`
	RecordIV     hexutil.Bytes `json:"recordIv,omitempty"`
	RecordNumber uint64        `json:"recordNumber"`
	Chunks       []ProofChunk  `json:"chunks"`
}

// Proof is the complete bundle produced by the prover flow. The engine
// only reads it.
type Proof struct {
	ClaimInfo                ClaimInfo         `json:"claimInfo"`
	SignedClaim              SignedClaim       `json:"signedClaim"`
	Witnesses                []Witness         `json:"witnesses,omitempty"`
	ExtractedParameterValues map[string]string `json:"extractedParameterValues,omitempty"`
	Reveal                   *Reveal           `json:"reveal,omitempty"`
}

// TrustTier states which trust layer actually backed a passing result.
type TrustTier string

const (
	// TierZK: attestor signatures checked and every revealed byte bound
	// by a zero-knowledge proof over the transcript.
	TierZK TrustTier = "zk"
	// TierSignature: attestor signatures only; no reveal data was
	// supplied. Callers must opt in to accept this tier.
	TierSignature TrustTier = "signature"
)

// Result is the caller-facing verification outcome.
type Result struct {
	ReportID          string            `json:"reportId"`
	Verified          bool              `json:"verified"`
	Tier              TrustTier         `json:"tier,omitempty"`
	RedactedPlaintext hexutil.Bytes     `json:"redactedPlaintext,omitempty"`
	RecoveredSigners  []common.Address  `json:"recoveredSigners,omitempty"`
	ResolvedWitnesses []Witness         `json:"resolvedWitnesses,omitempty"`
	Err               *Error            `json:"error,omitempty"`
}

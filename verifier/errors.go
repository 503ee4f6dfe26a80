package verifier

import (
	"errors"
	"fmt"
)

// Kind classifies a verification failure. Cryptographic kinds are terminal
// for a proof: retrying cannot change a mathematical fact. Transient kinds
// may be retried by the caller with backoff.
type Kind string

const (
	KindCongruenceViolation  Kind = "congruence_violation"
	KindUnsupportedAlgorithm Kind = "unsupported_algorithm"
	KindArtifactLoadFailure  Kind = "artifact_load_failure"
	KindInvalidProof         Kind = "invalid_proof"
	KindEmptyReveal          Kind = "empty_reveal"
	KindNoProofData          Kind = "no_proof_data"
	KindSignatureMismatch    Kind = "signature_mismatch"
	KindNoWitnesses          Kind = "no_witnesses"
	KindProofExpired         Kind = "proof_expired"
	KindReceiptMismatch      Kind = "receipt_mismatch"
	KindOnchainRevert        Kind = "onchain_revert"
	KindOnchainTimeout       Kind = "onchain_timeout"
	KindTransport            Kind = "transport_error"
)

// Error is a classified verification failure. ChunkIndex is >= 0 when the
// failure is attributable to a single proof chunk.
type Error struct {
	Kind       Kind   `json:"kind"`
	Message    string `json:"message"`
	ChunkIndex int    `json:"chunkIndex,omitempty"`

	cause error
}

// Errf builds a verification error that is not scoped to a chunk.
func Errf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), ChunkIndex: -1}
}

// ChunkErrf builds a verification error attributed to the chunk at index.
func ChunkErrf(kind Kind, index int, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), ChunkIndex: index}
}

// Wrap attaches an underlying cause and returns the error.
func (e *Error) Wrap(cause error) *Error {
	e.cause = cause
	return e
}

func (e *Error) Error() string {
	if e.ChunkIndex >= 0 {
		return fmt.Sprintf("%s (chunk %d): %s", e.Kind, e.ChunkIndex, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// AsError extracts a classified verification error, or nil.
func AsError(err error) *Error {
	var ve *Error
	if errors.As(err, &ve) {
		return ve
	}
	return nil
}

// KindOf returns the classification of err, or "" for unclassified errors.
func KindOf(err error) Kind {
	if ve := AsError(err); ve != nil {
		return ve.Kind
	}
	return ""
}

// IsTerminal reports whether a failure of this kind can never be fixed by
// retrying the same proof.
func (k Kind) IsTerminal() bool {
	switch k {
	case KindCongruenceViolation, KindInvalidProof, KindSignatureMismatch,
		KindUnsupportedAlgorithm, KindEmptyReveal, KindNoProofData,
		KindProofExpired, KindReceiptMismatch:
		return true
	default:
		return false
	}
}

// IsTransient reports whether the caller may retry with backoff.
func (k Kind) IsTransient() bool {
	switch k {
	case KindArtifactLoadFailure, KindTransport:
		return true
	default:
		return false
	}
}

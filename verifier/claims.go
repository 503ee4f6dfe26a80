package verifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/Zero-Proof-AI/zeroproof-travel-poc/shared"
)

// WitnessResolver resolves the expected attestor set for a claim. It is an
// external collaborator: a deterministic contract call or a beacon
// service. Implementations must be read-only.
type WitnessResolver interface {
	Resolve(ctx context.Context, epoch uint32, identifier common.Hash, timestampS uint32) ([]Witness, error)
}

// WitnessResolverFunc adapts a function to the WitnessResolver interface.
type WitnessResolverFunc func(ctx context.Context, epoch uint32, identifier common.Hash, timestampS uint32) ([]Witness, error)

func (f WitnessResolverFunc) Resolve(ctx context.Context, epoch uint32, identifier common.Hash, timestampS uint32) ([]Witness, error) {
	return f(ctx, epoch, identifier, timestampS)
}

// ClaimSigningMessage builds the canonical message an attestor signs over
// a claim: the newline-joined, lowercase-hex tuple
// (identifier, owner, timestampS, epoch).
func ClaimSigningMessage(c CompleteClaimData) []byte {
	return []byte(fmt.Sprintf("%s\n%s\n%d\n%d",
		strings.ToLower(c.Identifier.Hex()),
		strings.ToLower(c.Owner.Hex()),
		c.TimestampS,
		c.Epoch))
}

// ClaimVerifier checks attestor signatures over a claim against the
// witness set resolved for its epoch. This is the baseline trust layer: it
// runs even when ZK verification is skipped.
type ClaimVerifier struct {
	resolver WitnessResolver
	log      *shared.Logger
}

func NewClaimVerifier(resolver WitnessResolver, log *shared.Logger) *ClaimVerifier {
	return &ClaimVerifier{resolver: resolver, log: log}
}

// VerifySignatures recovers the signer of every signature in the claim and
// checks membership against the resolved witness set. It always returns
// the recovered signers and resolved witnesses, pass or fail, so callers
// can diagnose a mismatch between the witness-resolution path and the key
// actually used during proof generation.
func (cv *ClaimVerifier) VerifySignatures(ctx context.Context, sc SignedClaim) (recovered []common.Address, resolved []Witness, verr *Error) {
	witnesses, err := cv.resolver.Resolve(ctx, sc.Claim.Epoch, sc.Claim.Identifier, sc.Claim.TimestampS)
	if err != nil {
		return nil, nil, Errf(KindTransport, "resolving witnesses for epoch %d: %v", sc.Claim.Epoch, err).Wrap(err)
	}
	if len(witnesses) == 0 {
		// A degenerate or misconfigured resolution state. Surfaced as its
		// own failure so callers never mistake it for a signer mismatch.
		return nil, nil, Errf(KindNoWitnesses, "witness resolution returned an empty set for epoch %d", sc.Claim.Epoch)
	}

	if len(sc.Signatures) == 0 {
		return nil, witnesses, Errf(KindSignatureMismatch, "claim carries no signatures")
	}

	message := ClaimSigningMessage(sc.Claim)

	expected := make(map[common.Address]bool, len(witnesses))
	for _, w := range witnesses {
		expected[w.ID] = true
	}

	matched := false
	for i, sig := range sc.Signatures {
		signer, err := shared.RecoverSigner(message, sig)
		if err != nil {
			return recovered, witnesses, Errf(KindSignatureMismatch, "signature %d: %v", i, err).Wrap(err)
		}
		recovered = append(recovered, signer)
		if expected[signer] {
			matched = true
		}
	}

	if !matched {
		cv.log.Security("no recovered signer matches the resolved witness set",
			zap.Uint32("epoch", sc.Claim.Epoch),
			zap.Stringers("recovered", recovered),
			zap.Int("witness_count", len(witnesses)))
		return recovered, witnesses, Errf(KindSignatureMismatch,
			"no recovered signer is a member of the %d-witness set for epoch %d",
			len(witnesses), sc.Claim.Epoch)
	}

	return recovered, witnesses, nil
}

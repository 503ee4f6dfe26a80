package verifier

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Zero-Proof-AI/zeroproof-travel-poc/provider"
	"github.com/Zero-Proof-AI/zeroproof-travel-poc/shared"
)

// Options controls a single verification run.
type Options struct {
	// AllowSignatureOnly accepts proofs without reveal data at the
	// reduced signature trust tier. Off by default: a missing reveal is
	// then a NoProofData failure, never a silent downgrade.
	AllowSignatureOnly bool

	// MaxProofAge rejects claims whose timestampS is older than this.
	// Zero disables the freshness check.
	MaxProofAge time.Duration

	// SkipReceiptCheck disables matching extractedParameterValues against
	// the reassembled plaintext via the provider's responseMatches.
	SkipReceiptCheck bool
}

// Verifier orchestrates the full pipeline: mandatory claim signature
// verification, then per-record packet verification when reveal data is
// present, then the provider receipt check over the reassembled plaintext.
type Verifier struct {
	claims  *ClaimVerifier
	packets *PacketVerifier
	log     *shared.Logger
	now     func() time.Time
}

// New wires a Verifier from its collaborators. The operator cache is
// injected, not global: independent verifiers may share one or hold their
// own.
func New(resolver WitnessResolver, cache *OperatorCache, engine ProverEngine, log *shared.Logger) *Verifier {
	return &Verifier{
		claims:  NewClaimVerifier(resolver, log),
		packets: NewPacketVerifier(cache, engine, log),
		log:     log,
		now:     time.Now,
	}
}

// Verify runs the pipeline for one proof and returns the caller-facing
// result. The result always carries the recovered signers and resolved
// witnesses once the signature layer has run, pass or fail.
func (v *Verifier) Verify(ctx context.Context, p *Proof, opts Options) Result {
	res := Result{ReportID: uuid.NewString()}
	log := v.log.WithProof(res.ReportID)

	if opts.MaxProofAge > 0 {
		age := v.now().Sub(time.Unix(int64(p.SignedClaim.Claim.TimestampS), 0))
		if age > opts.MaxProofAge {
			res.Err = Errf(KindProofExpired, "claim is %s old, maximum accepted age is %s",
				age.Truncate(time.Second), opts.MaxProofAge)
			return res
		}
	}

	// Baseline trust layer, mandatory even when ZK verification is
	// skipped.
	recovered, resolved, verr := v.claims.VerifySignatures(ctx, p.SignedClaim)
	res.RecoveredSigners = recovered
	res.ResolvedWitnesses = resolved
	if verr != nil {
		res.Err = verr
		return res
	}
	log.Info("claim signatures verified",
		zap.Int("signatures", len(p.SignedClaim.Signatures)),
		zap.Int("witnesses", len(resolved)))

	if p.Reveal == nil {
		if !opts.AllowSignatureOnly {
			res.Err = Errf(KindNoProofData, "proof carries no reveal data and caller did not accept signature-only trust")
			return res
		}
		log.Warn("accepting proof at reduced trust tier: no reveal data supplied")
		res.Verified = true
		res.Tier = TierSignature
		return res
	}

	suiteID, err := shared.ParseCipherSuite(p.Reveal.CipherSuite)
	if err != nil {
		res.Err = Errf(KindInvalidProof, "%v", err).Wrap(err)
		return res
	}

	plaintext, err := v.packets.VerifyPacket(ctx, PacketInput{
		CipherSuite:  suiteID,
		Ciphertext:   p.Reveal.Ciphertext,
		FixedIV:      p.Reveal.FixedIV,
		RecordIV:     p.Reveal.RecordIV,
		RecordNumber: p.Reveal.RecordNumber,
		Chunks:       p.Reveal.Chunks,
	})
	if err != nil {
		if ve := AsError(err); ve != nil {
			res.Err = ve
		} else {
			res.Err = Errf(KindInvalidProof, "%v", err).Wrap(err)
		}
		return res
	}

	if !opts.SkipReceiptCheck && len(p.ExtractedParameterValues) > 0 {
		if err := provider.AssertValidReceipt(plaintext, p.ClaimInfo.Parameters, p.ExtractedParameterValues); err != nil {
			log.Security("extracted parameters are not backed by revealed bytes", zap.Error(err))
			res.Err = Errf(KindReceiptMismatch, "%v", err).Wrap(err)
			return res
		}
	}

	log.Info("proof verified",
		zap.Int("chunks", len(p.Reveal.Chunks)),
		zap.Int("plaintext_bytes", len(plaintext)))

	res.Verified = true
	res.Tier = TierZK
	res.RedactedPlaintext = plaintext
	return res
}

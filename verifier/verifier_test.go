package verifier

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/Zero-Proof-AI/zeroproof-travel-poc/shared"
)

// endToEndFixture wires a Verifier against an in-memory witness set and a
// stub chunk operator, plus a proof bundle signed by a real key.
type endToEndFixture struct {
	verifier *Verifier
	proof    *Proof
	keyPair  *shared.SigningKeyPair
}

func newEndToEndFixture(t *testing.T, verify func(ctx context.Context, proof ChunkProof, pub PublicInput) error) *endToEndFixture {
	t.Helper()

	kp, err := shared.GenerateSigningKeyPair()
	if err != nil {
		t.Fatalf("GenerateSigningKeyPair() error = %v", err)
	}

	claim := testClaim()
	claim.TimestampS = uint32(time.Now().Unix())
	sig := signClaim(t, kp, claim)

	resolver := staticResolver(Witness{ID: kp.GetEthAddress(), URL: "wss://attestor.example/ws"})
	cache := NewOperatorCache(func(ctx context.Context, engine ProverEngine, alg Algorithm) (Operator, error) {
		return &fakeOperator{verify: verify}, nil
	})

	plaintext := []byte(`{"status":"confirmed","pnr":"`)
	plaintext = append(plaintext, bytes.Repeat([]byte{'Q'}, 32-len(plaintext))...)

	proof := &Proof{
		ClaimInfo: ClaimInfo{
			Provider:   "http",
			Parameters: `{"url":"https://api.airline.example/booking","method":"GET"}`,
		},
		SignedClaim: SignedClaim{
			Claim:      claim,
			Signatures: []hexutil.Bytes{sig},
		},
		Reveal: &Reveal{
			CipherSuite:  "TLS_AES_128_GCM_SHA256",
			Ciphertext:   bytes.Repeat([]byte{0x9c}, 32),
			FixedIV:      make([]byte, 12),
			RecordNumber: 2,
			Chunks: []ProofChunk{{
				Algorithm:                   AlgAES128CTR,
				ProofData:                   []byte{0x01},
				DecryptedRedactedCiphertext: plaintext,
				RedactedPlaintext:           plaintext,
				StartIdx:                    0,
			}},
		},
	}

	return &endToEndFixture{
		verifier: New(resolver, cache, EngineGnark, shared.NewNopLogger()),
		proof:    proof,
		keyPair:  kp,
	}
}

func TestVerifyEndToEnd(t *testing.T) {
	fx := newEndToEndFixture(t, nil)

	res := fx.verifier.Verify(context.Background(), fx.proof, Options{})
	if !res.Verified {
		t.Fatalf("Verify() failed: %v", res.Err)
	}
	if res.Tier != TierZK {
		t.Errorf("tier = %q, want %q", res.Tier, TierZK)
	}
	if res.ReportID == "" {
		t.Error("report ID missing")
	}
	if len(res.RedactedPlaintext) != 32 {
		t.Errorf("plaintext length = %d, want 32", len(res.RedactedPlaintext))
	}
	if len(res.RecoveredSigners) != 1 || res.RecoveredSigners[0] != fx.keyPair.GetEthAddress() {
		t.Errorf("recovered signers = %v", res.RecoveredSigners)
	}
}

func TestVerifyChunkProofRejected(t *testing.T) {
	fx := newEndToEndFixture(t, func(ctx context.Context, proof ChunkProof, pub PublicInput) error {
		return Errf(KindInvalidProof, "pairing check failed")
	})

	res := fx.verifier.Verify(context.Background(), fx.proof, Options{})
	if res.Verified {
		t.Fatal("proof with a rejected chunk must not verify")
	}
	if res.Err == nil || res.Err.Kind != KindInvalidProof {
		t.Errorf("kind = %v, want %q", res.Err, KindInvalidProof)
	}
	// The signature layer already ran, so its findings are reported.
	if len(res.RecoveredSigners) != 1 {
		t.Errorf("recovered signers = %v, want the attestor", res.RecoveredSigners)
	}
}

func TestVerifyCongruenceFlip(t *testing.T) {
	fx := newEndToEndFixture(t, nil)
	// Flip one revealed byte of the claimed decryption.
	fx.proof.Reveal.Chunks[0].DecryptedRedactedCiphertext =
		append(hexutil.Bytes{}, fx.proof.Reveal.Chunks[0].DecryptedRedactedCiphertext...)
	fx.proof.Reveal.Chunks[0].DecryptedRedactedCiphertext[4] ^= 0xff

	res := fx.verifier.Verify(context.Background(), fx.proof, Options{})
	if res.Verified {
		t.Fatal("incongruent chunk must not verify")
	}
	if res.Err == nil || res.Err.Kind != KindCongruenceViolation {
		t.Errorf("kind = %v, want %q", res.Err, KindCongruenceViolation)
	}
}

func TestVerifyNoRevealData(t *testing.T) {
	t.Run("rejected by default", func(t *testing.T) {
		fx := newEndToEndFixture(t, nil)
		fx.proof.Reveal = nil

		res := fx.verifier.Verify(context.Background(), fx.proof, Options{})
		if res.Verified {
			t.Fatal("proof without reveal data must not verify by default")
		}
		if res.Err == nil || res.Err.Kind != KindNoProofData {
			t.Errorf("kind = %v, want %q", res.Err, KindNoProofData)
		}
	})

	t.Run("signature tier on opt-in", func(t *testing.T) {
		fx := newEndToEndFixture(t, nil)
		fx.proof.Reveal = nil

		res := fx.verifier.Verify(context.Background(), fx.proof, Options{AllowSignatureOnly: true})
		if !res.Verified {
			t.Fatalf("Verify() failed: %v", res.Err)
		}
		if res.Tier != TierSignature {
			t.Errorf("tier = %q, want %q", res.Tier, TierSignature)
		}
		if res.RedactedPlaintext != nil {
			t.Error("signature-only result must not carry plaintext")
		}
	})
}

func TestVerifyExpiredClaim(t *testing.T) {
	fx := newEndToEndFixture(t, nil)
	fx.verifier.now = func() time.Time {
		return time.Unix(int64(fx.proof.SignedClaim.Claim.TimestampS), 0).Add(48 * time.Hour)
	}

	res := fx.verifier.Verify(context.Background(), fx.proof, Options{MaxProofAge: 24 * time.Hour})
	if res.Verified {
		t.Fatal("expired claim must not verify")
	}
	if res.Err == nil || res.Err.Kind != KindProofExpired {
		t.Errorf("kind = %v, want %q", res.Err, KindProofExpired)
	}
}

func TestVerifyUnknownCipherSuite(t *testing.T) {
	fx := newEndToEndFixture(t, nil)
	fx.proof.Reveal.CipherSuite = "TLS_RSA_WITH_RC4_128_SHA"

	res := fx.verifier.Verify(context.Background(), fx.proof, Options{})
	if res.Verified {
		t.Fatal("unknown cipher suite must not verify")
	}
	if res.Err == nil || res.Err.Kind != KindInvalidProof {
		t.Errorf("kind = %v, want %q", res.Err, KindInvalidProof)
	}
}

func TestVerifyReceiptMismatch(t *testing.T) {
	fx := newEndToEndFixture(t, nil)
	fx.proof.ExtractedParameterValues = map[string]string{
		"pnr": "NOT-IN-THE-RESPONSE",
	}

	res := fx.verifier.Verify(context.Background(), fx.proof, Options{})
	if res.Verified {
		t.Fatal("unbacked extracted parameter must not verify")
	}
	if res.Err == nil || res.Err.Kind != KindReceiptMismatch {
		t.Errorf("kind = %v, want %q", res.Err, KindReceiptMismatch)
	}

	res = fx.verifier.Verify(context.Background(), fx.proof, Options{SkipReceiptCheck: true})
	if !res.Verified {
		t.Fatalf("SkipReceiptCheck run failed: %v", res.Err)
	}
}

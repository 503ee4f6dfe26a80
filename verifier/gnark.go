package verifier

import (
	"bytes"
	"context"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/backend/witness"

	"github.com/Zero-Proof-AI/zeroproof-travel-poc/shared"
	"go.uber.org/zap"
)

// gnarkOperator verifies Groth16 proofs on BN254 produced by the gnark TLS
// keystream circuits. One operator per algorithm; the verifying key is
// loaded once and never mutated.
type gnarkOperator struct {
	alg Algorithm
	vk  groth16.VerifyingKey
}

// NewGnarkOperatorFactory returns an OperatorFactory backed by gnark. The
// fetcher supplies the serialized verifying key per algorithm.
func NewGnarkOperatorFactory(fetcher ArtifactFetcher, log *shared.Logger) OperatorFactory {
	return func(ctx context.Context, engine ProverEngine, alg Algorithm) (Operator, error) {
		if engine != EngineGnark {
			return nil, Errf(KindUnsupportedAlgorithm, "no operator registered for engine %q", engine)
		}
		if _, err := ParseAlgorithm(string(alg)); err != nil {
			return nil, Errf(KindUnsupportedAlgorithm, "%v", err)
		}

		vkBytes, err := fetcher.Fetch(ctx, engine, alg, ArtifactVerifyingKey)
		if err != nil {
			if ve := AsError(err); ve != nil {
				return nil, ve
			}
			return nil, Errf(KindArtifactLoadFailure, "fetching verifying key for %s: %v", alg, err).Wrap(err)
		}

		vk := groth16.NewVerifyingKey(ecc.BN254)
		if _, err := vk.ReadFrom(bytes.NewReader(vkBytes)); err != nil {
			return nil, Errf(KindArtifactLoadFailure, "decoding verifying key for %s: %v", alg, err).Wrap(err)
		}

		log.Info("gnark operator initialized",
			zap.String("algorithm", string(alg)),
			zap.Int("vk_bytes", len(vkBytes)))

		return &gnarkOperator{alg: alg, vk: vk}, nil
	}
}

func (o *gnarkOperator) VerifyChunk(ctx context.Context, proof ChunkProof, pub PublicInput) error {
	if proof.Algorithm != o.alg {
		return Errf(KindUnsupportedAlgorithm, "operator for %s cannot verify %s proof", o.alg, proof.Algorithm)
	}

	p := groth16.NewProof(ecc.BN254)
	if _, err := p.ReadFrom(bytes.NewReader(proof.ProofData)); err != nil {
		return Errf(KindInvalidProof, "malformed %s proof: %v", o.alg, err).Wrap(err)
	}

	w, err := buildPublicWitness(o.alg, proof.Plaintext, pub)
	if err != nil {
		return err
	}

	if err := groth16.Verify(p, o.vk, w); err != nil {
		return Errf(KindInvalidProof, "%s proof rejected: %v", o.alg, err).Wrap(err)
	}
	return nil
}

// buildPublicWitness recomputes the circuit's public signals from the
// chunk's public input: nonce bytes, keystream counter, the redaction-
// zeroed ciphertext, and the claimed redacted plaintext, in circuit order.
func buildPublicWitness(alg Algorithm, plaintext []byte, pub PublicInput) (witness.Witness, error) {
	counter, err := keystreamCounter(alg, pub.OffsetBytes)
	if err != nil {
		return nil, err
	}
	if len(pub.Ciphertext) != len(plaintext) {
		return nil, Errf(KindInvalidProof, "public ciphertext length %d does not match plaintext length %d",
			len(pub.Ciphertext), len(plaintext))
	}

	n := len(pub.Nonce) + 1 + len(pub.Ciphertext) + len(plaintext)
	w, err := witness.New(ecc.BN254.ScalarField())
	if err != nil {
		return nil, Errf(KindInvalidProof, "allocating witness: %v", err).Wrap(err)
	}

	values := make(chan any, n)
	for _, b := range pub.Nonce {
		values <- b
	}
	values <- counter
	for _, b := range pub.Ciphertext {
		values <- b
	}
	for _, b := range plaintext {
		values <- b
	}
	close(values)

	if err := w.Fill(n, 0, values); err != nil {
		return nil, Errf(KindInvalidProof, "filling public witness: %v", err).Wrap(err)
	}
	return w, nil
}

// keystreamCounter maps a chunk's byte offset within the record payload to
// the keystream block counter the circuit starts at. Offsets must be
// block-aligned; a misaligned chunk cannot correspond to any keystream.
func keystreamCounter(alg Algorithm, offsetBytes int) (uint32, error) {
	if offsetBytes < 0 {
		return 0, Errf(KindInvalidProof, "negative chunk offset %d", offsetBytes)
	}
	bs := alg.BlockSize()
	if offsetBytes%bs != 0 {
		return 0, Errf(KindInvalidProof, "chunk offset %d is not aligned to the %d-byte %s block",
			offsetBytes, bs, alg)
	}
	return alg.InitialCounter() + uint32(offsetBytes/bs), nil
}

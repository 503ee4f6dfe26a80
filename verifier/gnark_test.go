package verifier

import (
	"context"
	"testing"

	"github.com/Zero-Proof-AI/zeroproof-travel-poc/shared"
)

func TestKeystreamCounter(t *testing.T) {
	tests := []struct {
		name    string
		alg     Algorithm
		offset  int
		want    uint32
		wantErr bool
	}{
		// AES-GCM spends counter 1 on the auth tag, so payload starts at 2.
		{"aes offset 0", AlgAES128CTR, 0, 2, false},
		{"aes one block", AlgAES128CTR, 16, 3, false},
		{"aes ten blocks", AlgAES256CTR, 160, 12, false},
		// ChaCha20-Poly1305 spends counter 0 on the Poly1305 key.
		{"chacha offset 0", AlgChaCha20, 0, 1, false},
		{"chacha one block", AlgChaCha20, 64, 2, false},
		{"aes misaligned", AlgAES128CTR, 10, 0, true},
		{"chacha misaligned", AlgChaCha20, 16, 0, true},
		{"negative offset", AlgAES128CTR, -16, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := keystreamCounter(tt.alg, tt.offset)
			if (err != nil) != tt.wantErr {
				t.Fatalf("keystreamCounter() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("keystreamCounter() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestGnarkFactoryRejections(t *testing.T) {
	factory := NewGnarkOperatorFactory(DirFetcher{Dir: t.TempDir()}, shared.NewNopLogger())

	t.Run("wrong engine", func(t *testing.T) {
		_, err := factory(context.Background(), ProverEngine("snarkjs"), AlgAES128CTR)
		if KindOf(err) != KindUnsupportedAlgorithm {
			t.Errorf("kind = %q, want %q", KindOf(err), KindUnsupportedAlgorithm)
		}
	})

	t.Run("unknown algorithm", func(t *testing.T) {
		_, err := factory(context.Background(), EngineGnark, Algorithm("des"))
		if KindOf(err) != KindUnsupportedAlgorithm {
			t.Errorf("kind = %q, want %q", KindOf(err), KindUnsupportedAlgorithm)
		}
	})

	t.Run("missing artifact", func(t *testing.T) {
		_, err := factory(context.Background(), EngineGnark, AlgAES128CTR)
		if KindOf(err) != KindArtifactLoadFailure {
			t.Errorf("kind = %q, want %q", KindOf(err), KindArtifactLoadFailure)
		}
	})
}

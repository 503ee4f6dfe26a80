package verifier

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/Zero-Proof-AI/zeroproof-travel-poc/shared"
)

// PacketInput is everything needed to verify one TLS record's reveal: the
// record's pure ciphertext (auth tag and similar fixed-size suffixes
// already stripped), nonce material, and the proof chunks.
type PacketInput struct {
	CipherSuite  uint16
	Ciphertext   []byte
	FixedIV      []byte
	RecordIV     []byte
	RecordNumber uint64
	Chunks       []ProofChunk
}

// PacketVerifier verifies all chunks of one TLS record and reassembles the
// record's redacted plaintext.
type PacketVerifier struct {
	cache  *OperatorCache
	engine ProverEngine
	log    *shared.Logger
}

func NewPacketVerifier(cache *OperatorCache, engine ProverEngine, log *shared.Logger) *PacketVerifier {
	return &PacketVerifier{cache: cache, engine: engine, log: log}
}

// VerifyPacket checks congruence, nonce validity and the ZK proof for
// every chunk, then overlays each chunk's redacted plaintext into a
// fully-redacted arena of the record's length. Chunks are verified
// concurrently; on failure every chunk is still attempted so the returned
// error can name all failing chunk indexes, but the operation as a whole
// fails.
//
// Gaps between chunks are implicitly redacted. Overlaps are rejected
// before any cryptographic work.
func (pv *PacketVerifier) VerifyPacket(ctx context.Context, in PacketInput) ([]byte, error) {
	if len(in.Chunks) == 0 {
		return nil, Errf(KindEmptyReveal, "reveal contains no proof chunks")
	}

	arena := newRedactionArena(len(in.Ciphertext))
	for i, chunk := range in.Chunks {
		if len(chunk.DecryptedRedactedCiphertext) != len(chunk.RedactedPlaintext) {
			return nil, ChunkErrf(KindCongruenceViolation, i,
				"decrypted ciphertext length %d does not match plaintext length %d",
				len(chunk.DecryptedRedactedCiphertext), len(chunk.RedactedPlaintext))
		}
		if err := arena.reserve(chunk.StartIdx, len(chunk.RedactedPlaintext)); err != nil {
			return nil, ChunkErrf(KindInvalidProof, i, "%v", err)
		}
	}

	nonce, err := DeriveRecordNonce(in.CipherSuite, in.FixedIV, in.RecordIV, in.RecordNumber)
	if err != nil {
		return nil, Errf(KindInvalidProof, "deriving record nonce: %v", err).Wrap(err)
	}

	// Fan out one verification per chunk. Each chunk is an independent
	// cryptographic claim about a disjoint offset range, so ordering is
	// irrelevant; results are collected by index.
	chunkErrs := make([]error, len(in.Chunks))
	var wg sync.WaitGroup
	for i := range in.Chunks {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			chunkErrs[i] = pv.verifyChunk(ctx, i, in.Chunks[i], in.Ciphertext, nonce)
		}(i)
	}
	wg.Wait()

	var failed []error
	for i, cerr := range chunkErrs {
		if cerr == nil {
			continue
		}
		pv.log.Security("chunk verification failed",
			zap.Int("chunk_index", i),
			zap.Int("start_idx", in.Chunks[i].StartIdx),
			zap.Error(cerr))
		failed = append(failed, cerr)
	}
	if len(failed) > 0 {
		first := AsError(failed[0])
		if first == nil {
			first = Errf(KindInvalidProof, "%v", failed[0])
		}
		if len(failed) > 1 {
			first.Message = fmt.Sprintf("%s (and %d more chunk failures)", first.Message, len(failed)-1)
		}
		return nil, first.Wrap(errors.Join(failed...))
	}

	for _, chunk := range in.Chunks {
		arena.overlay(chunk.StartIdx, chunk.RedactedPlaintext)
	}
	return arena.bytes(), nil
}

func (pv *PacketVerifier) verifyChunk(ctx context.Context, index int, chunk ProofChunk, recordCiphertext, nonce []byte) error {
	end := chunk.StartIdx + len(chunk.DecryptedRedactedCiphertext)
	pureSlice := recordCiphertext[chunk.StartIdx:end]

	// The chunk's claimed decryption must agree with the revealed
	// plaintext at every unredacted position before any proof is checked.
	if !CheckRedactionCongruence(chunk.RedactedPlaintext, chunk.DecryptedRedactedCiphertext) {
		return ChunkErrf(KindCongruenceViolation, index,
			"claimed decryption disagrees with revealed plaintext at an unredacted position")
	}

	// Only bytes the verifier may see become public proof inputs.
	publicCiphertext, err := ZeroRedactedPositions(pureSlice, chunk.RedactedPlaintext)
	if err != nil {
		return ChunkErrf(KindCongruenceViolation, index, "%v", err)
	}

	op, err := pv.cache.Get(ctx, pv.engine, chunk.Algorithm)
	if err != nil {
		if ve := AsError(err); ve != nil {
			// The cache hands the same error value to every waiter, so
			// annotate a copy rather than the shared instance.
			c := *ve
			c.ChunkIndex = index
			return &c
		}
		return ChunkErrf(KindArtifactLoadFailure, index, "%v", err).Wrap(err)
	}

	err = op.VerifyChunk(ctx, ChunkProof{
		Algorithm: chunk.Algorithm,
		ProofData: chunk.ProofData,
		Plaintext: chunk.RedactedPlaintext,
		TOPRF:     chunk.TOPRF,
	}, PublicInput{
		Ciphertext:  publicCiphertext,
		Nonce:       nonce,
		OffsetBytes: chunk.StartIdx,
	})
	if err != nil {
		if ve := AsError(err); ve != nil {
			c := *ve
			c.ChunkIndex = index
			return &c
		}
		return ChunkErrf(KindInvalidProof, index, "%v", err).Wrap(err)
	}
	return nil
}

package verifier

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

// PublicInput carries the public signals a chunk proof is checked against.
// Ciphertext must already have every byte at a redacted plaintext position
// zeroed (see ZeroRedactedPositions).
type PublicInput struct {
	Ciphertext  []byte
	Nonce       []byte
	OffsetBytes int
}

// ChunkProof is the prover-supplied half of a chunk verification.
type ChunkProof struct {
	Algorithm Algorithm
	ProofData []byte
	Plaintext []byte
	TOPRF     *TOPRFData
}

// Operator verifies chunk proofs for one (engine, algorithm) pair. An
// operator is constructed once, cached for the process lifetime, shared by
// reference across concurrent verifications and never mutated afterwards.
type Operator interface {
	VerifyChunk(ctx context.Context, proof ChunkProof, pub PublicInput) error
}

// OperatorFactory constructs the operator for an (engine, algorithm) pair,
// typically loading verification artifacts from disk or network. It must
// return *Error values from this package for classified failures.
type OperatorFactory func(ctx context.Context, engine ProverEngine, alg Algorithm) (Operator, error)

type operatorKey struct {
	engine ProverEngine
	alg    Algorithm
}

func (k operatorKey) String() string {
	return string(k.engine) + "/" + string(k.alg)
}

// OperatorCache lazily constructs and caches operators. Construction is
// single-flight: the first caller for a key performs the (possibly slow)
// artifact load while concurrent callers await the same in-flight
// initialization. Failed constructions are not cached, so a transient
// artifact failure does not poison the key. The key space is bounded, one
// entry per supported pair, so there is no eviction.
type OperatorCache struct {
	factory OperatorFactory

	group singleflight.Group
	mu    sync.RWMutex
	ops   map[operatorKey]Operator
}

func NewOperatorCache(factory OperatorFactory) *OperatorCache {
	return &OperatorCache{
		factory: factory,
		ops:     make(map[operatorKey]Operator),
	}
}

// Get returns the cached operator for the pair, constructing it on first
// use. If ctx expires while another caller's construction is in flight,
// Get returns early with ctx's error; the construction itself continues
// and its result is cached for later callers.
func (c *OperatorCache) Get(ctx context.Context, engine ProverEngine, alg Algorithm) (Operator, error) {
	key := operatorKey{engine: engine, alg: alg}

	c.mu.RLock()
	op := c.ops[key]
	c.mu.RUnlock()
	if op != nil {
		return op, nil
	}

	ch := c.group.DoChan(key.String(), func() (any, error) {
		// Detach from the caller's deadline: a timed-out caller must not
		// abort an initialization other callers are waiting on.
		op, err := c.factory(context.WithoutCancel(ctx), engine, alg)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.ops[key] = op
		c.mu.Unlock()
		return op, nil
	})

	select {
	case <-ctx.Done():
		return nil, Errf(KindArtifactLoadFailure, "operator init for %s interrupted: %v", key, ctx.Err()).Wrap(ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			if ve := AsError(res.Err); ve != nil {
				return nil, ve
			}
			return nil, Errf(KindArtifactLoadFailure, "operator init for %s: %v", key, res.Err).Wrap(res.Err)
		}
		return res.Val.(Operator), nil
	}
}

// Preload constructs operators for the given algorithms up front so that
// the first verification does not pay the artifact load.
func (c *OperatorCache) Preload(ctx context.Context, engine ProverEngine, algs ...Algorithm) error {
	for _, alg := range algs {
		if _, err := c.Get(ctx, engine, alg); err != nil {
			return fmt.Errorf("preloading %s/%s: %w", engine, alg, err)
		}
	}
	return nil
}

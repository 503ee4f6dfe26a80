package onchain

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"github.com/Zero-Proof-AI/zeroproof-travel-poc/shared"
	"github.com/Zero-Proof-AI/zeroproof-travel-poc/verifier"
)

const fetchWitnessesSignature = "fetchWitnessesForClaim(uint32,bytes32,uint32)"

var (
	fetchWitnessesSelector [4]byte
	fetchWitnessesInArgs   abi.Arguments
	fetchWitnessesOutArgs  abi.Arguments
)

func init() {
	copy(fetchWitnessesSelector[:], crypto.Keccak256([]byte(fetchWitnessesSignature))[:4])

	epochType, err := abi.NewType("uint32", "", nil)
	if err != nil {
		panic(fmt.Sprintf("building uint32 ABI type: %v", err))
	}
	identifierType, err := abi.NewType("bytes32", "", nil)
	if err != nil {
		panic(fmt.Sprintf("building bytes32 ABI type: %v", err))
	}
	witnessListType, err := abi.NewType("tuple[]", "Witness[]", []abi.ArgumentMarshaling{
		{Name: "addr", Type: "address"},
		{Name: "host", Type: "string"},
	})
	if err != nil {
		panic(fmt.Sprintf("building witness list ABI type: %v", err))
	}

	fetchWitnessesInArgs = abi.Arguments{
		{Name: "epoch", Type: epochType},
		{Name: "identifier", Type: identifierType},
		{Name: "timestampS", Type: epochType},
	}
	fetchWitnessesOutArgs = abi.Arguments{{Name: "witnesses", Type: witnessListType}}
}

type abiWitness struct {
	Addr common.Address
	Host string
}

// WitnessContract resolves the witness set for a claim by calling
// fetchWitnessesForClaim on the verifying contract. It is the on-chain
// alternative to the beacon WebSocket resolver.
type WitnessContract struct {
	backend  Backend
	contract common.Address
	log      *shared.Logger
}

func NewWitnessContract(backend Backend, contract common.Address, log *shared.Logger) *WitnessContract {
	return &WitnessContract{backend: backend, contract: contract, log: log}
}

// Resolve implements verifier.WitnessResolver.
func (w *WitnessContract) Resolve(ctx context.Context, epoch uint32, identifier common.Hash, timestampS uint32) ([]verifier.Witness, error) {
	packed, err := fetchWitnessesInArgs.Pack(epoch, [32]byte(identifier), timestampS)
	if err != nil {
		return nil, verifier.Errf(verifier.KindTransport, "encoding fetchWitnessesForClaim call: %v", err).Wrap(err)
	}
	data := append(fetchWitnessesSelector[:], packed...)

	ret, err := w.backend.CallContract(ctx, ethereum.CallMsg{To: &w.contract, Data: data}, nil)
	if err != nil {
		return nil, verifier.Errf(verifier.KindTransport, "fetchWitnessesForClaim call failed: %v", err).Wrap(err)
	}

	unpacked, err := fetchWitnessesOutArgs.Unpack(ret)
	if err != nil {
		return nil, verifier.Errf(verifier.KindTransport, "decoding fetchWitnessesForClaim result: %v", err).Wrap(err)
	}
	out := *abi.ConvertType(unpacked[0], new([]abiWitness)).(*[]abiWitness)

	witnesses := make([]verifier.Witness, len(out))
	for i, aw := range out {
		witnesses[i] = verifier.Witness{ID: aw.Addr, URL: aw.Host}
	}

	w.log.Debug("witnesses resolved via contract",
		zap.Uint32("epoch", epoch),
		zap.Int("count", len(witnesses)))
	return witnesses, nil
}

var _ verifier.WitnessResolver = (*WitnessContract)(nil)

func (w *WitnessContract) String() string {
	return fmt.Sprintf("contract(%s)", strings.ToLower(w.contract.Hex()))
}

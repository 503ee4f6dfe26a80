// Package onchain maps verified proofs into the wire tuple the verifying
// smart contract expects, submits them, and interprets the outcome. It
// also hosts the contract-backed witness resolver.
package onchain

import (
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/Zero-Proof-AI/zeroproof-travel-poc/verifier"
)

// VerifyProofSignature is the canonical signature of the contract entry
// point. The whole Proof struct is one parameter, a single nested tuple.
const VerifyProofSignature = "verifyProof(((string,string,string),((bytes32,address,uint32,uint32),bytes[])))"

var (
	verifyProofSelector [4]byte
	proofArguments      abi.Arguments
)

// ABI-shaped projections of the proof. Field names follow the component
// names so go-ethereum's packer can bind them.
type abiClaimInfo struct {
	Provider   string
	Parameters string
	Context    string
}

type abiClaimData struct {
	Identifier [32]byte
	Owner      common.Address
	TimestampS uint32
	Epoch      uint32
}

type abiSignedClaim struct {
	Claim      abiClaimData
	Signatures [][]byte
}

type abiProof struct {
	ClaimInfo   abiClaimInfo
	SignedClaim abiSignedClaim
}

func init() {
	copy(verifyProofSelector[:], crypto.Keccak256([]byte(VerifyProofSignature))[:4])

	proofType, err := abi.NewType("tuple", "Proof", []abi.ArgumentMarshaling{
		{Name: "claimInfo", Type: "tuple", Components: []abi.ArgumentMarshaling{
			{Name: "provider", Type: "string"},
			{Name: "parameters", Type: "string"},
			{Name: "context", Type: "string"},
		}},
		{Name: "signedClaim", Type: "tuple", Components: []abi.ArgumentMarshaling{
			{Name: "claim", Type: "tuple", Components: []abi.ArgumentMarshaling{
				{Name: "identifier", Type: "bytes32"},
				{Name: "owner", Type: "address"},
				{Name: "timestampS", Type: "uint32"},
				{Name: "epoch", Type: "uint32"},
			}},
			{Name: "signatures", Type: "bytes[]"},
		}},
	})
	if err != nil {
		panic(fmt.Sprintf("building verifyProof ABI type: %v", err))
	}
	proofArguments = abi.Arguments{{Name: "proof", Type: proofType}}
}

// Selector returns the 4-byte function selector of verifyProof.
func Selector() [4]byte {
	return verifyProofSelector
}

// ToOnchainProof projects a Proof into the two-tuple ABI structure
// (claimInfo, signedClaim). The projection is derived, never stored.
func ToOnchainProof(p *verifier.Proof) abiProof {
	sigs := make([][]byte, len(p.SignedClaim.Signatures))
	for i, s := range p.SignedClaim.Signatures {
		sigs[i] = s
	}
	return abiProof{
		ClaimInfo: abiClaimInfo{
			Provider:   p.ClaimInfo.Provider,
			Parameters: p.ClaimInfo.Parameters,
			Context:    p.ClaimInfo.Context,
		},
		SignedClaim: abiSignedClaim{
			Claim: abiClaimData{
				Identifier: p.SignedClaim.Claim.Identifier,
				Owner:      p.SignedClaim.Claim.Owner,
				TimestampS: p.SignedClaim.Claim.TimestampS,
				Epoch:      p.SignedClaim.Claim.Epoch,
			},
			Signatures: sigs,
		},
	}
}

// EncodeProofCall builds the full verifyProof calldata for a proof:
// selector followed by the ABI-encoded proof tuple.
func EncodeProofCall(p *verifier.Proof) ([]byte, error) {
	packed, err := proofArguments.Pack(ToOnchainProof(p))
	if err != nil {
		return nil, fmt.Errorf("encoding proof tuple: %w", err)
	}
	data := make([]byte, 0, 4+len(packed))
	data = append(data, verifyProofSelector[:]...)
	data = append(data, packed...)
	return data, nil
}

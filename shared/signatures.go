package shared

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Ethereum-style message signing (EIP-191 personal_sign) is the signature
// scheme attestors use over claim data. Signatures are 65 bytes: r || s || v.

// SigningKeyPair represents an ECDSA signing key pair on secp256k1
type SigningKeyPair struct {
	PrivateKey *ecdsa.PrivateKey
	PublicKey  *ecdsa.PublicKey
}

// GenerateSigningKeyPair generates a new secp256k1 key pair (ETH compatible)
func GenerateSigningKeyPair() (*SigningKeyPair, error) {
	privateKey, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate ECDSA key pair: %v", err)
	}

	return &SigningKeyPair{
		PrivateKey: privateKey,
		PublicKey:  &privateKey.PublicKey,
	}, nil
}

// SignData signs the given data using Ethereum-style message signing
// (includes the "\x19Ethereum Signed Message:\n" prefix)
func (kp *SigningKeyPair) SignData(data []byte) ([]byte, error) {
	hash := accounts.TextHash(data)

	// 65-byte signature with recovery ID
	signature, err := crypto.Sign(hash, kp.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign data with ETH style: %v", err)
	}

	return signature, nil
}

// GetEthAddress returns the Ethereum address for this key pair
func (kp *SigningKeyPair) GetEthAddress() common.Address {
	return crypto.PubkeyToAddress(*kp.PublicKey)
}

// RecoverSigner recovers the Ethereum address that produced an
// Ethereum-style message signature over data.
func RecoverSigner(data []byte, signature []byte) (common.Address, error) {
	if len(signature) != 65 {
		return common.Address{}, fmt.Errorf("invalid ETH signature length: expected 65 bytes, got %d", len(signature))
	}

	hash := accounts.TextHash(data)

	// Some signers emit v as 27/28 rather than 0/1
	sig := make([]byte, 65)
	copy(sig, signature)
	if sig[64] >= 27 {
		sig[64] -= 27
	}

	recoveredPubKey, err := crypto.SigToPub(hash, sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to recover public key from signature: %v", err)
	}

	return crypto.PubkeyToAddress(*recoveredPubKey), nil
}

// VerifyEthSignature verifies an Ethereum-style signature against the given
// data and expected signer address
func VerifyEthSignature(data []byte, signature []byte, expectedAddress common.Address) error {
	recoveredAddress, err := RecoverSigner(data, signature)
	if err != nil {
		return err
	}

	if recoveredAddress != expectedAddress {
		return fmt.Errorf("signature verification failed: expected address %s, got %s",
			expectedAddress.Hex(), recoveredAddress.Hex())
	}

	return nil
}

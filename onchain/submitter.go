package onchain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"github.com/Zero-Proof-AI/zeroproof-travel-poc/shared"
	"github.com/Zero-Proof-AI/zeroproof-travel-poc/verifier"
)

// Backend is the subset of an Ethereum node client the submitter needs.
// *ethclient.Client satisfies it; tests use fakes.
type Backend interface {
	CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error)
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

const defaultReceiptPollInterval = 2 * time.Second

// SubmissionResult reports a confirmed on-chain verification.
type SubmissionResult struct {
	TxHash      common.Hash
	BlockNumber *big.Int
	GasUsed     uint64
}

// Submitter performs verifyProof calls against the verifying contract,
// either gas-free (eth_call) or as a signed transaction. Submission is
// never retried automatically: a timed-out transaction may still land,
// and retrying would risk paying gas twice. Retry is the caller's call.
type Submitter struct {
	backend  Backend
	contract common.Address
	chainID  *big.Int
	key      *ecdsa.PrivateKey // nil for gas-free verification only
	log      *shared.Logger

	receiptPollInterval time.Duration
}

// NewSubmitter builds a submitter. key may be nil when only the gas-free
// path is needed.
func NewSubmitter(backend Backend, contract common.Address, chainID *big.Int, key *ecdsa.PrivateKey, log *shared.Logger) *Submitter {
	return &Submitter{
		backend:             backend,
		contract:            contract,
		chainID:             chainID,
		key:                 key,
		log:                 log,
		receiptPollInterval: defaultReceiptPollInterval,
	}
}

// CallVerifyProof verifies the proof on-chain without a transaction: a
// static call to verifyProof whose boolean return word is the verdict.
// No key and no gas required.
func (s *Submitter) CallVerifyProof(ctx context.Context, p *verifier.Proof) error {
	if err := s.assertContractDeployed(ctx); err != nil {
		return err
	}

	data, err := EncodeProofCall(p)
	if err != nil {
		return verifier.Errf(verifier.KindInvalidProof, "%v", err).Wrap(err)
	}

	ret, err := s.backend.CallContract(ctx, ethereum.CallMsg{To: &s.contract, Data: data}, nil)
	if err != nil {
		if reason, ok := revertReasonFromError(err); ok {
			return verifier.Errf(verifier.KindOnchainRevert, "verifyProof reverted: %s", reason).Wrap(err)
		}
		return verifier.Errf(verifier.KindTransport, "verifyProof call failed: %v", err).Wrap(err)
	}
	if reason, ok := decodeRevertReason(ret); ok {
		return verifier.Errf(verifier.KindOnchainRevert, "verifyProof reverted: %s", reason)
	}
	if len(ret) < 32 || ret[31] != 1 {
		return verifier.Errf(verifier.KindOnchainRevert, "verifyProof returned false")
	}

	s.log.Info("proof verified on-chain via static call",
		zap.String("contract", s.contract.Hex()))
	return nil
}

// SubmitProof submits a verifyProof transaction and waits for its receipt
// up to ctx's deadline. A successful receipt means the contract accepted
// the proof; a revert is reported with the node's reason where available;
// a timeout is reported distinctly because the transaction's true outcome
// is then unknown, not rejected.
func (s *Submitter) SubmitProof(ctx context.Context, p *verifier.Proof) (*SubmissionResult, error) {
	if s.key == nil {
		return nil, verifier.Errf(verifier.KindTransport, "submitter has no signing key; use CallVerifyProof for gas-free verification")
	}
	if err := s.assertContractDeployed(ctx); err != nil {
		return nil, err
	}

	data, err := EncodeProofCall(p)
	if err != nil {
		return nil, verifier.Errf(verifier.KindInvalidProof, "%v", err).Wrap(err)
	}

	from := crypto.PubkeyToAddress(s.key.PublicKey)
	call := ethereum.CallMsg{From: from, To: &s.contract, Data: data}

	gasLimit, err := s.backend.EstimateGas(ctx, call)
	if err != nil {
		// Estimation executes the call; a revert here is the contract
		// rejecting the proof, not a transport problem.
		if reason, ok := revertReasonFromError(err); ok {
			return nil, verifier.Errf(verifier.KindOnchainRevert, "verifyProof reverted during gas estimation: %s", reason).Wrap(err)
		}
		return nil, verifier.Errf(verifier.KindTransport, "gas estimation failed: %v", err).Wrap(err)
	}

	gasPrice, err := s.backend.SuggestGasPrice(ctx)
	if err != nil {
		return nil, verifier.Errf(verifier.KindTransport, "suggesting gas price: %v", err).Wrap(err)
	}

	nonce, err := s.backend.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, verifier.Errf(verifier.KindTransport, "fetching account nonce: %v", err).Wrap(err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &s.contract,
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Data:     data,
	})
	signedTx, err := types.SignTx(tx, types.LatestSignerForChainID(s.chainID), s.key)
	if err != nil {
		return nil, verifier.Errf(verifier.KindTransport, "signing transaction: %v", err).Wrap(err)
	}

	if err := s.backend.SendTransaction(ctx, signedTx); err != nil {
		return nil, verifier.Errf(verifier.KindTransport, "sending transaction: %v", err).Wrap(err)
	}

	txHash := signedTx.Hash()
	log := s.log.WithTx(txHash.Hex())
	log.Info("verifyProof transaction submitted",
		zap.Uint64("gas_limit", gasLimit),
		zap.Uint64("nonce", nonce))

	receipt, err := s.waitReceipt(ctx, txHash)
	if err != nil {
		return nil, err
	}

	if receipt.Status != types.ReceiptStatusSuccessful {
		reason := s.replayForRevertReason(ctx, call, receipt.BlockNumber)
		log.Warn("verifyProof transaction reverted", zap.String("reason", reason))
		return nil, verifier.Errf(verifier.KindOnchainRevert, "transaction reverted: %s", reason)
	}

	log.Info("proof verified on-chain",
		zap.Uint64("gas_used", receipt.GasUsed),
		zap.String("block", receipt.BlockNumber.String()))

	return &SubmissionResult{
		TxHash:      txHash,
		BlockNumber: receipt.BlockNumber,
		GasUsed:     receipt.GasUsed,
	}, nil
}

func (s *Submitter) assertContractDeployed(ctx context.Context) error {
	code, err := s.backend.CodeAt(ctx, s.contract, nil)
	if err != nil {
		return verifier.Errf(verifier.KindTransport, "checking contract deployment: %v", err).Wrap(err)
	}
	if len(code) == 0 {
		return verifier.Errf(verifier.KindTransport, "no contract deployed at %s", s.contract.Hex())
	}
	return nil
}

func (s *Submitter) waitReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	ticker := time.NewTicker(s.receiptPollInterval)
	defer ticker.Stop()

	for {
		receipt, err := s.backend.TransactionReceipt(ctx, txHash)
		if err == nil {
			return receipt, nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			return nil, verifier.Errf(verifier.KindTransport, "fetching receipt: %v", err).Wrap(err)
		}

		select {
		case <-ctx.Done():
			// The transaction may still confirm later; the outcome is
			// unknown, which is not the same as rejected.
			return nil, verifier.Errf(verifier.KindOnchainTimeout,
				"no receipt for %s before deadline; transaction may still be pending", txHash.Hex()).Wrap(ctx.Err())
		case <-ticker.C:
		}
	}
}

// replayForRevertReason re-executes the failed call at the revert block to
// recover the reason string. Best effort: nodes without archive state
// return nothing useful.
func (s *Submitter) replayForRevertReason(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) string {
	ret, err := s.backend.CallContract(ctx, call, blockNumber)
	if err != nil {
		if reason, ok := revertReasonFromError(err); ok {
			return reason
		}
		return "unknown (replay failed: " + err.Error() + ")"
	}
	if reason, ok := decodeRevertReason(ret); ok {
		return reason
	}
	return "unknown"
}

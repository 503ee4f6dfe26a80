// Command zpverify verifies a selective-disclosure proof from a JSON file:
// claim signatures against the epoch witness set, per-chunk zero-knowledge
// proofs over the revealed ciphertext, and optionally the on-chain
// verifyProof contract call.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math/big"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"

	"github.com/Zero-Proof-AI/zeroproof-travel-poc/beacon"
	"github.com/Zero-Proof-AI/zeroproof-travel-poc/onchain"
	"github.com/Zero-Proof-AI/zeroproof-travel-poc/shared"
	"github.com/Zero-Proof-AI/zeroproof-travel-poc/verifier"
)

const defaultReclaimAddress = "0xAe94FB09711e1c6B057853a515483792d8e474d0"

func main() {
	var (
		proofPath     = flag.String("proof", "", "path to the proof JSON file (required)")
		signatureOnly = flag.Bool("signature-only", false, "accept proofs without reveal data at the signature trust tier")
		maxAge        = flag.Duration("max-age", 0, "reject claims older than this (0 disables)")
		onchainCheck  = flag.Bool("onchain", false, "also verify the proof via a gas-free verifyProof contract call")
		submit        = flag.Bool("submit", false, "submit a verifyProof transaction (requires PRIVATE_KEY)")
		timeout       = flag.Duration("timeout", 2*time.Minute, "overall deadline")
	)
	flag.Parse()

	shared.LoadEnvFile(".env")

	log, err := shared.NewLoggerFromEnv("zpverify")
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if *proofPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := run(ctx, log, *proofPath, *signatureOnly, *maxAge, *onchainCheck, *submit); err != nil {
		log.Error("verification failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, log *shared.Logger, proofPath string, signatureOnly bool, maxAge time.Duration, onchainCheck, submit bool) error {
	data, err := os.ReadFile(proofPath)
	if err != nil {
		return fmt.Errorf("reading proof file: %w", err)
	}
	proof, err := verifier.ParseProof(data)
	if err != nil {
		return err
	}

	resolver, err := buildResolver(log)
	if err != nil {
		return err
	}

	cache := verifier.NewOperatorCache(
		verifier.NewGnarkOperatorFactory(buildFetcher(), log))

	v := verifier.New(resolver, cache, verifier.EngineGnark, log)
	res := v.Verify(ctx, proof, verifier.Options{
		AllowSignatureOnly: signatureOnly,
		MaxProofAge:        maxAge,
	})

	out, _ := json.MarshalIndent(res, "", "  ")
	fmt.Println(string(out))

	if !res.Verified {
		return res.Err
	}

	if onchainCheck || submit {
		if err := runOnchain(ctx, log, proof, submit); err != nil {
			return err
		}
	}
	return nil
}

// buildResolver picks the witness source: the beacon WebSocket when
// BEACON_WS_URL is set, the task contract otherwise.
func buildResolver(log *shared.Logger) (verifier.WitnessResolver, error) {
	if wsURL := os.Getenv("BEACON_WS_URL"); wsURL != "" {
		return beacon.NewClient(wsURL, log), nil
	}

	rpcURL := os.Getenv("SEPOLIA_RPC_URL")
	if rpcURL == "" {
		return nil, fmt.Errorf("set BEACON_WS_URL or SEPOLIA_RPC_URL to resolve witnesses")
	}
	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", rpcURL, err)
	}
	contract := common.HexToAddress(shared.GetEnvOrDefault("RECLAIM_ADDRESS", defaultReclaimAddress))
	return onchain.NewWitnessContract(client, contract, log), nil
}

func buildFetcher() verifier.ArtifactFetcher {
	if dir := os.Getenv("ZK_ARTIFACT_DIR"); dir != "" {
		return verifier.DirFetcher{Dir: dir}
	}
	return verifier.HTTPFetcher{
		BaseURL: shared.GetEnvOrDefault("ZK_ARTIFACT_BASE_URL",
			"https://d1l6t78iyuhldt.cloudfront.net/resources/gnark"),
	}
}

func runOnchain(ctx context.Context, log *shared.Logger, proof *verifier.Proof, submit bool) error {
	rpcURL := os.Getenv("SEPOLIA_RPC_URL")
	if rpcURL == "" {
		return fmt.Errorf("SEPOLIA_RPC_URL is required for on-chain verification")
	}
	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return fmt.Errorf("dialing %s: %w", rpcURL, err)
	}
	defer client.Close()

	contract := common.HexToAddress(shared.GetEnvOrDefault("RECLAIM_ADDRESS", defaultReclaimAddress))

	var chainID *big.Int
	if submit {
		chainID, err = client.ChainID(ctx)
		if err != nil {
			return fmt.Errorf("fetching chain ID: %w", err)
		}
	}

	if !submit {
		sub := onchain.NewSubmitter(client, contract, nil, nil, log)
		if err := sub.CallVerifyProof(ctx, proof); err != nil {
			return err
		}
		fmt.Println("on-chain static verification: accepted")
		return nil
	}

	rawKey := os.Getenv("PRIVATE_KEY")
	if rawKey == "" {
		return fmt.Errorf("PRIVATE_KEY is required with -submit")
	}
	privKey, err := crypto.HexToECDSA(rawKey)
	if err != nil {
		return fmt.Errorf("parsing PRIVATE_KEY: %w", err)
	}

	sub := onchain.NewSubmitter(client, contract, chainID, privKey, log)
	result, err := sub.SubmitProof(ctx, proof)
	if err != nil {
		return err
	}
	fmt.Printf("on-chain verification confirmed in block %s (tx %s, gas %d)\n",
		result.BlockNumber, result.TxHash.Hex(), result.GasUsed)
	return nil
}

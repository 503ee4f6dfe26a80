package verifier

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// Artifact kinds a backend may request.
const (
	ArtifactVerifyingKey = "vk"
	ArtifactCircuit      = "r1cs"
)

// ArtifactFetcher provides circuit and key material by engine, algorithm
// and kind. Implementations are swappable without affecting verification
// logic: local storage for air-gapped verifiers, a CDN for everyone else.
type ArtifactFetcher interface {
	Fetch(ctx context.Context, engine ProverEngine, alg Algorithm, kind string) ([]byte, error)
}

// DirFetcher reads artifacts from local storage, laid out as
// {dir}/{engine}/{algorithm}/{kind}.bin.
type DirFetcher struct {
	Dir string
}

func (f DirFetcher) Fetch(_ context.Context, engine ProverEngine, alg Algorithm, kind string) ([]byte, error) {
	path := filepath.Join(f.Dir, string(engine), string(alg), kind+".bin")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, Errf(KindArtifactLoadFailure, "reading artifact %s: %v", path, err).Wrap(err)
	}
	return data, nil
}

// HTTPFetcher downloads artifacts from a content distribution endpoint at
// {baseURL}/{engine}/{algorithm}/{kind}.bin.
type HTTPFetcher struct {
	BaseURL string
	Client  *http.Client
}

func (f HTTPFetcher) Fetch(ctx context.Context, engine ProverEngine, alg Algorithm, kind string) ([]byte, error) {
	client := f.Client
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}

	url := fmt.Sprintf("%s/%s/%s/%s.bin", f.BaseURL, engine, alg, kind)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, Errf(KindArtifactLoadFailure, "building artifact request: %v", err).Wrap(err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, Errf(KindTransport, "fetching artifact %s: %v", url, err).Wrap(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, Errf(KindArtifactLoadFailure, "artifact %s: HTTP %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, Errf(KindTransport, "reading artifact %s: %v", url, err).Wrap(err)
	}
	return data, nil
}

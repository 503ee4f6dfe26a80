// Package beacon resolves the expected witness set for a claim by asking
// a beacon service over WebSocket. It is one of two interchangeable
// witness-resolution collaborators; the other queries the on-chain task
// contract directly (see the onchain package).
package beacon

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Zero-Proof-AI/zeroproof-travel-poc/shared"
	"github.com/Zero-Proof-AI/zeroproof-travel-poc/verifier"
)

const defaultRequestTimeout = 15 * time.Second

// fetchWitnessesRequest is the wire request to the beacon.
type fetchWitnessesRequest struct {
	ID         string `json:"id"`
	Type       string `json:"type"` // always "fetch-witnesses"
	Epoch      uint32 `json:"epoch"`
	Identifier string `json:"identifier"`
	TimestampS uint32 `json:"timestampS"`
}

type fetchWitnessesResponse struct {
	ID        string             `json:"id"`
	Witnesses []verifier.Witness `json:"witnesses"`
	Error     string             `json:"error,omitempty"`
}

// Client is a WebSocket witness resolver. Each Resolve call opens a fresh
// connection: beacon queries are rare (once per verification) and a held
// connection would only add reconnect handling.
type Client struct {
	url    string
	dialer *websocket.Dialer
	log    *shared.Logger
}

func NewClient(url string, log *shared.Logger) *Client {
	return &Client{
		url:    url,
		dialer: websocket.DefaultDialer,
		log:    log,
	}
}

// Resolve implements verifier.WitnessResolver.
func (c *Client) Resolve(ctx context.Context, epoch uint32, identifier common.Hash, timestampS uint32) ([]verifier.Witness, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultRequestTimeout)
		defer cancel()
	}

	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return nil, verifier.Errf(verifier.KindTransport, "dialing beacon %s: %v", c.url, err).Wrap(err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetReadDeadline(deadline)
		_ = conn.SetWriteDeadline(deadline)
	}

	req := fetchWitnessesRequest{
		ID:         uuid.NewString(),
		Type:       "fetch-witnesses",
		Epoch:      epoch,
		Identifier: identifier.Hex(),
		TimestampS: timestampS,
	}
	if err := conn.WriteJSON(req); err != nil {
		return nil, verifier.Errf(verifier.KindTransport, "sending witness request: %v", err).Wrap(err)
	}

	// The beacon may interleave unrelated notifications; read until our
	// request ID answers or the deadline trips.
	for {
		var resp fetchWitnessesResponse
		if err := conn.ReadJSON(&resp); err != nil {
			return nil, verifier.Errf(verifier.KindTransport, "reading witness response: %v", err).Wrap(err)
		}
		if resp.ID != req.ID {
			continue
		}
		if resp.Error != "" {
			return nil, verifier.Errf(verifier.KindTransport, "beacon error: %s", resp.Error)
		}
		c.log.Debug("witnesses resolved via beacon",
			zap.Uint32("epoch", epoch),
			zap.Int("count", len(resp.Witnesses)))
		return resp.Witnesses, nil
	}
}

var _ verifier.WitnessResolver = (*Client)(nil)

// String identifies the resolver in logs and diagnostics.
func (c *Client) String() string {
	return fmt.Sprintf("beacon(%s)", c.url)
}

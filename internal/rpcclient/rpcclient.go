// Package rpcclient wraps the processed-commitment RPC surface the
// submission pipeline needs: pre-submit simulation, token account
// balance lookups, and a background-refreshed blockhash cache.
package rpcclient

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// Client wraps *rpc.Client with the few calls the submission pipeline
// (C6) and RPC interface (section 6.3) need, plus the single-writer
// blockhash cache the concurrency model calls for.
type Client struct {
	rpc *rpc.Client

	blockhash atomic.Pointer[solana.Hash]
	stop      chan struct{}
}

// New constructs a Client and starts its background blockhash
// refresher at the given interval.
func New(endpoint string, refreshInterval time.Duration) *Client {
	c := &Client{rpc: rpc.New(endpoint), stop: make(chan struct{})}
	go c.refreshBlockhashLoop(refreshInterval)
	return c
}

func (c *Client) refreshBlockhashLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	c.refreshBlockhashOnce()
	for {
		select {
		case <-ticker.C:
			c.refreshBlockhashOnce()
		case <-c.stop:
			return
		}
	}
}

func (c *Client) refreshBlockhashOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	out, err := c.rpc.GetLatestBlockhash(ctx, rpc.CommitmentProcessed)
	if err != nil || out == nil {
		return
	}
	hash := out.Value.Blockhash
	c.blockhash.Store(&hash)
}

// LatestBlockhash returns the most recently cached blockhash without
// blocking on an RPC round trip (lock-free snapshot read).
func (c *Client) LatestBlockhash() (solana.Hash, error) {
	p := c.blockhash.Load()
	if p == nil {
		return solana.Hash{}, fmt.Errorf("rpcclient: blockhash cache not yet populated")
	}
	return *p, nil
}

// Close stops the background refresher.
func (c *Client) Close() {
	close(c.stop)
}

// SimulationResult mirrors the fields section 6.3 lists.
type SimulationResult struct {
	UnitsConsumed uint64
	Err           error
	Logs          []string
}

// SimulateTransaction runs a pre-submit simulation against a
// processed-commitment RPC, with sig_verify disabled and the recent
// blockhash replaced, per section 6.3.
func (c *Client) SimulateTransaction(ctx context.Context, tx *solana.Transaction) (SimulationResult, error) {
	commitment := rpc.CommitmentProcessed
	sigVerify := false
	replace := true
	innerIx := true
	out, err := c.rpc.SimulateTransactionWithOpts(ctx, tx, &rpc.SimulateTransactionOpts{
		SigVerify:              sigVerify,
		Commitment:             commitment,
		ReplaceRecentBlockhash: replace,
		InnerInstructions:      innerIx,
	})
	if err != nil {
		return SimulationResult{}, fmt.Errorf("rpcclient: simulate: %w", err)
	}
	res := SimulationResult{Logs: out.Value.Logs}
	if out.Value.UnitsConsumed != nil {
		res.UnitsConsumed = *out.Value.UnitsConsumed
	}
	if out.Value.Err != nil {
		res.Err = fmt.Errorf("rpcclient: simulation error: %v", out.Value.Err)
	}
	return res, nil
}

// GetTokenAccountBalance returns the atomic token amount held by account,
// at processed commitment.
func (c *Client) GetTokenAccountBalance(ctx context.Context, account solana.PublicKey) (uint64, error) {
	out, err := c.rpc.GetTokenAccountBalance(ctx, account, rpc.CommitmentProcessed)
	if err != nil {
		return 0, fmt.Errorf("rpcclient: get token account balance: %w", err)
	}
	var amount uint64
	_, err = fmt.Sscan(out.Value.Amount, &amount)
	if err != nil {
		return 0, fmt.Errorf("rpcclient: parse token balance: %w", err)
	}
	return amount, nil
}

// Package submit implements the submission pipeline (C6): compose
// instructions, sign, simulate, relay-submit, and — on a later matching
// signature — confirm and compute realized PnL.
package submit

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"

	"raysentinel/internal/core/domain"
	"raysentinel/internal/core/poolevent"
	"raysentinel/internal/relay"
	"raysentinel/internal/rpcclient"
)

// Outcome classifies the result of one Fire attempt.
type Outcome int

const (
	OutcomeSubmitted Outcome = iota
	OutcomeInsufficientPreparation
	OutcomeSimulationFailure
	OutcomeRelayError
)

// Compiler is the external collaborator that turns an ordered
// instruction list plus a tip bundle into a signed, ready-to-submit
// transaction, addressed to the caller's own public key and signed with
// the caller's keypair.
type Compiler interface {
	Compile(ctx context.Context, instructions []domain.Instruction, tipIx []solana.Instruction, blockhash solana.Hash, payer solana.PublicKey, privateKey []byte) (*solana.Transaction, string, error)
}

// BlockhashSource is the lock-free blockhash snapshot reader.
type BlockhashSource interface {
	LatestBlockhash() (solana.Hash, error)
}

// Simulator runs the pre-submit simulation.
type Simulator interface {
	SimulateTransaction(ctx context.Context, tx *solana.Transaction) (rpcclient.SimulationResult, error)
}

// Pipeline wires the collaborators C6 needs.
type Pipeline struct {
	Blockhash BlockhashSource
	Sim       Simulator
	Compiler  Compiler
	Relays    map[domain.ConfirmService]relay.Client
}

// Fire snapshots slot.PreparedSwapIx, prepends a tip/fee bundle, signs,
// simulates, and submits. It never mutates slot directly; the caller
// commits pendingSignature through the position store under its own
// short critical section.
func (p *Pipeline) Fire(ctx context.Context, slot *domain.PositionSlot, payer solana.PublicKey) (Outcome, string, error) {
	if len(slot.PreparedSwapIx) == 0 {
		return OutcomeInsufficientPreparation, "", fmt.Errorf("submit: no prepared instructions for user %s", slot.Config.UserID)
	}

	strat := slot.Config.Strategy
	relayClient, ok := p.Relays[strat.ConfirmService]
	if !ok {
		return OutcomeRelayError, "", fmt.Errorf("submit: no relay client configured for %q", strat.ConfirmService)
	}

	tipIx, err := relayClient.AddTip(relay.TipParams{
		ComputeUnits:             strat.ComputeUnits,
		PriorityFeeMicroLamports: strat.PriorityFeeMicroLamports,
		Payer:                    payer,
		TipIndex:                 defaultTipIndex(strat.ConfirmService),
		TipNativeAmountLamports:  strat.RelayTipLamports,
	})
	if err != nil {
		return OutcomeRelayError, "", fmt.Errorf("submit: add tip: %w", err)
	}

	blockhash, err := p.Blockhash.LatestBlockhash()
	if err != nil {
		return OutcomeRelayError, "", fmt.Errorf("submit: blockhash unavailable: %w", err)
	}

	tx, signedTxBase64, err := p.Compiler.Compile(ctx, slot.PreparedSwapIx, tipIx, blockhash, payer, slot.Config.PrivateKey)
	if err != nil {
		return OutcomeRelayError, "", fmt.Errorf("submit: compile: %w", err)
	}

	simResult, err := p.Sim.SimulateTransaction(ctx, tx)
	if err != nil {
		return OutcomeSimulationFailure, "", fmt.Errorf("submit: simulate: %w", err)
	}
	if simResult.Err != nil {
		return OutcomeSimulationFailure, "", simResult.Err
	}

	sig, err := relayClient.Submit(ctx, signedTxBase64)
	if err != nil {
		return OutcomeRelayError, "", fmt.Errorf("submit: relay submit: %w", err)
	}

	return OutcomeSubmitted, sig, nil
}

func defaultTipIndex(service domain.ConfirmService) int {
	switch service {
	case domain.ConfirmServiceJito:
		return 4
	default:
		return 1
	}
}

// ConfirmationDelta holds the values Confirm derives before the caller
// commits them to the slot.
type ConfirmationDelta struct {
	NowLong          bool
	InputDelta       int64
	OutputDelta      int64
	ProfitNative     float64
	ROIPct           float64
	DurationMs       int64
	AddedFeeLamports uint64
}

// Confirm matches a later PoolEvent against slot.PendingSignature and
// derives the buy-side or sell-side deltas from the wrapped-native ATA's
// pre/post balances, per C6's confirmation contract. It returns
// (delta, true) on a match, (zero, false) otherwise — the caller is
// responsible for clearing PendingSignature and applying the delta
// under the position store's write lock.
func Confirm(event domain.PoolEvent, slot *domain.PositionSlot, wrappedNativeATA string) (ConfirmationDelta, bool) {
	if slot.PendingSignature == "" || event.Signature != slot.PendingSignature {
		return ConfirmationDelta{}, false
	}

	balance, ok := poolevent.FindTokenBalance(event, wrappedNativeATA, swapbuildWrappedNativeMint)
	if !ok {
		return ConfirmationDelta{NowLong: !slot.IsLong, AddedFeeLamports: event.FeeLamports}, true
	}

	delta := ConfirmationDelta{AddedFeeLamports: event.FeeLamports}

	if !slot.IsLong {
		// buy confirmation: transitioning to Long.
		delta.NowLong = true
		delta.InputDelta = int64(balance.PreAmount) - int64(balance.PostAmount)
		return delta, true
	}

	// sell confirmation: transitioning to Idle.
	delta.NowLong = false
	delta.OutputDelta = int64(balance.PostAmount) - int64(balance.PreAmount)
	priorOutput := slot.LastOutputDeltaLamports
	delta.ProfitNative = float64(delta.OutputDelta-priorOutput) / 1e9
	if slot.LastInputDeltaLamports > 0 {
		delta.ROIPct = delta.ProfitNative / (float64(slot.LastInputDeltaLamports) / 1e9) * 100.0
	}
	delta.DurationMs = nowMs() - slot.ArmTimeMs
	return delta, true
}

const swapbuildWrappedNativeMint = "So11111111111111111111111111111111111111112"

func nowMs() int64 {
	return time.Now().UnixMilli()
}

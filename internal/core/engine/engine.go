// Package engine is the composition root tying C2-C7 together for one
// incoming PoolEvent: rebuild the speculative instruction set, evaluate
// entry/exit thresholds, fire a submission when triggered, and apply a
// confirmation when a later event's signature matches.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/gagliardetto/solana-go"

	"raysentinel/internal/core/decision"
	"raysentinel/internal/core/domain"
	"raysentinel/internal/core/lifecycle"
	"raysentinel/internal/core/poolevent"
	"raysentinel/internal/core/position"
	"raysentinel/internal/core/submit"
	"raysentinel/internal/core/swapbuild"
)

var (
	ErrInvalidEvent              = errors.New("engine: invalid event")
	ErrInsufficientPreparation   = errors.New("engine: no prepared swap instructions")
	ErrSimulationFailure         = errors.New("engine: simulation failure")
	ErrRelayError                = errors.New("engine: relay error")
	ErrConcurrencyTimeout        = errors.New("engine: concurrency timeout")
)

// Report is one structured line the engine emits to its Reporter
// channel, mirroring the teacher's reportChan/StrategyReport pattern.
type Report struct {
	Timestamp time.Time `json:"timestamp"`
	EventType string    `json:"event_type"`
	UserID    string    `json:"user_id,omitempty"`
	PoolID    string    `json:"pool_id,omitempty"`
	Message   string    `json:"message"`
	Error     string    `json:"error,omitempty"`
}

// Reporter is the channel the engine publishes Report lines to.
type Reporter chan<- Report

func (r Reporter) emit(eventType, userID, poolID, message string, err error) {
	if r == nil {
		return
	}
	rep := Report{Timestamp: time.Now(), EventType: eventType, UserID: userID, PoolID: poolID, Message: message}
	if err != nil {
		rep.Error = err.Error()
	}
	r <- rep
}

// AdapterFor resolves which AmmAdapter handles a PoolEvent's AMM family.
type AdapterFor func(event domain.PoolEvent) (swapbuild.AmmAdapter, bool)

// Engine wires the store, decision evaluator, swap builder, submission
// pipeline, and lifecycle manager for one pool-stream consumer.
type Engine struct {
	Store     *position.Store
	Lifecycle *lifecycle.Manager
	Pipeline  *submit.Pipeline
	Adapters  AdapterFor
	Reporter  Reporter
}

// HandleEvent normalizes a raw vendor-decoded swap, then processes it
// against every slot registered for its pool, dispatching each user's
// work as an independent goroutine so one slow user cannot block
// another (per the concurrency model).
func (e *Engine) HandleEvent(ctx context.Context, raw poolevent.RawSwap, poolIDOfInterest string) {
	event, err := poolevent.Normalize(raw, poolIDOfInterest)
	if err != nil {
		// InvalidEvent: skip, do not stall the stream.
		return
	}

	adapter, ok := e.Adapters(event)
	if !ok {
		return
	}

	done := make(chan struct{})
	count := 0
	e.Store.ForEachSlotForPool(event.PoolID, func(slot *domain.PositionSlot) {
		count++
		go func(s *domain.PositionSlot) {
			defer func() { done <- struct{}{} }()
			e.processSlot(ctx, adapter, event, s)
		}(slot)
	})
	for i := 0; i < count; i++ {
		<-done
	}
}

func (e *Engine) processSlot(ctx context.Context, adapter swapbuild.AmmAdapter, event domain.PoolEvent, slot *domain.PositionSlot) {
	userID := slot.Config.UserID
	poolID := event.PoolID

	// Confirmation check happens first: a later event may carry the
	// slot's pending_signature regardless of any new price trigger.
	wrappedATA := deriveATA(slot.Config.PublicKey, swapbuild.WrappedNativeMint)
	if delta, matched := submit.Confirm(event, slot, wrappedATA); matched {
		e.applyConfirmation(slot, poolID, delta)
		return
	}

	newPrice := adapter.DerivePrice(event)
	nowMs := time.Now().UnixMilli()

	// Evaluate against the pre-update observed price before committing
	// the new one, so dropPct/pnlPct see an actual transition instead of
	// comparing newPrice against itself.
	trigger := decision.Evaluate(slot, newPrice, nowMs)
	_ = e.Store.ApplyUpdate(poolID, userID, func(s *domain.PositionSlot) {
		s.LastObservedPrice = newPrice
	})
	if trigger == decision.TriggerNone {
		return
	}

	isLong := trigger != decision.TriggerBuy
	ix, err := swapbuild.Build(adapter, event, slot.Config.Strategy, slot.Config.PublicKey, isLong)
	if err != nil {
		return
	}

	if trigger == decision.TriggerBuy {
		_ = e.Store.ApplyUpdate(poolID, userID, func(s *domain.PositionSlot) {
			s.PreparedSwapIx = ix
			s.BoughtPrice = newPrice
			s.BoughtAtMs = nowMs
			s.Phase = domain.PhasePendingBuy
		})
	} else {
		_ = e.Store.ApplyUpdate(poolID, userID, func(s *domain.PositionSlot) {
			s.PreparedSwapIx = ix
			s.Phase = domain.PhasePendingSell
		})
	}

	payer := mustPubkey(slot.Config.PublicKey)
	outcome, sig, err := e.Pipeline.Fire(ctx, slot, payer)
	switch outcome {
	case submit.OutcomeSubmitted:
		_ = e.Store.ApplyUpdate(poolID, userID, func(s *domain.PositionSlot) {
			s.PendingSignature = sig
		})
		e.Reporter.emit("fire", userID, poolID, fmt.Sprintf("%s submitted sig=%s", trigger, sig), nil)
	case submit.OutcomeInsufficientPreparation:
		e.Reporter.emit("error", userID, poolID, "insufficient preparation", err)
	case submit.OutcomeSimulationFailure:
		e.Reporter.emit("error", userID, poolID, "simulation failure", err)
	case submit.OutcomeRelayError:
		e.Reporter.emit("error", userID, poolID, "relay error", err)
	}
}

func (e *Engine) applyConfirmation(slot *domain.PositionSlot, poolID string, delta submit.ConfirmationDelta) {
	userID := slot.Config.UserID
	_ = e.Store.ApplyUpdate(poolID, userID, func(s *domain.PositionSlot) {
		s.IsLong = delta.NowLong
		s.PendingSignature = ""
		s.AccumulatedFeeLamports += delta.AddedFeeLamports
		if delta.NowLong {
			s.LastInputDeltaLamports = delta.InputDelta
			s.Phase = domain.PhaseLong
		} else {
			s.LastOutputDeltaLamports = delta.OutputDelta
			s.LastProfitNative = delta.ProfitNative
			s.LastROIPct = delta.ROIPct
			s.LastDurationMs = delta.DurationMs
			s.Phase = domain.PhaseArmed
		}
	})

	if !delta.NowLong {
		e.Lifecycle.PostExitCleanup(slot, poolID)
		e.Reporter.emit("exit_confirmed", userID, poolID, fmt.Sprintf("roi=%.2f%% profit=%.6f", delta.ROIPct, delta.ProfitNative), nil)
		return
	}
	e.Reporter.emit("entry_confirmed", userID, poolID, "position is now long", nil)
}

func deriveATA(ownerPubkey, mint string) string {
	owner, err1 := solana.PublicKeyFromBase58(ownerPubkey)
	mintKey, err2 := solana.PublicKeyFromBase58(mint)
	if err1 != nil || err2 != nil {
		return ""
	}
	ata, _, err := solana.FindAssociatedTokenAddress(owner, mintKey)
	if err != nil {
		return ""
	}
	return ata.String()
}

func mustPubkey(s string) solana.PublicKey {
	pk, err := solana.PublicKeyFromBase58(s)
	if err != nil {
		log.Printf("engine: invalid public key %q: %v", s, err)
		return solana.PublicKey{}
	}
	return pk
}

// ToJSON serializes a Report, mirroring the teacher's
// StrategyReport.ToJSON contract.
func (r Report) ToJSON() (string, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("engine: marshal report: %w", err)
	}
	return string(b), nil
}

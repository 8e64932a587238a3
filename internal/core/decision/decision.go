// Package decision implements the entry/exit threshold evaluator (C5):
// for each observed price on a slot's pool, decide whether to fire a buy
// or one of the four sell variants.
package decision

import "raysentinel/internal/core/domain"

// Trigger is the decision fired for a slot on one event, or TriggerNone
// when nothing should happen.
type Trigger int

const (
	TriggerNone Trigger = iota
	TriggerBuy
	TriggerSellTakeProfit
	TriggerSellStopLoss
	TriggerSellForced
	TriggerSellTimeout
)

func (t Trigger) String() string {
	switch t {
	case TriggerBuy:
		return "BUY"
	case TriggerSellTakeProfit:
		return "SELL-TP"
	case TriggerSellStopLoss:
		return "SELL-SL"
	case TriggerSellForced:
		return "SELL-FORCED"
	case TriggerSellTimeout:
		return "SELL-TIMEOUT"
	default:
		return "NONE"
	}
}

// frac divides a percentage by 100 exactly once; this is the single place that
// convention is enforced so no call site re-scales a percentage.
func frac(p float64) float64 {
	return p / 100.0
}

// dropPct returns (prev-new)/prev*100, or 0.0 when prev is non-positive.
func dropPct(prev, new float64) float64 {
	if prev <= 0 {
		return 0.0
	}
	return (prev - new) / prev * 100.0
}

// pnlPct returns (new-bought)/bought*100, or 0.0 when bought is non-positive.
func pnlPct(bought, new float64) float64 {
	if bought <= 0 {
		return 0.0
	}
	return (new - bought) / bought * 100.0
}

// Evaluate applies Strategy thresholds to a slot's transition from
// lastObservedPrice to newPrice at time nowMs. It never mutates slot;
// callers apply the returned trigger's side effects (recording
// bought_price/bought_at_ms on BUY is the caller's responsibility, per
// C5.4, so the atomic recording happens at the single commit point in
// the position store).
func Evaluate(slot *domain.PositionSlot, newPrice float64, nowMs int64) Trigger {
	prev := slot.LastObservedPrice

	if !slot.IsLong {
		if slot.PendingSignature != "" {
			// a buy is already in flight; do not re-fire until confirmed.
			return TriggerNone
		}
		// a derived price of 0.0 means a zero reserve; never buy on it.
		if newPrice <= 0 {
			return TriggerNone
		}
		drop := dropPct(prev, newPrice)
		if prev > 0 && drop >= slot.Config.Strategy.EntryPercent {
			return TriggerBuy
		}
		return TriggerNone
	}

	if slot.PendingSignature != "" {
		return TriggerNone
	}

	pnl := pnlPct(slot.BoughtPrice, newPrice)
	strat := slot.Config.Strategy

	takeProfit := pnl >= strat.TakeProfit
	stopLoss := pnl <= -strat.StopLoss
	forced := strat.AutoExitSeconds == 0
	timeout := strat.AutoExitSeconds > 0 && (nowMs-slot.BoughtAtMs) > strat.AutoExitSeconds*1000

	// tie-break: TP -> SL -> FORCED -> TIMEOUT, only one fire per event.
	switch {
	case takeProfit:
		return TriggerSellTakeProfit
	case stopLoss:
		return TriggerSellStopLoss
	case forced:
		return TriggerSellForced
	case timeout:
		return TriggerSellTimeout
	default:
		return TriggerNone
	}
}

// ApplySlippageMinOut mirrors the base-in AMM's slippage formula:
// min_out = 0.997 * (1 - slippagePct/100) * rawOut.
func ApplySlippageMinOut(rawOut uint64, slippagePct float64) uint64 {
	factor := 0.997 * (1 - frac(slippagePct))
	return uint64(float64(rawOut) * factor)
}

// ApplySlippageMaxQuoteIn mirrors the bonding-curve AMM's slippage
// formula for the quote side of a buy: 1.0025 * (1 + slippagePct/100).
func ApplySlippageMaxQuoteIn(rawQuote uint64, slippagePct float64) uint64 {
	factor := 1.0025 * (1 + frac(slippagePct))
	return uint64(float64(rawQuote) * factor)
}

// ApplySlippageMinQuoteOut mirrors the bonding-curve AMM's slippage
// formula for the quote side of a sell: 1.0025 * (1 - slippagePct/100).
func ApplySlippageMinQuoteOut(rawQuote uint64, slippagePct float64) uint64 {
	factor := 1.0025 * (1 - frac(slippagePct))
	return uint64(float64(rawQuote) * factor)
}

package decision

import (
	"testing"

	"raysentinel/internal/core/domain"
)

func baseStrategy() domain.Strategy {
	return domain.Strategy{
		BuySolAmount:    10_000_000,
		EntryPercent:    1.0,
		EntrySlippage:   5.0,
		ExitSlippage:    5.0,
		StopLoss:        5.0,
		TakeProfit:      10.0,
		AutoExitSeconds: 3600,
	}
}

func TestArmAndBuy(t *testing.T) {
	slot := &domain.PositionSlot{
		Config:            domain.UserBotConfig{Strategy: baseStrategy()},
		LastObservedPrice: 100.0,
	}
	trig := Evaluate(slot, 98.5, 0)
	if trig != TriggerBuy {
		t.Fatalf("expected BUY, got %v", trig)
	}
}

func TestTakeProfitBeatsStopLoss(t *testing.T) {
	slot := &domain.PositionSlot{
		Config:      domain.UserBotConfig{Strategy: baseStrategy()},
		IsLong:      true,
		BoughtPrice: 98.5,
	}
	// pnl = (108.5-98.5)/98.5*100 ~= 10.15 >= take_profit(10.0)
	trig := Evaluate(slot, 108.5, 0)
	if trig != TriggerSellTakeProfit {
		t.Fatalf("expected SELL-TP, got %v", trig)
	}
}

func TestStopLoss(t *testing.T) {
	slot := &domain.PositionSlot{
		Config:      domain.UserBotConfig{Strategy: baseStrategy()},
		IsLong:      true,
		BoughtPrice: 98.5,
	}
	trig := Evaluate(slot, 93.0, 0)
	if trig != TriggerSellStopLoss {
		t.Fatalf("expected SELL-SL, got %v", trig)
	}
}

func TestAutoExitTimeout(t *testing.T) {
	strat := baseStrategy()
	strat.AutoExitSeconds = 60
	slot := &domain.PositionSlot{
		Config:      domain.UserBotConfig{Strategy: strat},
		IsLong:      true,
		BoughtPrice: 98.5,
		BoughtAtMs:  0,
	}
	// pnl is near 0, well inside TP/SL band.
	trig := Evaluate(slot, 98.6, 61000)
	if trig != TriggerSellTimeout {
		t.Fatalf("expected SELL-TIMEOUT, got %v", trig)
	}
}

func TestManualStopForcesExitRegardlessOfPrice(t *testing.T) {
	strat := baseStrategy()
	strat.AutoExitSeconds = 0
	slot := &domain.PositionSlot{
		Config:      domain.UserBotConfig{Strategy: strat},
		IsLong:      true,
		BoughtPrice: 98.5,
	}
	trig := Evaluate(slot, 99.0, 0)
	if trig != TriggerSellForced {
		t.Fatalf("expected SELL-FORCED, got %v", trig)
	}
}

func TestZeroReserveEventNeverFiresBuy(t *testing.T) {
	slot := &domain.PositionSlot{
		Config:            domain.UserBotConfig{Strategy: baseStrategy()},
		LastObservedPrice: 100.0,
	}
	trig := Evaluate(slot, 0.0, 0)
	if trig != TriggerNone {
		t.Fatalf("expected no fire on derived price 0.0, got %v", trig)
	}
}

func TestPendingSignatureGuardsAgainstReFire(t *testing.T) {
	slot := &domain.PositionSlot{
		Config:            domain.UserBotConfig{Strategy: baseStrategy()},
		LastObservedPrice: 100.0,
		PendingSignature:  "sig123",
	}
	trig := Evaluate(slot, 50.0, 0)
	if trig != TriggerNone {
		t.Fatalf("expected guard to suppress BUY, got %v", trig)
	}
}

func TestEntryPercentExactlyMetFires(t *testing.T) {
	slot := &domain.PositionSlot{
		Config:            domain.UserBotConfig{Strategy: baseStrategy()},
		LastObservedPrice: 100.0,
	}
	// exactly 1.0% drop
	trig := Evaluate(slot, 99.0, 0)
	if trig != TriggerBuy {
		t.Fatalf("expected BUY on exact threshold (>= semantics), got %v", trig)
	}
}

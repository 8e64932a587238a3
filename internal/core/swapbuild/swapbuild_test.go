package swapbuild

import (
	"testing"

	"raysentinel/internal/core/domain"
)

type fakeEncoder struct{}

func (fakeEncoder) EncodeSwap(accounts Accounts, amountIn, minOut uint64, isBuy bool) (domain.Instruction, error) {
	return domain.Instruction{Label: "swap", Data: []byte{byte(amountIn), byte(minOut)}}, nil
}

func strategy() domain.Strategy {
	return domain.Strategy{BuySolAmount: 10_000_000, EntrySlippage: 5.0, ExitSlippage: 5.0}
}

func event() domain.PoolEvent {
	return domain.PoolEvent{
		TxType:           domain.AmmRaydiumV4SwapBaseIn,
		BaseVault:        "base",
		QuoteVault:       "quote",
		PostReserveBase:  1_000_000_000,
		PostReserveQuote: 1_000_000_000,
	}
}

func TestBuildBuyOrdersAtaThenWrapThenSwap(t *testing.T) {
	adapter := ConstantProductBaseIn{Encoder: fakeEncoder{}}
	ix, err := Build(adapter, event(), strategy(), "user1", false)
	if err != nil {
		t.Fatal(err)
	}
	if len(ix) < 4 {
		t.Fatalf("expected at least 4 instructions, got %d", len(ix))
	}
	if ix[0].Label != "create-idempotent-ata:base" {
		t.Fatalf("expected first ix to be ATA creation, got %s", ix[0].Label)
	}
	if ix[2].Label != "transfer-native-to-wrapped" {
		t.Fatalf("expected wrap after ATA creation, got %s", ix[2].Label)
	}
	last := ix[len(ix)-1]
	if last.Label != "swap" {
		t.Fatalf("expected last ix to be swap on buy leg, got %s", last.Label)
	}
}

func TestBuildSellClosesWrappedAfterSwap(t *testing.T) {
	adapter := ConstantProductBaseIn{Encoder: fakeEncoder{}}
	ix, err := Build(adapter, event(), strategy(), "user1", true)
	if err != nil {
		t.Fatal(err)
	}
	last := ix[len(ix)-1]
	if last.Label != "close-wrapped-native" {
		t.Fatalf("expected sell leg to end with close, got %s", last.Label)
	}
}

func TestBuildRejectsZeroReserves(t *testing.T) {
	adapter := ConstantProductBaseIn{Encoder: fakeEncoder{}}
	ev := event()
	ev.PostReserveBase = 0
	ev.PostReserveQuote = 0
	_, err := Build(adapter, ev, strategy(), "user1", false)
	if err != ErrInvalidReserves {
		t.Fatalf("expected ErrInvalidReserves, got %v", err)
	}
}

func TestBondingCurveBuyAndSell(t *testing.T) {
	adapter := BondingCurveBuySell{Encoder: fakeEncoder{}}
	ev := event()
	ev.TxType = domain.AmmPumpSwapBuy

	ixBuy, err := Build(adapter, ev, strategy(), "user1", false)
	if err != nil {
		t.Fatal(err)
	}
	if ixBuy[len(ixBuy)-1].Label != "swap" {
		t.Fatalf("expected buy leg to end in swap")
	}

	ixSell, err := Build(adapter, ev, strategy(), "user1", true)
	if err != nil {
		t.Fatal(err)
	}
	if ixSell[len(ixSell)-1].Label != "close-wrapped-native" {
		t.Fatalf("expected sell leg to close wrapped native")
	}
}

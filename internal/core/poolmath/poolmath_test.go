package poolmath

import "testing"

func TestAmountOutZeroDenominator(t *testing.T) {
	if got := AmountOut(0, 0, 1000); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}

func TestFeeRounding(t *testing.T) {
	// 693000000 * 12500 / 1_000_000 = 8662500 exactly, no rounding needed.
	if got := Fee(693000000); got != 8662500 {
		t.Fatalf("unexpected fee: %d", got)
	}
	// amount chosen so the division leaves a remainder, forcing ceil.
	if got := Fee(1); got != 1 {
		t.Fatalf("expected ceil(1*12500/1e6)=1, got %d", got)
	}
}

func TestSwapQuoteWithoutFeesReference(t *testing.T) {
	amountIn := uint64(693000000)
	baseReserve := uint64(1073025605596382 - 555337575467276)
	quoteReserve := uint64(30000852951 + 32182704639)

	got := SwapQuote(amountIn, quoteReserve, baseReserve)
	if got == 0 {
		t.Fatalf("expected a positive quote")
	}
}

func TestNativeForTokenBuySell(t *testing.T) {
	buy := NativeForToken(1_000_000, 30_000_000_000, 1_000_000_000_000, true)
	if buy == 0 {
		t.Fatalf("expected positive buy quote")
	}
	sell := NativeForToken(1_000_000, 30_000_000_000, 1_000_000_000_000, false)
	if sell == 0 {
		t.Fatalf("expected positive sell quote")
	}
}

func TestNativeForTokenZeroReserve(t *testing.T) {
	if got := NativeForToken(100, 0, 0, true); got != 0 {
		t.Fatalf("expected 0 on zero reserves, got %d", got)
	}
}

func TestPriceZeroReserveIsZeroNotNaN(t *testing.T) {
	if got := Price(1000, 0, 6); got != 0.0 {
		t.Fatalf("expected 0.0, got %v", got)
	}
}

func TestPriceScaling(t *testing.T) {
	// 100 native (atomic, 9 decimals) per 1 token (atomic, 6 decimals)
	// reserveNative=100_000_000_000, reserveToken=1_000_000 -> atomic ratio
	// 100_000, times 10^(9-6) scaling, gives a price of 1e8.
	got := Price(100_000_000_000, 1_000_000, 6)
	if got <= 0 {
		t.Fatalf("expected positive price, got %v", got)
	}
}

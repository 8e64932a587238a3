// Package poolmath implements the quote math shared by the two AMM
// families this engine trades: Raydium-style constant-product "base-in"
// pools and PumpSwap-style bonding-curve pools.
package poolmath

import "math/big"

const (
	TradeFeeRate      = 2500
	ProtocolFeeRate   = 10000
	FeeRateDenominator = 1_000_000

	NativeDecimals = 9
	defaultTokenDecimals = 6
)

// AmountOut returns amountIn*outputReserve/(inputReserve+amountIn) using
// 128-bit intermediates, guarded against a zero denominator.
func AmountOut(amountIn, inputReserve, outputReserve uint64) uint64 {
	denom := new(big.Int).Add(new(big.Int).SetUint64(inputReserve), new(big.Int).SetUint64(amountIn))
	if denom.Sign() == 0 {
		return 0
	}
	num := new(big.Int).Mul(new(big.Int).SetUint64(amountIn), new(big.Int).SetUint64(outputReserve))
	num.Div(num, denom)
	if !num.IsUint64() {
		return ^uint64(0)
	}
	return num.Uint64()
}

// Fee computes ceil(amount*(tradeFee+protocolFee)/feeRateDenominator).
func Fee(amount uint64) uint64 {
	num := new(big.Int).Mul(new(big.Int).SetUint64(amount), big.NewInt(TradeFeeRate+ProtocolFeeRate))
	denom := big.NewInt(FeeRateDenominator)
	quo, rem := new(big.Int).QuoRem(num, denom, new(big.Int))
	if rem.Sign() != 0 {
		quo.Add(quo, big.NewInt(1))
	}
	if !quo.IsUint64() {
		return ^uint64(0)
	}
	return quo.Uint64()
}

// SwapQuote deducts Fee (trade plus protocol rate) from amountIn, then applies AmountOut
// across the base/quote reserves, mirroring get_swap_quote in the base-in
// family (reserves are base=token, quote=native; the caller picks which
// side is input/output before calling).
func SwapQuote(amountIn, inputReserve, outputReserve uint64) uint64 {
	fee := Fee(amountIn)
	if fee >= amountIn {
		return 0
	}
	return AmountOut(amountIn-fee, inputReserve, outputReserve)
}

// NativeForToken implements the bonding-curve quote used by the PumpSwap
// family. isBuy prices a native-in/token-out leg; otherwise a
// token-in/native-out leg. The off-by-one on the sell side mirrors the
// on-chain program's rounding and must not be "corrected".
func NativeForToken(amount, reserveNative, reserveToken uint64, isBuy bool) uint64 {
	if isBuy {
		denom := reserveNative + amount
		if denom == 0 {
			return 0
		}
		out := new(big.Int).Mul(new(big.Int).SetUint64(reserveToken), new(big.Int).SetUint64(amount))
		out.Div(out, new(big.Int).SetUint64(denom))
		return out.Uint64()
	}
	if reserveNative+amount == 0 {
		return 0
	}
	denom := reserveNative + amount - 1
	if denom == 0 {
		return 0
	}
	out := new(big.Int).Mul(new(big.Int).SetUint64(reserveToken), new(big.Int).SetUint64(amount+1))
	out.Div(out, new(big.Int).SetUint64(denom))
	return out.Uint64()
}

// TokenForNative is the inverse-direction bonding-curve quote
// (token_sol_quote in the source material), supplementing the buy/sell
// pair NativeForToken covers alone.
func TokenForNative(amount, reserveNative, reserveToken uint64, isBuy bool) uint64 {
	var denom uint64
	if isBuy {
		if reserveToken <= amount {
			return 0
		}
		denom = reserveToken - amount
	} else {
		denom = reserveToken + amount
	}
	if denom == 0 {
		return 0
	}
	out := new(big.Int).Mul(new(big.Int).SetUint64(amount), new(big.Int).SetUint64(reserveNative))
	out.Div(out, new(big.Int).SetUint64(denom))
	return out.Uint64()
}

// Price converts atomic reserves into native-units-per-token, scaled by
// 10^(NativeDecimals-tokenDecimals), guarding the zero-reserve case so the
// decision engine never observes NaN/Inf.
func Price(reserveNative, reserveToken uint64, tokenDecimals int) float64 {
	if reserveToken == 0 {
		return 0.0
	}
	if tokenDecimals <= 0 {
		tokenDecimals = defaultTokenDecimals
	}
	scale := pow10(NativeDecimals - tokenDecimals)
	return float64(reserveNative) / float64(reserveToken) * scale
}

func pow10(exp int) float64 {
	v := 1.0
	if exp >= 0 {
		for i := 0; i < exp; i++ {
			v *= 10
		}
		return v
	}
	for i := 0; i < -exp; i++ {
		v /= 10
	}
	return v
}

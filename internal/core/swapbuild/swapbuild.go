// Package swapbuild assembles the ordered instruction list for a buy or
// sell leg (C2), across the two AMM families the engine trades. The
// actual on-chain wire encoding of a swap instruction is an external
// collaborator (AmmInstructionEncoder below); this package owns the
// *policy* — which instructions, in what order, with what amounts.
package swapbuild

import (
	"errors"

	"raysentinel/internal/core/decision"
	"raysentinel/internal/core/domain"
	"raysentinel/internal/core/poolmath"
)

// ErrInvalidReserves is returned when a reserve parse failure or
// non-positive denominator would make the rebuild meaningless; the
// caller must leave PreparedSwapIx untouched.
var ErrInvalidReserves = errors.New("swapbuild: invalid reserves")

const WrappedNativeMint = "So11111111111111111111111111111111111111112"

// AmmInstructionEncoder produces the opaque, program-specific swap
// instruction for one leg. It is the pure-function boundary spec.md
// treats as an external collaborator.
type AmmInstructionEncoder interface {
	EncodeSwap(accounts Accounts, amountIn, minOut uint64, isBuy bool) (domain.Instruction, error)
}

// Accounts carries the role accounts C3 located, rearranged around the
// acting user's own public key rather than the original tx signer.
type Accounts struct {
	UserPubkey  string
	BaseMint    string
	QuoteMint   string
	BaseVault   string
	QuoteVault  string
	Authority   string
	UserBaseATA string
	UserQuoteATA string
}

// AmmAdapter is the capability set the design notes call for: each AMM
// family implements account arrangement, buy/sell assembly, price
// derivation, and a role check that keeps the two processors
// partitioned.
type AmmAdapter interface {
	ArrangeAccounts(event domain.PoolEvent, userPubkey string) (Accounts, error)
	BuildBuy(accounts Accounts, event domain.PoolEvent, strat domain.Strategy) ([]domain.Instruction, error)
	BuildSell(accounts Accounts, event domain.PoolEvent, strat domain.Strategy) ([]domain.Instruction, error)
	DerivePrice(event domain.PoolEvent) float64
	RoleCheck(event domain.PoolEvent) bool
}

func createIdempotentATA(label, owner, mint string) domain.Instruction {
	return domain.Instruction{Label: "create-idempotent-ata:" + label, Data: []byte(owner + ":" + mint)}
}

func wrapNative(amount uint64) []domain.Instruction {
	return []domain.Instruction{
		{Label: "transfer-native-to-wrapped", Data: encodeAmount(amount)},
		{Label: "sync-native"},
	}
}

func closeWrapped() domain.Instruction {
	return domain.Instruction{Label: "close-wrapped-native"}
}

func encodeAmount(amount uint64) []byte {
	b := make([]byte, 8)
	for i := 0; i < 8; i++ {
		b[i] = byte(amount >> (8 * i))
	}
	return b
}

// ConstantProductBaseIn implements Raydium-V4-style base-in swaps.
type ConstantProductBaseIn struct {
	Encoder AmmInstructionEncoder
}

func (c ConstantProductBaseIn) RoleCheck(event domain.PoolEvent) bool {
	return event.TxType == domain.AmmRaydiumV4SwapBaseIn
}

func (c ConstantProductBaseIn) ArrangeAccounts(event domain.PoolEvent, userPubkey string) (Accounts, error) {
	if event.BaseVault == "" || event.QuoteVault == "" {
		return Accounts{}, ErrInvalidReserves
	}
	return Accounts{
		UserPubkey: userPubkey,
		BaseVault:  event.BaseVault,
		QuoteVault: event.QuoteVault,
		Authority:  event.Authority,
	}, nil
}

func (c ConstantProductBaseIn) DerivePrice(event domain.PoolEvent) float64 {
	return poolmath.Price(event.PostReserveQuote, event.PostReserveBase, decimalsOf(event))
}

func decimalsOf(event domain.PoolEvent) int {
	for _, b := range event.TokenBalances {
		if b.Mint != WrappedNativeMint && b.Decimals > 0 {
			return b.Decimals
		}
	}
	return 6
}

func (c ConstantProductBaseIn) buildLeg(accounts Accounts, event domain.PoolEvent, strat domain.Strategy, isBuy bool) ([]domain.Instruction, error) {
	if event.PostReserveBase == 0 && event.PostReserveQuote == 0 {
		return nil, ErrInvalidReserves
	}

	var ix []domain.Instruction
	ix = append(ix, createIdempotentATA("base", accounts.UserPubkey, accounts.BaseMint))
	ix = append(ix, createIdempotentATA("quote", accounts.UserPubkey, accounts.QuoteMint))

	amountIn := strat.BuySolAmount
	var inputReserve, outputReserve uint64
	var slippagePct float64
	if isBuy {
		inputReserve, outputReserve = event.PostReserveQuote, event.PostReserveBase
		slippagePct = strat.EntrySlippage
		wrapAmount := uint64(float64(amountIn) * 1.1)
		ix = append(ix, wrapNative(wrapAmount)...)
	} else {
		inputReserve, outputReserve = event.PostReserveBase, event.PostReserveQuote
		slippagePct = strat.ExitSlippage
	}

	rawOut := poolmath.SwapQuote(amountIn, inputReserve, outputReserve)
	if rawOut == 0 {
		return nil, ErrInvalidReserves
	}
	minOut := decision.ApplySlippageMinOut(rawOut, slippagePct)

	swapIx, err := c.Encoder.EncodeSwap(accounts, amountIn, minOut, isBuy)
	if err != nil {
		return nil, err
	}
	ix = append(ix, swapIx)

	if !isBuy {
		ix = append(ix, closeWrapped())
	}
	return ix, nil
}

func (c ConstantProductBaseIn) BuildBuy(accounts Accounts, event domain.PoolEvent, strat domain.Strategy) ([]domain.Instruction, error) {
	return c.buildLeg(accounts, event, strat, true)
}

func (c ConstantProductBaseIn) BuildSell(accounts Accounts, event domain.PoolEvent, strat domain.Strategy) ([]domain.Instruction, error) {
	return c.buildLeg(accounts, event, strat, false)
}

// BondingCurveBuySell implements the PumpSwap-style buy/sell AMM.
type BondingCurveBuySell struct {
	Encoder AmmInstructionEncoder
}

func (b BondingCurveBuySell) RoleCheck(event domain.PoolEvent) bool {
	return event.TxType == domain.AmmPumpSwapBuy || event.TxType == domain.AmmPumpSwapSell
}

func (b BondingCurveBuySell) ArrangeAccounts(event domain.PoolEvent, userPubkey string) (Accounts, error) {
	if event.BaseVault == "" || event.QuoteVault == "" {
		return Accounts{}, ErrInvalidReserves
	}
	return Accounts{
		UserPubkey: userPubkey,
		BaseVault:  event.BaseVault,
		QuoteVault: event.QuoteVault,
		Authority:  event.Authority,
	}, nil
}

func (b BondingCurveBuySell) DerivePrice(event domain.PoolEvent) float64 {
	return poolmath.Price(event.PostReserveQuote, event.PostReserveBase, decimalsOf(event))
}

func (b BondingCurveBuySell) buildLeg(accounts Accounts, event domain.PoolEvent, strat domain.Strategy, isBuy bool) ([]domain.Instruction, error) {
	if event.PostReserveQuote == 0 && event.PostReserveBase == 0 {
		return nil, ErrInvalidReserves
	}

	var ix []domain.Instruction
	ix = append(ix, createIdempotentATA("base", accounts.UserPubkey, accounts.BaseMint))
	ix = append(ix, createIdempotentATA("quote", accounts.UserPubkey, accounts.QuoteMint))

	amountIn := strat.BuySolAmount
	var slippagePct float64
	var quoteAmount uint64
	if isBuy {
		slippagePct = strat.EntrySlippage
		quoteAmount = poolmath.NativeForToken(amountIn, event.PostReserveQuote, event.PostReserveBase, true)
		if quoteAmount == 0 {
			return nil, ErrInvalidReserves
		}
		wrapAmount := decision.ApplySlippageMaxQuoteIn(amountIn, slippagePct)
		ix = append(ix, wrapNative(wrapAmount)...)
	} else {
		slippagePct = strat.ExitSlippage
		quoteAmount = poolmath.NativeForToken(amountIn, event.PostReserveQuote, event.PostReserveBase, false)
		if quoteAmount == 0 {
			return nil, ErrInvalidReserves
		}
	}

	minOrMaxQuote := quoteAmount
	if isBuy {
		minOrMaxQuote = decision.ApplySlippageMaxQuoteIn(quoteAmount, slippagePct)
	} else {
		minOrMaxQuote = decision.ApplySlippageMinQuoteOut(quoteAmount, slippagePct)
	}

	swapIx, err := b.Encoder.EncodeSwap(accounts, amountIn, minOrMaxQuote, isBuy)
	if err != nil {
		return nil, err
	}
	ix = append(ix, swapIx)

	if !isBuy {
		ix = append(ix, closeWrapped())
	}
	return ix, nil
}

func (b BondingCurveBuySell) BuildBuy(accounts Accounts, event domain.PoolEvent, strat domain.Strategy) ([]domain.Instruction, error) {
	return b.buildLeg(accounts, event, strat, true)
}

func (b BondingCurveBuySell) BuildSell(accounts Accounts, event domain.PoolEvent, strat domain.Strategy) ([]domain.Instruction, error) {
	return b.buildLeg(accounts, event, strat, false)
}

// Build produces the ordered instruction list for the current leg
// (buy if not long, sell if long), overwriting any earlier preparation
// only on success — callers must not mutate PreparedSwapIx on error.
func Build(adapter AmmAdapter, event domain.PoolEvent, strat domain.Strategy, userPubkey string, isLong bool) ([]domain.Instruction, error) {
	accounts, err := adapter.ArrangeAccounts(event, userPubkey)
	if err != nil {
		return nil, err
	}
	if isLong {
		return adapter.BuildSell(accounts, event, strat)
	}
	return adapter.BuildBuy(accounts, event, strat)
}

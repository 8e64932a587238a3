// Package poolevent normalizes vendor-decoded swap instructions and
// transaction metadata into the domain.PoolEvent DTO (C3), so the core
// never depends on the chain-stream decode library's types.
package poolevent

import (
	"errors"

	"raysentinel/internal/core/domain"
)

// ErrInvalidEvent is returned when required role accounts or balances
// are missing; callers skip the event without mutating any slot.
var ErrInvalidEvent = errors.New("poolevent: invalid event")

const defaultTokenDecimals = 6

// RawSwap is what the (external) chain-stream subscriber is assumed to
// hand this adapter: a decoded AMM instruction plus the transaction's
// account keys and pre/post balance metadata. The instruction decode
// itself (borsh layout, discriminator matching) is the vendor decoder's
// job, not this package's.
type RawSwap struct {
	Signature   string
	FeeLamports uint64
	AccountKeys []string
	ProgramID   string
	Kind        domain.AmmKind

	PoolID     string
	BaseVault  string
	QuoteVault string
	Authority  string

	PreNativeLamports  uint64
	PostNativeLamports uint64

	PreReserveBase  uint64
	PostReserveBase uint64

	PreReserveQuote  uint64
	PostReserveQuote uint64

	TokenBalances []domain.TokenBalance
}

// wantedKindsByProgramRole lists the AMM kinds Normalize accepts; an
// event of any other kind is dropped. RawSwap.ProgramID is not checked
// against the kind.
var wantedKindsByProgramRole = map[domain.AmmKind]bool{
	domain.AmmRaydiumV4SwapBaseIn: true,
	domain.AmmPumpSwapBuy:         true,
	domain.AmmPumpSwapSell:        true,
}

// Normalize converts a RawSwap into a domain.PoolEvent, filtering events
// that don't involve poolID of interest or that belong to the wrong AMM
// family, and filling in a fallback token-decimals when balance metadata
// omits it.
func Normalize(raw RawSwap, poolIDOfInterest string) (domain.PoolEvent, error) {
	if raw.PoolID == "" || raw.BaseVault == "" || raw.QuoteVault == "" {
		return domain.PoolEvent{}, ErrInvalidEvent
	}
	if !wantedKindsByProgramRole[raw.Kind] {
		return domain.PoolEvent{}, ErrInvalidEvent
	}
	if poolIDOfInterest != "" && raw.PoolID != poolIDOfInterest {
		return domain.PoolEvent{}, ErrInvalidEvent
	}

	balances := make([]domain.TokenBalance, len(raw.TokenBalances))
	for i, b := range raw.TokenBalances {
		if b.Decimals == 0 {
			b.Decimals = defaultTokenDecimals
		}
		balances[i] = b
	}

	return domain.PoolEvent{
		Signature:          raw.Signature,
		FeeLamports:        raw.FeeLamports,
		AccountKeys:        raw.AccountKeys,
		TxType:             raw.Kind,
		PoolID:             raw.PoolID,
		PreNativeLamports:  raw.PreNativeLamports,
		PostNativeLamports: raw.PostNativeLamports,
		PreReserveBase:     raw.PreReserveBase,
		PostReserveBase:    raw.PostReserveBase,
		PreReserveQuote:    raw.PreReserveQuote,
		PostReserveQuote:   raw.PostReserveQuote,
		TokenBalances:      balances,
		BaseVault:          raw.BaseVault,
		QuoteVault:         raw.QuoteVault,
		Authority:          raw.Authority,
	}, nil
}

// FindTokenBalance locates the token balance entry for a given owner and
// mint, as C6 needs to when looking up the wrapped-native ATA's
// pre/post balance by account key match.
func FindTokenBalance(event domain.PoolEvent, owner, mint string) (domain.TokenBalance, bool) {
	for _, b := range event.TokenBalances {
		if b.Owner == owner && b.Mint == mint {
			return b, true
		}
	}
	return domain.TokenBalance{}, false
}

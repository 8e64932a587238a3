// Package domain holds the shared entities that flow between the
// engine's components (C1-C7): configuration, per-user position state,
// decoded pool events, and persisted trade outcomes.
package domain

import "time"

// AmmKind distinguishes the two AMM families the engine trades.
type AmmKind int

const (
	AmmUnknown AmmKind = iota
	AmmRaydiumV4SwapBaseIn
	AmmPumpSwapBuy
	AmmPumpSwapSell
	AmmOther
)

func (k AmmKind) String() string {
	switch k {
	case AmmRaydiumV4SwapBaseIn:
		return "RaydiumV4_SwapBaseIn"
	case AmmPumpSwapBuy:
		return "PumpSwap_Buy"
	case AmmPumpSwapSell:
		return "PumpSwap_Sell"
	case AmmOther:
		return "Other"
	default:
		return "Unknown"
	}
}

// ConfirmService names the relay a Strategy submits through.
type ConfirmService string

const (
	ConfirmServiceJito      ConfirmService = "JITO"
	ConfirmServiceNozomi    ConfirmService = "NOZOMI"
	ConfirmServiceZeroSlot  ConfirmService = "ZSLOT"
)

// Strategy is the per-user trading configuration for one pool.
type Strategy struct {
	BuySolAmount    uint64 // native units (lamports)
	EntryPercent    float64
	EntrySlippage   float64
	ExitSlippage    float64
	StopLoss        float64
	TakeProfit      float64
	AutoExitSeconds int64
	ConfirmService  ConfirmService
	ComputeUnits    uint32
	PriorityFeeMicroLamports uint64
	RelayTipLamports         uint64
}

// UserBotConfig is immutable for the lifetime of an activation.
type UserBotConfig struct {
	UserID     string
	PrivateKey []byte // ed25519 seed, held only in memory
	PublicKey  string // base58
	PoolID     string
	Strategy   Strategy
}

// Phase names which stage of the buy/sell lifecycle a slot is in. It
// replaces inferring intent from "!is_long after toggling", which is
// fragile under out-of-order events.
type Phase int

const (
	PhaseArmed Phase = iota
	PhasePendingBuy
	PhaseLong
	PhasePendingSell
)

func (p Phase) String() string {
	switch p {
	case PhaseArmed:
		return "Armed"
	case PhasePendingBuy:
		return "PendingBuy"
	case PhaseLong:
		return "Long"
	case PhasePendingSell:
		return "PendingSell"
	default:
		return "Unknown"
	}
}

// PositionSlot is the mutable per-(pool_id,user_id) state the decision
// engine and submission pipeline operate on.
type PositionSlot struct {
	Config UserBotConfig

	Phase Phase

	LastObservedPrice float64
	LastTriggerPrice  float64

	PreparedSwapIx []Instruction

	IsLong bool

	BoughtPrice float64
	BoughtAtMs  int64

	InitialWrappedBalance uint64

	PendingSignature string

	ArmTimeMs int64

	LastInputDeltaLamports  int64
	LastOutputDeltaLamports int64
	LastProfitNative        float64
	LastROIPct              float64
	LastDurationMs          int64

	AccumulatedFeeLamports uint64
}

// Instruction is an opaque instruction blob; the actual on-chain
// encoding (Raydium/PumpSwap instruction builders) is an external
// collaborator this engine never decodes, only sequences.
type Instruction struct {
	ProgramID string
	Data      []byte
	Label     string // human-readable step name, e.g. "create-idempotent-ata"
}

// TokenBalance is a pre/post snapshot of one token account observed in a
// transaction, keyed by owner+mint so C3 can locate vault/ATA balances.
type TokenBalance struct {
	AccountIndex int
	Owner        string
	Mint         string
	Decimals     int
	PreAmount    uint64
	PostAmount   uint64
}

// PoolEvent is one decoded swap seen on-chain, normalized by C3 so the
// core never depends on the vendor decode library's types.
type PoolEvent struct {
	Signature    string
	FeeLamports  uint64
	AccountKeys  []string
	TxType       AmmKind
	PoolID       string

	PreNativeLamports  uint64
	PostNativeLamports uint64

	PreReserveBase  uint64
	PostReserveBase uint64

	PreReserveQuote  uint64
	PostReserveQuote uint64

	TokenBalances []TokenBalance

	BaseVault  string
	QuoteVault string
	Authority  string
}

// TradeRecord is the realized outcome of a completed round-trip,
// handed to the persistence repository (external collaborator).
type TradeRecord struct {
	UserID      string
	Timestamp   time.Time
	ProfitNative float64
	FeesAtomic  int64
	FeesNative  float64
	ROIPct      float64
	DurationMs  int64
}

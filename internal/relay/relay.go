// Package relay wraps the MEV-aware submission paths (JITO, NOZOMI,
// ZSLOT) behind one Client interface: add_tip/submit, per spec.md's
// external relay interface. Only the transport is concrete here; the
// relay programs themselves remain external services.
package relay

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	computebudget "github.com/gagliardetto/solana-go/programs/compute-budget"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/rpc"

	"raysentinel/internal/core/domain"
)

// TipParams mirrors spec.md's relay interface params.
type TipParams struct {
	ComputeUnits              uint32
	PriorityFeeMicroLamports  uint64
	Payer                     solana.PublicKey
	TipIndex                  int
	TipNativeAmountLamports   uint64
}

// Client is the relay boundary: add a tip/fee bundle, then submit a
// signed, base64-encoded transaction.
type Client interface {
	AddTip(params TipParams) ([]solana.Instruction, error)
	Submit(ctx context.Context, signedTxBase64 string) (string, error)
}

// tipAccounts is indexed per spec's "tip_index chosen per relay";
// JITO uses index 4, NOZOMI and ZSLOT use index 1, mirroring the
// account-list layout the original bot's relay clients carried.
var tipAccounts = map[domain.ConfirmService][]solana.PublicKey{
	domain.ConfirmServiceJito: {
		solana.MustPublicKeyFromBase58("96gYZGLnJYVFmbjzopPSU6QiEV5fGqZNyN9nmNhvrZU5"),
		solana.MustPublicKeyFromBase58("HFqU5x63VTqvQss8hp11i4wVV8EA7nFQnrQcF7kfD9Y1"),
		solana.MustPublicKeyFromBase58("Cw8CFyM9FkoMi7K7Crf6HNQqf4uEMzpKw6QNghXLvLkY"),
		solana.MustPublicKeyFromBase58("ADaUMid9yfUytqMBgopwjb2DTLSokTSzL1zt6iGPaS49"),
		solana.MustPublicKeyFromBase58("DfXygSm4jCyNCybVYYK6DwvWqjKee8pbDmJGcLWNDXjh"),
	},
	domain.ConfirmServiceNozomi: {
		solana.MustPublicKeyFromBase58("TEMPaMeCRFAS9EKF53Jd6KpHxgL47uWLcpFArU1Fanq"),
		solana.MustPublicKeyFromBase58("noz3jAjPiHuBPqiSPkkugaJDkJscPuRhYnSpbi8UvC4"),
	},
	domain.ConfirmServiceZeroSlot: {
		solana.MustPublicKeyFromBase58("6fQaVhYZA4w3MBSXjJ81Vf6W1EDYeUPXpgVQ6UQyU1Av"),
		solana.MustPublicKeyFromBase58("4HiwLEP2Bzqj3hM2ENxJuzhcPCdsafwiet3oGkMkuQY4"),
	},
}

// BuildTipBundle prepends compute-unit budget and priority-fee
// instructions, then appends a native-token transfer to one of the
// service's fixed tip accounts, per C6.2.
func BuildTipBundle(service domain.ConfirmService, params TipParams) ([]solana.Instruction, error) {
	accounts, ok := tipAccounts[service]
	if !ok || len(accounts) == 0 {
		return nil, fmt.Errorf("relay: unknown confirm service %q", service)
	}
	idx := params.TipIndex
	if idx < 0 || idx >= len(accounts) {
		idx = 0
	}
	tipAccount := accounts[idx]

	cuLimitIx, err := computebudget.NewSetComputeUnitLimitInstruction(params.ComputeUnits).ValidateAndBuild()
	if err != nil {
		return nil, fmt.Errorf("relay: build compute unit limit: %w", err)
	}
	cuPriceIx, err := computebudget.NewSetComputeUnitPriceInstruction(params.PriorityFeeMicroLamports).ValidateAndBuild()
	if err != nil {
		return nil, fmt.Errorf("relay: build compute unit price: %w", err)
	}
	tipIx, err := system.NewTransferInstruction(params.TipNativeAmountLamports, params.Payer, tipAccount).ValidateAndBuild()
	if err != nil {
		return nil, fmt.Errorf("relay: build tip transfer: %w", err)
	}

	return []solana.Instruction{cuLimitIx, cuPriceIx, tipIx}, nil
}

type baseClient struct {
	service domain.ConfirmService
	rpcCli  *rpc.Client
}

func (c baseClient) AddTip(params TipParams) ([]solana.Instruction, error) {
	return BuildTipBundle(c.service, params)
}

func (c baseClient) Submit(ctx context.Context, signedTxBase64 string) (string, error) {
	sig, err := c.rpcCli.SendEncodedTransactionWithOpts(ctx, signedTxBase64, rpc.TransactionOpts{
		SkipPreflight: true,
	})
	if err != nil {
		return "", fmt.Errorf("%s: submit: %w", c.service, err)
	}
	return sig.String(), nil
}

// NewJitoClient, NewNozomiClient, and NewZeroSlotClient each target a
// distinct relay endpoint; the transport is a JSON-RPC sender shared
// with the RPC client, since every relay here exposes a
// sendTransaction-compatible endpoint.
func NewJitoClient(endpoint string) Client {
	return baseClient{service: domain.ConfirmServiceJito, rpcCli: rpc.New(endpoint)}
}

func NewNozomiClient(endpoint string) Client {
	return baseClient{service: domain.ConfirmServiceNozomi, rpcCli: rpc.New(endpoint)}
}

func NewZeroSlotClient(endpoint string) Client {
	return baseClient{service: domain.ConfirmServiceZeroSlot, rpcCli: rpc.New(endpoint)}
}

// ForService resolves a Strategy's confirm_service tag to a concrete
// client, constructed with the matching endpoint from configuration.
func ForService(service domain.ConfirmService, endpoint string) (Client, error) {
	switch service {
	case domain.ConfirmServiceJito:
		return NewJitoClient(endpoint), nil
	case domain.ConfirmServiceNozomi:
		return NewNozomiClient(endpoint), nil
	case domain.ConfirmServiceZeroSlot:
		return NewZeroSlotClient(endpoint), nil
	default:
		return nil, fmt.Errorf("relay: unsupported confirm service %q", service)
	}
}

// Package txbuild implements submit.Compiler: it turns the ordered
// domain.Instruction list C2 assembled, plus C6's tip bundle, into a
// signed, base64-encoded Solana transaction ready for relay submission.
package txbuild

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"raysentinel/internal/core/domain"
)

// Compiler turns domain.Instruction (the opaque, program-specific
// instructions an AmmInstructionEncoder produced) and a tip bundle into
// a signed solana.Transaction, using the latest cached blockhash and
// the slot's own keypair.
type Compiler struct{}

// Compile builds one transaction carrying the tip/compute-budget bundle
// first, then the swap instructions, signs it with privateKey, and
// returns both the parsed transaction (for simulation) and its
// base64-encoded wire form (for relay submission).
func (Compiler) Compile(ctx context.Context, instructions []domain.Instruction, tipIx []solana.Instruction, blockhash solana.Hash, payer solana.PublicKey, privateKey []byte) (*solana.Transaction, string, error) {
	if len(privateKey) != 64 {
		return nil, "", fmt.Errorf("txbuild: private key must be a 64-byte ed25519 keypair, got %d bytes", len(privateKey))
	}
	priv := solana.PrivateKey(privateKey)

	all := make([]solana.Instruction, 0, len(instructions)+len(tipIx))
	all = append(all, tipIx...)
	for _, ix := range instructions {
		converted, err := toSolanaInstruction(ix)
		if err != nil {
			return nil, "", err
		}
		all = append(all, converted)
	}

	tx, err := solana.NewTransaction(all, blockhash, solana.TransactionPayer(payer))
	if err != nil {
		return nil, "", fmt.Errorf("txbuild: build transaction: %w", err)
	}

	if _, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(payer) {
			return &priv
		}
		return nil
	}); err != nil {
		return nil, "", fmt.Errorf("txbuild: sign transaction: %w", err)
	}

	wire, err := tx.MarshalBinary()
	if err != nil {
		return nil, "", fmt.Errorf("txbuild: marshal transaction: %w", err)
	}

	return tx, base64.StdEncoding.EncodeToString(wire), nil
}

// toSolanaInstruction wraps a domain.Instruction's opaque program id and
// payload into the library's generic Instruction type. The account-meta
// list the on-chain program actually needs is the encoder's
// responsibility (AmmInstructionEncoder.EncodeSwap) and is expected to
// already be folded into Data by the time it reaches this boundary for
// any instruction carrying a concrete program id.
func toSolanaInstruction(ix domain.Instruction) (solana.Instruction, error) {
	if ix.ProgramID == "" {
		return solana.NewInstruction(solana.SystemProgramID, solana.AccountMetaSlice{}, ix.Data), nil
	}
	programID, err := solana.PublicKeyFromBase58(ix.ProgramID)
	if err != nil {
		return nil, fmt.Errorf("txbuild: invalid program id %q for instruction %q: %w", ix.ProgramID, ix.Label, err)
	}
	return solana.NewInstruction(programID, solana.AccountMetaSlice{}, ix.Data), nil
}

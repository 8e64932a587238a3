package submit

import (
	"context"
	"testing"

	"github.com/gagliardetto/solana-go"

	"raysentinel/internal/core/domain"
	"raysentinel/internal/relay"
	"raysentinel/internal/rpcclient"
)

type fakeRelay struct {
	submitSig string
	submitErr error
}

func (f fakeRelay) AddTip(params relay.TipParams) ([]solana.Instruction, error) {
	return nil, nil
}

func (f fakeRelay) Submit(ctx context.Context, signedTxBase64 string) (string, error) {
	return f.submitSig, f.submitErr
}

type fakeBlockhash struct{}

func (fakeBlockhash) LatestBlockhash() (solana.Hash, error) {
	return solana.Hash{}, nil
}

type fakeSim struct {
	result rpcclient.SimulationResult
	err    error
}

func (f fakeSim) SimulateTransaction(ctx context.Context, tx *solana.Transaction) (rpcclient.SimulationResult, error) {
	return f.result, f.err
}

type fakeCompiler struct{}

func (fakeCompiler) Compile(ctx context.Context, instructions []domain.Instruction, tipIx []solana.Instruction, blockhash solana.Hash, payer solana.PublicKey, privateKey []byte) (*solana.Transaction, string, error) {
	return &solana.Transaction{}, "base64tx", nil
}

func testSlot() *domain.PositionSlot {
	return &domain.PositionSlot{
		Config: domain.UserBotConfig{
			UserID:   "alice",
			Strategy: domain.Strategy{ConfirmService: domain.ConfirmServiceJito},
		},
		PreparedSwapIx: []domain.Instruction{{Label: "swap"}},
	}
}

func TestFireRejectsEmptyPreparation(t *testing.T) {
	p := &Pipeline{
		Blockhash: fakeBlockhash{},
		Sim:       fakeSim{},
		Compiler:  fakeCompiler{},
		Relays:    map[domain.ConfirmService]relay.Client{domain.ConfirmServiceJito: fakeRelay{}},
	}
	slot := testSlot()
	slot.PreparedSwapIx = nil

	outcome, _, err := p.Fire(context.Background(), slot, solana.PublicKey{})
	if outcome != OutcomeInsufficientPreparation || err == nil {
		t.Fatalf("expected InsufficientPreparation outcome, got %v err=%v", outcome, err)
	}
}

func TestFireSucceeds(t *testing.T) {
	p := &Pipeline{
		Blockhash: fakeBlockhash{},
		Sim:       fakeSim{result: rpcclient.SimulationResult{}},
		Compiler:  fakeCompiler{},
		Relays:    map[domain.ConfirmService]relay.Client{domain.ConfirmServiceJito: fakeRelay{submitSig: "sig123"}},
	}
	outcome, sig, err := p.Fire(context.Background(), testSlot(), solana.PublicKey{})
	if err != nil {
		t.Fatal(err)
	}
	if outcome != OutcomeSubmitted || sig != "sig123" {
		t.Fatalf("expected submitted/sig123, got %v/%s", outcome, sig)
	}
}

func TestFireAbortsOnSimulationError(t *testing.T) {
	p := &Pipeline{
		Blockhash: fakeBlockhash{},
		Sim:       fakeSim{result: rpcclient.SimulationResult{Err: errSimFailed}},
		Compiler:  fakeCompiler{},
		Relays:    map[domain.ConfirmService]relay.Client{domain.ConfirmServiceJito: fakeRelay{}},
	}
	outcome, _, err := p.Fire(context.Background(), testSlot(), solana.PublicKey{})
	if outcome != OutcomeSimulationFailure || err == nil {
		t.Fatalf("expected SimulationFailure outcome, got %v err=%v", outcome, err)
	}
}

var errSimFailed = &simErr{}

type simErr struct{}

func (*simErr) Error() string { return "simulated failure" }

func TestConfirmBuyTransition(t *testing.T) {
	slot := testSlot()
	slot.PendingSignature = "sig1"
	slot.IsLong = false

	event := domain.PoolEvent{
		Signature: "sig1",
		TokenBalances: []domain.TokenBalance{
			{Owner: "ata1", Mint: swapbuildWrappedNativeMint, PreAmount: 1_000_000_000, PostAmount: 989_000_000},
		},
	}

	delta, ok := Confirm(event, slot, "ata1")
	if !ok {
		t.Fatal("expected match")
	}
	if !delta.NowLong {
		t.Fatalf("expected transition to long")
	}
	if delta.InputDelta != 11_000_000 {
		t.Fatalf("unexpected input delta: %d", delta.InputDelta)
	}
}

func TestConfirmIgnoresNonMatchingSignature(t *testing.T) {
	slot := testSlot()
	slot.PendingSignature = "sig1"

	event := domain.PoolEvent{Signature: "other"}
	_, ok := Confirm(event, slot, "ata1")
	if ok {
		t.Fatal("expected no match")
	}
}

package ingest

import (
	"context"
	"testing"

	"raysentinel/internal/core/domain"
	"raysentinel/internal/core/poolevent"
)

func TestFakeSourceDeliversPushedEvents(t *testing.T) {
	src := NewFakeSource(4)
	events, err := src.Start(context.Background(), "pool1")
	if err != nil {
		t.Fatal(err)
	}

	src.Push(poolevent.RawSwap{PoolID: "pool1", Kind: domain.AmmRaydiumV4SwapBaseIn})

	select {
	case raw := <-events:
		if raw.PoolID != "pool1" {
			t.Fatalf("unexpected pool id: %s", raw.PoolID)
		}
	default:
		t.Fatal("expected an event to be available")
	}
}

func TestFakeSourceStopClosesChannel(t *testing.T) {
	src := NewFakeSource(1)
	events, err := src.Start(context.Background(), "pool1")
	if err != nil {
		t.Fatal(err)
	}

	if err := src.Stop(); err != nil {
		t.Fatal(err)
	}

	if _, ok := <-events; ok {
		t.Fatal("expected channel to be closed")
	}
}

func TestFakeSourceStopIsIdempotent(t *testing.T) {
	src := NewFakeSource(1)
	_, _ = src.Start(context.Background(), "pool1")

	if err := src.Stop(); err != nil {
		t.Fatal(err)
	}
	if err := src.Stop(); err != nil {
		t.Fatal(err)
	}
}

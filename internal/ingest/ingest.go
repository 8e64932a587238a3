// Package ingest shapes the chain-stream subscription boundary: a
// thin adapter between the vendor decode library and the engine,
// mirroring the teacher's pkg/txlistener role in blackhole.go (a
// TxListener field the core logic reads from, never dials itself).
package ingest

import (
	"context"

	"raysentinel/internal/core/poolevent"
)

// Source is the minimal shape a yellowstone-style gRPC geyser
// subscription is assumed to satisfy: Start begins streaming decoded
// swaps for one pool onto Events, Stop tears the subscription down.
// The concrete vendor client (out of scope) lives behind this
// interface so the engine never imports a geyser SDK directly.
type Source interface {
	Start(ctx context.Context, poolID string) (<-chan poolevent.RawSwap, error)
	Stop() error
}

// FakeSource is an in-memory Source used by tests and by
// cmd/raysentinel when no live geyser endpoint is configured, so the
// binary stays runnable without a network dependency.
type FakeSource struct {
	events chan poolevent.RawSwap
	closed bool
}

// NewFakeSource returns a FakeSource with the given channel buffer size.
func NewFakeSource(buffer int) *FakeSource {
	return &FakeSource{events: make(chan poolevent.RawSwap, buffer)}
}

// Start returns the fake's event channel; it ignores poolID since the
// fake is wired to a single pool for the lifetime of a test.
func (f *FakeSource) Start(ctx context.Context, poolID string) (<-chan poolevent.RawSwap, error) {
	return f.events, nil
}

// Stop closes the event channel so range loops over it terminate.
func (f *FakeSource) Stop() error {
	if f.closed {
		return nil
	}
	f.closed = true
	close(f.events)
	return nil
}

// Push enqueues a raw swap for delivery, used by tests to simulate an
// incoming chain event.
func (f *FakeSource) Push(raw poolevent.RawSwap) {
	if f.closed {
		return
	}
	f.events <- raw
}

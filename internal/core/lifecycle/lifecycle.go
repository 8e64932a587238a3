// Package lifecycle implements activation, deactivation, and post-exit
// cleanup (C7): the only place a PositionSlot is created or destroyed.
package lifecycle

import (
	"log"
	"time"

	"raysentinel/internal/core/domain"
	"raysentinel/internal/core/position"
)

// ConfigRepository loads a user's bot configuration; the persistent
// store itself is an external collaborator addressed by user id.
type ConfigRepository interface {
	Load(userID string) (domain.UserBotConfig, error)
}

// TradeRecorder persists a realized trade outcome; failures are
// logged, never fatal (PersistenceError is non-blocking per the error
// taxonomy).
type TradeRecorder interface {
	Record(record domain.TradeRecord) error
}

// Registry tracks which user ids are currently active, independent of
// the position store (spec.md's "active-user registry").
type Registry interface {
	Add(userID string)
	Remove(userID string)
	Contains(userID string) bool
}

// Manager wires the Store together with the repository/recorder/registry
// collaborators C7 needs.
type Manager struct {
	Store    *position.Store
	Configs  ConfigRepository
	Trades   TradeRecorder
	Registry Registry
}

// Activate loads the user's config, builds a fresh Armed slot, performs
// a best-effort cleanup of any prior residual slot under a short
// timeout, and inserts the new slot (idempotent: any stale entry for
// this user is removed first by the store itself).
func (m *Manager) Activate(userID string, nowMs int64) error {
	cfg, err := m.Configs.Load(userID)
	if err != nil {
		return err
	}

	// Best-effort cleanup of a prior residual slot; on timeout a
	// background retry is scheduled rather than blocking activation.
	if err := m.Store.Remove(cfg.PoolID, userID); err == position.ErrTimeout {
		m.Store.RemoveDeferred(cfg.PoolID, userID)
	}

	slot := &domain.PositionSlot{
		Config:    cfg,
		Phase:     domain.PhaseArmed,
		IsLong:    false,
		ArmTimeMs: nowMs,
	}

	if err := m.Store.Activate(cfg.PoolID, slot); err == position.ErrTimeout {
		m.Store.ActivateDeferred(cfg.PoolID, slot, func(err error) {
			if err != nil {
				log.Printf("lifecycle: deferred activation failed for user %s: %v", userID, err)
			}
		})
	} else if err != nil {
		return err
	}

	m.Registry.Add(userID)
	return nil
}

// Stop removes the user's slot immediately when not long; when long, it
// sets auto_exit=0 on the slot's Strategy so the next event fires
// SELL-FORCED, and leaves the slot in place until the exit confirms.
func (m *Manager) Stop(poolID, userID string) error {
	slot := m.Store.Get(poolID, userID)
	if slot == nil {
		m.Registry.Remove(userID)
		return nil
	}

	if !slot.IsLong {
		m.Registry.Remove(userID)
		return m.Store.Remove(poolID, userID)
	}

	return m.Store.ApplyUpdate(poolID, userID, func(s *domain.PositionSlot) {
		s.Config.Strategy.AutoExitSeconds = 0
	})
}

// PostExitCleanup persists a TradeRecord for a confirmed exit (best
// effort; failures are logged but do not block), then removes the slot
// from the store and the active-user registry, pruning empty pool
// buckets.
func (m *Manager) PostExitCleanup(slot *domain.PositionSlot, poolID string) {
	record := domain.TradeRecord{
		UserID:       slot.Config.UserID,
		Timestamp:    time.Now(),
		ProfitNative: slot.LastProfitNative,
		FeesAtomic:   int64(slot.AccumulatedFeeLamports),
		FeesNative:   float64(slot.AccumulatedFeeLamports) / 1e9,
		ROIPct:       slot.LastROIPct,
		DurationMs:   slot.LastDurationMs,
	}
	if err := m.Trades.Record(record); err != nil {
		log.Printf("lifecycle: failed to persist trade record for user %s: %v", slot.Config.UserID, err)
	}

	m.Registry.Remove(slot.Config.UserID)
	if err := m.Store.Remove(poolID, slot.Config.UserID); err == position.ErrTimeout {
		m.Store.RemoveDeferred(poolID, slot.Config.UserID)
	}
}

package lifecycle

import (
	"fmt"
	"testing"

	"raysentinel/internal/core/domain"
	"raysentinel/internal/core/position"
)

type fakeConfigs struct {
	configs map[string]domain.UserBotConfig
}

func (f fakeConfigs) Load(userID string) (domain.UserBotConfig, error) {
	cfg, ok := f.configs[userID]
	if !ok {
		return domain.UserBotConfig{}, fmt.Errorf("not found")
	}
	return cfg, nil
}

type fakeRecorder struct {
	records []domain.TradeRecord
}

func (f *fakeRecorder) Record(r domain.TradeRecord) error {
	f.records = append(f.records, r)
	return nil
}

type fakeRegistry struct {
	active map[string]bool
}

func newFakeRegistry() *fakeRegistry { return &fakeRegistry{active: map[string]bool{}} }
func (r *fakeRegistry) Add(userID string)      { r.active[userID] = true }
func (r *fakeRegistry) Remove(userID string)   { delete(r.active, userID) }
func (r *fakeRegistry) Contains(userID string) bool { return r.active[userID] }

func newManager() (*Manager, *fakeRecorder, *fakeRegistry) {
	recorder := &fakeRecorder{}
	registry := newFakeRegistry()
	m := &Manager{
		Store: position.New(),
		Configs: fakeConfigs{configs: map[string]domain.UserBotConfig{
			"alice": {UserID: "alice", PoolID: "pool1"},
		}},
		Trades:   recorder,
		Registry: registry,
	}
	return m, recorder, registry
}

func TestActivateInsertsSlotAndRegistersUser(t *testing.T) {
	m, _, registry := newManager()
	if err := m.Activate("alice", 0); err != nil {
		t.Fatal(err)
	}
	if m.Store.Count() != 1 {
		t.Fatalf("expected 1 slot")
	}
	if !registry.Contains("alice") {
		t.Fatalf("expected alice registered active")
	}
}

func TestStopNotLongRemovesImmediately(t *testing.T) {
	m, _, registry := newManager()
	_ = m.Activate("alice", 0)

	if err := m.Stop("pool1", "alice"); err != nil {
		t.Fatal(err)
	}
	if m.Store.Count() != 0 {
		t.Fatalf("expected slot removed")
	}
	if registry.Contains("alice") {
		t.Fatalf("expected alice deregistered")
	}
}

func TestStopWhileLongSetsAutoExitZero(t *testing.T) {
	m, _, _ := newManager()
	_ = m.Activate("alice", 0)
	_ = m.Store.ApplyUpdate("pool1", "alice", func(s *domain.PositionSlot) { s.IsLong = true })

	if err := m.Stop("pool1", "alice"); err != nil {
		t.Fatal(err)
	}
	slot := m.Store.Get("pool1", "alice")
	if slot == nil {
		t.Fatalf("expected slot to remain while long")
	}
	if slot.Config.Strategy.AutoExitSeconds != 0 {
		t.Fatalf("expected auto_exit forced to 0")
	}
}

func TestPostExitCleanupPersistsAndRemoves(t *testing.T) {
	m, recorder, registry := newManager()
	_ = m.Activate("alice", 0)
	slot := m.Store.Get("pool1", "alice")
	slot.LastProfitNative = 1.5

	m.PostExitCleanup(slot, "pool1")

	if len(recorder.records) != 1 {
		t.Fatalf("expected one trade record persisted")
	}
	if m.Store.Count() != 0 {
		t.Fatalf("expected slot removed after cleanup")
	}
	if registry.Contains("alice") {
		t.Fatalf("expected alice deregistered after cleanup")
	}
}

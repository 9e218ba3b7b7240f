package effects

import (
	"testing"

	"github.com/duelforge/arena/internal/battle"
	"gorm.io/gorm"
)

type mockStore struct {
	rows map[string]*Effect
}

func newMockStore() *mockStore {
	return &mockStore{rows: map[string]*Effect{}}
}

func key(sessionID, participantID string, kind Kind) string {
	return sessionID + "/" + participantID + "/" + string(kind)
}

func (m *mockStore) GetEffect(sessionID, participantID string, kind Kind) (*Effect, error) {
	if e, ok := m.rows[key(sessionID, participantID, kind)]; ok {
		return e, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockStore) CreateEffect(e *Effect) error {
	k := key(e.SessionID, e.ParticipantID, e.Kind)
	if _, ok := m.rows[k]; ok {
		return gorm.ErrDuplicatedKey
	}
	m.rows[k] = e
	return nil
}

func (m *mockStore) SaveEffect(e *Effect) error {
	m.rows[key(e.SessionID, e.ParticipantID, e.Kind)] = e
	return nil
}

func (m *mockStore) DeleteEffect(e *Effect) error {
	delete(m.rows, key(e.SessionID, e.ParticipantID, e.Kind))
	return nil
}

func (m *mockStore) ListEffects(sessionID, participantID string) ([]Effect, error) {
	out := []Effect{}
	for _, e := range m.rows {
		if e.SessionID == sessionID && e.ParticipantID == participantID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (m *mockStore) DeleteEffectsForParticipant(sessionID, participantID string) error {
	for k, e := range m.rows {
		if e.SessionID == sessionID && e.ParticipantID == participantID {
			delete(m.rows, k)
		}
	}
	return nil
}

func (m *mockStore) DeleteEffectsForSession(sessionID string) error {
	for k, e := range m.rows {
		if e.SessionID == sessionID {
			delete(m.rows, k)
		}
	}
	return nil
}

func TestApplyStackableAccumulatesStacksAndRefreshesDuration(t *testing.T) {
	eng := NewEngine(newMockStore())
	if _, err := eng.Apply("s1", "bob", KindPoison, 2, 3, "alice", "envenom", 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	eff, err := eng.Apply("s1", "bob", KindPoison, 2, 3, "alice", "envenom", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if eff.Stacks != 2 {
		t.Fatalf("expected 2 stacks, got %d", eff.Stacks)
	}
	if eff.RemainingTurns != 3 {
		t.Fatalf("duration must be refreshed to 3, not added; got %d", eff.RemainingTurns)
	}
}

func TestApplyNonStackableOnlyRefreshes(t *testing.T) {
	eng := NewEngine(newMockStore())
	if _, err := eng.Apply("s1", "bob", KindBlessed, 2, 2, "bob", "bless", 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	eff, err := eng.Apply("s1", "bob", KindBlessed, 3, 4, "bob", "bless", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if eff.Stacks != 1 {
		t.Fatalf("non-stackable effect must keep 1 stack, got %d", eff.Stacks)
	}
	if eff.RemainingTurns != 4 || eff.Magnitude != 3 {
		t.Fatalf("expected refreshed duration 4 and magnitude 3, got %d/%d", eff.RemainingTurns, eff.Magnitude)
	}
}

func TestApplyRetriesOnceOnDuplicateKey(t *testing.T) {
	ms := newMockStore()
	eng := NewEngine(ms)
	// Simulate a racing insert: the first create fails with a duplicate key
	// and the row appears as if written by the other caller.
	ms.rows[key("s1", "bob", KindPoison)] = &Effect{SessionID: "s1", ParticipantID: "bob", Kind: KindPoison, Stacks: 1, Magnitude: 2, RemainingTurns: 3}
	eff, err := eng.Apply("s1", "bob", KindPoison, 2, 3, "alice", "envenom", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if eff.Stacks != 2 {
		t.Fatalf("retry must stack against the existing row, got %d stacks", eff.Stacks)
	}
}

func TestTickExpiresAtZero(t *testing.T) {
	eng := NewEngine(newMockStore())
	if _, err := eng.Apply("s1", "bob", KindBurning, 1, 1, "alice", "", 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := eng.Apply("s1", "bob", KindBlessed, 2, 3, "bob", "", 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expired, err := eng.Tick("s1", "bob")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if expired != 1 {
		t.Fatalf("expected exactly one expiry, got %d", expired)
	}
	eff, err := eng.store.GetEffect("s1", "bob", KindBlessed)
	if err != nil {
		t.Fatalf("blessed effect must survive: %v", err)
	}
	if eff.RemainingTurns != 2 {
		t.Fatalf("expected duration decremented to 2, got %d", eff.RemainingTurns)
	}
}

func TestProcessTurnStart(t *testing.T) {
	eng := NewEngine(newMockStore())
	s := battle.NewSession("g1", "alice", "bob")
	s.Activate(20, 20)
	if _, err := eng.Apply(s.ID, "bob", KindPoison, 2, 3, "alice", "", 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := eng.Apply(s.ID, "bob", KindPoison, 2, 3, "alice", "", 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := eng.Apply(s.ID, "bob", KindRegeneration, 1, 2, "bob", "", 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := eng.Apply(s.ID, "bob", KindStunned, 0, 1, "alice", "", 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	res, err := eng.ProcessTurnStart(s, "bob")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Stunned {
		t.Fatalf("expected stun flag")
	}
	// 2 poison stacks * magnitude 2 = 4 damage, regeneration heals 1
	if s.OpponentHP != 17 {
		t.Fatalf("expected 17 hp after DoT and regen, got %d", s.OpponentHP)
	}
	if len(res.Messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(res.Messages))
	}
}

func TestConsumeShield(t *testing.T) {
	eng := NewEngine(newMockStore())
	if _, err := eng.Apply("s1", "bob", KindShielded, 5, 3, "bob", "barrier", 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	absorbed, residual, err := eng.ConsumeShield("s1", "bob", 3)
	if err != nil || absorbed != 3 || residual != 0 {
		t.Fatalf("expected 3 absorbed, got absorbed=%d residual=%d err=%v", absorbed, residual, err)
	}
	if v, _ := eng.ShieldValue("s1", "bob"); v != 2 {
		t.Fatalf("expected shield pool 2, got %d", v)
	}
	// overflow passes through and deletes the shield
	absorbed, residual, err = eng.ConsumeShield("s1", "bob", 6)
	if err != nil || absorbed != 2 || residual != 4 {
		t.Fatalf("expected overflow, got absorbed=%d residual=%d err=%v", absorbed, residual, err)
	}
	if v, _ := eng.ShieldValue("s1", "bob"); v != 0 {
		t.Fatalf("expected depleted shield deleted, got %d", v)
	}
}

func TestDerivedModifierQueries(t *testing.T) {
	eng := NewEngine(newMockStore())
	mustApply := func(kind Kind, magnitude int) {
		if _, err := eng.Apply("s1", "bob", kind, magnitude, 2, "x", "", 1); err != nil {
			t.Fatalf("apply %s: %v", kind, err)
		}
	}
	mustApply(KindStoneskin, 2)
	mustApply(KindSundered, 1)
	mustApply(KindBlessed, 3)
	mustApply(KindEmpowered, 25)
	mustApply(KindVulnerable, 50)
	mustApply(KindWarded, 20)

	if v, _ := eng.ACModifier("s1", "bob"); v != 1 {
		t.Fatalf("expected AC modifier +1, got %d", v)
	}
	if v, _ := eng.AttackModifier("s1", "bob"); v != 3 {
		t.Fatalf("expected attack modifier +3, got %d", v)
	}
	if v, _ := eng.OutgoingDamagePercent("s1", "bob"); v != 25 {
		t.Fatalf("expected outgoing +25%%, got %d", v)
	}
	if v, _ := eng.IncomingDamagePercent("s1", "bob"); v != 30 {
		t.Fatalf("expected incoming +30%%, got %d", v)
	}
}

package recovery

import (
	"errors"
	"testing"
	"time"

	"github.com/duelforge/arena/internal/battle"
	"github.com/duelforge/arena/internal/metrics"
	"github.com/duelforge/arena/internal/storage"
)

type mockStore struct {
	records   map[string]*storage.SessionRecord
	saveFails map[string]bool
	cleaned   []string
}

func newMockStore() *mockStore {
	return &mockStore{records: map[string]*storage.SessionRecord{}, saveFails: map[string]bool{}}
}

func (m *mockStore) add(id string, status battle.Status, lastAction time.Time) {
	m.records[id] = &storage.SessionRecord{
		SessionID:    id,
		GuildID:      "g1",
		Status:       status,
		LastActionAt: lastAction,
	}
}

func (m *mockStore) FindSessionsByStatus(statuses ...battle.Status) ([]storage.SessionRecord, error) {
	var out []storage.SessionRecord
	for _, rec := range m.records {
		for _, st := range statuses {
			if rec.Status == st {
				out = append(out, *rec)
				break
			}
		}
	}
	return out, nil
}

func (m *mockStore) FindStaleActiveSessions(cutoff time.Time) ([]storage.SessionRecord, error) {
	var out []storage.SessionRecord
	for _, rec := range m.records {
		if rec.Status == battle.StatusActive && !rec.LastActionAt.After(cutoff) {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (m *mockStore) SaveSessionRecord(r *storage.SessionRecord) error {
	if m.saveFails[r.SessionID] {
		return errors.New("disk full")
	}
	cp := *r
	m.records[r.SessionID] = &cp
	return nil
}

func (m *mockStore) CountSessionsByStatus() (map[battle.Status]int64, error) {
	out := map[battle.Status]int64{}
	for _, rec := range m.records {
		out[rec.Status]++
	}
	return out, nil
}

func (m *mockStore) DeleteEffectsForSession(sessionID string) error {
	m.cleaned = append(m.cleaned, sessionID)
	return nil
}

func TestRecoverOnStartupAbortsUnfinished(t *testing.T) {
	store := newMockStore()
	now := time.Now()
	store.add("s-pending", battle.StatusPending, now)
	store.add("s-active", battle.StatusActive, now)
	store.add("s-done", battle.StatusEnded, now)

	sw := NewSweeper(store, metrics.NewCollector(), 10*time.Minute)
	n, err := sw.RecoverOnStartup()
	if err != nil {
		t.Fatalf("RecoverOnStartup failed: %v", err)
	}
	if n != 2 {
		t.Fatalf("want 2 recovered, got %d", n)
	}
	for _, id := range []string{"s-pending", "s-active"} {
		rec := store.records[id]
		if rec.Status != battle.StatusEnded || rec.EndReason != battle.EndReasonAborted {
			t.Fatalf("%s: want ended/aborted, got %s/%s", id, rec.Status, rec.EndReason)
		}
		if rec.WinnerID != "" {
			t.Fatalf("%s: recovery must not award a winner", id)
		}
		if rec.EndedAt == nil {
			t.Fatalf("%s: EndedAt not set", id)
		}
	}
	if store.records["s-done"].EndReason == battle.EndReasonAborted {
		t.Fatal("already-ended record must not be touched")
	}
	if len(store.cleaned) != 2 {
		t.Fatalf("want effect cleanup for both sessions, got %v", store.cleaned)
	}
}

func TestRecoverOnStartupSkipsFailingRecord(t *testing.T) {
	store := newMockStore()
	now := time.Now()
	store.add("s-good", battle.StatusPending, now)
	store.add("s-bad", battle.StatusActive, now)
	store.saveFails["s-bad"] = true

	sw := NewSweeper(store, metrics.NewCollector(), 10*time.Minute)
	n, err := sw.RecoverOnStartup()
	if err != nil {
		t.Fatalf("RecoverOnStartup failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("one record should survive the failing one: got %d", n)
	}
	if store.records["s-good"].Status != battle.StatusEnded {
		t.Fatal("healthy record should still be closed")
	}
}

func TestReapStaleTimesOutOldActives(t *testing.T) {
	store := newMockStore()
	now := time.Now()
	store.add("s-fresh", battle.StatusActive, now.Add(-5*time.Minute))
	store.add("s-stale", battle.StatusActive, now.Add(-3*time.Hour))
	store.add("s-pending", battle.StatusPending, now.Add(-3*time.Hour))

	sw := NewSweeper(store, metrics.NewCollector(), 10*time.Minute)
	n, err := sw.ReapStale(now)
	if err != nil {
		t.Fatalf("ReapStale failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("want 1 reaped, got %d", n)
	}
	stale := store.records["s-stale"]
	if stale.Status != battle.StatusEnded || stale.EndReason != battle.EndReasonTimedOut {
		t.Fatalf("want ended/timed_out, got %s/%s", stale.Status, stale.EndReason)
	}
	if store.records["s-fresh"].Status != battle.StatusActive {
		t.Fatal("fresh active session must not be reaped")
	}
	if store.records["s-pending"].Status != battle.StatusPending {
		t.Fatal("stale reaper only touches active sessions")
	}
}

func TestCountByStatus(t *testing.T) {
	store := newMockStore()
	now := time.Now()
	store.add("a", battle.StatusActive, now)
	store.add("b", battle.StatusActive, now)
	store.add("c", battle.StatusEnded, now)

	sw := NewSweeper(store, metrics.NewCollector(), 10*time.Minute)
	counts, err := sw.CountByStatus()
	if err != nil {
		t.Fatalf("CountByStatus failed: %v", err)
	}
	if counts[battle.StatusActive] != 2 || counts[battle.StatusEnded] != 1 {
		t.Fatalf("unexpected counts: %v", counts)
	}
}

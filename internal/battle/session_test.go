package battle

import (
	"testing"
	"time"
)

func TestApplyDamageClampsAtZero(t *testing.T) {
	s := NewSession("g1", "alice", "bob")
	s.Activate(10, 10)
	s.ApplyDamage("alice", 25)
	if s.ChallengerHP != 0 {
		t.Fatalf("expected health clamped at 0, got %d", s.ChallengerHP)
	}
	s.ApplyDamage("alice", -5)
	if s.ChallengerHP != 0 {
		t.Fatalf("negative damage must not heal, got %d", s.ChallengerHP)
	}
}

func TestHealClampsAtMax(t *testing.T) {
	s := NewSession("g1", "alice", "bob")
	s.Activate(12, 12)
	s.ApplyDamage("bob", 4)
	s.Heal("bob", 100)
	if s.OpponentHP != 12 {
		t.Fatalf("expected heal clamped at max 12, got %d", s.OpponentHP)
	}
}

func TestActivateGivesFirstTurnToChallengedParty(t *testing.T) {
	s := NewSession("g1", "alice", "bob")
	s.Activate(10, 10)
	if s.Status != StatusActive {
		t.Fatalf("expected active status, got %v", s.Status)
	}
	if s.CurrentTurnID != "bob" {
		t.Fatalf("expected bob (challenged party) to act first, got %s", s.CurrentTurnID)
	}
	if s.TurnCount != 1 {
		t.Fatalf("expected turn count 1, got %d", s.TurnCount)
	}
}

func TestAdvanceTurnToggles(t *testing.T) {
	s := NewSession("g1", "alice", "bob")
	s.Activate(10, 10)
	s.AdvanceTurn()
	if s.CurrentTurnID != "alice" {
		t.Fatalf("expected turn to pass to alice, got %s", s.CurrentTurnID)
	}
	if s.TurnCount != 2 {
		t.Fatalf("expected turn count 2, got %d", s.TurnCount)
	}
}

func TestEndFreezesSession(t *testing.T) {
	s := NewSession("g1", "alice", "bob")
	s.Activate(10, 10)
	s.AppendLog("first")
	s.End(EndReasonForfeited, "bob")
	s.ApplyDamage("alice", 5)
	s.Heal("alice", 5)
	s.AppendLog("after end")
	s.AdvanceTurn()
	if s.ChallengerHP != 10 {
		t.Fatalf("health must be frozen after end, got %d", s.ChallengerHP)
	}
	if len(s.Log) != 1 {
		t.Fatalf("log must be frozen after end, got %d entries", len(s.Log))
	}
	if s.TurnCount != 1 {
		t.Fatalf("turn must be frozen after end, got %d", s.TurnCount)
	}
	// ending again must not overwrite the original reason
	s.End(EndReasonAborted, "")
	if s.EndReason != EndReasonForfeited || s.WinnerID != "bob" {
		t.Fatalf("end must be terminal: %v/%v", s.EndReason, s.WinnerID)
	}
}

func TestPendingExpired(t *testing.T) {
	s := NewSession("g1", "alice", "bob")
	s.CreatedAt = time.Now().Add(-2 * time.Minute)
	if !s.PendingExpired(time.Minute, time.Now()) {
		t.Fatalf("expected pending session older than window to be expired")
	}
	if s.PendingExpired(time.Hour, time.Now()) {
		t.Fatalf("session within window must not be expired")
	}
}

func TestParticipantToken(t *testing.T) {
	if got := ParticipantToken("u42"); got != "{PARTICIPANT:u42}" {
		t.Fatalf("unexpected token %q", got)
	}
}

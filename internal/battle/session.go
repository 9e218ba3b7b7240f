package battle

import (
	"math/rand"
	"sync"
	"time"
)

// Roller draws die results. Injectable so tests can force exact sequences.
type Roller interface {
	// Roll returns a value in [1, sides].
	Roll(sides int) int
}

type randRoller struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func (r *randRoller) Roll(sides int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Intn(sides) + 1
}

// NewRoller returns the production pseudo-random roller.
func NewRoller() Roller {
	return &randRoller{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// SequenceRoller replays a fixed sequence of results, wrapping at the end.
// Used by deterministic tests across packages.
type SequenceRoller struct {
	Results []int
	next    int
}

func (s *SequenceRoller) Roll(sides int) int {
	if len(s.Results) == 0 {
		return 1
	}
	v := s.Results[s.next%len(s.Results)]
	s.next++
	return v
}

// IsParticipant reports whether id belongs to either side of the duel.
func (s *Session) IsParticipant(id string) bool {
	return id == s.ChallengerID || id == s.OpponentID
}

// OtherParticipant returns the opposite side for a given participant id.
func (s *Session) OtherParticipant(id string) string {
	if id == s.ChallengerID {
		return s.OpponentID
	}
	return s.ChallengerID
}

// HealthOf returns the current health for a participant.
func (s *Session) HealthOf(id string) int {
	if id == s.ChallengerID {
		return s.ChallengerHP
	}
	return s.OpponentHP
}

// MaxHealthOf returns the maximum health for a participant.
func (s *Session) MaxHealthOf(id string) int {
	if id == s.ChallengerID {
		return s.ChallengerMaxHP
	}
	return s.OpponentMaxHP
}

// ApplyDamage subtracts dmg from the participant's health, clamped at zero.
// Negative damage is ignored. No-op once the session has ended.
func (s *Session) ApplyDamage(id string, dmg int) {
	if s.Status == StatusEnded || dmg <= 0 {
		return
	}
	hp := s.HealthOf(id) - dmg
	if hp < 0 {
		hp = 0
	}
	s.setHealth(id, hp)
}

// Heal restores health to the participant, clamped at their maximum.
func (s *Session) Heal(id string, amount int) {
	if s.Status == StatusEnded || amount <= 0 {
		return
	}
	hp := s.HealthOf(id) + amount
	if max := s.MaxHealthOf(id); hp > max {
		hp = max
	}
	s.setHealth(id, hp)
}

func (s *Session) setHealth(id string, hp int) {
	if id == s.ChallengerID {
		s.ChallengerHP = hp
		return
	}
	s.OpponentHP = hp
}

// Activate transitions a pending session to active, initializing health.
// The challenged party takes the first turn.
func (s *Session) Activate(challengerHP, opponentHP int) {
	s.Status = StatusActive
	s.ChallengerHP = challengerHP
	s.ChallengerMaxHP = challengerHP
	s.OpponentHP = opponentHP
	s.OpponentMaxHP = opponentHP
	s.TurnCount = 1
	s.CurrentTurnID = s.OpponentID
	s.ActivatedAt = time.Now()
	s.LastActionAt = s.ActivatedAt
}

// AdvanceTurn toggles the current turn owner and increments the counter.
func (s *Session) AdvanceTurn() {
	if s.Status != StatusActive {
		return
	}
	s.CurrentTurnID = s.OtherParticipant(s.CurrentTurnID)
	s.TurnCount++
	s.LastActionAt = time.Now()
}

// End moves the session to its terminal state. Health and log are frozen
// afterwards; repeat calls are no-ops.
func (s *Session) End(reason EndReason, winnerID string) {
	if s.Status == StatusEnded {
		return
	}
	s.Status = StatusEnded
	s.EndReason = reason
	s.WinnerID = winnerID
	s.LastActionAt = time.Now()
}

// AppendLog records a narrated event. Frozen once ended.
func (s *Session) AppendLog(line string) {
	if s.Status == StatusEnded {
		return
	}
	s.Log = append(s.Log, line)
}

// PendingExpired reports whether a pending challenge has outlived its
// acceptance window.
func (s *Session) PendingExpired(window time.Duration, now time.Time) bool {
	return s.Status == StatusPending && now.Sub(s.CreatedAt) > window
}

package storage

import (
	"time"

	"github.com/duelforge/arena/internal/battle"
	"gorm.io/gorm"
)

// SessionRecord is the durable mirror of a battle session, written at
// creation and at major transitions. It exists for crash recovery and
// administrative listing; the in-memory session stays authoritative while
// the process is alive.
type SessionRecord struct {
	gorm.Model
	SessionID    string           `json:"session_id" gorm:"uniqueIndex"`
	GuildID      string           `json:"guild_id" gorm:"index"`
	ChallengerID string           `json:"challenger_id"`
	OpponentID   string           `json:"opponent_id"`
	Status       battle.Status    `json:"status" gorm:"index"`
	EndReason    battle.EndReason `json:"end_reason"`

	TurnCount     int    `json:"turn_count"`
	CurrentTurnID string `json:"current_turn_id"`
	WinnerID      string `json:"winner_id"`

	LastActionAt time.Time  `json:"last_action_at"`
	EndedAt      *time.Time `json:"ended_at"`
}

func (SessionRecord) TableName() string { return "battle_sessions" }

// NewSessionRecord builds the durable mirror for a freshly created session.
func NewSessionRecord(s *battle.Session) *SessionRecord {
	r := &SessionRecord{
		SessionID:    s.ID,
		GuildID:      s.GuildID,
		ChallengerID: s.ChallengerID,
		OpponentID:   s.OpponentID,
	}
	r.SyncFromSession(s)
	return r
}

// SyncFromSession copies the transition-relevant fields from the live
// session into the mirror.
func (r *SessionRecord) SyncFromSession(s *battle.Session) {
	r.Status = s.Status
	r.EndReason = s.EndReason
	r.TurnCount = s.TurnCount
	r.CurrentTurnID = s.CurrentTurnID
	r.WinnerID = s.WinnerID
	r.LastActionAt = s.LastActionAt
	if s.Status == battle.StatusEnded && r.EndedAt == nil {
		now := time.Now()
		r.EndedAt = &now
	}
}

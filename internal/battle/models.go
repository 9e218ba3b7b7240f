package battle

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a battle session.
// Using a dedicated type instead of plain string makes code safer and self-documenting.
type Status string

const (
	StatusPending Status = "pending"
	StatusActive  Status = "active"
	StatusEnded   Status = "ended"
)

// EndReason records why a session reached the ended state.
type EndReason string

const (
	EndReasonNone      EndReason = ""
	EndReasonCompleted EndReason = "completed"
	EndReasonDeclined  EndReason = "declined"
	EndReasonForfeited EndReason = "forfeited"
	EndReasonTimedOut  EndReason = "timed_out"
	EndReasonAborted   EndReason = "aborted"
)

// Session is the authoritative in-memory representation of one duel.
// It is owned by the orchestrator's session cache for its lifetime; the
// durable mirror in storage exists only for crash recovery.
type Session struct {
	ID           string    `json:"id"`
	GuildID      string    `json:"guild_id"`
	ChallengerID string    `json:"challenger_id"`
	OpponentID   string    `json:"opponent_id"`
	Status       Status    `json:"status"`
	EndReason    EndReason `json:"end_reason"`

	ChallengerHP    int `json:"challenger_hp"`
	ChallengerMaxHP int `json:"challenger_max_hp"`
	OpponentHP      int `json:"opponent_hp"`
	OpponentMaxHP   int `json:"opponent_max_hp"`

	TurnCount     int    `json:"turn_count"`
	CurrentTurnID string `json:"current_turn_id"`
	WinnerID      string `json:"winner_id"`

	CreatedAt    time.Time `json:"created_at"`
	ActivatedAt  time.Time `json:"activated_at"`
	LastActionAt time.Time `json:"last_action_at"`

	// Log is the append-only ordered list of narrated events. Entries use
	// the opaque {PARTICIPANT:<id>} token instead of rendered mentions so
	// the presentation layer decides how to display participants.
	Log []string `json:"log"`
}

// NewSession creates a pending session for a fresh challenge.
func NewSession(guildID, challengerID, opponentID string) *Session {
	now := time.Now()
	return &Session{
		ID:           uuid.NewString(),
		GuildID:      guildID,
		ChallengerID: challengerID,
		OpponentID:   opponentID,
		Status:       StatusPending,
		CreatedAt:    now,
		LastActionAt: now,
		Log:          make([]string, 0, 16),
	}
}

// ParticipantToken builds the render-target-agnostic reference token used
// in log lines.
func ParticipantToken(id string) string {
	return "{PARTICIPANT:" + id + "}"
}

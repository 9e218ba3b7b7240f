package effects

import "gorm.io/gorm"

// Effect is one buff/debuff attached to a session participant. The unique
// index enforces the at-most-one-record-per-(session,participant,kind)
// invariant; Apply relies on the duplicate-key error it produces to
// resolve concurrent applications.
type Effect struct {
	gorm.Model
	SessionID     string `json:"session_id" gorm:"uniqueIndex:idx_effects_target_kind"`
	ParticipantID string `json:"participant_id" gorm:"uniqueIndex:idx_effects_target_kind"`
	Kind          Kind   `json:"kind" gorm:"uniqueIndex:idx_effects_target_kind"`

	Stacks         int    `json:"stacks"`
	Magnitude      int    `json:"magnitude"`
	RemainingTurns int    `json:"remaining_turns"`
	AppliedByID    string `json:"applied_by_id"`
	SourceAbility  string `json:"source_ability"`
	AppliedAtTurn  int    `json:"applied_at_turn"`
}

func (Effect) TableName() string { return "battle_effects" }

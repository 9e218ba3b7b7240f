package spells

import (
	"time"

	"gorm.io/gorm"
)

// SlotPool tracks one spell-slot level for a character. Pools outlive any
// single battle session.
type SlotPool struct {
	gorm.Model
	CharacterKey string `json:"character_key" gorm:"uniqueIndex:idx_slot_pool_level"`
	Level        int    `json:"level" gorm:"uniqueIndex:idx_slot_pool_level"`
	MaxSlots     int    `json:"max_slots"`
	Available    int    `json:"available"`
}

func (SlotPool) TableName() string { return "spell_slot_pools" }

// Cooldown tracks when a character last used an ability and when it
// becomes available again.
type Cooldown struct {
	gorm.Model
	CharacterKey string    `json:"character_key" gorm:"uniqueIndex:idx_cooldown_ability"`
	AbilityKey   string    `json:"ability_key" gorm:"uniqueIndex:idx_cooldown_ability"`
	LastUsedAt   time.Time `json:"last_used_at"`
	AvailableAt  time.Time `json:"available_at"`
}

func (Cooldown) TableName() string { return "ability_cooldowns" }

// CharacterKey builds the canonical per-character key used by both tables.
func CharacterKey(guildID, userID string) string {
	return guildID + ":" + userID
}

// RestKind selects how spell resources recover.
type RestKind string

const (
	RestNone  RestKind = "none"
	RestShort RestKind = "short"
	RestLong  RestKind = "long"
)

package character

// AbilityScores holds the raw stat block the duel math derives modifiers from.
type AbilityScores struct {
	Strength     int `json:"strength"`
	Dexterity    int `json:"dexterity"`
	Constitution int `json:"constitution"`
	Intelligence int `json:"intelligence"`
	Wisdom       int `json:"wisdom"`
	Charisma     int `json:"charisma"`
}

// Modifier converts a raw score into its derived modifier ((score-10)/2,
// floored toward negative infinity so 9 -> -1 and 7 -> -2).
func Modifier(score int) int {
	d := score - 10
	if d < 0 {
		return -((-d + 1) / 2)
	}
	return d / 2
}

// Ability is a learned ability a character may invoke during an attack,
// or carry passively (a pure ACBonus ability contributes while defending).
type Ability struct {
	Key             string  `json:"key"`
	Name            string  `json:"name"`
	AttackBonus     int     `json:"attack_bonus"`
	ACBonus         int     `json:"ac_bonus"`
	DamageBonus     int     `json:"damage_bonus"`
	CritMultiplier  float64 `json:"crit_multiplier"`
	SlotLevel       int     `json:"slot_level"`
	CooldownSeconds int     `json:"cooldown_seconds"`
}

// Character is the slice of character data the duel core needs. The full
// character sheet lives with the owning collaborator.
type Character struct {
	UserID    string        `json:"user_id"`
	GuildID   string        `json:"guild_id"`
	ClassID   string        `json:"class_id"`
	Scores    AbilityScores `json:"scores"`
	Abilities []Ability     `json:"abilities"`
}

// AbilityByKey returns the learned ability with the given key, if any.
func (c *Character) AbilityByKey(key string) (Ability, bool) {
	for _, a := range c.Abilities {
		if a.Key == key {
			return a, true
		}
	}
	return Ability{}, false
}

// PassiveACBonus sums AC bonuses from learned abilities that grant one.
func (c *Character) PassiveACBonus() int {
	total := 0
	for _, a := range c.Abilities {
		total += a.ACBonus
	}
	return total
}

// IsSpellcaster reports whether the class uses spell slots.
func (c *Character) IsSpellcaster() bool {
	switch c.ClassID {
	case "mage", "cleric", "warlock", "druid":
		return true
	}
	return false
}

// Provider is the external character lookup collaborator. Find must be
// idempotent and side-effect-free from the core's perspective.
type Provider interface {
	Find(guildID, userID string) (*Character, bool, error)
}

package engine

import (
	"fmt"

	"github.com/duelforge/arena/internal/battle"
)

// Params are the combat tunables supplied by the config provider.
type Params struct {
	CritThreshold  int
	CritMultiplier float64
	BaseArmorClass int
	DamageDieSides int
}

// AttackerProfile is everything the resolver needs about the acting side:
// the raw ability modifier plus the layered bonuses from status effects and
// learned abilities.
type AttackerProfile struct {
	ID                 string
	AbilityModifier    int
	EffectAttackBonus  int
	AbilityAttackBonus int
	FlatDamageBonus    int
	OutgoingPct        int
	// CritMultiplier overrides the configured multiplier when > 0
	// (ability-augmented criticals).
	CritMultiplier float64
}

// DefenderProfile is the defending side's armor-class inputs, incoming
// damage adjustment and current shield pool.
type DefenderProfile struct {
	ID              string
	AgilityModifier int
	EffectACBonus   int
	AbilityACBonus  int
	IncomingPct     int
	ShieldPool      int
}

// Outcome is the full result of one attack resolution, sufficient for a
// presentation layer to narrate without re-deriving combat math.
type Outcome struct {
	Roll           int  `json:"roll"`
	AttackTotal    int  `json:"attack_total"`
	ArmorClass     int  `json:"armor_class"`
	Hit            bool `json:"hit"`
	Crit           bool `json:"crit"`
	Damage         int  `json:"damage"`
	ShieldAbsorbed int  `json:"shield_absorbed"`
}

// ResolveAttack runs the combat-resolution algorithm: d20 plus layered
// attack modifiers against base-plus-agility armor class, a natural
// maximum roll always critting, percentage damage modifiers, shield
// absorption before health, and the critical multiplier applied last.
// Damage never goes negative.
func ResolveAttack(roller battle.Roller, p Params, atk AttackerProfile, def DefenderProfile) Outcome {
	out := Outcome{}
	out.Roll = roller.Roll(20)
	out.AttackTotal = out.Roll + atk.AbilityModifier + atk.EffectAttackBonus + atk.AbilityAttackBonus
	out.ArmorClass = p.BaseArmorClass + def.AgilityModifier + def.EffectACBonus + def.AbilityACBonus

	out.Crit = out.Roll >= p.CritThreshold
	out.Hit = out.Crit || out.AttackTotal >= out.ArmorClass
	if !out.Hit {
		return out
	}

	dmg := roller.Roll(p.DamageDieSides) + atk.AbilityModifier + atk.FlatDamageBonus
	if atk.OutgoingPct != 0 {
		dmg = scalePct(dmg, atk.OutgoingPct)
	}
	if def.IncomingPct != 0 {
		dmg = scalePct(dmg, def.IncomingPct)
	}
	if dmg < 0 {
		dmg = 0
	}

	if def.ShieldPool > 0 {
		out.ShieldAbsorbed = dmg
		if out.ShieldAbsorbed > def.ShieldPool {
			out.ShieldAbsorbed = def.ShieldPool
		}
		dmg -= out.ShieldAbsorbed
	}

	if out.Crit {
		mult := p.CritMultiplier
		if atk.CritMultiplier > 0 {
			mult = atk.CritMultiplier
		}
		if mult < 1 {
			mult = 1
		}
		dmg = int(float64(dmg) * mult)
	}
	if dmg < 0 {
		dmg = 0
	}
	out.Damage = dmg
	return out
}

func scalePct(v, pct int) int {
	return int(float64(v) * (1.0 + float64(pct)/100.0))
}

// Narrate builds the structured, render-target-agnostic log line for the
// outcome using opaque participant tokens.
func (o Outcome) Narrate(attackerID string) string {
	token := battle.ParticipantToken(attackerID)
	switch {
	case o.Crit:
		return fmt.Sprintf("%s rolls %d (total %d vs AC %d) — CRITICAL HIT for %d damage", token, o.Roll, o.AttackTotal, o.ArmorClass, o.Damage)
	case o.Hit:
		return fmt.Sprintf("%s rolls %d (total %d vs AC %d) — hit for %d damage", token, o.Roll, o.AttackTotal, o.ArmorClass, o.Damage)
	default:
		return fmt.Sprintf("%s rolls %d (total %d vs AC %d) — miss", token, o.Roll, o.AttackTotal, o.ArmorClass)
	}
}

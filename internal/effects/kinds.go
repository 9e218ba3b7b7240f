package effects

// Kind identifies a buff/debuff variant.
type Kind string

const (
	KindPoison       Kind = "poison"
	KindBurning      Kind = "burning"
	KindRegeneration Kind = "regeneration"
	KindStunned      Kind = "stunned"
	KindShielded     Kind = "shielded"
	KindBlessed      Kind = "blessed"
	KindCursed       Kind = "cursed"
	KindStoneskin    Kind = "stoneskin"
	KindSundered     Kind = "sundered"
	KindEmpowered    Kind = "empowered"
	KindVulnerable   Kind = "vulnerable"
	KindWarded       Kind = "warded"
)

// TurnStartAction describes what an effect does when its owner's turn begins.
type TurnStartAction int

const (
	TurnStartNone TurnStartAction = iota
	TurnStartDamage
	TurnStartHeal
	TurnStartStun
)

// Behavior is the data-driven description of a kind. Signed fields are
// multiplied by the effect magnitude when computing derived modifiers, so
// a single table replaces per-kind switch dispatch.
type Behavior struct {
	Stackable   bool
	TurnStart   TurnStartAction
	ACSign      int
	AttackSign  int
	OutgoingPct int
	IncomingPct int
	Shield      bool
}

var behaviors = map[Kind]Behavior{
	KindPoison:       {Stackable: true, TurnStart: TurnStartDamage},
	KindBurning:      {TurnStart: TurnStartDamage},
	KindRegeneration: {TurnStart: TurnStartHeal},
	KindStunned:      {TurnStart: TurnStartStun},
	KindShielded:     {Shield: true},
	KindBlessed:      {AttackSign: 1},
	KindCursed:       {AttackSign: -1},
	KindStoneskin:    {ACSign: 1},
	KindSundered:     {ACSign: -1},
	KindEmpowered:    {OutgoingPct: 1},
	KindVulnerable:   {IncomingPct: 1},
	KindWarded:       {IncomingPct: -1},
}

// BehaviorFor returns the behavior table entry for a kind. Unknown kinds
// fall back to an inert behavior so stale rows never break resolution.
func BehaviorFor(kind Kind) Behavior {
	if b, ok := behaviors[kind]; ok {
		return b
	}
	return Behavior{}
}

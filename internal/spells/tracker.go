package spells

import (
	"errors"
	"time"

	"github.com/duelforge/arena/internal/character"
	"gorm.io/gorm"
)

// Store is the persistence contract for slot pools and cooldowns.
type Store interface {
	ListSlotPools(characterKey string) ([]SlotPool, error)
	GetSlotPool(characterKey string, level int) (*SlotPool, error)
	CreateSlotPools(pools []SlotPool) error
	SaveSlotPool(pool *SlotPool) error
	GetCooldown(characterKey, abilityKey string) (*Cooldown, error)
	UpsertCooldown(cd *Cooldown) error
	DeleteCooldownsBefore(cutoff time.Time) (int64, error)
}

// startingSlots is the fixed initial pool per slot level for a fresh
// spellcasting character.
var startingSlots = map[int]int{1: 4, 2: 3, 3: 2}

// Tracker manages per-character spell slots and per-ability cooldowns.
// The clock is injectable for deterministic tests.
type Tracker struct {
	store Store
	now   func() time.Time
}

func NewTracker(store Store) *Tracker {
	return &Tracker{store: store, now: time.Now}
}

// WithClock overrides the tracker's time source.
func (t *Tracker) WithClock(now func() time.Time) *Tracker {
	t.now = now
	return t
}

// InitializeSlots creates the slot-level records for a spellcasting
// character. Idempotent: existing pools are left untouched.
func (t *Tracker) InitializeSlots(c *character.Character) error {
	if !c.IsSpellcaster() {
		return nil
	}
	key := CharacterKey(c.GuildID, c.UserID)
	existing, err := t.store.ListSlotPools(key)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	pools := make([]SlotPool, 0, len(startingSlots))
	for level, count := range startingSlots {
		pools = append(pools, SlotPool{CharacterKey: key, Level: level, MaxSlots: count, Available: count})
	}
	return t.store.CreateSlotPools(pools)
}

// HasAvailable reports whether the character has a slot of the given level.
func (t *Tracker) HasAvailable(characterKey string, level int) (bool, error) {
	pool, err := t.store.GetSlotPool(characterKey, level)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return pool.Available > 0, nil
}

// Consume decrements the pool for the given level. The pool never goes
// below zero; consuming from an empty pool reports false.
func (t *Tracker) Consume(characterKey string, level int) (bool, error) {
	pool, err := t.store.GetSlotPool(characterKey, level)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	if pool.Available <= 0 {
		return false, nil
	}
	pool.Available--
	if err := t.store.SaveSlotPool(pool); err != nil {
		return false, err
	}
	return true, nil
}

// Restore refills pools according to the rest kind. A long rest refills
// everything to maximum. Short rests are accepted but currently do nothing
// (reserved for classes with short-rest recovery).
func (t *Tracker) Restore(characterKey string, kind RestKind) error {
	if kind != RestLong {
		return nil
	}
	pools, err := t.store.ListSlotPools(characterKey)
	if err != nil {
		return err
	}
	for i := range pools {
		if pools[i].Available == pools[i].MaxSlots {
			continue
		}
		pools[i].Available = pools[i].MaxSlots
		if err := t.store.SaveSlotPool(&pools[i]); err != nil {
			return err
		}
	}
	return nil
}

// IsAbilityAvailable checks the ability's cooldown. Abilities without a
// configured cooldown are always available.
func (t *Tracker) IsAbilityAvailable(characterKey string, ab character.Ability) (bool, error) {
	if ab.CooldownSeconds <= 0 {
		return true, nil
	}
	cd, err := t.store.GetCooldown(characterKey, ab.Key)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return true, nil
		}
		return false, err
	}
	return !t.now().Before(cd.AvailableAt), nil
}

// StartCooldown records a use of the ability, overwriting any prior record.
func (t *Tracker) StartCooldown(characterKey string, ab character.Ability) error {
	if ab.CooldownSeconds <= 0 {
		return nil
	}
	used := t.now()
	return t.store.UpsertCooldown(&Cooldown{
		CharacterKey: characterKey,
		AbilityKey:   ab.Key,
		LastUsedAt:   used,
		AvailableAt:  used.Add(time.Duration(ab.CooldownSeconds) * time.Second),
	})
}

// CleanupExpired bulk-deletes cooldown rows whose availability timestamp is
// older than the cutoff. Run from a maintenance sweep.
func (t *Tracker) CleanupExpired(cutoff time.Time) (int64, error) {
	return t.store.DeleteCooldownsBefore(cutoff)
}

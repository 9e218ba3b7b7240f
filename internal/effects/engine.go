package effects

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/duelforge/arena/internal/battle"
	"gorm.io/gorm"
)

// Store is the persistence contract the engine needs. The gorm repository
// in internal/storage implements it; tests supply in-memory mocks.
type Store interface {
	GetEffect(sessionID, participantID string, kind Kind) (*Effect, error)
	CreateEffect(e *Effect) error
	SaveEffect(e *Effect) error
	DeleteEffect(e *Effect) error
	ListEffects(sessionID, participantID string) ([]Effect, error)
	DeleteEffectsForParticipant(sessionID, participantID string) error
	DeleteEffectsForSession(sessionID string) error
}

// Engine applies, ticks and queries status effects for session participants.
type Engine struct {
	store Store
}

func NewEngine(store Store) *Engine {
	return &Engine{store: store}
}

// Apply creates the effect, or stacks/refreshes the existing record for the
// same (session, participant, kind). A duplicate-key failure from a racing
// creation is resolved by retrying once against the now-existing row; a
// second miss indicates a deeper consistency problem and is returned as-is.
func (e *Engine) Apply(sessionID, targetID string, kind Kind, magnitude, duration int, appliedByID, sourceAbility string, turn int) (*Effect, error) {
	existing, err := e.store.GetEffect(sessionID, targetID, kind)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if existing != nil {
		return e.refresh(existing, magnitude, duration)
	}

	eff := &Effect{
		SessionID:      sessionID,
		ParticipantID:  targetID,
		Kind:           kind,
		Stacks:         1,
		Magnitude:      magnitude,
		RemainingTurns: duration,
		AppliedByID:    appliedByID,
		SourceAbility:  sourceAbility,
		AppliedAtTurn:  turn,
	}
	createErr := e.store.CreateEffect(eff)
	if createErr == nil {
		return eff, nil
	}
	if !errors.Is(createErr, gorm.ErrDuplicatedKey) {
		return nil, createErr
	}
	// Lost the insert race; the record exists now.
	existing, err = e.store.GetEffect(sessionID, targetID, kind)
	if err != nil {
		return nil, fmt.Errorf("effect apply retry failed for %s/%s/%s: %w", sessionID, targetID, kind, err)
	}
	return e.refresh(existing, magnitude, duration)
}

func (e *Engine) refresh(eff *Effect, magnitude, duration int) (*Effect, error) {
	if BehaviorFor(eff.Kind).Stackable {
		eff.Stacks++
	}
	eff.Magnitude = magnitude
	eff.RemainingTurns = duration
	if err := e.store.SaveEffect(eff); err != nil {
		return nil, err
	}
	return eff, nil
}

// TurnStartResult reports what happened when a participant's turn began.
type TurnStartResult struct {
	Messages []string
	Stunned  bool
}

// ProcessTurnStart walks the participant's active effects: damage-over-time
// kinds reduce health, regeneration restores it, a stun is flagged without
// touching health (the caller skips the participant's action).
func (e *Engine) ProcessTurnStart(s *battle.Session, participantID string) (TurnStartResult, error) {
	res := TurnStartResult{}
	list, err := e.store.ListEffects(s.ID, participantID)
	if err != nil {
		return res, err
	}
	token := battle.ParticipantToken(participantID)
	for i := range list {
		eff := &list[i]
		switch BehaviorFor(eff.Kind).TurnStart {
		case TurnStartDamage:
			dmg := eff.Magnitude * eff.Stacks
			if dmg < 0 {
				dmg = 0
			}
			s.ApplyDamage(participantID, dmg)
			res.Messages = append(res.Messages, token+" suffers "+strconv.Itoa(dmg)+" "+string(eff.Kind)+" damage")
		case TurnStartHeal:
			s.Heal(participantID, eff.Magnitude)
			res.Messages = append(res.Messages, token+" regenerates "+strconv.Itoa(eff.Magnitude)+" health")
		case TurnStartStun:
			res.Stunned = true
			res.Messages = append(res.Messages, token+" is stunned and cannot act")
		}
	}
	return res, nil
}

// Tick decrements the remaining duration of every effect the participant
// carries, deleting the ones that reach zero. Returns how many expired.
func (e *Engine) Tick(sessionID, participantID string) (int, error) {
	list, err := e.store.ListEffects(sessionID, participantID)
	if err != nil {
		return 0, err
	}
	expired := 0
	for i := range list {
		eff := &list[i]
		eff.RemainingTurns--
		if eff.RemainingTurns <= 0 {
			if err := e.store.DeleteEffect(eff); err != nil {
				return expired, err
			}
			expired++
			continue
		}
		if err := e.store.SaveEffect(eff); err != nil {
			return expired, err
		}
	}
	return expired, nil
}

// Remove deletes a single effect kind from a participant, if present.
func (e *Engine) Remove(sessionID, participantID string, kind Kind) error {
	eff, err := e.store.GetEffect(sessionID, participantID, kind)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	return e.store.DeleteEffect(eff)
}

// RemoveAll clears every effect the participant carries in this session.
func (e *Engine) RemoveAll(sessionID, participantID string) error {
	return e.store.DeleteEffectsForParticipant(sessionID, participantID)
}

// CleanupForSession drops all effect rows for an ended session.
func (e *Engine) CleanupForSession(sessionID string) error {
	return e.store.DeleteEffectsForSession(sessionID)
}

func (e *Engine) sum(sessionID, participantID string, pick func(Behavior, *Effect) int) (int, error) {
	list, err := e.store.ListEffects(sessionID, participantID)
	if err != nil {
		return 0, err
	}
	total := 0
	for i := range list {
		total += pick(BehaviorFor(list[i].Kind), &list[i])
	}
	return total, nil
}

// ACModifier is the signed armor-class delta from active effects.
func (e *Engine) ACModifier(sessionID, participantID string) (int, error) {
	return e.sum(sessionID, participantID, func(b Behavior, eff *Effect) int {
		return b.ACSign * eff.Magnitude
	})
}

// AttackModifier is the signed attack-roll delta from active effects.
func (e *Engine) AttackModifier(sessionID, participantID string) (int, error) {
	return e.sum(sessionID, participantID, func(b Behavior, eff *Effect) int {
		return b.AttackSign * eff.Magnitude
	})
}

// OutgoingDamagePercent is the signed percentage adjustment applied to
// damage the participant deals.
func (e *Engine) OutgoingDamagePercent(sessionID, participantID string) (int, error) {
	return e.sum(sessionID, participantID, func(b Behavior, eff *Effect) int {
		return b.OutgoingPct * eff.Magnitude
	})
}

// IncomingDamagePercent is the signed percentage adjustment applied to
// damage the participant receives.
func (e *Engine) IncomingDamagePercent(sessionID, participantID string) (int, error) {
	return e.sum(sessionID, participantID, func(b Behavior, eff *Effect) int {
		return b.IncomingPct * eff.Magnitude
	})
}

// ShieldValue returns the pooled absorption remaining on the participant.
func (e *Engine) ShieldValue(sessionID, participantID string) (int, error) {
	return e.sum(sessionID, participantID, func(b Behavior, eff *Effect) int {
		if b.Shield {
			return eff.Magnitude
		}
		return 0
	})
}

// ConsumeShield subtracts damage from the shield pool. It returns how much
// was absorbed and the residual damage that passes through. The shield
// effect is deleted once depleted or overwhelmed.
func (e *Engine) ConsumeShield(sessionID, participantID string, damage int) (absorbed, residual int, err error) {
	if damage <= 0 {
		return 0, 0, nil
	}
	eff, err := e.store.GetEffect(sessionID, participantID, KindShielded)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, damage, nil
		}
		return 0, damage, err
	}
	if damage >= eff.Magnitude {
		absorbed = eff.Magnitude
		residual = damage - eff.Magnitude
		if err := e.store.DeleteEffect(eff); err != nil {
			return absorbed, residual, err
		}
		return absorbed, residual, nil
	}
	eff.Magnitude -= damage
	if err := e.store.SaveEffect(eff); err != nil {
		return 0, damage, err
	}
	return damage, 0, nil
}

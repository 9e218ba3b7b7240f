package service

import (
	"errors"
	"time"

	"github.com/duelforge/arena/internal/battle"
	"github.com/duelforge/arena/internal/character"
	"github.com/duelforge/arena/internal/config"
	"github.com/duelforge/arena/internal/constants"
	"github.com/duelforge/arena/internal/effects"
	"github.com/duelforge/arena/internal/engine"
	"github.com/duelforge/arena/internal/logging"
	"github.com/duelforge/arena/internal/metrics"
	"github.com/duelforge/arena/internal/spells"
	"github.com/duelforge/arena/internal/storage"
	"gorm.io/gorm"
)

// SessionStore is the slice of the repository the orchestrator writes its
// durable transition mirror through.
type SessionStore interface {
	CreateSessionRecord(rec *storage.SessionRecord) error
	SaveSessionRecord(rec *storage.SessionRecord) error
	GetSessionRecord(sessionID string) (*storage.SessionRecord, error)
}

// Orchestrator owns the session cache, the per-user and per-session locks,
// and every public duel operation.
type Orchestrator struct {
	cfg       *config.Config
	chars     character.Provider
	store     SessionStore
	effects   *effects.Engine
	spells    *spells.Tracker
	collector *metrics.Collector

	cache        *SessionCache
	userLocks    *LockManager
	sessionLocks *LockManager
	roller       battle.Roller
}

func NewOrchestrator(cfg *config.Config, chars character.Provider, store SessionStore, effectEngine *effects.Engine, tracker *spells.Tracker, collector *metrics.Collector) *Orchestrator {
	return &Orchestrator{
		cfg:          cfg,
		chars:        chars,
		store:        store,
		effects:      effectEngine,
		spells:       tracker,
		collector:    collector,
		cache:        NewSessionCache(1024, cfg.ActiveIdleTTL, cfg.EndedRetention),
		userLocks:    NewLockManager(),
		sessionLocks: NewLockManager(),
		roller:       battle.NewRoller(),
	}
}

// WithRoller overrides the dice source for deterministic tests.
func (o *Orchestrator) WithRoller(r battle.Roller) *Orchestrator {
	o.roller = r
	return o
}

// AttackResult carries everything a presentation layer needs to narrate one
// attack without re-deriving combat math.
type AttackResult struct {
	Session  *battle.Session `json:"session"`
	Outcome  engine.Outcome  `json:"outcome"`
	Stunned  bool            `json:"stunned"`
	WinnerID string          `json:"winner_id"`
	Messages []string        `json:"messages"`
}

// CreateChallenge validates and creates a new pending session. Both
// participants' lock handles are held (in fixed order) across the
// check-then-act sequence so opposite-direction challenges serialize.
func (o *Orchestrator) CreateChallenge(guildID, challengerID, opponentID string) (*battle.Session, error) {
	if challengerID == opponentID {
		return nil, conflict("you cannot challenge yourself")
	}
	unlock := o.userLocks.LockPair(challengerID, opponentID)
	defer unlock()

	_, found, err := o.chars.Find(guildID, challengerID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, conflict("you need a character before starting a duel")
	}
	if busy := o.FindBusy(challengerID); busy != nil {
		return nil, conflict("you are already in a battle")
	}
	if busy := o.FindBusy(opponentID); busy != nil {
		return nil, conflict("that player is already in a battle")
	}
	if existing := o.FindBetween(challengerID, opponentID); existing != nil {
		return nil, conflict("a challenge already exists between these users")
	}
	if o.guildSessionCount(guildID) >= o.cfg.MaxSessionsPerGuild {
		return nil, conflict("too many battles running in this server right now")
	}

	s := battle.NewSession(guildID, challengerID, opponentID)
	s.AppendLog(battle.ParticipantToken(challengerID) + " challenges " + battle.ParticipantToken(opponentID) + " to a duel")

	// The session becomes visible to other goroutines the moment it enters
	// the cache, so even the initial mirror write runs under its lock.
	sessionUnlock := o.sessionLocks.Lock(s.ID)
	inserted := o.cache.Put(s)
	var snap *battle.Session
	if inserted {
		o.persist(s)
		snap = o.snapshot(s)
	}
	sessionUnlock()
	if !inserted {
		return nil, conflict("the arena is full, try again shortly")
	}
	o.collector.ChallengeCreated()
	o.publishGauges()
	logging.Info("challenge created", logging.Fields{
		constants.LogFieldSessionID:  s.ID,
		constants.LogFieldGuildID:    guildID,
		constants.LogFieldChallenger: challengerID,
		constants.LogFieldOpponent:   opponentID,
	})
	return snap, nil
}

// AcceptChallenge transitions a pending session to active. An aged-out
// challenge is auto-expired as a side effect of the attempt.
func (o *Orchestrator) AcceptChallenge(sessionID, accepterID string) (*battle.Session, error) {
	// Registered before the lock so it fires after release; publishing
	// iterates every cached session and takes each session's lock.
	defer o.publishGauges()
	unlock := o.sessionLocks.Lock(sessionID)
	defer unlock()

	s, ok := o.cache.Get(sessionID)
	if !ok {
		return nil, notFound("challenge not found")
	}
	if s.Status != battle.StatusPending {
		return nil, invalidState("this challenge is no longer pending")
	}
	if s.PendingExpired(o.cfg.ChallengeExpiry, time.Now()) {
		o.endSession(s, battle.EndReasonDeclined, "")
		o.collector.ChallengeDeclined()
		return nil, expired("this challenge has expired")
	}
	if accepterID != s.OpponentID {
		return nil, unauthorized("only the challenged player can accept")
	}

	challenger, found, err := o.chars.Find(s.GuildID, s.ChallengerID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, conflict("the challenger no longer has a character")
	}
	opponent, found, err := o.chars.Find(s.GuildID, s.OpponentID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, conflict("you need a character before accepting a duel")
	}

	s.Activate(o.startingHealth(challenger), o.startingHealth(opponent))
	s.AppendLog(battle.ParticipantToken(accepterID) + " accepts the duel")
	if err := o.spells.InitializeSlots(challenger); err != nil {
		logging.Error("failed to initialize challenger spell slots", err, logging.Fields{constants.LogFieldSessionID: s.ID})
	}
	if err := o.spells.InitializeSlots(opponent); err != nil {
		logging.Error("failed to initialize opponent spell slots", err, logging.Fields{constants.LogFieldSessionID: s.ID})
	}
	o.cache.Put(s)
	o.persist(s)
	o.collector.ChallengeAccepted()
	return o.snapshot(s), nil
}

// DeclineChallenge ends a pending session with the decline cause. Only the
// challenged player may decline.
func (o *Orchestrator) DeclineChallenge(sessionID, declinerID string) (*battle.Session, error) {
	defer o.publishGauges()
	unlock := o.sessionLocks.Lock(sessionID)
	defer unlock()

	s, ok := o.cache.Get(sessionID)
	if !ok {
		return nil, notFound("challenge not found")
	}
	if s.Status != battle.StatusPending {
		return nil, invalidState("this challenge is no longer pending")
	}
	if declinerID != s.OpponentID {
		return nil, unauthorized("only the challenged player can decline")
	}
	s.AppendLog(battle.ParticipantToken(declinerID) + " declines the duel")
	o.endSession(s, battle.EndReasonDeclined, "")
	o.collector.ChallengeDeclined()
	return o.snapshot(s), nil
}

// PerformAttack resolves one turn for the current turn owner. abilityKey
// selects a learned ability ("" for a basic attack); abilities with resource
// costs consult the spell tracker before any session mutation.
func (o *Orchestrator) PerformAttack(sessionID, actorID, abilityKey string) (*AttackResult, error) {
	defer o.publishGauges()
	unlock := o.sessionLocks.Lock(sessionID)
	defer unlock()

	s, ok := o.cache.Get(sessionID)
	if !ok {
		return nil, notFound("battle not found")
	}
	if s.Status != battle.StatusActive {
		return nil, invalidState("this battle is not active")
	}
	if !s.IsParticipant(actorID) {
		return nil, unauthorized("you are not part of this battle")
	}
	if s.CurrentTurnID != actorID {
		return nil, unauthorized("not your turn")
	}
	defenderID := s.OtherParticipant(actorID)
	turnStarted := s.LastActionAt

	attacker, found, err := o.chars.Find(s.GuildID, actorID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, conflict("your character is missing")
	}
	defender, found, err := o.chars.Find(s.GuildID, defenderID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, conflict("your opponent's character is missing")
	}

	result := &AttackResult{}

	// Turn-start effects: damage over time, regeneration, stun.
	ts, err := o.effects.ProcessTurnStart(s, actorID)
	if err != nil {
		return nil, err
	}
	for _, msg := range ts.Messages {
		s.AppendLog(msg)
	}
	result.Messages = ts.Messages
	if s.HealthOf(actorID) == 0 {
		s.AppendLog(battle.ParticipantToken(actorID) + " succumbs to their wounds")
		o.endSession(s, battle.EndReasonCompleted, defenderID)
		result.Session = o.snapshot(s)
		result.WinnerID = defenderID
		return result, nil
	}
	if ts.Stunned {
		result.Stunned = true
		o.finishTurn(s, actorID, turnStarted)
		result.Session = o.snapshot(s)
		return result, nil
	}

	var ability character.Ability
	if abilityKey != "" {
		ab, learned := attacker.AbilityByKey(abilityKey)
		if !learned {
			return nil, conflict("you have not learned that ability")
		}
		charKey := spells.CharacterKey(s.GuildID, actorID)
		available, err := o.spells.IsAbilityAvailable(charKey, ab)
		if err != nil {
			return nil, err
		}
		if !available {
			return nil, conflict("that ability is still on cooldown")
		}
		if ab.SlotLevel > 0 {
			consumed, err := o.spells.Consume(charKey, ab.SlotLevel)
			if err != nil {
				return nil, err
			}
			if !consumed {
				return nil, conflict("you are out of spell slots for that ability")
			}
		}
		if err := o.spells.StartCooldown(charKey, ab); err != nil {
			return nil, err
		}
		ability = ab
		o.collector.SpellCast()
	} else {
		o.collector.AttackAction()
	}

	atkProfile, defProfile, err := o.buildProfiles(s, attacker, defender, actorID, defenderID, ability)
	if err != nil {
		return nil, err
	}
	outcome := engine.ResolveAttack(o.roller, o.cfg.Params(), atkProfile, defProfile)
	result.Outcome = outcome
	if outcome.Crit {
		o.collector.CriticalHit()
	}
	if outcome.ShieldAbsorbed > 0 {
		if _, _, err := o.effects.ConsumeShield(s.ID, defenderID, outcome.ShieldAbsorbed); err != nil {
			logging.Error("failed to consume shield", err, logging.Fields{constants.LogFieldSessionID: s.ID})
		}
	}
	s.AppendLog(outcome.Narrate(actorID))
	if outcome.Hit {
		s.ApplyDamage(defenderID, outcome.Damage)
	}

	if outcome.Hit && s.HealthOf(defenderID) == 0 {
		s.AppendLog(battle.ParticipantToken(defenderID) + " has been defeated — " + battle.ParticipantToken(actorID) + " wins the duel")
		o.endSession(s, battle.EndReasonCompleted, actorID)
		o.collector.TurnPlayed()
		o.collector.ObserveTurnDuration(time.Since(turnStarted))
		result.Session = o.snapshot(s)
		result.WinnerID = actorID
		return result, nil
	}

	o.finishTurn(s, actorID, turnStarted)
	result.Session = o.snapshot(s)
	return result, nil
}

// defendACBonus is the temporary armor bonus granted by a defensive stance.
// Duration 2 survives the actor's own end-of-turn tick and lapses after the
// opponent's next action resolves.
const defendACBonus = 2

// PerformDefend has the current turn owner brace instead of attacking,
// gaining a temporary armor bonus until their next turn.
func (o *Orchestrator) PerformDefend(sessionID, actorID string) (*AttackResult, error) {
	defer o.publishGauges()
	unlock := o.sessionLocks.Lock(sessionID)
	defer unlock()

	s, ok := o.cache.Get(sessionID)
	if !ok {
		return nil, notFound("battle not found")
	}
	if s.Status != battle.StatusActive {
		return nil, invalidState("this battle is not active")
	}
	if !s.IsParticipant(actorID) {
		return nil, unauthorized("you are not part of this battle")
	}
	if s.CurrentTurnID != actorID {
		return nil, unauthorized("not your turn")
	}
	turnStarted := s.LastActionAt

	result := &AttackResult{}
	ts, err := o.effects.ProcessTurnStart(s, actorID)
	if err != nil {
		return nil, err
	}
	for _, msg := range ts.Messages {
		s.AppendLog(msg)
	}
	result.Messages = ts.Messages
	if s.HealthOf(actorID) == 0 {
		winnerID := s.OtherParticipant(actorID)
		s.AppendLog(battle.ParticipantToken(actorID) + " succumbs to their wounds")
		o.endSession(s, battle.EndReasonCompleted, winnerID)
		result.Session = o.snapshot(s)
		result.WinnerID = winnerID
		return result, nil
	}
	if ts.Stunned {
		result.Stunned = true
		o.finishTurn(s, actorID, turnStarted)
		result.Session = o.snapshot(s)
		return result, nil
	}

	if _, err := o.effects.Apply(s.ID, actorID, effects.KindStoneskin, defendACBonus, 2, actorID, "defend", s.TurnCount); err != nil {
		return nil, err
	}
	s.AppendLog(battle.ParticipantToken(actorID) + " takes a defensive stance")
	o.collector.DefendAction()
	o.finishTurn(s, actorID, turnStarted)
	result.Session = o.snapshot(s)
	return result, nil
}

// Forfeit ends a not-yet-ended session, awarding the win to the other
// participant.
func (o *Orchestrator) Forfeit(sessionID, actorID string) (*battle.Session, error) {
	defer o.publishGauges()
	unlock := o.sessionLocks.Lock(sessionID)
	defer unlock()

	s, ok := o.cache.Get(sessionID)
	if !ok {
		return nil, notFound("battle not found")
	}
	if s.Status == battle.StatusEnded {
		return nil, invalidState("this battle has already ended")
	}
	if !s.IsParticipant(actorID) {
		return nil, unauthorized("you are not part of this battle")
	}
	winnerID := s.OtherParticipant(actorID)
	s.AppendLog(battle.ParticipantToken(actorID) + " forfeits the duel")
	o.endSession(s, battle.EndReasonForfeited, winnerID)
	return o.snapshot(s), nil
}

// AdminCancel force-ends a session with the aborted cause, with no winner.
func (o *Orchestrator) AdminCancel(sessionID string) (*battle.Session, error) {
	defer o.publishGauges()
	unlock := o.sessionLocks.Lock(sessionID)
	defer unlock()

	s, ok := o.cache.Get(sessionID)
	if !ok {
		return nil, notFound("battle not found")
	}
	if s.Status == battle.StatusEnded {
		return nil, invalidState("this battle has already ended")
	}
	s.AppendLog("the duel was cancelled by an administrator")
	o.endSession(s, battle.EndReasonAborted, "")
	return o.snapshot(s), nil
}

// GetSession returns a snapshot of the cached session.
func (o *Orchestrator) GetSession(sessionID string) (*battle.Session, error) {
	unlock := o.sessionLocks.Lock(sessionID)
	defer unlock()

	s, ok := o.cache.Get(sessionID)
	if !ok {
		return nil, notFound("battle not found")
	}
	return o.snapshot(s), nil
}

// FindBusy returns a snapshot of the non-ended session the user
// participates in, if any. Participant ids are immutable after creation, so
// only the status check and the copy need the session's lock.
func (o *Orchestrator) FindBusy(userID string) *battle.Session {
	for _, s := range o.cache.All() {
		if !s.IsParticipant(userID) {
			continue
		}
		if snap := o.snapshotIfLive(s); snap != nil {
			return snap
		}
	}
	return nil
}

// FindBetween returns a snapshot of the non-ended session pairing the two
// users, regardless of who challenged whom.
func (o *Orchestrator) FindBetween(a, b string) *battle.Session {
	for _, s := range o.cache.All() {
		if (s.ChallengerID != a || s.OpponentID != b) && (s.ChallengerID != b || s.OpponentID != a) {
			continue
		}
		if snap := o.snapshotIfLive(s); snap != nil {
			return snap
		}
	}
	return nil
}

// Sweep force-expires stale pending challenges, reaps lock handles for
// users no longer in any non-ended session, and republishes gauges. Runs
// periodically and is safe to call on demand.
func (o *Orchestrator) Sweep() {
	o.ExpireStalePending()
	o.ReleaseIdleLocks()
	o.publishGauges()
}

// ExpireStalePending ends pending challenges older than the acceptance
// window. Returns how many were expired.
func (o *Orchestrator) ExpireStalePending() int {
	now := time.Now()
	expiredCount := 0
	for _, s := range o.cache.All() {
		unlock := o.sessionLocks.Lock(s.ID)
		if s.PendingExpired(o.cfg.ChallengeExpiry, now) {
			s.AppendLog("the challenge expired unanswered")
			o.endSession(s, battle.EndReasonDeclined, "")
			o.collector.ChallengeDeclined()
			expiredCount++
		}
		unlock()
	}
	return expiredCount
}

// ReleaseIdleLocks drops per-user lock handles for users not referenced by
// any non-ended session.
func (o *Orchestrator) ReleaseIdleLocks() int {
	keep := map[string]bool{}
	for _, s := range o.cache.All() {
		if o.sessionStatus(s) != battle.StatusEnded {
			keep[s.ChallengerID] = true
			keep[s.OpponentID] = true
		}
	}
	return o.userLocks.ReleaseExcept(keep)
}

// --- internals ----------------------------------------------------------

func (o *Orchestrator) startingHealth(c *character.Character) int {
	hp := o.cfg.BaseHealthFor(c.ClassID) + character.Modifier(c.Scores.Constitution)
	if hp < 1 {
		hp = 1
	}
	return hp
}

func (o *Orchestrator) buildProfiles(s *battle.Session, attacker, defender *character.Character, actorID, defenderID string, ability character.Ability) (engine.AttackerProfile, engine.DefenderProfile, error) {
	atk := engine.AttackerProfile{
		ID:                 actorID,
		AbilityModifier:    character.Modifier(attacker.Scores.Strength),
		AbilityAttackBonus: ability.AttackBonus,
		FlatDamageBonus:    ability.DamageBonus,
		CritMultiplier:     ability.CritMultiplier,
	}
	def := engine.DefenderProfile{
		ID:              defenderID,
		AgilityModifier: character.Modifier(defender.Scores.Dexterity),
		AbilityACBonus:  defender.PassiveACBonus(),
	}
	var err error
	if atk.EffectAttackBonus, err = o.effects.AttackModifier(s.ID, actorID); err != nil {
		return atk, def, err
	}
	if atk.OutgoingPct, err = o.effects.OutgoingDamagePercent(s.ID, actorID); err != nil {
		return atk, def, err
	}
	if def.EffectACBonus, err = o.effects.ACModifier(s.ID, defenderID); err != nil {
		return atk, def, err
	}
	if def.IncomingPct, err = o.effects.IncomingDamagePercent(s.ID, defenderID); err != nil {
		return atk, def, err
	}
	if def.ShieldPool, err = o.effects.ShieldValue(s.ID, defenderID); err != nil {
		return atk, def, err
	}
	return atk, def, nil
}

// finishTurn ticks the actor's effect durations, advances the turn and
// records turn metrics.
func (o *Orchestrator) finishTurn(s *battle.Session, actorID string, turnStarted time.Time) {
	if _, err := o.effects.Tick(s.ID, actorID); err != nil {
		logging.Error("failed to tick effects", err, logging.Fields{constants.LogFieldSessionID: s.ID})
	}
	s.AdvanceTurn()
	o.persist(s)
	o.collector.TurnPlayed()
	o.collector.ObserveTurnDuration(time.Since(turnStarted))
}

// endSession moves the session to ended, demotes it in the cache, mirrors
// the transition durably and emits end-of-battle metrics.
func (o *Orchestrator) endSession(s *battle.Session, reason battle.EndReason, winnerID string) {
	wasActive := s.Status == battle.StatusActive
	s.End(reason, winnerID)
	if err := o.effects.CleanupForSession(s.ID); err != nil {
		logging.Error("failed to clean up session effects", err, logging.Fields{constants.LogFieldSessionID: s.ID})
	}
	o.cache.Demote(s)
	o.persist(s)
	o.collector.BattleEnded(reason)
	if wasActive && !s.ActivatedAt.IsZero() {
		o.collector.ObserveBattleDuration(time.Since(s.ActivatedAt))
	}
	logging.Info("session ended", logging.Fields{
		constants.LogFieldSessionID: s.ID,
		constants.LogFieldGuildID:   s.GuildID,
		constants.LogFieldEndReason: string(reason),
		constants.LogFieldTurn:      s.TurnCount,
	})
}

// persist mirrors the session into the durable store. The in-memory
// session stays authoritative; mirror failures are logged, never surfaced.
func (o *Orchestrator) persist(s *battle.Session) {
	rec, err := o.store.GetSessionRecord(s.ID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logging.Error("failed to load session record", err, logging.Fields{constants.LogFieldSessionID: s.ID})
			return
		}
		rec = storage.NewSessionRecord(s)
		if err := o.store.CreateSessionRecord(rec); err != nil {
			logging.Error("failed to create session record", err, logging.Fields{constants.LogFieldSessionID: s.ID})
		}
		return
	}
	rec.SyncFromSession(s)
	if err := o.store.SaveSessionRecord(rec); err != nil {
		logging.Error("failed to update session record", err, logging.Fields{constants.LogFieldSessionID: s.ID})
	}
}

func (o *Orchestrator) guildSessionCount(guildID string) int {
	n := 0
	for _, s := range o.cache.All() {
		if s.GuildID == guildID && o.sessionStatus(s) != battle.StatusEnded {
			n++
		}
	}
	return n
}

// publishGauges takes each session's lock while reading its status, so it
// must never run while the caller already holds one.
func (o *Orchestrator) publishGauges() {
	var pending, active int64
	for _, s := range o.cache.All() {
		switch o.sessionStatus(s) {
		case battle.StatusPending:
			pending++
		case battle.StatusActive:
			active++
		}
	}
	o.collector.SetSessionGauges(pending, active)
}

// sessionStatus reads the status under the session's lock.
func (o *Orchestrator) sessionStatus(s *battle.Session) battle.Status {
	unlock := o.sessionLocks.Lock(s.ID)
	status := s.Status
	unlock()
	return status
}

// snapshotIfLive copies the session under its lock, or returns nil if it
// has already ended.
func (o *Orchestrator) snapshotIfLive(s *battle.Session) *battle.Session {
	unlock := o.sessionLocks.Lock(s.ID)
	defer unlock()
	if s.Status == battle.StatusEnded {
		return nil
	}
	return o.snapshot(s)
}

// snapshot copies the session so callers outside the lock never observe a
// partially mutated state. Callers must hold the session's lock.
func (o *Orchestrator) snapshot(s *battle.Session) *battle.Session {
	clone := *s
	clone.Log = append([]string(nil), s.Log...)
	return &clone
}

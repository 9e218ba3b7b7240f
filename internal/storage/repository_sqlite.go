package storage

import (
	"time"

	"github.com/duelforge/arena/internal/battle"
	"github.com/duelforge/arena/internal/effects"
	"github.com/duelforge/arena/internal/spells"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type sqliteRepository struct {
	db *gorm.DB
}

func NewSQLiteRepository(db *gorm.DB) Repository {
	return &sqliteRepository{db: db}
}

// --- durable session mirror --------------------------------------------

func (r *sqliteRepository) CreateSessionRecord(rec *SessionRecord) error {
	return r.db.Create(rec).Error
}

func (r *sqliteRepository) SaveSessionRecord(rec *SessionRecord) error {
	return r.db.Save(rec).Error
}

func (r *sqliteRepository) GetSessionRecord(sessionID string) (*SessionRecord, error) {
	var rec SessionRecord
	if err := r.db.Where("session_id = ?", sessionID).First(&rec).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *sqliteRepository) FindSessionsByStatus(statuses ...battle.Status) ([]SessionRecord, error) {
	var recs []SessionRecord
	if err := r.db.Where("status IN ?", statuses).Order("created_at asc").Find(&recs).Error; err != nil {
		return nil, err
	}
	return recs, nil
}

func (r *sqliteRepository) FindStaleActiveSessions(cutoff time.Time) ([]SessionRecord, error) {
	var recs []SessionRecord
	if err := r.db.
		Where("status = ? AND last_action_at <= ?", battle.StatusActive, cutoff).
		Order("last_action_at asc").
		Find(&recs).Error; err != nil {
		return nil, err
	}
	return recs, nil
}

func (r *sqliteRepository) CountSessionsByStatus() (map[battle.Status]int64, error) {
	type row struct {
		Status battle.Status
		Total  int64
	}
	var rows []row
	if err := r.db.Model(&SessionRecord{}).
		Select("status, count(*) as total").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[battle.Status]int64, len(rows))
	for _, rr := range rows {
		out[rr.Status] = rr.Total
	}
	return out, nil
}

// --- status effects -----------------------------------------------------
// Effect deletes are hard deletes: the uniqueness index on
// (session, participant, kind) must accept a reapplied effect after expiry.

func (r *sqliteRepository) GetEffect(sessionID, participantID string, kind effects.Kind) (*effects.Effect, error) {
	var eff effects.Effect
	if err := r.db.
		Where("session_id = ? AND participant_id = ? AND kind = ?", sessionID, participantID, kind).
		First(&eff).Error; err != nil {
		return nil, err
	}
	return &eff, nil
}

func (r *sqliteRepository) CreateEffect(e *effects.Effect) error {
	return r.db.Create(e).Error
}

func (r *sqliteRepository) SaveEffect(e *effects.Effect) error {
	return r.db.Save(e).Error
}

func (r *sqliteRepository) DeleteEffect(e *effects.Effect) error {
	return r.db.Unscoped().Delete(e).Error
}

func (r *sqliteRepository) ListEffects(sessionID, participantID string) ([]effects.Effect, error) {
	var list []effects.Effect
	if err := r.db.
		Where("session_id = ? AND participant_id = ?", sessionID, participantID).
		Order("id asc").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *sqliteRepository) DeleteEffectsForParticipant(sessionID, participantID string) error {
	return r.db.Unscoped().
		Where("session_id = ? AND participant_id = ?", sessionID, participantID).
		Delete(&effects.Effect{}).Error
}

func (r *sqliteRepository) DeleteEffectsForSession(sessionID string) error {
	return r.db.Unscoped().
		Where("session_id = ?", sessionID).
		Delete(&effects.Effect{}).Error
}

// --- spell slots and cooldowns -----------------------------------------

func (r *sqliteRepository) ListSlotPools(characterKey string) ([]spells.SlotPool, error) {
	var pools []spells.SlotPool
	if err := r.db.
		Where("character_key = ?", characterKey).
		Order("level asc").
		Find(&pools).Error; err != nil {
		return nil, err
	}
	return pools, nil
}

func (r *sqliteRepository) GetSlotPool(characterKey string, level int) (*spells.SlotPool, error) {
	var pool spells.SlotPool
	if err := r.db.
		Where("character_key = ? AND level = ?", characterKey, level).
		First(&pool).Error; err != nil {
		return nil, err
	}
	return &pool, nil
}

func (r *sqliteRepository) CreateSlotPools(pools []spells.SlotPool) error {
	return r.db.Create(&pools).Error
}

func (r *sqliteRepository) SaveSlotPool(pool *spells.SlotPool) error {
	return r.db.Save(pool).Error
}

func (r *sqliteRepository) GetCooldown(characterKey, abilityKey string) (*spells.Cooldown, error) {
	var cd spells.Cooldown
	if err := r.db.
		Where("character_key = ? AND ability_key = ?", characterKey, abilityKey).
		First(&cd).Error; err != nil {
		return nil, err
	}
	return &cd, nil
}

func (r *sqliteRepository) UpsertCooldown(cd *spells.Cooldown) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "character_key"}, {Name: "ability_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_used_at", "available_at", "updated_at"}),
	}).Create(cd).Error
}

func (r *sqliteRepository) DeleteCooldownsBefore(cutoff time.Time) (int64, error) {
	res := r.db.Unscoped().
		Where("available_at < ?", cutoff).
		Delete(&spells.Cooldown{})
	return res.RowsAffected, res.Error
}

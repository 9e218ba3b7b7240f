package storage

import (
	"time"

	"github.com/duelforge/arena/internal/battle"
	"github.com/duelforge/arena/internal/effects"
	"github.com/duelforge/arena/internal/spells"
)

// Repository is the full persistence surface of the duel core: the durable
// session mirror plus the stores the status-effect engine and the spell
// tracker plug into.
type Repository interface {
	CreateSessionRecord(r *SessionRecord) error
	SaveSessionRecord(r *SessionRecord) error
	GetSessionRecord(sessionID string) (*SessionRecord, error)
	// FindSessionsByStatus returns all durable records in any of the given
	// states, oldest first.
	FindSessionsByStatus(statuses ...battle.Status) ([]SessionRecord, error)
	// FindStaleActiveSessions returns active records whose last action is at
	// or before the cutoff.
	FindStaleActiveSessions(cutoff time.Time) ([]SessionRecord, error)
	CountSessionsByStatus() (map[battle.Status]int64, error)

	effects.Store
	spells.Store
}

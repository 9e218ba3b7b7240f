package recovery

import (
	"time"

	"github.com/duelforge/arena/internal/battle"
	"github.com/duelforge/arena/internal/constants"
	"github.com/duelforge/arena/internal/logging"
	"github.com/duelforge/arena/internal/metrics"
	"github.com/duelforge/arena/internal/storage"
)

// Store is the slice of the repository the sweeper needs.
type Store interface {
	FindSessionsByStatus(statuses ...battle.Status) ([]storage.SessionRecord, error)
	FindStaleActiveSessions(cutoff time.Time) ([]storage.SessionRecord, error)
	SaveSessionRecord(r *storage.SessionRecord) error
	CountSessionsByStatus() (map[battle.Status]int64, error)
	DeleteEffectsForSession(sessionID string) error
}

// Sweeper closes out durable session records that in-memory state can no
// longer vouch for: leftovers from a previous process at startup, and
// sessions whose participants walked away mid-battle.
type Sweeper struct {
	store       Store
	collector   *metrics.Collector
	turnTimeout time.Duration
}

func NewSweeper(store Store, collector *metrics.Collector, turnTimeout time.Duration) *Sweeper {
	return &Sweeper{store: store, collector: collector, turnTimeout: turnTimeout}
}

// RecoverOnStartup ends every pending or active record left behind by a
// previous process with the aborted cause. Runs before the process serves
// traffic. A record that fails to save is logged and skipped so one bad row
// cannot block startup.
func (s *Sweeper) RecoverOnStartup() (int, error) {
	records, err := s.store.FindSessionsByStatus(battle.StatusPending, battle.StatusActive)
	if err != nil {
		return 0, err
	}
	recovered := 0
	for i := range records {
		rec := &records[i]
		if err := s.closeRecord(rec, battle.EndReasonAborted); err != nil {
			logging.Error("startup recovery failed for session", err, logging.Fields{
				constants.LogFieldSessionID: rec.SessionID,
				constants.LogFieldStatus:    string(rec.Status),
			})
			continue
		}
		logging.Info("recovered orphaned session", logging.Fields{
			constants.LogFieldSessionID: rec.SessionID,
			constants.LogFieldGuildID:   rec.GuildID,
			constants.LogFieldEndReason: string(battle.EndReasonAborted),
		})
		recovered++
	}
	return recovered, nil
}

// ReapStale ends active records whose last action predates several turn
// timeouts. These are battles the orchestrator lost track of (its cache
// entry aged out) or whose participants disappeared.
func (s *Sweeper) ReapStale(now time.Time) (int, error) {
	cutoff := now.Add(-2 * s.turnTimeout)
	records, err := s.store.FindStaleActiveSessions(cutoff)
	if err != nil {
		return 0, err
	}
	reaped := 0
	for i := range records {
		rec := &records[i]
		if err := s.closeRecord(rec, battle.EndReasonTimedOut); err != nil {
			logging.Error("failed to reap stale session", err, logging.Fields{
				constants.LogFieldSessionID: rec.SessionID,
			})
			continue
		}
		logging.Info("reaped stale session", logging.Fields{
			constants.LogFieldSessionID: rec.SessionID,
			constants.LogFieldGuildID:   rec.GuildID,
			constants.LogFieldTurn:      rec.TurnCount,
		})
		reaped++
	}
	return reaped, nil
}

func (s *Sweeper) closeRecord(rec *storage.SessionRecord, reason battle.EndReason) error {
	rec.Status = battle.StatusEnded
	rec.EndReason = reason
	rec.WinnerID = ""
	rec.LastActionAt = time.Now()
	if rec.EndedAt == nil {
		now := time.Now()
		rec.EndedAt = &now
	}
	if err := s.store.SaveSessionRecord(rec); err != nil {
		return err
	}
	if err := s.store.DeleteEffectsForSession(rec.SessionID); err != nil {
		logging.Error("failed to clean up effects for closed session", err, logging.Fields{
			constants.LogFieldSessionID: rec.SessionID,
		})
	}
	s.collector.BattleEnded(reason)
	return nil
}

// ListUnfinished returns the durable records still in a non-terminal state.
func (s *Sweeper) ListUnfinished() ([]storage.SessionRecord, error) {
	return s.store.FindSessionsByStatus(battle.StatusPending, battle.StatusActive)
}

// CountByStatus returns the durable census per session status.
func (s *Sweeper) CountByStatus() (map[battle.Status]int64, error) {
	return s.store.CountSessionsByStatus()
}

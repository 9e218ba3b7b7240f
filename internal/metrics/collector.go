package metrics

import (
	"time"

	"github.com/duelforge/arena/internal/battle"
	gometrics "github.com/rcrowley/go-metrics"
)

// Collector aggregates duel counters, gauges and timers. Every method is
// fire-and-forget: collection never gates or fails an orchestrator
// operation.
type Collector struct {
	registry gometrics.Registry

	challengeCreated  gometrics.Counter
	challengeAccepted gometrics.Counter
	challengeDeclined gometrics.Counter

	battleCompleted gometrics.Counter
	battleForfeited gometrics.Counter
	battleTimedOut  gometrics.Counter
	battleAborted   gometrics.Counter

	turnsPlayed gometrics.Counter
	attacks     gometrics.Counter
	defends     gometrics.Counter
	spellCasts  gometrics.Counter
	criticals   gometrics.Counter

	activeSessions  gometrics.Gauge
	pendingSessions gometrics.Gauge

	turnDuration   gometrics.Timer
	battleDuration gometrics.Timer
}

func NewCollector() *Collector {
	r := gometrics.NewRegistry()
	return &Collector{
		registry:          r,
		challengeCreated:  gometrics.GetOrRegisterCounter("challenge.created", r),
		challengeAccepted: gometrics.GetOrRegisterCounter("challenge.accepted", r),
		challengeDeclined: gometrics.GetOrRegisterCounter("challenge.declined", r),
		battleCompleted:   gometrics.GetOrRegisterCounter("battle.completed", r),
		battleForfeited:   gometrics.GetOrRegisterCounter("battle.forfeited", r),
		battleTimedOut:    gometrics.GetOrRegisterCounter("battle.timed_out", r),
		battleAborted:     gometrics.GetOrRegisterCounter("battle.aborted", r),
		turnsPlayed:       gometrics.GetOrRegisterCounter("turns.played", r),
		attacks:           gometrics.GetOrRegisterCounter("actions.attack", r),
		defends:           gometrics.GetOrRegisterCounter("actions.defend", r),
		spellCasts:        gometrics.GetOrRegisterCounter("actions.spell_cast", r),
		criticals:         gometrics.GetOrRegisterCounter("actions.critical", r),
		activeSessions:    gometrics.GetOrRegisterGauge("sessions.active", r),
		pendingSessions:   gometrics.GetOrRegisterGauge("sessions.pending", r),
		turnDuration:      gometrics.GetOrRegisterTimer("duration.turn", r),
		battleDuration:    gometrics.GetOrRegisterTimer("duration.battle", r),
	}
}

func (c *Collector) ChallengeCreated() { c.challengeCreated.Inc(1) }
func (c *Collector) ChallengeAccepted() { c.challengeAccepted.Inc(1) }
func (c *Collector) ChallengeDeclined() { c.challengeDeclined.Inc(1) }

// BattleEnded bumps the counter matching the end reason.
func (c *Collector) BattleEnded(reason battle.EndReason) {
	switch reason {
	case battle.EndReasonCompleted:
		c.battleCompleted.Inc(1)
	case battle.EndReasonForfeited:
		c.battleForfeited.Inc(1)
	case battle.EndReasonTimedOut:
		c.battleTimedOut.Inc(1)
	case battle.EndReasonAborted:
		c.battleAborted.Inc(1)
	}
}

func (c *Collector) TurnPlayed() { c.turnsPlayed.Inc(1) }
func (c *Collector) AttackAction() { c.attacks.Inc(1) }
func (c *Collector) DefendAction() { c.defends.Inc(1) }
func (c *Collector) SpellCast() { c.spellCasts.Inc(1) }
func (c *Collector) CriticalHit() { c.criticals.Inc(1) }

// SetSessionGauges publishes the current cache census.
func (c *Collector) SetSessionGauges(pending, active int64) {
	c.pendingSessions.Update(pending)
	c.activeSessions.Update(active)
}

func (c *Collector) ObserveTurnDuration(d time.Duration) { c.turnDuration.Update(d) }
func (c *Collector) ObserveBattleDuration(d time.Duration) { c.battleDuration.Update(d) }

// Snapshot renders every metric into a plain map for the stats surface.
func (c *Collector) Snapshot() map[string]interface{} {
	out := map[string]interface{}{}
	c.registry.Each(func(name string, m interface{}) {
		switch v := m.(type) {
		case gometrics.Counter:
			out[name] = v.Count()
		case gometrics.Gauge:
			out[name] = v.Value()
		case gometrics.Timer:
			t := v.Snapshot()
			out[name] = map[string]interface{}{
				"count":   t.Count(),
				"mean_ms": t.Mean() / float64(time.Millisecond),
				"p95_ms":  t.Percentile(0.95) / float64(time.Millisecond),
				"max_ms":  float64(t.Max()) / float64(time.Millisecond),
			}
		}
	})
	return out
}

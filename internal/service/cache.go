package service

import (
	"time"

	"github.com/duelforge/arena/internal/battle"
	gocache "github.com/patrickmn/go-cache"
)

// SessionCache is the bounded hot store for live sessions. TTLs adapt to
// session status: non-ended sessions get a long idle window that refreshes
// on access, ended sessions are demoted to a short retention window that
// reads never extend.
type SessionCache struct {
	items     *gocache.Cache
	maxItems  int
	activeTTL time.Duration
	endedTTL  time.Duration
}

func NewSessionCache(maxItems int, activeTTL, endedTTL time.Duration) *SessionCache {
	return &SessionCache{
		items:     gocache.New(activeTTL, time.Minute),
		maxItems:  maxItems,
		activeTTL: activeTTL,
		endedTTL:  endedTTL,
	}
}

func (c *SessionCache) ttlFor(s *battle.Session) time.Duration {
	if s.Status == battle.StatusEnded {
		return c.endedTTL
	}
	return c.activeTTL
}

// Put inserts or refreshes a session. When the cache is full it tries to
// evict one ended session first; if nothing is evictable the insert is
// refused and the caller surfaces a busy condition.
func (c *SessionCache) Put(s *battle.Session) bool {
	if _, exists := c.items.Get(s.ID); !exists && c.items.ItemCount() >= c.maxItems {
		if !c.evictOneEnded() {
			return false
		}
	}
	c.items.Set(s.ID, s, c.ttlFor(s))
	return true
}

func (c *SessionCache) evictOneEnded() bool {
	for id, item := range c.items.Items() {
		if s, ok := item.Object.(*battle.Session); ok && s.Status == battle.StatusEnded {
			c.items.Delete(id)
			return true
		}
	}
	return false
}

// Get returns the cached session. Access refreshes the idle window for
// non-ended sessions only; an ended session's retention is never extended.
func (c *SessionCache) Get(id string) (*battle.Session, bool) {
	v, ok := c.items.Get(id)
	if !ok {
		return nil, false
	}
	s := v.(*battle.Session)
	if s.Status != battle.StatusEnded {
		c.items.Set(id, s, c.activeTTL)
	}
	return s, true
}

// Demote re-files an ended session under the short retention window.
func (c *SessionCache) Demote(s *battle.Session) {
	c.items.Set(s.ID, s, c.endedTTL)
}

// All snapshots the currently cached sessions.
func (c *SessionCache) All() []*battle.Session {
	items := c.items.Items()
	out := make([]*battle.Session, 0, len(items))
	for _, item := range items {
		if s, ok := item.Object.(*battle.Session); ok {
			out = append(out, s)
		}
	}
	return out
}

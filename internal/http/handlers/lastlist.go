package handlers

import (
	"sync"
	"time"

	"smartlocker-web/internal/models"
)

// lastLists remembers the last directory each browser loaded so a failed
// reload can keep showing it next to the error. Entries idle for longer
// than idle are dropped.
type lastLists struct {
	mu      sync.Mutex
	idle    time.Duration
	entries map[string]lastList
}

type lastList struct {
	lockers []models.Locker
	seen    time.Time
}

func newLastLists(idle time.Duration) *lastLists {
	return &lastLists{idle: idle, entries: make(map[string]lastList)}
}

func (c *lastLists) put(key string, list []models.Locker, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prune(now)
	c.entries[key] = lastList{lockers: append([]models.Locker(nil), list...), seen: now}
}

// get returns the remembered list and marks it as still in use.
func (c *lastLists) get(key string, now time.Time) ([]models.Locker, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || now.Sub(e.seen) > c.idle {
		delete(c.entries, key)
		return nil, false
	}
	e.seen = now
	c.entries[key] = e
	return append([]models.Locker(nil), e.lockers...), true
}

func (c *lastLists) prune(now time.Time) {
	for k, e := range c.entries {
		if now.Sub(e.seen) > c.idle {
			delete(c.entries, k)
		}
	}
}

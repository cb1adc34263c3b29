package handlers

import (
	"fmt"
	"sync"
)

// Busy tracks mutating actions in flight so a user cannot submit the same
// one twice before the first answer arrives.
type Busy struct {
	mu     sync.Mutex
	active map[string]struct{}
}

func NewBusy() *Busy {
	return &Busy{active: make(map[string]struct{})}
}

// Acquire marks op busy for userID. ok is false when it already is; the
// caller must call release once done otherwise.
func (b *Busy) Acquire(userID int, op string) (release func(), ok bool) {
	key := fmt.Sprintf("%d:%s", userID, op)
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, busy := b.active[key]; busy {
		return nil, false
	}
	b.active[key] = struct{}{}
	return func() {
		b.mu.Lock()
		delete(b.active, key)
		b.mu.Unlock()
	}, true
}

const inProgressMessage = "That action is already in progress. Please wait."

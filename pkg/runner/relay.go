package runner

import (
	"errors"
	"sync"
)

// ErrNotAttached is returned when work is posted to a Relay before a driver is attached.
var ErrNotAttached = errors.New("relay has no driver attached")

// Relay is a Poster whose target is attached later. Host functions are bound when the
// engine is built, before the driver that will run it exists; they post through a Relay
// and the driver is attached once it is created.
type Relay struct {
	mu     sync.RWMutex
	target Poster
}

// Attach routes subsequent posts to p. Attaching nil detaches the relay.
func (r *Relay) Attach(p Poster) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.target = p
}

// Post forwards fn to the attached driver.
func (r *Relay) Post(fn func()) error {
	r.mu.RLock()
	target := r.target
	r.mu.RUnlock()
	if target == nil {
		return ErrNotAttached
	}
	return target.Post(fn)
}

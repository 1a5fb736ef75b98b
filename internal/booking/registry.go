package booking

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"sync"
	"time"
)

// ErrSessionNotFound is returned for unknown or expired session tokens.
var ErrSessionNotFound = errors.New("booking: session not found")

type entry struct {
	userID    uint64
	lifecycle *Lifecycle
	lastSeen  time.Time
}

// Registry tracks in-progress lifecycles by opaque session token so the
// HTTP layer can route a user's requests back to their one booking flow.
// Abandoned sessions expire after the TTL; an expired draft simply
// disappears, any pending remote booking it created is left for
// reconciliation.
type Registry struct {
	mu  sync.Mutex
	m   map[string]*entry
	ttl time.Duration
}

// NewRegistry creates a registry whose sessions expire after ttl of
// inactivity.
func NewRegistry(ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Registry{m: make(map[string]*entry), ttl: ttl}
}

// Put stores a lifecycle for a user and returns its session token.
func (r *Registry) Put(userID uint64, l *Lifecycle) (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	token := hex.EncodeToString(buf)

	r.mu.Lock()
	r.m[token] = &entry{userID: userID, lifecycle: l, lastSeen: time.Now()}
	r.mu.Unlock()
	return token, nil
}

// Get returns the lifecycle for a token, enforcing ownership and
// refreshing the expiry clock.
func (r *Registry) Get(token string, userID uint64) (*Lifecycle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.m[token]
	if !ok || e.userID != userID {
		return nil, ErrSessionNotFound
	}
	if time.Since(e.lastSeen) > r.ttl {
		delete(r.m, token)
		return nil, ErrSessionNotFound
	}
	e.lastSeen = time.Now()
	return e.lifecycle, nil
}

// Delete removes a session.  Deleting an unknown token is a no-op.
func (r *Registry) Delete(token string) {
	r.mu.Lock()
	delete(r.m, token)
	r.mu.Unlock()
}

// Sweep drops every session idle longer than the TTL and returns how
// many were removed.  Run it periodically from the server loop.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int
	for token, e := range r.m {
		if time.Since(e.lastSeen) > r.ttl {
			delete(r.m, token)
			n++
		}
	}
	return n
}

// StartSweeper runs Sweep every interval until stop is closed.
func (r *Registry) StartSweeper(interval time.Duration, stop <-chan struct{}) {
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-t.C:
				r.Sweep()
			}
		}
	}()
}

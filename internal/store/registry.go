package store

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrSessionNotFound = errors.New("production not found")

// Registry holds the live sessions, one Store each.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Store
	ttl      time.Duration
	onEvict  []func(id string)
}

// NewRegistry creates a registry whose idle sessions expire after ttl.
// A zero ttl disables expiry.
func NewRegistry(ttl time.Duration) *Registry {
	return &Registry{
		sessions: make(map[string]*Store),
		ttl:      ttl,
	}
}

// OnEvict registers fn to run after a session is deleted or expires.
func (r *Registry) OnEvict(fn func(id string)) {
	r.mu.Lock()
	r.onEvict = append(r.onEvict, fn)
	r.mu.Unlock()
}

// Create opens a new session with an empty production.
func (r *Registry) Create() *Store {
	s := New(uuid.New().String())
	r.mu.Lock()
	r.sessions[s.ID()] = s
	r.mu.Unlock()
	return s
}

// Get returns the session and marks it as recently used.
func (r *Registry) Get(id string) (*Store, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	s.touch()
	return s, nil
}

// Delete drops a session. It reports whether the session existed.
func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	_, ok := r.sessions[id]
	delete(r.sessions, id)
	hooks := append([]func(string){}, r.onEvict...)
	r.mu.Unlock()

	if ok {
		for _, fn := range hooks {
			fn(id)
		}
	}
	return ok
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sweep expires sessions idle for longer than the ttl. Sessions with an
// operation in flight are kept.
func (r *Registry) Sweep(now time.Time) []string {
	if r.ttl <= 0 {
		return nil
	}

	r.mu.RLock()
	var expired []string
	for id, s := range r.sessions {
		touched, inFlight := s.idleSince()
		if !inFlight && now.Sub(touched) > r.ttl {
			expired = append(expired, id)
		}
	}
	r.mu.RUnlock()

	for _, id := range expired {
		r.Delete(id)
	}
	return expired
}

// Run sweeps on every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if expired := r.Sweep(now); len(expired) > 0 {
				log.Printf("[Registry] expired %d idle production(s)", len(expired))
			}
		}
	}
}

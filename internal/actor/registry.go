package actor

import (
	"sync"
	"time"

	"github.com/nexuscore/agentruntime/internal/audit"
	"github.com/nexuscore/agentruntime/internal/llmconv"
	"github.com/nexuscore/agentruntime/internal/store"
)

// Registry is the Session Service: it owns the actor-id -> Actor map and
// guarantees that concurrent lookups for the same session id never spawn
// two live workers.
type Registry struct {
	mu     sync.Mutex
	actors map[string]*Actor

	client llmconv.Client
	store  *store.Store
	audit  *audit.Service
	config Config
}

// NewRegistry constructs an empty Registry. client, store, and audit are
// shared across every actor it creates.
func NewRegistry(client llmconv.Client, st *store.Store, auditSvc *audit.Service, config Config) *Registry {
	return &Registry{
		actors: make(map[string]*Actor),
		client: client,
		store:  st,
		audit:  auditSvc,
		config: config,
	}
}

// Get returns the live actor for sessionID, if any.
func (r *Registry) Get(sessionID string) (*Actor, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.actors[sessionID]
	if ok && !a.IsRunning() {
		return nil, false
	}
	return a, ok
}

// GetOrCreate returns the live actor for sessionID, starting one if none
// exists. Two concurrent callers racing on the same sessionID never both
// win: the second checks again under the lock before installing its
// candidate, and stops the loser if it lost the race.
func (r *Registry) GetOrCreate(sessionID string) *Actor {
	if a, ok := r.Get(sessionID); ok {
		return a
	}

	candidate := New(sessionID, r.client, r.store, r.audit, r.config)
	candidate.Start()

	r.mu.Lock()
	if existing, ok := r.actors[sessionID]; ok && existing.IsRunning() {
		r.mu.Unlock()
		candidate.Stop()
		return existing
	}
	r.actors[sessionID] = candidate
	r.mu.Unlock()
	return candidate
}

// Remove drops sessionID from the registry and returns the removed actor
// (if any) without stopping it; callers stop the returned actor outside any
// lock they hold, per the locking discipline that blocking calls never
// happen while a lock is held.
func (r *Registry) Remove(sessionID string) (*Actor, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.actors[sessionID]
	if ok {
		delete(r.actors, sessionID)
	}
	return a, ok
}

// CleanupExpired removes and stops every actor that is no longer running or
// has been idle past ttl. It returns the number of actors stopped.
func (r *Registry) CleanupExpired(ttl time.Duration) int {
	var toStop []*Actor

	r.mu.Lock()
	for id, a := range r.actors {
		if !a.IsRunning() || a.IsExpired(ttl) {
			toStop = append(toStop, a)
			delete(r.actors, id)
		}
	}
	r.mu.Unlock()

	for _, a := range toStop {
		a.Stop()
	}
	return len(toStop)
}

// StopAll stops every registered actor concurrently and clears the
// registry. Used at process shutdown.
func (r *Registry) StopAll() {
	r.mu.Lock()
	actors := make([]*Actor, 0, len(r.actors))
	for _, a := range r.actors {
		actors = append(actors, a)
	}
	r.actors = make(map[string]*Actor)
	r.mu.Unlock()

	var wg sync.WaitGroup
	wg.Add(len(actors))
	for _, a := range actors {
		a := a
		go func() {
			defer wg.Done()
			a.Stop()
		}()
	}
	wg.Wait()
}

// Count returns the number of registered actors (running or not yet
// pruned).
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.actors)
}

package onboarding

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// SessionStore keeps live wizards by session id. Wizards are never persisted
// beyond process memory.
type SessionStore interface {
	Get(ctx context.Context, id string) (*Wizard, error)
	Put(ctx context.Context, wizard *Wizard) error
	Delete(ctx context.Context, id string) error
	IDs(ctx context.Context) ([]string, error)
}

type sessionEntry struct {
	wizard   *Wizard
	lastSeen time.Time
}

// InMemorySessionStore is the default SessionStore.
type InMemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*sessionEntry
	now      func() time.Time
}

// NewInMemorySessionStore builds an empty store.
func NewInMemorySessionStore() *InMemorySessionStore {
	return &InMemorySessionStore{
		sessions: make(map[string]*sessionEntry),
		now:      time.Now,
	}
}

func (s *InMemorySessionStore) Get(_ context.Context, id string) (*Wizard, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errMissingSessionID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.sessions[id]
	if !ok {
		return nil, errSessionNotFound
	}
	entry.lastSeen = s.now()
	return entry.wizard, nil
}

// Put registers wizard under its id. An id held by a different wizard is
// rejected with ErrSessionExists; the live wizard is left untouched.
func (s *InMemorySessionStore) Put(_ context.Context, wizard *Wizard) error {
	if wizard == nil || wizard.ID() == "" {
		return errMissingSessionID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.sessions[wizard.ID()]; ok {
		if prev.wizard != wizard {
			return ErrSessionExists
		}
		prev.lastSeen = s.now()
		return nil
	}
	s.sessions[wizard.ID()] = &sessionEntry{wizard: wizard, lastSeen: s.now()}
	return nil
}

// Delete removes the session and closes its wizard.
func (s *InMemorySessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	entry, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if !ok {
		return errSessionNotFound
	}
	entry.wizard.Close()
	return nil
}

func (s *InMemorySessionStore) IDs(context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Expire closes and drops sessions idle for longer than ttl, and sessions
// whose wizard was already closed. It returns how many were removed.
func (s *InMemorySessionStore) Expire(ttl time.Duration) int {
	cutoff := s.now().Add(-ttl)
	var expired []*Wizard
	s.mu.Lock()
	for id, entry := range s.sessions {
		if entry.lastSeen.Before(cutoff) || entry.wizard.Closed() {
			expired = append(expired, entry.wizard)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()
	for _, w := range expired {
		w.Close()
	}
	return len(expired)
}

// RunExpiry sweeps the store every interval until ctx ends.
func (s *InMemorySessionStore) RunExpiry(ctx context.Context, ttl, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Expire(ttl)
		}
	}
}

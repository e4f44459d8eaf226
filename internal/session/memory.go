package session

import (
	"context"
	"sync"
	"time"
)

// sweepEvery bounds how often Set scans the whole map for expired entries.
const sweepEvery = time.Minute

// MemoryStore keeps sessions in a process-local map.  Sessions do not
// survive restarts and are not shared between instances.
type MemoryStore struct {
	mu        sync.RWMutex
	sessions  map[string]Session
	lastSweep time.Time
	now       func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]Session), now: time.Now}
}

func (m *MemoryStore) Get(_ context.Context, token string) (Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[token]
	m.mu.RUnlock()
	if !ok {
		return Session{}, ErrNotFound
	}
	if !m.now().Before(s.ExpiresAt) {
		m.mu.Lock()
		delete(m.sessions, token)
		m.mu.Unlock()
		return Session{}, ErrNotFound
	}
	return s, nil
}

func (m *MemoryStore) Set(_ context.Context, token string, s Session, ttl time.Duration) error {
	now := m.now()
	s.ExpiresAt = now.Add(ttl)
	m.mu.Lock()
	m.sessions[token] = s
	sweep := now.Sub(m.lastSweep) >= sweepEvery
	m.mu.Unlock()
	if sweep {
		m.Sweep(now)
	}
	return nil
}

func (m *MemoryStore) Touch(_ context.Context, token string, ttl time.Duration) error {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[token]
	if !ok || !now.Before(s.ExpiresAt) {
		delete(m.sessions, token)
		return ErrNotFound
	}
	s.ExpiresAt = now.Add(ttl)
	m.sessions[token] = s
	return nil
}

func (m *MemoryStore) Destroy(_ context.Context, token string) error {
	m.mu.Lock()
	delete(m.sessions, token)
	m.mu.Unlock()
	return nil
}

// Sweep drops every session expired at now and returns how many were removed.
func (m *MemoryStore) Sweep(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for tok, s := range m.sessions {
		if !now.Before(s.ExpiresAt) {
			delete(m.sessions, tok)
			n++
		}
	}
	m.lastSweep = now
	return n
}

// Len reports the number of stored sessions, expired ones included.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

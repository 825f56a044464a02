package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps session rows in process memory. It backs tests and
// single-node deployments without external storage.
type MemoryStore struct {
	mu   sync.Mutex
	rows map[string]Row
}

// NewMemoryStore builds an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[string]Row)}
}

func (s *MemoryStore) Create(_ context.Context, now time.Time, sessionID, userID, fingerprint string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[sessionID] = Row{
		SessionID:          sessionID,
		UserID:             userID,
		RefreshFingerprint: fingerprint,
		CreatedAt:          now,
		LastUsedAt:         now,
		ExpiresAt:          expiresAt,
	}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, sessionID string) (Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rows[sessionID]
	if !ok {
		return Row{}, ErrSessionNotFound
	}
	return r, nil
}

func (s *MemoryStore) Revoke(_ context.Context, now time.Time, sessionID, replacedBy string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rows[sessionID]
	if !ok || r.RevokedAt != nil {
		return ErrSessionNotFound
	}
	t := now
	r.RevokedAt = &t
	r.LastUsedAt = now
	r.ReplacedBy = &replacedBy
	s.rows[sessionID] = r
	return nil
}

func (s *MemoryStore) Touch(_ context.Context, now time.Time, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.rows[sessionID]; ok {
		r.LastUsedAt = now
		s.rows[sessionID] = r
	}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, sessionID)
	return nil
}

func (s *MemoryStore) DeleteAllForUser(_ context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for sid, r := range s.rows {
		if r.UserID == userID {
			delete(s.rows, sid)
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) CountActive(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.rows {
		if r.Active(now) {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) CountActiveForUser(_ context.Context, now time.Time, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.rows {
		if r.UserID == userID && r.Active(now) {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) Sweep(_ context.Context, now time.Time, retention time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := now.Add(-retention)
	n := 0
	for sid, r := range s.rows {
		switch {
		case r.RevokedAt != nil && r.RevokedAt.Before(cutoff):
			delete(s.rows, sid)
			n++
		case r.RevokedAt == nil && r.ExpiresAt.Before(cutoff):
			delete(s.rows, sid)
			n++
		}
	}
	return n, nil
}

// Len reports how many rows the store holds, in any state.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

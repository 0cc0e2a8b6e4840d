package formstore

import (
	"context"
	"sync"
	"time"

	"github.com/yanqian/flat-price/internal/domain/predictionform"
)

type sessionRecord struct {
	payload   predictionform.Session
	expiresAt time.Time
}

// MemoryStore keeps form sessions in process memory for tests/dev and single instances.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]sessionRecord
	inFlight map[string]time.Time
	now      func() time.Time
}

// NewMemoryStore constructs a store backed by process memory.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]sessionRecord),
		inFlight: make(map[string]time.Time),
		now:      time.Now,
	}
}

// Get implements predictionform.Store.
func (s *MemoryStore) Get(_ context.Context, id string) (predictionform.Session, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.sessions[id]
	if !ok {
		return predictionform.Session{}, false, nil
	}
	if s.expired(record.expiresAt) {
		delete(s.sessions, id)
		return predictionform.Session{}, false, nil
	}
	return cloneSession(record.payload), true, nil
}

// Save stores the session with optional TTL.
func (s *MemoryStore) Save(_ context.Context, session predictionform.Session, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp := time.Time{}
	if ttl > 0 {
		exp = s.now().Add(ttl)
	}
	s.sessions[session.ID] = sessionRecord{payload: cloneSession(session), expiresAt: exp}
	s.cleanupLocked()
	return nil
}

// Update runs fn under the store lock so concurrent updates of a session never
// overwrite each other. fn must not call back into the store.
func (s *MemoryStore) Update(_ context.Context, id string, ttl time.Duration, fn func(predictionform.Session, bool) (predictionform.Session, error)) (predictionform.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, found := s.sessions[id]
	if found && s.expired(record.expiresAt) {
		found = false
	}
	current := predictionform.Session{}
	if found {
		current = cloneSession(record.payload)
	}
	next, err := fn(current, found)
	if err != nil {
		return predictionform.Session{}, err
	}
	next.ID = id
	exp := time.Time{}
	if ttl > 0 {
		exp = s.now().Add(ttl)
	}
	s.sessions[id] = sessionRecord{payload: cloneSession(next), expiresAt: exp}
	s.cleanupLocked()
	return next, nil
}

// AcquireSubmit marks a submission as in flight until released or ttl passes.
func (s *MemoryStore) AcquireSubmit(_ context.Context, id string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if exp, held := s.inFlight[id]; held && !s.expired(exp) {
		return false, nil
	}
	exp := time.Time{}
	if ttl > 0 {
		exp = s.now().Add(ttl)
	}
	s.inFlight[id] = exp
	return true, nil
}

// ReleaseSubmit clears the in-flight marker.
func (s *MemoryStore) ReleaseSubmit(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, id)
	return nil
}

func (s *MemoryStore) cleanupLocked() {
	for id, record := range s.sessions {
		if s.expired(record.expiresAt) {
			delete(s.sessions, id)
		}
	}
}

func (s *MemoryStore) expired(ts time.Time) bool {
	if ts.IsZero() {
		return false
	}
	return !s.now().Before(ts)
}

// cloneSession copies the form map so callers never share it with the store.
func cloneSession(session predictionform.Session) predictionform.Session {
	out := session
	if session.Form != nil {
		out.Form = make(predictionform.FormState, len(session.Form))
		for k, v := range session.Form {
			out.Form[k] = v
		}
	}
	return out
}

var _ predictionform.Store = (*MemoryStore)(nil)

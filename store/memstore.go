package store

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/socratic-labs/tutor/core/protocol"
)

type memSession struct {
	meta  Session
	mu    sync.Mutex
	turns []protocol.Turn
}

// memStore keeps conversations in process memory. Appends to one session
// serialize on that session's lock; sessions append independently.
type memStore struct {
	mu       sync.RWMutex
	sessions map[string]*memSession
}

// NewMemStore creates an in-memory Store, used for tests and ephemeral runs.
func NewMemStore() Store {
	return &memStore{sessions: make(map[string]*memSession)}
}

func (s *memStore) NewSession(_ context.Context) (Session, error) {
	meta := Session{
		ID:        uuid.Must(uuid.NewV7()).String(),
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[meta.ID] = &memSession{meta: meta}
	return meta, nil
}

func (s *memStore) session(id string, create bool) (*memSession, bool) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if ok || !create {
		return sess, ok
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok = s.sessions[id]; ok {
		return sess, true
	}
	sess = &memSession{meta: Session{ID: id, CreatedAt: time.Now().UTC()}}
	s.sessions[id] = sess
	return sess, true
}

func (s *memStore) Append(_ context.Context, sessionID string, turns ...protocol.Turn) error {
	if err := validateTurns(sessionID, turns); err != nil {
		return err
	}

	sess, _ := s.session(sessionID, true)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	for _, turn := range turns {
		turn.SessionID = sessionID
		if turn.Timestamp.IsZero() {
			turn.Timestamp = time.Now().UTC()
		}
		sess.turns = append(sess.turns, turn)
	}
	return nil
}

func (s *memStore) LoadHistory(_ context.Context, sessionID string, limit int) ([]protocol.Turn, error) {
	sess, ok := s.session(sessionID, false)
	if !ok {
		return nil, ErrSessionNotFound
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	turns := sess.turns
	if limit > 0 && len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}
	return slices.Clone(turns), nil
}

func (s *memStore) Sessions(_ context.Context) ([]Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	metas := make([]Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		metas = append(metas, sess.meta)
	}
	sort.Slice(metas, func(i, j int) bool {
		return metas[i].CreatedAt.After(metas[j].CreatedAt)
	})
	return metas, nil
}

func (s *memStore) Close() error {
	return nil
}

package memory

import (
	"context"
	"sync"
)

// SessionState is the in-memory implementation of the transient per-session
// store: the shuffled question-ID list and the score tally.
type SessionState struct {
	mu      sync.RWMutex
	lists   map[int64][]int64
	tallies map[int64]tally
}

type tally struct {
	correct int
	total   int
}

func NewSessionState() *SessionState {
	return &SessionState{
		lists:   make(map[int64][]int64),
		tallies: make(map[int64]tally),
	}
}

func (s *SessionState) QuestionList(_ context.Context, sessionID int64) ([]int64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids, ok := s.lists[sessionID]
	if !ok {
		return nil, false, nil
	}
	return append([]int64(nil), ids...), true, nil
}

func (s *SessionState) SetQuestionList(_ context.Context, sessionID int64, ids []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists[sessionID] = append([]int64(nil), ids...)
	return nil
}

func (s *SessionState) RemoveQuestionList(_ context.Context, sessionID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.lists, sessionID)
	return nil
}

func (s *SessionState) Tally(_ context.Context, sessionID int64) (int, int, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tallies[sessionID]
	if !ok {
		return 0, 0, false, nil
	}
	return t.correct, t.total, true, nil
}

func (s *SessionState) SetTally(_ context.Context, sessionID int64, correct, total int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tallies[sessionID] = tally{correct: correct, total: total}
	return nil
}

func (s *SessionState) RemoveTally(_ context.Context, sessionID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tallies, sessionID)
	return nil
}

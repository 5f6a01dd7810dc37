package app

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"interview-portal-service/internal/domain"
)

// SelectedQuestions is the candidate-facing view of a session's question set.
type SelectedQuestions struct {
	SessionID     int64             `json:"sessionId"`
	Questions     []domain.Question `json:"questions"`
	RevealAnswers bool              `json:"revealAnswers"`
}

// Selector produces a stable, bounded random sample of questions for a
// session. The chosen question IDs are kept in the transient session state so
// page reloads replay the same set in the same order until the session is
// submitted.
type Selector struct {
	sessions SessionStore
	catalog  PositionCatalog
	state    SessionState
	count    int

	mu  sync.Mutex
	rnd *rand.Rand
}

// DefaultQuestionCount is the sample size used when none is configured.
const DefaultQuestionCount = 10

func NewSelector(sessions SessionStore, catalog PositionCatalog, state SessionState, count int) *Selector {
	if count <= 0 {
		count = DefaultQuestionCount
	}
	return &Selector{
		sessions: sessions,
		catalog:  catalog,
		state:    state,
		count:    count,
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Questions returns the session's question set, sampling it on first call.
// A position with no eligible questions yields an empty set, not an error.
func (s *Selector) Questions(ctx context.Context, sessionID int64) (SelectedQuestions, error) {
	session, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return SelectedQuestions{}, err
	}

	pos, err := s.catalog.GetPosition(ctx, session.PositionID)
	if err != nil {
		return SelectedQuestions{}, err
	}
	pool, err := scopedPool(session, pos)
	if err != nil {
		return SelectedQuestions{}, err
	}

	ids, ok, err := s.state.QuestionList(ctx, sessionID)
	if err != nil {
		return SelectedQuestions{}, fmt.Errorf("read question list: %w", err)
	}

	var selected []domain.Question
	if ok {
		selected = replay(pool, ids)
	} else {
		selected = s.sample(pool)
		if len(selected) > 0 {
			picked := make([]int64, len(selected))
			for i, q := range selected {
				picked[i] = q.ID
			}
			if err := s.state.SetQuestionList(ctx, sessionID, picked); err != nil {
				return SelectedQuestions{}, fmt.Errorf("store question list: %w", err)
			}
		}
	}

	return SelectedQuestions{
		SessionID:     sessionID,
		Questions:     selected,
		RevealAnswers: session.Mock,
	}, nil
}

// sample shuffles a copy of the pool and takes the first count questions.
func (s *Selector) sample(pool []domain.Question) []domain.Question {
	shuffled := make([]domain.Question, len(pool))
	copy(shuffled, pool)

	s.mu.Lock()
	s.rnd.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	s.mu.Unlock()

	if len(shuffled) > s.count {
		shuffled = shuffled[:s.count]
	}
	return shuffled
}

// replay restores a previously sampled set in its stored order. Questions
// removed from the catalog since selection drop out silently.
func replay(pool []domain.Question, ids []int64) []domain.Question {
	idx := questionIndex(pool)
	selected := make([]domain.Question, 0, len(ids))
	for _, id := range ids {
		if q, ok := idx[id]; ok {
			selected = append(selected, q)
		}
	}
	return selected
}

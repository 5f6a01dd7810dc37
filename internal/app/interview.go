package app

import (
	"context"
	"fmt"
	"time"

	"interview-portal-service/internal/domain"
)

// PositionCatalog loads a position with its full topic/question/answer tree
// (typically cache-fronted).
type PositionCatalog interface {
	GetPosition(ctx context.Context, positionID int64) (domain.Position, error)
}

// SessionStore persists interview sessions.
type SessionStore interface {
	CreateSession(ctx context.Context, s *domain.InterviewSession) error
	GetSession(ctx context.Context, id int64) (domain.InterviewSession, error)
	CompleteSession(ctx context.Context, id int64, completedAt time.Time, durationSeconds int64) error
	CompletedSessions(ctx context.Context, positionID int64) ([]domain.InterviewSession, error)
}

// AnswerStore persists the immutable answer records of real sessions.
type AnswerStore interface {
	SaveAnswers(ctx context.Context, answers []domain.UserAnswer) error
	SessionAnswers(ctx context.Context, sessionID int64) ([]domain.UserAnswer, error)
	DeleteSessionAnswers(ctx context.Context, sessionID int64) error
}

// ResultStore persists HR-recorded final results.
type ResultStore interface {
	SaveResult(ctx context.Context, r *domain.FinalResult) error
	CandidateResult(ctx context.Context, candidateID string, positionID int64) (domain.FinalResult, error)
}

// CandidateStore reads candidate identity records.
type CandidateStore interface {
	GetCandidate(ctx context.Context, id string) (domain.Candidate, error)
}

// SessionState is the transient per-session key-value store: the shuffled
// question-ID list shown to the candidate and the post-submission score tally.
type SessionState interface {
	QuestionList(ctx context.Context, sessionID int64) ([]int64, bool, error)
	SetQuestionList(ctx context.Context, sessionID int64, ids []int64) error
	RemoveQuestionList(ctx context.Context, sessionID int64) error

	Tally(ctx context.Context, sessionID int64) (correct, total int, ok bool, err error)
	SetTally(ctx context.Context, sessionID int64, correct, total int) error
	RemoveTally(ctx context.Context, sessionID int64) error
}

// InterviewService runs the session lifecycle around the selector and scorer.
type InterviewService struct {
	catalog    PositionCatalog
	sessions   SessionStore
	answers    AnswerStore
	candidates CandidateStore
	state      SessionState
	scope      domain.SessionScope
	clock      func() time.Time
}

func NewInterviewService(catalog PositionCatalog, sessions SessionStore, answers AnswerStore, candidates CandidateStore, state SessionState, scope domain.SessionScope) *InterviewService {
	return &InterviewService{
		catalog:    catalog,
		sessions:   sessions,
		answers:    answers,
		candidates: candidates,
		state:      state,
		scope:      scope,
		clock:      time.Now,
	}
}

// NewInterviewServiceWithClock is test-only for deterministic timestamps.
func NewInterviewServiceWithClock(catalog PositionCatalog, sessions SessionStore, answers AnswerStore, candidates CandidateStore, state SessionState, scope domain.SessionScope, now func() time.Time) *InterviewService {
	svc := NewInterviewService(catalog, sessions, answers, candidates, state, scope)
	svc.clock = now
	return svc
}

// Start creates a new interview session for a candidate against a position.
// Under single-topic scope the session is pinned to the position's first
// linked topic, matching the portal's classic behavior.
func (s *InterviewService) Start(ctx context.Context, candidateID string, positionID int64, mock bool) (domain.InterviewSession, error) {
	if _, err := s.candidates.GetCandidate(ctx, candidateID); err != nil {
		return domain.InterviewSession{}, err
	}

	pos, err := s.catalog.GetPosition(ctx, positionID)
	if err != nil {
		return domain.InterviewSession{}, err
	}
	if !pos.Active {
		return domain.InterviewSession{}, domain.ErrPositionNotFound
	}

	session := domain.InterviewSession{
		CandidateID: candidateID,
		PositionID:  positionID,
		Mock:        mock,
		StartedAt:   s.clock(),
	}
	if s.scope == domain.ScopeSingleTopic {
		if len(pos.Topics) == 0 {
			return domain.InterviewSession{}, domain.ErrTopicNotFound
		}
		session.TopicID = pos.Topics[0].ID
	}

	if err := s.sessions.CreateSession(ctx, &session); err != nil {
		return domain.InterviewSession{}, fmt.Errorf("create session: %w", err)
	}
	return session, nil
}

// Results returns the candidate-facing score for a session. The transient
// tally is preferred; real sessions fall back to the stored answer records
// when the tally has expired. Mock tallies are dropped after the first read.
func (s *InterviewService) Results(ctx context.Context, sessionID int64) (domain.ScoreSummary, error) {
	session, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return domain.ScoreSummary{}, err
	}

	correct, total, ok, err := s.state.Tally(ctx, sessionID)
	if err != nil {
		return domain.ScoreSummary{}, fmt.Errorf("read tally: %w", err)
	}
	if ok {
		if session.Mock {
			_ = s.state.RemoveTally(ctx, sessionID)
		}
	} else if !session.Mock {
		correct, total, err = s.recountFromRecords(ctx, session)
		if err != nil {
			return domain.ScoreSummary{}, err
		}
	}

	return domain.ScoreSummary{
		SessionID:     sessionID,
		Correct:       correct,
		Total:         total,
		Percentage:    domain.Percentage(correct, total),
		RevealAnswers: session.Mock,
	}, nil
}

func (s *InterviewService) recountFromRecords(ctx context.Context, session domain.InterviewSession) (int, int, error) {
	records, err := s.answers.SessionAnswers(ctx, session.ID)
	if err != nil {
		return 0, 0, fmt.Errorf("load answers: %w", err)
	}
	if len(records) == 0 {
		return 0, 0, nil
	}

	pos, err := s.catalog.GetPosition(ctx, session.PositionID)
	if err != nil {
		return 0, 0, err
	}
	questions := questionIndex(pos.QuestionPool())

	correct := 0
	for _, record := range records {
		q, ok := questions[record.QuestionID]
		if !ok {
			continue
		}
		if answerIsCorrect(q, record.AnswerID) {
			correct++
		}
	}
	return correct, len(records), nil
}

// scopedPool resolves the question pool a session draws from. Sessions pinned
// to a topic use that topic's questions; position-wide sessions use the whole
// pool.
func scopedPool(session domain.InterviewSession, pos domain.Position) ([]domain.Question, error) {
	if session.TopicID == 0 {
		return pos.QuestionPool(), nil
	}
	for _, t := range pos.Topics {
		if t.ID == session.TopicID {
			return t.Questions, nil
		}
	}
	return nil, domain.ErrTopicNotFound
}

func questionIndex(pool []domain.Question) map[int64]domain.Question {
	idx := make(map[int64]domain.Question, len(pool))
	for _, q := range pool {
		idx[q.ID] = q
	}
	return idx
}

func answerIsCorrect(q domain.Question, answerID int64) bool {
	for _, a := range q.Answers {
		if a.ID == answerID {
			return a.Correct
		}
	}
	return false
}

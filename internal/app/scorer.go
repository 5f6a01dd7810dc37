package app

import (
	"context"
	"fmt"
	"time"

	"interview-portal-service/internal/domain"
)

// CompletionListener is notified after a real session is scored and completed.
type CompletionListener interface {
	SessionCompleted(ctx context.Context, positionID int64)
}

// Scorer validates a full-answer submission, computes correctness, and
// persists the outcome. Mock sessions keep their tally in the transient
// session state only; real sessions write one immutable answer record per
// question.
type Scorer struct {
	sessions SessionStore
	catalog  PositionCatalog
	answers  AnswerStore
	state    SessionState
	listener CompletionListener

	// allowResubmit lets an already-completed session be rescored, replacing
	// its prior answer records. Off by default: resubmission is rejected.
	allowResubmit bool
	clock         func() time.Time
}

func NewScorer(sessions SessionStore, catalog PositionCatalog, answers AnswerStore, state SessionState, allowResubmit bool) *Scorer {
	return &Scorer{
		sessions:      sessions,
		catalog:       catalog,
		answers:       answers,
		state:         state,
		allowResubmit: allowResubmit,
		clock:         time.Now,
	}
}

// NewScorerWithClock is test-only for deterministic timestamps.
func NewScorerWithClock(sessions SessionStore, catalog PositionCatalog, answers AnswerStore, state SessionState, allowResubmit bool, now func() time.Time) *Scorer {
	s := NewScorer(sessions, catalog, answers, state, allowResubmit)
	s.clock = now
	return s
}

// SetCompletionListener wires a listener for completed real sessions.
func (s *Scorer) SetCompletionListener(l CompletionListener) {
	s.listener = l
}

// Submit scores a submission mapping question IDs to chosen answer IDs.
// Every presented question must be answered; otherwise the submission is
// rejected and the session stays in progress with nothing persisted.
func (s *Scorer) Submit(ctx context.Context, sessionID int64, chosen map[int64]int64) (domain.ScoreSummary, error) {
	session, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return domain.ScoreSummary{}, err
	}
	if session.Completed() && !s.allowResubmit {
		return domain.ScoreSummary{}, domain.ErrSessionCompleted
	}

	pos, err := s.catalog.GetPosition(ctx, session.PositionID)
	if err != nil {
		return domain.ScoreSummary{}, err
	}
	pool, err := scopedPool(session, pos)
	if err != nil {
		return domain.ScoreSummary{}, err
	}

	required, err := s.requiredQuestions(ctx, sessionID, pool)
	if err != nil {
		return domain.ScoreSummary{}, err
	}
	if len(required) == 0 {
		return domain.ScoreSummary{}, fmt.Errorf("%w: no questions were presented", domain.ErrIncompleteSubmission)
	}
	for _, id := range required {
		if _, ok := chosen[id]; !ok {
			return domain.ScoreSummary{}, domain.ErrIncompleteSubmission
		}
	}

	questions := questionIndex(pool)
	now := s.clock()
	correct := 0
	var records []domain.UserAnswer
	for _, qid := range required {
		q, ok := questions[qid]
		if !ok {
			// question removed from the catalog mid-session; scores zero
			continue
		}
		answerID := chosen[qid]
		if answerIsCorrect(q, answerID) {
			correct++
		}
		if !session.Mock {
			records = append(records, domain.UserAnswer{
				SessionID:   session.ID,
				CandidateID: session.CandidateID,
				QuestionID:  qid,
				AnswerID:    answerID,
				AnsweredAt:  now,
			})
		}
	}
	total := len(required)

	if !session.Mock {
		// a submission always replaces the session's records, so a retry
		// after a partial failure never leaves a doubled set behind
		if err := s.answers.DeleteSessionAnswers(ctx, sessionID); err != nil {
			return domain.ScoreSummary{}, fmt.Errorf("replace answers: %w", err)
		}
		if err := s.answers.SaveAnswers(ctx, records); err != nil {
			return domain.ScoreSummary{}, fmt.Errorf("save answers: %w", err)
		}
	}

	if err := s.state.SetTally(ctx, sessionID, correct, total); err != nil {
		return domain.ScoreSummary{}, fmt.Errorf("store tally: %w", err)
	}

	duration := int64(now.Sub(session.StartedAt) / time.Second)
	if err := s.sessions.CompleteSession(ctx, sessionID, now, duration); err != nil {
		return domain.ScoreSummary{}, fmt.Errorf("complete session: %w", err)
	}
	_ = s.state.RemoveQuestionList(ctx, sessionID)

	if !session.Mock && s.listener != nil {
		s.listener.SessionCompleted(ctx, session.PositionID)
	}

	return domain.ScoreSummary{
		SessionID:     sessionID,
		Correct:       correct,
		Total:         total,
		Percentage:    domain.Percentage(correct, total),
		RevealAnswers: session.Mock,
	}, nil
}

// requiredQuestions resolves the set the candidate was shown: the cached
// selection when present, the full scoped pool when the cache is gone.
func (s *Scorer) requiredQuestions(ctx context.Context, sessionID int64, pool []domain.Question) ([]int64, error) {
	ids, ok, err := s.state.QuestionList(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("read question list: %w", err)
	}
	if ok {
		return ids, nil
	}
	all := make([]int64, len(pool))
	for i, q := range pool {
		all[i] = q.ID
	}
	return all, nil
}

package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"interview-portal-service/internal/domain"
)

// Aggregator rolls completed sessions up into per-topic and per-position
// percentage scores across candidates. A single candidate failing to resolve
// never aborts the batch; the row is logged and skipped.
type Aggregator struct {
	catalog    PositionCatalog
	sessions   SessionStore
	answers    AnswerStore
	results    ResultStore
	candidates CandidateStore
	clock      func() time.Time
}

func NewAggregator(catalog PositionCatalog, sessions SessionStore, answers AnswerStore, results ResultStore, candidates CandidateStore) *Aggregator {
	return &Aggregator{
		catalog:    catalog,
		sessions:   sessions,
		answers:    answers,
		results:    results,
		candidates: candidates,
		clock:      time.Now,
	}
}

// NewAggregatorWithClock is test-only for deterministic timestamps.
func NewAggregatorWithClock(catalog PositionCatalog, sessions SessionStore, answers AnswerStore, results ResultStore, candidates CandidateStore, now func() time.Time) *Aggregator {
	a := NewAggregator(catalog, sessions, answers, results, candidates)
	a.clock = now
	return a
}

// Rank computes the ordered scoreboard for a position. Candidates are sorted
// by total percentage descending; ties keep their relative order.
func (a *Aggregator) Rank(ctx context.Context, positionID int64) (domain.Ranking, error) {
	pos, err := a.catalog.GetPosition(ctx, positionID)
	if err != nil {
		return domain.Ranking{}, err
	}

	sessions, err := a.sessions.CompletedSessions(ctx, positionID)
	if err != nil {
		return domain.Ranking{}, fmt.Errorf("load sessions: %w", err)
	}

	// group sessions per candidate, preserving first-seen order for stable ties
	var order []string
	byCandidate := make(map[string][]domain.InterviewSession)
	for _, session := range sessions {
		if _, seen := byCandidate[session.CandidateID]; !seen {
			order = append(order, session.CandidateID)
		}
		byCandidate[session.CandidateID] = append(byCandidate[session.CandidateID], session)
	}

	questions := questionIndex(pos.QuestionPool())

	standings := make([]domain.CandidateStanding, 0, len(order))
	for _, candidateID := range order {
		standing, err := a.candidateStanding(ctx, pos, candidateID, byCandidate[candidateID], questions)
		if err != nil {
			log.Printf("skipping candidate %s in ranking for position %d: %v", candidateID, positionID, err)
			continue
		}
		standings = append(standings, standing)
	}

	sort.SliceStable(standings, func(i, j int) bool {
		return standings[i].TotalPercentage > standings[j].TotalPercentage
	})

	return domain.Ranking{
		PositionID:   pos.ID,
		PositionName: pos.Name,
		Standings:    standings,
		UpdatedAt:    a.clock(),
	}, nil
}

func (a *Aggregator) candidateStanding(ctx context.Context, pos domain.Position, candidateID string, sessions []domain.InterviewSession, questions map[int64]domain.Question) (domain.CandidateStanding, error) {
	candidate, err := a.candidates.GetCandidate(ctx, candidateID)
	if err != nil {
		return domain.CandidateStanding{}, err
	}

	var records []domain.UserAnswer
	for _, session := range sessions {
		rs, err := a.answers.SessionAnswers(ctx, session.ID)
		if err != nil {
			return domain.CandidateStanding{}, fmt.Errorf("answers for session %d: %w", session.ID, err)
		}
		records = append(records, rs...)
	}

	type tally struct{ correct, total int }
	perTopic := make(map[int64]*tally)
	for _, record := range records {
		q, ok := questions[record.QuestionID]
		if !ok {
			continue
		}
		t := perTopic[q.TopicID]
		if t == nil {
			t = &tally{}
			perTopic[q.TopicID] = t
		}
		t.total++
		if answerIsCorrect(q, record.AnswerID) {
			t.correct++
		}
	}

	standing := domain.CandidateStanding{
		CandidateID:    candidate.ID,
		CandidateName:  candidate.FullName(),
		CandidateEmail: candidate.Email,
		TopicScores:    make([]domain.TopicScore, 0, len(pos.Topics)),
	}
	for _, topic := range pos.Topics {
		t := perTopic[topic.ID]
		if t == nil {
			t = &tally{}
		}
		standing.TopicScores = append(standing.TopicScores, domain.TopicScore{
			TopicID:    topic.ID,
			TopicName:  topic.Name,
			Correct:    t.correct,
			Total:      t.total,
			Percentage: domain.Percentage(t.correct, t.total),
		})
		standing.TotalCorrect += t.correct
		standing.TotalQuestions += t.total
	}
	standing.TotalPercentage = domain.Percentage(standing.TotalCorrect, standing.TotalQuestions)

	result, err := a.results.CandidateResult(ctx, candidateID, pos.ID)
	switch {
	case err == nil:
		score := result.FinalScore
		standing.FinalScore = &score
		if result.Feedback != "" {
			feedback := result.Feedback
			standing.Feedback = &feedback
		}
	case errors.Is(err, domain.ErrResultNotFound):
		// no final result recorded yet
	default:
		log.Printf("final result lookup failed for candidate %s: %v", candidateID, err)
	}

	return standing, nil
}

// RecordResult stores the write-once final score and feedback HR assigns to a
// completed real session.
func (a *Aggregator) RecordResult(ctx context.Context, candidateID string, sessionID int64, finalScore int, feedback string) (domain.FinalResult, error) {
	if finalScore < 0 || finalScore > 100 {
		return domain.FinalResult{}, fmt.Errorf("%w: final score must be between 0 and 100", domain.ErrValidation)
	}
	if len(feedback) > 500 {
		return domain.FinalResult{}, fmt.Errorf("%w: feedback exceeds 500 characters", domain.ErrValidation)
	}

	session, err := a.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return domain.FinalResult{}, err
	}
	if session.CandidateID != candidateID {
		return domain.FinalResult{}, domain.ErrSessionNotFound
	}
	if !session.Completed() {
		return domain.FinalResult{}, fmt.Errorf("%w: session is not completed", domain.ErrValidation)
	}
	if session.Mock {
		return domain.FinalResult{}, fmt.Errorf("%w: mock sessions do not receive final results", domain.ErrValidation)
	}

	_, err = a.results.CandidateResult(ctx, candidateID, session.PositionID)
	switch {
	case err == nil:
		return domain.FinalResult{}, fmt.Errorf("%w: a final result is already recorded for this candidate", domain.ErrValidation)
	case errors.Is(err, domain.ErrResultNotFound):
	default:
		return domain.FinalResult{}, fmt.Errorf("check existing result: %w", err)
	}

	result := domain.FinalResult{
		CandidateID: candidateID,
		SessionID:   sessionID,
		FinalScore:  finalScore,
		Feedback:    feedback,
	}
	if err := a.results.SaveResult(ctx, &result); err != nil {
		return domain.FinalResult{}, fmt.Errorf("save result: %w", err)
	}
	return result, nil
}

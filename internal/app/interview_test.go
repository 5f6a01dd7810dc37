package app_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"interview-portal-service/internal/app"
	"interview-portal-service/internal/domain"
	"interview-portal-service/internal/infra/memory"
)

var testTime = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testTime }

type fixture struct {
	store *memory.Store
	state *memory.SessionState
	pos   domain.Position
}

// newFixture builds an in-memory store with one active position carrying one
// topic per entry in questionCounts, each question with one correct and one
// wrong answer, plus three known candidates.
func newFixture(t *testing.T, questionCounts ...int) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()

	pos := domain.Position{Name: "Backend Engineer", Active: true}
	if err := store.CreatePosition(ctx, &pos, nil); err != nil {
		t.Fatalf("create position: %v", err)
	}
	for ti, n := range questionCounts {
		topic := domain.Topic{Name: fmt.Sprintf("Topic %d", ti+1)}
		for i := 0; i < n; i++ {
			topic.Questions = append(topic.Questions, domain.Question{
				Text: fmt.Sprintf("question %d-%d", ti+1, i+1),
				Answers: []domain.Answer{
					{Text: "right", Correct: true},
					{Text: "wrong", Correct: false},
				},
			})
		}
		if err := store.CreateTopic(ctx, pos.ID, &topic); err != nil {
			t.Fatalf("create topic: %v", err)
		}
	}

	store.AddCandidate(domain.Candidate{ID: "cand-1", FirstName: "Ada", LastName: "Nguyen", Email: "ada@example.com"})
	store.AddCandidate(domain.Candidate{ID: "cand-2", FirstName: "Tomas", LastName: "Rivera", Email: "tomas@example.com"})
	store.AddCandidate(domain.Candidate{ID: "cand-3", FirstName: "Priya", LastName: "Shah", Email: "priya@example.com"})

	full, err := store.GetPosition(ctx, pos.ID)
	if err != nil {
		t.Fatalf("reload position: %v", err)
	}
	return &fixture{store: store, state: memory.NewSessionState(), pos: full}
}

func (f *fixture) interviews(scope domain.SessionScope) *app.InterviewService {
	return app.NewInterviewServiceWithClock(f.store, f.store, f.store, f.store, f.state, scope, fixedClock)
}

// newSession inserts a session directly, bypassing the service, so tests can
// control topic pinning and start time.
func (f *fixture) newSession(t *testing.T, candidateID string, topicID int64, mock bool) domain.InterviewSession {
	t.Helper()
	session := domain.InterviewSession{
		CandidateID: candidateID,
		PositionID:  f.pos.ID,
		TopicID:     topicID,
		Mock:        mock,
		StartedAt:   testTime.Add(-90 * time.Second),
	}
	if err := f.store.CreateSession(context.Background(), &session); err != nil {
		t.Fatalf("create session: %v", err)
	}
	return session
}

func correctAnswerID(t *testing.T, q domain.Question) int64 {
	t.Helper()
	for _, a := range q.Answers {
		if a.Correct {
			return a.ID
		}
	}
	t.Fatalf("question %d has no correct answer", q.ID)
	return 0
}

func wrongAnswerID(t *testing.T, q domain.Question) int64 {
	t.Helper()
	for _, a := range q.Answers {
		if !a.Correct {
			return a.ID
		}
	}
	t.Fatalf("question %d has no wrong answer", q.ID)
	return 0
}

// chooseAnswers answers the first numCorrect questions correctly and the rest
// wrong.
func chooseAnswers(t *testing.T, questions []domain.Question, numCorrect int) map[int64]int64 {
	t.Helper()
	chosen := make(map[int64]int64, len(questions))
	for i, q := range questions {
		if i < numCorrect {
			chosen[q.ID] = correctAnswerID(t, q)
		} else {
			chosen[q.ID] = wrongAnswerID(t, q)
		}
	}
	return chosen
}

func TestStartPinsFirstTopic(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 3, 2)
	svc := f.interviews(domain.ScopeSingleTopic)

	session, err := svc.Start(ctx, "cand-1", f.pos.ID, false)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if session.ID == 0 {
		t.Fatalf("expected session to be persisted with an id")
	}
	if session.TopicID != f.pos.Topics[0].ID {
		t.Fatalf("expected session pinned to topic %d, got %d", f.pos.Topics[0].ID, session.TopicID)
	}
	if !session.StartedAt.Equal(testTime) {
		t.Fatalf("expected start time %v, got %v", testTime, session.StartedAt)
	}
}

func TestStartAllTopicsScope(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 3, 2)
	svc := f.interviews(domain.ScopeAllTopics)

	session, err := svc.Start(ctx, "cand-1", f.pos.ID, true)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if session.TopicID != 0 {
		t.Fatalf("expected unpinned session, got topic %d", session.TopicID)
	}
	if !session.Mock {
		t.Fatalf("expected mock flag to persist")
	}
}

func TestStartRejectsUnknownCandidate(t *testing.T) {
	f := newFixture(t, 3)
	_, err := f.interviews(domain.ScopeSingleTopic).Start(context.Background(), "ghost", f.pos.ID, false)
	if err != domain.ErrCandidateNotFound {
		t.Fatalf("expected candidate error, got %v", err)
	}
}

func TestStartRejectsInactivePosition(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 3)
	if err := f.store.DeactivatePosition(ctx, f.pos.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	_, err := f.interviews(domain.ScopeSingleTopic).Start(ctx, "cand-1", f.pos.ID, false)
	if err != domain.ErrPositionNotFound {
		t.Fatalf("expected position error, got %v", err)
	}
}

func TestStartRequiresLinkedTopic(t *testing.T) {
	f := newFixture(t) // no topics
	_, err := f.interviews(domain.ScopeSingleTopic).Start(context.Background(), "cand-1", f.pos.ID, false)
	if err != domain.ErrTopicNotFound {
		t.Fatalf("expected topic error, got %v", err)
	}
}

func TestResultsDropsMockTallyAfterFirstRead(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 10)
	session := f.newSession(t, "cand-1", f.pos.Topics[0].ID, true)
	if err := f.state.SetTally(ctx, session.ID, 8, 10); err != nil {
		t.Fatalf("set tally: %v", err)
	}

	svc := f.interviews(domain.ScopeSingleTopic)
	first, err := svc.Results(ctx, session.ID)
	if err != nil {
		t.Fatalf("results failed: %v", err)
	}
	if first.Correct != 8 || first.Total != 10 || first.Percentage != 80 {
		t.Fatalf("unexpected first read: %+v", first)
	}
	if !first.RevealAnswers {
		t.Fatalf("mock results should reveal answers")
	}

	second, err := svc.Results(ctx, session.ID)
	if err != nil {
		t.Fatalf("second read failed: %v", err)
	}
	if second.Correct != 0 || second.Total != 0 || second.Percentage != 0 {
		t.Fatalf("expected empty summary after tally expiry, got %+v", second)
	}
}

func TestResultsRecountsRealSessionFromRecords(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 4)
	session := f.newSession(t, "cand-1", f.pos.Topics[0].ID, false)

	questions := f.pos.Topics[0].Questions
	records := []domain.UserAnswer{
		{SessionID: session.ID, CandidateID: "cand-1", QuestionID: questions[0].ID, AnswerID: correctAnswerID(t, questions[0])},
		{SessionID: session.ID, CandidateID: "cand-1", QuestionID: questions[1].ID, AnswerID: correctAnswerID(t, questions[1])},
		{SessionID: session.ID, CandidateID: "cand-1", QuestionID: questions[2].ID, AnswerID: wrongAnswerID(t, questions[2])},
	}
	if err := f.store.SaveAnswers(ctx, records); err != nil {
		t.Fatalf("save answers: %v", err)
	}

	summary, err := f.interviews(domain.ScopeSingleTopic).Results(ctx, session.ID)
	if err != nil {
		t.Fatalf("results failed: %v", err)
	}
	if summary.Correct != 2 || summary.Total != 3 {
		t.Fatalf("expected 2/3 from records, got %+v", summary)
	}
	if summary.RevealAnswers {
		t.Fatalf("real results must not reveal answers")
	}
}

func TestResultsUnknownSession(t *testing.T) {
	f := newFixture(t, 3)
	_, err := f.interviews(domain.ScopeSingleTopic).Results(context.Background(), 999)
	if err != domain.ErrSessionNotFound {
		t.Fatalf("expected session error, got %v", err)
	}
}

package memory

import (
	"context"
	"testing"
	"time"

	"interview-portal-service/internal/domain"
)

func TestCompletedSessionsFiltersByPosition(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	posA := domain.Position{Name: "A", Active: true}
	posB := domain.Position{Name: "B", Active: true}
	_ = store.CreatePosition(ctx, &posA, nil)
	_ = store.CreatePosition(ctx, &posB, nil)

	done := domain.InterviewSession{CandidateID: "c1", PositionID: posA.ID, StartedAt: time.Now()}
	open := domain.InterviewSession{CandidateID: "c1", PositionID: posA.ID, StartedAt: time.Now()}
	other := domain.InterviewSession{CandidateID: "c1", PositionID: posB.ID, StartedAt: time.Now()}
	for _, s := range []*domain.InterviewSession{&done, &open, &other} {
		if err := store.CreateSession(ctx, s); err != nil {
			t.Fatalf("create session: %v", err)
		}
	}
	_ = store.CompleteSession(ctx, done.ID, time.Now(), 10)
	_ = store.CompleteSession(ctx, other.ID, time.Now(), 10)

	sessions, err := store.CompletedSessions(ctx, posA.ID)
	if err != nil {
		t.Fatalf("completed sessions: %v", err)
	}
	if len(sessions) != 1 || sessions[0].ID != done.ID {
		t.Fatalf("expected only the completed session for position A, got %+v", sessions)
	}
}

func TestCandidateResultScopedToPosition(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	posA := domain.Position{Name: "A", Active: true}
	posB := domain.Position{Name: "B", Active: true}
	_ = store.CreatePosition(ctx, &posA, nil)
	_ = store.CreatePosition(ctx, &posB, nil)

	sessionA := domain.InterviewSession{CandidateID: "c1", PositionID: posA.ID, StartedAt: time.Now()}
	_ = store.CreateSession(ctx, &sessionA)
	result := domain.FinalResult{CandidateID: "c1", SessionID: sessionA.ID, FinalScore: 70}
	if err := store.SaveResult(ctx, &result); err != nil {
		t.Fatalf("save result: %v", err)
	}

	got, err := store.CandidateResult(ctx, "c1", posA.ID)
	if err != nil {
		t.Fatalf("candidate result: %v", err)
	}
	if got.FinalScore != 70 {
		t.Fatalf("unexpected result: %+v", got)
	}

	if _, err := store.CandidateResult(ctx, "c1", posB.ID); err != domain.ErrResultNotFound {
		t.Fatalf("expected result error for other position, got %v", err)
	}
}

func TestGetPositionReturnsDeepCopies(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	pos := domain.Position{Name: "A", Active: true}
	_ = store.CreatePosition(ctx, &pos, nil)
	topic := domain.Topic{Name: "T", Questions: []domain.Question{{
		Text:    "q",
		Answers: []domain.Answer{{Text: "a", Correct: true}},
	}}}
	if err := store.CreateTopic(ctx, pos.ID, &topic); err != nil {
		t.Fatalf("create topic: %v", err)
	}

	first, _ := store.GetPosition(ctx, pos.ID)
	first.Topics[0].Questions[0].Text = "mutated"

	second, _ := store.GetPosition(ctx, pos.ID)
	if second.Topics[0].Questions[0].Text != "q" {
		t.Fatalf("store leaked internal state: %q", second.Topics[0].Questions[0].Text)
	}
}

package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"interview-portal-service/internal/app"
	"interview-portal-service/internal/domain"
	"interview-portal-service/internal/infra/memory"
)

type testEnv struct {
	server *httptest.Server
	store  *memory.Store
	state  *memory.SessionState
	pos    domain.Position
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()

	pos := domain.Position{Name: "Backend Engineer", Active: true}
	if err := store.CreatePosition(ctx, &pos, nil); err != nil {
		t.Fatalf("create position: %v", err)
	}
	topic := domain.Topic{Name: "Go"}
	for i := 0; i < 3; i++ {
		topic.Questions = append(topic.Questions, domain.Question{
			Text: fmt.Sprintf("question %d", i+1),
			Answers: []domain.Answer{
				{Text: "right", Correct: true},
				{Text: "wrong", Correct: false},
			},
		})
	}
	if err := store.CreateTopic(ctx, pos.ID, &topic); err != nil {
		t.Fatalf("create topic: %v", err)
	}
	store.AddCandidate(domain.Candidate{ID: "cand-1", FirstName: "Ada", LastName: "Nguyen", Email: "ada@example.com"})

	full, err := store.GetPosition(ctx, pos.ID)
	if err != nil {
		t.Fatalf("reload position: %v", err)
	}

	state := memory.NewSessionState()
	catalogSvc := app.NewCatalogService(store, nil)
	interviews := app.NewInterviewService(store, store, store, store, state, domain.ScopeSingleTopic)
	selector := app.NewSelector(store, store, state, 10)
	scorer := app.NewScorer(store, store, store, state, false)
	aggregator := app.NewAggregator(store, store, store, store, store)

	handler := NewHandler(catalogSvc, interviews, selector, scorer, aggregator)
	mux := http.NewServeMux()
	handler.Register(mux)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return &testEnv{server: server, store: store, state: state, pos: full}
}

func (e *testEnv) post(t *testing.T, path string, body any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	resp, err := http.Post(e.server.URL+path, "application/json", bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	return resp
}

func (e *testEnv) get(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := http.Get(e.server.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestInterviewFlowOverHTTP(t *testing.T) {
	env := newTestEnv(t)

	resp := env.post(t, "/sessions", map[string]any{
		"candidateId": "cand-1",
		"positionId":  env.pos.ID,
		"mock":        false,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("start session: expected 201, got %d", resp.StatusCode)
	}
	session := decode[domain.InterviewSession](t, resp)
	if session.ID == 0 {
		t.Fatalf("expected session id, got %+v", session)
	}

	resp = env.get(t, fmt.Sprintf("/sessions/%d/questions", session.ID))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("questions: expected 200, got %d", resp.StatusCode)
	}
	selected := decode[app.SelectedQuestions](t, resp)
	if len(selected.Questions) != 3 {
		t.Fatalf("expected 3 questions, got %d", len(selected.Questions))
	}
	for _, q := range selected.Questions {
		for _, a := range q.Answers {
			if a.Correct {
				t.Fatalf("real session leaked correctness flag on answer %d", a.ID)
			}
		}
	}

	// answer everything correctly, looking the answers up in the store
	answers := make(map[string]int64, len(selected.Questions))
	for _, q := range selected.Questions {
		for _, topic := range env.pos.Topics {
			for _, full := range topic.Questions {
				if full.ID != q.ID {
					continue
				}
				for _, a := range full.Answers {
					if a.Correct {
						answers[fmt.Sprint(q.ID)] = a.ID
					}
				}
			}
		}
	}
	resp = env.post(t, fmt.Sprintf("/sessions/%d/answers", session.ID), map[string]any{"answers": answers})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("submit: expected 200, got %d", resp.StatusCode)
	}
	summary := decode[domain.ScoreSummary](t, resp)
	if summary.Correct != 3 || summary.Total != 3 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	resp = env.get(t, fmt.Sprintf("/sessions/%d/results", session.ID))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("results: expected 200, got %d", resp.StatusCode)
	}
	results := decode[domain.ScoreSummary](t, resp)
	if results.Percentage != 100 {
		t.Fatalf("expected 100%%, got %+v", results)
	}

	resp = env.get(t, fmt.Sprintf("/positions/%d/ranking", env.pos.ID))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("ranking: expected 200, got %d", resp.StatusCode)
	}
	ranking := decode[domain.Ranking](t, resp)
	if len(ranking.Standings) != 1 || ranking.Standings[0].CandidateID != "cand-1" {
		t.Fatalf("unexpected ranking: %+v", ranking.Standings)
	}
}

func TestMockSessionRevealsAnswers(t *testing.T) {
	env := newTestEnv(t)

	resp := env.post(t, "/sessions", map[string]any{
		"candidateId": "cand-1",
		"positionId":  env.pos.ID,
		"mock":        true,
	})
	session := decode[domain.InterviewSession](t, resp)

	resp = env.get(t, fmt.Sprintf("/sessions/%d/questions", session.ID))
	selected := decode[app.SelectedQuestions](t, resp)
	if !selected.RevealAnswers {
		t.Fatalf("mock session should reveal answers")
	}
	marked := 0
	for _, q := range selected.Questions {
		for _, a := range q.Answers {
			if a.Correct {
				marked++
			}
		}
	}
	if marked != len(selected.Questions) {
		t.Fatalf("expected one marked answer per question, got %d", marked)
	}
}

func TestIncompleteSubmissionReturns422(t *testing.T) {
	env := newTestEnv(t)
	session := decode[domain.InterviewSession](t, env.post(t, "/sessions", map[string]any{
		"candidateId": "cand-1",
		"positionId":  env.pos.ID,
	}))

	resp := env.post(t, fmt.Sprintf("/sessions/%d/answers", session.ID), map[string]any{
		"answers": map[string]int64{},
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}

func TestUnknownSessionReturns404(t *testing.T) {
	env := newTestEnv(t)
	resp := env.get(t, "/sessions/999/questions")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestCreatePositionValidation(t *testing.T) {
	env := newTestEnv(t)
	resp := env.post(t, "/positions", map[string]any{"name": "  "})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}

func TestCatalogCRUDOverHTTP(t *testing.T) {
	env := newTestEnv(t)

	resp := env.post(t, "/positions", map[string]any{"name": "Data Engineer"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create position: expected 201, got %d", resp.StatusCode)
	}
	pos := decode[domain.Position](t, resp)

	resp = env.post(t, fmt.Sprintf("/positions/%d/topics", pos.ID), map[string]any{
		"name": "SQL",
		"questions": []map[string]any{{
			"text":       "What does ACID stand for?",
			"difficulty": "easy",
			"answers": []map[string]any{
				{"text": "Atomicity, Consistency, Isolation, Durability", "correct": true},
				{"text": "Availability, Consistency, Isolation, Durability", "correct": false},
			},
		}},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create topic: expected 201, got %d", resp.StatusCode)
	}
	topic := decode[domain.Topic](t, resp)
	if topic.ID == 0 || len(topic.Questions) != 1 {
		t.Fatalf("unexpected topic: %+v", topic)
	}

	resp = env.get(t, "/positions?active=true")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list positions: expected 200, got %d", resp.StatusCode)
	}
	positions := decode[[]domain.Position](t, resp)
	if len(positions) != 2 {
		t.Fatalf("expected 2 active positions, got %d", len(positions))
	}
}

func TestRecordResultOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	session := decode[domain.InterviewSession](t, env.post(t, "/sessions", map[string]any{
		"candidateId": "cand-1",
		"positionId":  env.pos.ID,
	}))

	// complete via submission
	answers := make(map[string]int64)
	for _, q := range env.pos.Topics[0].Questions {
		answers[fmt.Sprint(q.ID)] = q.Answers[0].ID
	}
	resp := env.post(t, fmt.Sprintf("/sessions/%d/answers", session.ID), map[string]any{"answers": answers})
	resp.Body.Close()

	resp = env.post(t, "/results", map[string]any{
		"candidateId": "cand-1",
		"sessionId":   session.ID,
		"finalScore":  88,
		"feedback":    "solid",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("record result: expected 201, got %d", resp.StatusCode)
	}
	result := decode[domain.FinalResult](t, resp)
	if result.FinalScore != 88 {
		t.Fatalf("unexpected result: %+v", result)
	}

	resp = env.post(t, "/results", map[string]any{
		"candidateId": "cand-1",
		"sessionId":   session.ID,
		"finalScore":  150,
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for out-of-range score, got %d", resp.StatusCode)
	}
}

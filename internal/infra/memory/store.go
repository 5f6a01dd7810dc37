package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"interview-portal-service/internal/domain"
)

// Store is an in-memory implementation of the app's durable store ports
// (catalog, sessions, answers, results, candidates). It backs tests and the
// demo mode the server falls into when no postgres URL is configured.
type Store struct {
	mu     sync.RWMutex
	nextID int64

	positions  map[int64]*positionRec
	topics     map[int64]*domain.Topic
	candidates map[string]domain.Candidate
	sessions   map[int64]domain.InterviewSession
	answers    map[int64][]domain.UserAnswer
	results    []domain.FinalResult
}

type positionRec struct {
	id       int64
	name     string
	active   bool
	topicIDs []int64
}

func NewStore() *Store {
	return &Store{
		positions:  make(map[int64]*positionRec),
		topics:     make(map[int64]*domain.Topic),
		candidates: make(map[string]domain.Candidate),
		sessions:   make(map[int64]domain.InterviewSession),
		answers:    make(map[int64][]domain.UserAnswer),
	}
}

func (s *Store) nextIDLocked() int64 {
	s.nextID++
	return s.nextID
}

// AddCandidate registers a candidate identity record.
func (s *Store) AddCandidate(c domain.Candidate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.candidates[c.ID] = c
}

func (s *Store) GetCandidate(_ context.Context, id string) (domain.Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.candidates[id]
	if !ok {
		return domain.Candidate{}, domain.ErrCandidateNotFound
	}
	return c, nil
}

// ---- catalog ----

func (s *Store) CreatePosition(_ context.Context, p *domain.Position, topicIDs []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = s.nextIDLocked()
	s.positions[p.ID] = &positionRec{
		id:       p.ID,
		name:     p.Name,
		active:   p.Active,
		topicIDs: append([]int64(nil), topicIDs...),
	}
	return nil
}

func (s *Store) UpdatePosition(_ context.Context, id int64, name string, topicIDs []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.positions[id]
	if !ok {
		return domain.ErrPositionNotFound
	}
	rec.name = name
	rec.topicIDs = append([]int64(nil), topicIDs...)
	return nil
}

func (s *Store) DeactivatePosition(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.positions[id]
	if !ok {
		return domain.ErrPositionNotFound
	}
	rec.active = false
	return nil
}

func (s *Store) ListPositions(_ context.Context, activeOnly bool) ([]domain.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Position, 0, len(s.positions))
	for _, rec := range s.positions {
		if activeOnly && !rec.active {
			continue
		}
		out = append(out, s.composeLocked(rec))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) GetPosition(_ context.Context, id int64) (domain.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.positions[id]
	if !ok {
		return domain.Position{}, domain.ErrPositionNotFound
	}
	return s.composeLocked(rec), nil
}

// LoadPosition makes Store usable as a cache loader.
func (s *Store) LoadPosition(ctx context.Context, id int64) (domain.Position, error) {
	return s.GetPosition(ctx, id)
}

func (s *Store) composeLocked(rec *positionRec) domain.Position {
	pos := domain.Position{ID: rec.id, Name: rec.name, Active: rec.active}
	for _, topicID := range rec.topicIDs {
		if t, ok := s.topics[topicID]; ok {
			pos.Topics = append(pos.Topics, copyTopic(*t))
		}
	}
	return pos
}

func (s *Store) CreateTopic(_ context.Context, positionID int64, t *domain.Topic) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.positions[positionID]
	if !ok {
		return domain.ErrPositionNotFound
	}
	t.ID = s.nextIDLocked()
	for i := range t.Questions {
		t.Questions[i].ID = s.nextIDLocked()
		t.Questions[i].TopicID = t.ID
		for j := range t.Questions[i].Answers {
			t.Questions[i].Answers[j].ID = s.nextIDLocked()
			t.Questions[i].Answers[j].QuestionID = t.Questions[i].ID
		}
	}
	stored := copyTopic(*t)
	s.topics[t.ID] = &stored
	rec.topicIDs = append(rec.topicIDs, t.ID)
	return nil
}

func (s *Store) UpdateTopic(_ context.Context, id int64, name, description string, questionText, answerText map[int64]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.topics[id]
	if !ok {
		return domain.ErrTopicNotFound
	}
	t.Name = name
	t.Description = description
	for i := range t.Questions {
		if text, ok := questionText[t.Questions[i].ID]; ok {
			t.Questions[i].Text = text
		}
		for j := range t.Questions[i].Answers {
			if text, ok := answerText[t.Questions[i].Answers[j].ID]; ok {
				t.Questions[i].Answers[j].Text = text
			}
		}
	}
	return nil
}

func (s *Store) AddQuestion(_ context.Context, topicID int64, q *domain.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.topics[topicID]
	if !ok {
		return domain.ErrTopicNotFound
	}
	q.ID = s.nextIDLocked()
	q.TopicID = topicID
	for i := range q.Answers {
		q.Answers[i].ID = s.nextIDLocked()
		q.Answers[i].QuestionID = q.ID
	}
	t.Questions = append(t.Questions, copyQuestion(*q))
	return nil
}

func (s *Store) DeleteQuestion(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.topics {
		for i := range t.Questions {
			if t.Questions[i].ID == id {
				t.Questions = append(t.Questions[:i], t.Questions[i+1:]...)
				return nil
			}
		}
	}
	return domain.ErrQuestionNotFound
}

// ---- sessions ----

func (s *Store) CreateSession(_ context.Context, session *domain.InterviewSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session.ID = s.nextIDLocked()
	s.sessions[session.ID] = *session
	return nil
}

func (s *Store) GetSession(_ context.Context, id int64) (domain.InterviewSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return domain.InterviewSession{}, domain.ErrSessionNotFound
	}
	return session, nil
}

func (s *Store) CompleteSession(_ context.Context, id int64, completedAt time.Time, durationSeconds int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return domain.ErrSessionNotFound
	}
	session.CompletedAt = &completedAt
	session.DurationSeconds = &durationSeconds
	s.sessions[id] = session
	return nil
}

func (s *Store) CompletedSessions(_ context.Context, positionID int64) ([]domain.InterviewSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.InterviewSession
	for _, session := range s.sessions {
		if session.PositionID == positionID && session.Completed() {
			out = append(out, session)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ---- answers ----

func (s *Store) SaveAnswers(_ context.Context, answers []domain.UserAnswer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range answers {
		a.ID = s.nextIDLocked()
		s.answers[a.SessionID] = append(s.answers[a.SessionID], a)
	}
	return nil
}

func (s *Store) SessionAnswers(_ context.Context, sessionID int64) ([]domain.UserAnswer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.UserAnswer(nil), s.answers[sessionID]...), nil
}

func (s *Store) DeleteSessionAnswers(_ context.Context, sessionID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.answers, sessionID)
	return nil
}

// AnswerCount reports how many answer records a session holds (test helper).
func (s *Store) AnswerCount(sessionID int64) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.answers[sessionID])
}

// ---- results ----

func (s *Store) SaveResult(_ context.Context, r *domain.FinalResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.ID = s.nextIDLocked()
	s.results = append(s.results, *r)
	return nil
}

func (s *Store) CandidateResult(_ context.Context, candidateID string, positionID int64) (domain.FinalResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.results {
		if r.CandidateID != candidateID {
			continue
		}
		if session, ok := s.sessions[r.SessionID]; ok && session.PositionID == positionID {
			return r, nil
		}
	}
	return domain.FinalResult{}, domain.ErrResultNotFound
}

func copyTopic(t domain.Topic) domain.Topic {
	t.Questions = append([]domain.Question(nil), t.Questions...)
	for i := range t.Questions {
		t.Questions[i] = copyQuestion(t.Questions[i])
	}
	return t
}

func copyQuestion(q domain.Question) domain.Question {
	q.Answers = append([]domain.Answer(nil), q.Answers...)
	return q
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"interview-portal-service/internal/domain"
	"github.com/uptrace/bun"
)

// Store is the bun-backed implementation of the durable store ports.
type Store struct {
	db *bun.DB
}

func NewStore(db *bun.DB) *Store {
	// required for the position<->topic m2m relation
	db.RegisterModel((*positionTopicRow)(nil))
	return &Store{db: db}
}

// ---- catalog ----

func (s *Store) CreatePosition(ctx context.Context, p *domain.Position, topicIDs []int64) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		row := &positionRow{Name: p.Name, Active: p.Active}
		if _, err := tx.NewInsert().Model(row).Exec(ctx); err != nil {
			return fmt.Errorf("insert position: %w", err)
		}
		p.ID = row.ID
		return insertTopicLinks(ctx, tx, row.ID, topicIDs)
	})
}

func (s *Store) UpdatePosition(ctx context.Context, id int64, name string, topicIDs []int64) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model((*positionRow)(nil)).
			Set("name = ?", name).
			Where("id = ?", id).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("update position: %w", err)
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			return domain.ErrPositionNotFound
		}
		if _, err := tx.NewDelete().
			Model((*positionTopicRow)(nil)).
			Where("position_id = ?", id).
			Exec(ctx); err != nil {
			return fmt.Errorf("clear topic links: %w", err)
		}
		return insertTopicLinks(ctx, tx, id, topicIDs)
	})
}

func insertTopicLinks(ctx context.Context, tx bun.Tx, positionID int64, topicIDs []int64) error {
	if len(topicIDs) == 0 {
		return nil
	}
	links := make([]positionTopicRow, 0, len(topicIDs))
	for _, topicID := range topicIDs {
		links = append(links, positionTopicRow{PositionID: positionID, TopicID: topicID})
	}
	if _, err := tx.NewInsert().Model(&links).Exec(ctx); err != nil {
		return fmt.Errorf("link topics: %w", err)
	}
	return nil
}

func (s *Store) DeactivatePosition(ctx context.Context, id int64) error {
	res, err := s.db.NewUpdate().
		Model((*positionRow)(nil)).
		Set("active = FALSE").
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("deactivate position: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return domain.ErrPositionNotFound
	}
	return nil
}

func (s *Store) ListPositions(ctx context.Context, activeOnly bool) ([]domain.Position, error) {
	var rows []positionRow
	q := s.db.NewSelect().
		Model(&rows).
		Relation("Topics").
		Relation("Topics.Questions").
		Relation("Topics.Questions.Answers").
		Order("p.id")
	if activeOnly {
		q = q.Where("p.active")
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("list positions: %w", err)
	}
	out := make([]domain.Position, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out, nil
}

func (s *Store) GetPosition(ctx context.Context, id int64) (domain.Position, error) {
	row := new(positionRow)
	err := s.db.NewSelect().
		Model(row).
		Relation("Topics").
		Relation("Topics.Questions").
		Relation("Topics.Questions.Answers").
		Where("p.id = ?", id).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Position{}, domain.ErrPositionNotFound
	}
	if err != nil {
		return domain.Position{}, fmt.Errorf("get position: %w", err)
	}
	return row.toDomain(), nil
}

func (s *Store) CreateTopic(ctx context.Context, positionID int64, t *domain.Topic) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().
			Model((*positionRow)(nil)).
			Where("id = ?", positionID).
			Exists(ctx)
		if err != nil {
			return fmt.Errorf("check position: %w", err)
		}
		if !exists {
			return domain.ErrPositionNotFound
		}

		topic := &topicRow{Name: t.Name, Description: t.Description}
		if _, err := tx.NewInsert().Model(topic).Exec(ctx); err != nil {
			return fmt.Errorf("insert topic: %w", err)
		}
		t.ID = topic.ID

		link := &positionTopicRow{PositionID: positionID, TopicID: topic.ID}
		if _, err := tx.NewInsert().Model(link).Exec(ctx); err != nil {
			return fmt.Errorf("link topic: %w", err)
		}

		for i := range t.Questions {
			if err := insertQuestion(ctx, tx, topic.ID, &t.Questions[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

func insertQuestion(ctx context.Context, tx bun.Tx, topicID int64, q *domain.Question) error {
	row := &questionRow{
		TopicID:    topicID,
		Text:       q.Text,
		Difficulty: int16(q.Difficulty),
	}
	if _, err := tx.NewInsert().Model(row).Exec(ctx); err != nil {
		return fmt.Errorf("insert question: %w", err)
	}
	q.ID = row.ID
	q.TopicID = topicID

	if len(q.Answers) == 0 {
		return nil
	}
	answers := make([]answerRow, 0, len(q.Answers))
	for _, a := range q.Answers {
		answers = append(answers, answerRow{QuestionID: row.ID, Text: a.Text, Correct: a.Correct})
	}
	if _, err := tx.NewInsert().Model(&answers).Exec(ctx); err != nil {
		return fmt.Errorf("insert answers: %w", err)
	}
	for i := range answers {
		q.Answers[i].ID = answers[i].ID
		q.Answers[i].QuestionID = row.ID
	}
	return nil
}

func (s *Store) UpdateTopic(ctx context.Context, id int64, name, description string, questionText, answerText map[int64]string) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model((*topicRow)(nil)).
			Set("name = ?", name).
			Set("description = ?", description).
			Where("id = ?", id).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("update topic: %w", err)
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			return domain.ErrTopicNotFound
		}

		for questionID, text := range questionText {
			if _, err := tx.NewUpdate().
				Model((*questionRow)(nil)).
				Set("text = ?", text).
				Where("id = ? AND topic_id = ?", questionID, id).
				Exec(ctx); err != nil {
				return fmt.Errorf("update question %d: %w", questionID, err)
			}
		}
		for answerID, text := range answerText {
			if _, err := tx.NewUpdate().
				Model((*answerRow)(nil)).
				Set("text = ?", text).
				Where("id = ?", answerID).
				Exec(ctx); err != nil {
				return fmt.Errorf("update answer %d: %w", answerID, err)
			}
		}
		return nil
	})
}

func (s *Store) AddQuestion(ctx context.Context, topicID int64, q *domain.Question) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().
			Model((*topicRow)(nil)).
			Where("id = ?", topicID).
			Exists(ctx)
		if err != nil {
			return fmt.Errorf("check topic: %w", err)
		}
		if !exists {
			return domain.ErrTopicNotFound
		}
		return insertQuestion(ctx, tx, topicID, q)
	})
}

func (s *Store) DeleteQuestion(ctx context.Context, id int64) error {
	// answers go with the question via ON DELETE CASCADE
	res, err := s.db.NewDelete().
		Model((*questionRow)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return domain.ErrQuestionNotFound
	}
	return nil
}

// ---- sessions ----

func (s *Store) CreateSession(ctx context.Context, session *domain.InterviewSession) error {
	row := &sessionRow{
		CandidateID:     session.CandidateID,
		PositionID:      session.PositionID,
		TopicID:         session.TopicID,
		Mock:            session.Mock,
		StartedAt:       session.StartedAt,
		CompletedAt:     session.CompletedAt,
		DurationSeconds: session.DurationSeconds,
	}
	if _, err := s.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	session.ID = row.ID
	return nil
}

func (s *Store) GetSession(ctx context.Context, id int64) (domain.InterviewSession, error) {
	row := new(sessionRow)
	err := s.db.NewSelect().Model(row).Where("s.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.InterviewSession{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return domain.InterviewSession{}, fmt.Errorf("get session: %w", err)
	}
	return row.toDomain(), nil
}

func (s *Store) CompleteSession(ctx context.Context, id int64, completedAt time.Time, durationSeconds int64) error {
	res, err := s.db.NewUpdate().
		Model((*sessionRow)(nil)).
		Set("completed_at = ?", completedAt).
		Set("duration_seconds = ?", durationSeconds).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("complete session: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

func (s *Store) CompletedSessions(ctx context.Context, positionID int64) ([]domain.InterviewSession, error) {
	var rows []sessionRow
	err := s.db.NewSelect().
		Model(&rows).
		Where("s.position_id = ?", positionID).
		Where("s.completed_at IS NOT NULL").
		Order("s.id").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list completed sessions: %w", err)
	}
	out := make([]domain.InterviewSession, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out, nil
}

// ---- answers ----

func (s *Store) SaveAnswers(ctx context.Context, answers []domain.UserAnswer) error {
	if len(answers) == 0 {
		return nil
	}
	rows := make([]userAnswerRow, 0, len(answers))
	for _, a := range answers {
		rows = append(rows, userAnswerRow{
			SessionID:   a.SessionID,
			CandidateID: a.CandidateID,
			QuestionID:  a.QuestionID,
			AnswerID:    a.AnswerID,
			AnsweredAt:  a.AnsweredAt,
		})
	}
	if _, err := s.db.NewInsert().Model(&rows).Exec(ctx); err != nil {
		return fmt.Errorf("insert answers: %w", err)
	}
	return nil
}

func (s *Store) SessionAnswers(ctx context.Context, sessionID int64) ([]domain.UserAnswer, error) {
	var rows []userAnswerRow
	err := s.db.NewSelect().
		Model(&rows).
		Where("ua.session_id = ?", sessionID).
		Order("ua.id").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	out := make([]domain.UserAnswer, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out, nil
}

func (s *Store) DeleteSessionAnswers(ctx context.Context, sessionID int64) error {
	if _, err := s.db.NewDelete().
		Model((*userAnswerRow)(nil)).
		Where("session_id = ?", sessionID).
		Exec(ctx); err != nil {
		return fmt.Errorf("delete answers: %w", err)
	}
	return nil
}

// ---- results ----

func (s *Store) SaveResult(ctx context.Context, r *domain.FinalResult) error {
	row := &resultRow{
		CandidateID: r.CandidateID,
		SessionID:   r.SessionID,
		FinalScore:  r.FinalScore,
		Feedback:    r.Feedback,
	}
	if _, err := s.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return fmt.Errorf("insert result: %w", err)
	}
	r.ID = row.ID
	return nil
}

func (s *Store) CandidateResult(ctx context.Context, candidateID string, positionID int64) (domain.FinalResult, error) {
	row := new(resultRow)
	err := s.db.NewSelect().
		Model(row).
		Join("JOIN interview_sessions AS s ON s.id = r.session_id").
		Where("r.candidate_id = ?", candidateID).
		Where("s.position_id = ?", positionID).
		Order("r.id").
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.FinalResult{}, domain.ErrResultNotFound
	}
	if err != nil {
		return domain.FinalResult{}, fmt.Errorf("get result: %w", err)
	}
	return domain.FinalResult{
		ID:          row.ID,
		CandidateID: row.CandidateID,
		SessionID:   row.SessionID,
		FinalScore:  row.FinalScore,
		Feedback:    row.Feedback,
	}, nil
}

// ---- candidates ----

func (s *Store) GetCandidate(ctx context.Context, id string) (domain.Candidate, error) {
	row := new(candidateRow)
	err := s.db.NewSelect().Model(row).Where("c.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Candidate{}, domain.ErrCandidateNotFound
	}
	if err != nil {
		return domain.Candidate{}, fmt.Errorf("get candidate: %w", err)
	}
	return domain.Candidate{
		ID:        row.ID,
		FirstName: row.FirstName,
		LastName:  row.LastName,
		Email:     row.Email,
		Role:      row.Role,
	}, nil
}

// CreateCandidate registers an identity record; used by the seed command.
func (s *Store) CreateCandidate(ctx context.Context, c domain.Candidate) error {
	row := &candidateRow{
		ID:        c.ID,
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Email:     c.Email,
		Role:      c.Role,
	}
	if _, err := s.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return fmt.Errorf("insert candidate: %w", err)
	}
	return nil
}

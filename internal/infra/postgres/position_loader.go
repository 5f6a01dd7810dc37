package postgres

import (
	"context"
	"errors"
	"fmt"

	"interview-portal-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// PositionLoader assembles a position's full topic/question/answer tree from
// Postgres. It is the hot read path behind the catalog cache; catalog writes
// go through the bun Store.
type PositionLoader struct {
	pool *pgxpool.Pool
}

func NewPositionLoader(pool *pgxpool.Pool) *PositionLoader {
	return &PositionLoader{pool: pool}
}

func (l *PositionLoader) LoadPosition(ctx context.Context, positionID int64) (domain.Position, error) {
	var pos domain.Position
	err := l.pool.QueryRow(ctx,
		`SELECT id, name, active FROM positions WHERE id = $1`,
		positionID,
	).Scan(&pos.ID, &pos.Name, &pos.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Position{}, domain.ErrPositionNotFound
	}
	if err != nil {
		return domain.Position{}, fmt.Errorf("load position: %w", err)
	}

	topics, topicIDs, err := l.loadTopics(ctx, positionID)
	if err != nil {
		return domain.Position{}, err
	}
	if len(topics) == 0 {
		return pos, nil
	}

	questions, err := l.loadQuestions(ctx, topicIDs)
	if err != nil {
		return domain.Position{}, err
	}

	byTopic := make(map[int64][]domain.Question)
	for _, q := range questions {
		byTopic[q.TopicID] = append(byTopic[q.TopicID], q)
	}
	for i := range topics {
		topics[i].Questions = byTopic[topics[i].ID]
	}
	pos.Topics = topics
	return pos, nil
}

func (l *PositionLoader) loadTopics(ctx context.Context, positionID int64) ([]domain.Topic, []int64, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT t.id, t.name, t.description
		FROM topics t
		JOIN position_topics pt ON pt.topic_id = t.id
		WHERE pt.position_id = $1
		ORDER BY t.id`,
		positionID)
	if err != nil {
		return nil, nil, fmt.Errorf("load topics: %w", err)
	}
	defer rows.Close()

	var topics []domain.Topic
	var ids []int64
	for rows.Next() {
		var t domain.Topic
		if err := rows.Scan(&t.ID, &t.Name, &t.Description); err != nil {
			return nil, nil, fmt.Errorf("scan topic: %w", err)
		}
		topics = append(topics, t)
		ids = append(ids, t.ID)
	}
	return topics, ids, rows.Err()
}

func (l *PositionLoader) loadQuestions(ctx context.Context, topicIDs []int64) ([]domain.Question, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT id, topic_id, text, difficulty
		FROM questions
		WHERE topic_id = ANY($1)
		ORDER BY id`,
		topicIDs)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	var questions []domain.Question
	var questionIDs []int64
	for rows.Next() {
		var q domain.Question
		var difficulty int16
		if err := rows.Scan(&q.ID, &q.TopicID, &q.Text, &difficulty); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		q.Difficulty = domain.Difficulty(difficulty)
		questions = append(questions, q)
		questionIDs = append(questionIDs, q.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, nil
	}

	answers, err := l.loadAnswers(ctx, questionIDs)
	if err != nil {
		return nil, err
	}
	byQuestion := make(map[int64][]domain.Answer)
	for _, a := range answers {
		byQuestion[a.QuestionID] = append(byQuestion[a.QuestionID], a)
	}
	for i := range questions {
		questions[i].Answers = byQuestion[questions[i].ID]
	}
	return questions, nil
}

func (l *PositionLoader) loadAnswers(ctx context.Context, questionIDs []int64) ([]domain.Answer, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT id, question_id, text, correct
		FROM answers
		WHERE question_id = ANY($1)
		ORDER BY id`,
		questionIDs)
	if err != nil {
		return nil, fmt.Errorf("load answers: %w", err)
	}
	defer rows.Close()

	var answers []domain.Answer
	for rows.Next() {
		var a domain.Answer
		if err := rows.Scan(&a.ID, &a.QuestionID, &a.Text, &a.Correct); err != nil {
			return nil, fmt.Errorf("scan answer: %w", err)
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}

package postgres

import (
	"time"

	"interview-portal-service/internal/domain"
	"github.com/uptrace/bun"
)

type positionRow struct {
	bun.BaseModel `bun:"table:positions,alias:p"`

	ID     int64       `bun:"id,pk,autoincrement"`
	Name   string      `bun:"name,notnull"`
	Active bool        `bun:"active,notnull"`
	Topics []*topicRow `bun:"m2m:position_topics,join:Position=Topic"`
}

type topicRow struct {
	bun.BaseModel `bun:"table:topics,alias:t"`

	ID          int64          `bun:"id,pk,autoincrement"`
	Name        string         `bun:"name,notnull"`
	Description string         `bun:"description"`
	Questions   []*questionRow `bun:"rel:has-many,join:id=topic_id"`
}

type positionTopicRow struct {
	bun.BaseModel `bun:"table:position_topics,alias:pt"`

	PositionID int64        `bun:"position_id,pk"`
	Position   *positionRow `bun:"rel:belongs-to,join:position_id=id"`
	TopicID    int64        `bun:"topic_id,pk"`
	Topic      *topicRow    `bun:"rel:belongs-to,join:topic_id=id"`
}

type questionRow struct {
	bun.BaseModel `bun:"table:questions,alias:q"`

	ID         int64        `bun:"id,pk,autoincrement"`
	TopicID    int64        `bun:"topic_id,notnull"`
	Text       string       `bun:"text,notnull"`
	Difficulty int16        `bun:"difficulty,notnull"`
	Answers    []*answerRow `bun:"rel:has-many,join:id=question_id"`
}

type answerRow struct {
	bun.BaseModel `bun:"table:answers,alias:a"`

	ID         int64  `bun:"id,pk,autoincrement"`
	QuestionID int64  `bun:"question_id,notnull"`
	Text       string `bun:"text,notnull"`
	Correct    bool   `bun:"correct,notnull"`
}

type candidateRow struct {
	bun.BaseModel `bun:"table:candidates,alias:c"`

	ID        string `bun:"id,pk"`
	FirstName string `bun:"first_name,notnull"`
	LastName  string `bun:"last_name,notnull"`
	Email     string `bun:"email,notnull,unique"`
	Role      string `bun:"role,notnull"`
}

type sessionRow struct {
	bun.BaseModel `bun:"table:interview_sessions,alias:s"`

	ID              int64      `bun:"id,pk,autoincrement"`
	CandidateID     string     `bun:"candidate_id,notnull"`
	PositionID      int64      `bun:"position_id,notnull"`
	TopicID         int64      `bun:"topic_id,nullzero"`
	Mock            bool       `bun:"mock,notnull"`
	StartedAt       time.Time  `bun:"started_at,notnull"`
	CompletedAt     *time.Time `bun:"completed_at"`
	DurationSeconds *int64     `bun:"duration_seconds"`
}

type userAnswerRow struct {
	bun.BaseModel `bun:"table:user_answers,alias:ua"`

	ID          int64     `bun:"id,pk,autoincrement"`
	SessionID   int64     `bun:"session_id,notnull"`
	CandidateID string    `bun:"candidate_id,notnull"`
	QuestionID  int64     `bun:"question_id,notnull"`
	AnswerID    int64     `bun:"answer_id,notnull"`
	AnsweredAt  time.Time `bun:"answered_at,notnull"`
}

type resultRow struct {
	bun.BaseModel `bun:"table:results,alias:r"`

	ID          int64  `bun:"id,pk,autoincrement"`
	CandidateID string `bun:"candidate_id,notnull"`
	SessionID   int64  `bun:"session_id,notnull,unique"`
	FinalScore  int    `bun:"final_score,notnull"`
	Feedback    string `bun:"feedback"`
}

func (r *positionRow) toDomain() domain.Position {
	pos := domain.Position{ID: r.ID, Name: r.Name, Active: r.Active}
	for _, t := range r.Topics {
		pos.Topics = append(pos.Topics, t.toDomain())
	}
	return pos
}

func (r *topicRow) toDomain() domain.Topic {
	topic := domain.Topic{ID: r.ID, Name: r.Name, Description: r.Description}
	for _, q := range r.Questions {
		topic.Questions = append(topic.Questions, q.toDomain())
	}
	return topic
}

func (r *questionRow) toDomain() domain.Question {
	q := domain.Question{
		ID:         r.ID,
		TopicID:    r.TopicID,
		Text:       r.Text,
		Difficulty: domain.Difficulty(r.Difficulty),
	}
	for _, a := range r.Answers {
		q.Answers = append(q.Answers, domain.Answer{
			ID:         a.ID,
			QuestionID: a.QuestionID,
			Text:       a.Text,
			Correct:    a.Correct,
		})
	}
	return q
}

func (r *sessionRow) toDomain() domain.InterviewSession {
	return domain.InterviewSession{
		ID:              r.ID,
		CandidateID:     r.CandidateID,
		PositionID:      r.PositionID,
		TopicID:         r.TopicID,
		Mock:            r.Mock,
		StartedAt:       r.StartedAt,
		CompletedAt:     r.CompletedAt,
		DurationSeconds: r.DurationSeconds,
	}
}

func (r *userAnswerRow) toDomain() domain.UserAnswer {
	return domain.UserAnswer{
		ID:          r.ID,
		SessionID:   r.SessionID,
		CandidateID: r.CandidateID,
		QuestionID:  r.QuestionID,
		AnswerID:    r.AnswerID,
		AnsweredAt:  r.AnsweredAt,
	}
}

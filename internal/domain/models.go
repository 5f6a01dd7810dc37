package domain

import (
	"fmt"
	"strings"
	"time"
)

// Difficulty grades a question.
type Difficulty int

const (
	DifficultyEasy Difficulty = iota
	DifficultyMedium
	DifficultyHard
)

func (d Difficulty) String() string {
	switch d {
	case DifficultyMedium:
		return "medium"
	case DifficultyHard:
		return "hard"
	default:
		return "easy"
	}
}

// ParseDifficulty maps a label to a Difficulty; unknown labels default to easy.
func ParseDifficulty(s string) Difficulty {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "medium":
		return DifficultyMedium
	case "hard":
		return DifficultyHard
	default:
		return DifficultyEasy
	}
}

// Answer is one selectable option of a question.
type Answer struct {
	ID         int64  `json:"id"`
	QuestionID int64  `json:"questionId"`
	Text       string `json:"text"`
	Correct    bool   `json:"correct"`
}

// Question is a multiple-choice question with exactly one correct answer.
type Question struct {
	ID         int64      `json:"id"`
	TopicID    int64      `json:"topicId"`
	Text       string     `json:"text"`
	Difficulty Difficulty `json:"difficulty"`
	Answers    []Answer   `json:"answers"`
}

// CorrectAnswer returns the answer flagged correct, if any.
func (q Question) CorrectAnswer() (Answer, bool) {
	for _, a := range q.Answers {
		if a.Correct {
			return a, true
		}
	}
	return Answer{}, false
}

// Topic groups questions and can be linked to any number of positions.
type Topic struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Questions   []Question `json:"questions"`
}

// Position is a job role with its linked topics.
type Position struct {
	ID     int64   `json:"id"`
	Name   string  `json:"name"`
	Active bool    `json:"active"`
	Topics []Topic `json:"topics"`
}

// QuestionPool flattens all questions across the position's topics.
func (p Position) QuestionPool() []Question {
	var pool []Question
	for _, t := range p.Topics {
		pool = append(pool, t.Questions...)
	}
	return pool
}

// Candidate is the identity record the portal keeps for a user.
type Candidate struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Role      string `json:"role"`
}

func (c Candidate) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// SessionScope controls which questions a session draws from.
type SessionScope int

const (
	// ScopeSingleTopic pins the session to the position's first linked topic.
	ScopeSingleTopic SessionScope = iota
	// ScopeAllTopics samples across every topic linked to the position.
	ScopeAllTopics
)

// ParseScope maps a config label to a SessionScope.
func ParseScope(s string) (SessionScope, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "topic", "single-topic":
		return ScopeSingleTopic, nil
	case "position", "all-topics":
		return ScopeAllTopics, nil
	}
	return ScopeSingleTopic, fmt.Errorf("unknown session scope %q", s)
}

// InterviewSession is one candidate's run at a position's quiz.
// TopicID is zero when the session spans all topics of the position.
type InterviewSession struct {
	ID              int64      `json:"id"`
	CandidateID     string     `json:"candidateId"`
	PositionID      int64      `json:"positionId"`
	TopicID         int64      `json:"topicId,omitempty"`
	Mock            bool       `json:"mock"`
	StartedAt       time.Time  `json:"startedAt"`
	CompletedAt     *time.Time `json:"completedAt,omitempty"`
	DurationSeconds *int64     `json:"durationSeconds,omitempty"`
}

// Completed reports whether the session has been submitted.
func (s InterviewSession) Completed() bool {
	return s.CompletedAt != nil
}

// UserAnswer is an immutable record of one answered question in a real session.
type UserAnswer struct {
	ID          int64     `json:"id"`
	SessionID   int64     `json:"sessionId"`
	CandidateID string    `json:"candidateId"`
	QuestionID  int64     `json:"questionId"`
	AnswerID    int64     `json:"answerId"`
	AnsweredAt  time.Time `json:"answeredAt"`
}

// FinalResult is the HR-recorded outcome of a completed real session.
type FinalResult struct {
	ID          int64  `json:"id"`
	CandidateID string `json:"candidateId"`
	SessionID   int64  `json:"sessionId"`
	FinalScore  int    `json:"finalScore"`
	Feedback    string `json:"feedback,omitempty"`
}

// ScoreSummary is what the candidate sees after submitting.
type ScoreSummary struct {
	SessionID     int64   `json:"sessionId"`
	Correct       int     `json:"correct"`
	Total         int     `json:"total"`
	Percentage    float64 `json:"percentage"`
	RevealAnswers bool    `json:"revealAnswers"`
}

// TopicScore is a per-topic breakdown of a candidate's answers.
type TopicScore struct {
	TopicID    int64   `json:"topicId"`
	TopicName  string  `json:"topicName"`
	Correct    int     `json:"correct"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

// CandidateStanding is one ranked row of a position's results.
type CandidateStanding struct {
	CandidateID     string       `json:"candidateId"`
	CandidateName   string       `json:"candidateName"`
	CandidateEmail  string       `json:"candidateEmail"`
	TopicScores     []TopicScore `json:"topicScores"`
	TotalQuestions  int          `json:"totalQuestions"`
	TotalCorrect    int          `json:"totalCorrect"`
	TotalPercentage float64      `json:"totalPercentage"`
	FinalScore      *int         `json:"finalScore,omitempty"`
	Feedback        *string      `json:"feedback,omitempty"`
}

// Ranking is the ordered scoreboard for a position across candidates.
type Ranking struct {
	PositionID   int64               `json:"positionId"`
	PositionName string              `json:"positionName"`
	Standings    []CandidateStanding `json:"standings"`
	UpdatedAt    time.Time           `json:"updatedAt"`
}

// Percentage computes correct/total as a value in [0, 100]; zero totals yield 0.
func Percentage(correct, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(correct) / float64(total) * 100
}

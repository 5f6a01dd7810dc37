package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionState is the Redis-backed transient per-session store. Keys carry a
// TTL so abandoned sessions clean themselves up:
//
//	interview:questions:{sessionID} -> JSON array of question IDs
//	interview:tally:{sessionID}     -> JSON {correct, total}
type SessionState struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionState(client *redis.Client, ttl time.Duration) *SessionState {
	return &SessionState{client: client, ttl: ttl}
}

type storedTally struct {
	Correct int `json:"correct"`
	Total   int `json:"total"`
}

func (s *SessionState) QuestionList(ctx context.Context, sessionID int64) ([]int64, bool, error) {
	raw, err := s.client.Get(ctx, s.questionsKey(sessionID)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get question list: %w", err)
	}
	var ids []int64
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, false, fmt.Errorf("unmarshal question list: %w", err)
	}
	return ids, true, nil
}

func (s *SessionState) SetQuestionList(ctx context.Context, sessionID int64, ids []int64) error {
	raw, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("marshal question list: %w", err)
	}
	if err := s.client.Set(ctx, s.questionsKey(sessionID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("set question list: %w", err)
	}
	return nil
}

func (s *SessionState) RemoveQuestionList(ctx context.Context, sessionID int64) error {
	return s.client.Del(ctx, s.questionsKey(sessionID)).Err()
}

func (s *SessionState) Tally(ctx context.Context, sessionID int64) (int, int, bool, error) {
	raw, err := s.client.Get(ctx, s.tallyKey(sessionID)).Bytes()
	if err == redis.Nil {
		return 0, 0, false, nil
	}
	if err != nil {
		return 0, 0, false, fmt.Errorf("get tally: %w", err)
	}
	var t storedTally
	if err := json.Unmarshal(raw, &t); err != nil {
		return 0, 0, false, fmt.Errorf("unmarshal tally: %w", err)
	}
	return t.Correct, t.Total, true, nil
}

func (s *SessionState) SetTally(ctx context.Context, sessionID int64, correct, total int) error {
	raw, err := json.Marshal(storedTally{Correct: correct, Total: total})
	if err != nil {
		return fmt.Errorf("marshal tally: %w", err)
	}
	if err := s.client.Set(ctx, s.tallyKey(sessionID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("set tally: %w", err)
	}
	return nil
}

func (s *SessionState) RemoveTally(ctx context.Context, sessionID int64) error {
	return s.client.Del(ctx, s.tallyKey(sessionID)).Err()
}

func (s *SessionState) questionsKey(sessionID int64) string {
	return "interview:questions:" + strconv.FormatInt(sessionID, 10)
}

func (s *SessionState) tallyKey(sessionID int64) string {
	return "interview:tally:" + strconv.FormatInt(sessionID, 10)
}

package app

import (
	"context"
	"fmt"
	"strings"

	"interview-portal-service/internal/domain"
)

// CatalogStore persists the content catalog: positions, topics, questions,
// answers, and the position-topic links.
type CatalogStore interface {
	CreatePosition(ctx context.Context, p *domain.Position, topicIDs []int64) error
	UpdatePosition(ctx context.Context, id int64, name string, topicIDs []int64) error
	DeactivatePosition(ctx context.Context, id int64) error
	ListPositions(ctx context.Context, activeOnly bool) ([]domain.Position, error)
	GetPosition(ctx context.Context, id int64) (domain.Position, error)

	CreateTopic(ctx context.Context, positionID int64, t *domain.Topic) error
	UpdateTopic(ctx context.Context, id int64, name, description string, questionText, answerText map[int64]string) error
	AddQuestion(ctx context.Context, topicID int64, q *domain.Question) error
	DeleteQuestion(ctx context.Context, id int64) error
}

// CatalogCache invalidates cached position trees after catalog mutations.
type CatalogCache interface {
	InvalidatePosition(ctx context.Context, positionID int64) error
	InvalidateAll(ctx context.Context) error
}

// CatalogService is the HR/Admin-facing CRUD surface over the quiz bank.
type CatalogService struct {
	store CatalogStore
	cache CatalogCache // optional
}

func NewCatalogService(store CatalogStore, cache CatalogCache) *CatalogService {
	return &CatalogService{store: store, cache: cache}
}

func (c *CatalogService) ListPositions(ctx context.Context, activeOnly bool) ([]domain.Position, error) {
	return c.store.ListPositions(ctx, activeOnly)
}

func (c *CatalogService) GetPosition(ctx context.Context, id int64) (domain.Position, error) {
	return c.store.GetPosition(ctx, id)
}

func (c *CatalogService) CreatePosition(ctx context.Context, name string, topicIDs []int64) (domain.Position, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Position{}, fmt.Errorf("%w: position name is required", domain.ErrValidation)
	}
	pos := domain.Position{Name: name, Active: true}
	if err := c.store.CreatePosition(ctx, &pos, topicIDs); err != nil {
		return domain.Position{}, fmt.Errorf("create position: %w", err)
	}
	return pos, nil
}

func (c *CatalogService) UpdatePosition(ctx context.Context, id int64, name string, topicIDs []int64) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: position name is required", domain.ErrValidation)
	}
	if err := c.store.UpdatePosition(ctx, id, name, topicIDs); err != nil {
		return err
	}
	c.invalidate(ctx, id)
	return nil
}

// DeactivatePosition soft-deletes a position. Sessions referencing it remain
// intact.
func (c *CatalogService) DeactivatePosition(ctx context.Context, id int64) error {
	if err := c.store.DeactivatePosition(ctx, id); err != nil {
		return err
	}
	c.invalidate(ctx, id)
	return nil
}

// CreateTopic creates a topic with its questions under a position. At least
// one question is required, and every question must carry exactly one correct
// answer.
func (c *CatalogService) CreateTopic(ctx context.Context, positionID int64, name, description string, questions []domain.Question) (domain.Topic, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Topic{}, fmt.Errorf("%w: topic name is required", domain.ErrValidation)
	}
	if len(questions) == 0 {
		return domain.Topic{}, fmt.Errorf("%w: at least one question is required", domain.ErrValidation)
	}
	for i := range questions {
		if err := validateQuestion(questions[i]); err != nil {
			return domain.Topic{}, err
		}
	}

	topic := domain.Topic{Name: name, Description: strings.TrimSpace(description), Questions: questions}
	if err := c.store.CreateTopic(ctx, positionID, &topic); err != nil {
		return domain.Topic{}, err
	}
	c.invalidate(ctx, positionID)
	return topic, nil
}

// UpdateTopic renames a topic and applies per-question and per-answer text
// edits, keyed by ID.
func (c *CatalogService) UpdateTopic(ctx context.Context, id int64, name, description string, questionText, answerText map[int64]string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: topic name is required", domain.ErrValidation)
	}
	if err := c.store.UpdateTopic(ctx, id, name, strings.TrimSpace(description), questionText, answerText); err != nil {
		return err
	}
	c.invalidateAll(ctx)
	return nil
}

func (c *CatalogService) AddQuestion(ctx context.Context, topicID int64, q domain.Question) (domain.Question, error) {
	if err := validateQuestion(q); err != nil {
		return domain.Question{}, err
	}
	if err := c.store.AddQuestion(ctx, topicID, &q); err != nil {
		return domain.Question{}, err
	}
	c.invalidateAll(ctx)
	return q, nil
}

// DeleteQuestion removes a question and cascades its answers.
func (c *CatalogService) DeleteQuestion(ctx context.Context, id int64) error {
	if err := c.store.DeleteQuestion(ctx, id); err != nil {
		return err
	}
	c.invalidateAll(ctx)
	return nil
}

func validateQuestion(q domain.Question) error {
	if strings.TrimSpace(q.Text) == "" {
		return fmt.Errorf("%w: question text is required", domain.ErrValidation)
	}
	if len(q.Answers) == 0 {
		return fmt.Errorf("%w: question needs at least one answer", domain.ErrValidation)
	}
	correct := 0
	for _, a := range q.Answers {
		if strings.TrimSpace(a.Text) == "" {
			return fmt.Errorf("%w: answer text is required", domain.ErrValidation)
		}
		if a.Correct {
			correct++
		}
	}
	if correct != 1 {
		return fmt.Errorf("%w: question must have exactly one correct answer", domain.ErrValidation)
	}
	return nil
}

func (c *CatalogService) invalidate(ctx context.Context, positionID int64) {
	if c.cache == nil {
		return
	}
	if err := c.cache.InvalidatePosition(ctx, positionID); err != nil {
		// stale entries expire via TTL anyway
		return
	}
}

func (c *CatalogService) invalidateAll(ctx context.Context) {
	if c.cache == nil {
		return
	}
	_ = c.cache.InvalidateAll(ctx)
}

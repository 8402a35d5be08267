package mocks

import (
	"context"

	"github.com/you/qnaforum/domain"
)

// MockQuestionRepository implements domain.QuestionRepository for testing
type MockQuestionRepository struct {
	CreateFunc          func(ctx context.Context, question *domain.Question) error
	FindByIDFunc        func(ctx context.Context, id uint) (*domain.Question, error)
	ListFunc            func(ctx context.Context, offset, limit int) ([]domain.Question, int64, error)
	RecountAnswersFunc  func(ctx context.Context, id uint) (*domain.Question, error)
	MarkAcceptedFunc    func(ctx context.Context, id uint) (bool, error)
	ClearAcceptanceFunc func(ctx context.Context, id uint) error
}

// NewMockQuestionRepository creates a new MockQuestionRepository
func NewMockQuestionRepository() *MockQuestionRepository {
	return &MockQuestionRepository{}
}

func (m *MockQuestionRepository) Create(ctx context.Context, question *domain.Question) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, question)
	}
	question.ID = 1
	return nil
}

func (m *MockQuestionRepository) FindByID(ctx context.Context, id uint) (*domain.Question, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, domain.ErrQuestionNotFound
}

func (m *MockQuestionRepository) List(ctx context.Context, offset, limit int) ([]domain.Question, int64, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, offset, limit)
	}
	return nil, 0, nil
}

func (m *MockQuestionRepository) RecountAnswers(ctx context.Context, id uint) (*domain.Question, error) {
	if m.RecountAnswersFunc != nil {
		return m.RecountAnswersFunc(ctx, id)
	}
	return &domain.Question{ID: id, Status: domain.QuestionPending}, nil
}

func (m *MockQuestionRepository) MarkAccepted(ctx context.Context, id uint) (bool, error) {
	if m.MarkAcceptedFunc != nil {
		return m.MarkAcceptedFunc(ctx, id)
	}
	return true, nil
}

func (m *MockQuestionRepository) ClearAcceptance(ctx context.Context, id uint) error {
	if m.ClearAcceptanceFunc != nil {
		return m.ClearAcceptanceFunc(ctx, id)
	}
	return nil
}

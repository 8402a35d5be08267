package mocks

import (
	"context"

	"github.com/you/qnaforum/domain"
)

// MockAnswerRepository implements domain.AnswerRepository for testing
type MockAnswerRepository struct {
	CreateFunc                  func(ctx context.Context, answer *domain.Answer) error
	FindByIDFunc                func(ctx context.Context, id uint) (*domain.Answer, error)
	FindByQuestionAndExpertFunc func(ctx context.Context, questionID, expertID uint) (*domain.Answer, error)
	ListByQuestionFunc          func(ctx context.Context, questionID uint) ([]domain.Answer, error)
	UpdateModeratedFunc         func(ctx context.Context, answer *domain.Answer) (*domain.Answer, error)
	DeleteFunc                  func(ctx context.Context, id uint) error
	AddLikeFunc                 func(ctx context.Context, id uint) (*domain.Answer, error)
	AttachSocialPostFunc        func(ctx context.Context, post *domain.SocialPost) error
	RemoveSocialPostsFunc       func(ctx context.Context, answerID uint) error
}

// NewMockAnswerRepository creates a new MockAnswerRepository
func NewMockAnswerRepository() *MockAnswerRepository {
	return &MockAnswerRepository{}
}

func (m *MockAnswerRepository) Create(ctx context.Context, answer *domain.Answer) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, answer)
	}
	answer.ID = 1
	return nil
}

func (m *MockAnswerRepository) FindByID(ctx context.Context, id uint) (*domain.Answer, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, domain.ErrAnswerNotFound
}

func (m *MockAnswerRepository) FindByQuestionAndExpert(ctx context.Context, questionID, expertID uint) (*domain.Answer, error) {
	if m.FindByQuestionAndExpertFunc != nil {
		return m.FindByQuestionAndExpertFunc(ctx, questionID, expertID)
	}
	return nil, domain.ErrAnswerNotFound
}

func (m *MockAnswerRepository) ListByQuestion(ctx context.Context, questionID uint) ([]domain.Answer, error) {
	if m.ListByQuestionFunc != nil {
		return m.ListByQuestionFunc(ctx, questionID)
	}
	return nil, nil
}

func (m *MockAnswerRepository) UpdateModerated(ctx context.Context, answer *domain.Answer) (*domain.Answer, error) {
	if m.UpdateModeratedFunc != nil {
		return m.UpdateModeratedFunc(ctx, answer)
	}
	updated := *answer
	updated.Version++
	return &updated, nil
}

func (m *MockAnswerRepository) Delete(ctx context.Context, id uint) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *MockAnswerRepository) AddLike(ctx context.Context, id uint) (*domain.Answer, error) {
	if m.AddLikeFunc != nil {
		return m.AddLikeFunc(ctx, id)
	}
	return &domain.Answer{ID: id, Likes: 1}, nil
}

func (m *MockAnswerRepository) AttachSocialPost(ctx context.Context, post *domain.SocialPost) error {
	if m.AttachSocialPostFunc != nil {
		return m.AttachSocialPostFunc(ctx, post)
	}
	return nil
}

func (m *MockAnswerRepository) RemoveSocialPosts(ctx context.Context, answerID uint) error {
	if m.RemoveSocialPostsFunc != nil {
		return m.RemoveSocialPostsFunc(ctx, answerID)
	}
	return nil
}

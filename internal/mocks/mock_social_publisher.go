package mocks

import (
	"context"
	"fmt"

	"github.com/you/qnaforum/domain"
)

// MockSocialPublisher implements domain.SocialPublisher for testing
type MockSocialPublisher struct {
	PublishFunc   func(ctx context.Context, question *domain.Question, answer *domain.Answer) (string, error)
	RepublishFunc func(ctx context.Context, post *domain.SocialPost, content string) error
	RetractFunc   func(ctx context.Context, post *domain.SocialPost) error
}

// NewMockSocialPublisher creates a new MockSocialPublisher
func NewMockSocialPublisher() *MockSocialPublisher {
	return &MockSocialPublisher{}
}

func (m *MockSocialPublisher) Publish(ctx context.Context, question *domain.Question, answer *domain.Answer) (string, error) {
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, question, answer)
	}
	return fmt.Sprintf("ext-%d", answer.ID), nil
}

func (m *MockSocialPublisher) Republish(ctx context.Context, post *domain.SocialPost, content string) error {
	if m.RepublishFunc != nil {
		return m.RepublishFunc(ctx, post, content)
	}
	return nil
}

func (m *MockSocialPublisher) Retract(ctx context.Context, post *domain.SocialPost) error {
	if m.RetractFunc != nil {
		return m.RetractFunc(ctx, post)
	}
	return nil
}

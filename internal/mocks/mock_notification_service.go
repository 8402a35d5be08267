package mocks

import (
	"context"

	"github.com/you/qnaforum/domain"
)

// MockNotificationService implements domain.NotificationService for testing
type MockNotificationService struct {
	SendMailFunc func(ctx context.Context, to string, kind domain.MailKind, data map[string]string) error
	SendSMSFunc  func(to, message string) error
}

// NewMockNotificationService creates a new MockNotificationService
func NewMockNotificationService() *MockNotificationService {
	return &MockNotificationService{}
}

func (m *MockNotificationService) SendMail(ctx context.Context, to string, kind domain.MailKind, data map[string]string) error {
	if m.SendMailFunc != nil {
		return m.SendMailFunc(ctx, to, kind, data)
	}
	return nil
}

func (m *MockNotificationService) SendSMS(to, message string) error {
	if m.SendSMSFunc != nil {
		return m.SendSMSFunc(to, message)
	}
	return nil
}

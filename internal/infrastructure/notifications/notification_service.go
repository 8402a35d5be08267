package notifications

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/you/qnaforum/domain"
)

// SMTPConfig holds the outbound mail transport settings.
type SMTPConfig struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

// NotificationServiceImpl implements domain.NotificationService with SMTP
// for mail and Twilio for SMS. Both channels degrade to a logged mock when
// unconfigured, which keeps local development working without credentials.
type NotificationServiceImpl struct {
	smtp       SMTPConfig
	twilio     *twilio.RestClient
	fromNumber string
}

// NewNotificationService creates a new notification service
func NewNotificationService(smtpCfg SMTPConfig, accountSID, authToken, fromNumber string) domain.NotificationService {
	var client *twilio.RestClient
	if accountSID != "" {
		client = twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: accountSID,
			Password: authToken,
		})
	}
	return &NotificationServiceImpl{
		smtp:       smtpCfg,
		twilio:     client,
		fromNumber: fromNumber,
	}
}

// mailTemplates maps a template kind to subject and body. The body is a
// plain-text template with {{key}} placeholders filled from the payload.
var mailTemplates = map[domain.MailKind]struct {
	subject string
	body    string
}{
	domain.MailEmailVerification: {
		subject: "Confirm your email address",
		body:    "Your verification code is {{code}}. It expires in {{ttl_minutes}} minutes.",
	},
	domain.MailPasswordReset: {
		subject: "Reset your password",
		body:    "Your password reset code is {{code}}. It expires in {{ttl_minutes}} minutes.",
	},
	domain.MailAnswerApproved: {
		subject: "Your answer was published",
		body:    "Your answer to \"{{question}}\" passed moderation and is now visible.",
	},
	domain.MailAnswerRejected: {
		subject: "Your answer was not published",
		body:    "Your answer to \"{{question}}\" was rejected. Moderator comment: {{comment}}",
	},
}

// SendMail implements domain.NotificationService
func (n *NotificationServiceImpl) SendMail(ctx context.Context, to string, kind domain.MailKind, data map[string]string) error {
	tpl, ok := mailTemplates[kind]
	if !ok {
		return fmt.Errorf("unknown mail template %q", kind)
	}

	body := tpl.body
	for key, value := range data {
		body = strings.ReplaceAll(body, "{{"+key+"}}", value)
	}

	if n.smtp.Host == "" {
		fmt.Printf("[MOCK MAIL] To: %s, Subject: %s, Body: %s\n", to, tpl.subject, body)
		return nil
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n",
		n.smtp.From, to, tpl.subject, body)
	addr := fmt.Sprintf("%s:%d", n.smtp.Host, n.smtp.Port)
	auth := smtp.PlainAuth("", n.smtp.User, n.smtp.Pass, n.smtp.Host)

	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(addr, auth, n.smtp.From, []string{to}, []byte(msg))
	}()
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to send mail: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SendSMS implements domain.NotificationService
func (n *NotificationServiceImpl) SendSMS(to, message string) error {
	if n.twilio == nil || n.fromNumber == "" {
		fmt.Printf("[MOCK SMS] To: %s, Message: %s\n", to, message)
		return nil
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(n.fromNumber)
	params.SetBody(message)

	if _, err := n.twilio.Api.CreateMessage(params); err != nil {
		return fmt.Errorf("failed to send SMS: %w", err)
	}
	return nil
}
